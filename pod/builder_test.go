// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package pod

import (
	"errors"
	"testing"
)

func buildEightFieldStruct(t *testing.T, b *Builder) []byte {
	t.Helper()
	f, err := b.PushStruct()
	if err != nil {
		t.Fatalf("push struct: %v", err)
	}
	if err := b.AddInt(4); err != nil {
		t.Fatalf("add int: %v", err)
	}
	if err := b.AddLong(6000); err != nil {
		t.Fatalf("add long: %v", err)
	}
	if err := b.AddFloat(4.0); err != nil {
		t.Fatalf("add float: %v", err)
	}
	if err := b.AddDouble(3.14); err != nil {
		t.Fatalf("add double: %v", err)
	}
	if err := b.AddString("test123"); err != nil {
		t.Fatalf("add string: %v", err)
	}
	if err := b.AddRectangle(320, 240); err != nil {
		t.Fatalf("add rectangle: %v", err)
	}
	if err := b.AddFraction(25, 1); err != nil {
		t.Fatalf("add fraction: %v", err)
	}
	af, err := b.PushArray()
	if err != nil {
		t.Fatalf("push array: %v", err)
	}
	for _, v := range []int32{4, 5, 6} {
		if err := b.AddInt(v); err != nil {
			t.Fatalf("add array int: %v", err)
		}
	}
	if err := b.Pop(af); err != nil {
		t.Fatalf("pop array: %v", err)
	}
	if err := b.Pop(f); err != nil {
		t.Fatalf("pop struct: %v", err)
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	return data
}

func TestStructRoundTrip(t *testing.T) {
	data := buildEightFieldStruct(t, NewBuilder(1024))

	p, err := NewParser(data).PushStruct()
	if err != nil {
		t.Fatalf("push struct: %v", err)
	}
	if v, err := p.Int(); err != nil || v != 4 {
		t.Fatalf("int = %d, %v", v, err)
	}
	if v, err := p.Long(); err != nil || v != 6000 {
		t.Fatalf("long = %d, %v", v, err)
	}
	if v, err := p.Float(); err != nil || v != 4.0 {
		t.Fatalf("float = %g, %v", v, err)
	}
	if v, err := p.Double(); err != nil || v != 3.14 {
		t.Fatalf("double = %g, %v", v, err)
	}
	if v, err := p.Str(); err != nil || v != "test123" {
		t.Fatalf("string = %q, %v", v, err)
	}
	if w, h, err := p.Rectangle(); err != nil || w != 320 || h != 240 {
		t.Fatalf("rectangle = %dx%d, %v", w, h, err)
	}
	if n, d, err := p.Fraction(); err != nil || n != 25 || d != 1 {
		t.Fatalf("fraction = %d/%d, %v", n, d, err)
	}
	av, err := p.Next()
	if err != nil {
		t.Fatalf("array pod: %v", err)
	}
	arr, err := av.Array()
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	ints, err := arr.Ints()
	if err != nil {
		t.Fatalf("ints: %v", err)
	}
	if len(ints) != 3 || ints[0] != 4 || ints[1] != 5 || ints[2] != 6 {
		t.Fatalf("ints = %v", ints)
	}
	if p.More() {
		t.Fatalf("%d trailing bytes", p.Remaining())
	}
}

func TestDeclaredSizesUnpadded(t *testing.T) {
	b := NewBuilder(256)
	f, _ := b.PushStruct()
	if err := b.AddString("abc"); err != nil {
		t.Fatalf("add string: %v", err)
	}
	if err := b.Pop(f); err != nil {
		t.Fatalf("pop: %v", err)
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	// string body is "abc\0" = 4 bytes declared, 8 occupied
	if got := le.Uint32(data[8:]); got != 4 {
		t.Fatalf("string size = %d, want 4", got)
	}
	// struct body holds one padded string pod
	if got := le.Uint32(data); got != 16 {
		t.Fatalf("struct size = %d, want 16", got)
	}
	if len(data)%8 != 0 {
		t.Fatalf("message length %d not aligned", len(data))
	}
}

func TestDeepNesting(t *testing.T) {
	b := NewBuilder(1024)
	outer, _ := b.PushStruct()
	obj, err := b.PushObject(0x40003, 3)
	if err != nil {
		t.Fatalf("push object: %v", err)
	}
	if err := b.PushProperty(7, 0); err != nil {
		t.Fatalf("push property: %v", err)
	}
	inner, err := b.PushStruct()
	if err != nil {
		t.Fatalf("push inner struct: %v", err)
	}
	arr, err := b.PushArray()
	if err != nil {
		t.Fatalf("push array: %v", err)
	}
	for _, v := range []int32{1, 2} {
		if err := b.AddInt(v); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := b.Pop(arr); err != nil {
		t.Fatalf("pop array: %v", err)
	}
	if err := b.Pop(inner); err != nil {
		t.Fatalf("pop inner: %v", err)
	}
	if err := b.Pop(obj); err != nil {
		t.Fatalf("pop object: %v", err)
	}
	if err := b.Pop(outer); err != nil {
		t.Fatalf("pop outer: %v", err)
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}

	p, err := NewParser(data).PushStruct()
	if err != nil {
		t.Fatalf("parse struct: %v", err)
	}
	o, err := p.PushObject()
	if err != nil {
		t.Fatalf("parse object: %v", err)
	}
	if o.Type != 0x40003 || o.ID != 3 {
		t.Fatalf("object header = %#x/%d", o.Type, o.ID)
	}
	prop, ok := o.Find(7)
	if !ok {
		t.Fatalf("property 7 missing")
	}
	ip, err := prop.Value.Parser()
	if err != nil {
		t.Fatalf("inner struct: %v", err)
	}
	av, err := ip.Next()
	if err != nil {
		t.Fatalf("array pod: %v", err)
	}
	a, err := av.Array()
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	ints, err := a.Ints()
	if err != nil || len(ints) != 2 || ints[1] != 2 {
		t.Fatalf("ints = %v, %v", ints, err)
	}
}

func TestChoiceNestedContainers(t *testing.T) {
	b := NewBuilder(1024)
	ch, err := b.PushChoice(ChoiceNone, 0)
	if err != nil {
		t.Fatalf("push choice: %v", err)
	}
	arr, err := b.PushArray()
	if err != nil {
		t.Fatalf("push array: %v", err)
	}
	obj, err := b.PushObject(0x40001, 1)
	if err != nil {
		t.Fatalf("push object: %v", err)
	}
	if err := b.PushProperty(7, 0); err != nil {
		t.Fatalf("push property: %v", err)
	}
	st, err := b.PushStruct()
	if err != nil {
		t.Fatalf("push struct: %v", err)
	}
	if err := b.AddInt(42); err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, f := range []*Frame{st, obj, arr, ch} {
		if err := b.Pop(f); err != nil {
			t.Fatalf("pop: %v", err)
		}
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}

	v, err := NewParser(data).Next()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := v.Choice()
	if err != nil {
		t.Fatalf("choice: %v", err)
	}
	if c.Kind != ChoiceNone || c.ChildType != TypeArray || c.Len() != 1 {
		t.Fatalf("choice = kind %d child %v len %d", c.Kind, c.ChildType, c.Len())
	}
	a, err := c.Value(0).Array()
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if a.ChildType != TypeObject || a.Len() != 1 {
		t.Fatalf("array = child %v len %d", a.ChildType, a.Len())
	}
	o, err := a.Value(0).Object()
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	if o.Type != 0x40001 || o.ID != 1 {
		t.Fatalf("object header = %#x/%d", o.Type, o.ID)
	}
	prop, ok := o.Find(7)
	if !ok {
		t.Fatalf("property 7 missing")
	}
	sp, err := prop.Value.Parser()
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	if i, err := sp.Int(); err != nil || i != 42 {
		t.Fatalf("int = %d, %v", i, err)
	}
}

func TestOverflowAbortsMessage(t *testing.T) {
	b := NewBuilder(24)
	f, _ := b.PushStruct()
	if err := b.AddLong(1); err != nil {
		t.Fatalf("first long: %v", err)
	}
	if err := b.AddLong(2); !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("second long err = %v", err)
	}
	// the error is latched: nothing works afterwards
	if err := b.AddInt(3); !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("add after overflow err = %v", err)
	}
	if err := b.Pop(f); !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("pop after overflow err = %v", err)
	}
	if _, err := b.Bytes(); !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("bytes after overflow err = %v", err)
	}
}

func TestFrameDiscipline(t *testing.T) {
	b := NewBuilder(256)
	outer, _ := b.PushStruct()
	inner, _ := b.PushStruct()
	if err := b.Pop(outer); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("out of order pop err = %v", err)
	}
	_ = inner

	b = NewBuilder(256)
	if _, err := b.PushStruct(); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := b.Bytes(); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("bytes with open frame err = %v", err)
	}

	b = NewBuilder(256)
	if err := b.PushProperty(1, 0); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("property outside object err = %v", err)
	}
}

func TestArrayChildMismatch(t *testing.T) {
	b := NewBuilder(256)
	f, _ := b.PushArray()
	if err := b.AddInt(1); err != nil {
		t.Fatalf("add int: %v", err)
	}
	if err := b.AddLong(2); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("mixed child err = %v", err)
	}
	_ = f
}

func TestChoiceRoundTrip(t *testing.T) {
	b := NewBuilder(256)
	f, err := b.PushChoice(ChoiceEnum, 0)
	if err != nil {
		t.Fatalf("push choice: %v", err)
	}
	for _, v := range []uint32{10, 20, 30} {
		if err := b.AddID(v); err != nil {
			t.Fatalf("add id: %v", err)
		}
	}
	if err := b.Pop(f); err != nil {
		t.Fatalf("pop: %v", err)
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}

	v, err := NewParser(data).Next()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := v.Choice()
	if err != nil {
		t.Fatalf("choice: %v", err)
	}
	if c.Kind != ChoiceEnum || c.ChildType != TypeID || c.Len() != 3 {
		t.Fatalf("choice = kind %d type %v len %d", c.Kind, c.ChildType, c.Len())
	}
	// a reader that only wants the default treats it as the scalar
	if id, err := v.ID(); err != nil || id != 10 {
		t.Fatalf("default id = %d, %v", id, err)
	}
}
