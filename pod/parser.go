// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package pod

import "fmt"

// Parser walks a buffer of consecutive pods. Every read is bounds-checked
// against the slice it was created over, so a sub-parser returned for a
// container can never escape the container's declared size.
type Parser struct {
	data []byte
	off  int
}

// NewParser returns a parser over one or more encoded pods.
func NewParser(data []byte) *Parser { return &Parser{data: data} }

// More reports whether unread bytes remain.
func (p *Parser) More() bool { return p.off < len(p.data) }

// Remaining returns the number of unread bytes.
func (p *Parser) Remaining() int { return len(p.data) - p.off }

// Next decodes the pod at the cursor and advances past it and its padding.
func (p *Parser) Next() (Value, error) {
	if p.off+HeaderSize > len(p.data) {
		return Value{}, fmt.Errorf("%w: truncated header at %d", ErrMalformedPod, p.off)
	}
	size := le.Uint32(p.data[p.off:])
	typ := Type(le.Uint32(p.data[p.off+4:]))
	body := p.off + HeaderSize
	if uint32(len(p.data)-body) < size {
		return Value{}, fmt.Errorf("%w: %v of %d bytes exceeds buffer", ErrMalformedPod, typ, size)
	}
	v := Value{Type: typ, Body: p.data[body : body+int(size)]}
	// the final pod of a container is not padded past the declared size
	next := body + int(pad(size))
	if next > len(p.data) {
		next = len(p.data)
	}
	p.off = next
	return v, nil
}

func (p *Parser) Bool() (bool, error) {
	v, err := p.Next()
	if err != nil {
		return false, err
	}
	return v.Bool()
}

func (p *Parser) ID() (uint32, error) {
	v, err := p.Next()
	if err != nil {
		return 0, err
	}
	return v.ID()
}

func (p *Parser) Int() (int32, error) {
	v, err := p.Next()
	if err != nil {
		return 0, err
	}
	return v.Int()
}

func (p *Parser) Long() (int64, error) {
	v, err := p.Next()
	if err != nil {
		return 0, err
	}
	return v.Long()
}

func (p *Parser) Float() (float32, error) {
	v, err := p.Next()
	if err != nil {
		return 0, err
	}
	return v.Float()
}

func (p *Parser) Double() (float64, error) {
	v, err := p.Next()
	if err != nil {
		return 0, err
	}
	return v.Double()
}

func (p *Parser) Str() (string, error) {
	v, err := p.Next()
	if err != nil {
		return "", err
	}
	return v.Str()
}

func (p *Parser) Bytes() ([]byte, error) {
	v, err := p.Next()
	if err != nil {
		return nil, err
	}
	return v.Bytes()
}

func (p *Parser) Rectangle() (width, height uint32, err error) {
	v, err := p.Next()
	if err != nil {
		return 0, 0, err
	}
	return v.Rectangle()
}

func (p *Parser) Fraction() (num, denom uint32, err error) {
	v, err := p.Next()
	if err != nil {
		return 0, 0, err
	}
	return v.Fraction()
}

func (p *Parser) Fd() (int64, error) {
	v, err := p.Next()
	if err != nil {
		return 0, err
	}
	return v.Fd()
}

// Pod returns the next pod of any type.
func (p *Parser) Pod() (Value, error) { return p.Next() }

// PushStruct consumes a struct pod and returns a parser over its fields.
func (p *Parser) PushStruct() (*Parser, error) {
	v, err := p.Next()
	if err != nil {
		return nil, err
	}
	return v.Parser()
}

// PushObject consumes an object pod and returns its property cursor.
func (p *Parser) PushObject() (*Object, error) {
	v, err := p.Next()
	if err != nil {
		return nil, err
	}
	return v.Object()
}

// Parser returns a field cursor over a struct body.
func (v Value) Parser() (*Parser, error) {
	if v.Type != TypeStruct {
		return nil, fmt.Errorf("%w: have %v, want %v", ErrMalformedPod, v.Type, TypeStruct)
	}
	return NewParser(v.Body), nil
}

// Object is a decoded object header plus a cursor over its properties.
// Type and ID are the two raw header words; what they mean depends on the
// protocol generation that encoded them.
type Object struct {
	Type uint32
	ID   uint32
	body []byte
	off  int
}

// Property is one keyed value inside an object. Readers skip keys they do
// not recognize; an unknown key is never an error.
type Property struct {
	Key   uint32
	Flags uint32
	Value Value
}

func (v Value) Object() (*Object, error) {
	if v.Type != TypeObject {
		return nil, fmt.Errorf("%w: have %v, want %v", ErrMalformedPod, v.Type, TypeObject)
	}
	if len(v.Body) < 8 {
		return nil, fmt.Errorf("%w: object body of %d bytes", ErrMalformedPod, len(v.Body))
	}
	return &Object{
		Type: le.Uint32(v.Body),
		ID:   le.Uint32(v.Body[4:]),
		body: v.Body[8:],
	}, nil
}

// Next returns the next property, or ok=false when the object is
// exhausted.
func (o *Object) Next() (Property, bool, error) {
	if o.off >= len(o.body) {
		return Property{}, false, nil
	}
	if o.off+8+HeaderSize > len(o.body) {
		return Property{}, false, fmt.Errorf("%w: truncated property at %d", ErrMalformedPod, o.off)
	}
	key := le.Uint32(o.body[o.off:])
	flags := le.Uint32(o.body[o.off+4:])
	sub := NewParser(o.body[o.off+8:])
	v, err := sub.Next()
	if err != nil {
		return Property{}, false, err
	}
	o.off += 8 + HeaderSize + int(pad(uint32(len(v.Body))))
	if o.off > len(o.body) {
		o.off = len(o.body)
	}
	return Property{Key: key, Flags: flags, Value: v}, true, nil
}

// Find scans from the start of the object for the given key.
func (o *Object) Find(key uint32) (Property, bool) {
	it := &Object{Type: o.Type, ID: o.ID, body: o.body}
	for {
		prop, ok, err := it.Next()
		if err != nil || !ok {
			return Property{}, false
		}
		if prop.Key == key {
			return prop, true
		}
	}
}

// Pods returns a cursor over the object body as plain consecutive pods.
// Legacy encodings store object members this way instead of as keyed
// properties.
func (o *Object) Pods() *Parser { return NewParser(o.body) }

// Array is a decoded array: one shared child header and packed bodies.
type Array struct {
	ChildType Type
	ChildSize uint32
	vals      []byte
}

func (v Value) Array() (*Array, error) {
	if v.Type != TypeArray {
		return nil, fmt.Errorf("%w: have %v, want %v", ErrMalformedPod, v.Type, TypeArray)
	}
	if len(v.Body) < HeaderSize {
		return nil, fmt.Errorf("%w: array body of %d bytes", ErrMalformedPod, len(v.Body))
	}
	return &Array{
		ChildSize: le.Uint32(v.Body),
		ChildType: Type(le.Uint32(v.Body[4:])),
		vals:      v.Body[HeaderSize:],
	}, nil
}

func (a *Array) Len() int {
	if a.ChildSize == 0 {
		return 0
	}
	return len(a.vals) / int(a.ChildSize)
}

func (a *Array) Value(i int) Value {
	off := i * int(a.ChildSize)
	return Value{Type: a.ChildType, Body: a.vals[off : off+int(a.ChildSize)]}
}

// Ints collects an Int array into a slice.
func (a *Array) Ints() ([]int32, error) {
	if a.ChildType != TypeInt || a.ChildSize < 4 {
		return nil, fmt.Errorf("%w: array of %v", ErrMalformedPod, a.ChildType)
	}
	out := make([]int32, a.Len())
	for i := range out {
		out[i] = int32(le.Uint32(a.Value(i).Body))
	}
	return out, nil
}

// Choice is a decoded choice: a kind, one shared child header and packed
// bodies, the first of which is the default.
type Choice struct {
	Kind      uint32
	Flags     uint32
	ChildType Type
	ChildSize uint32
	vals      []byte
}

func (v Value) Choice() (*Choice, error) {
	if v.Type != TypeChoice {
		return nil, fmt.Errorf("%w: have %v, want %v", ErrMalformedPod, v.Type, TypeChoice)
	}
	if len(v.Body) < 8+HeaderSize {
		return nil, fmt.Errorf("%w: choice body of %d bytes", ErrMalformedPod, len(v.Body))
	}
	return &Choice{
		Kind:      le.Uint32(v.Body),
		Flags:     le.Uint32(v.Body[4:]),
		ChildSize: le.Uint32(v.Body[8:]),
		ChildType: Type(le.Uint32(v.Body[12:])),
		vals:      v.Body[8+HeaderSize:],
	}, nil
}

func (c *Choice) Len() int {
	if c.ChildSize == 0 {
		return 0
	}
	return len(c.vals) / int(c.ChildSize)
}

func (c *Choice) Value(i int) Value {
	off := i * int(c.ChildSize)
	return Value{Type: c.ChildType, Body: c.vals[off : off+int(c.ChildSize)]}
}
