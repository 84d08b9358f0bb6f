// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pod implements the tagged binary value encoding carried by a
// podwire connection: a nestable format of scalars, strings, arrays,
// structs, keyed object property bags and choice (range/enum) values.
//
// Every pod is an 8-byte little-endian header {size uint32, type uint32}
// followed by the body. The declared size is the unpadded body length;
// bodies occupy the next multiple of 8 bytes in the buffer. Children of
// arrays and choices share one header and are packed back to back.
package pod

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

var le = binary.LittleEndian

// Type tags a pod body.
type Type uint32

const (
	TypeNone Type = iota + 1
	TypeBool
	TypeID
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeString
	TypeBytes
	TypeRectangle
	TypeFraction
	TypeBitmap
	TypeArray
	TypeStruct
	TypeObject
	TypeSequence
	TypePointer
	TypeFd
	TypeChoice
)

var typeNames = map[Type]string{
	TypeNone: "None", TypeBool: "Bool", TypeID: "Id", TypeInt: "Int",
	TypeLong: "Long", TypeFloat: "Float", TypeDouble: "Double",
	TypeString: "String", TypeBytes: "Bytes", TypeRectangle: "Rectangle",
	TypeFraction: "Fraction", TypeBitmap: "Bitmap", TypeArray: "Array",
	TypeStruct: "Struct", TypeObject: "Object", TypeSequence: "Sequence",
	TypePointer: "Pointer", TypeFd: "Fd", TypeChoice: "Choice",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// Choice kinds, stored as the first word of a choice body.
const (
	ChoiceNone uint32 = iota // a single value
	ChoiceRange              // default, min, max
	ChoiceStep               // default, min, max, step
	ChoiceEnum               // default followed by the allowed set
	ChoiceFlags              // default followed by the possible flags
)

// Object property flags.
const (
	PropFlagReadable  uint32 = 1 << 0
	PropFlagWritable  uint32 = 1 << 1
	PropFlagReadWrite        = PropFlagReadable | PropFlagWritable
)

const (
	// HeaderSize is the fixed pod header length.
	HeaderSize = 8
	align      = 8
)

var (
	ErrBufferOverflow = errors.New("pod: write exceeds buffer capacity")
	ErrMalformedPod   = errors.New("pod: malformed pod")
	ErrBadFrame       = errors.New("pod: container frame misuse")
)

// pad rounds a body size up to the buffer stride.
func pad(size uint32) uint32 { return (size + align - 1) &^ (align - 1) }

// Value is one decoded pod: a type tag and its raw body, padding excluded.
// Container values keep their children inside Body; the accessors below
// interpret it on demand so a whole message stays a single buffer.
type Value struct {
	Type Type
	Body []byte
}

// scalar returns the first n body bytes if the value carries type t,
// accepting a choice whose children carry t (the default is used).
func (v Value) scalar(t Type, n int) ([]byte, error) {
	if v.Type == t {
		if len(v.Body) < n {
			return nil, fmt.Errorf("%w: %v body of %d bytes", ErrMalformedPod, t, len(v.Body))
		}
		return v.Body[:n], nil
	}
	if v.Type == TypeChoice {
		c, err := v.Choice()
		if err != nil {
			return nil, err
		}
		if c.ChildType == t && int(c.ChildSize) >= n && c.Len() > 0 {
			return c.Value(0).Body[:n], nil
		}
	}
	return nil, fmt.Errorf("%w: have %v, want %v", ErrMalformedPod, v.Type, t)
}

func (v Value) Bool() (bool, error) {
	b, err := v.scalar(TypeBool, 4)
	if err != nil {
		return false, err
	}
	return le.Uint32(b) != 0, nil
}

func (v Value) ID() (uint32, error) {
	b, err := v.scalar(TypeID, 4)
	if err != nil {
		return 0, err
	}
	return le.Uint32(b), nil
}

func (v Value) Int() (int32, error) {
	b, err := v.scalar(TypeInt, 4)
	if err != nil {
		return 0, err
	}
	return int32(le.Uint32(b)), nil
}

func (v Value) Long() (int64, error) {
	b, err := v.scalar(TypeLong, 8)
	if err != nil {
		return 0, err
	}
	return int64(le.Uint64(b)), nil
}

func (v Value) Float() (float32, error) {
	b, err := v.scalar(TypeFloat, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(le.Uint32(b)), nil
}

func (v Value) Double() (float64, error) {
	b, err := v.scalar(TypeDouble, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(le.Uint64(b)), nil
}

// Str returns a string body. The declared size includes the terminating
// NUL; anything after the first NUL is ignored.
func (v Value) Str() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("%w: have %v, want %v", ErrMalformedPod, v.Type, TypeString)
	}
	if i := strings.IndexByte(string(v.Body), 0); i >= 0 {
		return string(v.Body[:i]), nil
	}
	return "", fmt.Errorf("%w: string missing terminator", ErrMalformedPod)
}

func (v Value) Bytes() ([]byte, error) {
	if v.Type != TypeBytes && v.Type != TypeBitmap {
		return nil, fmt.Errorf("%w: have %v, want %v", ErrMalformedPod, v.Type, TypeBytes)
	}
	return v.Body, nil
}

func (v Value) Rectangle() (width, height uint32, err error) {
	b, err := v.scalar(TypeRectangle, 8)
	if err != nil {
		return 0, 0, err
	}
	return le.Uint32(b), le.Uint32(b[4:]), nil
}

func (v Value) Fraction() (num, denom uint32, err error) {
	b, err := v.scalar(TypeFraction, 8)
	if err != nil {
		return 0, 0, err
	}
	return le.Uint32(b), le.Uint32(b[4:]), nil
}

func (v Value) Fd() (int64, error) {
	b, err := v.scalar(TypeFd, 8)
	if err != nil {
		return 0, err
	}
	return int64(le.Uint64(b)), nil
}

// Pointer returns the pointed-to type tag and the opaque reference value.
func (v Value) Pointer() (typ uint32, ref uint64, err error) {
	b, err := v.scalar(TypePointer, 16)
	if err != nil {
		return 0, 0, err
	}
	return le.Uint32(b), le.Uint64(b[8:]), nil
}

// String renders the value tree for diagnostics.
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.Type {
	case TypeNone:
		sb.WriteString("None")
	case TypeBool:
		b, _ := v.Bool()
		fmt.Fprintf(sb, "Bool(%v)", b)
	case TypeID:
		id, _ := v.ID()
		fmt.Fprintf(sb, "Id(%d)", id)
	case TypeInt:
		i, _ := v.Int()
		fmt.Fprintf(sb, "Int(%d)", i)
	case TypeLong:
		l, _ := v.Long()
		fmt.Fprintf(sb, "Long(%d)", l)
	case TypeFloat:
		f, _ := v.Float()
		fmt.Fprintf(sb, "Float(%g)", f)
	case TypeDouble:
		d, _ := v.Double()
		fmt.Fprintf(sb, "Double(%g)", d)
	case TypeString:
		s, _ := v.Str()
		fmt.Fprintf(sb, "String(%q)", s)
	case TypeRectangle:
		w, h, _ := v.Rectangle()
		fmt.Fprintf(sb, "Rectangle(%dx%d)", w, h)
	case TypeFraction:
		n, d, _ := v.Fraction()
		fmt.Fprintf(sb, "Fraction(%d/%d)", n, d)
	case TypeStruct:
		sb.WriteString("Struct{")
		p, err := v.Parser()
		for err == nil && p.More() {
			var c Value
			if c, err = p.Next(); err == nil {
				c.format(sb)
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('}')
	case TypeObject:
		o, err := v.Object()
		if err != nil {
			sb.WriteString("Object(?)")
			return
		}
		fmt.Fprintf(sb, "Object(type:%#x id:%d){", o.Type, o.ID)
		for {
			prop, ok, err := o.Next()
			if err != nil || !ok {
				break
			}
			fmt.Fprintf(sb, "%d:", prop.Key)
			prop.Value.format(sb)
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
	case TypeArray:
		a, err := v.Array()
		if err != nil {
			sb.WriteString("Array(?)")
			return
		}
		fmt.Fprintf(sb, "Array[%v]{", a.ChildType)
		for i := 0; i < a.Len(); i++ {
			a.Value(i).format(sb)
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
	case TypeChoice:
		c, err := v.Choice()
		if err != nil {
			sb.WriteString("Choice(?)")
			return
		}
		fmt.Fprintf(sb, "Choice(kind:%d)[%v]{", c.Kind, c.ChildType)
		for i := 0; i < c.Len(); i++ {
			c.Value(i).format(sb)
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
	default:
		fmt.Fprintf(sb, "%v(%d bytes)", v.Type, len(v.Body))
	}
}
