// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package pod

import "math"

// Frame tracks one open container so its size can be patched on Pop.
type Frame struct {
	b     *Builder
	start int // offset of the container's pod header
	typ   Type

	// packed containers (array, choice) share one child header
	first     bool
	childType Type
	childSize uint32
}

// Builder writes pods into a fixed-capacity buffer. Containers are opened
// with the Push methods and closed with Pop, which back-patches the size
// left blank at push time. The first write that does not fit latches an
// error; every later call fails with it and the message must be discarded.
type Builder struct {
	buf    []byte
	n      int
	frames []*Frame
	err    error
}

// NewBuilder returns a builder over a fresh buffer of the given capacity.
func NewBuilder(capacity int) *Builder {
	return &Builder{buf: make([]byte, capacity)}
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return b.n }

// Err returns the latched error, if any.
func (b *Builder) Err() error { return b.err }

// Bytes returns the encoded message. All frames must be closed.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.frames) != 0 {
		return nil, ErrBadFrame
	}
	return b.buf[:b.n], nil
}

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

func (b *Builder) top() *Frame {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

// packed returns the top frame when children are written without headers.
func (b *Builder) packed() *Frame {
	if f := b.top(); f != nil && (f.typ == TypeArray || f.typ == TypeChoice) {
		return f
	}
	return nil
}

func (b *Builder) writeRaw(data []byte) error {
	if b.err != nil {
		return b.err
	}
	if b.n+len(data) > len(b.buf) {
		return b.fail(ErrBufferOverflow)
	}
	copy(b.buf[b.n:], data)
	b.n += len(data)
	return nil
}

func (b *Builder) writeWords(ws ...uint32) error {
	buf := make([]byte, 4*len(ws))
	for i, w := range ws {
		le.PutUint32(buf[4*i:], w)
	}
	return b.writeRaw(buf)
}

func (b *Builder) padTo8() error {
	if b.err != nil {
		return b.err
	}
	if rem := b.n % align; rem != 0 {
		if b.n+align-rem > len(b.buf) {
			return b.fail(ErrBufferOverflow)
		}
		for i := 0; i < align-rem; i++ {
			b.buf[b.n] = 0
			b.n++
		}
	}
	return nil
}

// primitive writes a complete pod, or a bare packed child inside an array
// or choice frame. len(body) must equal size.
func (b *Builder) primitive(t Type, size uint32, body []byte) error {
	if b.err != nil {
		return b.err
	}
	if f := b.packed(); f != nil {
		if f.first {
			if err := b.writeWords(size, uint32(t)); err != nil {
				return err
			}
			f.first = false
			f.childType = t
			f.childSize = size
		} else if t != f.childType || size != f.childSize {
			return b.fail(ErrBadFrame)
		}
		return b.writeRaw(body)
	}
	if err := b.writeWords(size, uint32(t)); err != nil {
		return err
	}
	if err := b.writeRaw(body); err != nil {
		return err
	}
	return b.padTo8()
}

func (b *Builder) AddNone() error { return b.primitive(TypeNone, 0, nil) }

func (b *Builder) AddBool(v bool) error {
	var w uint32
	if v {
		w = 1
	}
	body := make([]byte, 4)
	le.PutUint32(body, w)
	return b.primitive(TypeBool, 4, body)
}

func (b *Builder) AddID(v uint32) error {
	body := make([]byte, 4)
	le.PutUint32(body, v)
	return b.primitive(TypeID, 4, body)
}

func (b *Builder) AddInt(v int32) error {
	body := make([]byte, 4)
	le.PutUint32(body, uint32(v))
	return b.primitive(TypeInt, 4, body)
}

func (b *Builder) AddLong(v int64) error {
	body := make([]byte, 8)
	le.PutUint64(body, uint64(v))
	return b.primitive(TypeLong, 8, body)
}

func (b *Builder) AddFloat(v float32) error {
	body := make([]byte, 4)
	le.PutUint32(body, math.Float32bits(v))
	return b.primitive(TypeFloat, 4, body)
}

func (b *Builder) AddDouble(v float64) error {
	body := make([]byte, 8)
	le.PutUint64(body, math.Float64bits(v))
	return b.primitive(TypeDouble, 8, body)
}

// AddString writes the string with its terminating NUL included in the
// declared size.
func (b *Builder) AddString(s string) error {
	body := make([]byte, len(s)+1)
	copy(body, s)
	return b.primitive(TypeString, uint32(len(body)), body)
}

func (b *Builder) AddBytes(p []byte) error {
	return b.primitive(TypeBytes, uint32(len(p)), p)
}

func (b *Builder) AddBitmap(p []byte) error {
	return b.primitive(TypeBitmap, uint32(len(p)), p)
}

func (b *Builder) AddRectangle(width, height uint32) error {
	body := make([]byte, 8)
	le.PutUint32(body, width)
	le.PutUint32(body[4:], height)
	return b.primitive(TypeRectangle, 8, body)
}

func (b *Builder) AddFraction(num, denom uint32) error {
	body := make([]byte, 8)
	le.PutUint32(body, num)
	le.PutUint32(body[4:], denom)
	return b.primitive(TypeFraction, 8, body)
}

func (b *Builder) AddFd(v int64) error {
	body := make([]byte, 8)
	le.PutUint64(body, uint64(v))
	return b.primitive(TypeFd, 8, body)
}

func (b *Builder) AddPointer(typ uint32, ref uint64) error {
	body := make([]byte, 16)
	le.PutUint32(body, typ)
	le.PutUint64(body[8:], ref)
	return b.primitive(TypePointer, 16, body)
}

// AddPod copies a decoded pod verbatim, header included.
func (b *Builder) AddPod(v Value) error {
	return b.primitive(v.Type, uint32(len(v.Body)), v.Body)
}

// AddRaw appends bytes without a header and without padding. The caller
// owns alignment.
func (b *Builder) AddRaw(data []byte) error {
	return b.writeRaw(data)
}

// push opens a container: a header with a blank size, then any fixed body
// prefix words.
func (b *Builder) push(t Type, bodyPrefix ...uint32) (*Frame, error) {
	if b.err != nil {
		return nil, b.err
	}
	f := &Frame{b: b, start: b.n, typ: t, first: t == TypeArray || t == TypeChoice}
	if err := b.writeWords(0, uint32(t)); err != nil {
		return nil, err
	}
	if len(bodyPrefix) > 0 {
		if err := b.writeWords(bodyPrefix...); err != nil {
			return nil, err
		}
	}
	b.frames = append(b.frames, f)
	return f, nil
}

func (b *Builder) PushStruct() (*Frame, error) { return b.push(TypeStruct) }

func (b *Builder) PushObject(objType, objID uint32) (*Frame, error) {
	return b.push(TypeObject, objType, objID)
}

// PushArray opens an array. The first child written defines the shared
// element type and size; later children must match it.
func (b *Builder) PushArray() (*Frame, error) { return b.push(TypeArray) }

// PushChoice opens a choice of the given kind. Children pack like array
// elements, the first one being the default.
func (b *Builder) PushChoice(kind, flags uint32) (*Frame, error) {
	return b.push(TypeChoice, kind, flags)
}

// PushProperty starts an object property: key and flags, then exactly one
// pod written by the caller. Only valid inside an object frame.
func (b *Builder) PushProperty(key, flags uint32) error {
	if f := b.top(); f == nil || f.typ != TypeObject {
		return b.fail(ErrBadFrame)
	}
	return b.writeWords(key, flags)
}

// Pop closes the container, which must be the innermost open frame, and
// patches its size. Sizes exclude the padding added after the body.
func (b *Builder) Pop(f *Frame) error {
	if b.err != nil {
		return b.err
	}
	if len(b.frames) == 0 || b.frames[len(b.frames)-1] != f {
		return b.fail(ErrBadFrame)
	}
	b.frames = b.frames[:len(b.frames)-1]
	le.PutUint32(b.buf[f.start:], uint32(b.n-f.start-HeaderSize))
	return b.padTo8()
}
