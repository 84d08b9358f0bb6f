// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/podlink/podwire/pod"
)

// Conn is one end of a protocol session. It owns the object id space
// shared with the peer, the per-connection legacy type mapping, and the
// send and receive sequence counters. A Conn is not safe for concurrent
// use; callers serialize on their event loop.
type Conn struct {
	transport Transport
	limits    Limits
	registry  TypeRegistry
	log       zerolog.Logger

	objects ObjectMap

	// legacy peer support
	legacy    bool
	compat    map[uint32]uint32 // peer wire id -> legacy table slot
	typesSent bool

	sendSeq uint32
	recvSeq uint32

	closed bool

	coreProxy    *CoreProxy
	coreResource *CoreResource
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithLimits overrides the default resource limits.
func WithLimits(l Limits) ConnOption {
	return func(c *Conn) { c.limits = l }
}

// WithLegacyPeer marks the peer as speaking the old protocol generation.
// Type ids are then translated through the negotiated mapping and object
// payloads remapped where the tables require it.
func WithLegacyPeer() ConnOption {
	return func(c *Conn) { c.legacy = true }
}

// WithTypeRegistry replaces the built-in type namespace.
func WithTypeRegistry(r TypeRegistry) ConnOption {
	return func(c *Conn) { c.registry = r }
}

// WithConnLogger replaces the package logger for this connection.
func WithConnLogger(l zerolog.Logger) ConnOption {
	return func(c *Conn) { c.log = l }
}

// NewConn wraps a transport in a connection.
func NewConn(t Transport, opts ...ConnOption) *Conn {
	c := &Conn{
		transport: t,
		limits:    DefaultLimits(),
		registry:  DefaultTypes(),
		log:       logger,
		compat:    make(map[uint32]uint32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Objects exposes the connection's object table.
func (c *Conn) Objects() *ObjectMap { return &c.objects }

// Legacy reports whether the peer speaks the old generation.
func (c *Conn) Legacy() bool { return c.legacy }

// sendMessage encodes one top-level struct via build and hands it to the
// transport.
func (c *Conn) sendMessage(objectID uint32, opcode uint8, build func(b *pod.Builder) error) error {
	b := pod.NewBuilder(c.limits.MaxMessageSize)
	f, err := b.PushStruct()
	if err != nil {
		return err
	}
	if err := build(b); err != nil {
		return err
	}
	if err := b.Pop(f); err != nil {
		return err
	}
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	c.sendSeq++
	c.log.Debug().
		Uint32("object", objectID).
		Uint8("opcode", opcode).
		Uint32("seq", c.sendSeq).
		Int("bytes", len(data)).
		Msg("send")
	return c.transport.Send(objectID, opcode, data)
}

// Dispatch routes one inbound message to the demarshal entry of the
// addressed object. An unknown opcode or a dead object id is reported
// but leaves the connection usable.
func (c *Conn) Dispatch(objectID uint32, opcode uint8, data []byte) error {
	c.recvSeq++
	msg := &Message{ObjectID: objectID, Opcode: opcode, Seq: c.recvSeq, Data: data}
	obj, ok := c.objects.Lookup(objectID)
	if !ok {
		return fmt.Errorf("%w: no object %d for opcode %d", ErrInvalidID, objectID, opcode)
	}
	switch o := obj.(type) {
	case *Resource:
		e, err := o.marshal.method(opcode)
		if err != nil {
			return err
		}
		if err := c.checkRemap(e); err != nil {
			return err
		}
		return e.Func(c, o, msg)
	case *Proxy:
		e, err := o.marshal.event(opcode)
		if err != nil {
			return err
		}
		if err := c.checkRemap(e); err != nil {
			return err
		}
		return e.Func(c, o, msg)
	}
	return fmt.Errorf("%w: object %d has unknown kind", ErrInvalidID, objectID)
}

// checkRemap rejects opcodes that carry type ids when a legacy peer has
// not announced its vocabulary yet; decoding them would misread every id.
func (c *Conn) checkRemap(e DemarshalEntry) error {
	if e.Flags&DemarshalRemap != 0 && c.legacy && len(c.compat) == 0 {
		return fmt.Errorf("%w: no type vocabulary negotiated", ErrUnresolvedType)
	}
	return nil
}

// setWireTypes installs the peer's announced type vocabulary: wire ids
// firstID+i map to the slot of the identically named entry in the
// compiled table. Unknown names stay unmapped and fail on use.
func (c *Conn) setWireTypes(firstID uint32, names []string) {
	for i, name := range names {
		idx, ok := FindLegacyIndex(name)
		if !ok {
			c.log.Warn().Str("type", name).Msg("peer announced unknown type")
			continue
		}
		c.compat[firstID+uint32(i)] = idx
	}
}

// typeFromWire translates a peer type id into the current numeric id.
func (c *Conn) typeFromWire(wire uint32) (uint32, error) {
	if !c.legacy {
		return wire, nil
	}
	idx, ok := c.compat[wire]
	if !ok || int(idx) >= len(legacyTypes) {
		return 0, fmt.Errorf("%w: wire type %d not negotiated", ErrUnresolvedType, wire)
	}
	return legacyTypes[idx].ID, nil
}

// typeToWire translates a current type id into its legacy table slot,
// resolving the name in the given namespace first and falling back to
// the global one.
func (c *Conn) typeToWireIn(ns TypeRegistry, id uint32) (uint32, error) {
	if !c.legacy {
		return id, nil
	}
	var name string
	var ok bool
	if ns != nil {
		name, ok = ns.Name(id)
	}
	if !ok {
		name, ok = c.registry.Name(id)
	}
	if !ok {
		return 0, fmt.Errorf("%w: no name for id %#x", ErrUnresolvedType, id)
	}
	idx, ok := FindLegacyIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s not in legacy table", ErrUnresolvedType, name)
	}
	return idx, nil
}

func (c *Conn) typeToWire(id uint32) (uint32, error) {
	return c.typeToWireIn(c.registry, id)
}

// handleRemoveID completes the destroy handshake for a proxy slot the
// peer has released. For a zombie this finishes the local destroy; for a
// live proxy the peer initiated, the slot is reclaimed first and destroy
// listeners fire after.
func (c *Conn) handleRemoveID(id uint32) {
	obj, ok := c.objects.Lookup(id)
	if !ok {
		return
	}
	p, ok := obj.(*Proxy)
	if !ok {
		return
	}
	p.removed = true
	c.objects.Remove(id)
	p.Destroy()
}

// Disconnect force-removes every object. No remove-id messages are sent;
// the peer is gone.
func (c *Conn) Disconnect() {
	c.closed = true
	c.objects.ForEach(func(id uint32, v interface{}) {
		switch o := v.(type) {
		case *Proxy:
			o.removed = true
			o.Destroy()
		case *Resource:
			o.removed = true
			o.Destroy()
		}
	})
	c.log.Debug().Msg("disconnected")
}
