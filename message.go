// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "errors"

// InvalidID marks an unallocated object slot.
const InvalidID = ^uint32(0)

var (
	// ErrUnknownOpcode reports a message whose opcode has no table entry.
	// The connection survives it; the message is dropped.
	ErrUnknownOpcode = errors.New("podwire: unknown opcode")

	// ErrUnresolvedType reports a type id that cannot be translated
	// between protocol generations.
	ErrUnresolvedType = errors.New("podwire: unresolved type")

	// ErrInvalidID reports an object id with no live object behind it.
	ErrInvalidID = errors.New("podwire: invalid object id")

	// ErrNoMarshal reports an interface/version pair without a
	// registered marshal table.
	ErrNoMarshal = errors.New("podwire: no marshal for interface")

	errNoImplementation = errors.New("podwire: resource has no implementation")
)

// Message is one unit of the protocol: a destination object, an opcode
// into that object's marshal table, and a payload holding a single
// top-level struct pod. Seq is the connection-local ordinal assigned when
// the message was sent or received.
type Message struct {
	ObjectID uint32
	Opcode   uint8
	Seq      uint32
	Data     []byte
}

// Transport carries encoded messages to the peer. Implementations do not
// interpret the payload.
type Transport interface {
	Send(objectID uint32, opcode uint8, data []byte) error
}

// DictItem is one key/value pair of a string dictionary.
type DictItem struct {
	Key   string
	Value string
}

// Dict is an ordered string dictionary. Order is preserved on the wire.
type Dict []DictItem

// Get returns the value for key.
func (d Dict) Get(key string) (string, bool) {
	for _, it := range d {
		if it.Key == key {
			return it.Value, true
		}
	}
	return "", false
}
