// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "fmt"

// ObjectMap is a sparse id-indexed table with first-fit allocation. Freed
// ids are reused by the next Add, which is what makes the remove-id
// handshake necessary: a slot must not be recycled while the peer can
// still address the old occupant.
type ObjectMap struct {
	items []interface{}
}

// Add stores v in the lowest free slot and returns its id.
func (m *ObjectMap) Add(v interface{}) uint32 {
	for i, it := range m.items {
		if it == nil {
			m.items[i] = v
			return uint32(i)
		}
	}
	m.items = append(m.items, v)
	return uint32(len(m.items) - 1)
}

// AddAt stores v at a peer-chosen id, growing the map as needed.
func (m *ObjectMap) AddAt(id uint32, v interface{}) error {
	if id == InvalidID {
		return fmt.Errorf("%w: reserved id", ErrInvalidID)
	}
	for uint32(len(m.items)) <= id {
		m.items = append(m.items, nil)
	}
	if m.items[id] != nil {
		return fmt.Errorf("%w: id %d in use", ErrInvalidID, id)
	}
	m.items[id] = v
	return nil
}

// Lookup returns the object at id.
func (m *ObjectMap) Lookup(id uint32) (interface{}, bool) {
	if id >= uint32(len(m.items)) || m.items[id] == nil {
		return nil, false
	}
	return m.items[id], true
}

// Remove frees the slot at id.
func (m *ObjectMap) Remove(id uint32) {
	if id < uint32(len(m.items)) {
		m.items[id] = nil
	}
}

// Len counts live objects.
func (m *ObjectMap) Len() int {
	n := 0
	for _, it := range m.items {
		if it != nil {
			n++
		}
	}
	return n
}

// ForEach visits every live object. Removing the visited object from
// inside fn is allowed.
func (m *ObjectMap) ForEach(fn func(id uint32, v interface{})) {
	for i := 0; i < len(m.items); i++ {
		if m.items[i] != nil {
			fn(uint32(i), m.items[i])
		}
	}
}
