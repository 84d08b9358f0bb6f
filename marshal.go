// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"fmt"
	"sync"
)

// Interface type ids. They appear on the wire in registry globals and
// bind requests and key the marshal registry.
const (
	InterfaceCore uint32 = 0x11000 + iota
	InterfaceRegistry
	InterfaceModule
	InterfaceNode
	InterfacePort
	InterfaceFactory
	InterfaceClient
	InterfaceLink
)

// DemarshalRemap marks a table entry whose payload carries type ids that
// must be translated through the negotiated legacy mapping.
const DemarshalRemap uint32 = 1 << 0

// DemarshalFunc decodes one inbound message addressed at target, which is
// the *Resource (for methods) or *Proxy (for events) the message names.
type DemarshalFunc func(c *Conn, target interface{}, msg *Message) error

// DemarshalEntry is one opcode slot of a marshal table. A nil Func means
// the opcode is unassigned in this interface version.
type DemarshalEntry struct {
	Func  DemarshalFunc
	Flags uint32
}

// Marshal binds an interface version to its opcode tables. Methods decode
// messages arriving at a resource, Events decode messages arriving at a
// proxy. The outbound direction is covered by the typed wrappers
// (CoreProxy, NodeResource, ...) in the per-interface files.
type Marshal struct {
	Type    uint32
	Version uint32
	Methods []DemarshalEntry
	Events  []DemarshalEntry
}

func (m *Marshal) method(opcode uint8) (DemarshalEntry, error) {
	if int(opcode) >= len(m.Methods) || m.Methods[opcode].Func == nil {
		return DemarshalEntry{}, fmt.Errorf("%w: interface %#x method %d", ErrUnknownOpcode, m.Type, opcode)
	}
	return m.Methods[opcode], nil
}

func (m *Marshal) event(opcode uint8) (DemarshalEntry, error) {
	if int(opcode) >= len(m.Events) || m.Events[opcode].Func == nil {
		return DemarshalEntry{}, fmt.Errorf("%w: interface %#x event %d", ErrUnknownOpcode, m.Type, opcode)
	}
	return m.Events[opcode], nil
}

type marshalKey struct {
	typ     uint32
	version uint32
}

var (
	marshalsMu sync.RWMutex
	marshals   = map[marshalKey]*Marshal{}
)

// RegisterMarshal installs a marshal table. Tables are registered at init
// time and never change afterwards.
func RegisterMarshal(m *Marshal) {
	marshalsMu.Lock()
	defer marshalsMu.Unlock()
	marshals[marshalKey{m.Type, m.Version}] = m
}

// LookupMarshal finds the table for an interface version.
func LookupMarshal(typ, version uint32) (*Marshal, bool) {
	marshalsMu.RLock()
	defer marshalsMu.RUnlock()
	m, ok := marshals[marshalKey{typ, version}]
	return m, ok
}

func init() {
	RegisterMarshal(coreMarshal)
	RegisterMarshal(registryMarshal)
	RegisterMarshal(moduleMarshal)
	RegisterMarshal(factoryMarshal)
	RegisterMarshal(nodeMarshal)
	RegisterMarshal(portMarshal)
	RegisterMarshal(clientMarshal)
	RegisterMarshal(linkMarshal)
}
