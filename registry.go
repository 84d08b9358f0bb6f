// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "github.com/podlink/podwire/pod"

const registryMethodBind uint8 = 0

const (
	registryEventGlobal uint8 = iota
	registryEventGlobalRemove
)

// Global describes one exported object in the registry.
type Global struct {
	ID          uint32
	Permissions uint32
	Type        uint32
	Version     uint32
	Props       Dict
}

// RegistryMethods is implemented by the object behind a registry
// resource.
type RegistryMethods interface {
	Bind(id, typ, version, newID uint32) error
}

// RegistryEvents is implemented by listeners on a registry proxy.
type RegistryEvents interface {
	Global(g *Global)
	GlobalRemove(id uint32)
}

// RegistryProxy issues registry methods on the peer.
type RegistryProxy struct{ *Proxy }

func NewRegistryProxy(c *Conn) (*RegistryProxy, error) {
	p, err := NewProxy(c, InterfaceRegistry, 0)
	if err != nil {
		return nil, err
	}
	return &RegistryProxy{p}, nil
}

func (rp *RegistryProxy) Bind(id, typ, version, newID uint32) error {
	w, err := rp.conn.typeToWire(typ)
	if err != nil {
		return err
	}
	return rp.conn.sendMessage(rp.id, registryMethodBind, func(b *pod.Builder) error {
		b.AddInt(int32(id))
		b.AddID(w)
		b.AddInt(int32(version))
		return b.AddInt(int32(newID))
	})
}

// RegistryResource emits registry events to the peer.
type RegistryResource struct{ *Resource }

func (rr *RegistryResource) Global(g *Global) error {
	w, err := rr.conn.typeToWire(g.Type)
	if err != nil {
		return err
	}
	version := g.Version
	if rr.conn.legacy {
		// the old generation had no global versions; it expects zero
		version = 0
	}
	return rr.conn.sendMessage(rr.id, registryEventGlobal, func(b *pod.Builder) error {
		b.AddInt(int32(g.ID))
		b.AddInt(0) // parent id, always the core
		b.AddInt(int32(g.Permissions))
		b.AddID(w)
		b.AddInt(int32(version))
		return addDict(b, g.Props)
	})
}

func (rr *RegistryResource) GlobalRemove(id uint32) error {
	return rr.conn.sendMessage(rr.id, registryEventGlobalRemove, func(b *pod.Builder) error {
		return b.AddInt(int32(id))
	})
}

func registryDemarshalBind(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	id, err := p.Int()
	if err != nil {
		return err
	}
	wireType, err := p.ID()
	if err != nil {
		return err
	}
	typ, err := c.typeFromWire(wireType)
	if err != nil {
		return err
	}
	version, err := p.Int()
	if err != nil {
		return err
	}
	newID, err := p.Int()
	if err != nil {
		return err
	}
	impl, ok := r.impl.(RegistryMethods)
	if !ok {
		return errNoImplementation
	}
	return impl.Bind(uint32(id), typ, uint32(version), uint32(newID))
}

func registryDemarshalGlobalEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var g Global
	id, err := p.Int()
	if err != nil {
		return err
	}
	g.ID = uint32(id)
	if _, err := p.Int(); err != nil { // parent id
		return err
	}
	perms, err := p.Int()
	if err != nil {
		return err
	}
	g.Permissions = uint32(perms)
	wireType, err := p.ID()
	if err != nil {
		return err
	}
	if g.Type, err = c.typeFromWire(wireType); err != nil {
		return err
	}
	version, err := p.Int()
	if err != nil {
		return err
	}
	g.Version = uint32(version)
	if g.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(RegistryEvents); ok {
			h.Global(&g)
		}
	}
	return nil
}

func registryDemarshalGlobalRemoveEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	id, err := p.Int()
	if err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(RegistryEvents); ok {
			h.GlobalRemove(uint32(id))
		}
	}
	return nil
}

var registryMarshal = &Marshal{
	Type:    InterfaceRegistry,
	Version: 0,
	Methods: []DemarshalEntry{
		registryMethodBind: {Func: registryDemarshalBind, Flags: DemarshalRemap},
	},
	Events: []DemarshalEntry{
		registryEventGlobal:       {Func: registryDemarshalGlobalEvent, Flags: DemarshalRemap},
		registryEventGlobalRemove: {Func: registryDemarshalGlobalRemoveEvent},
	},
}
