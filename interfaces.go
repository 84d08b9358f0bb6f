// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Info-only interfaces: module, factory, client and link objects expose
// their state through a single info event each, plus a client permissions
// event that the old generation does not carry.

package podwire

import "github.com/podlink/podwire/pod"

const moduleEventInfo uint8 = 0

// ModuleInfo describes a loaded server module.
type ModuleInfo struct {
	ID         uint32
	ChangeMask uint64
	Name       string
	Filename   string
	Args       string
	Props      Dict
}

// ModuleEvents is implemented by listeners on a module proxy.
type ModuleEvents interface {
	Info(info *ModuleInfo)
}

// ModuleResource emits module events to the peer.
type ModuleResource struct{ *Resource }

func (mr *ModuleResource) Info(info *ModuleInfo) error {
	return mr.conn.sendMessage(mr.id, moduleEventInfo, func(b *pod.Builder) error {
		b.AddInt(int32(info.ID))
		b.AddLong(int64(info.ChangeMask))
		b.AddString(info.Name)
		b.AddString(info.Filename)
		b.AddString(info.Args)
		return addDict(b, info.Props)
	})
}

func moduleDemarshalInfoEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var info ModuleInfo
	id, err := p.Int()
	if err != nil {
		return err
	}
	info.ID = uint32(id)
	mask, err := p.Long()
	if err != nil {
		return err
	}
	info.ChangeMask = uint64(mask)
	if info.Name, err = p.Str(); err != nil {
		return err
	}
	if info.Filename, err = p.Str(); err != nil {
		return err
	}
	if info.Args, err = p.Str(); err != nil {
		return err
	}
	if info.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(ModuleEvents); ok {
			h.Info(&info)
		}
	}
	return nil
}

var moduleMarshal = &Marshal{
	Type:    InterfaceModule,
	Version: 0,
	Events: []DemarshalEntry{
		moduleEventInfo: {Func: moduleDemarshalInfoEvent},
	},
}

const factoryEventInfo uint8 = 0

// FactoryInfo describes an object factory.
type FactoryInfo struct {
	ID         uint32
	ChangeMask uint64
	Name       string
	Type       uint32
	Version    uint32
	Props      Dict
}

// FactoryEvents is implemented by listeners on a factory proxy.
type FactoryEvents interface {
	Info(info *FactoryInfo)
}

// FactoryResource emits factory events to the peer.
type FactoryResource struct{ *Resource }

func (fr *FactoryResource) Info(info *FactoryInfo) error {
	w, err := fr.conn.typeToWire(info.Type)
	if err != nil {
		return err
	}
	version := info.Version
	if fr.conn.legacy {
		version = 0
	}
	return fr.conn.sendMessage(fr.id, factoryEventInfo, func(b *pod.Builder) error {
		b.AddInt(int32(info.ID))
		b.AddLong(int64(info.ChangeMask))
		b.AddString(info.Name)
		b.AddID(w)
		b.AddInt(int32(version))
		return addDict(b, info.Props)
	})
}

func factoryDemarshalInfoEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var info FactoryInfo
	id, err := p.Int()
	if err != nil {
		return err
	}
	info.ID = uint32(id)
	mask, err := p.Long()
	if err != nil {
		return err
	}
	info.ChangeMask = uint64(mask)
	if info.Name, err = p.Str(); err != nil {
		return err
	}
	wireType, err := p.ID()
	if err != nil {
		return err
	}
	if info.Type, err = c.typeFromWire(wireType); err != nil {
		return err
	}
	version, err := p.Int()
	if err != nil {
		return err
	}
	info.Version = uint32(version)
	if info.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(FactoryEvents); ok {
			h.Info(&info)
		}
	}
	return nil
}

var factoryMarshal = &Marshal{
	Type:    InterfaceFactory,
	Version: 0,
	Events: []DemarshalEntry{
		factoryEventInfo: {Func: factoryDemarshalInfoEvent, Flags: DemarshalRemap},
	},
}

const (
	clientEventInfo uint8 = iota
	clientEventPermissions
)

// ClientInfo describes a connected client.
type ClientInfo struct {
	ID         uint32
	ChangeMask uint64
	Props      Dict
}

// ClientEvents is implemented by listeners on a client proxy.
type ClientEvents interface {
	Info(info *ClientInfo)
}

// ClientResource emits client events to the peer.
type ClientResource struct{ *Resource }

func (cr *ClientResource) Info(info *ClientInfo) error {
	return cr.conn.sendMessage(cr.id, clientEventInfo, func(b *pod.Builder) error {
		b.AddInt(int32(info.ID))
		b.AddLong(int64(info.ChangeMask))
		return addDict(b, info.Props)
	})
}

// Permissions is not carried on this protocol generation.
func (cr *ClientResource) Permissions(props Dict) error { return nil }

func clientDemarshalInfoEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var info ClientInfo
	id, err := p.Int()
	if err != nil {
		return err
	}
	info.ID = uint32(id)
	mask, err := p.Long()
	if err != nil {
		return err
	}
	info.ChangeMask = uint64(mask)
	if info.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(ClientEvents); ok {
			h.Info(&info)
		}
	}
	return nil
}

var clientMarshal = &Marshal{
	Type:    InterfaceClient,
	Version: 0,
	Events: []DemarshalEntry{
		clientEventInfo: {Func: clientDemarshalInfoEvent},
	},
}

const linkEventInfo uint8 = 0

// LinkInfo describes a connection between an output and an input port.
// Format is the negotiated format pod; a zero Value encodes as none.
type LinkInfo struct {
	ID           uint32
	ChangeMask   uint64
	OutputNodeID uint32
	OutputPortID uint32
	InputNodeID  uint32
	InputPortID  uint32
	Format       pod.Value
	Props        Dict
}

// LinkEvents is implemented by listeners on a link proxy.
type LinkEvents interface {
	Info(info *LinkInfo)
}

// LinkResource emits link events to the peer.
type LinkResource struct{ *Resource }

func (lr *LinkResource) Info(info *LinkInfo) error {
	return lr.conn.sendMessage(lr.id, linkEventInfo, func(b *pod.Builder) error {
		b.AddInt(int32(info.ID))
		b.AddLong(int64(info.ChangeMask))
		b.AddInt(int32(info.OutputNodeID))
		b.AddInt(int32(info.OutputPortID))
		b.AddInt(int32(info.InputNodeID))
		b.AddInt(int32(info.InputPortID))
		if err := addPodOrNone(b, info.Format); err != nil {
			return err
		}
		return addDict(b, info.Props)
	})
}

func addPodOrNone(b *pod.Builder, v pod.Value) error {
	if v.Type == 0 {
		return b.AddNone()
	}
	return b.AddPod(v)
}

func linkDemarshalInfoEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var info LinkInfo
	id, err := p.Int()
	if err != nil {
		return err
	}
	info.ID = uint32(id)
	mask, err := p.Long()
	if err != nil {
		return err
	}
	info.ChangeMask = uint64(mask)
	on, err := p.Int()
	if err != nil {
		return err
	}
	info.OutputNodeID = uint32(on)
	op, err := p.Int()
	if err != nil {
		return err
	}
	info.OutputPortID = uint32(op)
	in, err := p.Int()
	if err != nil {
		return err
	}
	info.InputNodeID = uint32(in)
	ip, err := p.Int()
	if err != nil {
		return err
	}
	info.InputPortID = uint32(ip)
	if info.Format, err = p.Pod(); err != nil {
		return err
	}
	if info.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(LinkEvents); ok {
			h.Info(&info)
		}
	}
	return nil
}

var linkMarshal = &Marshal{
	Type:    InterfaceLink,
	Version: 0,
	Events: []DemarshalEntry{
		linkEventInfo: {Func: linkDemarshalInfoEvent},
	},
}
