// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "github.com/podlink/podwire/pod"

const portMethodEnumParams uint8 = 1

const (
	portEventInfo uint8 = iota
	portEventParam
)

// PortInfo describes one port of a node.
type PortInfo struct {
	ID         uint32
	ChangeMask uint64
	Name       string
	Props      Dict
}

// PortMethods is implemented by the object behind a port resource.
type PortMethods interface {
	EnumParams(id, index, num uint32, filter pod.Value) error
}

// PortEvents is implemented by listeners on a port proxy.
type PortEvents interface {
	Info(info *PortInfo)
	Param(id, index, next uint32, param pod.Value)
}

// PortProxy issues port methods on the peer.
type PortProxy struct{ *Proxy }

func NewPortProxy(c *Conn) (*PortProxy, error) {
	p, err := NewProxy(c, InterfacePort, 0)
	if err != nil {
		return nil, err
	}
	return &PortProxy{p}, nil
}

func (pp *PortProxy) EnumParams(id, index, num uint32, filter pod.Value) error {
	w, err := pp.conn.typeToWireIn(paramIDNamespace, id)
	if err != nil {
		return err
	}
	return pp.conn.sendMessage(pp.id, portMethodEnumParams, func(b *pod.Builder) error {
		b.AddID(w)
		b.AddInt(int32(index))
		b.AddInt(int32(num))
		return addPodOrNone(b, filter)
	})
}

// PortResource emits port events to the peer.
type PortResource struct{ *Resource }

func (pr *PortResource) Info(info *PortInfo) error {
	return pr.conn.sendMessage(pr.id, portEventInfo, func(b *pod.Builder) error {
		b.AddInt(int32(info.ID))
		b.AddLong(int64(info.ChangeMask))
		b.AddString(info.Name)
		return addDict(b, info.Props)
	})
}

// Param reports one enumerated param, the param id translated for the
// peer's generation.
func (pr *PortResource) Param(id, index, next uint32, param pod.Value) error {
	w, err := pr.conn.typeToWireIn(paramIDNamespace, id)
	if err != nil {
		return err
	}
	return pr.conn.sendMessage(pr.id, portEventParam, func(b *pod.Builder) error {
		b.AddID(w)
		b.AddInt(int32(index))
		b.AddInt(int32(next))
		return addPodOrNone(b, param)
	})
}

func portDemarshalEnumParams(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	wireID, err := p.ID()
	if err != nil {
		return err
	}
	id, err := c.typeFromWire(wireID)
	if err != nil {
		return err
	}
	index, err := p.Int()
	if err != nil {
		return err
	}
	num, err := p.Int()
	if err != nil {
		return err
	}
	if _, err := p.Pod(); err != nil { // filter, dropped
		return err
	}
	impl, ok := r.impl.(PortMethods)
	if !ok {
		return errNoImplementation
	}
	return impl.EnumParams(id, uint32(index), uint32(num), pod.Value{})
}

func portDemarshalInfoEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var info PortInfo
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
	if info.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(PortEvents); ok {
			h.Info(&info)
		}
	}
	return nil
}

func portDemarshalParamEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	wireID, err := p.ID()
	if err != nil {
		return err
	}
	id, err := c.typeFromWire(wireID)
	if err != nil {
		return err
	}
	index, err := p.Int()
	if err != nil {
		return err
	}
	next, err := p.Int()
	if err != nil {
		return err
	}
	param, err := p.Pod()
	if err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(PortEvents); ok {
			h.Param(id, uint32(index), uint32(next), param)
		}
	}
	return nil
}

var portMarshal = &Marshal{
	Type:    InterfacePort,
	Version: 0,
	Methods: []DemarshalEntry{
		portMethodEnumParams: {Func: portDemarshalEnumParams, Flags: DemarshalRemap},
	},
	Events: []DemarshalEntry{
		portEventInfo:  {Func: portDemarshalInfoEvent},
		portEventParam: {Func: portDemarshalParamEvent, Flags: DemarshalRemap},
	},
}
