// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "github.com/podlink/podwire/pod"

// nodeMethodEnumParams leaves slot 0 unassigned; messages naming it are
// rejected with ErrUnknownOpcode and the connection carries on.
const nodeMethodEnumParams uint8 = 1

const (
	nodeEventInfo uint8 = iota
	nodeEventParam
)

// NodeInfo describes a processing node and its port counts.
type NodeInfo struct {
	ID             uint32
	ChangeMask     uint64
	Name           string
	MaxInputPorts  uint32
	NInputPorts    uint32
	MaxOutputPorts uint32
	NOutputPorts   uint32
	State          int32
	Error          string
	Props          Dict
}

// NodeMethods is implemented by the object behind a node resource.
type NodeMethods interface {
	// EnumParams asks for the params of the given type starting at
	// index. The filter is not carried on this protocol generation and
	// arrives zero.
	EnumParams(id, index, num uint32, filter pod.Value) error
}

// NodeEvents is implemented by listeners on a node proxy.
type NodeEvents interface {
	Info(info *NodeInfo)
	Param(id, index, next uint32, param pod.Value)
}

// NodeProxy issues node methods on the peer.
type NodeProxy struct{ *Proxy }

func NewNodeProxy(c *Conn) (*NodeProxy, error) {
	p, err := NewProxy(c, InterfaceNode, 0)
	if err != nil {
		return nil, err
	}
	return &NodeProxy{p}, nil
}

func (np *NodeProxy) EnumParams(id, index, num uint32, filter pod.Value) error {
	w, err := np.conn.typeToWireIn(paramIDNamespace, id)
	if err != nil {
		return err
	}
	return np.conn.sendMessage(np.id, nodeMethodEnumParams, func(b *pod.Builder) error {
		b.AddID(w)
		b.AddInt(int32(index))
		b.AddInt(int32(num))
		return addPodOrNone(b, filter)
	})
}

// NodeResource emits node events to the peer.
type NodeResource struct{ *Resource }

func (nr *NodeResource) Info(info *NodeInfo) error {
	return nr.conn.sendMessage(nr.id, nodeEventInfo, func(b *pod.Builder) error {
		b.AddInt(int32(info.ID))
		b.AddLong(int64(info.ChangeMask))
		b.AddString(info.Name)
		b.AddInt(int32(info.MaxInputPorts))
		b.AddInt(int32(info.NInputPorts))
		b.AddInt(int32(info.MaxOutputPorts))
		b.AddInt(int32(info.NOutputPorts))
		b.AddInt(info.State)
		b.AddString(info.Error)
		return addDict(b, info.Props)
	})
}

// Param reports one enumerated param. The param id travels untranslated
// here; see PortResource.Param for the translated variant.
func (nr *NodeResource) Param(id, index, next uint32, param pod.Value) error {
	return nr.conn.sendMessage(nr.id, nodeEventParam, func(b *pod.Builder) error {
		b.AddID(id)
		b.AddInt(int32(index))
		b.AddInt(int32(next))
		return addPodOrNone(b, param)
	})
}

func nodeDemarshalEnumParams(c *Conn, target interface{}, msg *Message) error {
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
	impl, ok := r.impl.(NodeMethods)
	if !ok {
		return errNoImplementation
	}
	return impl.EnumParams(id, uint32(index), uint32(num), pod.Value{})
}

func nodeDemarshalInfoEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var info NodeInfo
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
	maxIn, err := p.Int()
	if err != nil {
		return err
	}
	info.MaxInputPorts = uint32(maxIn)
	nIn, err := p.Int()
	if err != nil {
		return err
	}
	info.NInputPorts = uint32(nIn)
	maxOut, err := p.Int()
	if err != nil {
		return err
	}
	info.MaxOutputPorts = uint32(maxOut)
	nOut, err := p.Int()
	if err != nil {
		return err
	}
	info.NOutputPorts = uint32(nOut)
	if info.State, err = p.Int(); err != nil {
		return err
	}
	if info.Error, err = p.Str(); err != nil {
		return err
	}
	if info.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(NodeEvents); ok {
			h.Info(&info)
		}
	}
	return nil
}

func nodeDemarshalParamEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	id, err := p.ID()
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
		if h, ok := l.(NodeEvents); ok {
			h.Param(id, uint32(index), uint32(next), param)
		}
	}
	return nil
}

var nodeMarshal = &Marshal{
	Type:    InterfaceNode,
	Version: 0,
	Methods: []DemarshalEntry{
		nodeMethodEnumParams: {Func: nodeDemarshalEnumParams, Flags: DemarshalRemap},
	},
	Events: []DemarshalEntry{
		nodeEventInfo:  {Func: nodeDemarshalInfoEvent},
		nodeEventParam: {Func: nodeDemarshalParamEvent},
	},
}
