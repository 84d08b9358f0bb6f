// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"fmt"

	"github.com/podlink/podwire/pod"
)

// Core method opcodes.
const (
	coreMethodHello uint8 = iota
	coreMethodUpdateTypes
	coreMethodSync
	coreMethodGetRegistry
	coreMethodClientUpdate
	coreMethodPermissions
	coreMethodCreateObject
	coreMethodDestroy
)

// Core event opcodes.
const (
	coreEventInfo uint8 = iota
	coreEventDone
	coreEventError
	coreEventRemoveID
	coreEventUpdateTypes
)

// CoreInfo describes the hub object of a session.
type CoreInfo struct {
	ID         uint32
	ChangeMask uint64
	UserName   string
	HostName   string
	Version    string
	Name       string
	Cookie     uint32
	Props      Dict
}

// CoreMethods is implemented by the object behind a core resource.
type CoreMethods interface {
	Hello() error
	Sync(seq uint32) error
	GetRegistry(version, newID uint32) error
	ClientUpdate(props Dict) error
	UpdatePermissions(props Dict) error
	CreateObject(factory string, typ, version uint32, props Dict, newID uint32) error
	Destroy(r *Resource) error
}

// CoreEvents is implemented by listeners on a core proxy.
type CoreEvents interface {
	Info(info *CoreInfo)
	Done(seq uint32)
	Error(id uint32, res int32, message string)
	RemoveID(id uint32)
}

// CoreProxy issues core methods on the peer.
type CoreProxy struct{ *Proxy }

// NewCoreProxy allocates the session's core proxy. It should be the first
// object created on a client connection so it takes id 0.
func NewCoreProxy(c *Conn) (*CoreProxy, error) {
	p, err := NewProxy(c, InterfaceCore, 0)
	if err != nil {
		return nil, err
	}
	return &CoreProxy{p}, nil
}

func (cp *CoreProxy) Hello() error {
	return cp.conn.sendMessage(cp.id, coreMethodHello, func(b *pod.Builder) error {
		return b.AddNone()
	})
}

// UpdateTypes announces this side's type vocabulary: names resolve the
// wire ids firstID, firstID+1, ... on the receiving end.
func (cp *CoreProxy) UpdateTypes(firstID uint32, types []string) error {
	return cp.conn.sendMessage(cp.id, coreMethodUpdateTypes, func(b *pod.Builder) error {
		b.AddInt(int32(firstID))
		b.AddInt(int32(len(types)))
		for _, t := range types {
			b.AddString(t)
		}
		return b.Err()
	})
}

func (cp *CoreProxy) Sync(seq uint32) error {
	return cp.conn.sendMessage(cp.id, coreMethodSync, func(b *pod.Builder) error {
		return b.AddInt(int32(seq))
	})
}

func (cp *CoreProxy) GetRegistry(version, newID uint32) error {
	return cp.conn.sendMessage(cp.id, coreMethodGetRegistry, func(b *pod.Builder) error {
		b.AddInt(int32(version))
		return b.AddInt(int32(newID))
	})
}

func (cp *CoreProxy) ClientUpdate(props Dict) error {
	return cp.conn.sendMessage(cp.id, coreMethodClientUpdate, func(b *pod.Builder) error {
		return addDict(b, props)
	})
}

func (cp *CoreProxy) UpdatePermissions(props Dict) error {
	return cp.conn.sendMessage(cp.id, coreMethodPermissions, func(b *pod.Builder) error {
		return addDict(b, props)
	})
}

func (cp *CoreProxy) CreateObject(factory string, typ, version uint32, props Dict, newID uint32) error {
	w, err := cp.conn.typeToWire(typ)
	if err != nil {
		return err
	}
	return cp.conn.sendMessage(cp.id, coreMethodCreateObject, func(b *pod.Builder) error {
		b.AddString(factory)
		b.AddID(w)
		b.AddInt(int32(version))
		if err := addDict(b, props); err != nil {
			return err
		}
		return b.AddInt(int32(newID))
	})
}

// DestroyObject asks the peer to destroy the object at id. The local
// proxy lifecycle is driven by Proxy.Destroy, which calls this.
func (cp *CoreProxy) DestroyObject(id uint32) error {
	return cp.conn.sendMessage(cp.id, coreMethodDestroy, func(b *pod.Builder) error {
		return b.AddInt(int32(id))
	})
}

// CoreResource emits core events to the peer.
type CoreResource struct{ *Resource }

// UpdateTypes announces this side's full compiled vocabulary, slot ids
// starting at firstID.
func (cr *CoreResource) UpdateTypes(firstID uint32, types []string) error {
	return cr.conn.sendMessage(cr.id, coreEventUpdateTypes, func(b *pod.Builder) error {
		b.AddInt(int32(firstID))
		b.AddInt(int32(len(types)))
		for _, t := range types {
			b.AddString(t)
		}
		return b.Err()
	})
}

// Info sends the core description. A legacy peer gets the type table
// announcement first, before anything else references a type id.
func (cr *CoreResource) Info(info *CoreInfo) error {
	c := cr.conn
	if c.legacy && !c.typesSent {
		c.typesSent = true
		if err := cr.UpdateTypes(0, legacyTypeNames()); err != nil {
			return err
		}
	}
	return c.sendMessage(cr.id, coreEventInfo, func(b *pod.Builder) error {
		b.AddInt(int32(info.ID))
		b.AddLong(int64(info.ChangeMask))
		b.AddString(info.UserName)
		b.AddString(info.HostName)
		b.AddString(info.Version)
		b.AddString(info.Name)
		b.AddInt(int32(info.Cookie))
		return addDict(b, info.Props)
	})
}

func (cr *CoreResource) Done(seq uint32) error {
	return cr.conn.sendMessage(cr.id, coreEventDone, func(b *pod.Builder) error {
		return b.AddInt(int32(seq))
	})
}

func (cr *CoreResource) Error(id uint32, res int32, message string) error {
	return cr.conn.sendMessage(cr.id, coreEventError, func(b *pod.Builder) error {
		b.AddInt(int32(id))
		b.AddInt(res)
		return b.AddString(message)
	})
}

func (cr *CoreResource) RemoveID(id uint32) error {
	return cr.conn.sendMessage(cr.id, coreEventRemoveID, func(b *pod.Builder) error {
		return b.AddInt(int32(id))
	})
}

func addDict(b *pod.Builder, props Dict) error {
	if err := b.AddInt(int32(len(props))); err != nil {
		return err
	}
	for _, it := range props {
		if err := b.AddString(it.Key); err != nil {
			return err
		}
		if err := b.AddString(it.Value); err != nil {
			return err
		}
	}
	return nil
}

func parseDict(p *pod.Parser) (Dict, error) {
	n, err := p.Int()
	if err != nil {
		return nil, err
	}
	// two header-only pods per pair is the floor; anything claiming more
	// is lying about the payload
	if n < 0 || int(n) > p.Remaining()/(2*pod.HeaderSize) {
		return nil, fmt.Errorf("%w: dict of %d items in %d bytes", pod.ErrMalformedPod, n, p.Remaining())
	}
	props := make(Dict, 0, n)
	for i := int32(0); i < n; i++ {
		k, err := p.Str()
		if err != nil {
			return nil, err
		}
		v, err := p.Str()
		if err != nil {
			return nil, err
		}
		props = append(props, DictItem{Key: k, Value: v})
	}
	return props, nil
}

func coreImpl(r *Resource) (CoreMethods, error) {
	impl, ok := r.impl.(CoreMethods)
	if !ok {
		return nil, errNoImplementation
	}
	return impl, nil
}

func coreDemarshalHello(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	if _, err := p.Pod(); err != nil {
		return err
	}
	impl, err := coreImpl(r)
	if err != nil {
		return err
	}
	return impl.Hello()
}

// coreDemarshalUpdateTypes serves both directions: the announcement is
// connection state, not an implementation concern.
func coreDemarshalUpdateTypes(c *Conn, target interface{}, msg *Message) error {
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	firstID, err := p.Int()
	if err != nil {
		return err
	}
	n, err := p.Int()
	if err != nil {
		return err
	}
	if n < 0 || int(n) > p.Remaining()/pod.HeaderSize {
		return fmt.Errorf("%w: %d types in %d bytes", pod.ErrMalformedPod, n, p.Remaining())
	}
	names := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		name, err := p.Str()
		if err != nil {
			return err
		}
		names = append(names, name)
	}
	c.setWireTypes(uint32(firstID), names)
	return nil
}

func coreDemarshalSync(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	seq, err := p.Int()
	if err != nil {
		return err
	}
	impl, err := coreImpl(r)
	if err != nil {
		return err
	}
	return impl.Sync(uint32(seq))
}

func coreDemarshalGetRegistry(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
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
	impl, err := coreImpl(r)
	if err != nil {
		return err
	}
	return impl.GetRegistry(uint32(version), uint32(newID))
}

func coreDemarshalClientUpdate(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	props, err := parseDict(p)
	if err != nil {
		return err
	}
	impl, err := coreImpl(r)
	if err != nil {
		return err
	}
	return impl.ClientUpdate(props)
}

func coreDemarshalPermissions(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	props, err := parseDict(p)
	if err != nil {
		return err
	}
	impl, err := coreImpl(r)
	if err != nil {
		return err
	}
	return impl.UpdatePermissions(props)
}

func coreDemarshalCreateObject(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	factory, err := p.Str()
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
	props, err := parseDict(p)
	if err != nil {
		return err
	}
	newID, err := p.Int()
	if err != nil {
		return err
	}
	impl, err := coreImpl(r)
	if err != nil {
		return err
	}
	return impl.CreateObject(factory, typ, uint32(version), props, uint32(newID))
}

func coreDemarshalDestroy(c *Conn, target interface{}, msg *Message) error {
	r := target.(*Resource)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	id, err := p.Int()
	if err != nil {
		return err
	}
	obj, ok := c.objects.Lookup(uint32(id))
	victim, isRes := obj.(*Resource)
	if !ok || !isRes {
		c.log.Warn().Int32("id", id).Msg("destroy for unknown resource")
		if cr := c.coreResource; cr != nil {
			return cr.Error(msg.ObjectID, -1, fmt.Sprintf("unknown resource %d", id))
		}
		return nil
	}
	impl, err := coreImpl(r)
	if err != nil {
		return err
	}
	return impl.Destroy(victim)
}

func coreDemarshalInfoEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	var info CoreInfo
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
	if info.UserName, err = p.Str(); err != nil {
		return err
	}
	if info.HostName, err = p.Str(); err != nil {
		return err
	}
	if info.Version, err = p.Str(); err != nil {
		return err
	}
	if info.Name, err = p.Str(); err != nil {
		return err
	}
	cookie, err := p.Int()
	if err != nil {
		return err
	}
	info.Cookie = uint32(cookie)
	if info.Props, err = parseDict(p); err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(CoreEvents); ok {
			h.Info(&info)
		}
	}
	return nil
}

func coreDemarshalDoneEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	seq, err := p.Int()
	if err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(CoreEvents); ok {
			h.Done(uint32(seq))
		}
	}
	return nil
}

func coreDemarshalErrorEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	id, err := p.Int()
	if err != nil {
		return err
	}
	res, err := p.Int()
	if err != nil {
		return err
	}
	text, err := p.Str()
	if err != nil {
		return err
	}
	for _, l := range px.objectListeners {
		if h, ok := l.(CoreEvents); ok {
			h.Error(uint32(id), res, text)
		}
	}
	return nil
}

func coreDemarshalRemoveIDEvent(c *Conn, target interface{}, msg *Message) error {
	px := target.(*Proxy)
	p, err := pod.NewParser(msg.Data).PushStruct()
	if err != nil {
		return err
	}
	id, err := p.Int()
	if err != nil {
		return err
	}
	c.handleRemoveID(uint32(id))
	for _, l := range px.objectListeners {
		if h, ok := l.(CoreEvents); ok {
			h.RemoveID(uint32(id))
		}
	}
	return nil
}

var coreMarshal = &Marshal{
	Type:    InterfaceCore,
	Version: 0,
	Methods: []DemarshalEntry{
		coreMethodHello:        {Func: coreDemarshalHello},
		coreMethodUpdateTypes:  {Func: coreDemarshalUpdateTypes},
		coreMethodSync:         {Func: coreDemarshalSync},
		coreMethodGetRegistry:  {Func: coreDemarshalGetRegistry},
		coreMethodClientUpdate: {Func: coreDemarshalClientUpdate},
		coreMethodPermissions:  {Func: coreDemarshalPermissions},
		coreMethodCreateObject: {Func: coreDemarshalCreateObject, Flags: DemarshalRemap},
		coreMethodDestroy:      {Func: coreDemarshalDestroy},
	},
	Events: []DemarshalEntry{
		coreEventInfo:        {Func: coreDemarshalInfoEvent},
		coreEventDone:        {Func: coreDemarshalDoneEvent},
		coreEventError:       {Func: coreDemarshalErrorEvent},
		coreEventRemoveID:    {Func: coreDemarshalRemoveIDEvent},
		coreEventUpdateTypes: {Func: coreDemarshalUpdateTypes},
	},
}
