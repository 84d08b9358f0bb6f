// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "fmt"

// ProxyState tracks where a proxy is in its lifecycle.
type ProxyState int

const (
	// ProxyActive is the normal state: the id is live on both sides.
	ProxyActive ProxyState = iota
	// ProxyZombie means we asked the peer to destroy the remote object
	// and hold the id until its remove-id confirmation arrives.
	ProxyZombie
	// ProxyRemoved means the id has been released back to the map.
	ProxyRemoved
)

// ProxyEvents are lifecycle callbacks. Destroy is the terminal
// notification; it fires exactly once.
type ProxyEvents struct {
	Destroy func()
}

// Proxy is the local stand-in for an object living on the peer. Events
// addressed at its id are decoded through the interface's marshal table
// and fanned out to the registered object listeners.
type Proxy struct {
	conn    *Conn
	id      uint32
	typ     uint32
	version uint32
	marshal *Marshal

	refs    int
	state   ProxyState
	removed bool

	listeners       []*ProxyEvents
	objectListeners []interface{}
}

// NewProxy allocates a proxy with the lowest free id on the connection.
func NewProxy(c *Conn, typ, version uint32) (*Proxy, error) {
	m, ok := LookupMarshal(typ, version)
	if !ok {
		return nil, fmt.Errorf("%w: %#x version %d", ErrNoMarshal, typ, version)
	}
	p := &Proxy{conn: c, typ: typ, version: version, marshal: m, refs: 1}
	p.id = c.objects.Add(p)
	if typ == InterfaceCore && c.coreProxy == nil {
		c.coreProxy = &CoreProxy{p}
	}
	c.log.Debug().Uint32("id", p.id).Uint32("type", typ).Msg("new proxy")
	return p, nil
}

func (p *Proxy) ID() uint32        { return p.id }
func (p *Proxy) Type() uint32      { return p.typ }
func (p *Proxy) Version() uint32   { return p.version }
func (p *Proxy) State() ProxyState { return p.state }
func (p *Proxy) Conn() *Conn       { return p.conn }

// AddListener registers lifecycle callbacks.
func (p *Proxy) AddListener(ev *ProxyEvents) {
	p.listeners = append(p.listeners, ev)
}

// AddObjectListener registers an interface-specific event handler, e.g. a
// RegistryEvents implementation on a registry proxy.
func (p *Proxy) AddObjectListener(h interface{}) {
	p.objectListeners = append(p.objectListeners, h)
}

// Ref takes an extra reference.
func (p *Proxy) Ref() { p.refs++ }

// Unref drops a reference. The last one marks the proxy dead; dropping
// below zero is a caller bug and is ignored.
func (p *Proxy) Unref() {
	if p.refs <= 0 {
		p.conn.log.Warn().Uint32("id", p.id).Msg("unref of freed proxy")
		return
	}
	p.refs--
	if p.refs == 0 {
		p.conn.log.Debug().Uint32("id", p.id).Msg("proxy freed")
	}
}

// Sync asks the peer to echo seq back once everything sent before this
// call has been processed.
func (p *Proxy) Sync(seq uint32) error {
	cp := p.conn.coreProxy
	if cp == nil {
		return fmt.Errorf("%w: no core proxy", ErrInvalidID)
	}
	return cp.Sync(seq)
}

func (p *Proxy) emitDestroy() {
	for _, l := range p.listeners {
		if l.Destroy != nil {
			l.Destroy()
		}
	}
	p.listeners = nil
}

// Destroy tears the proxy down. If the peer still knows the id, the
// destroy request is sent and the slot parked as a zombie until the
// peer's remove-id arrives; the id must not be recycled before then.
// When the peer already released the id, the slot frees immediately.
func (p *Proxy) Destroy() {
	if p.state == ProxyRemoved {
		return
	}
	if p.state != ProxyZombie {
		p.emitDestroy()
	}
	if !p.removed {
		if cp := p.conn.coreProxy; cp != nil && !p.conn.closed {
			p.state = ProxyZombie
			if err := cp.DestroyObject(p.id); err != nil {
				p.conn.log.Warn().Err(err).Uint32("id", p.id).Msg("destroy request failed")
				p.removed = true
			} else if p.state == ProxyRemoved {
				// the peer confirmed within the send
				return
			}
		} else {
			p.removed = true
		}
	}
	if p.removed {
		p.state = ProxyRemoved
		p.conn.objects.Remove(p.id)
		p.Unref()
	}
}
