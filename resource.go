// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "fmt"

// ResourceEvents are lifecycle callbacks. Destroy fires exactly once.
type ResourceEvents struct {
	Destroy func()
}

// Resource is the server-side half of an object: it sits at an id the
// peer chose, decodes inbound method calls into its implementation, and
// marshals outbound events through the typed wrappers.
type Resource struct {
	conn        *Conn
	id          uint32
	permissions uint32
	typ         uint32
	version     uint32
	marshal     *Marshal

	impl      interface{}
	listeners []*ResourceEvents
	removed   bool
	destroyed bool
}

// NewResource installs a resource at the peer-chosen id.
func NewResource(c *Conn, id, permissions, typ, version uint32) (*Resource, error) {
	m, ok := LookupMarshal(typ, version)
	if !ok {
		return nil, fmt.Errorf("%w: %#x version %d", ErrNoMarshal, typ, version)
	}
	if id > c.limits.MaxObjectID {
		return nil, fmt.Errorf("%w: id %d beyond limit %d", ErrInvalidID, id, c.limits.MaxObjectID)
	}
	r := &Resource{conn: c, id: id, permissions: permissions, typ: typ, version: version, marshal: m}
	if err := c.objects.AddAt(id, r); err != nil {
		return nil, err
	}
	if typ == InterfaceCore && c.coreResource == nil {
		c.coreResource = &CoreResource{r}
	}
	c.log.Debug().Uint32("id", id).Uint32("type", typ).Msg("new resource")
	return r, nil
}

func (r *Resource) ID() uint32          { return r.id }
func (r *Resource) Type() uint32        { return r.typ }
func (r *Resource) Version() uint32     { return r.version }
func (r *Resource) Permissions() uint32 { return r.permissions }
func (r *Resource) Conn() *Conn         { return r.conn }

// SetImplementation binds the object behind this resource. Inbound
// methods are dispatched to it.
func (r *Resource) SetImplementation(impl interface{}) { r.impl = impl }

// AddListener registers lifecycle callbacks.
func (r *Resource) AddListener(ev *ResourceEvents) {
	r.listeners = append(r.listeners, ev)
}

// PostError sends an error event naming this resource to the peer.
func (r *Resource) PostError(res int32, message string) error {
	cr := r.conn.coreResource
	if cr == nil {
		return fmt.Errorf("%w: no core resource", ErrInvalidID)
	}
	return cr.Error(r.id, res, message)
}

// Destroy notifies listeners, frees the slot, and tells the peer the id
// is gone unless the peer released it first.
func (r *Resource) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	for _, l := range r.listeners {
		if l.Destroy != nil {
			l.Destroy()
		}
	}
	r.listeners = nil
	r.conn.objects.Remove(r.id)
	if cr := r.conn.coreResource; cr != nil && !r.removed && !r.conn.closed {
		if err := cr.RemoveID(r.id); err != nil {
			r.conn.log.Warn().Err(err).Uint32("id", r.id).Msg("remove-id failed")
		}
	}
	r.conn.log.Debug().Uint32("id", r.id).Msg("resource destroyed")
}
