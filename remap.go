// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"encoding/binary"
	"fmt"

	"github.com/podlink/podwire/pod"
)

// Legacy property flags. The low nibble selects the range kind, the rest
// are independent bits.
const (
	legacyRangeNone   uint32 = 0
	legacyRangeMinMax uint32 = 1
	legacyRangeStep   uint32 = 2
	legacyRangeEnum   uint32 = 3
	legacyRangeFlags  uint32 = 4
	legacyRangeMask   uint32 = 0xf

	legacyFlagUnset      uint32 = 1 << 4
	legacyFlagOptional   uint32 = 1 << 5
	legacyFlagReadonly   uint32 = 1 << 6
	legacyFlagDeprecated uint32 = 1 << 7
	legacyFlagInfo       uint32 = 1 << 8
)

var remapLE = binary.LittleEndian

// RemapFromLegacy rewrites a legacy-encoded value tree into the current
// encoding: type ids translate through the negotiated mapping, legacy
// property pods become keyed choice properties, and the first two bare
// ids of a format object become its media type and subtype properties.
// Unrecognized payloads pass through untouched.
func (c *Conn) RemapFromLegacy(v pod.Value, b *pod.Builder) error {
	return c.remapFromLegacy(v, b, 0, false)
}

// RemapToLegacy is the inverse rewrite, emitting the old encoding.
func (c *Conn) RemapToLegacy(v pod.Value, b *pod.Builder) error {
	return c.remapToLegacy(v, b, 0)
}

// PodFromLegacy remaps into a fresh buffer and returns the decoded result.
func (c *Conn) PodFromLegacy(v pod.Value) (pod.Value, error) {
	b := pod.NewBuilder(c.limits.MaxMessageSize)
	if err := c.RemapFromLegacy(v, b); err != nil {
		return pod.Value{}, err
	}
	data, err := b.Bytes()
	if err != nil {
		return pod.Value{}, err
	}
	return pod.NewParser(data).Next()
}

// PodToLegacy remaps into a fresh buffer and returns the decoded result.
func (c *Conn) PodToLegacy(v pod.Value) (pod.Value, error) {
	b := pod.NewBuilder(c.limits.MaxMessageSize)
	if err := c.RemapToLegacy(v, b); err != nil {
		return pod.Value{}, err
	}
	data, err := b.Bytes()
	if err != nil {
		return pod.Value{}, err
	}
	return pod.NewParser(data).Next()
}

func (c *Conn) remapFromLegacy(v pod.Value, b *pod.Builder, depth int, inObject bool) error {
	if depth > c.limits.MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", pod.ErrMalformedPod, c.limits.MaxDepth)
	}
	switch v.Type {
	case pod.TypeID:
		wire, err := v.ID()
		if err != nil {
			return err
		}
		id, err := c.typeFromWire(wire)
		if err != nil {
			return err
		}
		return b.AddID(id)

	case pod.TypeChoice:
		// the choice tag carried properties on the old wire
		return c.propFromLegacy(v, b, inObject)

	case pod.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return err
		}
		// the two header words travel swapped between generations
		objType, err := c.typeFromWire(obj.ID)
		if err != nil {
			return err
		}
		objID, err := c.typeFromWire(obj.Type)
		if err != nil {
			return err
		}
		f, err := b.PushObject(objType, objID)
		if err != nil {
			return err
		}
		count := 0
		pods := obj.Pods()
		for pods.More() {
			p, err := pods.Next()
			if err != nil {
				return err
			}
			// format objects lead with two bare ids that became the
			// media type and subtype properties
			if objType == TypeObjectFormat && count < 2 {
				wire, err := p.ID()
				if err != nil {
					continue
				}
				id, err := c.typeFromWire(wire)
				if err != nil {
					return err
				}
				key := FormatMediaType
				if count == 1 {
					key = FormatMediaSubtype
				}
				if err := b.PushProperty(key, 0); err != nil {
					return err
				}
				if err := b.AddID(id); err != nil {
					return err
				}
				count++
				continue
			}
			if err := c.remapFromLegacy(p, b, depth+1, true); err != nil {
				return err
			}
		}
		return b.Pop(f)

	case pod.TypeStruct:
		sp, err := v.Parser()
		if err != nil {
			return err
		}
		f, err := b.PushStruct()
		if err != nil {
			return err
		}
		for sp.More() {
			p, err := sp.Next()
			if err != nil {
				return err
			}
			if err := c.remapFromLegacy(p, b, depth+1, false); err != nil {
				return err
			}
		}
		return b.Pop(f)

	default:
		return b.AddPod(v)
	}
}

// propFromLegacy turns a legacy property body {key, flags, value,
// alternatives...} into a keyed choice property.
func (c *Conn) propFromLegacy(v pod.Value, b *pod.Builder, inObject bool) error {
	body := v.Body
	if len(body) < 8+pod.HeaderSize {
		return fmt.Errorf("%w: property body of %d bytes", pod.ErrMalformedPod, len(body))
	}
	wireKey := remapLE.Uint32(body)
	flags := remapLE.Uint32(body[4:])
	childSize := remapLE.Uint32(body[8:])
	childType := pod.Type(remapLE.Uint32(body[12:]))

	key, err := c.typeFromWire(wireKey)
	if err != nil {
		return err
	}

	kind := pod.ChoiceNone
	if flags&legacyFlagUnset != 0 {
		switch flags & legacyRangeMask {
		case legacyRangeMinMax:
			kind = pod.ChoiceRange
		case legacyRangeStep:
			kind = pod.ChoiceStep
		case legacyRangeEnum:
			kind = pod.ChoiceEnum
		case legacyRangeFlags:
			kind = pod.ChoiceFlags
		}
	}

	if inObject {
		if err := b.PushProperty(key, 0); err != nil {
			return err
		}
	}
	f, err := b.PushChoice(kind, 0)
	if err != nil {
		return err
	}
	if childType == pod.TypeID && childSize >= 4 {
		vals := body[8+pod.HeaderSize:]
		for off := 0; off+int(childSize) <= len(vals); off += int(childSize) {
			wire := remapLE.Uint32(vals[off:])
			id, err := c.typeFromWire(wire)
			if err != nil {
				return err
			}
			if err := b.AddID(id); err != nil {
				return err
			}
		}
	} else {
		// child header plus packed values, copied verbatim
		if err := b.AddRaw(body[8:]); err != nil {
			return err
		}
	}
	return b.Pop(f)
}

// propValues flattens a property value into its choice parts. A plain pod
// is a single-value choice of kind none.
func propValues(v pod.Value) (kind uint32, childType pod.Type, childSize uint32, vals []byte, err error) {
	if v.Type == pod.TypeChoice {
		ch, err := v.Choice()
		if err != nil {
			return 0, 0, 0, nil, err
		}
		return ch.Kind, ch.ChildType, ch.ChildSize, v.Body[8+pod.HeaderSize:], nil
	}
	return pod.ChoiceNone, v.Type, uint32(len(v.Body)), v.Body, nil
}

func (c *Conn) remapToLegacy(v pod.Value, b *pod.Builder, depth int) error {
	if depth > c.limits.MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", pod.ErrMalformedPod, c.limits.MaxDepth)
	}
	switch v.Type {
	case pod.TypeID:
		id, err := v.ID()
		if err != nil {
			return err
		}
		wire, err := c.typeToWire(id)
		if err != nil {
			return err
		}
		return b.AddID(wire)

	case pod.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return err
		}
		return c.objectToLegacy(obj, b)

	case pod.TypeStruct:
		sp, err := v.Parser()
		if err != nil {
			return err
		}
		f, err := b.PushStruct()
		if err != nil {
			return err
		}
		for sp.More() {
			p, err := sp.Next()
			if err != nil {
				return err
			}
			if err := c.remapToLegacy(p, b, depth+1); err != nil {
				return err
			}
		}
		return b.Pop(f)

	default:
		return b.AddPod(v)
	}
}

func (c *Conn) objectToLegacy(obj *pod.Object, b *pod.Builder) error {
	idNS := objectIDNamespace(obj.Type)
	wireID, err := c.typeToWireIn(idNS, obj.ID)
	if err != nil {
		return err
	}

	var f *pod.Frame
	if obj.Type == TypeCommandNode {
		// node commands travel with a zeroed type word
		f, err = b.PushObject(0, wireID)
	} else {
		var wireType uint32
		wireType, err = c.typeToWire(obj.Type)
		if err != nil {
			return err
		}
		// the two header words travel swapped between generations
		f, err = b.PushObject(wireID, wireType)
	}
	if err != nil {
		return err
	}

	keyNS, _ := c.registry.Values(obj.Type)
	for {
		prop, ok, err := obj.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		kind, childType, childSize, vals, err := propValues(prop.Value)
		if err != nil {
			return err
		}
		var valNS TypeRegistry
		if keyNS != nil {
			valNS, _ = keyNS.Values(prop.Key)
		}

		// media type and subtype revert to bare positional ids
		if obj.Type == TypeObjectFormat &&
			(prop.Key == FormatMediaType || prop.Key == FormatMediaSubtype) {
			if childType != pod.TypeID || childSize < 4 || len(vals) < 4 {
				return fmt.Errorf("%w: media key %d is %v", pod.ErrMalformedPod, prop.Key, childType)
			}
			wire, err := c.typeToWireIn(valNS, remapLE.Uint32(vals))
			if err != nil {
				return err
			}
			if err := b.AddID(wire); err != nil {
				return err
			}
			continue
		}

		var lflags uint32
		switch kind {
		case pod.ChoiceRange:
			lflags = legacyRangeMinMax | legacyFlagUnset
		case pod.ChoiceStep:
			lflags = legacyRangeStep | legacyFlagUnset
		case pod.ChoiceEnum:
			lflags = legacyRangeEnum | legacyFlagUnset
		case pod.ChoiceFlags:
			lflags = legacyRangeFlags | legacyFlagUnset
		default:
			lflags = legacyRangeNone
		}
		wireKey, err := c.typeToWireIn(keyNS, prop.Key)
		if err != nil {
			return err
		}
		pf, err := b.PushChoice(wireKey, lflags)
		if err != nil {
			return err
		}
		if childType == pod.TypeID && childSize >= 4 {
			for off := 0; off+int(childSize) <= len(vals); off += int(childSize) {
				wire, err := c.typeToWireIn(valNS, remapLE.Uint32(vals[off:]))
				if err != nil {
					return err
				}
				if err := b.AddID(wire); err != nil {
					return err
				}
			}
		} else {
			hdr := make([]byte, pod.HeaderSize)
			remapLE.PutUint32(hdr, childSize)
			remapLE.PutUint32(hdr[4:], uint32(childType))
			if err := b.AddRaw(hdr); err != nil {
				return err
			}
			if err := b.AddRaw(vals); err != nil {
				return err
			}
		}
		if err := b.Pop(pf); err != nil {
			return err
		}
	}
	return b.Pop(f)
}
