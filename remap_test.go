// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/podlink/podwire/pod"
)

func legacyConn(t *testing.T) *Conn {
	t.Helper()
	c := NewConn(&pipeTransport{}, WithLegacyPeer())
	c.setWireTypes(0, legacyTypeNames())
	return c
}

func TestTypeNegotiation(t *testing.T) {
	c := NewConn(&pipeTransport{}, WithLegacyPeer())
	// the peer announces a two-entry vocabulary starting at wire id 0
	c.setWireTypes(0, []string{
		"PipeWire:Object:Node",
		"PipeWire:Object:Port",
	})

	id, err := c.typeFromWire(0)
	if err != nil || id != InterfaceNode {
		t.Fatalf("wire 0 = %#x, %v", id, err)
	}
	id, err = c.typeFromWire(1)
	if err != nil || id != InterfacePort {
		t.Fatalf("wire 1 = %#x, %v", id, err)
	}
	if _, err := c.typeFromWire(2); !errors.Is(err, ErrUnresolvedType) {
		t.Fatalf("unannounced wire id err = %v", err)
	}

	// names unknown to the compiled table stay unmapped
	c.setWireTypes(10, []string{"Vendor:Object:Widget"})
	if _, err := c.typeFromWire(10); !errors.Is(err, ErrUnresolvedType) {
		t.Fatalf("unknown name err = %v", err)
	}
}

func TestTypeToWireUsesTableSlots(t *testing.T) {
	c := legacyConn(t)
	w, err := c.typeToWire(InterfaceCore)
	if err != nil || w != 0 {
		t.Fatalf("core slot = %d, %v", w, err)
	}
	w, err = c.typeToWire(TypeObjectFormat)
	if err != nil {
		t.Fatalf("format slot: %v", err)
	}
	// and back
	id, err := c.typeFromWire(w)
	if err != nil || id != TypeObjectFormat {
		t.Fatalf("format round trip = %#x, %v", id, err)
	}
	if _, err := c.typeToWire(0xdeadbeef); !errors.Is(err, ErrUnresolvedType) {
		t.Fatalf("unnamed id err = %v", err)
	}
}

func buildFormatObject(t *testing.T) pod.Value {
	t.Helper()
	b := pod.NewBuilder(4096)
	f, err := b.PushObject(TypeObjectFormat, ParamEnumFormat)
	if err != nil {
		t.Fatalf("push object: %v", err)
	}
	b.PushProperty(FormatMediaType, 0)
	b.AddID(MediaTypeAudio)
	b.PushProperty(FormatMediaSubtype, 0)
	b.AddID(MediaSubtypeRaw)
	b.PushProperty(FormatAudioFormat, 0)
	ch, err := b.PushChoice(pod.ChoiceEnum, 0)
	if err != nil {
		t.Fatalf("push choice: %v", err)
	}
	b.AddID(AudioFormatS16)
	b.AddID(AudioFormatS32)
	if err := b.Pop(ch); err != nil {
		t.Fatalf("pop choice: %v", err)
	}
	b.PushProperty(FormatAudioRate, 0)
	b.AddInt(44100)
	if err := b.Pop(f); err != nil {
		t.Fatalf("pop object: %v", err)
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	v, err := pod.NewParser(data).Next()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func TestFormatObjectToLegacy(t *testing.T) {
	c := legacyConn(t)
	legacy, err := c.PodToLegacy(buildFormatObject(t))
	if err != nil {
		t.Fatalf("to legacy: %v", err)
	}
	obj, err := legacy.Object()
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	// header words travel swapped: the type slot holds the object id
	formatSlot, _ := FindLegacyIndex("Spa:Pod:Object:Param:Format")
	enumFormatSlot, _ := FindLegacyIndex("Spa:Enum:ParamId:EnumFormat")
	if obj.Type != enumFormatSlot || obj.ID != formatSlot {
		t.Fatalf("legacy header = %d/%d, want %d/%d", obj.Type, obj.ID, enumFormatSlot, formatSlot)
	}

	pods := obj.Pods()
	// media type and subtype lead as bare ids
	audioSlot, _ := FindLegacyIndex("Spa:Enum:MediaType:audio")
	if id, err := pods.ID(); err != nil || id != audioSlot {
		t.Fatalf("media type = %d, %v", id, err)
	}
	rawSlot, _ := FindLegacyIndex("Spa:Enum:MediaSubtype:raw")
	if id, err := pods.ID(); err != nil || id != rawSlot {
		t.Fatalf("media subtype = %d, %v", id, err)
	}

	// the enum property follows with translated alternatives
	prop, err := pods.Next()
	if err != nil {
		t.Fatalf("prop pod: %v", err)
	}
	if prop.Type != pod.TypeChoice {
		t.Fatalf("prop type = %v", prop.Type)
	}
	body := prop.Body
	keySlot, _ := FindLegacyIndex("Spa:Pod:Object:Param:Format:Audio:format")
	if got := remapLE.Uint32(body); got != keySlot {
		t.Fatalf("prop key = %d, want %d", got, keySlot)
	}
	if flags := remapLE.Uint32(body[4:]); flags != legacyRangeEnum|legacyFlagUnset {
		t.Fatalf("prop flags = %#x", flags)
	}
}

func TestFormatObjectRoundTrip(t *testing.T) {
	c := legacyConn(t)
	orig := buildFormatObject(t)

	legacy, err := c.PodToLegacy(orig)
	if err != nil {
		t.Fatalf("to legacy: %v", err)
	}
	back, err := c.PodFromLegacy(legacy)
	if err != nil {
		t.Fatalf("from legacy: %v", err)
	}

	obj, err := back.Object()
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	if obj.Type != TypeObjectFormat || obj.ID != ParamEnumFormat {
		t.Fatalf("header = %#x/%d", obj.Type, obj.ID)
	}
	if prop, ok := obj.Find(FormatMediaType); !ok {
		t.Fatalf("media type missing")
	} else if id, err := prop.Value.ID(); err != nil || id != MediaTypeAudio {
		t.Fatalf("media type = %d, %v", id, err)
	}
	if prop, ok := obj.Find(FormatMediaSubtype); !ok {
		t.Fatalf("media subtype missing")
	} else if id, err := prop.Value.ID(); err != nil || id != MediaSubtypeRaw {
		t.Fatalf("media subtype = %d, %v", id, err)
	}
	prop, ok := obj.Find(FormatAudioFormat)
	if !ok {
		t.Fatalf("audio format missing")
	}
	ch, err := prop.Value.Choice()
	if err != nil {
		t.Fatalf("choice: %v", err)
	}
	if ch.Kind != pod.ChoiceEnum || ch.Len() != 2 {
		t.Fatalf("choice = kind %d len %d", ch.Kind, ch.Len())
	}
	if id, _ := ch.Value(0).ID(); id != AudioFormatS16 {
		t.Fatalf("default format = %d", id)
	}
	// scalar properties survive wrapped as single-value choices
	if prop, ok := obj.Find(FormatAudioRate); !ok {
		t.Fatalf("rate missing")
	} else if rate, err := prop.Value.Int(); err != nil || rate != 44100 {
		t.Fatalf("rate = %d, %v", rate, err)
	}
}

func TestLegacyRoundTripExact(t *testing.T) {
	c := legacyConn(t)

	formatSlot, _ := FindLegacyIndex("Spa:Pod:Object:Param:Format")
	enumFormatSlot, _ := FindLegacyIndex("Spa:Enum:ParamId:EnumFormat")
	audioSlot, _ := FindLegacyIndex("Spa:Enum:MediaType:audio")
	rawSlot, _ := FindLegacyIndex("Spa:Enum:MediaSubtype:raw")
	rateSlot, _ := FindLegacyIndex("Spa:Pod:Object:Param:Format:Audio:rate")

	// a peer-built legacy format: two bare ids, then a single-value prop
	b := pod.NewBuilder(1024)
	f, _ := b.PushObject(enumFormatSlot, formatSlot)
	b.AddID(audioSlot)
	b.AddID(rawSlot)
	prop, _ := b.PushChoice(rateSlot, legacyRangeNone)
	b.AddInt(48000)
	b.Pop(prop)
	if err := b.Pop(f); err != nil {
		t.Fatalf("pop: %v", err)
	}
	data, _ := b.Bytes()
	legacy, err := pod.NewParser(data).Next()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	current, err := c.PodFromLegacy(legacy)
	if err != nil {
		t.Fatalf("from legacy: %v", err)
	}
	again, err := c.PodToLegacy(current)
	if err != nil {
		t.Fatalf("to legacy: %v", err)
	}
	if again.Type != legacy.Type || !bytes.Equal(again.Body, legacy.Body) {
		t.Fatalf("round trip changed bytes:\n%s\n%s", legacy, again)
	}
}

func TestStructPassThrough(t *testing.T) {
	c := legacyConn(t)

	b := pod.NewBuilder(1024)
	f, _ := b.PushStruct()
	b.AddID(InterfaceNode)
	b.AddString("keepme")
	b.AddInt(9)
	b.Pop(f)
	data, _ := b.Bytes()
	v, err := pod.NewParser(data).Next()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	legacy, err := c.PodToLegacy(v)
	if err != nil {
		t.Fatalf("to legacy: %v", err)
	}
	back, err := c.PodFromLegacy(legacy)
	if err != nil {
		t.Fatalf("from legacy: %v", err)
	}
	p, err := back.Parser()
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	if id, err := p.ID(); err != nil || id != InterfaceNode {
		t.Fatalf("id = %#x, %v", id, err)
	}
	// unknown payloads pass through untouched
	if s, err := p.Str(); err != nil || s != "keepme" {
		t.Fatalf("string = %q, %v", s, err)
	}
	if i, err := p.Int(); err != nil || i != 9 {
		t.Fatalf("int = %d, %v", i, err)
	}
}

func TestNodeCommandToLegacy(t *testing.T) {
	c := legacyConn(t)

	b := pod.NewBuilder(256)
	f, _ := b.PushObject(TypeCommandNode, NodeCommandStart)
	if err := b.Pop(f); err != nil {
		t.Fatalf("pop: %v", err)
	}
	data, _ := b.Bytes()
	v, _ := pod.NewParser(data).Next()

	legacy, err := c.PodToLegacy(v)
	if err != nil {
		t.Fatalf("to legacy: %v", err)
	}
	obj, err := legacy.Object()
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	startSlot, _ := FindLegacyIndex("Spa:Pod:Object:Command:Node:Start")
	// commands travel with a zeroed type word
	if obj.Type != 0 || obj.ID != startSlot {
		t.Fatalf("legacy command = %d/%d, want 0/%d", obj.Type, obj.ID, startSlot)
	}
}

func TestLegacyUpdateTypesMessage(t *testing.T) {
	client, server := newSession(t, true)
	_, _, watcher := startCore(t, client, server)

	// the first info event to a legacy peer is preceded by the full
	// vocabulary announcement, so type ids in later events resolve
	if err := server.coreResource.Info(&CoreInfo{UserName: "alice"}); err != nil {
		t.Fatalf("info: %v", err)
	}
	if len(watcher.infos) != 1 || watcher.infos[0].UserName != "alice" {
		t.Fatalf("infos = %+v", watcher.infos)
	}

	rres, err := NewResource(server, 1, 0, InterfaceRegistry, 0)
	if err != nil {
		t.Fatalf("registry resource: %v", err)
	}
	rp, err := NewRegistryProxy(client)
	if err != nil {
		t.Fatalf("registry proxy: %v", err)
	}
	var globals []*Global
	rp.AddObjectListener(globalFunc(func(g *Global) { globals = append(globals, g) }))

	reg := &RegistryResource{rres}
	if err := reg.Global(&Global{ID: 2, Type: InterfaceNode, Version: 3}); err != nil {
		t.Fatalf("global: %v", err)
	}
	if len(globals) != 1 || globals[0].Type != InterfaceNode {
		t.Fatalf("globals = %+v", globals)
	}
	// the old generation carries no global versions
	if globals[0].Version != 0 {
		t.Fatalf("version = %d", globals[0].Version)
	}
}
