// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

// Object type ids carried in object pod headers.
const (
	TypeObjectPropInfo uint32 = 0x40001 + iota
	TypeObjectProps
	TypeObjectFormat
	TypeObjectParamBuffers
	TypeObjectParamMeta
	TypeObjectParamIO
)

// TypeCommandNode tags node command objects, which travel with a zeroed
// type word on the legacy wire.
const TypeCommandNode uint32 = 0x30001

// Param ids, used as the id word of param objects.
const (
	ParamInvalid uint32 = iota
	ParamPropInfo
	ParamProps
	ParamEnumFormat
	ParamFormat
	ParamBuffers
	ParamMeta
	ParamIO
)

// Format object property keys.
const (
	FormatMediaType    uint32 = 1
	FormatMediaSubtype uint32 = 2

	FormatAudioFormat   uint32 = 0x10001
	FormatAudioRate     uint32 = 0x10002
	FormatAudioChannels uint32 = 0x10003
)

// Media types.
const (
	MediaTypeUnknown uint32 = iota
	MediaTypeAudio
	MediaTypeVideo
	MediaTypeImage
)

// Media subtypes.
const (
	MediaSubtypeUnknown uint32 = iota
	MediaSubtypeRaw
)

// Audio sample formats.
const (
	AudioFormatUnknown uint32 = iota
	AudioFormatEncoded
	AudioFormatS16
	AudioFormatS32
	AudioFormatF32
)

// Node commands.
const (
	NodeCommandSuspend uint32 = iota
	NodeCommandPause
	NodeCommandStart
)

// TypeRegistry resolves numeric type ids to globally namespaced names and
// back. Namespaces nest: a type can carry a value namespace that numbers
// the ids appearing inside it, such as an enum property's legal values.
type TypeRegistry interface {
	Name(id uint32) (string, bool)
	ID(name string) (uint32, bool)
	Values(id uint32) (TypeRegistry, bool)
}

// TypeEntry describes one type in a namespace.
type TypeEntry struct {
	ID     uint32
	Name   string
	Values []TypeEntry
}

// Namespace is a flat list of type entries implementing TypeRegistry.
type Namespace struct {
	entries []TypeEntry
	byID    map[uint32]int
	byName  map[string]int
}

// NewNamespace indexes the given entries.
func NewNamespace(entries []TypeEntry) *Namespace {
	n := &Namespace{
		entries: entries,
		byID:    make(map[uint32]int, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		n.byID[e.ID] = i
		n.byName[e.Name] = i
	}
	return n
}

func (n *Namespace) Name(id uint32) (string, bool) {
	if i, ok := n.byID[id]; ok {
		return n.entries[i].Name, true
	}
	return "", false
}

func (n *Namespace) ID(name string) (uint32, bool) {
	if i, ok := n.byName[name]; ok {
		return n.entries[i].ID, true
	}
	return 0, false
}

func (n *Namespace) Values(id uint32) (TypeRegistry, bool) {
	i, ok := n.byID[id]
	if !ok || n.entries[i].Values == nil {
		return nil, false
	}
	return NewNamespace(n.entries[i].Values), true
}

var mediaTypeValues = []TypeEntry{
	{ID: MediaTypeAudio, Name: "Spa:Enum:MediaType:audio"},
	{ID: MediaTypeVideo, Name: "Spa:Enum:MediaType:video"},
	{ID: MediaTypeImage, Name: "Spa:Enum:MediaType:image"},
}

var mediaSubtypeValues = []TypeEntry{
	{ID: MediaSubtypeRaw, Name: "Spa:Enum:MediaSubtype:raw"},
}

var audioFormatValues = []TypeEntry{
	{ID: AudioFormatEncoded, Name: "Spa:Enum:AudioFormat:encoded"},
	{ID: AudioFormatS16, Name: "Spa:Enum:AudioFormat:S16"},
	{ID: AudioFormatS32, Name: "Spa:Enum:AudioFormat:S32"},
	{ID: AudioFormatF32, Name: "Spa:Enum:AudioFormat:F32"},
}

var formatKeys = []TypeEntry{
	{ID: FormatMediaType, Name: "Spa:Pod:Object:Param:Format:mediaType", Values: mediaTypeValues},
	{ID: FormatMediaSubtype, Name: "Spa:Pod:Object:Param:Format:mediaSubtype", Values: mediaSubtypeValues},
	{ID: FormatAudioFormat, Name: "Spa:Pod:Object:Param:Format:Audio:format", Values: audioFormatValues},
	{ID: FormatAudioRate, Name: "Spa:Pod:Object:Param:Format:Audio:rate"},
	{ID: FormatAudioChannels, Name: "Spa:Pod:Object:Param:Format:Audio:channels"},
}

var paramIDValues = []TypeEntry{
	{ID: ParamPropInfo, Name: "Spa:Enum:ParamId:PropInfo"},
	{ID: ParamProps, Name: "Spa:Enum:ParamId:Props"},
	{ID: ParamEnumFormat, Name: "Spa:Enum:ParamId:EnumFormat"},
	{ID: ParamFormat, Name: "Spa:Enum:ParamId:Format"},
	{ID: ParamBuffers, Name: "Spa:Enum:ParamId:Buffers"},
	{ID: ParamMeta, Name: "Spa:Enum:ParamId:Meta"},
	{ID: ParamIO, Name: "Spa:Enum:ParamId:IO"},
}

var nodeCommandValues = []TypeEntry{
	{ID: NodeCommandSuspend, Name: "Spa:Pod:Object:Command:Node:Suspend"},
	{ID: NodeCommandPause, Name: "Spa:Pod:Object:Command:Node:Pause"},
	{ID: NodeCommandStart, Name: "Spa:Pod:Object:Command:Node:Start"},
}

var defaultTypeEntries = []TypeEntry{
	{ID: InterfaceCore, Name: "PipeWire:Object:Core"},
	{ID: InterfaceRegistry, Name: "PipeWire:Object:Registry"},
	{ID: InterfaceModule, Name: "PipeWire:Object:Module"},
	{ID: InterfaceNode, Name: "PipeWire:Object:Node"},
	{ID: InterfacePort, Name: "PipeWire:Object:Port"},
	{ID: InterfaceFactory, Name: "PipeWire:Object:Factory"},
	{ID: InterfaceClient, Name: "PipeWire:Object:Client"},
	{ID: InterfaceLink, Name: "PipeWire:Object:Link"},
	{ID: TypeObjectPropInfo, Name: "Spa:Pod:Object:Param:PropInfo"},
	{ID: TypeObjectProps, Name: "Spa:Pod:Object:Param:Props"},
	{ID: TypeObjectFormat, Name: "Spa:Pod:Object:Param:Format", Values: formatKeys},
	{ID: TypeObjectParamBuffers, Name: "Spa:Pod:Object:Param:Buffers"},
	{ID: TypeObjectParamMeta, Name: "Spa:Pod:Object:Param:Meta"},
	{ID: TypeObjectParamIO, Name: "Spa:Pod:Object:Param:IO"},
	{ID: TypeCommandNode, Name: "Spa:Pod:Object:Command:Node", Values: nodeCommandValues},
}

var defaultTypes = NewNamespace(defaultTypeEntries)

// DefaultTypes returns the built-in type namespace.
func DefaultTypes() TypeRegistry { return defaultTypes }

var paramIDNamespace = NewNamespace(paramIDValues)
var nodeCommandNamespace = NewNamespace(nodeCommandValues)

// objectIDNamespace picks the namespace that numbers the id word of an
// object of the given type. Param objects draw their ids from the param
// enumeration, commands from their own value list.
func objectIDNamespace(objType uint32) TypeRegistry {
	switch objType {
	case TypeObjectPropInfo, TypeObjectProps, TypeObjectFormat,
		TypeObjectParamBuffers, TypeObjectParamMeta, TypeObjectParamIO:
		return paramIDNamespace
	case TypeCommandNode:
		return nodeCommandNamespace
	default:
		return nil
	}
}
