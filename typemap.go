// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

// TypeMapping binds one slot of the compiled legacy type table to the
// current numeric id of the named type. The slot index is the stable
// legacy identifier: translation to the old wire emits the index, and
// ids announced by the peer resolve by name back to a slot.
type TypeMapping struct {
	Name string
	ID   uint32
}

// legacyTypes is the compiled table of every type the old protocol
// generation can talk about. Order is part of the protocol and must not
// change between releases.
var legacyTypes = []TypeMapping{
	{Name: "PipeWire:Object:Core", ID: InterfaceCore},
	{Name: "PipeWire:Object:Registry", ID: InterfaceRegistry},
	{Name: "PipeWire:Object:Module", ID: InterfaceModule},
	{Name: "PipeWire:Object:Node", ID: InterfaceNode},
	{Name: "PipeWire:Object:Port", ID: InterfacePort},
	{Name: "PipeWire:Object:Factory", ID: InterfaceFactory},
	{Name: "PipeWire:Object:Client", ID: InterfaceClient},
	{Name: "PipeWire:Object:Link", ID: InterfaceLink},
	{Name: "Spa:Pod:Object:Param:PropInfo", ID: TypeObjectPropInfo},
	{Name: "Spa:Pod:Object:Param:Props", ID: TypeObjectProps},
	{Name: "Spa:Pod:Object:Param:Format", ID: TypeObjectFormat},
	{Name: "Spa:Pod:Object:Param:Buffers", ID: TypeObjectParamBuffers},
	{Name: "Spa:Pod:Object:Param:Meta", ID: TypeObjectParamMeta},
	{Name: "Spa:Pod:Object:Param:IO", ID: TypeObjectParamIO},
	{Name: "Spa:Pod:Object:Command:Node", ID: TypeCommandNode},
	{Name: "Spa:Enum:ParamId:PropInfo", ID: ParamPropInfo},
	{Name: "Spa:Enum:ParamId:Props", ID: ParamProps},
	{Name: "Spa:Enum:ParamId:EnumFormat", ID: ParamEnumFormat},
	{Name: "Spa:Enum:ParamId:Format", ID: ParamFormat},
	{Name: "Spa:Enum:ParamId:Buffers", ID: ParamBuffers},
	{Name: "Spa:Enum:ParamId:Meta", ID: ParamMeta},
	{Name: "Spa:Enum:ParamId:IO", ID: ParamIO},
	{Name: "Spa:Pod:Object:Param:Format:mediaType", ID: FormatMediaType},
	{Name: "Spa:Pod:Object:Param:Format:mediaSubtype", ID: FormatMediaSubtype},
	{Name: "Spa:Pod:Object:Param:Format:Audio:format", ID: FormatAudioFormat},
	{Name: "Spa:Pod:Object:Param:Format:Audio:rate", ID: FormatAudioRate},
	{Name: "Spa:Pod:Object:Param:Format:Audio:channels", ID: FormatAudioChannels},
	{Name: "Spa:Enum:MediaType:audio", ID: MediaTypeAudio},
	{Name: "Spa:Enum:MediaType:video", ID: MediaTypeVideo},
	{Name: "Spa:Enum:MediaType:image", ID: MediaTypeImage},
	{Name: "Spa:Enum:MediaSubtype:raw", ID: MediaSubtypeRaw},
	{Name: "Spa:Enum:AudioFormat:encoded", ID: AudioFormatEncoded},
	{Name: "Spa:Enum:AudioFormat:S16", ID: AudioFormatS16},
	{Name: "Spa:Enum:AudioFormat:S32", ID: AudioFormatS32},
	{Name: "Spa:Enum:AudioFormat:F32", ID: AudioFormatF32},
	{Name: "Spa:Pod:Object:Command:Node:Suspend", ID: NodeCommandSuspend},
	{Name: "Spa:Pod:Object:Command:Node:Pause", ID: NodeCommandPause},
	{Name: "Spa:Pod:Object:Command:Node:Start", ID: NodeCommandStart},
}

var legacyIndexByName = func() map[string]uint32 {
	m := make(map[string]uint32, len(legacyTypes))
	for i, t := range legacyTypes {
		m[t.Name] = uint32(i)
	}
	return m
}()

// FindLegacyIndex resolves a type name to its legacy table slot.
func FindLegacyIndex(name string) (uint32, bool) {
	i, ok := legacyIndexByName[name]
	return i, ok
}

// legacyTypeNames lists the table in slot order, the form in which one
// peer announces its vocabulary to the other.
func legacyTypeNames() []string {
	names := make([]string, len(legacyTypes))
	for i, t := range legacyTypes {
		names[i] = t.Name
	}
	return names
}
