// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package podwire implements the wire layer of a multimedia session
// protocol: a tagged binary value format, per-interface marshal tables,
// a translation layer for peers speaking the previous protocol
// generation, and the proxy/resource object registry the messages are
// addressed through.
//
// # Values
//
// Payloads are pods, built and read with the pod subpackage:
//
//	b := pod.NewBuilder(4096)
//	f, _ := b.PushStruct()
//	b.AddInt(4)
//	b.AddString("test123")
//	b.Pop(f)
//	data, err := b.Bytes()
//
// # Objects
//
// A Conn carries messages between numbered objects. The side that
// creates an object holds a Proxy; the peer serves it with a Resource
// backed by an implementation:
//
//	c := podwire.NewConn(transport)
//	core, err := podwire.NewCoreProxy(c)
//	core.Hello()
//	core.Sync(1)
//
//	// peer side
//	s := podwire.NewConn(peerTransport)
//	res, err := podwire.NewResource(s, 0, perms, podwire.InterfaceCore, 0)
//	res.SetImplementation(myCore)
//
// Inbound bytes are handed to Conn.Dispatch, which routes them through
// the addressed object's marshal table. Unknown opcodes and dead object
// ids are reported but never kill the connection.
//
// # Legacy peers
//
// A connection opened with WithLegacyPeer translates type ids through
// the vocabulary negotiated via update-types and rewrites object
// payloads between the two encodings (see RemapFromLegacy and
// RemapToLegacy).
//
// # Transports
//
// Any Transport implementation can carry messages. A gRPC-backed one is
// available behind a build tag:
//
//	go build              # bring your own transport
//	go build -tags grpc   # enable DialGRPC
package podwire
