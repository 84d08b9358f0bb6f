// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build grpc

package podwire

import (
	"context"
	"encoding/binary"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// frameCodec passes pre-encoded frames through grpc unchanged.
type frameCodec struct{}

func (frameCodec) Marshal(v interface{}) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("frameCodec: cannot marshal %T", v)
	}
	return b, nil
}

func (frameCodec) Unmarshal(data []byte, v interface{}) error {
	p, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("frameCodec: cannot unmarshal into %T", v)
	}
	*p = data
	return nil
}

func (frameCodec) Name() string { return "podwire-frame" }

// frameHeaderSize is the frame preamble: object id, opcode, padding to
// keep the payload 8-aligned.
const frameHeaderSize = 8

// EncodeFrame prefixes a message payload with its routing header.
func EncodeFrame(objectID uint32, opcode uint8, data []byte) []byte {
	frame := make([]byte, frameHeaderSize+len(data))
	binary.LittleEndian.PutUint32(frame, objectID)
	frame[4] = opcode
	copy(frame[frameHeaderSize:], data)
	return frame
}

// DecodeFrame splits a received frame back into its parts.
func DecodeFrame(frame []byte) (objectID uint32, opcode uint8, data []byte, err error) {
	if len(frame) < frameHeaderSize {
		return 0, 0, nil, fmt.Errorf("frame of %d bytes", len(frame))
	}
	return binary.LittleEndian.Uint32(frame), frame[4], frame[frameHeaderSize:], nil
}

// GRPCTransport sends each message as a fire-and-forget unary call on a
// shared channel. It satisfies Transport.
type GRPCTransport struct {
	ctx context.Context
	cc  *grpc.ClientConn
}

// DialGRPC connects a frame transport to addr.
func DialGRPC(ctx context.Context, addr string) (*GRPCTransport, error) {
	cc, err := grpc.DialContext(ctx, addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &GRPCTransport{ctx: ctx, cc: cc}, nil
}

func (t *GRPCTransport) Send(objectID uint32, opcode uint8, data []byte) error {
	frame := EncodeFrame(objectID, opcode, data)
	var resp []byte
	return t.cc.Invoke(t.ctx, "/podwire.Peer/Frame", frame, &resp, grpc.ForceCodec(frameCodec{}))
}

// Close tears the channel down.
func (t *GRPCTransport) Close() error { return t.cc.Close() }
