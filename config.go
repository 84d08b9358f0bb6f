// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Limits bound per-connection resource use. MaxMessageSize caps the
// encode buffer of one message; MaxDepth caps container nesting during
// remapping; MaxObjectID caps peer-chosen object ids, since the object
// table grows to the highest id in use.
type Limits struct {
	MaxMessageSize int    `toml:"max_message_size"`
	MaxDepth       int    `toml:"max_depth"`
	MaxObjectID    uint32 `toml:"max_object_id"`
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxMessageSize: 64 * 1024,
		MaxDepth:       32,
		MaxObjectID:    64 * 1024,
	}
}

// LoadLimits reads limits from a TOML file. Fields the file leaves unset
// keep their defaults.
func LoadLimits(path string) (Limits, error) {
	l := DefaultLimits()
	if _, err := toml.DecodeFile(path, &l); err != nil {
		return Limits{}, fmt.Errorf("load limits: %w", err)
	}
	return l, nil
}
