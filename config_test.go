// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.toml")
	if err := os.WriteFile(path, []byte("max_message_size = 4096\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := LoadLimits(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.MaxMessageSize != 4096 {
		t.Fatalf("max message size = %d", l.MaxMessageSize)
	}
	// unset fields keep their defaults
	if l.MaxDepth != DefaultLimits().MaxDepth {
		t.Fatalf("max depth = %d", l.MaxDepth)
	}
	if l.MaxObjectID != DefaultLimits().MaxObjectID {
		t.Fatalf("max object id = %d", l.MaxObjectID)
	}
}

func TestLoadLimitsMissingFile(t *testing.T) {
	if _, err := LoadLimits(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
