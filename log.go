// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import (
	"os"

	"github.com/rs/zerolog"
)

// logger is the package default, quiet unless something is wrong. New
// connections copy it; WithConnLogger overrides per connection.
var logger = zerolog.New(os.Stderr).
	With().Timestamp().Str("pkg", "podwire").Logger().
	Level(zerolog.WarnLevel)

// SetLogger replaces the package default logger.
func SetLogger(l zerolog.Logger) { logger = l }
