// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rastercache

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the top-level setup helpers in this package.
// Errors surfaced by the rastercache subpackage during normal cache
// operation are not returned (the cache algebra always has a fallback path)
// and are instead reported through Logger.
var (
	// ErrNoBackend is returned by Open when no runtime.Backend was supplied
	// and runtime.Default has no registered backend to fall back to.
	ErrNoBackend = errors.New("rastercache: no backend configured")
	// ErrNoMemory is returned by Open when no MemoryAccessor was supplied.
	ErrNoMemory = errors.New("rastercache: no guest memory accessor configured")
	// ErrCustomTexDir is returned when a configured custom texture directory
	// exists but is not a directory.
	ErrCustomTexDir = errors.New("rastercache: custom texture path is not a directory")
)

// ConfigError wraps a failure to apply a specific Config field, so callers
// can tell which setting was at fault without string-matching the message.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rastercache: invalid config field %q: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
