// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a synchronous string key-value medium.
type Store interface {
	// Get returns the value for key, or false when it is absent or unreadable.
	Get(key string) (string, bool)

	// Set writes value under key. The returned error wraps ErrUnavailable.
	Set(key, value string) error

	// Remove deletes key. Failures are logged, never returned.
	Remove(key string)

	// Close releases the medium.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the Store selected by backend at path.
func Open(backend, path string, log zerolog.Logger) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path, log)
	case BackendSQLite:
		return NewSQLiteStore(path, log)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrUnavailable is matched by every write failure a Store reports.
// Use errors.Is(err, ErrUnavailable) to detect storage failures.
var ErrUnavailable = errors.New("storage unavailable")

// OpError describes a failed storage operation.
type OpError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage %s %q failed", e.Op, e.Key)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *OpError) Unwrap() error {
	return e.Err
}

// Is makes every OpError match ErrUnavailable.
func (e *OpError) Is(target error) bool {
	return target == ErrUnavailable
}
