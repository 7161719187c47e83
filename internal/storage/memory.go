// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"sync"
)

// errQuotaExceeded is what a failing MemoryStore reports, mirroring a full or
// blocked browser storage area.
var errQuotaExceeded = errors.New("quota exceeded")

// MemoryStore is an in-process Store. It is not persistent across runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
	failSet bool
	writes  int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]string{}}
}

// FailWrites makes subsequent Set calls fail (and Remove silently no-op)
// until called again with false.
func (s *MemoryStore) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = fail
}

// Writes returns how many successful Set calls have been made.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set implements Store.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return &OpError{Op: "set", Key: key, Err: errQuotaExceeded}
	}
	s.entries[key] = value
	s.writes++
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return
	}
	delete(s.entries, key)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
