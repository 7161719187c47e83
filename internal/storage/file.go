// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/gatechat/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// errCorruptDocument marks a data file that exists but does not decode.
var errCorruptDocument = errors.New("store document is corrupt")

// FileStore keeps every key in one JSON object on disk.
//
// The file is re-read on each operation so two gatechat processes sharing a
// data directory see each other's writes (last writer wins).
type FileStore struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// NewFileStore creates a store backed by the JSON file at path.
// The parent directory is created with 0700 permissions.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{
		path: path,
		log:  log.With().Str("component", "storage").Str("backend", BackendFile).Logger(),
	}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read failed, treating key as absent")
		return "", false
	}
	v, ok := entries[key]
	return v, ok
}

// Set implements Store.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if errors.Is(err, errCorruptDocument) {
		err = s.quarantine()
		entries = map[string]string{}
	}
	if err != nil {
		return &OpError{Op: "set", Key: key, Err: err}
	}
	if cur, ok := entries[key]; ok && cur == value {
		return nil
	}
	entries[key] = value

	if err := s.write(entries); err != nil {
		return &OpError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove implements Store.
func (s *FileStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("remove skipped, store unreadable")
		return
	}
	if _, ok := entries[key]; !ok {
		return
	}
	delete(entries, key)

	if err := s.write(entries); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("remove failed")
	}
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// quarantine moves a corrupt document aside so the next write starts clean
// without destroying what was there.
func (s *FileStore) quarantine() error {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(s.path, aside); err != nil {
		return fmt.Errorf("moving corrupt document aside: %w", err)
	}
	s.log.Warn().Str("moved_to", aside).Msg("store document was corrupt, moved aside")
	return nil
}

// read loads the document. A missing or empty file is an empty store; any
// other failure is returned, and undecodable content wraps errCorruptDocument.
func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errCorruptDocument, s.path, err)
	}
	return entries, nil
}

// SECURITY: 0600 - the document holds the API key.
func (s *FileStore) write(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(s.path, data, 0600)
}
