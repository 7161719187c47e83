// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONTRACT TESTS (every backend)
// =============================================================================

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "data.json"), zerolog.Nop())
	require.NoError(t, err)

	db, err := NewSQLiteStore(filepath.Join(dir, "data.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		BackendFile:   file,
		BackendSQLite: db,
		BackendMemory: NewMemoryStore(),
	}
}

func TestStore_Contract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := s.Get("missing")
			assert.False(t, ok, "absent key")

			require.NoError(t, s.Set("k", "v1"))
			v, ok := s.Get("k")
			require.True(t, ok)
			assert.Equal(t, "v1", v)

			// idempotent set and overwrite
			require.NoError(t, s.Set("k", "v1"))
			require.NoError(t, s.Set("k", "v2"))
			v, _ = s.Get("k")
			assert.Equal(t, "v2", v)

			require.NoError(t, s.Set("other", ""))
			v, ok = s.Get("other")
			assert.True(t, ok, "empty values are still present")
			assert.Equal(t, "", v)

			s.Remove("k")
			s.Remove("k")
			_, ok = s.Get("k")
			assert.False(t, ok)

			_, ok = s.Get("other")
			assert.True(t, ok, "remove touches only its key")
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendFile, filepath.Join(dir, "a.json"), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(BackendSQLite, filepath.Join(dir, "a.db"), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(BackendMemory, "", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("redis", "", zerolog.Nop())
	assert.Error(t, err)
}

// =============================================================================
// FILE STORE
// =============================================================================

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Set("gatechat.data", `{"model":"m"}`))

	b, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	v, ok := b.Get("gatechat.data")
	require.True(t, ok)
	assert.Equal(t, `{"model":"m"}`, v)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)

	_, ok := s.Get("anything")
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v"))
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	aside, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, aside, 1)
	kept, err := os.ReadFile(aside[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))
}

func TestFileStore_UnreadableDocumentNotOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	// A directory in place of the document cannot be read but does exist.
	require.NoError(t, os.Mkdir(path, 0700))
	marker := filepath.Join(path, "keep")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0600))

	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)

	_, ok := s.Get("gatechat.password.set")
	assert.False(t, ok)

	err = s.Set("gatechat.password.hash", "123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	s.Remove("gatechat.data")
	_, err = os.Stat(marker)
	assert.NoError(t, err)
}

func TestFileStore_PermissionDeniedNotOverwritten(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	path := filepath.Join(t.TempDir(), "data.json")
	original := `{"gatechat.data":"{}","gatechat.password.set":"1"}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0600))
	require.NoError(t, os.Chmod(path, 0000))
	t.Cleanup(func() { os.Chmod(path, 0600) })

	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)

	err = s.Set("gatechat.password.hash", "123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	require.NoError(t, os.Chmod(path, 0600))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestFileStore_SetFailureIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	s, err := NewFileStore(filepath.Join(sub, "data.json"), zerolog.Nop())
	require.NoError(t, err)

	// Replace the data directory with a plain file so nothing can be written.
	require.NoError(t, os.RemoveAll(sub))
	require.NoError(t, os.WriteFile(sub, []byte("x"), 0600))

	err = s.Set("k", "v")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "set", opErr.Op)
	assert.Equal(t, "k", opErr.Key)

	// Remove must not panic or surface anything.
	s.Remove("k")
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	_, err := NewFileStore("", zerolog.Nop())
	assert.Error(t, err)
}

// =============================================================================
// MEMORY STORE
// =============================================================================

func TestMemoryStore_FailWrites(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set("k", "v"))
	assert.Equal(t, 1, s.Writes())

	s.FailWrites(true)
	err := s.Set("k", "w")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	s.Remove("k")
	v, ok := s.Get("k")
	require.True(t, ok, "failed remove leaves the key")
	assert.Equal(t, "v", v)

	s.FailWrites(false)
	require.NoError(t, s.Set("k", "w"))
	assert.Equal(t, 2, s.Writes())
}
