// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value persistence used by gatechat.
//
// Everything gatechat remembers between runs lives behind the Store interface:
// the password gate record and the serialized thread state. The medium is
// local, synchronous and per-user, the terminal equivalent of browser
// localStorage.
//
// # Key Types
//
//   - Store: Get/Set/Remove over string keys and values
//   - FileStore: a single JSON document, rewritten atomically on every change
//   - SQLiteStore: a kv table in a SQLite database (modernc.org/sqlite)
//   - MemoryStore: in-process map with failure injection, for tests
//
// # Failure Semantics
//
// Get never fails: unreadable values are reported as absent and logged.
// Set returns an error wrapping ErrUnavailable when the medium cannot be
// written. Remove is best effort; failures are logged and swallowed.
//
// # Usage
//
//	store, err := storage.Open(storage.BackendFile, "~/.gatechat/data.json", log)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	if err := store.Set("gatechat.data", blob); err != nil {
//		// not durable until retried
//	}
package storage
