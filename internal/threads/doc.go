// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package threads holds the conversation threads of a gatechat session.
//
// A Repository owns the ordered thread list (most-recent-first), the active
// thread pointer and the API settings. It hydrates once from a storage.Store
// and writes the whole state back after every mutation. Persistence failures
// never undo an in-memory change: the session keeps working and the error is
// handed back for inline display.
//
// # Key Types
//
//   - Repository: the in-memory thread collection
//   - Thread, Message: the data model
//   - Snapshot: a deep copy for rendering
//
// # Usage
//
//	repo := threads.New(store, log)
//	repo.Hydrate()
//	if _, err := repo.EnsureActiveThread(); err != nil {
//		// state not durable yet
//	}
//	repo.AppendMessage(threads.RoleUser, "Hello world")
package threads
