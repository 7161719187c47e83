// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package threads

import (
	"errors"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTitle is the placeholder title of a thread with no user message.
	DefaultTitle = "New chat"

	// MaxTitleRunes bounds a derived title.
	MaxTitleRunes = 60

	// DefaultModel is the model used when none is stored.
	DefaultModel = "gpt-4o-mini"

	// StateKey is the store key holding the serialized State.
	StateKey = "gatechat.data"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// DATA MODEL
// =============================================================================

// Message is one entry in a thread.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"ts"`
}

// Thread is one conversation. Messages are in send order.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
}

// clone returns a deep copy safe to hand to callers.
func (t *Thread) clone() Thread {
	c := *t
	c.Messages = append([]Message(nil), t.Messages...)
	return c
}

// DisplayTitle returns the title, falling back to the placeholder.
func (t Thread) DisplayTitle() string {
	if t.Title == "" {
		return DefaultTitle
	}
	return t.Title
}

// State is everything the repository persists.
// Threads are ordered most-recent-first.
type State struct {
	APIKey         string   `json:"apiKey"`
	Model          string   `json:"model"`
	Threads        []Thread `json:"threads"`
	ActiveThreadID string   `json:"activeThreadId,omitempty"`
}

// Settings are the user-editable fields of State.
type Settings struct {
	APIKey string
	Model  string
}

// Snapshot is a read-only copy of the repository for rendering.
type Snapshot struct {
	Settings  Settings
	Active    Thread
	HasActive bool
	Recent    []Thread
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned when a user message is blank.
	ErrEmptyInput = errors.New("message is empty")

	// ErrThreadNotFound is returned for ids that don't resolve.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrNoActiveThread is returned when an operation needs an active thread
	// and none is set.
	ErrNoActiveThread = errors.New("no active thread")

	// ErrInvalidRole is returned for roles other than user and assistant.
	ErrInvalidRole = errors.New("invalid message role")
)
