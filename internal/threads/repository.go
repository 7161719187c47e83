// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package threads

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/gatechat/internal/storage"
	"github.com/jeranaias/gatechat/internal/util"
)

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository is the in-memory thread collection of one session.
type Repository struct {
	mu    sync.Mutex
	store storage.Store
	log   zerolog.Logger
	state State

	defaultModel string
	now          func() time.Time
	newID        func() string
}

// Option configures a Repository.
type Option func(*Repository)

// WithDefaultModel sets the model used when none is stored.
func WithDefaultModel(model string) Option {
	return func(r *Repository) {
		if model != "" {
			r.defaultModel = model
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides thread id generation, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

// New creates a Repository over store holding only defaults.
// Call Hydrate to load persisted state.
func New(store storage.Store, log zerolog.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:        store,
		log:          log.With().Str("component", "threads").Logger(),
		defaultModel: DefaultModel,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state = r.defaults()
	return r
}

func (r *Repository) defaults() State {
	return State{Model: r.defaultModel, Threads: []Thread{}}
}

// =============================================================================
// LOAD / PERSIST
// =============================================================================

// Hydrate replaces the in-memory state with the persisted one. Absent or
// malformed data leaves the defaults in place; Hydrate never fails.
func (r *Repository) Hydrate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = r.defaults()

	raw, ok := r.store.Get(StateKey)
	if !ok || strings.TrimSpace(raw) == "" {
		r.log.Debug().Msg("no persisted state, using defaults")
		return
	}

	var loaded State
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		r.log.Warn().Err(err).Msg("discarding malformed persisted state")
		return
	}

	if loaded.Model == "" {
		loaded.Model = r.defaultModel
	}
	loaded.Threads = r.sanitize(loaded.Threads)
	r.state = loaded

	r.log.Info().
		Int("threads", len(loaded.Threads)).
		Bool("has_active", loaded.ActiveThreadID != "").
		Msg("state hydrated")
}

// sanitize drops threads that would break id uniqueness and fills in
// missing fields.
func (r *Repository) sanitize(in []Thread) []Thread {
	out := make([]Thread, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		if t.ID == "" || seen[t.ID] {
			r.log.Warn().Str("thread_id", t.ID).Msg("dropping thread with empty or duplicate id")
			continue
		}
		seen[t.ID] = true
		if t.Title == "" {
			t.Title = DefaultTitle
		}
		if t.Messages == nil {
			t.Messages = []Message{}
		}
		out = append(out, t)
	}
	return out
}

// Persist writes the full state to the store.
func (r *Repository) Persist() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked()
}

func (r *Repository) persistLocked() error {
	data, err := json.Marshal(r.state)
	if err != nil {
		r.log.Error().Err(err).Msg("encoding state failed")
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := r.store.Set(StateKey, string(data)); err != nil {
		r.log.Warn().Err(err).Msg("persist failed, state is in memory only")
		return fmt.Errorf("saving chats: %w", err)
	}
	return nil
}

// =============================================================================
// THREAD LIFECYCLE
// =============================================================================

// EnsureActiveThread creates and activates a new thread only when the active
// id is unset or doesn't resolve. It returns the active thread.
func (r *Repository) EnsureActiveThread() (Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t := r.findLocked(r.state.ActiveThreadID); t != nil {
		return t.clone(), nil
	}
	return r.createLocked()
}

// CreateThread creates a new thread at the front of the list and activates it.
func (r *Repository) CreateThread() (Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked()
}

func (r *Repository) createLocked() (Thread, error) {
	t := Thread{
		ID:        r.newID(),
		Title:     DefaultTitle,
		CreatedAt: r.now(),
		Messages:  []Message{},
	}
	r.state.Threads = append([]Thread{t}, r.state.Threads...)
	r.state.ActiveThreadID = t.ID

	r.log.Debug().Str("thread_id", t.ID).Msg("thread created")
	return t.clone(), r.persistLocked()
}

// SetActiveThread switches the active pointer to id.
func (r *Repository) SetActiveThread(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(id) == nil {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	r.state.ActiveThreadID = id
	return r.persistLocked()
}

// ClearActiveThread empties the active thread and resets its title.
func (r *Repository) ClearActiveThread() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findLocked(r.state.ActiveThreadID)
	if t == nil {
		return ErrNoActiveThread
	}
	t.Messages = []Message{}
	t.Title = DefaultTitle
	return r.persistLocked()
}

// =============================================================================
// MESSAGES
// =============================================================================

// AppendMessage appends a message to the active thread.
func (r *Repository) AppendMessage(role Role, content string) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.ActiveThreadID == "" {
		return Message{}, ErrNoActiveThread
	}
	return r.appendLocked(r.state.ActiveThreadID, role, content)
}

// AppendTo appends a message to the thread with the given id, whether or not
// it is active.
func (r *Repository) AppendTo(threadID string, role Role, content string) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLocked(threadID, role, content)
}

func (r *Repository) appendLocked(threadID string, role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role == RoleUser && strings.TrimSpace(content) == "" {
		return Message{}, ErrEmptyInput
	}

	t := r.findLocked(threadID)
	if t == nil {
		return Message{}, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	msg := Message{Role: role, Content: content, Timestamp: r.now()}
	t.Messages = append(t.Messages, msg)
	if role == RoleUser && t.Title == DefaultTitle {
		t.Title = deriveTitle(t.Messages)
	}

	return msg, r.persistLocked()
}

// deriveTitle uses the first user message, cut to MaxTitleRunes.
func deriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role == RoleUser && m.Content != "" {
			return util.RunePrefix(m.Content, MaxTitleRunes)
		}
	}
	return DefaultTitle
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings returns the API key and model.
func (r *Repository) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Settings{APIKey: r.state.APIKey, Model: r.modelLocked()}
}

// SetSettings stores a new API key and model. Both are trimmed; an empty
// model falls back to the default.
func (r *Repository) SetSettings(apiKey, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.APIKey = strings.TrimSpace(apiKey)
	r.state.Model = strings.TrimSpace(model)
	if r.state.Model == "" {
		r.state.Model = r.defaultModel
	}
	return r.persistLocked()
}

func (r *Repository) modelLocked() string {
	if r.state.Model == "" {
		return r.defaultModel
	}
	return r.state.Model
}

// =============================================================================
// QUERIES
// =============================================================================

// Active returns a copy of the active thread.
func (r *Repository) Active() (Thread, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findLocked(r.state.ActiveThreadID)
	if t == nil {
		return Thread{}, false
	}
	return t.clone(), true
}

// ActiveID returns the active thread id, or "" when none is set.
func (r *Repository) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.ActiveThreadID
}

// Thread returns a copy of the thread with the given id.
func (r *Repository) Thread(id string) (Thread, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findLocked(id)
	if t == nil {
		return Thread{}, false
	}
	return t.clone(), true
}

// Recent returns copies of the first n threads, most recent first.
func (r *Repository) Recent(n int) []Thread {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentLocked(n)
}

func (r *Repository) recentLocked(n int) []Thread {
	if n <= 0 {
		return []Thread{}
	}
	if n > len(r.state.Threads) {
		n = len(r.state.Threads)
	}
	out := make([]Thread, n)
	for i := range out {
		out[i] = r.state.Threads[i].clone()
	}
	return out
}

// Len returns the number of threads.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.Threads)
}

// Snapshot returns everything a view needs in one consistent copy.
func (r *Repository) Snapshot(recent int) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Settings: Settings{APIKey: r.state.APIKey, Model: r.modelLocked()},
		Recent:   r.recentLocked(recent),
	}
	if t := r.findLocked(r.state.ActiveThreadID); t != nil {
		snap.Active = t.clone()
		snap.HasActive = true
	}
	return snap
}

func (r *Repository) findLocked(id string) *Thread {
	if id == "" {
		return nil
	}
	for i := range r.state.Threads {
		if r.state.Threads[i].ID == id {
			return &r.state.Threads[i]
		}
	}
	return nil
}
