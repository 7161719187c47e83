// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package threads

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gatechat/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestRepo(t *testing.T, store storage.Store) *Repository {
	t.Helper()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	seq := 0
	return New(store, zerolog.Nop(),
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("t-%03d", seq)
		}),
	)
}

func persisted(t *testing.T, store storage.Store) State {
	t.Helper()
	raw, ok := store.Get(StateKey)
	require.True(t, ok, "state should be persisted")
	var s State
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return s
}

// =============================================================================
// HYDRATE
// =============================================================================

func TestHydrate_Empty(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()

	assert.Equal(t, Settings{Model: DefaultModel}, repo.Settings())
	assert.Equal(t, 0, repo.Len())
	assert.Empty(t, repo.ActiveID())
}

func TestHydrate_MalformedJSON(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(StateKey, "{not json"))

	repo := newTestRepo(t, store)
	repo.Hydrate()

	assert.Equal(t, DefaultModel, repo.Settings().Model)
	assert.Equal(t, 0, repo.Len())
}

func TestHydrate_AbsentFieldsDefault(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(StateKey, `{"apiKey":"sk-1"}`))

	repo := newTestRepo(t, store)
	repo.Hydrate()

	s := repo.Settings()
	assert.Equal(t, "sk-1", s.APIKey)
	assert.Equal(t, DefaultModel, s.Model)
	assert.Equal(t, 0, repo.Len())
}

func TestHydrate_DropsDuplicateAndEmptyIDs(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(StateKey, `{"threads":[
		{"id":"a","title":"one","messages":[]},
		{"id":"","title":"blank"},
		{"id":"a","title":"dup"},
		{"id":"b"}
	]}`))

	repo := newTestRepo(t, store)
	repo.Hydrate()

	recent := repo.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "one", recent[0].Title)
	assert.Equal(t, "b", recent[1].ID)
	assert.Equal(t, DefaultTitle, recent[1].Title)
	assert.NotNil(t, recent[1].Messages)
}

func TestHydrate_RoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	repo := newTestRepo(t, store)
	repo.Hydrate()

	require.NoError(t, repo.SetSettings("sk-abc", "gpt-4o"))
	_, err := repo.EnsureActiveThread()
	require.NoError(t, err)
	_, err = repo.AppendMessage(RoleUser, "Hello world")
	require.NoError(t, err)
	_, err = repo.AppendMessage(RoleAssistant, "Hi")
	require.NoError(t, err)

	before := repo.Snapshot(3)

	reloaded := newTestRepo(t, store)
	reloaded.Hydrate()
	after := reloaded.Snapshot(3)

	assert.Equal(t, before.Settings, after.Settings)
	assert.Equal(t, before.Active.ID, after.Active.ID)
	assert.Equal(t, before.Active.Title, after.Active.Title)
	require.Len(t, after.Active.Messages, 2)
	for i := range before.Active.Messages {
		assert.Equal(t, before.Active.Messages[i].Role, after.Active.Messages[i].Role)
		assert.Equal(t, before.Active.Messages[i].Content, after.Active.Messages[i].Content)
		assert.True(t, before.Active.Messages[i].Timestamp.Equal(after.Active.Messages[i].Timestamp))
	}
}

// =============================================================================
// THREAD LIFECYCLE
// =============================================================================

func TestEnsureActiveThread_Idempotent(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()

	first, err := repo.EnsureActiveThread()
	require.NoError(t, err)
	second, err := repo.EnsureActiveThread()
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, DefaultTitle, first.Title)
}

func TestEnsureActiveThread_DanglingPointer(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(StateKey, `{"threads":[{"id":"x"}],"activeThreadId":"gone"}`))

	repo := newTestRepo(t, store)
	repo.Hydrate()

	active, err := repo.EnsureActiveThread()
	require.NoError(t, err)
	assert.NotEqual(t, "gone", active.ID)
	assert.Equal(t, 2, repo.Len())
	assert.Equal(t, active.ID, repo.Recent(1)[0].ID)
}

func TestCreateThread_PrependsAndActivates(t *testing.T) {
	store := storage.NewMemoryStore()
	repo := newTestRepo(t, store)
	repo.Hydrate()

	a, err := repo.CreateThread()
	require.NoError(t, err)
	b, err := repo.CreateThread()
	require.NoError(t, err)

	recent := repo.Recent(5)
	require.Len(t, recent, 2)
	assert.Equal(t, b.ID, recent[0].ID)
	assert.Equal(t, a.ID, recent[1].ID)
	assert.Equal(t, b.ID, repo.ActiveID())
	assert.Equal(t, b.ID, persisted(t, store).ActiveThreadID)
}

func TestSetActiveThread(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()

	a, _ := repo.CreateThread()
	_, _ = repo.CreateThread()

	require.NoError(t, repo.SetActiveThread(a.ID))
	assert.Equal(t, a.ID, repo.ActiveID())

	err := repo.SetActiveThread("missing")
	assert.ErrorIs(t, err, ErrThreadNotFound)
	assert.Equal(t, a.ID, repo.ActiveID())
}

func TestClearActiveThread(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()

	assert.ErrorIs(t, repo.ClearActiveThread(), ErrNoActiveThread)

	_, err := repo.EnsureActiveThread()
	require.NoError(t, err)
	_, err = repo.AppendMessage(RoleUser, "Hello")
	require.NoError(t, err)

	require.NoError(t, repo.ClearActiveThread())

	active, ok := repo.Active()
	require.True(t, ok)
	assert.Empty(t, active.Messages)
	assert.Equal(t, DefaultTitle, active.Title)
}

// =============================================================================
// MESSAGES
// =============================================================================

func TestAppendMessage_DerivesTitle(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()
	_, err := repo.EnsureActiveThread()
	require.NoError(t, err)

	_, err = repo.AppendMessage(RoleUser, "Hello world")
	require.NoError(t, err)
	_, err = repo.AppendMessage(RoleUser, "Second message")
	require.NoError(t, err)

	active, _ := repo.Active()
	assert.Equal(t, "Hello world", active.Title)
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "Second message", active.Messages[1].Content)
}

func TestAppendMessage_TitleTruncatedByRunes(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()
	_, _ = repo.EnsureActiveThread()

	long := strings.Repeat("é", 80)
	_, err := repo.AppendMessage(RoleUser, long)
	require.NoError(t, err)

	active, _ := repo.Active()
	assert.Equal(t, strings.Repeat("é", MaxTitleRunes), active.Title)
}

func TestAppendMessage_AssistantDoesNotSetTitle(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()
	_, _ = repo.EnsureActiveThread()

	_, err := repo.AppendMessage(RoleAssistant, "I speak first")
	require.NoError(t, err)

	active, _ := repo.Active()
	assert.Equal(t, DefaultTitle, active.Title)
}

func TestAppendMessage_Validation(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()

	_, err := repo.AppendMessage(RoleUser, "hi")
	assert.ErrorIs(t, err, ErrNoActiveThread)

	_, _ = repo.EnsureActiveThread()

	_, err = repo.AppendMessage(RoleUser, "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = repo.AppendMessage(Role("system"), "hi")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = repo.AppendTo("missing", RoleAssistant, "hi")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestAppendTo_InactiveThread(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()

	a, _ := repo.CreateThread()
	b, _ := repo.CreateThread()

	_, err := repo.AppendTo(a.ID, RoleAssistant, "late reply")
	require.NoError(t, err)

	got, ok := repo.Thread(a.ID)
	require.True(t, ok)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "late reply", got.Messages[0].Content)

	active, _ := repo.Active()
	assert.Equal(t, b.ID, active.ID)
	assert.Empty(t, active.Messages)
}

func TestAppendMessage_TimestampsNonDecreasing(t *testing.T) {
	repo := New(storage.NewMemoryStore(), zerolog.Nop())
	repo.Hydrate()
	_, _ = repo.EnsureActiveThread()

	for i := 0; i < 5; i++ {
		_, err := repo.AppendMessage(RoleUser, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	active, _ := repo.Active()
	for i := 1; i < len(active.Messages); i++ {
		assert.False(t, active.Messages[i].Timestamp.Before(active.Messages[i-1].Timestamp))
	}
}

// =============================================================================
// QUERIES
// =============================================================================

func TestRecent(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()

	var created []Thread
	for i := 0; i < 100; i++ {
		th, err := repo.CreateThread()
		require.NoError(t, err)
		created = append(created, th)
	}

	recent := repo.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, created[99].ID, recent[0].ID)
	assert.Equal(t, created[98].ID, recent[1].ID)
	assert.Equal(t, created[97].ID, recent[2].ID)

	assert.Empty(t, repo.Recent(0))
	assert.Len(t, repo.Recent(500), 100)
}

func TestReturnedThreadsAreCopies(t *testing.T) {
	repo := newTestRepo(t, storage.NewMemoryStore())
	repo.Hydrate()
	_, _ = repo.EnsureActiveThread()
	_, _ = repo.AppendMessage(RoleUser, "original")

	active, _ := repo.Active()
	active.Messages[0].Content = "mutated"
	active.Title = "mutated"

	again, _ := repo.Active()
	assert.Equal(t, "original", again.Messages[0].Content)
	assert.Equal(t, "original", again.Title)
}

// =============================================================================
// SETTINGS / PERSISTENCE
// =============================================================================

func TestSetSettings(t *testing.T) {
	store := storage.NewMemoryStore()
	repo := newTestRepo(t, store)
	repo.Hydrate()

	require.NoError(t, repo.SetSettings("  sk-key  ", "  "))
	assert.Equal(t, Settings{APIKey: "sk-key", Model: DefaultModel}, repo.Settings())
	assert.Equal(t, "sk-key", persisted(t, store).APIKey)
}

func TestPersistFailure_KeepsMemory(t *testing.T) {
	store := storage.NewMemoryStore()
	repo := newTestRepo(t, store)
	repo.Hydrate()
	_, err := repo.EnsureActiveThread()
	require.NoError(t, err)

	store.FailWrites(true)

	_, err = repo.AppendMessage(RoleUser, "kept in memory")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	active, _ := repo.Active()
	require.Len(t, active.Messages, 1)
	assert.Equal(t, "kept in memory", active.Messages[0].Content)
	assert.Empty(t, persisted(t, store).Threads[0].Messages)

	store.FailWrites(false)
	require.NoError(t, repo.Persist())
	assert.Len(t, persisted(t, store).Threads[0].Messages, 1)
}

func TestDefaultModelOption(t *testing.T) {
	repo := New(storage.NewMemoryStore(), zerolog.Nop(), WithDefaultModel("llama3"))
	repo.Hydrate()
	assert.Equal(t, "llama3", repo.Settings().Model)
}
