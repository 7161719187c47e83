// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gatechat/internal/cloud"
	"github.com/jeranaias/gatechat/internal/storage"
	"github.com/jeranaias/gatechat/internal/threads"
)

// fakeCompleter answers with a fixed reply and runs during() mid-call.
type fakeCompleter struct {
	reply  string
	err    error
	during func()
	calls  int
	last   []cloud.ChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, apiKey, model string, messages []cloud.ChatMessage) (string, error) {
	f.calls++
	f.last = messages
	if f.during != nil {
		f.during()
	}
	if apiKey == "" {
		return "", cloud.ErrMissingCredential
	}
	return f.reply, f.err
}

func setup(t *testing.T, apiKey string) (*threads.Repository, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	repo := threads.New(store, zerolog.Nop())
	repo.Hydrate()
	if apiKey != "" {
		require.NoError(t, repo.SetSettings(apiKey, ""))
	}
	_, err := repo.EnsureActiveThread()
	require.NoError(t, err)
	return repo, store
}

func TestSend_Success(t *testing.T) {
	repo, _ := setup(t, "sk-1")
	fake := &fakeCompleter{reply: "Hi!"}
	ctl := NewController(repo, fake, zerolog.Nop())

	msg, err := ctl.Send(context.Background(), "  Hello world  ")
	require.NoError(t, err)
	assert.Equal(t, threads.RoleAssistant, msg.Role)
	assert.Equal(t, "Hi!", msg.Content)

	active, _ := repo.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "Hello world", active.Messages[0].Content)
	assert.Equal(t, "Hello world", active.Title)
	assert.Equal(t, []cloud.ChatMessage{{Role: "user", Content: "Hello world"}}, fake.last)
}

func TestSend_EmptyInputIsNoop(t *testing.T) {
	repo, store := setup(t, "sk-1")
	fake := &fakeCompleter{reply: "x"}
	ctl := NewController(repo, fake, zerolog.Nop())
	writes := store.Writes()

	_, err := ctl.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, threads.ErrEmptyInput)
	assert.Equal(t, 0, fake.calls)
	assert.Equal(t, writes, store.Writes())

	active, _ := repo.Active()
	assert.Empty(t, active.Messages)
}

func TestSend_MissingCredential(t *testing.T) {
	repo, _ := setup(t, "")

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	ctl := NewController(repo, cloud.NewClient(cloud.WithBaseURL(server.URL)), zerolog.Nop())
	_, err := ctl.Send(context.Background(), "Hello")
	require.NoError(t, err)

	active, _ := repo.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, threads.RoleUser, active.Messages[0].Role)
	assert.Equal(t, threads.RoleAssistant, active.Messages[1].Role)
	assert.Equal(t, "⚠️ No API key set. Add one in Settings.", active.Messages[1].Content)
	assert.Equal(t, int32(0), hits.Load())
}

func TestSend_RemoteError(t *testing.T) {
	repo, _ := setup(t, "sk-bad")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid key"))
	}))
	defer server.Close()

	ctl := NewController(repo, cloud.NewClient(cloud.WithBaseURL(server.URL)), zerolog.Nop())
	msg, err := ctl.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "⚠️ API error 401: invalid key", msg.Content)

	active, _ := repo.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "⚠️ API error 401: invalid key", active.Messages[1].Content)
}

func TestBegin_PersistsBeforeCall(t *testing.T) {
	repo, store := setup(t, "sk-1")

	var seen string
	fake := &fakeCompleter{reply: "ok", during: func() {
		seen, _ = store.Get(threads.StateKey)
	}}
	ctl := NewController(repo, fake, zerolog.Nop())

	_, err := ctl.Send(context.Background(), "persist me first")
	require.NoError(t, err)
	assert.Contains(t, seen, "persist me first")
	assert.NotContains(t, seen, `"assistant"`)
}

func TestFinish_TargetsSendTimeThread(t *testing.T) {
	repo, _ := setup(t, "sk-1")
	origin, _ := repo.Active()

	fake := &fakeCompleter{reply: "late answer", during: func() {
		_, err := repo.CreateThread()
		require.NoError(t, err)
	}}
	ctl := NewController(repo, fake, zerolog.Nop())

	_, err := ctl.Send(context.Background(), "question")
	require.NoError(t, err)

	now, _ := repo.Active()
	assert.NotEqual(t, origin.ID, now.ID)
	assert.Empty(t, now.Messages)

	got, ok := repo.Thread(origin.ID)
	require.True(t, ok)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "late answer", got.Messages[1].Content)
}

func TestFinish_DropsReplyForClearedThread(t *testing.T) {
	repo, _ := setup(t, "sk-1")
	fake := &fakeCompleter{reply: "orphan", during: func() {
		require.NoError(t, repo.ClearActiveThread())
	}}
	ctl := NewController(repo, fake, zerolog.Nop())

	_, err := ctl.Send(context.Background(), "question")
	assert.ErrorIs(t, err, ErrReplyDropped)

	active, _ := repo.Active()
	assert.Empty(t, active.Messages)
	assert.Equal(t, threads.DefaultTitle, active.Title)
}

func TestBeginFinish_Split(t *testing.T) {
	repo, _ := setup(t, "sk-1")
	ctl := NewController(repo, nil, zerolog.Nop())

	first, err := ctl.Begin("one")
	require.NoError(t, err)
	_, err = ctl.Finish(first, "reply one", nil)
	require.NoError(t, err)

	second, err := ctl.Begin("two")
	require.NoError(t, err)
	assert.Equal(t, "sk-1", second.APIKey)
	assert.Equal(t, threads.DefaultModel, second.Model)
	assert.Equal(t, []cloud.ChatMessage{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "reply one"},
		{Role: "user", Content: "two"},
	}, second.History)

	_, err = ctl.Finish(second, "", &cloud.RemoteError{Status: 500, Body: "down"})
	require.NoError(t, err)

	active, _ := repo.Active()
	require.Len(t, active.Messages, 4)
	assert.Equal(t, "⚠️ API error 500: down", active.Messages[3].Content)
}

func TestBegin_CreatesThreadWhenNoneActive(t *testing.T) {
	store := storage.NewMemoryStore()
	repo := threads.New(store, zerolog.Nop())
	repo.Hydrate()
	ctl := NewController(repo, nil, zerolog.Nop())

	p, err := ctl.Begin("hi")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ThreadID)
	assert.Equal(t, p.ThreadID, repo.ActiveID())
}

func TestSend_StorageFailureKeepsConversation(t *testing.T) {
	repo, store := setup(t, "sk-1")
	store.FailWrites(true)

	ctl := NewController(repo, &fakeCompleter{reply: "still here"}, zerolog.Nop())
	msg, err := ctl.Send(context.Background(), "Hello")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, "still here", msg.Content)

	active, _ := repo.Active()
	assert.Len(t, active.Messages, 2)
}

func TestResolve_FromGoroutine(t *testing.T) {
	repo, _ := setup(t, "sk-1")
	fake := &fakeCompleter{reply: "later"}
	ctl := NewController(repo, fake, zerolog.Nop())

	p, err := ctl.Begin("question")
	require.NoError(t, err)

	done := make(chan threads.Message)
	go func() {
		msg, err := ctl.Resolve(context.Background(), p)
		assert.NoError(t, err)
		done <- msg
	}()
	msg := <-done

	assert.Equal(t, "later", msg.Content)
	assert.Equal(t, 1, fake.calls)
	active, _ := repo.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, threads.RoleAssistant, active.Messages[1].Role)
}
