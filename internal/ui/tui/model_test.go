// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gatechat/internal/app"
	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/cloud"
	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/gate"
	"github.com/jeranaias/gatechat/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

type replyFunc func(messages []cloud.ChatMessage) (string, error)

func (f replyFunc) Complete(_ context.Context, _, _ string, messages []cloud.ChatMessage) (string, error) {
	return f(messages)
}

func echoReply(messages []cloud.ChatMessage) (string, error) {
	return "echo: " + messages[len(messages)-1].Content, nil
}

func newTestApp(t *testing.T, store storage.Store, reply replyFunc) *app.App {
	t.Helper()
	if reply == nil {
		reply = echoReply
	}
	cfg := config.Default()
	cfg.UI.Markdown = false
	cfg.UI.Theme = "dark"

	a, err := app.New(cfg,
		app.WithStore(store),
		app.WithLogger(zerolog.Nop()),
		app.WithCompleter(reply),
	)
	require.NoError(t, err)
	return a
}

// unlockedModel returns a sized model past the gate.
func unlockedModel(t *testing.T, reply replyFunc) (Model, *app.App) {
	t.Helper()
	a := newTestApp(t, storage.NewMemoryStore(), reply)
	require.NoError(t, a.Gate.Submit("secret"))

	m := New(a)
	require.Equal(t, ScreenChat, m.Screen())
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, a
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, s string) Model {
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(m Model, t tea.KeyType) (Model, tea.Cmd) {
	return update(m, tea.KeyMsg{Type: t})
}

func pressRune(m Model, r rune) (Model, tea.Cmd) {
	return update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// replies runs cmd and returns any ReplyMsg it produces.
func replies(cmd tea.Cmd) []ReplyMsg {
	if cmd == nil {
		return nil
	}
	var out []ReplyMsg
	switch msg := cmd().(type) {
	case ReplyMsg:
		out = append(out, msg)
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, replies(c)...)
		}
	}
	return out
}

// deliver feeds the replies produced by cmd back into m.
func deliver(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	msgs := replies(cmd)
	require.NotEmpty(t, msgs, "expected a reply command")
	for _, r := range msgs {
		m, _ = update(m, r)
	}
	return m
}

// =============================================================================
// GATE SCREEN
// =============================================================================

func TestGate_CreatesPassword(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryStore(), nil)
	m := New(a)
	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, ScreenGate, m.Screen())
	assert.Contains(t, m.View(), "Create a simple")

	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, ScreenGate, m.Screen())
	assert.Equal(t, gate.HintPasswordRequired, m.GateHint())

	m = typeText(m, "secret")
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, ScreenChat, m.Screen())
	assert.Empty(t, m.GateHint())
	assert.True(t, a.Unlocked())
}

func TestGate_IncorrectPassword(t *testing.T) {
	store := storage.NewMemoryStore()
	setup := newTestApp(t, store, nil)
	require.NoError(t, setup.Gate.Submit("secret"))

	a := newTestApp(t, store, nil)
	m := New(a)
	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, m.View(), "Enter your password")

	m = typeText(m, "wrong")
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, ScreenGate, m.Screen())
	assert.Equal(t, gate.HintIncorrectPassword, m.GateHint())

	m = typeText(m, "secret")
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, ScreenChat, m.Screen())
}

func TestGate_PasswordNotEchoed(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryStore(), nil)
	m := New(a)
	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m = typeText(m, "hunter2")
	assert.NotContains(t, m.View(), "hunter2")
}

func TestQuit(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryStore(), nil)
	m := New(a)

	_, cmd := press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

// =============================================================================
// SENDING
// =============================================================================

func TestSend_AppendsReply(t *testing.T) {
	m, a := unlockedModel(t, nil)

	m = typeText(m, "hello")
	m, cmd := press(m, tea.KeyEnter)
	assert.True(t, m.Waiting())

	active, ok := a.Threads.Active()
	require.True(t, ok)
	require.Len(t, active.Messages, 1)

	m = deliver(t, m, cmd)
	assert.False(t, m.Waiting())

	active, _ = a.Threads.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "echo: hello", active.Messages[1].Content)

	view := m.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "echo: hello")
}

func TestSend_EmptyInputIgnored(t *testing.T) {
	m, a := unlockedModel(t, nil)

	m = typeText(m, "   ")
	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.False(t, m.Waiting())

	active, _ := a.Threads.Active()
	assert.Empty(t, active.Messages)
}

func TestSend_OneAtATime(t *testing.T) {
	m, a := unlockedModel(t, nil)

	m = typeText(m, "first")
	m, cmd := press(m, tea.KeyEnter)

	m = typeText(m, "second")
	m, second := press(m, tea.KeyEnter)
	assert.Nil(t, second)

	status, isErr := m.Status()
	assert.Equal(t, "Waiting for the previous reply...", status)
	assert.False(t, isErr)

	active, _ := a.Threads.Active()
	assert.Len(t, active.Messages, 1)

	m = deliver(t, m, cmd)
	active, _ = a.Threads.Active()
	assert.Len(t, active.Messages, 2)
}

func TestSend_RemoteErrorRecorded(t *testing.T) {
	m, a := unlockedModel(t, func([]cloud.ChatMessage) (string, error) {
		return "", errors.New("HTTP 500: boom")
	})

	m = typeText(m, "hi")
	m, cmd := press(m, tea.KeyEnter)
	m = deliver(t, m, cmd)

	active, _ := a.Threads.Active()
	require.Len(t, active.Messages, 2)
	assert.True(t, strings.HasPrefix(active.Messages[1].Content, chat.ErrorPrefix))
	assert.Contains(t, m.View(), "boom")
}

func TestSend_ReplyFollowsOriginThread(t *testing.T) {
	m, a := unlockedModel(t, nil)

	m = typeText(m, "question")
	m, send := press(m, tea.KeyEnter)
	origin := a.Threads.ActiveID()

	m, _ = press(m, tea.KeyCtrlN)
	require.NotEqual(t, origin, a.Threads.ActiveID())

	m = deliver(t, m, send)
	assert.False(t, m.Waiting())

	thread, ok := a.Threads.Thread(origin)
	require.True(t, ok)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "echo: question", thread.Messages[1].Content)

	current, _ := a.Threads.Active()
	assert.Empty(t, current.Messages)
}

func TestSend_ReplyDroppedAfterClear(t *testing.T) {
	m, a := unlockedModel(t, nil)

	m = typeText(m, "hello")
	m, cmd := press(m, tea.KeyEnter)

	m, _ = press(m, tea.KeyCtrlL)
	m, _ = pressRune(m, 'y')

	m = deliver(t, m, cmd)
	status, _ := m.Status()
	assert.Contains(t, status, "discarded")

	active, _ := a.Threads.Active()
	assert.Empty(t, active.Messages)
}

// =============================================================================
// COMMANDS AND DIALOGS
// =============================================================================

func TestCommand_HelpPanel(t *testing.T) {
	m, _ := unlockedModel(t, nil)

	m = typeText(m, "/help")
	m, _ = press(m, tea.KeyEnter)
	assert.Contains(t, m.View(), "Chats")

	m, _ = press(m, tea.KeyEsc)
	assert.NotContains(t, m.View(), "Anything that doesn't start with")
}

func TestCommand_UnknownShowsError(t *testing.T) {
	m, _ := unlockedModel(t, nil)

	m = typeText(m, "/bogus")
	m, _ = press(m, tea.KeyEnter)

	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.NotEmpty(t, status)
}

func TestCommand_QuitExits(t *testing.T) {
	m, _ := unlockedModel(t, nil)

	m = typeText(m, "/quit")
	_, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestConfirm_ClearCancelled(t *testing.T) {
	m, a := unlockedModel(t, nil)
	_, err := a.Chat.Send(context.Background(), "keep me")
	require.NoError(t, err)

	m, _ = press(m, tea.KeyCtrlL)
	assert.Contains(t, m.View(), "Yes")

	m, _ = pressRune(m, 'n')
	status, _ := m.Status()
	assert.Equal(t, "Cancelled.", status)

	active, _ := a.Threads.Active()
	assert.Len(t, active.Messages, 2)
}

func TestConfirm_ToggleThenEnter(t *testing.T) {
	m, a := unlockedModel(t, nil)
	_, err := a.Chat.Send(context.Background(), "drop me")
	require.NoError(t, err)

	m, _ = press(m, tea.KeyCtrlL)
	m, _ = press(m, tea.KeyRight)
	m, _ = press(m, tea.KeyEnter)

	status, _ := m.Status()
	assert.Equal(t, "Chat cleared.", status)
	active, _ := a.Threads.Active()
	assert.Empty(t, active.Messages)
}

func TestConfirm_ResetPasswordLocks(t *testing.T) {
	m, a := unlockedModel(t, nil)

	m = typeText(m, "/reset-password")
	m, _ = press(m, tea.KeyEnter)
	m, _ = pressRune(m, 'y')

	assert.Equal(t, ScreenGate, m.Screen())
	assert.Equal(t, gate.LockedUnset, a.Gate.State())

	m = typeText(m, "fresh")
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, ScreenChat, m.Screen())
}

// =============================================================================
// SIDEBAR
// =============================================================================

func TestSidebar_OpensThread(t *testing.T) {
	m, a := unlockedModel(t, nil)
	_, err := a.Chat.Send(context.Background(), "older chat")
	require.NoError(t, err)
	_, err = a.Threads.CreateThread()
	require.NoError(t, err)
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	recent := a.Snapshot().Recent
	require.Len(t, recent, 2)
	require.Equal(t, recent[0].ID, a.Threads.ActiveID())

	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyEnter)

	assert.Equal(t, recent[1].ID, a.Threads.ActiveID())
	assert.Contains(t, m.View(), "older chat")
}

func TestSidebar_HiddenWhenNarrow(t *testing.T) {
	m, a := unlockedModel(t, nil)
	_, err := a.Threads.CreateThread()
	require.NoError(t, err)
	before := a.Threads.ActiveID()

	m, _ = update(m, tea.WindowSizeMsg{Width: 50, Height: 20})
	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyDown)
	_, _ = press(m, tea.KeyEnter)

	assert.Equal(t, before, a.Threads.ActiveID())
	assert.NotContains(t, m.View(), "Recent")
}

// =============================================================================
// VIEW
// =============================================================================

func TestView_BeforeSize(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryStore(), nil)
	assert.Equal(t, "Loading...", New(a).View())
}

func TestView_EmptyThreadHint(t *testing.T) {
	m, _ := unlockedModel(t, nil)
	view := m.View()
	assert.Contains(t, view, "Say something to start")
	assert.Contains(t, view, "No API key set")
}

func TestView_StatusBarShowsModel(t *testing.T) {
	m, a := unlockedModel(t, nil)
	require.NoError(t, a.Threads.SetSettings("sk-test-1234567890", "gpt-4o"))
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	assert.Contains(t, view, "gpt-4o")
	assert.NotContains(t, view, "sk-test-1234567890")
}
