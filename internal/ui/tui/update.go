// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/commands"
	"github.com/jeranaias/gatechat/internal/gate"
	"github.com/jeranaias/gatechat/internal/threads"
)

// Layout heights, kept in sync with view.go.
const (
	headerHeight    = 1
	inputAreaHeight = 3
	statusBarHeight = 1
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case spinner.TickMsg:
		if m.pending == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	return m.updateInputs(msg)
}

// updateInputs forwards other messages (cursor blink) to the focused input.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.screen == ScreenGate {
		m.gateInput, cmd = m.gateInput.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = m.contentWidth()
	m.viewport.Height = viewportHeight

	// border + padding + prompt
	inputWidth := m.width - 4 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.ensureRenderer(m.messageWidth())
	m.refresh()
	return m, nil
}

// contentWidth is the width left for the conversation.
func (m Model) contentWidth() int {
	w := m.width
	if sw := m.theme.SidebarWidth(); sw > 0 {
		// sidebar plus its border and padding
		w -= sw + 3
	}
	if w < 1 {
		w = 1
	}
	return w
}

// messageWidth is the wrap width inside a message block.
func (m Model) messageWidth() int {
	w := m.contentWidth() - 4
	if w < 10 {
		w = 10
	}
	return w
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.screen == ScreenGate {
		return m.handleGateKey(msg)
	}
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.panel = ""
		m.status = ""
		m.focus = FocusInput
		m.input.Focus()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusInput && m.theme.SidebarWidth() > 0 {
			m.focus = FocusSidebar
			m.input.Blur()
			m.cursor = m.activeIndex()
		} else {
			m.focus = FocusInput
			m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m.runLine("/new")

	case key.Matches(msg, m.keys.Clear):
		return m.runLine("/clear")

	case key.Matches(msg, m.keys.Export):
		return m.runLine("/export")

	case key.Matches(msg, m.keys.Help):
		return m.runLine("/help")

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleGateKey drives the password screen.
func (m Model) handleGateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Submit) {
		var cmd tea.Cmd
		m.gateInput, cmd = m.gateInput.Update(msg)
		return m, cmd
	}

	err := m.app.Gate.Submit(m.gateInput.Value())
	m.gateInput.Reset()

	switch {
	case err == nil:
		m.gateHint = ""
		m.screen = ScreenChat
		m.focus = FocusInput
		m.panel = ""
		m.cursor = 0
		m.gateInput.Blur()
		m.status, m.statusErr = "", false
		if uerr := m.app.UnlockError(); uerr != nil {
			m.setError(errors.New("chats could not be saved: " + uerr.Error()))
		}
		m.refresh()
		return m, m.input.Focus()
	case errors.Is(err, gate.ErrPasswordRequired):
		m.gateHint = gate.HintPasswordRequired
	case errors.Is(err, gate.ErrIncorrectPassword):
		m.gateHint = gate.HintIncorrectPassword
	default:
		m.gateHint = err.Error()
	}
	return m, nil
}

// handleConfirmKey drives the yes/no dialog.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.confirm.yes = true
	case key.Matches(msg, m.keys.No):
		m.confirm = nil
		m.setStatus("Cancelled.")
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		m.confirm.yes = !m.confirm.yes
		return m, nil
	case key.Matches(msg, m.keys.Submit):
	default:
		return m, nil
	}

	action, yes := m.confirm.action, m.confirm.yes
	m.confirm = nil
	if !yes {
		m.setStatus("Cancelled.")
		return m, nil
	}
	return m.applyOutcome(m.executor.Confirm(action))
}

// handleSidebarKey moves through the recent list; enter opens a chat.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	recent := m.app.Snapshot().Recent
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(recent)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Submit):
		if m.cursor < len(recent) {
			if err := m.app.Threads.SetActiveThread(recent[m.cursor].ID); err != nil {
				m.setError(err)
			}
			m.panel = ""
			m.focus = FocusInput
			m.input.Focus()
			m.cursor = 0
			m.refresh()
		}
	}
	return m, nil
}

// activeIndex is the active thread's position in the recent list.
func (m Model) activeIndex() int {
	snap := m.app.Snapshot()
	for i, t := range snap.Recent {
		if t.ID == snap.Active.ID {
			return i
		}
	}
	return 0
}

// =============================================================================
// SENDING AND COMMANDS
// =============================================================================

// submit handles enter in the message input.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	if commands.IsCommand(line) {
		m.input.Reset()
		return m.runLine(line)
	}

	if m.pending != nil {
		m.setStatus("Waiting for the previous reply...")
		return m, nil
	}

	p, err := m.app.Chat.Begin(line)
	if p == nil {
		if errors.Is(err, threads.ErrEmptyInput) {
			return m, nil
		}
		m.setError(err)
		return m, nil
	}
	m.input.Reset()
	m.panel = ""
	m.pending = p
	if err != nil {
		m.setError(errors.New("not saved to disk: " + err.Error()))
	} else {
		m.status = ""
	}
	m.refresh()

	return m, tea.Batch(m.resolveCmd(p), m.spinner.Tick)
}

// resolveCmd performs the remote call off the UI goroutine.
func (m Model) resolveCmd(p *chat.Pending) tea.Cmd {
	ctl := m.app.Chat
	return func() tea.Msg {
		msg, err := ctl.Resolve(context.Background(), p)
		return ReplyMsg{Pending: p, Message: msg, Err: err}
	}
}

// handleReply records the end of a send.
func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	if m.pending == msg.Pending {
		m.pending = nil
	}
	switch {
	case errors.Is(msg.Err, chat.ErrReplyDropped):
		m.setStatus("A reply arrived for a chat that was cleared; it was discarded.")
	case msg.Err != nil:
		m.setError(errors.New("not saved to disk: " + msg.Err.Error()))
	}
	m.refresh()
	return m, nil
}

// runLine parses and executes a slash command.
func (m Model) runLine(line string) (tea.Model, tea.Cmd) {
	return m.applyOutcome(m.executor.Run(m.parser.Parse(line)))
}

// applyOutcome shows a command result.
func (m Model) applyOutcome(out commands.Outcome) (tea.Model, tea.Cmd) {
	if out.Quit {
		return m, tea.Quit
	}
	if out.Confirm != "" {
		m.confirm = &confirmState{question: out.Confirm, action: out.Pending}
		return m, nil
	}

	m.panel = out.Markdown
	m.status, m.statusErr = out.Text, false
	if out.Err != nil {
		m.setError(out.Err)
	}

	if out.Locked {
		m.screen = ScreenGate
		m.panel = ""
		m.input.Blur()
		m.gateHint = ""
		m.gateInput.Reset()
		return m, m.gateInput.Focus()
	}

	m.refresh()
	return m, textinput.Blink
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(err error) {
	m.status, m.statusErr = err.Error(), true
}

// refresh re-renders the viewport from the current snapshot.
func (m *Model) refresh() {
	if m.panel != "" {
		m.viewport.SetContent(m.renderMarkdown(m.panel))
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderConversation(m.app.Snapshot()))
	m.viewport.GotoBottom()
}
