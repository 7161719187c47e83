// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/gatechat/internal/app"
	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/commands"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// =============================================================================
// SCREENS AND FOCUS
// =============================================================================

// Screen is the top-level view being shown.
type Screen int

const (
	ScreenGate Screen = iota // Password entry
	ScreenChat               // Threads and conversation
)

// Focus is the chat screen element receiving keys.
type Focus int

const (
	FocusInput   Focus = iota // Message input
	FocusSidebar              // Recent chats list
)

// confirmState is an open yes/no dialog.
type confirmState struct {
	question string
	action   commands.Action
	yes      bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the whole TUI.
type Model struct {
	app   *app.App
	theme *styles.Theme
	keys  KeyMap

	parser   *commands.Parser
	executor *commands.Executor

	screen Screen
	focus  Focus

	// Dimensions
	width  int
	height int

	// UI Components
	gateInput textinput.Model
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model

	// Markdown rendering, nil when disabled
	markdown      bool
	renderer      *glamour.TermRenderer
	rendererWidth int

	// Gate feedback
	gateHint string

	// Recent list cursor
	cursor int

	// In-flight send, nil when idle
	pending *chat.Pending

	// Status line
	status    string
	statusErr bool

	// Markdown panel (help, settings, transcript) shown over the thread
	panel string

	confirm *confirmState
}

// New creates the TUI model for a.
func New(a *app.App) Model {
	registry := commands.NewRegistry()

	gateInput := textinput.New()
	gateInput.Placeholder = "password"
	gateInput.EchoMode = textinput.EchoPassword
	gateInput.EchoCharacter = '•'
	gateInput.Prompt = "> "
	gateInput.Width = 40
	gateInput.Focus()

	input := textinput.New()
	input.Placeholder = "Message, or /help"
	input.Prompt = "> "
	input.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}

	theme := styles.NewTheme(a.Config.UI.Theme)
	sp.Style = theme.Spinner

	m := Model{
		app:       a,
		theme:     theme,
		keys:      DefaultKeyMap(),
		parser:    commands.NewParser(registry),
		executor:  commands.NewExecutor(a, registry),
		screen:    ScreenGate,
		gateInput: gateInput,
		input:     input,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		markdown:  a.Config.UI.Markdown,
	}
	if a.Unlocked() {
		m.screen = ScreenChat
		m.input.Focus()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Screen returns the screen being shown.
func (m Model) Screen() Screen {
	return m.screen
}

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// GateHint returns the hint under the password field.
func (m Model) GateHint() string {
	return m.gateHint
}

// Waiting reports whether a reply is pending.
func (m Model) Waiting() bool {
	return m.pending != nil
}

// =============================================================================
// MARKDOWN
// =============================================================================

// ensureRenderer rebuilds the glamour renderer when the width changes.
func (m *Model) ensureRenderer(width int) {
	if !m.markdown || width <= 0 || (m.renderer != nil && m.rendererWidth == width) {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.markdown = false
		m.renderer = nil
		return
	}
	m.renderer = r
	m.rendererWidth = width
}

// renderMarkdown renders content, falling back to the raw text.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
