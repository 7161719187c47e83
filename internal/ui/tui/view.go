// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/cloud"
	"github.com/jeranaias/gatechat/internal/threads"
	"github.com/jeranaias/gatechat/internal/ui/styles"
	"github.com/jeranaias/gatechat/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.screen == ScreenGate {
		return m.renderGate()
	}

	body := m.viewport.View()
	if sw := m.theme.SidebarWidth(); sw > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(sw), body)
	}
	if m.confirm != nil {
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.renderConfirm())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// GATE
// =============================================================================

func (m Model) renderGate() string {
	var sb strings.Builder
	sb.WriteString(m.theme.GateTitle.Render("gatechat"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.GatePrompt.Render(m.app.Gate.Prompt()))
	sb.WriteString("\n\n")
	sb.WriteString(m.gateInput.View())
	sb.WriteString("\n")
	if m.gateHint != "" {
		sb.WriteString(m.theme.GateHint.Render(styles.StatusIndicators.Error + " " + m.gateHint))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.ShortcutDesc.Render("enter to continue, ctrl+c to quit"))

	box := m.theme.GateBox.Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	snap := m.app.Snapshot()

	title := m.theme.HeaderTitle.Render("gatechat")
	if snap.HasActive {
		title += m.theme.HeaderSubtitle.Render("  " + util.TruncateWidth(util.SingleLine(snap.Active.DisplayTitle()), m.width/2))
	}
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).Render(title)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar(width int) string {
	snap := m.app.Snapshot()

	var sb strings.Builder
	sb.WriteString(m.theme.SidebarTitle.Render("Recent"))
	sb.WriteString("\n")

	if len(snap.Recent) == 0 {
		sb.WriteString(m.theme.SidebarMeta.Render("No chats yet"))
	}
	for i, t := range snap.Recent {
		name := util.TruncateWidth(util.SingleLine(t.DisplayTitle()), width-2)
		style := m.theme.SidebarItem
		if t.ID == snap.Active.ID {
			style = m.theme.SidebarItemActive
		}
		marker := "  "
		if m.focus == FocusSidebar && i == m.cursor {
			marker = "> "
		}
		sb.WriteString(marker + style.Render(name))
		sb.WriteString("\n  ")
		sb.WriteString(m.theme.SidebarMeta.Render(t.CreatedAt.Local().Format("2006-01-02")))
		sb.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(width).
		Height(m.viewport.Height).
		MaxHeight(m.viewport.Height).
		Render(sb.String())
}

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation renders the active thread from a snapshot.
func (m Model) renderConversation(snap threads.Snapshot) string {
	if !snap.HasActive || len(snap.Active.Messages) == 0 {
		hint := "Say something to start. Type /help for commands."
		if snap.Settings.APIKey == "" {
			hint += "\nNo API key set. Add one with /key <api-key>."
		}
		return m.theme.EmptyThread.Render(hint)
	}

	width := m.messageWidth()
	var sb strings.Builder
	for _, msg := range snap.Active.Messages {
		sb.WriteString(m.renderMessage(msg, width))
		sb.WriteString("\n\n")
	}

	if m.pending != nil && m.pending.ThreadID == snap.Active.ID {
		sb.WriteString(m.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(m.theme.ThinkingText.Render("Thinking..."))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderMessage(msg threads.Message, width int) string {
	stamp := m.theme.Timestamp.Render(" " + msg.Timestamp.Local().Format("15:04"))

	if msg.Role == threads.RoleUser {
		label := m.theme.UserLabel.Render("You") + stamp
		return label + "\n" + m.theme.UserMessage.Width(width).Render(msg.Content)
	}

	label := m.theme.AssistantLabel.Render("Assistant") + stamp
	if strings.HasPrefix(msg.Content, chat.ErrorPrefix) {
		return label + "\n" + m.theme.ErrorMessage.Width(width).Render(msg.Content)
	}
	return label + "\n" + m.theme.AssistantMessage.Render(m.renderMarkdown(msg.Content))
}

// =============================================================================
// INPUT, STATUS, DIALOG
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	s := m.app.Threads.Settings()
	key := "no key"
	if s.APIKey != "" {
		key = "key " + cloud.MaskKey(s.APIKey)
	}
	right := m.theme.StatusText.Render(fmt.Sprintf("%s | %s", s.Model, key))
	if m.pending != nil {
		right = m.spinner.View() + " " + right
	}

	// padding plus one space before the right side
	room := m.width - 3 - lipgloss.Width(right)

	var left string
	switch {
	case m.status != "" && m.statusErr:
		left = m.theme.ErrorStyle.Render(util.TruncateWidth(styles.StatusIndicators.Error+" "+m.status, room))
	case m.status != "":
		left = m.theme.StatusText.Render(util.TruncateWidth(m.status, room))
	default:
		for _, b := range m.keys.ShortHelp() {
			h := b.Help()
			part := m.theme.ShortcutKey.Render(h.Key) + " " + m.theme.ShortcutDesc.Render(h.Desc)
			if left != "" {
				part = "  " + part
			}
			if lipgloss.Width(left)+lipgloss.Width(part) > room {
				break
			}
			left += part
		}
	}

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusBarHeight).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderConfirm() string {
	yes, no := m.theme.DialogButton, m.theme.DialogButtonActive
	if m.confirm.yes {
		yes, no = no, yes
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yes.Render("Yes"), "  ", no.Render("No"))
	return m.theme.DialogBox.Render(
		m.theme.DialogTitle.Render(m.confirm.question) + "\n" + buttons,
	)
}
