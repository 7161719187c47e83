// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/gatechat/internal/threads"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports threads as a Markdown transcript.
type MarkdownExporter struct {
	// Frontmatter adds a YAML header with metadata.
	Frontmatter bool

	// Timestamps adds per-message times to role headings.
	Timestamps bool
}

// NewMarkdownExporter creates a Markdown exporter with frontmatter and
// timestamps enabled.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{Frontmatter: true, Timestamps: true}
}

// Export converts a thread to Markdown. Empty threads are allowed.
func (e *MarkdownExporter) Export(t threads.Thread) ([]byte, error) {
	if t.ID == "" {
		return nil, fmt.Errorf("thread has no id")
	}

	var sb strings.Builder

	if e.Frontmatter {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(t.DisplayTitle()))
		fmt.Fprintf(&sb, "id: %s\n", t.ID)
		if !t.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "date: %s\n", t.CreatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(t.Messages))
		sb.WriteString("generator: gatechat\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(t.DisplayTitle()))
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "*Started %s*\n\n", formatTimestamp(t.CreatedAt))
	}

	if len(t.Messages) == 0 {
		sb.WriteString("_No messages yet._\n")
		return []byte(sb.String()), nil
	}

	for i, msg := range t.Messages {
		label := roleLabel(msg.Role)
		if e.Timestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// Markdown renders a transcript without frontmatter, for on-screen display.
func Markdown(t threads.Thread) string {
	e := &MarkdownExporter{Timestamps: true}
	if t.ID == "" {
		t.ID = "-"
	}
	out, _ := e.Export(t)
	return string(out)
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// roleLabel returns a heading label for the message role.
func roleLabel(role threads.Role) string {
	switch role {
	case threads.RoleUser:
		return "You"
	case threads.RoleAssistant:
		return "Assistant"
	case "":
		return "Unknown"
	default:
		r := []rune(string(role))
		return strings.ToUpper(string(r[0])) + string(r[1:])
	}
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// escapeYAML quotes a scalar if it contains characters YAML would interpret.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
