// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// Renderer turns Markdown into terminal output. A Renderer without glamour
// returns its input unchanged.
type Renderer struct {
	md *glamour.TermRenderer
}

// NewRenderer builds a Renderer. When enabled is false, or glamour cannot be
// initialised, content is printed as-is. theme is a styles theme name.
func NewRenderer(enabled bool, theme string, width int) *Renderer {
	if !enabled || !ColorsEnabled() {
		return &Renderer{}
	}
	if width <= 0 || width > MaxRenderWidth {
		width = MaxRenderWidth
	}

	style := glamour.WithAutoStyle()
	switch theme {
	case styles.ThemeDark, styles.ThemeLight:
		style = glamour.WithStandardStyle(theme)
	}

	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{md: md}
}

// Enabled reports whether Markdown is rendered.
func (r *Renderer) Enabled() bool {
	return r != nil && r.md != nil
}

// Render renders content. It falls back to the raw text on error.
func (r *Renderer) Render(content string) string {
	if !r.Enabled() {
		return strings.TrimRight(content, "\n")
	}
	out, err := r.md.Render(content)
	if err != nil {
		return strings.TrimRight(content, "\n")
	}
	return strings.Trim(out, "\n")
}
