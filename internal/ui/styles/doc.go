// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the gatechat terminal
surfaces.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. A configured theme of "dark" or "light" pins the background
instead of detecting it.

# Color System (colors.go)

  - Purple - Assistant messages and titles
  - Cyan - Brand color, commands, the active chat
  - Emerald - Success states
  - Amber - The gate and confirmation dialogs
  - Rose - Errors and failed sends

Status helpers pair every color with an ASCII indicator so that states stay
distinguishable without color:

	styles.RenderError("Incorrect password") // "[X] Incorrect password"

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	if theme.SidebarWidth() == 0 {
		// narrow terminal: hide the recent list
	}

# Animation System (animations.go)

	frame := styles.LineSpinner.Frame(time.Since(start))
*/
package styles
