// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package tui implements the full-screen gatechat interface on Bubble Tea.

The model has two screens. The gate screen asks for the password (or a new
one on first run). The chat screen shows the recent chats beside the active
conversation, with a message input and a status bar underneath.

# Key Types

  - Model - the tea.Model for the whole program
  - KeyMap - key bindings, see DefaultKeyMap
  - ReplyMsg - delivered when a remote completion finishes

Sends run in a tea.Cmd so the screen stays responsive while a reply is
pending. Only one send is in flight at a time; switching, creating and
clearing chats stay available while it runs. A reply always lands in the
chat it was sent from.

Slash commands go through the same commands.Executor as the line-oriented
REPL. Destructive commands open a yes/no dialog before they run.

# Usage

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(tui.New(a), tea.WithAltScreen())
	_, err = p.Run()
*/
package tui
