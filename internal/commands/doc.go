// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the line-oriented REPL.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - ParseResult: Parsed command with name and arguments
//   - Completer: Tab completion for command names and arguments
//   - Executor: Runs a parsed command against an app.App
//   - Outcome: What a surface should display or do next
//
// # Built-in Commands
//
//   - /new, /recent, /open: Thread navigation
//   - /clear, /history, /export: Active thread actions
//   - /key, /model, /settings: API settings
//   - /reset-password, /help, /quit
//
// # Usage
//
//	result := parser.Parse(input)
//	if result.IsCommand {
//	    out := executor.Run(result)
//	    if out.Confirm != "" && askUser(out.Confirm) {
//	        out = executor.Confirm(out.Pending)
//	    }
//	}
package commands
