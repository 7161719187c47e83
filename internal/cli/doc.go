// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements gatechat's line-oriented surfaces: the chat REPL and
// the one-shot export, reset-password and config commands.
//
// Every handler works on an *app.App and returns errors instead of exiting;
// main maps them to exit codes with GetExitCode.
//
// # Key Types
//
//   - ChatSession: the REPL loop over a Prompter
//   - ChatCLI: liner-backed Prompter with history and completion
//   - TermPrompter: x/term-backed Prompter for one-shot commands
//   - Renderer: glamour Markdown rendering with a plain fallback
//
// # Usage
//
//	a, err := app.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	return cli.HandleChat(ctx, a)
//
// One-shot commands unlock the gate first, allowing OneShotAttempts tries:
//
//	err := cli.HandleExport(a, cli.StdPrompter(), os.Stdout, cli.ExportOptions{Format: "md"})
package cli
