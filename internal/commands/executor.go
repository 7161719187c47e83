// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/gatechat/internal/app"
	"github.com/jeranaias/gatechat/internal/cloud"
	"github.com/jeranaias/gatechat/internal/export"
	"github.com/jeranaias/gatechat/internal/gate"
	"github.com/jeranaias/gatechat/internal/threads"
	"github.com/jeranaias/gatechat/internal/util"
)

// ClearConfirmation is asked before /clear empties a thread.
const ClearConfirmation = "Clear messages in this chat?"

// maxListTitle bounds titles in the recent list, in terminal cells.
const maxListTitle = 48

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome tells a surface what to show after a command.
type Outcome struct {
	// Text is a one-line status message
	Text string

	// Markdown is longer content (help, transcript) to render
	Markdown string

	// Err is shown inline; the session continues
	Err error

	// Confirm, when set, is a yes/no question. On yes the surface calls
	// Executor.Confirm(Pending).
	Confirm string
	Pending Action

	// Quit ends the surface's loop
	Quit bool

	// Locked means the gate closed and the surface must show it again
	Locked bool
}

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor runs parsed commands against a session.
type Executor struct {
	app      *app.App
	registry *Registry

	// ExportDir is used when /export gets no directory
	ExportDir string
}

// NewExecutor creates an Executor.
func NewExecutor(a *app.App, registry *Registry) *Executor {
	return &Executor{app: a, registry: registry, ExportDir: "."}
}

// Run executes res. Non-commands and parse errors come back as Err.
func (e *Executor) Run(res ParseResult) Outcome {
	if !res.IsCommand {
		return Outcome{Err: fmt.Errorf("not a command: %q", res.RawInput)}
	}
	if res.Error != nil {
		return Outcome{Err: res.Error}
	}

	switch res.Command.Action {
	case ActionHelp:
		return Outcome{Markdown: e.help()}
	case ActionQuit:
		return Outcome{Quit: true}
	case ActionNew:
		return e.newThread()
	case ActionRecent:
		return e.recent()
	case ActionOpen:
		return e.open(res.Args[0])
	case ActionClear:
		return Outcome{Confirm: ClearConfirmation, Pending: ActionClear}
	case ActionHistory:
		return e.history()
	case ActionExport:
		return e.export(res.Args)
	case ActionKey:
		return e.key(res.Args)
	case ActionModel:
		return e.model(res.Args)
	case ActionSettings:
		return e.settings()
	case ActionResetPassword:
		return Outcome{Confirm: gate.ResetConfirmation, Pending: ActionResetPassword}
	default:
		return Outcome{Err: fmt.Errorf("%s is not available here", res.Command.Name)}
	}
}

// Confirm performs an action the user has agreed to.
func (e *Executor) Confirm(action Action) Outcome {
	switch action {
	case ActionClear:
		err := e.app.Threads.ClearActiveThread()
		return saved("Chat cleared.", err)
	case ActionResetPassword:
		if err := e.app.Gate.Reset(); err != nil {
			return Outcome{Err: err}
		}
		return Outcome{Text: "Password reset. Choose a new one to continue.", Locked: true}
	default:
		return Outcome{}
	}
}

// saved reports a mutation whose in-memory part succeeded.
func saved(text string, err error) Outcome {
	if err != nil {
		return Outcome{Text: text, Err: fmt.Errorf("not saved to disk: %w", err)}
	}
	return Outcome{Text: text}
}

// =============================================================================
// HANDLERS
// =============================================================================

func (e *Executor) newThread() Outcome {
	_, err := e.app.Threads.CreateThread()
	return saved("Started a new chat.", err)
}

func (e *Executor) recent() Outcome {
	list := e.app.Threads.Recent(e.app.Config.UI.RecentCount)
	if len(list) == 0 {
		return Outcome{Text: "No chats yet."}
	}
	return Outcome{Markdown: FormatRecent(list, e.app.Threads.ActiveID())}
}

// FormatRecent renders a numbered recent list, marking the active thread.
func FormatRecent(list []threads.Thread, activeID string) string {
	var sb strings.Builder
	for i, t := range list {
		marker := " "
		if t.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %d. %s (%s)\n",
			marker, i+1,
			util.TruncateWidth(util.SingleLine(t.DisplayTitle()), maxListTitle),
			t.CreatedAt.Local().Format("2006-01-02"))
	}
	return sb.String()
}

func (e *Executor) open(arg string) Outcome {
	n, err := strconv.Atoi(arg)
	list := e.app.Threads.Recent(e.app.Config.UI.RecentCount)
	if err != nil || n < 1 || n > len(list) {
		return Outcome{Err: fmt.Errorf("pick a number from 1 to %d (see /recent)", len(list))}
	}
	t := list[n-1]
	err = e.app.Threads.SetActiveThread(t.ID)
	return saved("Opened "+util.SingleLine(t.DisplayTitle())+".", err)
}

func (e *Executor) history() Outcome {
	t, ok := e.app.Threads.Active()
	if !ok {
		return Outcome{Text: "No active chat."}
	}
	return Outcome{Markdown: export.Markdown(t)}
}

func (e *Executor) export(args []string) Outcome {
	t, ok := e.app.Threads.Active()
	if !ok {
		return Outcome{Err: threads.ErrNoActiveThread}
	}

	format, dir := export.FormatJSON, e.ExportDir
	if len(args) > 0 {
		f, err := export.ParseFormat(args[0])
		if err != nil {
			return Outcome{Err: err}
		}
		format = f
	}
	if len(args) > 1 {
		dir = args[1]
	}

	path, err := export.WriteFile(dir, t, format)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Text: "Exported to " + path}
}

func (e *Executor) key(args []string) Outcome {
	current := e.app.Threads.Settings()
	if len(args) == 0 {
		return Outcome{Text: "API key: " + cloud.MaskKey(current.APIKey)}
	}
	err := e.app.Threads.SetSettings(args[0], current.Model)
	return saved("API key saved.", err)
}

func (e *Executor) model(args []string) Outcome {
	current := e.app.Threads.Settings()
	if len(args) == 0 {
		return Outcome{Text: "Model: " + current.Model}
	}
	err := e.app.Threads.SetSettings(current.APIKey, args[0])
	return saved("Model set to "+e.app.Threads.Settings().Model+".", err)
}

func (e *Executor) settings() Outcome {
	s := e.app.Threads.Settings()
	return Outcome{Markdown: fmt.Sprintf(
		"- **API key**: %s\n- **Model**: %s\n- **Endpoint**: %s\n",
		cloud.MaskKey(s.APIKey), s.Model, e.app.Client.BaseURL())}
}

func (e *Executor) help() string {
	var sb strings.Builder
	groups := e.registry.ByCategory()
	for _, category := range []string{"Chats", "Settings", "General"} {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, cmd := range cmds {
			fmt.Fprintf(&sb, "- `%s` %s\n", cmd.Usage, cmd.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Anything that doesn't start with `/` is sent as a message.\n")
	return sb.String()
}
