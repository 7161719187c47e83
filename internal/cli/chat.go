// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-oriented chat for gatechat.
//
// USABILITY: readline-style editing, history and slash command completion
// through peterh/liner.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/gatechat/internal/app"
	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/commands"
	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/threads"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// HistoryFileName is the REPL history file inside the config directory.
const HistoryFileName = "chat_history"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI wraps liner for line editing with persistent history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a liner-backed Prompter. complete, when non-nil,
// supplies tab completions.
func NewChatCLI(complete func(line string) []string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)
	if complete != nil {
		line.SetCompleter(complete)
	}

	historyFile := ""
	if dir, err := config.Dir(); err == nil {
		historyFile = filepath.Join(dir, HistoryFileName)
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory reads history from disk if it exists.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.ReadHistory(f)
}

// ReadInput implements Prompter. Non-empty input is added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// ReadPassword implements Prompter. Passwords never enter history.
func (c *ChatCLI) ReadPassword(prompt string) (string, error) {
	return c.line.PasswordPrompt(prompt)
}

// SaveHistory persists history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// ChatSession is one REPL run over an App.
type ChatSession struct {
	App      *app.App
	Input    Prompter
	Out      io.Writer
	Renderer *Renderer

	parser   *commands.Parser
	executor *commands.Executor
}

// NewChatSession wires a REPL around a.
func NewChatSession(a *app.App, input Prompter, out io.Writer, renderer *Renderer) *ChatSession {
	registry := commands.NewRegistry()
	return &ChatSession{
		App:      a,
		Input:    input,
		Out:      out,
		Renderer: renderer,
		parser:   commands.NewParser(registry),
		executor: commands.NewExecutor(a, registry),
	}
}

// NewCompleter returns slash command completion bound to a.
func NewCompleter(a *app.App) *commands.Completer {
	c := commands.NewCompleter(commands.NewRegistry())
	c.ModelsFn = func() []string {
		models := []string{threads.DefaultModel}
		if current := a.Threads.Settings().Model; current != "" && current != threads.DefaultModel {
			models = append([]string{current}, models...)
		}
		return models
	}
	c.RecentFn = func() int {
		return len(a.Threads.Recent(a.Config.UI.RecentCount))
	}
	return c
}

// HandleChat runs the interactive REPL on the terminal.
func HandleChat(ctx context.Context, a *app.App) error {
	completer := NewCompleter(a)
	input := NewChatCLI(completer.Lines)
	defer input.Close()

	renderer := NewRenderer(a.Config.UI.Markdown, a.Config.UI.Theme, GetTerminalWidth())
	return NewChatSession(a, input, os.Stdout, renderer).Run(ctx)
}

// Run unlocks the gate, then reads and handles lines until /quit, EOF or
// Ctrl+C.
func (s *ChatSession) Run(ctx context.Context) error {
	s.printBanner()

	for {
		if err := Unlock(s.App, s.Input, s.Out, 0); err != nil {
			if isEndOfInput(err) {
				fmt.Fprintln(s.Out)
				return nil
			}
			return err
		}
		s.printWelcome()

		locked, err := s.loop(ctx)
		if err != nil || !locked {
			return err
		}
	}
}

// loop handles input until the user quits or the gate locks again.
func (s *ChatSession) loop(ctx context.Context) (locked bool, err error) {
	for {
		line, err := s.Input.ReadInput(PromptStyle.Render("gatechat> "))
		if err != nil {
			if isEndOfInput(err) {
				fmt.Fprintln(s.Out)
				return false, nil
			}
			return false, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if commands.IsCommand(line) {
			quit, locked := s.handleOutcome(s.executor.Run(s.parser.Parse(line)))
			if quit || locked {
				return locked, nil
			}
			continue
		}

		s.send(ctx, line)
	}
}

// send delivers one message and prints the reply.
func (s *ChatSession) send(ctx context.Context, text string) {
	fmt.Fprintln(s.Out, DimStyle.Render("..."))

	msg, err := s.App.Chat.Send(ctx, text)
	if msg.Content != "" {
		s.printAssistant(msg)
	}
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrReplyDropped):
			fmt.Fprintln(s.Out, styles.RenderWarning(err.Error()))
		case msg.Content != "":
			fmt.Fprintln(s.Out, styles.RenderWarning("not saved to disk: "+err.Error()))
		default:
			fmt.Fprintln(s.Out, styles.RenderError(err.Error()))
		}
	}
}

// handleOutcome prints a command result, asking for confirmation first when
// the command needs it.
func (s *ChatSession) handleOutcome(out commands.Outcome) (quit, locked bool) {
	if out.Confirm != "" {
		if !Confirm(s.Input, out.Confirm) {
			fmt.Fprintln(s.Out, DimStyle.Render("Cancelled."))
			return false, false
		}
		out = s.executor.Confirm(out.Pending)
	}

	if out.Text != "" {
		fmt.Fprintln(s.Out, SuccessStyle.Render(out.Text))
	}
	if out.Markdown != "" {
		fmt.Fprintln(s.Out, s.Renderer.Render(out.Markdown))
	}
	if out.Err != nil {
		fmt.Fprintln(s.Out, styles.RenderError(out.Err.Error()))
	}
	return out.Quit, out.Locked
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *ChatSession) printBanner() {
	fmt.Fprintln(s.Out, TitleStyle.Render("gatechat"))
	fmt.Fprintln(s.Out, DimStyle.Render("Local chats, remote model. Type /help for commands."))
	fmt.Fprintln(s.Out)
}

func (s *ChatSession) printWelcome() {
	snap := s.App.Snapshot()

	if len(snap.Recent) > 0 {
		fmt.Fprintln(s.Out, TitleStyle.Render("Recent chats"))
		fmt.Fprint(s.Out, commands.FormatRecent(snap.Recent, snap.Active.ID))
		fmt.Fprintln(s.Out)
	}

	if snap.Settings.APIKey == "" {
		fmt.Fprintln(s.Out, styles.RenderWarning("No API key set. Use /key <api-key> to add one."))
	}

	if snap.HasActive && len(snap.Active.Messages) > 0 {
		for _, m := range snap.Active.Messages {
			s.printMessage(m)
		}
	}
}

func (s *ChatSession) printMessage(m threads.Message) {
	if m.Role == threads.RoleUser {
		fmt.Fprintln(s.Out, PromptStyle.Render("you> ")+m.Content)
		return
	}
	s.printAssistant(m)
}

func (s *ChatSession) printAssistant(m threads.Message) {
	fmt.Fprintln(s.Out, AssistantStyle.Render("assistant"))
	if strings.HasPrefix(m.Content, chat.ErrorPrefix) {
		fmt.Fprintln(s.Out, ErrorStyle.Render(m.Content))
	} else {
		fmt.Fprintln(s.Out, s.Renderer.Render(m.Content))
	}
	fmt.Fprintln(s.Out)
}

// isEndOfInput reports whether err means the user left: EOF or Ctrl+C.
func isEndOfInput(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted)
}
