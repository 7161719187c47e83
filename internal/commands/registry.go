// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "sort"

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Action identifies what a command does.
type Action int

const (
	ActionHelp Action = iota
	ActionQuit
	ActionNew
	ActionRecent
	ActionOpen
	ActionClear
	ActionHistory
	ActionExport
	ActionKey
	ActionModel
	ActionSettings
	ActionResetPassword
)

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Action selects the executor branch
	Action Action

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Description explains the argument
	Description string

	// Values for enum arguments
	Values []string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Threads
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new chat",
		Usage:       "/new",
		Action:      ActionNew,
		Category:    "Chats",
	})
	r.Register(&Command{
		Name:        "/recent",
		Aliases:     []string{"/r", "/ls"},
		Description: "List recent chats",
		Usage:       "/recent",
		Action:      ActionRecent,
		Category:    "Chats",
	})
	r.Register(&Command{
		Name:        "/open",
		Aliases:     []string{"/o"},
		Description: "Switch to a chat from the recent list",
		Usage:       "/open <number>",
		Args: []ArgDef{
			{Name: "number", Required: true, Description: "position in /recent (1 = newest)"},
		},
		Action:   ActionOpen,
		Category: "Chats",
	})
	r.Register(&Command{
		Name:        "/clear",
		Description: "Clear messages in this chat",
		Usage:       "/clear",
		Action:      ActionClear,
		Category:    "Chats",
	})
	r.Register(&Command{
		Name:        "/history",
		Aliases:     []string{"/show"},
		Description: "Show this chat as a transcript",
		Usage:       "/history",
		Action:      ActionHistory,
		Category:    "Chats",
	})
	r.Register(&Command{
		Name:        "/export",
		Aliases:     []string{"/e"},
		Description: "Export this chat to a file",
		Usage:       "/export [json|md] [dir]",
		Args: []ArgDef{
			{Name: "format", Description: "file format", Values: []string{"json", "md", "markdown"}},
			{Name: "dir", Description: "output directory (default: current)"},
		},
		Action:   ActionExport,
		Category: "Chats",
	})

	// Settings
	r.Register(&Command{
		Name:        "/key",
		Description: "Set or show the API key",
		Usage:       "/key [api-key]",
		Args: []ArgDef{
			{Name: "api-key", Description: "key for the completion API"},
		},
		Action:   ActionKey,
		Category: "Settings",
	})
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Set or show the model",
		Usage:       "/model [name]",
		Args: []ArgDef{
			{Name: "name", Description: "model identifier, e.g. gpt-4o-mini"},
		},
		Action:   ActionModel,
		Category: "Settings",
	})
	r.Register(&Command{
		Name:        "/settings",
		Description: "Show API settings",
		Usage:       "/settings",
		Action:      ActionSettings,
		Category:    "Settings",
	})
	r.Register(&Command{
		Name:        "/reset-password",
		Description: "Forget the password and lock (chats are kept)",
		Usage:       "/reset-password",
		Action:      ActionResetPassword,
		Category:    "Settings",
	})

	// General
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help",
		Action:      ActionHelp,
		Category:    "General",
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit gatechat",
		Usage:       "/quit",
		Action:      ActionQuit,
		Category:    "General",
	})
}
