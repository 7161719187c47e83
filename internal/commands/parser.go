// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseResult is one input line after parsing.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command, nil when unknown
	Command *Command

	// Name is the command word as typed
	Name string

	// Args holds one entry per supplied argument
	Args []string

	// RawInput is the trimmed input line
	RawInput string

	// Error is an unknown command or an *ArgError
	Error error
}

// =============================================================================
// PARSER
// =============================================================================

// Parser turns input lines into commands from a Registry.
//
// Arguments are separated by whitespace. The last argument a command
// declares takes the rest of the line, so `/export md My Chats` exports to
// the directory "My Chats". There is no quoting.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser over registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses one line. Lines not starting with / have IsCommand false.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	res := ParseResult{RawInput: input, IsCommand: IsCommand(input)}
	if !res.IsCommand {
		return res
	}

	name, rest := cutWord(input)
	res.Name = name
	res.Command = p.registry.Get(strings.ToLower(name))
	if res.Command == nil {
		res.Error = fmt.Errorf("unknown command %s (try /help)", name)
		return res
	}

	res.Args = splitArgs(rest, len(res.Command.Args))
	res.Error = checkArgs(res.Command, res.Args)
	return res
}

// splitArgs splits rest into at most n arguments, the last keeping any
// inner spaces. Commands without declared arguments get plain fields.
func splitArgs(rest string, n int) []string {
	if n == 0 {
		return strings.Fields(rest)
	}
	var args []string
	for rest != "" && len(args) < n-1 {
		var word string
		word, rest = cutWord(rest)
		args = append(args, word)
	}
	if rest != "" {
		args = append(args, rest)
	}
	return args
}

// cutWord splits s at the first run of whitespace. Both parts are trimmed.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end == -1 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}

// IsCommand reports whether input is a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// =============================================================================
// ARGUMENT CHECKS
// =============================================================================

// ArgError reports an argument that does not fit its ArgDef.
type ArgError struct {
	Command string
	Arg     ArgDef
	// Got is the rejected value, empty when the argument is missing
	Got string
}

func (e *ArgError) Error() string {
	if e.Got == "" {
		msg := fmt.Sprintf("%s: missing <%s>", e.Command, e.Arg.Name)
		if e.Arg.Description != "" {
			msg += ", the " + e.Arg.Description
		}
		return msg
	}
	return fmt.Sprintf("%s: <%s> must be one of %s, got %q",
		e.Command, e.Arg.Name, strings.Join(e.Arg.Values, ", "), e.Got)
}

// checkArgs enforces Required and Values from cmd's ArgDefs.
func checkArgs(cmd *Command, args []string) error {
	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ArgError{Command: cmd.Name, Arg: def}
			}
			continue
		}
		if len(def.Values) > 0 && !def.accepts(args[i]) {
			return &ArgError{Command: cmd.Name, Arg: def, Got: args[i]}
		}
	}
	return nil
}

func (d ArgDef) accepts(v string) bool {
	for _, allowed := range d.Values {
		if strings.EqualFold(v, allowed) {
			return true
		}
	}
	return false
}

// =============================================================================
// CURSOR POSITION (for completion)
// =============================================================================

// cursorAt describes what the end of a partially typed line is editing.
type cursorAt struct {
	name     string // command word
	inName   bool   // still typing the command word
	argIndex int    // argument being typed
	partial  string // text of that argument so far
}

func locate(input string) cursorAt {
	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		return cursorAt{name: input, inName: true, partial: input}
	}

	c := cursorAt{name: input[:end]}
	rest := strings.TrimLeftFunc(input[end:], unicode.IsSpace)
	if last := strings.LastIndexFunc(rest, unicode.IsSpace); last >= 0 {
		c.argIndex = len(strings.Fields(rest[:last]))
		c.partial = rest[last+1:]
	} else {
		c.partial = rest
	}
	return c
}
