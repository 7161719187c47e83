// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value to insert
	Value string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// ModelsFn returns model names worth suggesting for /model
	ModelsFn func() []string

	// RecentFn returns how many entries /open can pick from
	RecentFn func() int
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for the given input.
func (c *Completer) Complete(input string) []Completion {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	at := locate(input)
	if at.inName {
		return c.completeCommands(at.partial)
	}

	cmd := c.registry.Get(strings.ToLower(at.name))
	if cmd == nil {
		return nil
	}
	return c.completeArg(cmd, at.argIndex, at.partial)
}

// Lines returns full replacement lines for input, the form liner expects.
func (c *Completer) Lines(input string) []string {
	completions := c.Complete(input)
	if len(completions) == 0 {
		return nil
	}

	prefix := ""
	if !locate(input).inName {
		// Keep everything up to the argument being completed.
		if idx := strings.LastIndexAny(input, " \t"); idx >= 0 {
			prefix = input[:idx+1]
		}
	}

	lines := make([]string, len(completions))
	for i, comp := range completions {
		lines[i] = prefix + comp.Value
	}
	return lines
}

// completeCommands returns completions for command names.
func (c *Completer) completeCommands(partial string) []Completion {
	var completions []Completion
	partial = strings.ToLower(partial)

	for _, cmd := range c.registry.All() {
		if strings.HasPrefix(cmd.Name, partial) {
			completions = append(completions, Completion{
				Value:       cmd.Name,
				Description: cmd.Description,
				Score:       calculateScore(cmd.Name, partial),
			})
		}
	}

	sortCompletions(completions)
	return completions
}

// completeArg returns completions for one argument of cmd.
func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}
	arg := cmd.Args[argIndex]

	var candidates []string
	switch {
	case len(arg.Values) > 0:
		candidates = arg.Values
	case cmd.Action == ActionModel && c.ModelsFn != nil:
		candidates = c.ModelsFn()
	case cmd.Action == ActionOpen && c.RecentFn != nil:
		for i := 1; i <= c.RecentFn(); i++ {
			candidates = append(candidates, strconv.Itoa(i))
		}
	}

	var completions []Completion
	for _, v := range candidates {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(partial)) {
			completions = append(completions, Completion{
				Value:       v,
				Description: arg.Description,
				Score:       calculateScore(v, partial),
			})
		}
	}
	sortCompletions(completions)
	return completions
}

// =============================================================================
// SCORING
// =============================================================================

// calculateScore calculates a match score for completion ranking.
// Higher score = better match.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100
	if value == partial {
		return score + 100
	}
	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}
	score -= len(value) / 2
	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}
