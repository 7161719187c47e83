// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for destructive actions.
//
// One pattern everywhere:
//   1. If --yes was passed, proceed without prompting
//   2. Otherwise ask, defaulting to no

package cli

import (
	"strings"
)

// Confirm asks question and reports whether the answer was yes. Anything
// other than y or yes, including a read error, is a no.
func Confirm(p Prompter, question string) bool {
	answer, err := p.ReadInput(WarningStyle.Render(question) + " [y/N]: ")
	if err != nil {
		return false
	}
	return isYes(answer)
}

// RequireConfirmation is Confirm with a --yes override. It returns
// ErrCancelled when the user declines.
func RequireConfirmation(yes bool, p Prompter, question string) error {
	if yes {
		return nil
	}
	if !Confirm(p, question) {
		return ErrCancelled
	}
	return nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
