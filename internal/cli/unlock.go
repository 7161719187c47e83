// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/gatechat/internal/app"
	"github.com/jeranaias/gatechat/internal/gate"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// PasswordPrompt is shown when reading the gate password.
const PasswordPrompt = "Password: "

// OneShotAttempts bounds password attempts for non-interactive commands.
const OneShotAttempts = 3

// Unlock asks for the gate password until the gate opens. maxAttempts <= 0
// means no limit. Read errors (EOF, Ctrl+C) are returned as-is.
func Unlock(a *app.App, p Prompter, out io.Writer, maxAttempts int) error {
	if a.Unlocked() {
		return nil
	}

	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		fmt.Fprintln(out, GateStyle.Render(a.Gate.Prompt()))

		pw, err := p.ReadPassword(PasswordPrompt)
		if err != nil {
			return err
		}

		err = a.Gate.Submit(pw)
		switch {
		case err == nil:
			if err := a.UnlockError(); err != nil {
				fmt.Fprintln(out, styles.RenderWarning("Chats could not be saved: "+err.Error()))
			}
			return nil
		case errors.Is(err, gate.ErrPasswordRequired):
			fmt.Fprintln(out, styles.RenderError(gate.HintPasswordRequired))
		case errors.Is(err, gate.ErrIncorrectPassword):
			fmt.Fprintln(out, styles.RenderError(gate.HintIncorrectPassword))
		default:
			fmt.Fprintln(out, styles.RenderError(err.Error()))
		}
	}
	return ErrTooManyAttempts
}
