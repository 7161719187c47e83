// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/jeranaias/gatechat/internal/app"
	"github.com/jeranaias/gatechat/internal/gate"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// HandleResetPassword unlocks with the current password, confirms, and
// forgets it. Chats and the API key stay. yes skips the confirmation.
func HandleResetPassword(a *app.App, p Prompter, out io.Writer, yes bool) error {
	if a.Gate.State() == gate.LockedUnset {
		return ErrNoPassword
	}

	if err := Unlock(a, p, out, OneShotAttempts); err != nil {
		return err
	}
	if err := RequireConfirmation(yes, p, gate.ResetConfirmation); err != nil {
		return err
	}
	if err := a.Gate.Reset(); err != nil {
		return err
	}

	fmt.Fprintln(out, styles.RenderSuccess("Password reset. You will be asked to choose a new one next time."))
	return nil
}
