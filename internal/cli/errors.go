// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for gatechat commands.
//
// STANDARDIZED PATTERN:
//   - Handlers return errors and never exit
//   - main decides how to display them and which code to exit with

package cli

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/gate"
	"github.com/jeranaias/gatechat/internal/storage"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the gate stayed locked
	ExitAuthError = 4
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitStorageError indicates the local store could not be used
	ExitStorageError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// SENTINELS
// =============================================================================

var (
	// ErrTooManyAttempts is returned when a one-shot command cannot unlock.
	ErrTooManyAttempts = errors.New("too many password attempts")

	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled")

	// ErrNoPassword is returned by reset-password when none is set.
	ErrNoPassword = errors.New("no password is set")
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a command failure with context.
type CommandError struct {
	Command string // e.g. "export"
	Action  string // e.g. "write"
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports bad flags or arguments.
type UsageError struct {
	Field  string
	Value  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError represents a missing chat or file.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w in the shared format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) {
		return ExitConfigError
	}

	var netErr net.Error
	switch {
	case errors.Is(err, ErrTooManyAttempts),
		errors.Is(err, gate.ErrIncorrectPassword),
		errors.Is(err, gate.ErrPasswordRequired):
		return ExitAuthError
	case errors.Is(err, storage.ErrUnavailable):
		return ExitStorageError
	case errors.As(err, &netErr):
		return ExitNetworkError
	}

	return ExitGeneralError
}
