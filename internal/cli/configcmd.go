// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// Config subcommands.
const (
	ConfigShow = "show"
	ConfigInit = "init"
	ConfigPath = "path"
)

// HandleConfig runs `gatechat config <action>`. cfg is the loaded
// configuration and path the file it came from (or would come from).
func HandleConfig(cfg *config.Config, path, action string, force bool, out io.Writer) error {
	switch action {
	case "", ConfigShow:
		fmt.Fprintf(out, "# %s\n", path)
		fmt.Fprint(out, cfg.String())
		return nil

	case ConfigPath:
		fmt.Fprintln(out, path)
		return nil

	case ConfigInit:
		if _, err := os.Stat(path); err == nil && !force {
			return &UsageError{Field: "config init", Value: path, Reason: "already exists (use --force to overwrite)"}
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return &CommandError{Command: "config", Action: "init", Err: err}
		}
		fmt.Fprintln(out, styles.RenderSuccess("Wrote "+path))
		return nil

	default:
		return &UsageError{Field: "config", Value: action, Reason: "want show, init or path"}
	}
}
