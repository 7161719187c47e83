// gatechat - A local-first terminal chat client behind a password gate.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/jeranaias/gatechat/internal/app"
	gccli "github.com/jeranaias/gatechat/internal/cli"
	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/export"
	"github.com/jeranaias/gatechat/internal/ui/tui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		gccli.DisplayError(os.Stderr, err)
		os.Exit(gccli.GetExitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gatechat",
		Usage:   "Chat with an OpenAI-compatible model; chats stay on this machine",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Store chats in `PATH` instead of the config directory",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Storage backend: file, sqlite or memory",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			chatCommand(),
			exportCommand(),
			resetPasswordCommand(),
			configCommand(),
		},
		// errors are printed once by main
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Line-oriented chat with history and tab completion",
		Action: func(c *cli.Context) error {
			if err := gccli.RequiresTTY("chat"); err != nil {
				return err
			}
			return withApp(c, func(a *app.App) error {
				return gccli.HandleChat(c.Context, a)
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write chats to JSON or Markdown files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "File format: json or md",
				Value:   string(export.FormatJSON),
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"o"},
				Usage:   "Write files into `DIR`",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "thread",
				Aliases: []string{"t"},
				Usage:   "Chat id, or position in the recent list (1 = newest)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every chat",
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App) error {
				return gccli.HandleExport(a, gccli.StdPrompter(), os.Stdout, gccli.ExportOptions{
					Format: c.String("format"),
					Dir:    c.String("dir"),
					Thread: c.String("thread"),
					All:    c.Bool("all"),
				})
			})
		},
	}
}

func resetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "Remove the password; chats are kept",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App) error {
				return gccli.HandleResetPassword(a, gccli.StdPrompter(), os.Stdout, c.Bool("yes"))
			})
		},
	}
}

func configCommand() *cli.Command {
	run := func(action string) cli.ActionFunc {
		return func(c *cli.Context) error {
			path, err := configPath(c)
			if err != nil {
				return err
			}
			var cfg *config.Config
			if action == gccli.ConfigShow {
				if cfg, err = loadConfig(c); err != nil {
					return err
				}
			}
			return gccli.HandleConfig(cfg, path, action, c.Bool("force"), os.Stdout)
		}
	}

	return &cli.Command{
		Name:  "config",
		Usage: "Show or create the configuration file",
		Subcommands: []*cli.Command{
			{Name: gccli.ConfigShow, Usage: "Print the effective configuration", Action: run(gccli.ConfigShow)},
			{Name: gccli.ConfigPath, Usage: "Print the config file path", Action: run(gccli.ConfigPath)},
			{
				Name:  gccli.ConfigInit,
				Usage: "Write a default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: run(gccli.ConfigInit),
			},
		},
	}
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(c *cli.Context) error {
	if c.NArg() > 0 {
		return &gccli.UsageError{Field: "command", Value: c.Args().First(), Reason: "unknown command"}
	}
	if err := gccli.RequiresTTY("start the interface"); err != nil {
		return err
	}
	return withApp(c, func(a *app.App) error {
		p := tea.NewProgram(tui.New(a), tea.WithAltScreen(), tea.WithContext(c.Context))
		_, err := p.Run()
		return err
	})
}

// =============================================================================
// SETUP
// =============================================================================

// withApp builds a session from the global flags, runs fn and closes it.
func withApp(c *cli.Context, fn func(a *app.App) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func configPath(c *cli.Context) (string, error) {
	if path := c.String("config"); path != "" {
		return path, nil
	}
	return config.PathTOML()
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path, err := configPath(c)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}

	if v := c.String("data"); v != "" {
		cfg.Storage.Path = v
	}
	if v := c.String("backend"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
