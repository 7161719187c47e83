// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jeranaias/gatechat/internal/app"
	"github.com/jeranaias/gatechat/internal/export"
	"github.com/jeranaias/gatechat/internal/threads"
)

// ExportOptions selects what `gatechat export` writes.
type ExportOptions struct {
	// Format is json, md or markdown (default json)
	Format string

	// Dir is the output directory (default ".")
	Dir string

	// Thread is a thread id or a 1-based position, newest first. Empty
	// means the active thread.
	Thread string

	// All exports every thread and ignores Thread
	All bool
}

// HandleExport unlocks the gate and writes the selected threads to files,
// printing one path per line to out.
func HandleExport(a *app.App, p Prompter, out io.Writer, opts ExportOptions) error {
	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return &UsageError{Field: "--format", Value: opts.Format, Reason: "want json or md"}
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if err := Unlock(a, p, out, OneShotAttempts); err != nil {
		return err
	}

	selected, err := selectThreads(a.Threads, opts)
	if err != nil {
		return err
	}

	for _, t := range selected {
		path, err := export.WriteFile(dir, t, format)
		if err != nil {
			return &CommandError{Command: "export", Action: "write", Err: err}
		}
		fmt.Fprintln(out, path)
	}
	return nil
}

// selectThreads resolves ExportOptions against the repository.
func selectThreads(repo *threads.Repository, opts ExportOptions) ([]threads.Thread, error) {
	all := repo.Recent(repo.Len())

	if opts.All {
		if len(all) == 0 {
			return nil, &NotFoundError{Resource: "chat", ID: "any"}
		}
		return all, nil
	}

	if opts.Thread == "" {
		t, ok := repo.Active()
		if !ok {
			return nil, &NotFoundError{Resource: "chat", ID: "active"}
		}
		return []threads.Thread{t}, nil
	}

	if n, err := strconv.Atoi(opts.Thread); err == nil {
		if n < 1 || n > len(all) {
			return nil, &UsageError{
				Field:  "--thread",
				Value:  opts.Thread,
				Reason: fmt.Sprintf("pick a number from 1 to %d", len(all)),
			}
		}
		return []threads.Thread{all[n-1]}, nil
	}

	t, ok := repo.Thread(opts.Thread)
	if !ok {
		return nil, &NotFoundError{Resource: "chat", ID: opts.Thread}
	}
	return []threads.Thread{t}, nil
}
