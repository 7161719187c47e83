// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads lines and passwords from the user.
type Prompter interface {
	// ReadInput shows prompt and returns one line without its newline.
	ReadInput(prompt string) (string, error)

	// ReadPassword shows prompt and reads a line without echoing it.
	ReadPassword(prompt string) (string, error)
}

// =============================================================================
// TERM PROMPTER
// =============================================================================

// TermPrompter is the Prompter for one-shot commands. On a terminal it reads
// passwords with echo off; otherwise it reads plain lines, which lets scripts
// pipe a password in.
type TermPrompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewTermPrompter reads from in and writes prompts to out. fd is the file
// descriptor behind in, or -1 when in is not a file.
func NewTermPrompter(in io.Reader, out io.Writer, fd int) *TermPrompter {
	return &TermPrompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// StdPrompter returns a TermPrompter on stdin, prompting on stderr.
func StdPrompter() *TermPrompter {
	return NewTermPrompter(os.Stdin, os.Stderr, int(os.Stdin.Fd()))
}

// ReadInput implements Prompter.
func (p *TermPrompter) ReadInput(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	return p.readLine()
}

// ReadPassword implements Prompter.
func (p *TermPrompter) ReadPassword(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if p.fd >= 0 && term.IsTerminal(p.fd) {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return p.readLine()
}

func (p *TermPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
