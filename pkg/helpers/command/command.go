// Prism Core
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Prism Core.
//
// Prism Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Prism Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Prism Core.  If not, see <http://www.gnu.org/licenses/>.

// Package command runs short-lived helper programs, such as the icon
// extractors, behind an interface tests can replace.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// stderr beyond this is cut from error messages
const maxStderr = 512

// waitDelay bounds how long Exec waits for pipes after ctx kills the
// process. Grandchildren can hold them open indefinitely.
const waitDelay = 2 * time.Second

// Cmd is one program invocation. Args are passed as separate argv
// entries and never through a shell.
type Cmd struct {
	Name string
	Dir  string
	Args []string
	// HideWindow keeps a console window from flashing up on Windows.
	HideWindow bool
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

type Result struct {
	Stdout []byte
	Stderr []byte
}

// Error is a failed invocation. ExitCode is -1 when the program never
// started or was killed.
type Error struct {
	Err      error
	Name     string
	Stderr   string
	ExitCode int
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Executor interface {
	Exec(ctx context.Context, c Cmd) (Result, error)
}

// System runs commands with os/exec.
type System struct{}

func (System) Exec(ctx context.Context, c Cmd) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	hideWindow(cmd, c.HideWindow)

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	cerr := &Error{Name: c.Name, Err: err, ExitCode: -1, Stderr: tail(stderr.Bytes())}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cerr.Err = ctxErr
	}
	return res, cerr
}

func tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	return s
}
