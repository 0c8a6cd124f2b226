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

package launcher

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/ZaparooProject/prism-core/pkg/helpers"
)

// Process is a running launched executable.
type Process interface {
	Pid() int
	// Wait blocks until the process exits. A non-nil error covers both
	// abnormal exits and failures to observe the process.
	Wait() error
}

// Spawner starts executables.
type Spawner interface {
	Spawn(path string) (Process, error)
}

// ExecSpawner starts the executable detached from this process, with its
// own directory as working directory and all stdio discarded.
type ExecSpawner struct{}

func (ExecSpawner) Spawn(path string) (Process, error) {
	//nolint:gosec // the path is a user-declared launch target
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = helpers.DetachedProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

//nolint:wrapcheck // exit errors are logged by the caller as-is
func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}
