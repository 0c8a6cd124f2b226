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

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api/client"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/icons"
	"github.com/ZaparooProject/prism-core/pkg/launcher"
	"github.com/ZaparooProject/prism-core/pkg/notify"
	"github.com/ZaparooProject/prism-core/pkg/service"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	exit chan error
	pid  int
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Wait() error { return <-p.exit }

type fakeSpawner struct {
	spawned []*fakeProcess
	mu      sync.Mutex
}

func (s *fakeSpawner) Spawn(string) (launcher.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &fakeProcess{pid: 3000 + len(s.spawned), exit: make(chan error, 1)}
	s.spawned = append(s.spawned, p)
	return p, nil
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spawned)
}

func (s *fakeSpawner) exitAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.spawned {
		select {
		case p.exit <- nil:
		default:
		}
	}
}

// syncBuffer is a bytes.Buffer safe to read while a command writes to it.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type cliEnv struct {
	client    client.APIClient
	clock     *clockwork.FakeClock
	spawner   *fakeSpawner
	configDir string
	dataDir   string
	gamesDir  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliEnv{
		clock:     clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)),
		spawner:   &fakeSpawner{},
		configDir: filepath.Join(base, "config"),
		dataDir:   filepath.Join(base, "data"),
		gamesDir:  filepath.Join(base, "games"),
	}
	require.NoError(t, os.MkdirAll(env.configDir, 0o750))
	t.Cleanup(env.spawner.exitAll)
	return env
}

func (e *cliEnv) options(opts *service.Options) {
	opts.Clock = e.clock
	opts.Spawner = e.spawner
	opts.Sender = notify.LogSender{}
	opts.Strategies = []icons.Strategy{}
	opts.DisableAPI = true
}

// writeExe creates a fake executable under the games dir and returns its
// absolute path.
func (e *cliEnv) writeExe(t *testing.T, rel string) string {
	t.Helper()
	p := filepath.Join(e.gamesDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte("MZ"), 0o600))
	return p
}

// startService holds the instance lock the way a running "prism serve"
// would, so commands fall back to the API client.
func (e *cliEnv) startService(t *testing.T) {
	t.Helper()
	cfg, err := config.NewConfig(e.configDir, config.BaseDefaults)
	require.NoError(t, err)

	opts := service.Options{DataDir: e.dataDir}
	e.options(&opts)
	core := service.New(cfg, opts)
	require.NoError(t, core.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, core.Stop())
	})
}

func (e *cliEnv) command(stdout, stderr *syncBuffer, args ...string) *cobra.Command {
	ctx := newCommandContext()
	ctx.coreOptions = e.options
	// Logging is global; parallel commands must not swap the logger.
	ctx.initLogging = func(string, []io.Writer) error { return nil }
	if e.client != nil {
		ctx.newClient = func(*config.Instance) client.APIClient { return e.client }
	}

	cmd := buildRootCommand(ctx)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", e.configDir, "--data-dir", e.dataDir}, args...))
	return cmd
}

func runCLI(t *testing.T, env *cliEnv, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut syncBuffer
	err = env.command(&out, &errOut, args...).ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}
