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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exePath = "/games/celeste/Celeste.exe"

type fakeProcess struct {
	exit chan error
	pid  int
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Wait() error { return <-p.exit }

type fakeSpawner struct {
	err     error
	spawned []*fakeProcess
	paths   []string
	mu      sync.Mutex
}

func (s *fakeSpawner) Spawn(path string) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	if s.err != nil {
		return nil, s.err
	}
	p := &fakeProcess{pid: 1000 + len(s.spawned), exit: make(chan error, 1)}
	s.spawned = append(s.spawned, p)
	return p, nil
}

func (s *fakeSpawner) last() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawned[len(s.spawned)-1]
}

type fixture struct {
	fs       afero.Fs
	store    *library.Store
	clock    *clockwork.FakeClock
	tracker  *session.Tracker
	spawner  *fakeSpawner
	launcher *Launcher
	game     library.Game
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, exePath, []byte("MZ"), 0o755))
	require.NoError(t, fs.MkdirAll("/games/folder.exe", 0o755))

	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	store := library.NewStore(fs, "/data/games-library.json", clock)
	require.NoError(t, store.Load())
	game, err := store.AddGame(library.NewGame{Title: "Celeste", ExecutablePath: exePath})
	require.NoError(t, err)

	tracker := session.NewTracker(store, session.Options{Clock: clock})
	spawner := &fakeSpawner{}
	return &fixture{
		fs:       fs,
		store:    store,
		clock:    clock,
		tracker:  tracker,
		spawner:  spawner,
		launcher: New(tracker, Options{Fs: fs, Spawner: spawner}),
		game:     game,
	}
}

func TestLaunch_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.launcher.Launch(context.Background(), "/games/missing.exe", f.game.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.launcher.Launch(context.Background(), "/games/folder.exe", f.game.ID)
	require.ErrorIs(t, err, ErrNotFound, "directories are not launchable")

	assert.Empty(t, f.spawner.paths)
	assert.False(t, f.tracker.Status(f.game.ID).Active)
}

func TestLaunch_SpawnFailed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.spawner.err = errors.New("permission denied")

	_, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.ErrorIs(t, err, ErrSpawnFailed)
	assert.Contains(t, err.Error(), "permission denied")
	assert.False(t, f.tracker.Status(f.game.ID).Active, "no session after spawn failure")

	f.spawner.err = nil
	_, err = f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err, "failed spawn does not block the next launch")

	f.spawner.last().exit <- nil
	f.launcher.Wait()
}

func TestLaunch_ExitFinalizesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, res.Pid)
	assert.Equal(t, []string{exePath}, f.spawner.paths)

	st := f.tracker.Status(f.game.ID)
	assert.True(t, st.Active)
	assert.Equal(t, 1000, st.Pid)

	_, err = f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.ErrorIs(t, err, session.ErrAlreadyRunning)

	f.clock.Advance(30 * time.Second)
	f.spawner.last().exit <- errors.New("exit status 1")

	ended, ok := <-res.Done
	require.True(t, ok)
	assert.True(t, ended.Committed)
	assert.Equal(t, int64(30), ended.ElapsedSeconds)

	_, ok = <-res.Done
	assert.False(t, ok, "done is closed after the single value")
	f.launcher.Wait()

	got, _ := f.store.Get(f.game.ID)
	assert.Equal(t, int64(30), got.TotalPlaytimeSeconds)
	assert.False(t, f.tracker.Status(f.game.ID).Active)
}

func TestLaunch_DrainedSessionExitIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	drained := f.tracker.FinalizeAll()
	require.Len(t, drained, 1)

	f.spawner.last().exit <- nil
	_, ok := <-res.Done
	assert.False(t, ok, "no second finalize for a drained session")
	f.launcher.Wait()

	got, _ := f.store.Get(f.game.ID)
	assert.Equal(t, int64(10), got.TotalPlaytimeSeconds)
}

func TestLaunch_CancelledContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.launcher.Launch(ctx, exePath, f.game.ID)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.spawner.paths)
}
