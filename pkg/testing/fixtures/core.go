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

package fixtures

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/history"
	"github.com/ZaparooProject/prism-core/pkg/icons"
	"github.com/ZaparooProject/prism-core/pkg/launcher"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	LibraryPath = "/data/games-library.json"
	IconsDir    = "/data/icons"
	FakePid     = 4242
)

// Core is an in-memory stand-in for the service core. Launch opens a
// tracker session without spawning anything.
type Core struct {
	Fs         afero.Fs
	Clock      *clockwork.FakeClock
	Store      *library.Store
	Tracker    *session.Tracker
	Resolver   *icons.Resolver
	HistoryDB  *history.DB
	LaunchFunc func(ctx context.Context, gameID string) (launcher.Result, error)
	Ended      []session.Ended
}

func NewCore(t *testing.T) *Core {
	t.Helper()

	c := &Core{
		Fs:    afero.NewMemMapFs(),
		Clock: clockwork.NewFakeClockAt(Epoch),
	}
	c.Store = library.NewStore(c.Fs, LibraryPath, c.Clock)
	require.NoError(t, c.Store.Load())

	c.Tracker = session.NewTracker(c.Store, session.Options{
		Clock: c.Clock,
		Observer: func(e session.Ended) {
			c.Ended = append(c.Ended, e)
		},
	})
	c.Resolver = icons.NewResolver(IconsDir, nil, icons.Options{Fs: c.Fs})

	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	c.HistoryDB = db

	return c
}

// Seed adds games and returns the stored records.
func (c *Core) Seed(t *testing.T, games ...library.NewGame) []library.Game {
	t.Helper()
	out := make([]library.Game, 0, len(games))
	for _, ng := range games {
		g, err := c.Store.AddGame(ng)
		require.NoError(t, err)
		out = append(out, g)
	}
	return out
}

func (c *Core) Library() *library.Store {
	return c.Store
}

func (c *Core) Sessions() *session.Tracker {
	return c.Tracker
}

func (c *Core) Icons() *icons.Resolver {
	return c.Resolver
}

func (c *Core) History() *history.DB {
	return c.HistoryDB
}

func (c *Core) Launch(ctx context.Context, gameID string) (launcher.Result, error) {
	if c.LaunchFunc != nil {
		return c.LaunchFunc(ctx, gameID)
	}
	if _, ok := c.Store.Get(gameID); !ok {
		return launcher.Result{}, fmt.Errorf("%w: %s", library.ErrNotFound, gameID)
	}
	s, err := c.Tracker.Start(gameID)
	if err != nil {
		return launcher.Result{}, fmt.Errorf("launch %s: %w", gameID, err)
	}
	if _, err := c.Store.RecordPlay(gameID); err != nil {
		return launcher.Result{}, fmt.Errorf("launch %s: %w", gameID, err)
	}
	return launcher.Result{GameID: gameID, SessionID: s.ID, Pid: FakePid}, nil
}

func (c *Core) AddGame(_ context.Context, ng library.NewGame, _ bool) (library.Game, error) {
	if ng.Title == "" {
		ng.Title = helpers.TitleFromPath(ng.ExecutablePath)
	}
	return c.Store.AddGame(ng) //nolint:wrapcheck // passthrough
}

func (c *Core) UpdateGame(id string, patch library.Patch) (library.Game, error) {
	return c.Store.UpdateGame(id, patch) //nolint:wrapcheck // passthrough
}

func (c *Core) RemoveGame(id string) (bool, error) {
	_, removed, err := c.Store.RemoveGame(id)
	return removed, err //nolint:wrapcheck // passthrough
}

func (c *Core) ToggleFavorite(id string) (bool, error) {
	return c.Store.ToggleFavorite(id) //nolint:wrapcheck // passthrough
}
