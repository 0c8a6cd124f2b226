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

// Package launcher starts games and reports their exit to the session
// tracker.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/metrics"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Tracker is the subset of session.Tracker the launcher drives.
type Tracker interface {
	Start(gameID string) (session.Session, error)
	Attach(gameID, sessionID string, proc session.Process) error
	Discard(gameID, sessionID string)
	FinalizeSession(gameID, sessionID string) (session.Ended, bool)
	Status(gameID string) session.Status
}

// Result describes a successful launch. Done receives the finalized
// session when the process exits and is then closed. If the session was
// already finalized elsewhere (shutdown drain) Done is closed without a
// value.
type Result struct {
	Done      <-chan session.Ended `json:"-"`
	GameID    string               `json:"gameId"`
	SessionID string               `json:"sessionId"`
	Pid       int                  `json:"pid"`
}

type Options struct {
	Fs      afero.Fs
	Spawner Spawner
	Finder  ProcessFinder
	Clock   clockwork.Clock
	// TrackChildren is read at each exit; when it reports true the session
	// stays open until no process from the game's directory is left.
	TrackChildren  func() bool
	FollowInterval time.Duration
}

type Launcher struct {
	fs            afero.Fs
	spawner       Spawner
	finder        ProcessFinder
	clock         clockwork.Clock
	tracker       Tracker
	trackChildren func() bool
	interval      time.Duration
	wg            sync.WaitGroup
}

func New(tracker Tracker, opts Options) *Launcher {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Spawner == nil {
		opts.Spawner = ExecSpawner{}
	}
	if opts.Finder == nil {
		opts.Finder = SystemFinder{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TrackChildren == nil {
		opts.TrackChildren = func() bool { return false }
	}
	if opts.FollowInterval <= 0 {
		opts.FollowInterval = DefaultFollowInterval
	}
	return &Launcher{
		fs:            opts.Fs,
		spawner:       opts.Spawner,
		finder:        opts.Finder,
		clock:         opts.Clock,
		tracker:       tracker,
		trackChildren: opts.TrackChildren,
		interval:      opts.FollowInterval,
	}
}

// Launch starts path as a detached process and opens a session for gameID.
// The session is finalized exactly once when the process exits or fails.
func (l *Launcher) Launch(ctx context.Context, path, gameID string) (Result, error) {
	info, err := l.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		metrics.Launches.WithLabelValues(metrics.ResultNotFound).Inc()
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("launch cancelled: %w", err)
	}

	sess, err := l.tracker.Start(gameID)
	if err != nil {
		if errors.Is(err, session.ErrAlreadyRunning) {
			metrics.Launches.WithLabelValues(metrics.ResultRunning).Inc()
		}
		return Result{}, fmt.Errorf("failed to open session for %s: %w", gameID, err)
	}

	proc, err := l.spawner.Spawn(path)
	if err != nil {
		l.tracker.Discard(gameID, sess.ID)
		metrics.Launches.WithLabelValues(metrics.ResultSpawnFail).Inc()
		log.Error().Err(err).Str("path", path).Msg("launcher: spawn failed")
		return Result{}, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	if err := l.tracker.Attach(gameID, sess.ID, proc); err != nil {
		// Drained between Start and Attach; the process still runs.
		log.Warn().Err(err).Str("game", gameID).Msg("launcher: session closed before attach")
	}

	metrics.Launches.WithLabelValues(metrics.ResultOK).Inc()
	log.Info().
		Str("game", gameID).
		Str("path", path).
		Int("pid", proc.Pid()).
		Msg("launcher: started")

	done := make(chan session.Ended, 1)
	l.wg.Add(1)
	go l.observe(proc, filepath.Dir(path), gameID, sess.ID, done)

	return Result{
		GameID:    gameID,
		SessionID: sess.ID,
		Pid:       proc.Pid(),
		Done:      done,
	}, nil
}

func (l *Launcher) observe(proc Process, dir, gameID, sessionID string, done chan<- session.Ended) {
	defer l.wg.Done()
	defer close(done)

	err := proc.Wait()
	if err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			log.Info().Str("game", gameID).Int("code", exitErr.ExitCode()).Msg("launcher: exited with error")
		} else {
			log.Warn().Err(err).Str("game", gameID).Msg("launcher: lost track of process")
		}
	} else {
		log.Info().Str("game", gameID).Msg("launcher: exited")
	}

	if l.trackChildren() {
		l.follow(dir, gameID, sessionID)
	}

	if ended, ok := l.tracker.FinalizeSession(gameID, sessionID); ok {
		done <- ended
	}
}

// Wait blocks until every launched process has exited and been finalized.
func (l *Launcher) Wait() {
	l.wg.Wait()
}
