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

// Package session tracks running games and turns finished runs into
// playtime. A Tracker holds at most one session per game id.
package session

import (
	"errors"
	"slices"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/helpers/syncutil"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Process is the part of a launched process the tracker cares about.
type Process interface {
	Pid() int
}

// PlaytimeStore is where committed playtime goes.
type PlaytimeStore interface {
	AddPlaytime(id string, seconds int64) (library.Game, error)
}

// Session is a snapshot of one running game.
type Session struct {
	StartTime time.Time `json:"startTime"`
	Process   Process   `json:"-"`
	GameID    string    `json:"gameId"`
	ID        string    `json:"sessionId"`
}

// Pid returns the process id, or 0 while the spawn is still pending.
func (s Session) Pid() int {
	if s.Process == nil {
		return 0
	}
	return s.Process.Pid()
}

// Status is the answer to "is this game running and for how long".
type Status struct {
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	GameID         string     `json:"gameId"`
	SessionID      string     `json:"sessionId,omitempty"`
	ElapsedSeconds int64      `json:"elapsedSeconds"`
	Pid            int        `json:"pid,omitempty"`
	Active         bool       `json:"active"`
}

// Ended describes a finalized session. Committed is false when the run
// was shorter than the minimum session length or could not be recorded.
type Ended struct {
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	GameID               string    `json:"gameId"`
	SessionID            string    `json:"sessionId"`
	ElapsedSeconds       int64     `json:"elapsedSeconds"`
	TotalPlaytimeSeconds int64     `json:"totalPlaytimeSeconds"`
	Committed            bool      `json:"committed"`
}

// Observer receives every finalized session, committed or not.
type Observer func(Ended)

type Options struct {
	Clock clockwork.Clock
	// MinSession is read on every finalize so config reloads apply to
	// sessions that are already running.
	MinSession func() time.Duration
	Observer   Observer
}

type Tracker struct {
	clock      clockwork.Clock
	store      PlaytimeStore
	minSession func() time.Duration
	observer   Observer
	sessions   map[string]*Session
	mu         syncutil.Mutex
}

func NewTracker(store PlaytimeStore, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.MinSession == nil {
		opts.MinSession = func() time.Duration { return config.DefaultMinSession }
	}
	return &Tracker{
		clock:      opts.Clock,
		store:      store,
		minSession: opts.MinSession,
		observer:   opts.Observer,
		sessions:   make(map[string]*Session),
	}
}

// Start opens a session for gameID with startTime=now. The process handle
// is attached separately once the spawn succeeds, so two concurrent
// launches of the same game cannot both get past this point.
func (t *Tracker) Start(gameID string) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[gameID]; ok {
		return Session{}, ErrAlreadyRunning
	}

	s := &Session{
		GameID:    gameID,
		ID:        uuid.NewString(),
		StartTime: t.clock.Now(),
	}
	t.sessions[gameID] = s
	metrics.SessionsActive.Inc()
	log.Debug().Str("game", gameID).Str("session", s.ID).Msg("session: started")
	return *s, nil
}

// Attach records the process handle for a session opened by Start.
func (t *Tracker) Attach(gameID, sessionID string, proc Process) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[gameID]
	if !ok {
		return ErrNoSession
	}
	if s.ID != sessionID {
		return ErrSessionMismatch
	}
	s.Process = proc
	return nil
}

// Discard drops a session without accounting for it, used when the spawn
// that followed Start failed.
func (t *Tracker) Discard(gameID, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[gameID]; ok && s.ID == sessionID {
		delete(t.sessions, gameID)
		metrics.SessionsActive.Dec()
		log.Debug().Str("game", gameID).Msg("session: discarded before spawn")
	}
}

func (t *Tracker) Status(gameID string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[gameID]
	if !ok {
		return Status{GameID: gameID}
	}
	started := s.StartTime
	return Status{
		GameID:         gameID,
		SessionID:      s.ID,
		Active:         true,
		ElapsedSeconds: elapsedSeconds(s.StartTime, t.clock.Now()),
		StartedAt:      &started,
		Pid:            s.Pid(),
	}
}

// Active lists running sessions, oldest first.
func (t *Tracker) Active() []Session {
	t.mu.Lock()
	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, *s)
	}
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b Session) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out
}

// Finalize ends whatever session gameID has. It is a no-op returning false
// when there is none.
func (t *Tracker) Finalize(gameID string) (Ended, bool) {
	t.mu.Lock()
	s, ok := t.sessions[gameID]
	if ok {
		delete(t.sessions, gameID)
	}
	t.mu.Unlock()

	if !ok {
		return Ended{}, false
	}
	return t.commit(s), true
}

// FinalizeSession ends the session only if it is still the one identified
// by sessionID. Exit observers use it so a late exit cannot close a newer
// launch of the same game.
func (t *Tracker) FinalizeSession(gameID, sessionID string) (Ended, bool) {
	t.mu.Lock()
	s, ok := t.sessions[gameID]
	if ok && s.ID == sessionID {
		delete(t.sessions, gameID)
	} else {
		ok = false
	}
	t.mu.Unlock()

	if !ok {
		return Ended{}, false
	}
	return t.commit(s), true
}

// FinalizeAll ends every running session. Safe to call repeatedly.
func (t *Tracker) FinalizeAll() []Ended {
	t.mu.Lock()
	pending := make([]*Session, 0, len(t.sessions))
	for id, s := range t.sessions {
		pending = append(pending, s)
		delete(t.sessions, id)
	}
	t.mu.Unlock()

	if len(pending) > 0 {
		log.Info().Int("sessions", len(pending)).Msg("session: finalizing all active sessions")
	}

	slices.SortFunc(pending, func(a, b *Session) int {
		return a.StartTime.Compare(b.StartTime)
	})
	out := make([]Ended, 0, len(pending))
	for _, s := range pending {
		out = append(out, t.commit(s))
	}
	return out
}

// commit runs outside the tracker lock; the store serializes the write.
func (t *Tracker) commit(s *Session) Ended {
	metrics.SessionsActive.Dec()
	now := t.clock.Now()
	ended := Ended{
		GameID:         s.GameID,
		SessionID:      s.ID,
		StartTime:      s.StartTime,
		EndTime:        now,
		ElapsedSeconds: elapsedSeconds(s.StartTime, now),
	}

	minSession := t.minSession()
	if time.Duration(ended.ElapsedSeconds)*time.Second < minSession {
		log.Info().
			Str("game", s.GameID).
			Int64("elapsed", ended.ElapsedSeconds).
			Msgf("session: shorter than %s, not counted", minSession)
		t.notify(ended)
		return ended
	}

	game, err := t.store.AddPlaytime(s.GameID, ended.ElapsedSeconds)
	switch {
	case errors.Is(err, library.ErrNotFound):
		log.Warn().Str("game", s.GameID).Msg("session: game removed while running, playtime dropped")
		t.notify(ended)
		return ended
	case err != nil && game.ID == "":
		log.Error().Err(err).Str("game", s.GameID).Msg("session: failed to record playtime")
		t.notify(ended)
		return ended
	case err != nil:
		// The store kept the update in memory; only the write failed.
		log.Error().Err(err).Str("game", s.GameID).Msg("session: playtime recorded but not persisted")
	}

	ended.Committed = true
	ended.TotalPlaytimeSeconds = game.TotalPlaytimeSeconds
	log.Info().
		Str("game", s.GameID).
		Int64("elapsed", ended.ElapsedSeconds).
		Int64("total", game.TotalPlaytimeSeconds).
		Msg("session: ended")
	t.notify(ended)
	return ended
}

func (t *Tracker) notify(e Ended) {
	if e.Committed {
		metrics.PlaytimeSeconds.Add(float64(e.ElapsedSeconds))
	} else {
		metrics.SessionsDiscarded.Inc()
	}
	if t.observer != nil {
		t.observer(e)
	}
}

// elapsedSeconds floors to whole seconds and never goes negative.
func elapsedSeconds(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
