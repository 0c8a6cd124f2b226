/*
Prism Core
Copyright (c) 2026 The Zaparoo Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Prism Core.

Prism Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Prism Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Prism Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package library owns the persisted game library. A Store is the only
// writer of the backing file: every mutation takes the store mutex, edits
// the in-memory document and rewrites the file before returning.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ZaparooProject/prism-core/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Store struct {
	fs       afero.Fs
	clock    clockwork.Clock
	validate *validator.Validate
	path     string
	doc      Document
	mu       syncutil.RWMutex
	// preserve is set when the file on disk could not be read or parsed.
	// It is moved aside, not overwritten, on the first successful write.
	preserve bool
}

// NewStore returns a store backed by path on fs. Call Load before use.
func NewStore(fs afero.Fs, path string, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		fs:       fs,
		clock:    clock,
		path:     path,
		validate: newValidator(),
		doc:      emptyDocument(),
	}
}

func emptyDocument() Document {
	return Document{Games: make([]Game, 0)}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the library from disk. A missing file is created empty. An
// unreadable or unparsable file leaves the store empty and untouched on
// disk; the returned error wraps ErrReadFailed or ErrParseFailed and the
// store remains usable.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = emptyDocument()
	s.preserve = false

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", s.path).Msg("library: no library file, creating empty library")
		return s.persistLocked()
	} else if err != nil {
		s.preserve = true
		log.Warn().Err(err).Str("path", s.path).Msg("library: failed to read library, starting empty")
		return fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.preserve = true
		log.Warn().Err(err).Str("path", s.path).Msg("library: library file is corrupt, starting empty")
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	s.doc = sanitize(doc)
	log.Info().Int("games", len(s.doc.Games)).Msg("library: loaded")
	return nil
}

// sanitize drops records with duplicate ids and a dangling lastPlayed.
func sanitize(doc Document) Document {
	out := Document{Games: make([]Game, 0, len(doc.Games))}
	seen := make(map[string]struct{}, len(doc.Games))
	for i := range doc.Games {
		g := doc.Games[i]
		if g.ID == "" {
			g.ID = uuid.NewString()
			log.Warn().Str("title", g.Title).Msg("library: assigned id to record without one")
		}
		if _, ok := seen[g.ID]; ok {
			log.Warn().Str("id", g.ID).Msg("library: dropping record with duplicate id")
			continue
		}
		seen[g.ID] = struct{}{}
		out.Games = append(out.Games, g)
	}
	if doc.LastPlayed != nil {
		if _, ok := seen[*doc.LastPlayed]; ok {
			id := *doc.LastPlayed
			out.LastPlayed = &id
		}
	}
	return out
}

// persistLocked writes the document to a temp file and renames it over the
// library. Caller must hold the write lock.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if s.preserve {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, s.clock.Now().Unix())
		err := s.fs.Rename(s.path, aside)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: moving unreadable library aside: %w", ErrWriteFailed, err)
		}
		if err == nil {
			log.Warn().Str("path", aside).Msg("library: previous library file kept for recovery")
		}
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	committed = true
	s.preserve = false
	return nil
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.doc.Games, func(g Game) bool {
		return g.ID == id
	})
}

// AddGame validates and appends a new record. The returned game is the
// stored copy even when persisting fails; in that case the error wraps
// ErrWriteFailed and the record stays in memory.
func (s *Store) AddGame(ng NewGame) (Game, error) {
	g := Game{
		ID:             ng.ID,
		Title:          ng.Title,
		ExecutablePath: ng.ExecutablePath,
		IconPath:       ng.IconPath,
	}
	if err := s.validateGame(&g); err != nil {
		return Game{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	} else if s.indexLocked(g.ID) >= 0 {
		return Game{}, fmt.Errorf("%w: %s", ErrDuplicateID, g.ID)
	}
	g.AddedAt = s.clock.Now().UTC()

	s.doc.Games = append(s.doc.Games, g)
	log.Info().Str("id", g.ID).Str("title", g.Title).Msg("library: added game")

	return g, s.persistLocked()
}

func (s *Store) UpdateGame(id string, patch Patch) (Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Game{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	g := s.doc.Games[i]
	if patch.Title != nil {
		g.Title = *patch.Title
	}
	if patch.ExecutablePath != nil {
		g.ExecutablePath = *patch.ExecutablePath
	}
	if patch.IconPath != nil {
		g.IconPath = *patch.IconPath
	}
	if err := s.validateGame(&g); err != nil {
		return Game{}, err
	}

	s.doc.Games[i] = g
	return g, s.persistLocked()
}

// RemoveGame deletes a record and clears lastPlayed if it pointed at it.
// The removed record is returned so callers can clean up its icon.
func (s *Store) RemoveGame(id string) (Game, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Game{}, false, nil
	}

	removed := s.doc.Games[i]
	s.doc.Games = slices.Delete(s.doc.Games, i, i+1)
	if s.doc.LastPlayed != nil && *s.doc.LastPlayed == id {
		s.doc.LastPlayed = nil
	}
	log.Info().Str("id", id).Str("title", removed.Title).Msg("library: removed game")

	return removed, true, s.persistLocked()
}

// RecordPlay marks a successful launch: playCount+1, lastPlayedAt=now and
// the library's lastPlayed pointer.
func (s *Store) RecordPlay(id string) (Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Game{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := s.clock.Now().UTC()
	g := &s.doc.Games[i]
	g.LastPlayedAt = &now
	g.PlayCount++
	last := id
	s.doc.LastPlayed = &last

	return *g, s.persistLocked()
}

func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.doc.Games[i].Favorite = !s.doc.Games[i].Favorite
	return s.doc.Games[i].Favorite, s.persistLocked()
}

// AddPlaytime is the only path that increases totalPlaytimeSeconds.
func (s *Store) AddPlaytime(id string, seconds int64) (Game, error) {
	if seconds < 0 {
		return Game{}, fmt.Errorf("%w: %d", ErrInvalidPlaytime, seconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Game{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.doc.Games[i].TotalPlaytimeSeconds += seconds
	return s.doc.Games[i], s.persistLocked()
}

// Snapshot returns a deep enough copy of the document for serialization.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := Document{Games: slices.Clone(s.doc.Games)}
	if s.doc.LastPlayed != nil {
		id := *s.doc.LastPlayed
		doc.LastPlayed = &id
	}
	return doc
}
