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

// Package history keeps a log of finished play sessions in a bbolt
// database next to the library. The library only stores totals; this is
// where individual sessions can be looked up afterwards.
package history

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/helpers/syncutil"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketSessions = "sessions"
	DefaultLimit   = 50
	openTimeout    = time.Second
)

var ErrClosed = errors.New("history database is closed")

type Entry struct {
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	SessionID      string    `json:"sessionId"`
	GameID         string    `json:"gameId"`
	ElapsedSeconds int64     `json:"elapsedSeconds"`
	Committed      bool      `json:"committed"`
}

func EntryFromEnded(e session.Ended) Entry {
	return Entry{
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		SessionID:      e.SessionID,
		GameID:         e.GameID,
		ElapsedSeconds: e.ElapsedSeconds,
		Committed:      e.Committed,
	}
}

// DB is safe for concurrent use; Close waits for in-flight calls.
type DB struct {
	bdb *bolt.DB
	mu  syncutil.RWMutex
}

func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketSessions))
		return err //nolint:wrapcheck // wrapped below
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	return &DB{bdb: bdb}, nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bdb == nil {
		return nil
	}
	if err := d.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	d.bdb = nil
	return nil
}

// entryKey orders entries by end time. The session id suffix keeps two
// sessions ending in the same nanosecond apart.
func entryKey(e *Entry) []byte {
	key := make([]byte, 8, 8+len(e.SessionID))
	binary.BigEndian.PutUint64(key, uint64(e.EndTime.UnixNano())) //nolint:gosec // times before 1970 are not recorded
	return append(key, e.SessionID...)
}

func (d *DB) Record(e Entry) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.bdb == nil {
		return ErrClosed
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	err = d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketSessions)).Put(entryKey(&e), data)
	})
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. An empty gameID lists
// every game.
func (d *DB) List(gameID string, limit int) ([]Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.bdb == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	entries := make([]Entry, 0)
	err := d.bdb.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(BucketSessions)).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				log.Warn().Err(err).Msg("history: skipping unreadable entry")
				continue
			}
			if gameID != "" && e.GameID != gameID {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return entries, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Cleanup deletes entries that ended before cutoff and returns how many
// were removed.
func (d *DB) Cleanup(cutoff time.Time) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.bdb == nil {
		return 0, ErrClosed
	}

	bound := make([]byte, 8)
	binary.BigEndian.PutUint64(bound, uint64(cutoff.UnixNano())) //nolint:gosec // see entryKey

	var removed int
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(BucketSessions)).Cursor()
		for k, _ := c.First(); k != nil && bytes.Compare(k, bound) < 0; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err //nolint:wrapcheck // wrapped below
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clean up history: %w", err)
	}
	return removed, nil
}
