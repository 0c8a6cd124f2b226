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

package config

import (
	"fmt"
	"time"
)

// DefaultMinSession is the shortest run that counts towards playtime.
// Anything shorter is treated as a crash or an instant close.
const DefaultMinSession = 5 * time.Second

// DefaultHistoryDays is how long finished sessions stay in the history
// database.
const DefaultHistoryDays = 365

// Playtime configures session accounting.
type Playtime struct {
	HistoryDays   *int   `toml:"history_days,omitempty"`
	MinSession    string `toml:"min_session,omitempty"`
	TrackChildren bool   `toml:"track_children,omitempty"`
}

// TrackChildren keeps a session open while processes started by the game
// are still running, for launchers that exit right after starting it.
func (c *Instance) TrackChildren() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Playtime.TrackChildren
}

func (c *Instance) SetTrackChildren(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Playtime.TrackChildren = enabled
}

// MinSessionDuration returns the minimum session length that is committed
// to the library. Falls back to DefaultMinSession when unset or invalid.
func (c *Instance) MinSessionDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Playtime.MinSession == "" {
		return DefaultMinSession
	}
	d, err := time.ParseDuration(c.vals.Playtime.MinSession)
	if err != nil || d < 0 {
		return DefaultMinSession
	}
	return d
}

// SetMinSessionDuration sets the minimum session length from a duration
// string (e.g. "10s"). Pass an empty string to restore the default.
func (c *Instance) SetMinSessionDuration(duration string) error {
	if duration != "" {
		d, err := time.ParseDuration(duration)
		if err != nil {
			return fmt.Errorf("invalid min session duration: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("invalid min session duration: %s is negative", duration)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Playtime.MinSession = duration
	return nil
}

// HistoryRetention is the age after which session history is pruned at
// startup. Zero means history is kept forever.
func (c *Instance) HistoryRetention() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	days := DefaultHistoryDays
	if c.vals.Playtime.HistoryDays != nil {
		days = *c.vals.Playtime.HistoryDays
	}
	if days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *Instance) SetHistoryDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Playtime.HistoryDays = &days
}
