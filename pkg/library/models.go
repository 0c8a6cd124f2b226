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

package library

import (
	"encoding/json"
	"fmt"
	"time"
)

// Game is one tracked title.
type Game struct {
	AddedAt              time.Time
	LastPlayedAt         *time.Time
	ID                   string
	Title                string `validate:"required,max=256"`
	ExecutablePath       string `validate:"required,abspath"`
	IconPath             string
	PlayCount            int
	TotalPlaytimeSeconds int64
	Favorite             bool
}

// Document is the persisted library aggregate. Games keep insertion order.
type Document struct {
	Games      []Game  `json:"games"`
	LastPlayed *string `json:"lastPlayed"`
}

// NewGame holds the fields supplied when a title is added. ID may be set
// when an icon was already extracted under a generated id.
type NewGame struct {
	ID             string
	Title          string
	ExecutablePath string
	IconPath       string
}

// Patch is a partial update. Nil fields are left unchanged; an empty
// IconPath clears the icon.
type Patch struct {
	Title          *string `json:"title,omitempty"`
	ExecutablePath *string `json:"executablePath,omitempty"`
	IconPath       *string `json:"iconPath,omitempty"`
}

type gameJSON struct {
	AddedAt              time.Time  `json:"addedAt"`
	LastPlayedAt         *time.Time `json:"lastPlayedAt"`
	IconPath             *string    `json:"iconPath"`
	TotalPlaytime        *int64     `json:"totalPlaytime,omitempty"`
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	ExecutablePath       string     `json:"executablePath"`
	ExePath              string     `json:"exePath,omitempty"`
	PlayCount            int        `json:"playCount"`
	TotalPlaytimeSeconds int64      `json:"totalPlaytimeSeconds"`
	Favorite             bool       `json:"favorite"`
}

func (g Game) MarshalJSON() ([]byte, error) {
	out := gameJSON{
		ID:                   g.ID,
		Title:                g.Title,
		ExecutablePath:       g.ExecutablePath,
		AddedAt:              g.AddedAt,
		LastPlayedAt:         g.LastPlayedAt,
		PlayCount:            g.PlayCount,
		TotalPlaytimeSeconds: g.TotalPlaytimeSeconds,
		Favorite:             g.Favorite,
	}
	if g.IconPath != "" {
		icon := g.IconPath
		out.IconPath = &icon
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game: %w", err)
	}
	return b, nil
}

// UnmarshalJSON also accepts the exePath and totalPlaytime keys written by
// older releases.
func (g *Game) UnmarshalJSON(data []byte) error {
	var in gameJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to unmarshal game: %w", err)
	}

	*g = Game{
		ID:                   in.ID,
		Title:                in.Title,
		ExecutablePath:       in.ExecutablePath,
		AddedAt:              in.AddedAt,
		LastPlayedAt:         in.LastPlayedAt,
		PlayCount:            in.PlayCount,
		TotalPlaytimeSeconds: in.TotalPlaytimeSeconds,
		Favorite:             in.Favorite,
	}
	if in.IconPath != nil {
		g.IconPath = *in.IconPath
	}
	if g.ExecutablePath == "" {
		g.ExecutablePath = in.ExePath
	}
	if g.TotalPlaytimeSeconds == 0 && in.TotalPlaytime != nil {
		g.TotalPlaytimeSeconds = *in.TotalPlaytime
	}
	if g.PlayCount < 0 {
		g.PlayCount = 0
	}
	if g.TotalPlaytimeSeconds < 0 {
		g.TotalPlaytimeSeconds = 0
	}
	return nil
}

// Stats aggregates playtime across the library.
type Stats struct {
	MostPlayed           []Game `json:"mostPlayed"`
	TotalPlaytimeSeconds int64  `json:"totalPlaytimeSeconds"`
	TotalSessions        int    `json:"totalSessions"`
	TotalGames           int    `json:"totalGames"`
}
