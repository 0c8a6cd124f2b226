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
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
)

type exportRow struct {
	ID                   string `csv:"id"`
	Title                string `csv:"title"`
	ExecutablePath       string `csv:"executable_path"`
	AddedAt              string `csv:"added_at"`
	LastPlayedAt         string `csv:"last_played_at"`
	PlayCount            int    `csv:"play_count"`
	TotalPlaytimeSeconds int64  `csv:"total_playtime_seconds"`
	Favorite             bool   `csv:"favorite"`
}

// ExportCSV writes one row per game, in insertion order.
func (s *Store) ExportCSV(w io.Writer) error {
	return WriteCSV(w, s.List())
}

// WriteCSV writes games as CSV with a header row.
func WriteCSV(w io.Writer, games []Game) error {
	rows := make([]*exportRow, 0, len(games))
	for i := range games {
		g := &games[i]
		row := &exportRow{
			ID:                   g.ID,
			Title:                g.Title,
			ExecutablePath:       g.ExecutablePath,
			AddedAt:              g.AddedAt.Format(time.RFC3339),
			PlayCount:            g.PlayCount,
			TotalPlaytimeSeconds: g.TotalPlaytimeSeconds,
			Favorite:             g.Favorite,
		}
		if g.LastPlayedAt != nil {
			row.LastPlayedAt = g.LastPlayedAt.Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to export library: %w", err)
	}
	return nil
}
