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
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder selects the ordering used by Sorted.
type SortOrder string

const (
	SortName     SortOrder = "name"
	SortRecent   SortOrder = "recent"
	SortPlaytime SortOrder = "playtime"
	SortAdded    SortOrder = "added"
)

const (
	fuzzyMinQueryRunes = 3
	fuzzyMinSimilarity = float32(0.8)
)

func (s *Store) Get(id string) (Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Game{}, false
	}
	return s.doc.Games[i], true
}

// List returns every game in insertion order.
func (s *Store) List() []Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.Games)
}

func (s *Store) LastPlayed() (Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc.LastPlayed == nil {
		return Game{}, false
	}
	i := s.indexLocked(*s.doc.LastPlayed)
	if i < 0 {
		return Game{}, false
	}
	return s.doc.Games[i], true
}

func (s *Store) filter(keep func(*Game) bool) []Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Game, 0)
	for i := range s.doc.Games {
		if keep(&s.doc.Games[i]) {
			out = append(out, s.doc.Games[i])
		}
	}
	return out
}

// Search matches titles case-insensitively by substring. An empty query
// returns everything. When nothing matches a query of 3 or more runes,
// titles are ranked by Jaro-Winkler similarity instead.
func (s *Store) Search(query string) []Game {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.List()
	}

	matches := s.filter(func(g *Game) bool {
		return strings.Contains(strings.ToLower(g.Title), q)
	})
	if len(matches) > 0 || utf8.RuneCountInString(q) < fuzzyMinQueryRunes {
		return matches
	}

	type scored struct {
		game  Game
		score float32
	}
	var ranked []scored
	for _, g := range s.List() {
		score := edlib.JaroWinklerSimilarity(q, strings.ToLower(g.Title))
		if score >= fuzzyMinSimilarity {
			ranked = append(ranked, scored{game: g, score: score})
		}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	out := make([]Game, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.game)
	}
	log.Debug().Str("query", q).Int("matches", len(out)).Msg("library: fuzzy search fallback")
	return out
}

func (s *Store) Favorites() []Game {
	return s.filter(func(g *Game) bool { return g.Favorite })
}

// RecentlyPlayed returns played games, most recent first.
func (s *Store) RecentlyPlayed() []Game {
	games := s.filter(func(g *Game) bool { return g.LastPlayedAt != nil })
	slices.SortStableFunc(games, func(a, b Game) int {
		return b.LastPlayedAt.Compare(*a.LastPlayedAt)
	})
	return games
}

// ByPlaytime returns every game ordered by total playtime, highest first.
func (s *Store) ByPlaytime() []Game {
	games := s.List()
	slices.SortStableFunc(games, byPlaytimeDesc)
	return games
}

func byPlaytimeDesc(a, b Game) int {
	return cmp.Compare(b.TotalPlaytimeSeconds, a.TotalPlaytimeSeconds)
}

func lastPlayedUnix(g *Game) int64 {
	if g.LastPlayedAt == nil {
		return 0
	}
	return g.LastPlayedAt.UnixNano()
}

// Sorted returns every game in the requested order. Ties keep insertion
// order.
func (s *Store) Sorted(order SortOrder) ([]Game, error) {
	games := s.List()
	switch order {
	case SortName, "":
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(games, func(a, b Game) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortRecent:
		slices.SortStableFunc(games, func(a, b Game) int {
			return cmp.Compare(lastPlayedUnix(&b), lastPlayedUnix(&a))
		})
	case SortPlaytime:
		slices.SortStableFunc(games, byPlaytimeDesc)
	case SortAdded:
		slices.SortStableFunc(games, func(a, b Game) int {
			return b.AddedAt.Compare(a.AddedAt)
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, order)
	}
	return games, nil
}

func (s *Store) Stats() Stats {
	games := s.List()
	st := Stats{TotalGames: len(games)}
	for i := range games {
		st.TotalPlaytimeSeconds += games[i].TotalPlaytimeSeconds
		st.TotalSessions += games[i].PlayCount
	}
	slices.SortStableFunc(games, byPlaytimeDesc)
	st.MostPlayed = games
	return st
}
