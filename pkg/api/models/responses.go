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

package models

import (
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/history"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/session"
)

type LaunchResponse struct {
	GameID    string `json:"gameId"`
	SessionID string `json:"sessionId"`
	Pid       int    `json:"pid"`
}

type SessionsResponse struct {
	Sessions []session.Status `json:"sessions"`
}

type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

type LibraryResponse struct {
	LastPlayed *string        `json:"lastPlayed"`
	Games      []library.Game `json:"games"`
}

type GamesResponse struct {
	Games []library.Game `json:"games"`
}

type ScanResponse struct {
	Added   []library.Game `json:"added"`
	Found   int            `json:"found"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
}

type RemoveResponse struct {
	Removed bool `json:"removed"`
}

type FavoriteResponse struct {
	Favorite bool `json:"favorite"`
}

type SettingsResponse struct {
	config.BehaviorSnapshot
	MinSession   string `json:"minSession"`
	DebugLogging bool   `json:"debugLogging"`
}

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

type LibraryChangedPayload struct {
	Action string `json:"action"`
	GameID string `json:"gameId"`
}

const (
	LibraryActionAdded    = "added"
	LibraryActionUpdated  = "updated"
	LibraryActionRemoved  = "removed"
	LibraryActionFavorite = "favorite"
	LibraryActionPlayed   = "played"
)
