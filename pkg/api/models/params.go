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

type GameIDParams struct {
	GameID string `json:"gameId" validate:"required"`
}

type IDParams struct {
	ID string `json:"id" validate:"required"`
}

type ExtractIconParams struct {
	Path string `json:"path" validate:"required,abspath"`
}

type LibraryParams struct {
	Sort string `json:"sort" validate:"omitempty,oneof=name recent playtime added"`
}

type AddGameParams struct {
	Title          *string `json:"title" validate:"omitempty,max=256"`
	IconPath       *string `json:"iconPath" validate:"omitempty,abspath"`
	ExtractIcon    *bool   `json:"extractIcon"`
	ExecutablePath string  `json:"executablePath" validate:"required,abspath"`
}

type UpdateGameParams struct {
	Title          *string `json:"title" validate:"omitempty,min=1,max=256"`
	ExecutablePath *string `json:"executablePath" validate:"omitempty,abspath"`
	IconPath       *string `json:"iconPath" validate:"omitempty,abspath"`
	ID             string  `json:"id" validate:"required"`
}

type SearchParams struct {
	Query string `json:"query" validate:"max=256"`
}

type HistoryParams struct {
	GameID string `json:"gameId"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=1000"`
}

type ScanParams struct {
	ExtractIcon *bool    `json:"extractIcon"`
	Path        string   `json:"path" validate:"required,abspath"`
	Extensions  []string `json:"extensions" validate:"omitempty,max=16,dive,min=1,max=16"`
}
