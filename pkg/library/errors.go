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

import "errors"

var (
	ErrNotFound        = errors.New("game not found")
	ErrInvalidGame     = errors.New("invalid game")
	ErrDuplicateID     = errors.New("duplicate game id")
	ErrInvalidPlaytime = errors.New("playtime must not be negative")
	ErrInvalidSort     = errors.New("unknown sort order")
	ErrReadFailed      = errors.New("failed to read library")
	ErrParseFailed     = errors.New("failed to parse library")
	ErrWriteFailed     = errors.New("failed to write library")
)
