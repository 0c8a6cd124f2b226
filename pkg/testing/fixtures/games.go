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

// Package fixtures provides sample library data and a Core backed by real
// in-memory components for API and CLI tests.
package fixtures

import (
	"time"

	"github.com/ZaparooProject/prism-core/pkg/library"
)

// Epoch is the fake clock start used across fixtures.
var Epoch = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func HollowKnight() library.NewGame {
	return library.NewGame{
		Title:          "Hollow Knight",
		ExecutablePath: `C:\Games\Hollow Knight\hollow_knight.exe`,
	}
}

func Celeste() library.NewGame {
	return library.NewGame{
		Title:          "Celeste",
		ExecutablePath: `C:\Games\Celeste\Celeste.exe`,
	}
}

func Hades() library.NewGame {
	return library.NewGame{
		Title:          "Hades",
		ExecutablePath: `D:\SteamLibrary\steamapps\common\Hades\x64\Hades.exe`,
	}
}

func SampleGames() []library.NewGame {
	return []library.NewGame{HollowKnight(), Celeste(), Hades()}
}
