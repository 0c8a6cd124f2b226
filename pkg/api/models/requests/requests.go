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

package requests

import (
	"context"
	"encoding/json"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/history"
	"github.com/ZaparooProject/prism-core/pkg/icons"
	"github.com/ZaparooProject/prism-core/pkg/launcher"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/session"
)

// Core is what API methods need from the running service. Mutations go
// through it rather than the store so change notifications are sent.
type Core interface {
	Library() *library.Store
	Sessions() *session.Tracker
	Icons() *icons.Resolver
	// History may return nil when the history database failed to open.
	History() *history.DB
	Launch(ctx context.Context, gameID string) (launcher.Result, error)
	AddGame(ctx context.Context, ng library.NewGame, extractIcon bool) (library.Game, error)
	UpdateGame(id string, patch library.Patch) (library.Game, error)
	RemoveGame(id string) (bool, error)
	ToggleFavorite(id string) (bool, error)
}

type RequestEnv struct {
	Context context.Context
	Config  *config.Instance
	Core    Core
	Params  json.RawMessage
	ID      models.RPCID
	IsLocal bool
}
