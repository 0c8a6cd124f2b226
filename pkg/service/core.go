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

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/api/notifications"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/icons"
	"github.com/ZaparooProject/prism-core/pkg/launcher"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/rs/zerolog/log"
)

func (c *Core) checkRunning() error {
	if !c.running.Load() {
		return ErrNotStarted
	}
	return nil
}

// Launch starts the game's executable and records the play once the spawn
// succeeded. A write failure while recording is logged; the game is
// running either way.
func (c *Core) Launch(ctx context.Context, gameID string) (launcher.Result, error) {
	c.launchMu.RLock()
	defer c.launchMu.RUnlock()

	if err := c.checkRunning(); err != nil {
		return launcher.Result{}, err
	}

	g, ok := c.store.Get(gameID)
	if !ok {
		return launcher.Result{}, fmt.Errorf("%w: %s", library.ErrNotFound, gameID)
	}

	res, err := c.launcher.Launch(ctx, g.ExecutablePath, g.ID)
	if err != nil {
		return launcher.Result{}, fmt.Errorf("failed to launch %q: %w", g.Title, err)
	}

	if _, err := c.store.RecordPlay(g.ID); err != nil {
		log.Error().Err(err).Str("game", g.ID).Msg("service: failed to record play")
	}

	notifications.SessionStarted(c.ns, models.LaunchResponse{
		GameID:    res.GameID,
		SessionID: res.SessionID,
		Pid:       res.Pid,
	})
	notifications.LibraryChanged(c.ns, models.LibraryActionPlayed, g.ID)
	return res, nil
}

// AddGame creates a library record. An empty title is derived from the
// executable's filename. When extractIcon is set and no icon path was
// given, the icon chain runs first and its generated id becomes the
// record id so the cached PNG and the record share a name.
func (c *Core) AddGame(ctx context.Context, ng library.NewGame, extractIcon bool) (library.Game, error) {
	if err := c.checkRunning(); err != nil {
		return library.Game{}, err
	}

	if ng.Title == "" {
		ng.Title = helpers.TitleFromPath(ng.ExecutablePath)
	}

	extracted := ""
	if extractIcon && ng.IconPath == "" {
		res, err := c.resolver.Extract(ctx, ng.ExecutablePath)
		if err != nil {
			return library.Game{}, fmt.Errorf("icon extraction interrupted: %w", err)
		}
		if res.Success {
			ng.ID = res.GameID
			ng.IconPath = res.IconPath
			extracted = res.IconPath
		}
	}

	g, err := c.store.AddGame(ng)
	if g.ID == "" {
		if extracted != "" {
			if rmErr := c.resolver.Remove(extracted); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", extracted).Msg("service: failed to remove unused icon")
			}
		}
		return library.Game{}, fmt.Errorf("failed to add game: %w", err)
	}

	notifications.LibraryChanged(c.ns, models.LibraryActionAdded, g.ID)
	if err != nil {
		return g, fmt.Errorf("game added but not saved: %w", err)
	}
	return g, nil
}

func (c *Core) UpdateGame(id string, patch library.Patch) (library.Game, error) {
	if err := c.checkRunning(); err != nil {
		return library.Game{}, err
	}

	g, err := c.store.UpdateGame(id, patch)
	if g.ID == "" {
		return library.Game{}, fmt.Errorf("failed to update game: %w", err)
	}

	notifications.LibraryChanged(c.ns, models.LibraryActionUpdated, g.ID)
	if err != nil {
		return g, fmt.Errorf("game updated but not saved: %w", err)
	}
	return g, nil
}

// RemoveGame deletes the record and then its cached icon. Removing an
// unknown id is not an error.
func (c *Core) RemoveGame(id string) (bool, error) {
	if err := c.checkRunning(); err != nil {
		return false, err
	}

	removed, ok, err := c.store.RemoveGame(id)
	if !ok {
		return false, nil
	}

	if removed.IconPath != "" {
		rmErr := c.resolver.Remove(removed.IconPath)
		if rmErr != nil && !errors.Is(rmErr, icons.ErrOutsideIconsDir) {
			log.Warn().Err(rmErr).Str("path", removed.IconPath).Msg("service: failed to remove icon")
		}
	}

	notifications.LibraryChanged(c.ns, models.LibraryActionRemoved, id)
	if err != nil {
		return true, fmt.Errorf("game removed but not saved: %w", err)
	}
	return true, nil
}

func (c *Core) ToggleFavorite(id string) (bool, error) {
	if err := c.checkRunning(); err != nil {
		return false, err
	}

	fav, err := c.store.ToggleFavorite(id)
	if errors.Is(err, library.ErrNotFound) {
		return false, err //nolint:wrapcheck // sentinel from the store
	}

	notifications.LibraryChanged(c.ns, models.LibraryActionFavorite, id)
	if err != nil {
		return fav, fmt.Errorf("favorite changed but not saved: %w", err)
	}
	return fav, nil
}
