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

package methods

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/api/models/requests"
	"github.com/ZaparooProject/prism-core/pkg/api/validation"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleLibrary(env requests.RequestEnv) (any, error) {
	var params models.LibraryParams
	if err := validation.UnmarshalOptional(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	store := env.Core.Library()
	resp := models.LibraryResponse{LastPlayed: store.Snapshot().LastPlayed}
	if params.Sort == "" {
		resp.Games = store.List()
		return resp, nil
	}

	games, err := store.Sorted(library.SortOrder(params.Sort))
	if err != nil {
		return nil, err //nolint:wrapcheck // sentinel from the store
	}
	resp.Games = games
	return resp, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibraryGet(env requests.RequestEnv) (any, error) {
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	g, ok := env.Core.Library().Get(params.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", library.ErrNotFound, params.ID)
	}
	return g, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibraryAdd(env requests.RequestEnv) (any, error) {
	var params models.AddGameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	log.Info().Str("path", params.ExecutablePath).Msg("received library add request")

	ng := library.NewGame{ExecutablePath: params.ExecutablePath}
	if params.Title != nil {
		ng.Title = *params.Title
	}
	if params.IconPath != nil {
		ng.IconPath = *params.IconPath
	}
	extract := ng.IconPath == "" && (params.ExtractIcon == nil || *params.ExtractIcon)

	return env.Core.AddGame(env.Context, ng, extract) //nolint:wrapcheck // core errors are sentinels
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibraryUpdate(env requests.RequestEnv) (any, error) {
	var params models.UpdateGameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	return env.Core.UpdateGame(params.ID, library.Patch{ //nolint:wrapcheck // core errors are sentinels
		Title:          params.Title,
		ExecutablePath: params.ExecutablePath,
		IconPath:       params.IconPath,
	})
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibraryRemove(env requests.RequestEnv) (any, error) {
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	log.Info().Str("id", params.ID).Msg("received library remove request")

	removed, err := env.Core.RemoveGame(params.ID)
	if err != nil {
		return nil, err //nolint:wrapcheck // core errors are sentinels
	}
	return models.RemoveResponse{Removed: removed}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibraryFavorite(env requests.RequestEnv) (any, error) {
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	fav, err := env.Core.ToggleFavorite(params.ID)
	if err != nil {
		return nil, err //nolint:wrapcheck // core errors are sentinels
	}
	return models.FavoriteResponse{Favorite: fav}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibrarySearch(env requests.RequestEnv) (any, error) {
	var params models.SearchParams
	if err := validation.UnmarshalOptional(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return models.GamesResponse{Games: env.Core.Library().Search(params.Query)}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibraryStats(env requests.RequestEnv) (any, error) {
	return env.Core.Library().Stats(), nil
}

// HandleLibraryScan adds every executable under a directory that is not in
// the library yet. A game that fails to add is logged and counted; the
// scan carries on with the rest.
//
//nolint:gocritic // single-use parameter in API handler
func HandleLibraryScan(env requests.RequestEnv) (any, error) {
	var params models.ScanParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	log.Info().Str("path", params.Path).Msg("received library scan request")

	found, err := library.FindExecutables(params.Path, params.Extensions)
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped with the path
	}
	fresh := env.Core.Library().UnknownPaths(found)
	extract := params.ExtractIcon == nil || *params.ExtractIcon

	resp := models.ScanResponse{
		Added:   make([]library.Game, 0, len(fresh)),
		Found:   len(found),
		Skipped: len(found) - len(fresh),
	}
	for _, path := range fresh {
		if err := env.Context.Err(); err != nil {
			return nil, fmt.Errorf("scan interrupted: %w", err)
		}
		g, err := env.Core.AddGame(env.Context, library.NewGame{ExecutablePath: path}, extract)
		switch {
		case g.ID != "":
			resp.Added = append(resp.Added, g)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("scan: game added but not saved")
			}
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("scan interrupted: %w", err)
		default:
			resp.Failed++
			log.Warn().Err(err).Str("path", path).Msg("scan: failed to add game")
		}
	}

	log.Info().
		Int("found", resp.Found).
		Int("added", len(resp.Added)).
		Int("failed", resp.Failed).
		Msg("library scan finished")
	return resp, nil
}
