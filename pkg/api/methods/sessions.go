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
	"errors"
	"fmt"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/api/models/requests"
	"github.com/ZaparooProject/prism-core/pkg/api/validation"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/rs/zerolog/log"
)

var ErrHistoryUnavailable = errors.New("session history is unavailable")

//nolint:gocritic // single-use parameter in API handler
func HandleLaunch(env requests.RequestEnv) (any, error) {
	var params models.GameIDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	log.Info().Str("gameId", params.GameID).Msg("received launch request")

	res, err := env.Core.Launch(env.Context, params.GameID)
	if err != nil {
		return nil, err //nolint:wrapcheck // launch errors are already descriptive
	}

	return models.LaunchResponse{
		GameID:    res.GameID,
		SessionID: res.SessionID,
		Pid:       res.Pid,
	}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleSessionStatus(env requests.RequestEnv) (any, error) {
	var params models.GameIDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return env.Core.Sessions().Status(params.GameID), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleSessions(env requests.RequestEnv) (any, error) {
	tracker := env.Core.Sessions()
	active := tracker.Active()

	resp := models.SessionsResponse{Sessions: make([]session.Status, 0, len(active))}
	for _, s := range active {
		resp.Sessions = append(resp.Sessions, tracker.Status(s.GameID))
	}
	return resp, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleSessionsHistory(env requests.RequestEnv) (any, error) {
	var params models.HistoryParams
	if err := validation.UnmarshalOptional(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	db := env.Core.History()
	if db == nil {
		return nil, ErrHistoryUnavailable
	}

	entries, err := db.List(params.GameID, params.Limit)
	if err != nil {
		log.Error().Err(err).Msg("error reading session history")
		return nil, errors.New("error reading session history")
	}
	return models.HistoryResponse{Entries: entries}, nil
}
