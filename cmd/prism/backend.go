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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api/client"
	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/service"
	"github.com/ZaparooProject/prism-core/pkg/session"
)

// sessionPollInterval is how long the remote backend waits for a
// session.ended notification before checking the session status itself.
const sessionPollInterval = 5 * time.Second

var (
	// errSessionDrained means the session was finalized by a shutdown
	// rather than by the game exiting.
	errSessionDrained = errors.New("session was finalized by shutdown")
	// errSessionUnobserved means the session ended while no notification
	// listener was connected.
	errSessionUnobserved = errors.New("session ended without a notification")
)

// backend is what commands use to reach the library, either in-process or
// through a running service.
type backend interface {
	call(ctx context.Context, method string, params, out any) error
	// launch starts the game, reports the spawn through started and then
	// blocks until the session ends.
	launch(ctx context.Context, gameID string, started func(models.LaunchResponse)) (session.Ended, error)
}

type localBackend struct {
	core *service.Core
}

func (b *localBackend) call(ctx context.Context, method string, params, out any) error {
	return dispatchLocal(ctx, b.core, method, params, out)
}

func (b *localBackend) launch(
	ctx context.Context,
	gameID string,
	started func(models.LaunchResponse),
) (session.Ended, error) {
	res, err := b.core.Launch(ctx, gameID)
	if err != nil {
		return session.Ended{}, err //nolint:wrapcheck // launch errors are already descriptive
	}
	started(models.LaunchResponse{GameID: res.GameID, SessionID: res.SessionID, Pid: res.Pid})

	select {
	case e, ok := <-res.Done:
		if !ok {
			return session.Ended{GameID: gameID}, errSessionDrained
		}
		return e, nil
	case <-ctx.Done():
		return session.Ended{GameID: gameID}, ctx.Err()
	}
}

type remoteBackend struct {
	client client.APIClient
}

func (b *remoteBackend) call(ctx context.Context, method string, params, out any) error {
	raw, err := encodeParams(params)
	if err != nil {
		return err
	}
	resp, err := b.client.Call(ctx, method, string(raw))
	if err != nil {
		return err //nolint:wrapcheck // client errors carry their own context
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(resp), out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

// launch waits for the matching session.ended notification. A notification
// can be missed between the launch call and the listener connecting, so
// every poll interval without one the session status is checked directly.
func (b *remoteBackend) launch(
	ctx context.Context,
	gameID string,
	started func(models.LaunchResponse),
) (session.Ended, error) {
	var resp models.LaunchResponse
	if err := b.call(ctx, models.MethodLaunch, models.GameIDParams{GameID: gameID}, &resp); err != nil {
		return session.Ended{}, err
	}
	started(resp)

	for {
		params, err := b.client.WaitNotification(ctx, sessionPollInterval, models.NotificationSessionEnded)
		if err == nil {
			var e session.Ended
			if err := json.Unmarshal([]byte(params), &e); err != nil {
				return session.Ended{}, fmt.Errorf("failed to decode session.ended: %w", err)
			}
			if e.GameID == gameID {
				return e, nil
			}
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return session.Ended{GameID: gameID}, ctxErr
		}
		if !errors.Is(err, client.ErrRequestTimeout) {
			return session.Ended{}, err //nolint:wrapcheck // client errors carry their own context
		}

		var status session.Status
		err = b.call(ctx, models.MethodSessionStatus, models.GameIDParams{GameID: gameID}, &status)
		if err != nil {
			return session.Ended{}, err
		}
		if !status.Active {
			return session.Ended{GameID: gameID}, errSessionUnobserved
		}
	}
}
