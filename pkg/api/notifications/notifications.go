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

package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/rs/zerolog/log"
)

// sendNotification marshals payload and queues it without blocking. A
// full queue drops the notification.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("notifications: failed to marshal payload")
			return
		}
		params = data
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notifications: queue full, dropping notification")
	}
}

func SessionStarted(ns chan<- models.Notification, payload models.LaunchResponse) {
	sendNotification(ns, models.NotificationSessionStarted, payload)
}

func SessionEnded(ns chan<- models.Notification, payload session.Ended) {
	sendNotification(ns, models.NotificationSessionEnded, payload)
}

func LibraryChanged(ns chan<- models.Notification, action, gameID string) {
	sendNotification(ns, models.NotificationLibraryChanged, models.LibraryChangedPayload{
		Action: action,
		GameID: gameID,
	})
}
