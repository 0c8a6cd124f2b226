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

package notify

import (
	"encoding/json"
	"testing"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	bodies []string
}

func (r *recordingSender) Send(_, body string) error {
	r.bodies = append(r.bodies, body)
	return nil
}

func newTestConfig(t *testing.T) *config.Instance {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}

func endedNotification(t *testing.T, e session.Ended) models.Notification {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return models.Notification{Method: models.NotificationSessionEnded, Params: data}
}

func lookup(id string) (string, bool) {
	if id == "hk" {
		return "Hollow Knight", true
	}
	return "", false
}

func TestMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hollow Knight: session ended (2h 5m played)", Message("Hollow Knight", 7500))
	assert.Equal(t, "Celeste: session ended (12m played)", Message("Celeste", 750))
	assert.Equal(t, "Celeste: session ended (42s played)", Message("Celeste", 42))
}

func TestHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		notif   func(t *testing.T) models.Notification
		enabled bool
		want    []string
	}{
		{
			name: "committed session",
			notif: func(t *testing.T) models.Notification {
				return endedNotification(t, session.Ended{GameID: "hk", ElapsedSeconds: 720, Committed: true})
			},
			enabled: true,
			want:    []string{"Hollow Knight: session ended (12m played)"},
		},
		{
			name: "unknown game",
			notif: func(t *testing.T) models.Notification {
				return endedNotification(t, session.Ended{GameID: "gone", ElapsedSeconds: 30, Committed: true})
			},
			enabled: true,
			want:    []string{"Unknown Game: session ended (30s played)"},
		},
		{
			name: "disabled",
			notif: func(t *testing.T) models.Notification {
				return endedNotification(t, session.Ended{GameID: "hk", ElapsedSeconds: 720, Committed: true})
			},
			enabled: false,
		},
		{
			name: "not committed",
			notif: func(t *testing.T) models.Notification {
				return endedNotification(t, session.Ended{GameID: "hk", ElapsedSeconds: 3})
			},
			enabled: true,
		},
		{
			name: "other method",
			notif: func(*testing.T) models.Notification {
				return models.Notification{Method: models.NotificationLibraryChanged, Params: []byte(`{}`)}
			},
			enabled: true,
		},
		{
			name: "bad payload",
			notif: func(*testing.T) models.Notification {
				return models.Notification{Method: models.NotificationSessionEnded, Params: []byte(`nope`)}
			},
			enabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newTestConfig(t)
			cfg.SetNotifications(tt.enabled)
			sender := &recordingSender{}
			n := New(cfg, sender, lookup)

			n.Handle(tt.notif(t))
			assert.Equal(t, tt.want, sender.bodies)
		})
	}
}

func TestRunStopsOnClose(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	sender := &recordingSender{}
	n := New(cfg, sender, lookup)

	ch := make(chan models.Notification, 2)
	ch <- endedNotification(t, session.Ended{GameID: "hk", ElapsedSeconds: 60, Committed: true})
	close(ch)

	n.Run(ch)
	assert.Equal(t, []string{"Hollow Knight: session ended (1m played)"}, sender.bodies)
}

type recordingPlayer struct {
	played []string
}

func (p *recordingPlayer) Play(path string) error {
	p.played = append(p.played, path)
	return nil
}

func (*recordingPlayer) Stop() {}

func TestHandle_SessionSound(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	cfg.SetNotifications(false)
	sender := &recordingSender{}
	player := &recordingPlayer{}
	n := New(cfg, sender, lookup)
	n.SetPlayer(player)

	committed := endedNotification(t, session.Ended{GameID: "hk", ElapsedSeconds: 60, Committed: true})

	n.Handle(committed)
	assert.Empty(t, player.played, "no sound configured")

	cfg.SetSessionSound("/sounds/done.wav")
	n.Handle(committed)
	n.Handle(endedNotification(t, session.Ended{GameID: "hk", ElapsedSeconds: 2}))

	assert.Equal(t, []string{"/sounds/done.wav"}, player.played)
	assert.Empty(t, sender.bodies, "sound plays with desktop notifications off")
}
