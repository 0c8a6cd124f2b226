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

// Package notify shows a desktop notification when a play session ends.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/audio"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/rs/zerolog/log"
)

const Summary = "Prism"

type Sender interface {
	Send(summary, body string) error
}

// TitleLookup resolves a game id to its display title.
type TitleLookup func(gameID string) (string, bool)

type Notifier struct {
	cfg    *config.Instance
	sender Sender
	player audio.Player
	lookup TitleLookup
}

func New(cfg *config.Instance, sender Sender, lookup TitleLookup) *Notifier {
	return &Notifier{cfg: cfg, sender: sender, lookup: lookup}
}

// SetPlayer enables the configured session sound. Call before Run.
func (n *Notifier) SetPlayer(p audio.Player) {
	n.player = p
}

func Message(title string, elapsedSeconds int64) string {
	return fmt.Sprintf("%s: session ended (%s played)", title, helpers.FormatSessionDuration(elapsedSeconds))
}

// Run handles notifications until ch is closed.
func (n *Notifier) Run(ch <-chan models.Notification) {
	for notif := range ch {
		n.Handle(notif)
	}
}

func (n *Notifier) Handle(notif models.Notification) {
	if notif.Method != models.NotificationSessionEnded {
		return
	}

	var ended session.Ended
	if err := json.Unmarshal(notif.Params, &ended); err != nil {
		log.Warn().Err(err).Msg("notify: invalid session.ended payload")
		return
	}
	if !ended.Committed {
		return
	}

	if sound := n.cfg.SessionSound(); sound != "" && n.player != nil {
		if err := n.player.Play(sound); err != nil {
			log.Warn().Err(err).Str("path", sound).Msg("notify: failed to play session sound")
		}
	}
	if !n.cfg.Notifications() {
		return
	}

	title := helpers.UnknownTitle
	if n.lookup != nil {
		if t, ok := n.lookup(ended.GameID); ok {
			title = t
		}
	}

	msg := Message(title, ended.ElapsedSeconds)
	if err := n.sender.Send(Summary, msg); err != nil {
		log.Warn().Err(err).Str("message", msg).Msg("notify: failed to show notification")
	}
}

// LogSender writes notifications to the log instead of the desktop.
type LogSender struct{}

func (LogSender) Send(summary, body string) error {
	log.Info().Str("summary", summary).Msg("notify: " + body)
	return nil
}
