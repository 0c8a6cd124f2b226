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

// Package broker fans notifications from the core out to several
// consumers (API clients, the desktop notifier) without letting a slow
// consumer block the sender.
package broker

import (
	"context"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/helpers/syncutil"
	"github.com/ZaparooProject/prism-core/pkg/metrics"
	"github.com/rs/zerolog/log"
)

type subscriber struct {
	ch   chan models.Notification
	name string
}

type Broker struct {
	ctx    context.Context
	source <-chan models.Notification
	subs   map[int]subscriber
	done   chan struct{}
	mu     syncutil.RWMutex
	nextID int
	closed bool
}

func NewBroker(ctx context.Context, source <-chan models.Notification) *Broker {
	return &Broker{
		ctx:    ctx,
		source: source,
		subs:   make(map[int]subscriber),
		done:   make(chan struct{}),
	}
}

// Start runs the broadcast loop until the source closes or ctx is done.
// Notifications already queued on the source when ctx ends are still
// delivered. Every subscriber channel is closed when the loop exits.
func (b *Broker) Start() {
	go func() {
		defer close(b.done)
		defer b.shutdown()
		for {
			select {
			case notif, ok := <-b.source:
				if !ok {
					log.Debug().Msg("broker: source closed")
					return
				}
				b.broadcast(notif)
			case <-b.ctx.Done():
				n := b.drain()
				log.Debug().Int("drained", n).Msg("broker: stopping")
				return
			}
		}
	}()
}

// Wait blocks until the loop started by Start has exited.
func (b *Broker) Wait() {
	<-b.done
}

// drain broadcasts whatever is buffered on the source without waiting for
// more.
func (b *Broker) drain() int {
	n := 0
	for {
		select {
		case notif, ok := <-b.source:
			if !ok {
				return n
			}
			b.broadcast(notif)
			n++
		default:
			return n
		}
	}
}

// broadcast never blocks; a subscriber with a full buffer misses the
// notification.
func (b *Broker) broadcast(notif models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, s := range b.subs {
		select {
		case s.ch <- notif:
		default:
			metrics.NotificationsDropped.WithLabelValues(s.name).Inc()
			log.Warn().
				Int("subscriber_id", id).
				Str("subscriber", s.name).
				Str("method", notif.Method).
				Msg("broker: subscriber full, dropping notification")
		}
	}
}

// Subscribe registers a named consumer. After shutdown the returned
// channel is already closed.
func (b *Broker) Subscribe(name string, bufferSize int) (notifChan <-chan models.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++
	ch := make(chan models.Notification, bufferSize)
	if b.closed {
		close(ch)
		return ch, id
	}

	b.subs[id] = subscriber{ch: ch, name: name}
	log.Debug().Int("subscriber_id", id).Str("subscriber", name).Msg("broker: subscribed")
	return ch, id
}

// Unsubscribe closes the subscription's channel. Unknown ids are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(s.ch)
	log.Debug().Int("subscriber_id", id).Str("subscriber", s.name).Msg("broker: unsubscribed")
}

// Len is the number of live subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = make(map[int]subscriber)
	b.closed = true
}
