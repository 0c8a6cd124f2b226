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

// Package middleware holds the HTTP and WebSocket wrappers used by the API
// server.
package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/helpers/syncutil"
	"github.com/ZaparooProject/prism-core/pkg/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"

	// RateLimitedCode is the JSON-RPC error code for rejected messages.
	RateLimitedCode = -32029

	idleAfter    = 10 * time.Minute
	pruneEvery   = 5 * time.Minute
	perMinuteDiv = 60.0
)

// Limits is the sustained rate and burst allowed per key.
type Limits struct {
	PerMinute int
	Burst     int
}

// DefaultLimits leaves room for a UI that polls sessions and searches as
// the user types.
var DefaultLimits = Limits{PerMinute: 300, Burst: 40}

// ParseRemoteIP extracts the IP from a RemoteAddr with or without a port.
func ParseRemoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}

func IsLoopbackAddr(remoteAddr string) bool {
	ip := ParseRemoteIP(remoteAddr)
	return ip != nil && ip.IsLoopback()
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// Limiter is a set of token buckets. The API only listens on loopback, so
// WebSocket connections are keyed by their full remote address (one bucket
// per connection) and HTTP requests by IP.
type Limiter struct {
	clock   clockwork.Clock
	buckets map[string]*bucket
	limits  Limits
	mu      syncutil.Mutex
}

func NewLimiter(clock clockwork.Clock, limits Limits) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if limits.PerMinute <= 0 {
		limits.PerMinute = DefaultLimits.PerMinute
	}
	if limits.Burst <= 0 {
		limits.Burst = DefaultLimits.Burst
	}
	return &Limiter{
		clock:   clock,
		limits:  limits,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes a token from key's bucket, creating it on first use.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens: rate.NewLimiter(rate.Limit(float64(l.limits.PerMinute)/perMinuteDiv), l.limits.Burst),
		}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.tokens.AllowN(now, 1)
}

// Forget drops key's bucket, used when a WebSocket connection closes.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Prune drops buckets idle for longer than ten minutes and reports how
// many went.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	pruned := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleAfter {
			delete(l.buckets, key)
			pruned++
		}
	}
	return pruned
}

// Run prunes on an interval until ctx ends. The returned channel closes
// once the goroutine has exited.
func (l *Limiter) Run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := l.clock.NewTicker(pruneEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if n := l.Prune(); n > 0 {
					log.Debug().Int("count", n).Msg("api: pruned idle rate limiters")
				}
			}
		}
	}()
	return done
}

// HTTP rejects requests over the limit with 429.
func HTTP(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ParseRemoteIP(r.RemoteAddr).String()
			if !l.Allow(ip) {
				metrics.RequestsLimited.WithLabelValues(TransportHTTP).Inc()
				log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("api: http request rate limited")
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WebSocket wraps a melody message handler. Messages over the limit are
// answered with a JSON-RPC error carrying the request's id, when it has
// one, so a waiting caller sees the rejection instead of timing out.
func WebSocket(l *Limiter, handler func(*melody.Session, []byte)) func(*melody.Session, []byte) {
	return func(s *melody.Session, msg []byte) {
		key := s.Request.RemoteAddr
		if l.Allow(key) {
			handler(s, msg)
			return
		}

		metrics.RequestsLimited.WithLabelValues(TransportWebSocket).Inc()
		log.Warn().Str("remote", key).Int("size", len(msg)).Msg("api: websocket message rate limited")

		var req models.RequestObject
		if json.Unmarshal(msg, &req) == nil && req.ID.IsAbsent() && req.Method != "" {
			// notifications get no reply
			return
		}
		id := models.NullRPCID
		if req.ID != nil {
			id = *req.ID
		}

		data, err := json.Marshal(models.ResponseErrorObject{
			JSONRPC: "2.0",
			ID:      id,
			Error:   &models.ErrorObject{Code: RateLimitedCode, Message: "rate limit exceeded"},
		})
		if err != nil {
			log.Error().Err(err).Msg("api: encoding rate limit error")
			return
		}
		if err := s.Write(data); err != nil {
			log.Debug().Err(err).Msg("api: sending rate limit error")
		}
	}
}
