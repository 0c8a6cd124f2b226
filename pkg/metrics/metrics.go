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

// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prism"

const (
	ResultOK        = "ok"
	ResultNotFound  = "not_found"
	ResultRunning   = "already_running"
	ResultSpawnFail = "spawn_failed"
	ResultFailed    = "failed"
)

// Registry holds the Prism collectors plus the Go runtime and process
// collectors. The default registry is not used.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	Launches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "launches_total",
		Help:      "Launch attempts by result.",
	}, []string{"result"})

	SessionsActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Games currently running.",
	})

	PlaytimeSeconds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playtime_seconds_total",
		Help:      "Playtime committed to the library.",
	})

	SessionsDiscarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_discarded_total",
		Help:      "Sessions ended without committing playtime.",
	})

	NotificationsDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Notifications a subscriber missed because its buffer was full.",
	}, []string{"subscriber"})

	RequestsLimited = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_limited_total",
		Help:      "API requests rejected by the rate limiter, by transport.",
	}, []string{"transport"})

	IconExtractions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "icon_extractions_total",
		Help:      "Icon extraction attempts by strategy and result.",
	}, []string{"strategy", "result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
