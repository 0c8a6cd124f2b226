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

// Package telemetry reports errors to a Sentry project the user configures.
// Nothing is sent unless error_reporting is on and a DSN is set. Usernames
// in paths are stripped before an event leaves the machine.
package telemetry

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"sync"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/getsentry/sentry-go"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const flushTimeout = 2 * time.Second

var ErrNoDSN = errors.New("error reporting is enabled but no dsn is set")

var (
	enabled   bool
	logHook   *sentryzerolog.Writer
	closeOnce sync.Once
)

// userDirs maps home directory patterns to their anonymised form.
var userDirs = []struct {
	re   *regexp.Regexp
	repl string
}{
	{re: regexp.MustCompile(`(?i)/home/[^/]+/`), repl: "/home/<user>/"},
	{re: regexp.MustCompile(`(?i)/Users/[^/]+/`), repl: "/Users/<user>/"},
	{re: regexp.MustCompile(`(?i)[a-z]:\\Users\\[^\\]+\\`), repl: `C:\Users\<user>\`},
}

type Options struct {
	DSN         string
	AppVersion  string
	Environment string
	Enabled     bool
}

// Init hooks Sentry into the global logger so error level log lines are
// reported. It must run after helpers.InitLogging.
func Init(opts Options) error {
	if !opts.Enabled {
		log.Debug().Msg("error reporting disabled")
		return nil
	}
	if opts.DSN == "" {
		return ErrNoDSN
	}

	if err := sentry.Init(clientOptions(opts)); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
	})

	hook, err := sentryzerolog.NewWithHub(sentry.CurrentHub(), sentryzerolog.Options{
		Levels:       []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		FlushTimeout: flushTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create sentry log hook: %w", err)
	}
	logHook = hook

	log.Logger = log.Output(zerolog.MultiLevelWriter(helpers.LogWriter(), logHook)).
		With().Timestamp().Caller().Logger()

	enabled = true
	log.Info().Msg("error reporting enabled")
	return nil
}

// Close flushes pending events and shuts Sentry down. Safe to call more
// than once.
func Close() {
	if !enabled {
		return
	}
	closeOnce.Do(func() {
		_ = logHook.Close()
		sentry.Flush(flushTimeout)
	})
}

// Flush waits for queued events. Call it before os.Exit.
func Flush() {
	if !enabled {
		return
	}
	sentry.Flush(flushTimeout)
}

func Enabled() bool {
	return enabled
}

func clientOptions(opts Options) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          "prism-core@" + opts.AppVersion,
		Environment:      opts.Environment,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return sanitizeEvent(event)
		},
	}
}

func sanitizeEvent(event *sentry.Event) *sentry.Event {
	// the SDK may fill in the hostname regardless of ServerName
	event.ServerName = ""

	for i := range event.Exception {
		event.Exception[i].Value = sanitizePath(event.Exception[i].Value)
		if event.Exception[i].Stacktrace == nil {
			continue
		}
		for j := range event.Exception[i].Stacktrace.Frames {
			frame := &event.Exception[i].Stacktrace.Frames[j]
			frame.AbsPath = sanitizePath(frame.AbsPath)
			frame.Filename = sanitizePath(frame.Filename)
		}
	}

	event.Message = sanitizePath(event.Message)

	for k, v := range event.Extra {
		if s, ok := v.(string); ok {
			event.Extra[k] = sanitizePath(s)
		}
	}

	return event
}

// sanitizePath replaces the user name in home directory paths. Game
// paths in log fields almost always sit under one.
func sanitizePath(s string) string {
	for _, d := range userDirs {
		s = d.re.ReplaceAllString(s, d.repl)
	}
	return s
}
