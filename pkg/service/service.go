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

// Package service wires the core together: one Core owns the config, the
// library store, the session tracker, the launcher, the icon resolver and
// the notification queue. Nothing in the core is global, so tests can build
// as many as they like.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ZaparooProject/prism-core/pkg/api"
	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/api/notifications"
	"github.com/ZaparooProject/prism-core/pkg/audio"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/helpers/command"
	"github.com/ZaparooProject/prism-core/pkg/helpers/syncutil"
	"github.com/ZaparooProject/prism-core/pkg/history"
	"github.com/ZaparooProject/prism-core/pkg/icons"
	"github.com/ZaparooProject/prism-core/pkg/launcher"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/notify"
	"github.com/ZaparooProject/prism-core/pkg/service/broker"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	HistoryFile = "history.db"

	notificationQueueSize = 100
	subscriberBufferSize  = 100
)

var (
	ErrAlreadyRunning = errors.New("another instance is already running")
	ErrNotStarted     = errors.New("service is not started")
)

type Options struct {
	Fs      afero.Fs
	Clock   clockwork.Clock
	Spawner launcher.Spawner
	// Finder looks for leftover game processes when
	// playtime.track_children is set.
	Finder launcher.ProcessFinder
	Exec   command.Executor
	Sender  notify.Sender
	// Player plays the configured session sound. Defaults to the audio
	// device.
	Player audio.Player
	// Strategies overrides the icon extraction chain built from config.
	Strategies []icons.Strategy
	// DataDir holds the library, icons, history and lock file. Defaults to
	// helpers.DataDir().
	DataDir    string
	DisableAPI bool
	// WatchConfig reloads the config file when it changes on disk.
	WatchConfig bool
}

type Core struct {
	ctx      context.Context
	cfg      *config.Instance
	fs       afero.Fs
	store    *library.Store
	tracker  *session.Tracker
	launcher *launcher.Launcher
	resolver *icons.Resolver
	history  *history.DB
	lock     *flock.Flock
	ns       chan models.Notification
	broker   *broker.Broker
	server   *api.Server
	notifier *notify.Notifier
	cancel   context.CancelFunc
	dataDir  string
	opts     Options
	wg       sync.WaitGroup
	mu       syncutil.Mutex
	histMu   syncutil.RWMutex
	// launchMu is held shared for a whole launch and exclusively while
	// Stop flips running, so no session opens after the drain.
	launchMu syncutil.RWMutex
	started  bool
	running  atomic.Bool
}

//nolint:gocritic // options struct copied once at construction
func New(cfg *config.Instance, opts Options) *Core {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Exec == nil {
		opts.Exec = command.System{}
	}
	if opts.Sender == nil {
		opts.Sender = notify.NewSender(notify.Summary)
	}
	if opts.Player == nil {
		opts.Player = audio.NewDevicePlayer(opts.Fs)
	}
	if opts.DataDir == "" {
		opts.DataDir = helpers.DataDir()
	}

	c := &Core{
		ctx:     context.Background(),
		cfg:     cfg,
		fs:      opts.Fs,
		dataDir: opts.DataDir,
		opts:    opts,
		ns:      make(chan models.Notification, notificationQueueSize),
		lock:    flock.New(filepath.Join(opts.DataDir, config.LockFile)),
	}

	c.store = library.NewStore(opts.Fs, filepath.Join(opts.DataDir, config.LibraryFile), opts.Clock)
	c.tracker = session.NewTracker(c.store, session.Options{
		Clock:      opts.Clock,
		MinSession: cfg.MinSessionDuration,
		Observer:   c.sessionEnded,
	})
	c.launcher = launcher.New(c.tracker, launcher.Options{
		Fs:            opts.Fs,
		Spawner:       opts.Spawner,
		Finder:        opts.Finder,
		Clock:         opts.Clock,
		TrackChildren: cfg.TrackChildren,
	})

	strategies := opts.Strategies
	if strategies == nil {
		strategies = icons.DefaultStrategies(cfg, opts.Fs, opts.Exec)
	}
	c.resolver = icons.NewResolver(
		filepath.Join(opts.DataDir, config.IconsDir),
		strategies,
		icons.Options{
			Fs:      opts.Fs,
			Timeout: cfg.IconTimeout(),
			Workers: cfg.IconWorkers(),
		},
	)
	c.notifier = notify.New(cfg, opts.Sender, func(id string) (string, bool) {
		g, ok := c.store.Get(id)
		return g.Title, ok
	})
	c.notifier.SetPlayer(opts.Player)

	return c
}

// sessionEnded runs for every finalized session. Only committed sessions
// reach the history and the session.ended notification.
func (c *Core) sessionEnded(e session.Ended) {
	if !e.Committed {
		return
	}
	if db := c.History(); db != nil {
		if err := db.Record(history.EntryFromEnded(e)); err != nil {
			log.Warn().Err(err).Str("game", e.GameID).Msg("service: failed to record session history")
		}
	}
	notifications.SessionEnded(c.ns, e)
}

// Start takes the instance lock and brings up every component. A second
// instance on the same data dir gets ErrAlreadyRunning.
func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	log.Info().Msgf("version: %s", config.AppVersion)

	if err := os.MkdirAll(c.dataDir, 0o750); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	locked, err := c.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}

	if err := c.store.Load(); err != nil {
		if !errors.Is(err, library.ErrReadFailed) && !errors.Is(err, library.ErrParseFailed) {
			c.unlock()
			return fmt.Errorf("failed to load library: %w", err)
		}
		log.Error().Err(err).Msg("service: library unreadable, continuing with an empty library")
	}

	c.openHistory()

	c.ctx, c.cancel = context.WithCancel(ctx)

	c.broker = broker.NewBroker(c.ctx, c.ns)
	c.broker.Start()

	notifierCh, _ := c.broker.Subscribe("notifier", subscriberBufferSize)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.notifier.Run(notifierCh)
	}()

	if c.opts.WatchConfig {
		if err := c.cfg.Watch(c.ctx, nil); err != nil {
			log.Warn().Err(err).Msg("service: config hot reload unavailable")
		}
	}

	if c.cfg.APIEnabled() && !c.opts.DisableAPI {
		apiCh, _ := c.broker.Subscribe("api", subscriberBufferSize)
		c.server = api.NewServer(c.cfg, c, apiCh)
		if err := c.server.Start(c.ctx); err != nil {
			c.server = nil
			c.teardown()
			return fmt.Errorf("failed to start api: %w", err)
		}
	}

	c.started = true
	c.running.Store(true)
	log.Info().Str("dataDir", c.dataDir).Msg("service: started")
	return nil
}

func (c *Core) openHistory() {
	db, err := history.Open(filepath.Join(c.dataDir, HistoryFile))
	if err != nil {
		log.Error().Err(err).Msg("service: session history unavailable")
		return
	}
	c.histMu.Lock()
	c.history = db
	c.histMu.Unlock()

	retention := c.cfg.HistoryRetention()
	if retention <= 0 {
		log.Debug().Msg("service: history cleanup disabled")
		return
	}
	cutoff := c.opts.Clock.Now().Add(-retention)
	deleted, err := db.Cleanup(cutoff)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("service: error cleaning up session history")
	case deleted > 0:
		log.Info().Msgf("service: deleted %d old session history entries", deleted)
	}
}

// Stop drains every running session into the library, then shuts the
// components down in reverse order and releases the lock.
func (c *Core) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.launchMu.Lock()
	c.running.Store(false)
	c.launchMu.Unlock()

	ended := c.tracker.FinalizeAll()
	log.Info().Int("sessions", len(ended)).Msg("service: sessions drained")

	var errs []error
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, err)
		}
		c.server = nil
	}

	c.teardown()
	c.started = false

	log.Info().Msg("service: stopped")
	return errors.Join(errs...)
}

// teardown stops the broker and its subscribers, closes the history and
// releases the lock.
func (c *Core) teardown() {
	c.cancel()
	c.broker.Wait()
	c.wg.Wait()
	c.opts.Player.Stop()

	if db := c.History(); db != nil {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("service: error closing history")
		}
	}
	c.unlock()
}

func (c *Core) unlock() {
	if err := c.lock.Unlock(); err != nil {
		log.Warn().Err(err).Msg("service: error releasing instance lock")
	}
}

// Wait blocks until every launched game has exited.
func (c *Core) Wait() {
	c.launcher.Wait()
}

func (c *Core) Config() *config.Instance {
	return c.cfg
}

func (c *Core) Library() *library.Store {
	return c.store
}

func (c *Core) Sessions() *session.Tracker {
	return c.tracker
}

func (c *Core) Icons() *icons.Resolver {
	return c.resolver
}

// History is nil when the database could not be opened. After Stop it
// returns history.ErrClosed from every call.
func (c *Core) History() *history.DB {
	c.histMu.RLock()
	defer c.histMu.RUnlock()
	return c.history
}

// Subscribe returns a stream of every notification the core emits. The
// channel is closed when the core stops or when the returned func is
// called.
func (c *Core) Subscribe() (<-chan models.Notification, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil, nil, ErrNotStarted
	}
	ch, id := c.broker.Subscribe("client", subscriberBufferSize)
	b := c.broker
	return ch, func() { b.Unsubscribe(id) }, nil
}

// APIAddr is the address the API server listens on, or "" when disabled.
func (c *Core) APIAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server == nil {
		return ""
	}
	return c.server.Addr()
}
