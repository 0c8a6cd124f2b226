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
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZaparooProject/prism-core/internal/telemetry"
	"github.com/ZaparooProject/prism-core/pkg/api"
	"github.com/ZaparooProject/prism-core/pkg/api/client"
	"github.com/ZaparooProject/prism-core/pkg/api/models/requests"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type commandContext struct {
	config    *config.Instance
	configErr error

	// coreOptions, newClient and initLogging are replaced in tests.
	coreOptions func(*service.Options)
	newClient   func(*config.Instance) client.APIClient
	initLogging func(logDir string, writers []io.Writer) error

	configDir string
	dataDir   string

	configOnce sync.Once
	debug      bool
}

func newCommandContext() *commandContext {
	return &commandContext{
		newClient: func(cfg *config.Instance) client.APIClient {
			return client.NewLocalAPIClient(cfg)
		},
		initLogging: helpers.InitLogging,
	}
}

func (c *commandContext) dataDirPath() string {
	if dir := strings.TrimSpace(c.dataDir); dir != "" {
		return dir
	}
	return helpers.DataDir()
}

func (c *commandContext) logDirPath() string {
	if dir := strings.TrimSpace(c.dataDir); dir != "" {
		return filepath.Join(dir, "logs")
	}
	return helpers.LogDir()
}

// ensureConfig loads the config once per invocation and sets up file
// logging. Extra writers, such as the console in serve mode, are added by
// the command itself.
func (c *commandContext) ensureConfig(writers ...io.Writer) (*config.Instance, error) {
	c.configOnce.Do(func() {
		if err := c.initLogging(c.logDirPath(), writers); err != nil {
			c.configErr = err
			return
		}

		dir := strings.TrimSpace(c.configDir)
		if dir == "" {
			dir = helpers.ConfigDir()
		}
		cfg, err := config.NewConfig(dir, config.BaseDefaults)
		if err != nil {
			c.configErr = fmt.Errorf("failed to load config: %w", err)
			return
		}
		if c.debug {
			cfg.SetDebugLogging(true)
		}
		c.config = cfg

		if err := telemetry.Init(telemetry.Options{
			Enabled:     cfg.ErrorReporting(),
			DSN:         cfg.TelemetryDSN(),
			AppVersion:  config.AppVersion,
			Environment: releaseEnvironment(),
		}); err != nil {
			log.Warn().Err(err).Msg("cli: error reporting not started")
		}
	})
	return c.config, c.configErr
}

func releaseEnvironment() string {
	if config.AppVersion == "DEVELOPMENT" {
		return "development"
	}
	return "production"
}

func (c *commandContext) serviceOptions() service.Options {
	opts := service.Options{DataDir: c.dataDirPath()}
	if c.coreOptions != nil {
		c.coreOptions(&opts)
	}
	return opts
}

// withBackend runs fn against the library. When a service already holds
// the data dir it is used over the API; otherwise a private core is
// started for the duration of fn and stopped afterwards, draining any
// session fn left running.
func (c *commandContext) withBackend(cmd *cobra.Command, fn func(backend) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	opts := c.serviceOptions()
	opts.DisableAPI = true
	core := service.New(cfg, opts)

	err = core.Start(cmd.Context())
	switch {
	case errors.Is(err, service.ErrAlreadyRunning):
		log.Debug().Msg("cli: service is running, using the api")
		return fn(&remoteBackend{client: c.newClient(cfg)})
	case err != nil:
		return fmt.Errorf("failed to start core: %w", err)
	}

	defer func() {
		if err := core.Stop(); err != nil {
			log.Error().Err(err).Msg("cli: error stopping core")
		}
	}()
	return fn(&localBackend{core: core})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// decodeResult copies a method result into out by way of its JSON form,
// so in-process and remote calls decode identically.
func decodeResult(result any, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

func encodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	return data, nil
}

func dispatchLocal(ctx context.Context, core *service.Core, method string, params, out any) error {
	raw, err := encodeParams(params)
	if err != nil {
		return err
	}
	result, err := api.HandleMethod(requests.RequestEnv{
		Context: ctx,
		Config:  core.Config(),
		Core:    core,
		Params:  raw,
		IsLocal: true,
	}, method)
	if err != nil {
		return err //nolint:wrapcheck // method errors are shown as is
	}
	return decodeResult(result, out)
}
