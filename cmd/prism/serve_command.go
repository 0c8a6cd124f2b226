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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "serve",
		Short:       "Run the service and its API in the foreground",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig(helpers.ConsoleWriter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			opts := ctx.serviceOptions()
			opts.WatchConfig = true
			core := service.New(cfg, opts)

			// The core outlives the signal context so Stop can drain.
			if err := core.Start(context.WithoutCancel(cmd.Context())); err != nil {
				if errors.Is(err, service.ErrAlreadyRunning) {
					return fmt.Errorf("%s is already running for %s", config.AppName, opts.DataDir)
				}
				return fmt.Errorf("error starting service: %w", err)
			}

			out := cmd.OutOrStdout()
			if addr := core.APIAddr(); addr != "" {
				fmt.Fprintf(out, "Listening on %s\n", addr)
			} else {
				fmt.Fprintln(out, "API disabled")
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-sigCtx.Done()

			log.Info().Msg("cli: shutting down")
			fmt.Fprintln(out, "Shutting down")
			if err := core.Stop(); err != nil {
				return fmt.Errorf("error stopping service: %w", err)
			}
			return nil
		},
	}
}
