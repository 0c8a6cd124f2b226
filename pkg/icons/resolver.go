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

// Package icons extracts an executable's icon to a PNG in the icons
// directory. Extraction tries a chain of strategies in order and always
// yields a result; a failed chain just means the game has no icon.
package icons

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/helpers/command"
	"github.com/ZaparooProject/prism-core/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// Result mirrors what the UI expects back from an extraction. GameID is
// always set so the caller can reuse it as the record id.
type Result struct {
	IconPath string `json:"iconPath"`
	GameID   string `json:"gameId"`
	Success  bool   `json:"success"`
}

type Options struct {
	Fs      afero.Fs
	Timeout time.Duration
	Workers int
}

type Resolver struct {
	fs         afero.Fs
	sem        *semaphore.Weighted
	dir        string
	strategies []Strategy
	timeout    time.Duration
}

func NewResolver(dir string, strategies []Strategy, opts Options) *Resolver {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultIconTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = config.DefaultIconWorkers
	}
	return &Resolver{
		fs:         opts.Fs,
		sem:        semaphore.NewWeighted(int64(opts.Workers)),
		dir:        dir,
		strategies: strategies,
		timeout:    opts.Timeout,
	}
}

// DefaultStrategies builds the native PowerShell strategy followed by the
// configured external tool.
func DefaultStrategies(cfg *config.Instance, fs afero.Fs, exec command.Executor) []Strategy {
	tool := cfg.IconTool()
	strategies := []Strategy{
		&NativeStrategy{
			Exec:  exec,
			Fs:    fs,
			Shell: cfg.IconPowerShell(),
		},
	}
	if tool != "" {
		strategies = append(strategies, &ToolStrategy{
			Exec: exec,
			Tool: tool,
			Args: cfg.IconToolArgs(),
		})
	}
	return strategies
}

func (r *Resolver) Dir() string {
	return r.dir
}

// Extract runs the strategy chain for exePath. The returned error is only
// non-nil when ctx ends before a worker slot frees up or while the chain
// is running.
func (r *Resolver) Extract(ctx context.Context, exePath string) (Result, error) {
	res := Result{GameID: uuid.NewString()}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return res, fmt.Errorf("waiting for icon worker: %w", err)
	}
	defer r.sem.Release(1)

	if err := r.fs.MkdirAll(r.dir, 0o750); err != nil {
		log.Warn().Err(err).Str("dir", r.dir).Msg("icons: failed to create icons dir")
		return res, nil
	}

	req := Request{
		ExecutablePath: exePath,
		OutputPath:     filepath.Join(r.dir, res.GameID+".png"),
		GameID:         res.GameID,
	}

	for _, s := range r.strategies {
		err := r.attempt(ctx, s, req)
		if err == nil {
			metrics.IconExtractions.WithLabelValues(s.Name(), metrics.ResultOK).Inc()
			log.Info().Str("strategy", s.Name()).Str("path", req.OutputPath).Msg("icons: extracted icon")
			res.Success = true
			res.IconPath = req.OutputPath
			return res, nil
		}
		metrics.IconExtractions.WithLabelValues(s.Name(), metrics.ResultFailed).Inc()
		log.Warn().Err(err).Str("strategy", s.Name()).Str("exe", exePath).Msg("icons: strategy failed")

		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("icon extraction cancelled: %w", ctxErr)
		}
	}

	log.Warn().Err(ErrAllStrategiesFailed).Str("exe", exePath).Msg("icons: no icon extracted")
	return res, nil
}

// attempt runs one strategy under its own deadline. Anything it left at
// the output path is removed when it fails.
func (r *Resolver) attempt(ctx context.Context, s Strategy, req Request) (err error) {
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if err != nil {
			if rmErr := r.fs.Remove(req.OutputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				log.Debug().Err(rmErr).Str("path", req.OutputPath).Msg("icons: failed to clean up partial icon")
			}
		}
	}()

	if err := s.Extract(actx, req); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStrategyFailed, s.Name(), err)
	}

	info, err := r.fs.Stat(req.OutputPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: %s: %w", ErrStrategyFailed, s.Name(), ErrNoOutput)
	}
	return nil
}

// Remove deletes an icon previously written by Extract. Paths outside the
// icons directory are refused so a hand-edited library cannot point it at
// arbitrary files.
func (r *Resolver) Remove(iconPath string) error {
	if iconPath == "" {
		return nil
	}
	if !helpers.PathInside(iconPath, r.dir) ||
		!strings.EqualFold(filepath.Ext(iconPath), ".png") {
		return fmt.Errorf("%w: %s", ErrOutsideIconsDir, iconPath)
	}
	err := r.fs.Remove(iconPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove icon: %w", err)
	}
	return nil
}
