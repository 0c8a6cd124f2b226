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

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/config"
)

// APIClient is the CLI's view of a running service.
type APIClient interface {
	// Call sends method with params as raw JSON and returns the raw result.
	Call(ctx context.Context, method, params string) (string, error)
	// WaitNotification returns the params of the next notification named
	// method.
	WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error)
}

// LocalAPIClient reaches the service on the port in cfg. Every call opens
// its own connection.
type LocalAPIClient struct {
	cfg *config.Instance
}

func NewLocalAPIClient(cfg *config.Instance) *LocalAPIClient {
	return &LocalAPIClient{cfg: cfg}
}

func (c *LocalAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	resp, err := LocalClient(ctx, c.cfg, method, params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	return resp, nil
}

func (c *LocalAPIClient) WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error) {
	resp, err := WaitNotification(ctx, timeout, c.cfg, method)
	if err != nil {
		return "", fmt.Errorf("waiting for %s: %w", method, err)
	}
	return resp, nil
}
