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

package config

import (
	"runtime"
	"time"
)

const (
	DefaultIconTimeout = 15 * time.Second
	DefaultIconWorkers = 4
	DefaultIconTool    = "exe-thumbnailer"
)

// DefaultIconToolArgs is the argv template for the external extractor.
// {input} and {output} are substituted as whole arguments.
var DefaultIconToolArgs = []string{"-s", "256", "{input}", "{output}"}

// Icons configures the icon extraction chain.
type Icons struct {
	Workers    *int     `toml:"workers,omitempty"`
	Timeout    string   `toml:"timeout,omitempty"`
	PowerShell string   `toml:"powershell,omitempty"`
	Tool       string   `toml:"tool,omitempty"`
	ToolArgs   []string `toml:"tool_args,omitempty"`
}

// IconTimeout returns the per-strategy time budget.
func (c *Instance) IconTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Icons.Timeout == "" {
		return DefaultIconTimeout
	}
	d, err := time.ParseDuration(c.vals.Icons.Timeout)
	if err != nil || d <= 0 {
		return DefaultIconTimeout
	}
	return d
}

// IconWorkers returns how many extractions may run at once.
func (c *Instance) IconWorkers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Icons.Workers == nil || *c.vals.Icons.Workers < 1 {
		return DefaultIconWorkers
	}
	return *c.vals.Icons.Workers
}

func (c *Instance) SetIconWorkers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Icons.Workers = &n
}

// IconPowerShell returns the interpreter used by the native strategy.
func (c *Instance) IconPowerShell() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Icons.PowerShell != "" {
		return c.vals.Icons.PowerShell
	}
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return "pwsh"
}

// IconTool returns the external extractor binary.
func (c *Instance) IconTool() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Icons.Tool == "" {
		return DefaultIconTool
	}
	return c.vals.Icons.Tool
}

// IconToolArgs returns a copy of the external extractor argv template.
func (c *Instance) IconToolArgs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.vals.Icons.ToolArgs
	if len(src) == 0 {
		src = DefaultIconToolArgs
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func (c *Instance) SetIconTool(tool string, args []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Icons.Tool = tool
	c.vals.Icons.ToolArgs = args
}
