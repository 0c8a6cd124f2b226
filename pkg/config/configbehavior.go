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

// Behavior holds the toggles the UI collaborator edits. Only Notifications
// changes what the core does; the rest are carried for the collaborator.
type Behavior struct {
	Notifications *bool  `toml:"notifications,omitempty"`
	SessionSound  string `toml:"session_sound,omitempty"`
	MinOnLaunch   bool  `toml:"min_on_launch"`
	MinToTray     bool  `toml:"min_to_tray"`
	ConfirmRemove bool  `toml:"confirm_remove"`
}

// Notifications reports whether desktop notifications should be shown when
// a session ends. Defaults to true.
func (c *Instance) Notifications() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Behavior.Notifications == nil {
		return true
	}
	return *c.vals.Behavior.Notifications
}

func (c *Instance) SetNotifications(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Behavior.Notifications = &enabled
}

// SessionSound is an audio file played when a session is committed. Empty
// means silent.
func (c *Instance) SessionSound() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Behavior.SessionSound
}

func (c *Instance) SetSessionSound(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Behavior.SessionSound = path
}

func (c *Instance) MinOnLaunch() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Behavior.MinOnLaunch
}

func (c *Instance) SetMinOnLaunch(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Behavior.MinOnLaunch = enabled
}

func (c *Instance) MinToTray() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Behavior.MinToTray
}

func (c *Instance) SetMinToTray(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Behavior.MinToTray = enabled
}

func (c *Instance) ConfirmRemove() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Behavior.ConfirmRemove
}

func (c *Instance) SetConfirmRemove(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Behavior.ConfirmRemove = enabled
}

// BehaviorSnapshot is a point-in-time copy of the behavior toggles.
type BehaviorSnapshot struct {
	MinOnLaunch   bool `json:"minOnLaunch"`
	MinToTray     bool `json:"minToTray"`
	ConfirmRemove bool `json:"confirmRemove"`
	Notifications bool `json:"notifications"`
}

func (c *Instance) BehaviorSnapshot() BehaviorSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	notify := true
	if c.vals.Behavior.Notifications != nil {
		notify = *c.vals.Behavior.Notifications
	}
	return BehaviorSnapshot{
		MinOnLaunch:   c.vals.Behavior.MinOnLaunch,
		MinToTray:     c.vals.Behavior.MinToTray,
		ConfirmRemove: c.vals.Behavior.ConfirmRemove,
		Notifications: notify,
	}
}
