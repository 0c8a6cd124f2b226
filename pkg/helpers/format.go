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

package helpers

import (
	"fmt"
	"time"
)

// FormatSessionDuration renders a session length for notifications:
// "2h 5m" from an hour up, "12m" from a minute up, otherwise "42s".
func FormatSessionDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := seconds / 60
	switch {
	case mins >= 60:
		return fmt.Sprintf("%dh %dm", mins/60, mins%60)
	case mins > 0:
		return fmt.Sprintf("%dm", mins)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatPlaytime renders accumulated playtime for listings.
func FormatPlaytime(seconds int64) string {
	switch {
	case seconds <= 0:
		return "No time"
	case seconds < 60:
		return "< 1 min"
	case seconds < 3600:
		return fmt.Sprintf("%d min", seconds/60)
	default:
		return fmt.Sprintf("%.1f hrs", float64(seconds)/3600)
	}
}

// FormatLastPlayed renders a last-played timestamp relative to now.
func FormatLastPlayed(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "Never"
	}
	diff := now.Sub(*t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
