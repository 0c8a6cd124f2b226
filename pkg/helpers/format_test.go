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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSessionDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expected string
		seconds  int64
	}{
		{seconds: 0, expected: "0s"},
		{seconds: 42, expected: "42s"},
		{seconds: 60, expected: "1m"},
		{seconds: 3599, expected: "59m"},
		{seconds: 3600, expected: "1h 0m"},
		{seconds: 7530, expected: "2h 5m"},
		{seconds: -3, expected: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, FormatSessionDuration(tt.seconds))
		})
	}
}

func TestFormatPlaytime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No time", FormatPlaytime(0))
	assert.Equal(t, "< 1 min", FormatPlaytime(59))
	assert.Equal(t, "12 min", FormatPlaytime(12*60+30))
	assert.Equal(t, "1.5 hrs", FormatPlaytime(5400))
}

func TestFormatLastPlayed(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	assert.Equal(t, "Never", FormatLastPlayed(nil, now))
	assert.Equal(t, "Just now", FormatLastPlayed(ago(10*time.Second), now))
	assert.Equal(t, "5m ago", FormatLastPlayed(ago(5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatLastPlayed(ago(3*time.Hour), now))
	assert.Equal(t, "2d ago", FormatLastPlayed(ago(50*time.Hour), now))
	assert.NotEmpty(t, FormatLastPlayed(ago(30*24*time.Hour), now))
}
