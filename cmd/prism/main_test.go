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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api/client"
	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/session"
	"github.com/ZaparooProject/prism-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var addedID = regexp.MustCompile(`Added .+ \(([^)]+)\)`)

func addGame(t *testing.T, env *cliEnv, args ...string) string {
	t.Helper()
	stdout, _, err := runCLI(t, env, append([]string{"add"}, args...)...)
	require.NoError(t, err)
	m := addedID.FindStringSubmatch(stdout)
	require.Len(t, m, 2, stdout)
	return m[1]
}

// startLaunch runs "launch id" in the background and waits for the spawn.
func startLaunch(ctx context.Context, t *testing.T, env *cliEnv, id string) (*syncBuffer, <-chan error) {
	t.Helper()
	var stdout, stderr syncBuffer
	cmd := env.command(&stdout, &stderr, "launch", id)

	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "Launched")
	}, 5*time.Second, 10*time.Millisecond)
	return &stdout, done
}

func waitCommand(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("command did not finish")
		return nil
	}
}

func TestTitleCommand(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	stdout, _, err := runCLI(t, env, "title", `C:\Games\Hollow_Knight_v1.5.78.exe`)
	require.NoError(t, err)
	assert.Equal(t, "Hollow Knight\n", stdout)
}

func TestRootShowsHelp(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	stdout, _, err := runCLI(t, env)
	require.NoError(t, err)
	assert.Contains(t, stdout, "launch")
	assert.Contains(t, stdout, "serve")
}

func TestLibraryCommands(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	exe := env.writeExe(t, "Celeste/Celeste.exe")

	stdout, _, err := runCLI(t, env, "list")
	require.NoError(t, err)
	assert.Equal(t, "Library is empty\n", stdout)

	id := addGame(t, env, exe, "--title", "Celeste Classic", "--no-icon")

	stdout, _, err = runCLI(t, env, "list", "--sort", "playtime")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Celeste Classic")
	assert.Contains(t, stdout, "No time")
	assert.Contains(t, stdout, "Never")

	stdout, _, err = runCLI(t, env, "favorite", id)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Added %s to favorites\n", id), stdout)

	stdout, _, err = runCLI(t, env, "favorite", id)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Removed %s from favorites\n", id), stdout)

	stdout, _, err = runCLI(t, env, "remove", id)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Removed %s\n", id), stdout)

	stdout, _, err = runCLI(t, env, "remove", id)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("No game with id %s\n", id), stdout)
}

func TestAddDefaultsTitleAndReportsMissingIcon(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	exe := env.writeExe(t, "Hades/x64/Hades-x64.exe")

	stdout, _, err := runCLI(t, env, "add", exe)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added Hades (")
	assert.Contains(t, stdout, "No icon found")
}

func TestScanCommand(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.writeExe(t, "Celeste/Celeste.exe")
	env.writeExe(t, "Hades/x64/Hades.exe")
	env.writeExe(t, "Hades/unins000.exe")

	stdout, _, err := runCLI(t, env, "scan", env.gamesDir, "--no-icon")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Celeste")
	assert.Contains(t, stdout, "Hades")
	assert.NotContains(t, stdout, "unins000")
	assert.Contains(t, stdout, "Found 2, added 2, already in library 0")

	stdout, _, err = runCLI(t, env, "scan", env.gamesDir, "--no-icon")
	require.NoError(t, err)
	assert.Equal(t, "Found 2, added 0, already in library 2\n", stdout)

	stdout, _, err = runCLI(t, env, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Celeste")
	assert.Contains(t, stdout, "Hades")
}

func TestListRejectsUnknownSort(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	_, _, err := runCLI(t, env, "list", "--sort", "size")
	require.Error(t, err)
}

func TestFavoriteUnknownGame(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	_, _, err := runCLI(t, env, "favorite", "missing")
	require.ErrorIs(t, err, library.ErrNotFound)
}

func TestLaunchRecordsPlaytime(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	id := addGame(t, env, env.writeExe(t, "Celeste/Celeste.exe"), "--no-icon")

	stdout, done := startLaunch(t.Context(), t, env, id)
	assert.Contains(t, stdout.String(), "Launched Celeste (pid 3000)")

	env.clock.Advance(90 * time.Second)
	env.spawner.exitAll()
	require.NoError(t, waitCommand(t, done))
	assert.Contains(t, stdout.String(), "Celeste: played 1m (total 1 min)")

	out, _, err := runCLI(t, env, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Games:    1")
	assert.Contains(t, out, "Sessions: 1")
	assert.Contains(t, out, "Playtime: 1 min")

	out, _, err = runCLI(t, env, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Celeste")
	assert.Contains(t, out, "1m")

	out, _, err = runCLI(t, env, "history", "--game", "someone-else")
	require.NoError(t, err)
	assert.Equal(t, "No sessions recorded\n", out)
}

func TestLaunchShortSession(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	id := addGame(t, env, env.writeExe(t, "Celeste/Celeste.exe"), "--no-icon")

	stdout, done := startLaunch(t.Context(), t, env, id)
	env.clock.Advance(2 * time.Second)
	env.spawner.exitAll()
	require.NoError(t, waitCommand(t, done))
	assert.Contains(t, stdout.String(), "Celeste exited after 2s, session too short to count")

	out, _, err := runCLI(t, env, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Playtime: No time")
}

func TestLaunchInterruptedKeepsPlaytime(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	id := addGame(t, env, env.writeExe(t, "Celeste/Celeste.exe"), "--no-icon")

	ctx, cancel := context.WithCancel(t.Context())
	stdout, done := startLaunch(ctx, t, env, id)

	env.clock.Advance(10 * time.Minute)
	cancel()
	require.NoError(t, waitCommand(t, done))
	assert.Contains(t, stdout.String(), "Stopped waiting, playtime so far is kept")

	out, _, err := runCLI(t, env, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Playtime: 10 min")
}

func TestLaunchUnknownGame(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	_, _, err := runCLI(t, env, "launch", "missing")
	require.ErrorIs(t, err, library.ErrNotFound)
	assert.Zero(t, env.spawner.count())
}

func TestExportCommand(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	addGame(t, env, env.writeExe(t, "Celeste/Celeste.exe"), "--no-icon")
	addGame(t, env, env.writeExe(t, "Hades/Hades.exe"), "--no-icon")

	stdout, _, err := runCLI(t, env, "export")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,title,executable_path"))
	assert.Contains(t, lines[1], "Celeste")
	assert.Contains(t, lines[2], "Hades")

	outPath := filepath.Join(t.TempDir(), "library.csv")
	_, stderr, err := runCLI(t, env, "export", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 2 games to "+outPath)

	data, err := os.ReadFile(outPath) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, stdout, string(data))
}

func TestServeCommand(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	var stdout, stderr syncBuffer
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	cmd := env.command(&stdout, &stderr, "serve")

	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "API disabled")
	}, 5*time.Second, 10*time.Millisecond)

	_, _, err := runCLI(t, env, "serve")
	require.ErrorContains(t, err, "already running")

	cancel()
	require.NoError(t, waitCommand(t, done))
	assert.Contains(t, stdout.String(), "Shutting down")

	// The lock is released again.
	out, _, err := runCLI(t, env, "list")
	require.NoError(t, err)
	assert.Equal(t, "Library is empty\n", out)
}

func TestRemoteList(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.startService(t)

	api := mocks.NewMockAPIClient()
	api.SetupResult(models.MethodLibrary, models.LibraryResponse{
		Games: []library.Game{{ID: "g1", Title: "Outer Wilds", ExecutablePath: "/games/ow.exe", PlayCount: 3}},
	})
	env.client = api

	stdout, _, err := runCLI(t, env, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Outer Wilds")
	api.AssertCalled(t, "Call", mock.Anything, models.MethodLibrary, `{"sort":"name"}`)
}

func TestRemoteLaunchWaitsForNotification(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.startService(t)

	api := mocks.NewMockAPIClient()
	api.SetupResult(models.MethodLibraryGet, library.Game{ID: "g1", Title: "Outer Wilds"})
	api.SetupResult(models.MethodLaunch, models.LaunchResponse{GameID: "g1", SessionID: "s1", Pid: 77})
	api.On("WaitNotification", mock.Anything, sessionPollInterval, models.NotificationSessionEnded).
		Return(`{"gameId":"other","elapsedSeconds":5,"committed":true}`, nil).Once()
	api.SetupNotification(models.NotificationSessionEnded, session.Ended{
		GameID:               "g1",
		SessionID:            "s1",
		ElapsedSeconds:       90,
		TotalPlaytimeSeconds: 600,
		Committed:            true,
	})
	env.client = api

	stdout, _, err := runCLI(t, env, "launch", "g1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Launched Outer Wilds (pid 77)")
	assert.Contains(t, stdout, "Outer Wilds: played 1m (total 10 min)")
	api.AssertNumberOfCalls(t, "WaitNotification", 2)
	assert.Zero(t, env.spawner.count())
}

func TestRemoteLaunchMissedNotification(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.startService(t)

	api := mocks.NewMockAPIClient()
	api.SetupResult(models.MethodLibraryGet, library.Game{ID: "g1", Title: "Outer Wilds", TotalPlaytimeSeconds: 7200})
	api.SetupResult(models.MethodLaunch, models.LaunchResponse{GameID: "g1", Pid: 77})
	api.SetupResult(models.MethodSessionStatus, session.Status{GameID: "g1"})
	api.On("WaitNotification", mock.Anything, sessionPollInterval, models.NotificationSessionEnded).
		Return("", fmt.Errorf("waiting for session.ended: %w", client.ErrRequestTimeout))
	env.client = api

	stdout, _, err := runCLI(t, env, "launch", "g1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Outer Wilds exited (total 2.0 hrs)")
}

func TestRemoteErrorsPassThrough(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.startService(t)

	api := mocks.NewMockAPIClient()
	api.SetupError(models.MethodLibraryStats, client.ErrRequestTimeout)
	env.client = api

	_, _, err := runCLI(t, env, "stats")
	require.ErrorIs(t, err, client.ErrRequestTimeout)
}
