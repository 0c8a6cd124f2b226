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

package icons

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/helpers/command"
	testhelpers "github.com/ZaparooProject/prism-core/pkg/testing/helpers"
	"github.com/ZaparooProject/prism-core/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	iconsDir = "/data/icons"
	tempDir  = "/tmp"
	exePath  = `C:\Games\Hollow Knight\hollow_knight.exe`
)

var toolArgs = []string{"-s", "256", "{input}", "{output}"}

func newTestResolver(
	t *testing.T,
	timeout time.Duration,
) (*Resolver, *mocks.MockCommandExecutor, *testhelpers.FSHelper) {
	t.Helper()

	fsh := testhelpers.NewMemoryFS()
	cmd := &mocks.MockCommandExecutor{}

	strategies := []Strategy{
		&NativeStrategy{Exec: cmd, Fs: fsh.Fs, Shell: "pwsh", TempDir: tempDir},
		&ToolStrategy{Exec: cmd, Tool: "exe-thumbnailer", Args: toolArgs},
	}
	r := NewResolver(iconsDir, strategies, Options{Fs: fsh.Fs, Timeout: timeout, Workers: 2})
	return r, cmd, fsh
}

var saveRe = regexp.MustCompile(`\$bitmap\.Save\('([^']*)'`)

func extractOutputPath(script string) string {
	m := saveRe.FindStringSubmatch(script)
	if m == nil {
		return ""
	}
	return m[1]
}

func cmdArg(args mock.Arguments) command.Cmd {
	return args.Get(1).(command.Cmd)
}

func scriptArg(args mock.Arguments) string {
	argv := cmdArg(args).Args
	return argv[len(argv)-1]
}

// outputFromArgv pulls the output path back out of a substituted tool argv.
func outputFromArgv(args mock.Arguments) string {
	return cmdArg(args).Args[3]
}

func assertNoScripts(t *testing.T, fs afero.Fs) {
	t.Helper()
	matches, err := afero.Glob(fs, filepath.Join(tempDir, "*.ps1"))
	require.NoError(t, err)
	assert.Empty(t, matches, "generated scripts should be removed")
}

func TestExtractNativeSuccess(t *testing.T) {
	t.Parallel()

	r, cmd, fsh := newTestResolver(t, time.Second)
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).
		Run(func(args mock.Arguments) {
			script, err := fsh.ReadFile(scriptArg(args))
			require.NoError(t, err)
			assert.Contains(t, string(script), QuotePowerShell(exePath))
			c := cmdArg(args)
			assert.True(t, c.HideWindow)
			assert.Equal(t, []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File"},
				c.Args[:len(c.Args)-1])

			out := extractOutputPath(string(script))
			require.NoError(t, fsh.WriteFile(out, []byte("png-native")))
		}).
		Return(mocks.Stdout("SUCCESS\r\n"), nil).Once()

	res, err := r.Extract(context.Background(), exePath)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.GameID)
	assert.Equal(t, filepath.Join(iconsDir, res.GameID+".png"), res.IconPath)
	data, err := fsh.ReadFile(res.IconPath)
	require.NoError(t, err)
	assert.Equal(t, "png-native", string(data))

	assertNoScripts(t, fsh.Fs)
	cmd.AssertNotCalled(t, "Exec", mock.Anything, mocks.CmdNamed("exe-thumbnailer"))
	cmd.AssertExpectations(t)
}

func TestExtractFallsBackToTool(t *testing.T) {
	t.Parallel()

	r, cmd, fsh := newTestResolver(t, time.Second)
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).
		Run(func(args mock.Arguments) {
			script, err := fsh.ReadFile(scriptArg(args))
			require.NoError(t, err)
			// leave a truncated file behind, as a crashed save would
			require.NoError(t, fsh.WriteFile(extractOutputPath(string(script)), []byte("partial")))
		}).
		Return(mocks.Stdout("FAIL: System.Drawing is not supported on this platform\r\n"), nil).Once()

	cmd.On("Exec", mock.Anything, mocks.CmdNamed("exe-thumbnailer")).
		Run(func(args mock.Arguments) {
			out := outputFromArgv(args)
			exists := fsh.FileExists(out)
			assert.False(t, exists, "native partial output should be gone before the tool runs")
			require.NoError(t, fsh.WriteFile(out, []byte("png-tool")))
		}).
		Return(command.Result{}, nil).Once()

	res, err := r.Extract(context.Background(), exePath)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, filepath.Join(iconsDir, res.GameID+".png"), res.IconPath)
	data, err := fsh.ReadFile(res.IconPath)
	require.NoError(t, err)
	assert.Equal(t, "png-tool", string(data))

	assertNoScripts(t, fsh.Fs)
	cmd.AssertExpectations(t)
}

func TestExtractMissingOutputIsFailure(t *testing.T) {
	t.Parallel()

	r, cmd, fsh := newTestResolver(t, time.Second)
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).
		Return(mocks.Stdout("SUCCESS"), nil).Once()
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("exe-thumbnailer")).
		Run(func(args mock.Arguments) {
			require.NoError(t, fsh.WriteFile(outputFromArgv(args), []byte("png-tool")))
		}).
		Return(command.Result{}, nil).Once()

	res, err := r.Extract(context.Background(), exePath)
	require.NoError(t, err)
	assert.True(t, res.Success)
	cmd.AssertExpectations(t)
}

func TestExtractStrategyTimeout(t *testing.T) {
	t.Parallel()

	r, cmd, fsh := newTestResolver(t, 20*time.Millisecond)
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(command.Result{}, context.DeadlineExceeded).Once()
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("exe-thumbnailer")).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			assert.NoError(t, ctx.Err(), "tool should get a fresh deadline")
			require.NoError(t, fsh.WriteFile(outputFromArgv(args), []byte("png-tool")))
		}).
		Return(command.Result{}, nil).Once()

	res, err := r.Extract(context.Background(), exePath)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assertNoScripts(t, fsh.Fs)
	cmd.AssertExpectations(t)
}

func TestExtractAllStrategiesFail(t *testing.T) {
	t.Parallel()

	r, cmd, fsh := newTestResolver(t, time.Second)
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).
		Return(command.Result{}, assert.AnError).Once()
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("exe-thumbnailer")).
		Run(func(args mock.Arguments) {
			require.NoError(t, fsh.WriteFile(outputFromArgv(args), []byte{}))
		}).
		Return(command.Result{}, assert.AnError).Once()

	res, err := r.Extract(context.Background(), exePath)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Empty(t, res.IconPath)
	assert.NotEmpty(t, res.GameID)

	files, err := afero.ReadDir(fsh.Fs, iconsDir)
	require.NoError(t, err)
	assert.Empty(t, files)
	assertNoScripts(t, fsh.Fs)
	cmd.AssertExpectations(t)
}

func TestExtractFreshIDPerRequest(t *testing.T) {
	t.Parallel()

	r, cmd, _ := newTestResolver(t, time.Second)
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).
		Return(mocks.Stdout("FAIL"), nil)
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("exe-thumbnailer")).Return(command.Result{}, assert.AnError)

	a, err := r.Extract(context.Background(), exePath)
	require.NoError(t, err)
	b, err := r.Extract(context.Background(), exePath)
	require.NoError(t, err)
	assert.NotEqual(t, a.GameID, b.GameID)
}

func TestExtractCancelledContext(t *testing.T) {
	t.Parallel()

	r, cmd, _ := newTestResolver(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cmd.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).
		Run(func(mock.Arguments) { cancel() }).
		Return(command.Result{}, context.Canceled).Once()

	res, err := r.Extract(ctx, exePath)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Success)
	cmd.AssertNotCalled(t, "Exec", mock.Anything, mocks.CmdNamed("exe-thumbnailer"))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	r, _, fsh := newTestResolver(t, time.Second)
	inside := filepath.Join(iconsDir, "abc.png")
	outside := "/data/games-library.json"
	require.NoError(t, fsh.WriteFile(inside, []byte("png")))
	require.NoError(t, fsh.WriteFile(outside, []byte("{}")))

	require.NoError(t, r.Remove(inside))
	assert.False(t, fsh.FileExists(inside))

	require.NoError(t, r.Remove(inside), "removing a missing icon is not an error")
	require.NoError(t, r.Remove(""))

	require.ErrorIs(t, r.Remove(outside), ErrOutsideIconsDir)
	assert.True(t, fsh.FileExists(outside))

	require.ErrorIs(t, r.Remove("/data/icons2/abc.png"), ErrOutsideIconsDir)
	require.ErrorIs(t, r.Remove(filepath.Join(iconsDir, "notes.txt")), ErrOutsideIconsDir)
	require.ErrorIs(t, r.Remove(iconsDir), ErrOutsideIconsDir)
}
