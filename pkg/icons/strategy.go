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
	"fmt"
	"os"
	"strings"

	"github.com/ZaparooProject/prism-core/pkg/helpers/command"
	"github.com/spf13/afero"
)

// Request is one extraction attempt. OutputPath is where the PNG must end
// up for the attempt to count as a success.
type Request struct {
	ExecutablePath string
	OutputPath     string
	GameID         string
}

// Strategy is one way of producing an icon. Strategies are tried in order
// and must respect ctx, which carries the per-attempt deadline.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, req Request) error
}

const successMarker = "SUCCESS"

// QuotePowerShell encodes s as a PowerShell single-quoted literal. Inside
// single quotes only the quote itself is special and is escaped by
// doubling it.
func QuotePowerShell(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// NativeStrategy asks .NET's System.Drawing for the executable's
// associated icon via a generated PowerShell script.
type NativeStrategy struct {
	Exec    command.Executor
	Fs      afero.Fs
	Shell   string
	TempDir string
}

func (*NativeStrategy) Name() string {
	return "native"
}

func nativeScript(exePath, outputPath string) string {
	lines := []string{
		"$ErrorActionPreference = 'Stop'",
		"Add-Type -AssemblyName System.Drawing",
		"try {",
		"  $icon = [System.Drawing.Icon]::ExtractAssociatedIcon(" + QuotePowerShell(exePath) + ")",
		"  if ($icon -ne $null) {",
		"    $bitmap = $icon.ToBitmap()",
		"    $bitmap.Save(" + QuotePowerShell(outputPath) + ", [System.Drawing.Imaging.ImageFormat]::Png)",
		"    $bitmap.Dispose()",
		"    $icon.Dispose()",
		"    Write-Output '" + successMarker + "'",
		"  } else {",
		"    Write-Output 'FAIL'",
		"  }",
		"} catch {",
		"  Write-Output \"FAIL: $_\"",
		"}",
	}
	return strings.Join(lines, "\r\n")
}

func (s *NativeStrategy) Extract(ctx context.Context, req Request) error {
	tempDir := s.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := s.Fs.MkdirAll(tempDir, 0o750); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	script, err := afero.TempFile(s.Fs, tempDir, "prism_icon_*.ps1")
	if err != nil {
		return fmt.Errorf("failed to create script: %w", err)
	}
	scriptPath := script.Name()
	defer func() {
		_ = s.Fs.Remove(scriptPath)
	}()

	_, err = script.WriteString(nativeScript(req.ExecutablePath, req.OutputPath))
	closeErr := script.Close()
	if err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write script: %w", closeErr)
	}

	res, err := s.Exec.Exec(ctx, command.Cmd{
		Name:       s.Shell,
		Args:       []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File", scriptPath},
		HideWindow: true,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("powershell timed out: %w", ctxErr)
	}
	if err != nil {
		return fmt.Errorf("powershell failed: %w", err)
	}

	output := strings.TrimSpace(string(res.Stdout))
	if !strings.Contains(output, successMarker) {
		return fmt.Errorf("powershell reported failure: %q", output)
	}
	return nil
}

// ToolStrategy runs an external extractor. {input} and {output} in Args
// are replaced as whole argv entries; nothing goes through a shell.
type ToolStrategy struct {
	Exec command.Executor
	Tool string
	Args []string
}

func (*ToolStrategy) Name() string {
	return "tool"
}

// argv fills the placeholders in one pass, so a path that itself contains
// "{output}" is passed through untouched.
func (s *ToolStrategy) argv(req Request) []string {
	r := strings.NewReplacer("{input}", req.ExecutablePath, "{output}", req.OutputPath)
	args := make([]string, 0, len(s.Args))
	for _, a := range s.Args {
		args = append(args, r.Replace(a))
	}
	return args
}

func (s *ToolStrategy) Extract(ctx context.Context, req Request) error {
	if s.Tool == "" {
		return fmt.Errorf("no icon tool configured")
	}
	_, err := s.Exec.Exec(ctx, command.Cmd{Name: s.Tool, Args: s.argv(req), HideWindow: true})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s timed out: %w", s.Tool, ctxErr)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", s.Tool, err)
	}
	return nil
}
