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

package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

var ErrNotDirectory = errors.New("scan root is not a directory")

// DefaultScanExtensions are matched when a scan names no extensions.
var DefaultScanExtensions = []string{".exe"}

// Installers, redistributables and crash reporters that ship next to games.
var scanSkipNames = []string{
	"unins",
	"setup",
	"crashhandler",
	"crashreport",
	"vcredist",
	"vc_redist",
	"dxsetup",
	"dxwebsetup",
	"dotnetfx",
	"ue4prereq",
}

var scanSkipDirs = []string{
	"_commonredist",
	"redist",
	"__installer",
	"directx",
	"support",
}

func skipExecutable(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range scanSkipNames {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return DefaultScanExtensions
	}
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// FindExecutables walks root in parallel and returns the sorted paths of
// files with one of the given extensions. Extensions match without regard
// to case. Unreadable directories are skipped.
func FindExecutables(root string, exts []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	exts = normalizeExtensions(exts)

	var (
		mu    sync.Mutex
		found []string
	)
	conf := fastwalk.Config{Follow: true}
	err = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && slices.Contains(scanSkipDirs, strings.ToLower(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		if skipExecutable(d.Name()) {
			return nil
		}

		mu.Lock()
		found = append(found, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	slices.Sort(found)
	return found, nil
}

// UnknownPaths filters paths down to those no game in the library
// launches. Paths are compared without regard to case.
func (s *Store) UnknownPaths(paths []string) []string {
	s.mu.RLock()
	known := make(map[string]struct{}, len(s.doc.Games))
	for i := range s.doc.Games {
		known[strings.ToLower(filepath.Clean(s.doc.Games[i].ExecutablePath))] = struct{}{}
	}
	s.mu.RUnlock()

	var out []string
	for _, p := range paths {
		key := strings.ToLower(filepath.Clean(p))
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
