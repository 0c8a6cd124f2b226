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
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/adrg/xdg"
)

// PortableDirName is looked for next to the executable. If that directory
// exists, config, data and logs all live in it instead of the XDG dirs.
const PortableDirName = "user"

// Dirs are the places Prism reads and writes.
type Dirs struct {
	Config string
	Data   string
	Logs   string
}

// Locate picks the portable layout when present and the XDG layout
// otherwise.
func Locate() Dirs {
	if root, ok := PortableDir(); ok {
		return Dirs{Config: root, Data: root, Logs: filepath.Join(root, "logs")}
	}
	return Dirs{
		Config: filepath.Join(xdg.ConfigHome, config.AppName),
		Data:   filepath.Join(xdg.DataHome, config.AppName),
		Logs:   filepath.Join(xdg.StateHome, config.AppName),
	}
}

func ConfigDir() string { return Locate().Config }

func DataDir() string { return Locate().Data }

func LogDir() string { return Locate().Logs }

// PortableDir returns the portable directory beside the running binary.
func PortableDir() (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	dir := filepath.Join(filepath.Dir(exe), PortableDirName)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// FoldPath cleans p, uses forward slashes and lowercases it, so paths from
// case-insensitive filesystems compare equal.
func FoldPath(p string) string {
	return strings.ToLower(filepath.ToSlash(filepath.Clean(p)))
}

// PathWithin reports whether p is dir or below it. Matching stops at
// separators, so "icons2/x.png" is not within "icons".
func PathWithin(p, dir string) bool {
	if dir == "" {
		return false
	}
	fp, fd := FoldPath(p), FoldPath(dir)
	if fp == fd {
		return true
	}
	return strings.HasPrefix(fp, strings.TrimSuffix(fd, "/")+"/")
}

// PathInside is PathWithin without dir itself.
func PathInside(p, dir string) bool {
	return PathWithin(p, dir) && FoldPath(p) != FoldPath(dir)
}

// IsAbsPath accepts host absolute paths plus Windows drive and UNC paths
// on any host, so a library copied from another machine still validates.
func IsAbsPath(p string) bool {
	switch {
	case filepath.IsAbs(p), strings.HasPrefix(p, `\\`):
		return true
	case len(p) < 3 || p[1] != ':':
		return false
	case p[2] != '\\' && p[2] != '/':
		return false
	}
	drive := p[0] | 0x20
	return 'a' <= drive && drive <= 'z'
}
