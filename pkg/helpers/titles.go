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
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UnknownTitle is returned when nothing usable is left of a filename.
const UnknownTitle = "Unknown Game"

var (
	reExtension   = regexp.MustCompile(`\.[^.]+$`)
	reVersion     = regexp.MustCompile(`(?i)[-_ .]v?\d+(\.\d+){1,3}([-_.]\w+)?$`)
	reVersionTail = regexp.MustCompile(`(?i)[-_ ](v\d+.*)$`)
	reBuildTag    = regexp.MustCompile(
		`(?i)[-_ ]?(x64|x86|win64|win32|win|windows|setup|install|portable|beta|alpha|release|final|build\d*)$`,
	)
	reTrailingSep = regexp.MustCompile(`[-_ ]+$`)
	reUnderscores = regexp.MustCompile(`_+`)
	reDashes      = regexp.MustCompile(`-{2,}`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// TitleFromPath derives a display title from an executable path by
// stripping the extension, version suffixes and common build tags. It
// accepts both slash styles so Windows paths work on any OS.
//
//	C:\Games\Hollow_Knight_v1.5.78.exe -> "Hollow Knight"
//	/opt/celeste/Celeste-x64.exe      -> "Celeste"
func TitleFromPath(p string) string {
	if p == "" {
		return ""
	}

	name := path.Base(strings.ReplaceAll(p, `\`, "/"))
	name = norm.NFC.String(name)

	name = reExtension.ReplaceAllString(name, "")
	name = reVersion.ReplaceAllString(name, "")
	name = reVersionTail.ReplaceAllString(name, "")
	name = reBuildTag.ReplaceAllString(name, "")
	name = reTrailingSep.ReplaceAllString(name, "")
	name = reUnderscores.ReplaceAllString(name, " ")
	name = reDashes.ReplaceAllString(name, " ")
	name = strings.TrimSpace(reSpaces.ReplaceAllString(name, " "))

	if name == "" || name == "." || name == "/" {
		return UnknownTitle
	}
	return name
}
