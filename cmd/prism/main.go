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

// Command prism manages the game library and launches games with playtime
// tracking. Run "prism serve" to keep the service and its API in the
// foreground; every other command talks to that service when it is
// running and works on the library directly when it is not.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ZaparooProject/prism-core/internal/telemetry"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	telemetry.Close()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}
