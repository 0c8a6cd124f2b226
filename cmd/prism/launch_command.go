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
	"errors"
	"fmt"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/spf13/cobra"
)

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <id>",
		Short: "Launch a game and wait for it to exit",
		Long: "Launch a game and wait for it to exit, then print the session length.\n" +
			"Interrupting the wait keeps the playtime recorded so far.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withBackend(cmd, func(b backend) error {
				var g library.Game
				if err := b.call(cmd.Context(), models.MethodLibraryGet, models.IDParams{ID: id}, &g); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				ended, err := b.launch(cmd.Context(), id, func(resp models.LaunchResponse) {
					fmt.Fprintf(out, "Launched %s (pid %d)\n", g.Title, resp.Pid)
				})
				switch {
				case errors.Is(err, context.Canceled), errors.Is(err, errSessionDrained):
					fmt.Fprintln(out, "Stopped waiting, playtime so far is kept")
					return nil
				case errors.Is(err, errSessionUnobserved):
					var after library.Game
					if err := b.call(context.WithoutCancel(cmd.Context()), models.MethodLibraryGet,
						models.IDParams{ID: id}, &after); err != nil {
						return err
					}
					fmt.Fprintf(out, "%s exited (total %s)\n", g.Title, helpers.FormatPlaytime(after.TotalPlaytimeSeconds))
					return nil
				case err != nil:
					return err
				}

				if !ended.Committed {
					fmt.Fprintf(out, "%s exited after %s, session too short to count\n",
						g.Title, helpers.FormatSessionDuration(ended.ElapsedSeconds))
					return nil
				}
				fmt.Fprintf(out, "%s: played %s (total %s)\n",
					g.Title,
					helpers.FormatSessionDuration(ended.ElapsedSeconds),
					helpers.FormatPlaytime(ended.TotalPlaytimeSeconds))
				return nil
			})
		},
	}
}
