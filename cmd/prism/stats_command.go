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
	"fmt"
	"strconv"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show playtime totals and the most played games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withBackend(cmd, func(b backend) error {
				var stats library.Stats
				if err := b.call(cmd.Context(), models.MethodLibraryStats, nil, &stats); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Games:    %d\n", stats.TotalGames)
				fmt.Fprintf(out, "Sessions: %d\n", stats.TotalSessions)
				fmt.Fprintf(out, "Playtime: %s\n", helpers.FormatPlaytime(stats.TotalPlaytimeSeconds))

				if len(stats.MostPlayed) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(stats.MostPlayed))
				for i := range stats.MostPlayed {
					g := &stats.MostPlayed[i]
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						g.Title,
						helpers.FormatPlaytime(g.TotalPlaytimeSeconds),
						strconv.Itoa(g.PlayCount),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Title", "Playtime", "Plays"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
