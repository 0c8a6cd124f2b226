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

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/history"
	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var gameID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent play sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withBackend(cmd, func(b backend) error {
				var resp models.HistoryResponse
				params := models.HistoryParams{GameID: gameID, Limit: limit}
				if err := b.call(cmd.Context(), models.MethodSessionsHistory, params, &resp); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "No sessions recorded")
					return nil
				}

				var lib models.LibraryResponse
				if err := b.call(cmd.Context(), models.MethodLibrary, nil, &lib); err != nil {
					return err
				}
				titles := make(map[string]string, len(lib.Games))
				for i := range lib.Games {
					titles[lib.Games[i].ID] = lib.Games[i].Title
				}

				fmt.Fprintln(out, renderHistory(resp.Entries, titles))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&gameID, "game", "", "Only show sessions of this game id")
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "Maximum number of sessions")
	return cmd
}

func renderHistory(entries []history.Entry, titles map[string]string) string {
	rows := make([][]string, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		title, ok := titles[e.GameID]
		if !ok {
			title = e.GameID + " (removed)"
		}
		rows = append(rows, []string{
			title,
			e.StartTime.Local().Format("2006-01-02 15:04"),
			helpers.FormatSessionDuration(e.ElapsedSeconds),
		})
	}
	return renderTable(
		[]string{"Game", "Started", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	)
}
