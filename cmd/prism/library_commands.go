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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var sort string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the games in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withBackend(cmd, func(b backend) error {
				var resp models.LibraryResponse
				err := b.call(cmd.Context(), models.MethodLibrary, models.LibraryParams{Sort: sort}, &resp)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Games) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				fmt.Fprintln(out, renderGames(resp.Games, time.Now()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sort, "sort", string(library.SortName), "Sort order: name, recent, playtime or added")
	return cmd
}

func renderGames(games []library.Game, now time.Time) string {
	rows := make([][]string, 0, len(games))
	for i := range games {
		g := &games[i]
		rows = append(rows, []string{
			g.ID,
			g.Title,
			helpers.FormatPlaytime(g.TotalPlaytimeSeconds),
			strconv.Itoa(g.PlayCount),
			helpers.FormatLastPlayed(g.LastPlayedAt, now),
			yesNo(g.Favorite),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Playtime", "Plays", "Last Played", "Favorite"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var noIcon bool

	cmd := &cobra.Command{
		Use:   "add <executable>",
		Short: "Add a game to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path %q: %w", args[0], err)
			}

			extract := !noIcon
			params := models.AddGameParams{
				ExecutablePath: exe,
				ExtractIcon:    &extract,
			}
			if title != "" {
				params.Title = &title
			}

			return ctx.withBackend(cmd, func(b backend) error {
				var g library.Game
				if err := b.call(cmd.Context(), models.MethodLibraryAdd, params, &g); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added %s (%s)\n", g.Title, g.ID)
				switch {
				case g.IconPath != "":
					fmt.Fprintf(out, "Icon: %s\n", g.IconPath)
				case extract:
					fmt.Fprintln(out, "No icon found")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title, defaults to the executable name")
	cmd.Flags().BoolVar(&noIcon, "no-icon", false, "Skip icon extraction")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a game and its cached icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(b backend) error {
				var resp models.RemoveResponse
				err := b.call(cmd.Context(), models.MethodLibraryRemove, models.IDParams{ID: args[0]}, &resp)
				if err != nil {
					return err
				}
				if resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "No game with id %s\n", args[0])
				}
				return nil
			})
		},
	}
}

func newFavoriteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle a game's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(b backend) error {
				var resp models.FavoriteResponse
				err := b.call(cmd.Context(), models.MethodLibraryFavorite, models.IDParams{ID: args[0]}, &resp)
				if err != nil {
					return err
				}
				if resp.Favorite {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", args[0])
				}
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the library as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withBackend(cmd, func(b backend) error {
				var resp models.LibraryResponse
				if err := b.call(cmd.Context(), models.MethodLibrary, nil, &resp); err != nil {
					return err
				}

				if outPath == "" || outPath == "-" {
					return library.WriteCSV(cmd.OutOrStdout(), resp.Games)
				}
				if err := writeCSVFile(outPath, resp.Games); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d games to %s\n", len(resp.Games), outPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file, stdout when empty")
	return cmd
}

func writeCSVFile(path string, games []library.Game) (err error) {
	f, err := os.Create(path) //nolint:gosec // user supplied output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, closeFile(f))
	}()
	return library.WriteCSV(f, games)
}

func closeFile(f io.Closer) error {
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	return nil
}
