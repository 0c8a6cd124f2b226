package main

import (
	"fmt"
	"path/filepath"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var exts []string
	var noIcon bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Add every game executable found under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path %q: %w", args[0], err)
			}

			extract := !noIcon
			params := models.ScanParams{
				Path:        dir,
				Extensions:  exts,
				ExtractIcon: &extract,
			}

			return ctx.withBackend(cmd, func(b backend) error {
				var resp models.ScanResponse
				if err := b.call(cmd.Context(), models.MethodLibraryScan, params, &resp); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Added) > 0 {
					rows := make([][]string, 0, len(resp.Added))
					for i := range resp.Added {
						g := &resp.Added[i]
						rows = append(rows, []string{g.ID, g.Title, g.ExecutablePath})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Title", "Executable"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft},
					))
				}
				fmt.Fprintf(out, "Found %d, added %d, already in library %d",
					resp.Found, len(resp.Added), resp.Skipped)
				if resp.Failed > 0 {
					fmt.Fprintf(out, ", failed %d", resp.Failed)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&exts, "ext", nil, "File extensions to match (default .exe)")
	cmd.Flags().BoolVar(&noIcon, "no-icon", false, "Skip icon extraction")
	return cmd
}
