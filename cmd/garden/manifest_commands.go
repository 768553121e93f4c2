package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"garden/internal/manifest"
	"garden/internal/services"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the published model manifest",
	}
	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestValidateCommand(ctx))
	return manifestCmd
}

type manifestRow struct {
	manifest.Entry
	SizeBytes int64 `json:"size_bytes"`
	Present   bool  `json:"present"`
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List manifest entries with their payload sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := manifest.Read(cfg.Paths.ManifestPath)
			if err != nil {
				return err
			}

			rows := make([]manifestRow, 0, len(entries))
			var total int64
			for _, entry := range entries {
				row := manifestRow{Entry: entry}
				if info, err := os.Stat(manifest.ResolvePath(cfg.Paths.PublicDir, entry.Path)); err == nil {
					row.Present = true
					row.SizeBytes = info.Size()
					total += info.Size()
				}
				rows = append(rows, row)
			}

			if jsonOutput {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "Manifest %s is empty\n", cfg.Paths.ManifestPath)
				return nil
			}
			table := make([][]string, 0, len(rows))
			for i, row := range rows {
				size := "missing"
				if row.Present {
					size = humanize.IBytes(uint64(row.SizeBytes))
				}
				table = append(table, []string{strconv.Itoa(i + 1), row.ID, row.Path, size})
			}
			footer := []string{"", fmt.Sprintf("%d models", len(rows)), "", humanize.IBytes(uint64(total))}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "ID", "Path", "Size"},
				table,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
				footer,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}

func newManifestValidateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest against its schema and the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			problems, err := manifest.Verify(cfg.Paths.ManifestPath, cfg.Paths.PublicDir, cfg.Paths.OutputDir, cfg.Curation.Extension)
			if err != nil {
				return err
			}

			if jsonOutput {
				if problems == nil {
					problems = []manifest.Problem{}
				}
				if err := writeJSON(cmd, problems); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, p := range problems {
					fmt.Fprintln(out, renderStatusLine(p.Kind, statusError, p.Detail, colorize))
				}
				if len(problems) == 0 {
					fmt.Fprintf(out, "Manifest %s is valid\n", cfg.Paths.ManifestPath)
				}
			}
			if len(problems) > 0 {
				return services.Wrap(services.ErrValidation, "manifest", "verify", fmt.Sprintf("%d problems found", len(problems)), nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print problems as JSON")
	return cmd
}
