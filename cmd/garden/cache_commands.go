package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"garden/internal/staging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local Objaverse cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List downloaded payloads recorded in the object index",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			objects, err := store.ListObjects(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, objects)
			}

			out := cmd.OutOrStdout()
			if len(objects) == 0 {
				fmt.Fprintln(out, "Object cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(objects))
			var total int64
			for _, obj := range objects {
				total += obj.SizeBytes
				rows = append(rows, []string{
					obj.UID,
					humanize.IBytes(uint64(obj.SizeBytes)),
					humanize.Time(obj.FetchedAt),
					obj.RelPath,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"UID", "Size", "Fetched", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
				[]string{fmt.Sprintf("%d objects", len(objects)), humanize.IBytes(uint64(total))},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print objects as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove downloaded payloads from the cache",
		Long: `Clear removes every downloaded payload and its object index entry.
With --purge the annotation files and the database (including run history)
are removed too; use it after upgrading garden if the database schema changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if purge {
				ctx.close()
				targets := []string{
					cfg.DatasetCacheDir(),
					cfg.StorePath(),
					cfg.StorePath() + "-wal",
					cfg.StorePath() + "-shm",
				}
				for _, target := range targets {
					if err := os.RemoveAll(target); err != nil {
						return fmt.Errorf("remove %s: %w", target, err)
					}
				}
				fmt.Fprintf(out, "Purged cache in %s\n", cfg.Paths.CacheDir)
				return nil
			}

			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := store.DeleteObjects(cmd.Context())
			if err != nil {
				return err
			}
			payloads := filepath.Join(cfg.DatasetCacheDir(), "glbs")
			if err := os.RemoveAll(payloads); err != nil {
				return fmt.Errorf("remove %s: %w", payloads, err)
			}
			fmt.Fprintf(out, "Removed %d cached objects\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "Also remove annotations and the database")
	return cmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan  time.Duration
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove payloads fetched long ago and files missing from the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}

			logger := ctx.log()
			stale, err := staging.CleanStale(cmd.Context(), store, cfg.DatasetCacheDir(), olderThan, time.Now(), logger)
			if err != nil {
				return err
			}
			orphaned, err := staging.CleanOrphaned(cmd.Context(), store, cfg.DatasetCacheDir(), "glbs", logger)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]staging.CleanResult{"stale": stale, "orphaned": orphaned})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d stale payloads (%s) and %d orphaned files (%s)\n",
				len(stale.Removed), humanize.IBytes(uint64(stale.Bytes)),
				len(orphaned.Removed), humanize.IBytes(uint64(orphaned.Bytes)))
			if failed := len(stale.Errors) + len(orphaned.Errors); failed > 0 {
				fmt.Fprintf(out, "%d files could not be removed; see the log for details\n", failed)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove payloads fetched longer ago than this")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the cleanup result as JSON")
	return cmd
}
