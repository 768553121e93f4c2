package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"garden/internal/config"
	"garden/internal/curate"
	"garden/internal/preflight"
	"garden/internal/services"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		poolSize      int
		targetSize    int
		tags          []string
		strict        bool
		skipPreflight bool
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a fresh selection of models and rewrite the manifest",
		Long: `Fetch loads the Objaverse annotations, keeps models carrying one of the
target tags, samples a pool of them, downloads the pool and publishes the
smallest models to the output directory together with a new manifest.

Previously published models are replaced only when the run reaches the
publish step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := curateOptions(cfg)
			if cmd.Flags().Changed("pool-size") {
				opts.PoolSize = poolSize
			}
			if cmd.Flags().Changed("target-size") {
				opts.TargetSize = targetSize
			}
			if cmd.Flags().Changed("tag") {
				opts.TargetTags = tags
			}
			if cmd.Flags().Changed("strict") {
				opts.StrictDownloads = strict
			}

			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			bar := newDownloadBar(cmd)
			client, err := ctx.datasetClient(store, bar.update)
			if err != nil {
				return err
			}

			if !skipPreflight {
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, client)); len(failed) > 0 {
					details := make([]string, 0, len(failed))
					for _, f := range failed {
						details = append(details, f.Name+": "+f.Detail)
					}
					return services.Wrap(services.ErrConfiguration, "fetch", "preflight", strings.Join(details, "; "), nil)
				}
			}

			curator, err := curate.New(client, opts,
				curate.WithLogger(ctx.log()),
				curate.WithRecorder(store),
			)
			if err != nil {
				return err
			}

			result, err := curator.Run(cmd.Context())
			bar.finish()
			if errors.Is(err, services.ErrEmptyResult) {
				fmt.Fprintln(cmd.OutOrStdout(), "No models found. Exiting.")
				return err
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d matching models.\n", result.Matched)
			fmt.Fprintf(out, "Downloaded %d of %d sampled objects", result.Downloaded, result.Sampled)
			if result.Failed > 0 {
				fmt.Fprintf(out, " (%d skipped)", result.Failed)
			}
			fmt.Fprintln(out, ".")
			fmt.Fprintf(out, "Selected %d smallest models (max size: %s).\n", len(result.Selected), humanize.IBytes(uint64(result.MaxSize)))
			fmt.Fprintf(out, "Manifest saved to %s with %d items.\n", opts.ManifestPath, len(result.Selected))
			return nil
		},
	}

	defaults := curate.DefaultOptions()
	cmd.Flags().IntVar(&poolSize, "pool-size", defaults.PoolSize, "Number of matching models to download before selecting")
	cmd.Flags().IntVar(&targetSize, "target-size", defaults.TargetSize, "Number of models to publish")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Target tag (repeatable); replaces the configured tags")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort the run when any download fails")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and dataset checks before running")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run result as JSON")
	return cmd
}

func curateOptions(cfg *config.Config) curate.Options {
	return curate.Options{
		PublicDir:       cfg.Paths.PublicDir,
		OutputDir:       cfg.Paths.OutputDir,
		ManifestPath:    cfg.Paths.ManifestPath,
		OptimizedDir:    cfg.Paths.OptimizedDir,
		Extension:       cfg.Curation.Extension,
		PoolSize:        cfg.Curation.PoolSize,
		TargetSize:      cfg.Curation.TargetSize,
		TargetTags:      cfg.Curation.TargetTags,
		StrictDownloads: cfg.Curation.StrictDownloads,
		LockPath:        cfg.LockPath(),
	}
}

// downloadBar draws a progress bar on stderr when it is a terminal.
type downloadBar struct {
	cmd     *cobra.Command
	enabled bool
	bar     *progressbar.ProgressBar
}

func newDownloadBar(cmd *cobra.Command) *downloadBar {
	return &downloadBar{cmd: cmd, enabled: shouldColorize(cmd.ErrOrStderr())}
}

func (d *downloadBar) update(done, total int) {
	if !d.enabled {
		return
	}
	if d.bar == nil {
		d.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(d.cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = d.bar.Set(done)
}

func (d *downloadBar) finish() {
	if d.bar != nil {
		_ = d.bar.Finish()
	}
}
