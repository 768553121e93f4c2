package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"garden/internal/manifest"
	"garden/internal/objectstore"
	"garden/internal/preflight"
)

type statusReport struct {
	Checks        []preflight.Result `json:"checks"`
	ManifestPath  string             `json:"manifest_path"`
	ManifestItems int                `json:"manifest_items"`
	ManifestError string             `json:"manifest_error,omitempty"`
	manifestErr   error
	LastRun       *objectstore.Run `json:"last_run,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		offline    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, dataset reachability and the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var pinger preflight.Pinger
			if !offline {
				client, err := ctx.datasetClient(nil, nil)
				if err != nil {
					return err
				}
				pinger = client
			}
			report := statusReport{
				Checks:       preflight.RunAll(cmd.Context(), cfg, pinger),
				ManifestPath: cfg.Paths.ManifestPath,
			}
			if entries, err := manifest.Read(cfg.Paths.ManifestPath); err != nil {
				report.ManifestError = err.Error()
				report.manifestErr = err
			} else {
				report.ManifestItems = len(entries)
			}
			if store, err := ctx.openStore(cmd.Context()); err == nil {
				if runs, err := store.ListRuns(cmd.Context(), 1); err == nil && len(runs) > 0 {
					report.LastRun = &runs[0]
				}
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Environment", colorize)
			for _, check := range report.Checks {
				lines = append(lines, renderStatusLine(check.Name, resultKind(check), check.Detail, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Garden", colorize)...)
			lines = append(lines, renderManifestLine(report, colorize))
			lines = append(lines, renderLastRunLine(report.LastRun, colorize))
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the dataset reachability check")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func renderManifestLine(report statusReport, colorize bool) string {
	switch {
	case report.manifestErr == nil:
		return renderStatusLine("Manifest", statusOK, fmt.Sprintf("%d models in %s", report.ManifestItems, report.ManifestPath), colorize)
	case errors.Is(report.manifestErr, manifest.ErrNotFound):
		return renderStatusLine("Manifest", statusWarn, "not written yet; run `garden fetch`", colorize)
	default:
		return renderStatusLine("Manifest", statusError, report.ManifestError, colorize)
	}
}

func renderLastRunLine(run *objectstore.Run, colorize bool) string {
	if run == nil {
		return renderStatusLine("Last run", statusInfo, "none recorded", colorize)
	}
	detail := fmt.Sprintf("%s at %s, %d selected", run.Status, run.StartedAt.Local().Format("2006-01-02 15:04"), run.Selected)
	if run.Error != "" {
		detail += " (" + run.Error + ")"
	}
	return renderStatusLine("Last run", runStatusKind(run.Status), detail, colorize)
}
