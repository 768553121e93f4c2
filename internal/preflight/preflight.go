package preflight

import (
	"context"

	"garden/internal/config"
)

// Result reports the outcome of a single preflight check. A Warning result
// passed but deserves the operator's attention.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Warning bool   `json:"warning,omitempty"`
	Detail  string `json:"detail"`
}

// Pinger checks that the dataset endpoint answers. *objaverse.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

// RunAll executes every check for cfg. A nil pinger skips the dataset check.
func RunAll(ctx context.Context, cfg *config.Config, pinger Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCreatableDirectory("Public directory", cfg.Paths.PublicDir),
		CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir),
		CheckCreatableDirectory("Cache directory", cfg.Paths.CacheDir),
		CheckFreeSpace("Cache free space", cfg.Paths.CacheDir, cfg.Curation.MinFreeGiB),
	}
	if pinger != nil {
		results = append(results, CheckDataset(ctx, pinger))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
