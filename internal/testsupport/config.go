package testsupport

import (
	"path/filepath"
	"testing"

	"garden/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose public tree, cache and logs live in a
// unique temp directory per test. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	public := filepath.Join(base, "public")
	cfgVal.Paths.PublicDir = public
	cfgVal.Paths.OutputDir = filepath.Join(public, "models", "raw")
	cfgVal.Paths.OptimizedDir = filepath.Join(public, "models", "optimized")
	cfgVal.Paths.ManifestPath = filepath.Join(public, "models", "manifest.json")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.Root = public
	cfgVal.Curation.MinFreeGiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDatasetURL points the dataset client at url, usually an httptest server.
func WithDatasetURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dataset.BaseURL = url
	}
}

// WithSizes overrides the pool and target sizes.
func WithSizes(pool, target int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.PoolSize = pool
		b.cfg.Curation.TargetSize = target
	}
}

// WithTags overrides the target tags.
func WithTags(tags ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.TargetTags = tags
	}
}

// WithStrictDownloads toggles strict download handling.
func WithStrictDownloads(strict bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.StrictDownloads = strict
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
