package curate

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"garden/internal/services"
)

// Options configures a curation run.
type Options struct {
	// PublicDir is the web root the manifest URLs are relative to.
	PublicDir string `validate:"required"`
	// OutputDir receives the selected payloads. Stale payloads in it are removed.
	OutputDir    string `validate:"required,nefield=PublicDir"`
	ManifestPath string `validate:"required"`
	// OptimizedDir is only used to build the optimizedPath placeholder.
	OptimizedDir string   `validate:"required"`
	Extension    string   `validate:"required,excludesall=/\\"`
	PoolSize     int      `validate:"gte=1"`
	TargetSize   int      `validate:"gte=1,ltefield=PoolSize"`
	TargetTags   []string `validate:"min=1,dive,required"`
	// StrictDownloads aborts the run on the first failed download instead of
	// skipping the object.
	StrictDownloads bool
	// LockPath is held exclusively for the duration of Run. Empty disables locking.
	LockPath string
}

// DefaultTargetTags are the tags the garden scene is built from.
func DefaultTargetTags() []string {
	return []string{"nature", "abstract", "organic", "floral", "geometric", "plant", "flower"}
}

// DefaultOptions returns the options matching the project's public layout,
// relative to the working directory.
func DefaultOptions() Options {
	return Options{
		PublicDir:    "public",
		OutputDir:    filepath.Join("public", "models", "raw"),
		ManifestPath: filepath.Join("public", "models", "manifest.json"),
		OptimizedDir: filepath.Join("public", "models", "optimized"),
		Extension:    "glb",
		PoolSize:     50,
		TargetSize:   30,
		TargetTags:   DefaultTargetTags(),
	}
}

// Validate checks the options and returns an error marked with
// services.ErrValidation describing every violation.
func (o Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return services.Wrap(services.ErrValidation, "curate", "validate options", "", err)
	}
	if rel, err := filepath.Rel(o.OutputDir, o.ManifestPath); err == nil && filepath.Dir(rel) == "." && !strings.HasPrefix(rel, "..") {
		return services.Wrap(services.ErrValidation, "curate", "validate options", "manifest must not live inside the output directory", nil)
	}
	return nil
}

func (o Options) extension() string {
	return strings.TrimPrefix(o.Extension, ".")
}
