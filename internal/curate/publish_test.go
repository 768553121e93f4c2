package curate_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"garden/internal/curate"
	"garden/internal/manifest"
	"garden/internal/services"
	"garden/internal/testsupport"
)

func TestPublishRejectsUnsafeIDsBeforeWriting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := curate.DefaultOptions()
	opts.PublicDir = cfg.Paths.PublicDir
	opts.OutputDir = cfg.Paths.OutputDir
	opts.ManifestPath = cfg.Paths.ManifestPath
	opts.OptimizedDir = cfg.Paths.OptimizedDir

	stale := filepath.Join(opts.OutputDir, "previous.glb")
	testsupport.WriteFile(t, stale, 4)
	payload := filepath.Join(t.TempDir(), "payload.glb")
	testsupport.WriteFile(t, payload, 8)

	for _, id := range []string{"../../escaped", "nested/id", `back\slash`, ".."} {
		t.Run(id, func(t *testing.T) {
			_, err := curate.Publish([]curate.Candidate{
				{ID: "ok", Path: payload, Size: 8},
				{ID: id, Path: payload, Size: 8},
			}, opts, nil)
			if !errors.Is(err, services.ErrValidation) || !errors.Is(err, manifest.ErrInvalidID) {
				t.Fatalf("expected invalid id error, got %v", err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(opts.PublicDir, "escaped.glb")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no file may be written outside the output dir, stat err=%v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("previous output should be untouched: %v", err)
	}
	if _, err := os.Stat(opts.ManifestPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("manifest should not be written, stat err=%v", err)
	}
}
