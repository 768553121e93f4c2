package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"garden/internal/testsupport"
)

func TestCacheClear(t *testing.T) {
	dataset := newTreeDataset(t)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithTags("tree"),
	)
	if _, _, err := runCLI(t, env.configPath, "fetch"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "oak")
	requireContains(t, out, "2 objects")

	out, _, err = runCLI(t, env.configPath, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 2 cached objects")
	if _, err := os.Stat(filepath.Join(env.cfg.DatasetCacheDir(), "glbs")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("payload directory should be gone, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.DatasetCacheDir(), "object-paths.json.gz")); err != nil {
		t.Fatalf("annotations should survive a plain clear: %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Object cache is empty")
}

func TestCachePurgeRemovesDatabase(t *testing.T) {
	dataset := newTreeDataset(t)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithTags("tree"),
	)
	if _, _, err := runCLI(t, env.configPath, "fetch"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "cache", "clear", "--purge")
	if err != nil {
		t.Fatalf("cache purge: %v", err)
	}
	requireContains(t, out, "Purged cache")
	for _, path := range []string{env.cfg.DatasetCacheDir(), env.cfg.StorePath()} {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s should be removed, stat err=%v", path, err)
		}
	}

	out, _, err = runCLI(t, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestCachePruneRemovesOrphans(t *testing.T) {
	dataset := newTreeDataset(t)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithTags("tree"),
	)
	if _, _, err := runCLI(t, env.configPath, "fetch"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	stray := filepath.Join(env.cfg.DatasetCacheDir(), "glbs", "999-999", "stray.glb")
	testsupport.WriteFile(t, stray, 12)

	out, _, err := runCLI(t, env.configPath, "cache", "prune")
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Removed 0 stale payloads")
	requireContains(t, out, "1 orphaned files")
	if _, err := os.Stat(stray); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stray payload should be removed, stat err=%v", err)
	}

	out, _, err = runCLI(t, env.configPath, "cache", "prune", "--older-than", "0s")
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Removed 2 stale payloads")
}
