package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"garden/internal/manifest"
	"garden/internal/objectstore"
	"garden/internal/services"
	"garden/internal/testsupport"
)

func newTreeDataset(t *testing.T) *testsupport.Dataset {
	t.Helper()
	return testsupport.NewDataset(t,
		testsupport.Model{UID: "oak", Tags: []any{"Tree"}, Size: 300},
		testsupport.Model{UID: "pebble", Tags: []any{"rock"}, Size: 10},
		testsupport.Model{UID: "birch", Tags: []any{map[string]any{"name": "tree", "slug": "tree"}}, Size: 100},
		testsupport.Model{UID: "fern", Shard: "000-001", Tags: []any{"plant"}, Size: 200},
	)
}

func TestFetchPublishesSmallestModels(t *testing.T) {
	dataset := newTreeDataset(t)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithSizes(10, 2),
		testsupport.WithTags("tree", "plant"),
	)

	out, _, err := runCLI(t, env.configPath, "fetch")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Found 3 matching models.")
	requireContains(t, out, "Downloaded 3 of 3 sampled objects.")
	requireContains(t, out, "Manifest saved to "+env.cfg.Paths.ManifestPath+" with 2 items.")

	entries, err := manifest.Read(env.cfg.Paths.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	want := []manifest.Entry{
		{ID: "birch", Path: "/models/raw/birch.glb", OptimizedPath: "/models/optimized/birch.glb"},
		{ID: "fern", Path: "/models/raw/fern.glb", OptimizedPath: "/models/optimized/fern.glb"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
	if got := testsupport.ListFiles(t, env.cfg.Paths.OutputDir, ".glb"); len(got) != 2 {
		t.Fatalf("expected 2 published files, got %v", got)
	}

	out, _, err = runCLI(t, env.configPath, "manifest", "validate")
	if err != nil {
		t.Fatalf("manifest validate: %v", err)
	}
	requireContains(t, out, "is valid")

	out, _, err = runCLI(t, env.configPath, "manifest", "show", "--json")
	if err != nil {
		t.Fatalf("manifest show: %v", err)
	}
	var rows []manifestRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode manifest show: %v\n%s", err, out)
	}
	if len(rows) != 2 || !rows[0].Present || rows[0].SizeBytes != 100 || rows[1].SizeBytes != 200 {
		t.Fatalf("unexpected manifest rows: %+v", rows)
	}

	out, _, err = runCLI(t, env.configPath, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []objectstore.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Status != "succeeded" || runs[0].Matched != 3 || runs[0].Selected != 2 {
		t.Fatalf("unexpected history: %+v", runs)
	}

	out, _, err = runCLI(t, env.configPath, "cache", "list", "--json")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	var objects []objectstore.Object
	if err := json.Unmarshal([]byte(out), &objects); err != nil {
		t.Fatalf("decode cache list: %v\n%s", err, out)
	}
	if len(objects) != 3 {
		t.Fatalf("expected 3 cached objects, got %+v", objects)
	}
}

func TestFetchSecondRunReusesCache(t *testing.T) {
	dataset := newTreeDataset(t)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithSizes(10, 2),
		testsupport.WithTags("tree"),
	)

	for i := 0; i < 2; i++ {
		if _, _, err := runCLI(t, env.configPath, "fetch", "--skip-preflight"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if hits := dataset.Hits("/glbs/000-000/oak.glb"); hits != 1 {
		t.Fatalf("expected payload fetched once, got %d", hits)
	}
}

func TestFetchFlagsOverrideConfig(t *testing.T) {
	dataset := newTreeDataset(t)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithSizes(10, 2),
		testsupport.WithTags("tree"),
	)

	out, _, err := runCLI(t, env.configPath, "fetch", "--tag", "rock", "--target-size", "1", "--json")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var result struct {
		Matched  int              `json:"matched"`
		Selected []manifest.Entry `json:"selected"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	if result.Matched != 1 || len(result.Selected) != 1 || result.Selected[0].ID != "pebble" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFetchEmptyResultLeavesOutput(t *testing.T) {
	dataset := newTreeDataset(t)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithTags("lamp"),
	)
	existing := filepath.Join(env.cfg.Paths.OutputDir, "old.glb")
	testsupport.WriteFile(t, existing, 5)

	out, _, err := runCLI(t, env.configPath, "fetch")
	if !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
	requireContains(t, out, "No models found. Exiting.")
	if _, err := os.Stat(existing); err != nil {
		t.Fatalf("previous output should survive: %v", err)
	}
	if _, err := os.Stat(env.cfg.Paths.ManifestPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("manifest should not be written, stat err=%v", err)
	}
}

func TestFetchStrictAbortsOnMissingPayload(t *testing.T) {
	dataset := testsupport.NewDataset(t,
		testsupport.Model{UID: "oak", Tags: []any{"tree"}, Size: 30},
		testsupport.Model{UID: "ghost", Tags: []any{"tree"}, Size: 10, Missing: true},
	)
	env := setupCLITestEnv(t,
		testsupport.WithDatasetURL(dataset.URL),
		testsupport.WithTags("tree"),
		testsupport.WithStrictDownloads(true),
	)

	if _, _, err := runCLI(t, env.configPath, "fetch"); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "fetch", "--strict=false")
	if err != nil {
		t.Fatalf("lenient fetch: %v", err)
	}
	requireContains(t, out, "(1 skipped)")
}

func TestFetchPreflightFailsWhenDatasetUnreachable(t *testing.T) {
	dataset := testsupport.NewDataset(t)
	url := dataset.URL
	dataset.Close()
	env := setupCLITestEnv(t, testsupport.WithDatasetURL(url))

	_, _, err := runCLI(t, env.configPath, "fetch")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), "Objaverse dataset")
}
