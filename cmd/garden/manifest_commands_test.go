package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"garden/internal/manifest"
	"garden/internal/services"
	"garden/internal/testsupport"
)

func TestManifestValidateReportsProblems(t *testing.T) {
	env := setupCLITestEnv(t)
	cfg := env.cfg
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.OutputDir, "kept.glb"), 4)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.OutputDir, "orphan.glb"), 4)
	entries := []manifest.Entry{
		manifest.NewEntry("kept", "glb", cfg.Paths.PublicDir, cfg.Paths.OutputDir, cfg.Paths.OptimizedDir),
		manifest.NewEntry("gone", "glb", cfg.Paths.PublicDir, cfg.Paths.OutputDir, cfg.Paths.OptimizedDir),
	}
	if err := manifest.Write(cfg.Paths.ManifestPath, entries); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "manifest", "validate")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, out, "missing")
	requireContains(t, out, "orphan")

	out, _, _ = runCLI(t, env.configPath, "manifest", "validate", "--json")
	var problems []manifest.Problem
	if err := json.Unmarshal([]byte(out), &problems); err != nil {
		t.Fatalf("decode problems: %v\n%s", err, out)
	}
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %+v", problems)
	}
}

func TestManifestShowMissingManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "manifest", "show")
	if !errors.Is(err, manifest.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestManifestShowTable(t *testing.T) {
	env := setupCLITestEnv(t)
	cfg := env.cfg
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.OutputDir, "oak.glb"), 2048)
	entries := []manifest.Entry{
		manifest.NewEntry("oak", "glb", cfg.Paths.PublicDir, cfg.Paths.OutputDir, cfg.Paths.OptimizedDir),
		manifest.NewEntry("elm", "glb", cfg.Paths.PublicDir, cfg.Paths.OutputDir, cfg.Paths.OptimizedDir),
	}
	if err := manifest.Write(cfg.Paths.ManifestPath, entries); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "manifest", "show")
	if err != nil {
		t.Fatalf("manifest show: %v", err)
	}
	requireContains(t, out, "/models/raw/oak.glb")
	requireContains(t, out, "2.0 KiB")
	requireContains(t, out, "missing")
	requireContains(t, out, "2 models")
}
