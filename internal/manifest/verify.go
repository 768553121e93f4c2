package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Problem kinds reported by Verify.
const (
	ProblemMissing   = "missing"
	ProblemDuplicate = "duplicate"
	ProblemOutside   = "outside_output"
	ProblemOrphan    = "orphan"
)

// Problem is one disagreement between the manifest and the output directory.
type Problem struct {
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
	Detail string `json:"detail"`
}

// Verify checks that every entry of the manifest at manifestPath points at a
// payload in outputDir and that outputDir holds no payload without an entry.
// An empty slice means the manifest and the directory agree.
func Verify(manifestPath, publicDir, outputDir, extension string) ([]Problem, error) {
	entries, err := Read(manifestPath)
	if err != nil {
		return nil, err
	}
	return VerifyEntries(entries, publicDir, outputDir, extension)
}

// VerifyEntries runs the Verify checks against entries already in memory.
func VerifyEntries(entries []Entry, publicDir, outputDir, extension string) ([]Problem, error) {
	var problems []Problem
	referenced := make(map[string]struct{}, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if _, dup := seen[entry.ID]; dup {
			problems = append(problems, Problem{Kind: ProblemDuplicate, ID: entry.ID, Detail: "id listed more than once"})
			continue
		}
		seen[entry.ID] = struct{}{}

		local := ResolvePath(publicDir, entry.Path)
		info, err := os.Stat(local)
		if err != nil || !info.Mode().IsRegular() {
			problems = append(problems, Problem{Kind: ProblemMissing, ID: entry.ID, Detail: fmt.Sprintf("%s does not exist", local)})
			continue
		}
		if filepath.Dir(local) != filepath.Clean(outputDir) {
			problems = append(problems, Problem{Kind: ProblemOutside, ID: entry.ID, Detail: fmt.Sprintf("%s is not in %s", local, outputDir)})
			continue
		}
		referenced[filepath.Base(local)] = struct{}{}
	}

	dirEntries, err := os.ReadDir(outputDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read output directory: %w", err)
	}
	suffix := "." + strings.TrimPrefix(extension, ".")
	var orphans []string
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !strings.HasSuffix(de.Name(), suffix) {
			continue
		}
		if _, ok := referenced[de.Name()]; !ok {
			orphans = append(orphans, de.Name())
		}
	}
	slices.Sort(orphans)
	for _, name := range orphans {
		problems = append(problems, Problem{
			Kind:   ProblemOrphan,
			ID:     strings.TrimSuffix(name, suffix),
			Detail: fmt.Sprintf("%s has no manifest entry", filepath.Join(outputDir, name)),
		})
	}
	return problems, nil
}

// ResolvePath maps a manifest URL back to a filesystem path. URLs are looked
// up under publicDir first; an absolute path that exists on disk as-is is
// accepted for directories configured outside publicDir.
func ResolvePath(publicDir, urlPath string) string {
	underPublic := filepath.Join(publicDir, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
	if _, err := os.Stat(underPublic); err == nil {
		return underPublic
	}
	if filepath.IsAbs(urlPath) {
		if _, err := os.Stat(urlPath); err == nil {
			return filepath.Clean(urlPath)
		}
	}
	return underPublic
}
