package curate

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"garden/internal/objaverse"
	"garden/internal/testsupport"
)

func TestSelectSmallestStable(t *testing.T) {
	candidates := []Candidate{
		{ID: "B", Size: 5},
		{ID: "C", Size: 2},
		{ID: "E", Size: 8},
		{ID: "F", Size: 5},
	}
	got := Select(candidates, 3)
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"C", "B", "F"}, ids); diff != "" {
		t.Fatalf("selection (-want +got):\n%s", diff)
	}
	if candidates[0].ID != "B" {
		t.Fatal("input slice was reordered")
	}
	if len(Select(candidates, 10)) != 4 {
		t.Fatal("expected all candidates when target exceeds pool")
	}
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a.glb"), 42)

	candidates, failed := Measure([]objaverse.Object{
		{ID: "a", Path: filepath.Join(dir, "a.glb")},
		{ID: "b", Path: filepath.Join(dir, "b.glb")},
	})
	if len(candidates) != 1 || candidates[0].Size != 42 {
		t.Fatalf("unexpected candidates %+v", candidates)
	}
	if len(failed) != 1 || failed[0].ID != "b" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
