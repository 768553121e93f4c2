package curate

import (
	"os"
	"sort"

	"garden/internal/objaverse"
	"garden/internal/services"
)

// Candidate is a downloaded payload with its size on disk.
type Candidate struct {
	ID   string
	Path string
	Size int64
}

// Measure stats every object. Objects whose file cannot be stat'ed are
// returned as failures.
func Measure(objects []objaverse.Object) ([]Candidate, []objaverse.ObjectError) {
	candidates := make([]Candidate, 0, len(objects))
	var failed []objaverse.ObjectError
	for _, obj := range objects {
		info, err := os.Stat(obj.Path)
		if err != nil {
			failed = append(failed, objaverse.ObjectError{
				ID:  obj.ID,
				Err: services.Wrap(services.ErrFilesystem, "download", "stat payload", obj.Path, err),
			})
			continue
		}
		candidates = append(candidates, Candidate{ID: obj.ID, Path: obj.Path, Size: info.Size()})
	}
	return candidates, failed
}

// Select returns the targetSize smallest candidates, smallest first. Equal
// sizes keep their input order. The input slice is not modified.
func Select(candidates []Candidate, targetSize int) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Size < sorted[j].Size
	})
	if targetSize >= 0 && len(sorted) > targetSize {
		sorted = sorted[:targetSize]
	}
	return sorted
}
