package curate

import (
	"fmt"
	"math/rand/v2"

	"garden/internal/services"
)

// Sampler picks k distinct indices from [0, n).
type Sampler interface {
	Choose(n, k int) []int
}

// RandomSampler draws uniformly without replacement. A nil Rand uses the
// global source, which is seeded randomly on every process start.
type RandomSampler struct {
	Rand *rand.Rand
}

// Choose implements Sampler with a partial Fisher-Yates shuffle that only
// materialises the swapped positions.
func (s RandomSampler) Choose(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	intN := rand.IntN
	if s.Rand != nil {
		intN = s.Rand.IntN
	}
	swapped := make(map[int]int, k)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		j := i + intN(n-i)
		out[i] = at(j)
		swapped[j] = at(i)
	}
	return out
}

// Sample returns min(len(ids), poolSize) identifiers chosen by sampler, in
// draw order.
func Sample(ids []string, poolSize int, sampler Sampler) ([]string, error) {
	k := min(len(ids), poolSize)
	if k <= 0 {
		return nil, nil
	}
	if sampler == nil {
		sampler = RandomSampler{}
	}
	indices := sampler.Choose(len(ids), k)
	if len(indices) != k {
		return nil, services.Wrap(services.ErrValidation, "sample", "choose", fmt.Sprintf("sampler returned %d indices, want %d", len(indices), k), nil)
	}
	seen := make(map[int]struct{}, k)
	out := make([]string, 0, k)
	for _, idx := range indices {
		if idx < 0 || idx >= len(ids) {
			return nil, services.Wrap(services.ErrValidation, "sample", "choose", fmt.Sprintf("index %d out of range [0,%d)", idx, len(ids)), nil)
		}
		if _, dup := seen[idx]; dup {
			return nil, services.Wrap(services.ErrValidation, "sample", "choose", fmt.Sprintf("index %d drawn twice", idx), nil)
		}
		seen[idx] = struct{}{}
		out = append(out, ids[idx])
	}
	return out, nil
}
