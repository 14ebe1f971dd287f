package scheduler

import (
	"sort"

	"github.com/scoutline/sourcing-cli/internal/registry"
)

// Order sorts the requested sources for scheduling: sources whose boost
// keywords appear in the query move to the front, everything else follows
// catalog priority. Ordering never drops a requested source — every one is
// eventually attempted unless the budget runs out first. Duplicates are
// collapsed, keeping the first occurrence.
func Order(requested []string, query string, catalog *registry.Catalog) []string {
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}

	rank := func(name string) (int, int) {
		boost := 1
		if catalog.Boosted(name, query) {
			boost = 0
		}
		return boost, catalog.Spec(name).Priority
	}

	sort.SliceStable(out, func(i, j int) bool {
		bi, pi := rank(out[i])
		bj, pj := rank(out[j])
		if bi != bj {
			return bi < bj
		}
		return pi < pj
	})
	return out
}

// partition splits the ordered sources into fixed-size waves.
func partition(ordered []string, waveSize int) [][]string {
	if waveSize < 1 {
		waveSize = 1
	}
	var waves [][]string
	for start := 0; start < len(ordered); start += waveSize {
		end := start + waveSize
		if end > len(ordered) {
			end = len(ordered)
		}
		waves = append(waves, ordered[start:end])
	}
	return waves
}
