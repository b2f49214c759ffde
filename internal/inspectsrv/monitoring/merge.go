package monitoring

import (
	"sort"
	"time"
)

// mergeByTime flattens per-module windows into one feed ordered newest
// first and cuts the requested page out of it. Each source window must
// hold at least offset+limit rows of its table for the page to be exact,
// which is why the engine over-fetches.
func mergeByTime[T any](windows [][]T, at func(T) time.Time, offset, limit int) []T {
	var merged []T
	for _, w := range windows {
		merged = append(merged, w...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return at(merged[i]).After(at(merged[j]))
	})

	if offset >= len(merged) {
		return nil
	}
	merged = merged[offset:]
	if limit < len(merged) {
		merged = merged[:limit]
	}
	return merged
}
