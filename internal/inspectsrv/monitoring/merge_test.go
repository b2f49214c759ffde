package monitoring

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stamped struct {
	id int
	at time.Time
}

func stampedAt(s stamped) time.Time {
	return s.at
}

func TestMergeByTimeOrdersNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	windows := [][]stamped{
		{{1, base.Add(3 * time.Hour)}, {2, base.Add(1 * time.Hour)}},
		{{3, base.Add(2 * time.Hour)}},
		{{4, base.Add(4 * time.Hour)}, {5, base}},
	}

	merged := mergeByTime(windows, stampedAt, 0, 10)
	require.Len(t, merged, 5)

	ids := make([]int, len(merged))
	for i, s := range merged {
		ids[i] = s.id
	}
	assert.Equal(t, []int{4, 1, 3, 2, 5}, ids)
}

func TestMergeByTimePaging(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var window []stamped
	for i := 0; i < 10; i++ {
		window = append(window, stamped{i, base.Add(time.Duration(i) * time.Minute)})
	}

	page := mergeByTime([][]stamped{window}, stampedAt, 2, 3)
	require.Len(t, page, 3)
	assert.Equal(t, 7, page[0].id)
	assert.Equal(t, 5, page[2].id)

	assert.Empty(t, mergeByTime([][]stamped{window}, stampedAt, 10, 3))
	assert.Empty(t, mergeByTime([][]stamped{window}, stampedAt, 50, 3))
	assert.Len(t, mergeByTime([][]stamped{window}, stampedAt, 8, 5), 2)
	assert.Empty(t, mergeByTime(nil, stampedAt, 0, 5))
}

// Paging through merged windows must reproduce a single global sort of all
// rows, whatever the per-window distribution.
func TestMergeByTimePaginationExactness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var all []stamped
	windows := make([][]stamped, 5)
	id := 0
	for w := range windows {
		for i := 0; i < 10+rng.Intn(20); i++ {
			s := stamped{id, base.Add(time.Duration(rng.Intn(100000)) * time.Second)}
			id++
			windows[w] = append(windows[w], s)
			all = append(all, s)
		}
		sort.Slice(windows[w], func(i, j int) bool {
			return windows[w][i].at.After(windows[w][j].at)
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].at.After(all[j].at)
	})

	limit := 7
	var paged []stamped
	for offset := 0; offset < len(all); offset += limit {
		paged = append(paged, mergeByTime(windows, stampedAt, offset, limit)...)
	}

	require.Len(t, paged, len(all))
	for i := range all {
		assert.Equal(t, all[i].at, paged[i].at)
	}
}
