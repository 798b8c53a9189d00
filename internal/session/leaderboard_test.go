package session

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(entries []LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestLeaderboardOrdering(t *testing.T) {
	lb := NewLeaderboard()
	lb.Submit(RunResult{Key: "b", Score: 50})
	lb.Submit(RunResult{Key: "a", Score: 50})
	lb.Submit(RunResult{Key: "c", Score: 90})
	lb.Submit(RunResult{Key: "d", Score: 10})

	assert.Equal(t, []string{"c", "a", "b", "d"}, keys(lb.Top(10)))
	assert.Equal(t, 1, lb.Rank("c"))
	assert.Equal(t, 2, lb.Rank("a"), "ties go to the smaller key")
	assert.Equal(t, 3, lb.Rank("b"))
	assert.Equal(t, 0, lb.Rank("zz"))
	assert.Equal(t, 4, lb.Len())

	top := lb.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 2, top[1].Rank)
}

func TestLeaderboardResubmitMoves(t *testing.T) {
	lb := NewLeaderboard()
	for i, k := range []string{"a", "b", "c"} {
		lb.Submit(RunResult{Key: k, Score: (i + 1) * 10})
	}
	require.Equal(t, 3, lb.Rank("a"))

	lb.Submit(RunResult{Key: "a", Score: 100, Outcome: "extracted"})
	assert.Equal(t, 1, lb.Rank("a"))
	assert.Equal(t, 3, lb.Len())

	e, ok := lb.Get("a")
	require.True(t, ok)
	assert.Equal(t, "extracted", e.Outcome)
	assert.Equal(t, 1, e.Rank)
}

func TestLeaderboardAroundAndRange(t *testing.T) {
	lb := NewLeaderboard()
	for i := 0; i < 10; i++ {
		lb.Submit(RunResult{Key: fmt.Sprintf("k%d", i), Score: i * 10})
	}
	// k9 is rank 1, k0 rank 10.
	around := lb.Around("k5", 2, 1)
	assert.Equal(t, []string{"k7", "k6", "k5", "k4"}, keys(around))
	assert.Equal(t, 3, around[0].Rank)

	assert.Equal(t, []string{"k9", "k8"}, keys(lb.Around("k9", 5, 1)))
	assert.Nil(t, lb.Around("missing", 1, 1))

	assert.Equal(t, []string{"k1", "k0"}, keys(lb.Range(9, 20)))
	assert.Empty(t, lb.Range(11, 12))
	assert.Empty(t, lb.Range(5, 4))
}

func TestLeaderboardRemove(t *testing.T) {
	lb := NewLeaderboard()
	lb.Submit(RunResult{Key: "a", Score: 1})
	lb.Submit(RunResult{Key: "b", Score: 2})

	assert.True(t, lb.Remove("b"))
	assert.False(t, lb.Remove("b"))
	assert.Equal(t, 1, lb.Rank("a"))
	_, ok := lb.Get("b")
	assert.False(t, ok)

	lb.Clear()
	assert.Equal(t, 0, lb.Len())
	assert.Empty(t, lb.Top(5))
}

// TestSkipListMatchesSort checks ranks against a sorted slice under random
// inserts, updates and removals.
func TestSkipListMatchesSort(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	sl := newSkipList(9)
	want := map[string]float64{}

	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("k%03d", r.Intn(300))
		switch r.Intn(4) {
		case 0:
			sl.remove(key)
			delete(want, key)
		default:
			score := float64(r.Intn(50))
			sl.insert(key, score)
			want[key] = score
		}
	}

	sorted := make([]rankedEntry, 0, len(want))
	for k, s := range want {
		sorted = append(sorted, rankedEntry{Key: k, Score: s})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].before(sorted[j]) })

	require.Equal(t, len(sorted), sl.length)
	assert.Equal(t, sorted, sl.rangeByRank(1, len(sorted)))
	for i, e := range sorted {
		assert.Equal(t, i+1, sl.rank(e.Key), e.Key)
	}
	if len(sorted) > 20 {
		assert.Equal(t, sorted[10:21], sl.rangeByRank(11, 21))
	}
}
