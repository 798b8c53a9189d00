package session

import (
	"sync"
)

// Leaderboard ranks finished runs by score with O(log n) updates and rank
// queries. Ties go to the lexically smaller run key.
type Leaderboard struct {
	mu   sync.RWMutex
	list *skipList
	runs map[string]RunResult
}

// RunResult is one ranked run.
type RunResult struct {
	Key         string `json:"key"` // Session id, or "rec-<id>" for runs loaded from the store
	RecordingID uint   `json:"recordingId,omitempty"`
	Mode        string `json:"mode"`
	Score       int    `json:"score"`
	Kills       int    `json:"kills"`
	Cash        int    `json:"cash"`
	Outcome     string `json:"outcome"`
	Ticks       uint64 `json:"ticks"`
}

// LeaderboardEntry is a RunResult with its 1-based rank.
type LeaderboardEntry struct {
	RunResult
	Rank int `json:"rank"`
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		list: newSkipList(1),
		runs: make(map[string]RunResult),
	}
}

// Submit inserts a run or replaces the result stored under its key.
func (lb *Leaderboard) Submit(r RunResult) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.list.insert(r.Key, float64(r.Score))
	lb.runs[r.Key] = r
}

// Remove drops a run. Returns false if it was not ranked.
func (lb *Leaderboard) Remove(key string) bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	delete(lb.runs, key)
	return lb.list.remove(key)
}

// Rank returns a run's rank, 1 = best, 0 = not found.
func (lb *Leaderboard) Rank(key string) int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.list.rank(key)
}

// Get returns a ranked run.
func (lb *Leaderboard) Get(key string) (LeaderboardEntry, bool) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	r, ok := lb.runs[key]
	if !ok {
		return LeaderboardEntry{}, false
	}
	return LeaderboardEntry{RunResult: r, Rank: lb.list.rank(key)}, true
}

// Top returns the best n runs.
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	return lb.Range(1, n)
}

// Around returns up to above runs ranked higher than key, the run itself, and
// up to below runs ranked lower.
func (lb *Leaderboard) Around(key string, above, below int) []LeaderboardEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	rank := lb.list.rank(key)
	if rank == 0 {
		return nil
	}
	return lb.rangeLocked(max(rank-above, 1), rank+below)
}

// Range returns runs ranked start..end (1-based, inclusive).
func (lb *Leaderboard) Range(start, end int) []LeaderboardEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.rangeLocked(start, end)
}

func (lb *Leaderboard) rangeLocked(start, end int) []LeaderboardEntry {
	start = max(start, 1)
	entries := lb.list.rangeByRank(start, end)
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{RunResult: lb.runs[e.Key], Rank: start + i}
	}
	return out
}

// Len returns the number of ranked runs.
func (lb *Leaderboard) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.list.length
}

// Clear drops every run.
func (lb *Leaderboard) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.list.clear()
	clear(lb.runs)
}
