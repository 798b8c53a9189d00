package session

import (
	"math/rand"
)

// Skip list with span counts for O(log n) rank queries (Pugh 1990, the
// Redis ZSET layout). Ordered by score descending, then key ascending.

const (
	maxLevel         = 32
	levelProbability = 0.25
)

type rankedEntry struct {
	Key   string
	Score float64
}

// before reports whether a sorts ahead of b.
func (a rankedEntry) before(b rankedEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Key < b.Key
}

type skipNode struct {
	entry rankedEntry
	next  []*skipNode
	span  []int // Rank distance to next[i]
}

// skipList is not safe for concurrent use; Leaderboard guards it.
type skipList struct {
	head   *skipNode
	level  int
	length int
	scores map[string]float64 // Key index, so lookups can walk by (score, key)
	rng    *rand.Rand
}

func newSkipList(seed int64) *skipList {
	return &skipList{
		head: &skipNode{
			next: make([]*skipNode, maxLevel),
			span: make([]int, maxLevel),
		},
		level:  1,
		scores: make(map[string]float64),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (sl *skipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProbability {
		level++
	}
	return level
}

// insert adds key or moves it to its new score.
func (sl *skipList) insert(key string, score float64) {
	if old, ok := sl.scores[key]; ok {
		if old == score {
			return
		}
		sl.remove(key)
	}
	e := rankedEntry{Key: key, Score: score}

	var update [maxLevel]*skipNode
	var rank [maxLevel]int
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i < sl.level-1 {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && x.next[i].entry.before(e) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	level := sl.randomLevel()
	if level > sl.level {
		for i := sl.level; i < level; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].span[i] = sl.length
		}
		sl.level = level
	}

	node := &skipNode{
		entry: e,
		next:  make([]*skipNode, level),
		span:  make([]int, level),
	}
	for i := 0; i < level; i++ {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
		node.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = rank[0] - rank[i] + 1
	}
	for i := level; i < sl.level; i++ {
		update[i].span[i]++
	}

	sl.length++
	sl.scores[key] = score
}

func (sl *skipList) remove(key string) bool {
	score, ok := sl.scores[key]
	if !ok {
		return false
	}
	e := rankedEntry{Key: key, Score: score}

	var update [maxLevel]*skipNode
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].entry.before(e) {
			x = x.next[i]
		}
		update[i] = x
	}
	node := x.next[0]
	if node == nil || node.entry.Key != key {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == node {
			update[i].span[i] += node.span[i] - 1
			update[i].next[i] = node.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}

	sl.length--
	delete(sl.scores, key)
	return true
}

// rank is 1-based; 0 when key is absent.
func (sl *skipList) rank(key string) int {
	score, ok := sl.scores[key]
	if !ok {
		return 0
	}
	e := rankedEntry{Key: key, Score: score}

	rank := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && (x.next[i].entry.before(e) || x.next[i].entry == e) {
			rank += x.span[i]
			x = x.next[i]
		}
		if x.entry == e {
			return rank
		}
	}
	return 0
}

func (sl *skipList) score(key string) (float64, bool) {
	s, ok := sl.scores[key]
	return s, ok
}

// rangeByRank returns entries ranked start..end, both inclusive and 1-based.
func (sl *skipList) rangeByRank(start, end int) []rankedEntry {
	start = max(start, 1)
	end = min(end, sl.length)
	if start > end {
		return nil
	}

	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] < start {
			traversed += x.span[i]
			x = x.next[i]
		}
	}

	out := make([]rankedEntry, 0, end-start+1)
	for x = x.next[0]; x != nil && traversed < end; x = x.next[0] {
		traversed++
		out = append(out, x.entry)
	}
	return out
}

func (sl *skipList) clear() {
	for i := range sl.head.next {
		sl.head.next[i] = nil
		sl.head.span[i] = 0
	}
	sl.level = 1
	sl.length = 0
	clear(sl.scores)
}
