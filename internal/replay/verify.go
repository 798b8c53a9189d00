package replay

import (
	"time"

	"breachline/internal/game"
)

// Result reports a verification replay.
type Result struct {
	Ticks    uint64        `json:"ticks"`
	Hash     string        `json:"hash"`
	Expected string        `json:"expected"`
	Match    bool          `json:"match"`
	Score    int           `json:"score"`
	Outcome  string        `json:"outcome"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Outcome names how a run ended: "died", "extracted" or "running".
func Outcome(w *game.World) string {
	switch {
	case w.GameOver:
		return "died"
	case w.Extracted:
		return "extracted"
	default:
		return "running"
	}
}

// Verify re-runs a full recording and compares the final state hash.
func Verify(h Header, inputs []game.Input, expectedHash string) Result {
	start := time.Now()
	rec := &FullRecorder{Header: h, Inputs: inputs}
	g := rec.Replay()
	hash := g.Snapshot().Hash()
	return Result{
		Ticks:    g.State.Tick,
		Hash:     hash,
		Expected: expectedHash,
		Match:    hash == expectedHash,
		Score:    g.State.Score,
		Outcome:  Outcome(g.State),
		Elapsed:  time.Since(start),
	}
}
