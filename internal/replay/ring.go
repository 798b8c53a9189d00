package replay

import (
	"errors"
	"fmt"

	"breachline/internal/game"
)

var (
	ErrNoCheckpoint = errors.New("ring recorder has no checkpoint")
	ErrOutOfWindow  = errors.New("tick is outside the recorded window")
)

// Checkpoint is a resumable point of a run: the world after Tick plus the
// RNG state at that moment.
type Checkpoint struct {
	Tick     uint64        `json:"tick" msgpack:"tick"`
	RNGState uint32        `json:"rngState" msgpack:"rng"`
	Snapshot game.Snapshot `json:"snapshot" msgpack:"snapshot"`
}

// Take captures a checkpoint of g.
func Take(g *game.Game) Checkpoint {
	return Checkpoint{
		Tick:     g.State.Tick,
		RNGState: g.RNG.State(),
		Snapshot: g.Snapshot(),
	}
}

// Restore rebuilds the game at the checkpoint.
func (c Checkpoint) Restore(h Header, opts ...game.Option) (*game.Game, error) {
	g, err := game.Restore(c.Snapshot, c.RNGState, h.Config, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore checkpoint at tick %d: %w", c.Tick, err)
	}
	return g, nil
}

// inputRing is a fixed-capacity FIFO of inputs.
type inputRing struct {
	buf  []game.Input
	head int
	n    int
}

func (r *inputRing) push(in game.Input) {
	if r.n == len(r.buf) {
		r.buf[r.head] = in
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.n)%len(r.buf)] = in
	r.n++
}

func (r *inputRing) at(i int) game.Input {
	return r.buf[(r.head+i)%len(r.buf)]
}

func (r *inputRing) dropFront(k int) {
	k = min(k, r.n)
	r.head = (r.head + k) % len(r.buf)
	r.n -= k
}

// RingRecorder keeps the two latest checkpoints and the inputs since the
// older one. Checkpoints are taken every Interval ticks, so at least Interval
// ticks of history can always be replayed and memory stays bounded at
// 2*Interval inputs.
type RingRecorder struct {
	header   Header
	interval int

	prev, cur *Checkpoint
	inputs    inputRing // Inputs for ticks prev.Tick+1 .. latest
	latest    uint64
}

// NewRingRecorder creates a recorder checkpointing every interval ticks.
func NewRingRecorder(h Header, interval int) *RingRecorder {
	interval = max(interval, 1)
	return &RingRecorder{
		header:   h,
		interval: interval,
		inputs:   inputRing{buf: make([]game.Input, 2*interval)},
	}
}

// Begin anchors the window at g's current tick.
func (r *RingRecorder) Begin(g *game.Game) {
	cp := Take(g)
	r.prev, r.cur = nil, &cp
	r.inputs.dropFront(r.inputs.n)
	r.latest = cp.Tick
}

// Observe records the input consumed by g's latest tick and checkpoints on
// interval boundaries.
func (r *RingRecorder) Observe(g *game.Game, in game.Input) {
	if r.cur == nil || g.State.Tick == r.latest {
		return // Not begun, or a no-op tick after the run ended.
	}
	r.inputs.push(in)
	r.latest = g.State.Tick

	if r.latest-r.cur.Tick < uint64(r.interval) {
		return
	}
	if r.prev != nil {
		r.inputs.dropFront(int(r.cur.Tick - r.prev.Tick))
	}
	cp := Take(g)
	r.prev, r.cur = r.cur, &cp
}

// Window returns the oldest and newest ticks that can be resumed.
func (r *RingRecorder) Window() (from, to uint64) {
	if r.cur == nil {
		return 0, 0
	}
	return r.oldest().Tick, r.latest
}

// Latest returns the most recent checkpoint.
func (r *RingRecorder) Latest() (Checkpoint, bool) {
	if r.cur == nil {
		return Checkpoint{}, false
	}
	return *r.cur, true
}

func (r *RingRecorder) oldest() *Checkpoint {
	if r.prev != nil {
		return r.prev
	}
	return r.cur
}

// Resume rebuilds the game at the newest recorded tick.
func (r *RingRecorder) Resume(opts ...game.Option) (*game.Game, error) {
	return r.ResumeAt(r.latest, opts...)
}

// ResumeAt rebuilds the game at tick by restoring the nearest checkpoint at
// or before it and replaying buffered inputs.
func (r *RingRecorder) ResumeAt(tick uint64, opts ...game.Option) (*game.Game, error) {
	if r.cur == nil {
		return nil, ErrNoCheckpoint
	}
	from, to := r.Window()
	if tick < from || tick > to {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfWindow, tick, from, to)
	}

	base := r.oldest()
	if r.cur.Tick <= tick {
		base = r.cur
	}
	g, err := base.Restore(r.header, opts...)
	if err != nil {
		return nil, err
	}

	// Inputs are indexed from the oldest checkpoint.
	start := int(base.Tick - r.oldest().Tick)
	for i := start; i < start+int(tick-base.Tick); i++ {
		g.Tick(r.inputs.at(i))
	}
	return g, nil
}

// Inputs returns a copy of the buffered inputs, oldest first.
func (r *RingRecorder) Inputs() []game.Input {
	out := make([]game.Input, r.inputs.n)
	for i := range out {
		out[i] = r.inputs.at(i)
	}
	return out
}
