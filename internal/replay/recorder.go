// Package replay records runs and re-executes them. A full recording keeps
// every input from tick 0; a ring recording keeps a bounded window of inputs
// anchored on periodic checkpoints.
package replay

import (
	"breachline/internal/config"
	"breachline/internal/game"
)

// Header is everything needed to rebuild tick 0 of a run.
type Header struct {
	Seed    int64            `json:"seed" msgpack:"seed"`
	Mode    game.Mode        `json:"mode" msgpack:"mode"`
	Config  config.SimConfig `json:"config" msgpack:"config"`
	Loadout game.Loadout     `json:"loadout" msgpack:"loadout"`
}

// HeaderOf describes a freshly created game. Call it before the first tick.
func HeaderOf(g *game.Game, loadout game.Loadout) Header {
	return Header{
		Seed:    g.State.Seed,
		Mode:    g.State.Mode,
		Config:  g.Config,
		Loadout: loadout,
	}
}

// NewGame creates the run at tick 0.
func (h Header) NewGame(opts ...game.Option) *game.Game {
	return game.New(h.Config, h.Seed, h.Mode, h.Loadout, opts...)
}

// FullRecorder stores the complete input history of a run. Replay re-runs
// from scratch.
type FullRecorder struct {
	Header Header       `json:"header"`
	Inputs []game.Input `json:"inputs"`
}

// NewFullRecorder starts an empty recording.
func NewFullRecorder(h Header) *FullRecorder {
	return &FullRecorder{Header: h}
}

// Record appends the input consumed by the latest tick.
func (r *FullRecorder) Record(in game.Input) {
	r.Inputs = append(r.Inputs, in)
}

// Len returns the number of recorded ticks.
func (r *FullRecorder) Len() int { return len(r.Inputs) }

// Replay runs every recorded input on a new game.
func (r *FullRecorder) Replay(opts ...game.Option) *game.Game {
	return r.ReplayTo(len(r.Inputs), opts...)
}

// ReplayTo runs the first n recorded inputs on a new game.
func (r *FullRecorder) ReplayTo(n int, opts ...game.Option) *game.Game {
	g := r.Header.NewGame(opts...)
	n = min(max(n, 0), len(r.Inputs))
	for _, in := range r.Inputs[:n] {
		g.Tick(in)
	}
	return g
}
