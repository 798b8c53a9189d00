// Package session hosts running games in real time: a fixed-timestep loop per
// game, an input latch for asynchronous clients, event fan-out, recording and
// persistence of finished runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"breachline/internal/game"
	"breachline/internal/replay"
)

// maxCatchUp bounds the ticks run for one wake-up after a stall.
const maxCatchUp = 8

var ErrRewindUnavailable = errors.New("rewind target outside the recorded window")

type Status string

const (
	StatusRunning Status = "running"
	StatusEnded   Status = "ended"   // The run reached game over or extraction
	StatusStopped Status = "stopped" // Stopped by a client or shutdown
)

// TickUpdate is published to subscribers after each tick that advanced.
type TickUpdate struct {
	Tick   uint64       `json:"tick"`
	Events []game.Event `json:"events"`
}

// Info is a summary of a session for listings.
type Info struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	Seed        int64     `json:"seed"`
	Status      Status    `json:"status"`
	Tick        uint64    `json:"tick"`
	Score       int       `json:"score"`
	Cash        int       `json:"cash"`
	HP          float64   `json:"hp"`
	Enemies     int       `json:"enemies"`
	Outcome     string    `json:"outcome"`
	RecordingID uint      `json:"recordingId,omitempty"`
	WindowFrom  uint64    `json:"windowFrom"`
	WindowTo    uint64    `json:"windowTo"`
	Created     time.Time `json:"created"`
}

// Session owns one Game. The tick loop, input and readers are serialized by
// mu; subscribers are served from their own lock so slow readers never stall
// a tick.
type Session struct {
	ID      string
	Created time.Time

	mu          sync.Mutex
	game        *game.Game
	header      replay.Header
	full        *replay.FullRecorder
	ring        *replay.RingRecorder
	status      Status
	recordingID uint

	latch InputLatch

	subMu   sync.Mutex
	subs    map[uint64]chan TickUpdate
	nextSub uint64
	subBuf  int
	dropped uint64
	closed  bool

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	events *EventLog
	hooks  Hooks
	log    zerolog.Logger
}

// Hooks observe a session from outside. Every field is optional.
type Hooks struct {
	OnTick func(s *Session, w *game.World, elapsed time.Duration)
	OnEnd  func(s *Session)
}

func newSession(id string, h replay.Header, checkpointInterval, subBuf int, events *EventLog, hooks Hooks, log zerolog.Logger) *Session {
	log = log.With().Str("session", id).Logger()
	g := h.NewGame(game.WithLogger(log))

	ring := replay.NewRingRecorder(h, checkpointInterval)
	ring.Begin(g)

	return &Session{
		ID:      id,
		Created: time.Now(),
		game:    g,
		header:  h,
		full:    replay.NewFullRecorder(h),
		ring:    ring,
		status:  StatusRunning,
		subs:    make(map[uint64]chan TickUpdate),
		subBuf:  max(subBuf, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		events:  events,
		hooks:   hooks,
		log:     log,
	}
}

// Input merges a client message into the next tick's input.
func (s *Session) Input(in game.Input) {
	s.latch.Apply(in)
}

// Step runs one tick with the latched input. It reports whether the world
// advanced; ended runs do not.
func (s *Session) Step() bool {
	start := time.Now()

	s.mu.Lock()
	in := s.latch.Consume()
	before := s.game.State.Tick
	s.game.Tick(in)
	w := s.game.State
	if w.Tick == before {
		s.mu.Unlock()
		return false
	}
	s.full.Record(in)
	s.ring.Observe(s.game, in)

	var events []game.Event
	if len(w.Events) > 0 {
		events = make([]game.Event, len(w.Events))
		copy(events, w.Events)
	}
	tick := w.Tick
	if s.hooks.OnTick != nil {
		s.hooks.OnTick(s, w, time.Since(start))
	}
	s.mu.Unlock()

	if s.events != nil {
		s.events.EmitAll(s.ID, events)
	}
	s.publish(TickUpdate{Tick: tick, Events: events})
	return true
}

// run drives the session at the configured tick rate until the run ends, Stop
// is called or ctx is cancelled.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	dt := time.Duration(s.header.Config.Dt() * float64(time.Second))
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	s.log.Info().
		Str("mode", s.header.Mode.String()).
		Int64("seed", s.header.Seed).
		Int("tps", s.header.Config.TickRate).
		Msg("Session started")

	last := time.Now()
	var acc time.Duration
	for {
		select {
		case <-ctx.Done():
			s.finish(StatusStopped)
			return
		case <-s.stopCh:
			s.finish(StatusStopped)
			return
		case now := <-ticker.C:
			acc += now.Sub(last)
			last = now

			steps := 0
			for acc >= dt && steps < maxCatchUp {
				s.Step()
				acc -= dt
				steps++
			}
			if steps == maxCatchUp && acc >= dt {
				s.log.Warn().Dur("behind", acc).Msg("Tick loop fell behind, dropping backlog")
				acc = 0
			}

			if s.Terminal() {
				s.finish(StatusEnded)
				return
			}
		}
	}
}

// Stop ends the session loop. It does not wait; use Done for that.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Done is closed when the loop has exited and the run was handed to OnEnd.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) finish(status Status) {
	s.mu.Lock()
	s.status = status
	tick := s.game.State.Tick
	outcome := replay.Outcome(s.game.State)
	s.mu.Unlock()

	s.log.Info().Uint64("tick", tick).Str("outcome", outcome).Str("status", string(status)).Msg("Session finished")

	if s.hooks.OnEnd != nil {
		s.hooks.OnEnd(s)
	}

	s.subMu.Lock()
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
}

// Terminal reports whether the run has ended in game.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.State.Terminal()
}

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot captures the current world.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// Checkpoint captures a resumable checkpoint of the current world.
func (s *Session) Checkpoint() replay.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replay.Take(s.game)
}

// Header returns what is needed to replay the session from tick 0.
func (s *Session) Header() replay.Header {
	return s.header
}

// Info summarizes the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.game.State
	from, to := s.ring.Window()
	info := Info{
		ID:          s.ID,
		Mode:        w.Mode.String(),
		Seed:        w.Seed,
		Status:      s.status,
		Tick:        w.Tick,
		Score:       w.Score,
		Cash:        w.Cash,
		Enemies:     len(w.Enemies),
		Outcome:     replay.Outcome(w),
		RecordingID: s.recordingID,
		WindowFrom:  from,
		WindowTo:    to,
		Created:     s.Created,
	}
	if w.Player != nil {
		info.HP = w.Player.HP
	}
	return info
}

// Rewind moves a running session back to tick, which must lie in the ring
// recorder's window. Inputs after tick are discarded from the recording.
func (s *Session) Rewind(tick uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return fmt.Errorf("rewind session %s: %s", s.ID, s.status)
	}
	g, err := s.ring.ResumeAt(tick, game.WithLogger(s.log))
	if err != nil {
		if errors.Is(err, replay.ErrOutOfWindow) {
			return fmt.Errorf("%w: %v", ErrRewindUnavailable, err)
		}
		return fmt.Errorf("rewind session %s: %w", s.ID, err)
	}

	s.game = g
	s.full.Inputs = s.full.Inputs[:tick]
	s.ring.Begin(g)
	s.log.Info().Uint64("tick", tick).Msg("Session rewound")
	return nil
}

// finalRun packages the finished run for persistence.
func (s *Session) finalRun() (replay.Header, []game.Input, *game.World, []replay.Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputs := make([]game.Input, len(s.full.Inputs))
	copy(inputs, s.full.Inputs)
	var cps []replay.Checkpoint
	if cp, ok := s.ring.Latest(); ok {
		cps = append(cps, cp)
	}
	return s.header, inputs, s.game.State.Clone(), cps
}

func (s *Session) setRecording(id uint) {
	s.mu.Lock()
	s.recordingID = id
	s.mu.Unlock()
}

// Subscribe registers for tick updates. The channel is closed when the
// session finishes or cancel is called. Updates are dropped for a subscriber
// whose buffer is full.
func (s *Session) Subscribe() (<-chan TickUpdate, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan TickUpdate, s.subBuf)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
	return ch, cancel
}

func (s *Session) publish(u TickUpdate) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.dropped++
		}
	}
}

// Subscribers returns the number of live subscribers.
func (s *Session) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}
