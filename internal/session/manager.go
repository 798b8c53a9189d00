package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"breachline/internal/config"
	"breachline/internal/game"
	"breachline/internal/replay"
	"breachline/internal/store"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("session limit reached")
	ErrSessionNotActive = errors.New("session is not running")
)

// persistTimeout bounds saving a finished run.
const persistTimeout = 10 * time.Second

// Persister stores finished runs. *store.Store implements it.
type Persister interface {
	SaveRun(ctx context.Context, run store.Run) (uint, error)
}

// Observer receives session lifecycle and per-tick measurements.
type Observer interface {
	SessionStarted(mode string)
	SessionEnded(mode, outcome string)
	TickObserved(mode string, elapsed time.Duration, w *game.World)
	RunSaved(err error)
}

// CreateOptions selects the run to start. Zero values pick defaults: seed
// from the clock, arena mode, the mode's default loadout.
type CreateOptions struct {
	Seed    int64         `json:"seed"`
	Mode    game.Mode     `json:"mode"`
	Loadout *game.Loadout `json:"loadout,omitempty"`
}

// Manager owns all running sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	finished map[string]*Session // Kept for lookups until evicted
	order    []string            // Finished ids, oldest first

	cfg    config.SessionConfig
	sim    config.SimConfig
	store  Persister
	events *EventLog
	obs    Observer
	boards map[game.Mode]*Leaderboard

	seq    atomic.Uint64
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger
}

// maxFinished is how many ended sessions stay queryable.
const maxFinished = 64

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPersister saves finished runs.
func WithPersister(p Persister) ManagerOption {
	return func(m *Manager) { m.store = p }
}

// WithEventLog mirrors every tick's events to the log.
func WithEventLog(el *EventLog) ManagerOption {
	return func(m *Manager) { m.events = el }
}

// WithObserver reports lifecycle and tick measurements.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) { m.obs = o }
}

// NewManager creates a manager. Sessions run until they end or Shutdown.
func NewManager(cfg config.SessionConfig, sim config.SimConfig, log zerolog.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		sessions: make(map[string]*Session),
		finished: make(map[string]*Session),
		cfg:      cfg,
		sim:      sim.WithDefaults(),
		boards: map[game.Mode]*Leaderboard{
			game.ModeArena:      NewLeaderboard(),
			game.ModeExtraction: NewLeaderboard(),
		},
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session.
func (m *Manager) Create(opts CreateOptions) (*Session, error) {
	s, err := m.prepare(opts)
	if err != nil {
		return nil, err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.run(m.ctx)
	}()
	return s, nil
}

// prepare registers a session without starting its loop.
func (m *Manager) prepare(opts CreateOptions) (*Session, error) {
	if opts.Mode != game.ModeArena && opts.Mode != game.ModeExtraction {
		return nil, fmt.Errorf("create session: unknown mode %d", opts.Mode)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	loadout := game.DefaultLoadout(opts.Mode)
	if opts.Loadout != nil {
		loadout = *opts.Loadout
	}
	h := replay.Header{
		Seed:    opts.Seed,
		Mode:    opts.Mode,
		Config:  m.sim,
		Loadout: loadout,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, m.cfg.MaxSessions)
	}

	id := fmt.Sprintf("s%d-%d", time.Now().Unix(), m.seq.Add(1))
	hooks := Hooks{OnEnd: m.onEnd}
	if m.obs != nil {
		hooks.OnTick = func(s *Session, w *game.World, elapsed time.Duration) {
			m.obs.TickObserved(s.header.Mode.String(), elapsed, w)
		}
		m.obs.SessionStarted(h.Mode.String())
	}
	s := newSession(id, h, m.cfg.CheckpointInterval, m.cfg.SubscriberBuffer, m.events, hooks, m.log)
	m.sessions[id] = s
	return s, nil
}

// onEnd persists a finished run, ranks it and retires the session.
func (m *Manager) onEnd(s *Session) {
	h, inputs, final, cps := s.finalRun()
	outcome := replay.Outcome(final)
	if m.obs != nil {
		m.obs.SessionEnded(h.Mode.String(), outcome)
	}

	var recID uint
	if m.store != nil && len(inputs) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		id, err := m.store.SaveRun(ctx, store.Run{
			SessionID:   s.ID,
			Header:      h,
			Inputs:      inputs,
			Final:       final,
			Checkpoints: cps,
		})
		cancel()
		if m.obs != nil {
			m.obs.RunSaved(err)
		}
		if err != nil {
			m.log.Error().Err(err).Str("session", s.ID).Msg("Failed to save run")
		} else {
			recID = id
			s.setRecording(id)
		}
	}

	if final.Terminal() {
		m.boards[h.Mode].Submit(RunResult{
			Key:         s.ID,
			RecordingID: recID,
			Mode:        h.Mode.String(),
			Score:       final.Score,
			Kills:       final.Stats.Kills,
			Cash:        final.Cash,
			Outcome:     outcome,
			Ticks:       final.Tick,
		})
	}

	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.finished[s.ID] = s
	m.order = append(m.order, s.ID)
	for len(m.order) > maxFinished {
		delete(m.finished, m.order[0])
		m.order = m.order[1:]
	}
	m.mu.Unlock()
}

// Get returns a running or recently finished session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if s, ok := m.finished[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// Input forwards client input to a running session.
func (m *Manager) Input(id string, in game.Input) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if s.Status() != StatusRunning {
		return fmt.Errorf("%w: %s", ErrSessionNotActive, id)
	}
	s.Input(in)
	return nil
}

// Stop ends a session and waits for it to be persisted.
func (m *Manager) Stop(ctx context.Context, id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Stop()
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns every known session, running first, newest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions)+len(m.finished))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	for _, s := range m.finished {
		all = append(all, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, len(all))
	for i, s := range all {
		infos[i] = s.Info()
	}
	sort.Slice(infos, func(i, j int) bool {
		ri, rj := infos[i].Status == StatusRunning, infos[j].Status == StatusRunning
		if ri != rj {
			return ri
		}
		return infos[i].Created.After(infos[j].Created)
	})
	return infos
}

// Running returns the number of active sessions.
func (m *Manager) Running() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Leaderboard returns the ranking for a mode.
func (m *Manager) Leaderboard(mode game.Mode) *Leaderboard {
	return m.boards[mode]
}

// Seed loads previously stored runs into the leaderboards.
func (m *Manager) Seed(runs []RunResult) {
	for _, r := range runs {
		mode, err := game.ParseMode(r.Mode)
		if err != nil {
			continue
		}
		m.boards[mode].Submit(r)
	}
}

// Shutdown stops every session and waits for them to persist.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.log.Info().Msg("All sessions stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown sessions: %w", ctx.Err())
	}
}
