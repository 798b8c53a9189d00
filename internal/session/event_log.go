package session

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"breachline/internal/game"
)

const (
	EventBufferSize       = 1024                   // Circular buffer size
	MaxEventsPerSession   = 2000                   // Per-session rate limit per second
	BatchFlushSize        = 64                     // Events per batch write
	BatchFlushInterval    = 100 * time.Millisecond // How often to flush
	SessionLimiterCleanup = 5 * time.Minute        // Cleanup interval for session limiters
)

// LogEntry is one line of the JSONL event log.
type LogEntry struct {
	Seq     uint64            `json:"seq"`
	Session string            `json:"session"`
	Tick    uint64            `json:"tick"`
	Kind    game.EventKind    `json:"kind"`
	Payload game.EventPayload `json:"payload"`
}

// EventLog is a bounded, rate-limited, append-only JSONL sink for game
// events. Producers never block: over budget or with a full buffer, events
// are dropped and counted.
type EventLog struct {
	// Circular buffer; writeHead and readHead only grow
	buffer    [EventBufferSize]LogEntry
	bufMu     sync.Mutex
	writeHead uint64
	readHead  uint64

	globalLimiter   *rate.Limiter
	sessionLimiters sync.Map // map[string]*sessionLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	out    *bufio.Writer
	closer io.Closer
	outMu  sync.Mutex

	log zerolog.Logger

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

type sessionLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // Unix nanos
}

// NewEventLog creates an event log accepting up to maxPerSec events per second
// across all sessions.
func NewEventLog(maxPerSec int, log zerolog.Logger) *EventLog {
	if maxPerSec <= 0 {
		maxPerSec = 10000
	}
	return &EventLog{
		globalLimiter: rate.NewLimiter(rate.Limit(maxPerSec), max(maxPerSec/10, 1)),
		stopChan:      make(chan struct{}),
		log:           log,
	}
}

// Start opens path for append and begins the async writer. An empty path
// keeps the log running without output, which still exercises limits.
func (el *EventLog) Start(path string) error {
	if path == "" {
		return el.StartWriter(nil)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := el.StartWriter(f); err != nil {
		f.Close()
		return err
	}
	el.closer = f
	return nil
}

// StartWriter begins the async writer on w.
func (el *EventLog) StartWriter(w io.Writer) error {
	if !el.running.CompareAndSwap(false, true) {
		return nil
	}
	if w != nil {
		el.out = bufio.NewWriter(w)
	}

	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and closes the output.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		close(el.stopChan)
		el.writerWg.Wait()
		el.running.Store(false)

		el.outMu.Lock()
		defer el.outMu.Unlock()
		if el.out != nil {
			if err := el.out.Flush(); err != nil {
				el.log.Warn().Err(err).Msg("Event log flush failed")
			}
		}
		if el.closer != nil {
			el.closer.Close()
		}
	})
}

// Emit queues one event. Returns false if it was rate limited or the log is
// not running.
func (el *EventLog) Emit(session string, ev game.Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}
	if !el.sessionLimiter(session).Allow() {
		el.droppedCount.Add(1)
		return false
	}

	el.bufMu.Lock()
	el.writeHead++
	head := el.writeHead
	if head-el.readHead > EventBufferSize {
		// Full: drop the oldest
		el.readHead++
		el.droppedCount.Add(1)
	}
	el.buffer[head%EventBufferSize] = LogEntry{
		Seq:     head,
		Session: session,
		Tick:    ev.Tick,
		Kind:    ev.Kind,
		Payload: ev.Payload,
	}
	el.bufMu.Unlock()

	el.totalCount.Add(1)
	return true
}

// EmitAll queues a tick's events in order and returns how many were kept.
func (el *EventLog) EmitAll(session string, events []game.Event) int {
	n := 0
	for _, ev := range events {
		if el.Emit(session, ev) {
			n++
		}
	}
	return n
}

func (el *EventLog) sessionLimiter(session string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.sessionLimiters.Load(session); ok {
		e := v.(*sessionLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	e := &sessionLimiterEntry{
		limiter: rate.NewLimiter(MaxEventsPerSession, MaxEventsPerSession/10),
	}
	e.lastUsed.Store(now)
	actual, _ := el.sessionLimiters.LoadOrStore(session, e)
	return actual.(*sessionLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]LogEntry, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(SessionLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupSessionLimiters()
		}
	}
}

func (el *EventLog) cleanupSessionLimiters() {
	cutoff := time.Now().Add(-SessionLimiterCleanup).UnixNano()
	el.sessionLimiters.Range(func(key, value any) bool {
		if value.(*sessionLimiterEntry).lastUsed.Load() < cutoff {
			el.sessionLimiters.Delete(key)
		}
		return true
	})
}

func (el *EventLog) collectBatch(batch []LogEntry) []LogEntry {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	for el.readHead < el.writeHead && len(batch) < BatchFlushSize {
		el.readHead++
		batch = append(batch, el.buffer[el.readHead%EventBufferSize])
	}
	return batch
}

// flushBatch writes one JSON object per line.
func (el *EventLog) flushBatch(batch []LogEntry) {
	el.outMu.Lock()
	defer el.outMu.Unlock()

	if el.out == nil {
		return
	}
	for _, entry := range batch {
		data, err := json.Marshal(entry)
		if err != nil {
			el.log.Debug().Err(err).Str("kind", entry.Kind.String()).Msg("Event not encodable")
			continue
		}
		el.out.Write(data)
		el.out.WriteByte('\n')
	}
	if err := el.out.Flush(); err != nil {
		el.log.Warn().Err(err).Msg("Event log write failed")
	}
}

// EventLogStats is a point-in-time view of the log counters.
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
}

// Stats returns the log counters.
func (el *EventLog) Stats() EventLogStats {
	el.bufMu.Lock()
	pending := el.writeHead - el.readHead
	el.bufMu.Unlock()

	return EventLogStats{
		Total:   el.totalCount.Load(),
		Dropped: el.droppedCount.Load(),
		Pending: pending,
		Running: el.running.Load(),
	}
}
