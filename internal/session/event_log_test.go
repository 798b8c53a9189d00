package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachline/internal/game"
)

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog(10000, zerolog.Nop())
	require.NoError(t, el.Start(path))

	events := []game.Event{
		{Tick: 3, Kind: game.EventDryFire, Payload: game.DryFire{Weapon: "pistol"}},
		{Tick: 4, Kind: game.EventDryFire, Payload: game.DryFire{Weapon: "rifle"}},
	}
	assert.Equal(t, 2, el.EmitAll("s1", events))
	el.Stop()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "s1", lines[0]["session"])
	assert.Equal(t, "dry_fire", lines[0]["kind"])
	assert.EqualValues(t, 3, lines[0]["tick"])
	assert.EqualValues(t, 1, lines[0]["seq"])
	assert.EqualValues(t, 2, lines[1]["seq"])

	stats := el.Stats()
	assert.EqualValues(t, 2, stats.Total)
	assert.Zero(t, stats.Pending)
	assert.False(t, stats.Running)
}

func TestEventLogRateLimit(t *testing.T) {
	el := NewEventLog(5, zerolog.Nop())
	require.NoError(t, el.StartWriter(&bytes.Buffer{}))
	defer el.Stop()

	ev := game.Event{Tick: 1, Kind: game.EventDryFire, Payload: game.DryFire{Weapon: "smg"}}
	kept := 0
	for i := 0; i < 50; i++ {
		if el.Emit("s1", ev) {
			kept++
		}
	}
	assert.Less(t, kept, 50)
	assert.EqualValues(t, 50-kept, el.Stats().Dropped)
}

func TestEventLogNotRunning(t *testing.T) {
	el := NewEventLog(100, zerolog.Nop())
	assert.False(t, el.Emit("s1", game.Event{Kind: game.EventDryFire, Payload: game.DryFire{}}))
	el.Stop()
}

func TestEventLogOverflowDropsOldest(t *testing.T) {
	el := NewEventLog(1_000_000, zerolog.Nop())
	el.running.Store(true) // Buffer only; no writer draining it.

	ev := game.Event{Kind: game.EventDryFire, Payload: game.DryFire{}}
	for i := 0; i < EventBufferSize+10; i++ {
		el.Emit("s"+string(rune('a'+i%20)), ev)
	}
	stats := el.Stats()
	assert.EqualValues(t, EventBufferSize, stats.Pending)
	assert.EqualValues(t, 10, stats.Dropped)

	batch := el.collectBatch(nil)
	require.NotEmpty(t, batch)
	assert.EqualValues(t, 11, batch[0].Seq, "oldest ten were dropped")
}
