package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"breachline/internal/config"
	"breachline/internal/game/spatial"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// -----------------------------------------------------------------------------
// TICK BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkTick_Arena_10Enemies(b *testing.B)  { benchmarkArenaTick(b, 10) }
func BenchmarkTick_Arena_30Enemies(b *testing.B)  { benchmarkArenaTick(b, 30) }
func BenchmarkTick_Arena_100Enemies(b *testing.B) { benchmarkArenaTick(b, 100) }

// benchmarkArenaTick measures a tick with n chasing enemies ringed around
// the player and the rifle firing continuously.
func benchmarkArenaTick(b *testing.B, n int) {
	g := New(config.SimConfig{}, 42, ModeArena, DefaultLoadout(ModeArena))
	w := g.State
	w.Spawner.Timer = 1 << 30
	center := w.Player.Pos
	for i := 0; i < n; i++ {
		pos := center.Add(spatial.FromAngle(float64(i) * 0.7).Scale(500 + float64(i%7)*40))
		pos = w.Bounds.Clamp(pos, 20)
		if g.physics.Overlaps(pos, 20) {
			continue
		}
		e := g.spawnEnemy(enemyOrder[i%len(enemyOrder)], pos, -1)
		e.State = AIChase
		e.HP = 1e9
	}
	w.Player.HP = 1e9
	w.Player.MaxHP = 1e9
	w.Events = nil

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		g.Tick(Input{
			Aim:      spatial.FromAngle(float64(i) * 0.01),
			FireHeld: true,
		})
	}
}

func BenchmarkTick_Extraction(b *testing.B) {
	g := New(config.SimConfig{}, 42, ModeExtraction, DefaultLoadout(ModeExtraction))
	g.State.Player.HP = 1e9
	g.State.Player.MaxHP = 1e9

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		g.Tick(Input{Move: spatial.V(0, -1), Aim: spatial.V(0, -1)})
	}
}

// -----------------------------------------------------------------------------
// STATE COPY BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkClone(b *testing.B) {
	g := New(config.SimConfig{}, 42, ModeExtraction, DefaultLoadout(ModeExtraction))
	runScript(g, 0, 600)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = g.Clone()
	}
}

func BenchmarkSnapshotJSON(b *testing.B) {
	g := New(config.SimConfig{}, 42, ModeExtraction, DefaultLoadout(ModeExtraction))
	runScript(g, 0, 600)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(g.Snapshot()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSnapshotHash(b *testing.B) {
	g := New(config.SimConfig{}, 42, ModeArena, DefaultLoadout(ModeArena))
	runScript(g, 0, 600)
	snap := g.Snapshot()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = snap.Hash()
	}
}

// -----------------------------------------------------------------------------
// NAVIGATION AND COLLISION BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkFlowFieldGenerate(b *testing.B) {
	for _, mode := range []Mode{ModeArena, ModeExtraction} {
		b.Run(mode.String(), func(b *testing.B) {
			g := New(config.SimConfig{}, 42, mode, DefaultLoadout(mode))
			goals := make([]Vec2, 16)
			for i := range goals {
				goals[i] = spatial.V(
					g.State.Bounds.Width*float64(i%4+1)/5,
					g.State.Bounds.Height*float64(i/4+1)/5,
				)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				g.nav.Generate(goals[i%len(goals)])
			}
		})
	}
}

func BenchmarkLineOfSight(b *testing.B) {
	g := New(config.SimConfig{}, 42, ModeExtraction, DefaultLoadout(ModeExtraction))
	w := g.State
	for _, dist := range []float64{200, 650, 1500} {
		b.Run(fmt.Sprintf("dist_%v", dist), func(b *testing.B) {
			from := w.Player.Pos
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				to := from.Add(spatial.FromAngle(float64(i) * 0.1).Scale(dist))
				_ = g.lineClear(from, to)
			}
		})
	}
}
