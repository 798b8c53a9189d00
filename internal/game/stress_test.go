package game

import (
	"math/rand"
	"testing"
	"time"

	"breachline/internal/config"
	"breachline/internal/game/spatial"
)

// =============================================================================
// STRESS TEST SUITE: LONG RANDOMIZED RUNS
// Run with: go test -v -run=TestStress -timeout=120s ./internal/game/...
// =============================================================================

// StressTestConfig configures stress test parameters
type StressTestConfig struct {
	Seeds    []int64
	MaxTicks int
	Mode     Mode
}

// StressTestResult contains metrics from a stress run
type StressTestResult struct {
	Runs        int
	TotalTicks  int
	Events      int
	Terminal    int
	MaxTickTime time.Duration
	AvgTickTime time.Duration
}

// randomInput mashes every control. The generator is seeded so failures
// reproduce.
func randomInput(r *rand.Rand) Input {
	in := Input{
		Move:        spatial.FromAngle(r.Float64() * 6.283),
		Aim:         spatial.FromAngle(r.Float64() * 6.283),
		FireHeld:    r.Intn(3) > 0,
		FirePressed: r.Intn(8) == 0,
		Reload:      r.Intn(40) == 0,
		Dodge:       r.Intn(90) == 0,
		HealSmall:   r.Intn(120) == 0,
		HealLarge:   r.Intn(400) == 0,
		Interact:    r.Intn(20) == 0,
	}
	if r.Intn(10) == 0 {
		in.Move = Vec2{}
	}
	if r.Intn(150) == 0 {
		in.ThrowGrenade = true
		in.GrenadeCharge = r.Float64()
	}
	if r.Intn(200) == 0 {
		in.WeaponSlot = 1 + r.Intn(2)
	}
	if r.Intn(300) == 0 {
		in.HotbarUse = 1 + r.Intn(HotbarSlots)
	}
	return in
}

// checkInvariants fails the test on any broken world invariant.
func checkInvariants(t *testing.T, g *Game, prevTick uint64) {
	t.Helper()
	w := g.State
	p := w.Player

	if !w.Terminal() && w.Tick != prevTick+1 {
		t.Fatalf("Tick %d: expected tick %d", w.Tick, prevTick+1)
	}
	if p.HP < 0 || p.HP > p.MaxHP {
		t.Fatalf("Tick %d: player HP %v out of range", w.Tick, p.HP)
	}
	if (p.HP == 0) != w.GameOver {
		t.Fatalf("Tick %d: HP %v but game over %v", w.Tick, p.HP, w.GameOver)
	}
	for _, s := range p.Inventory.Equipment.Weapons {
		if s == nil {
			continue
		}
		if def := GetWeapon(s.Def); s.Mag < 0 || s.Mag > def.MagSize {
			t.Fatalf("Tick %d: %s magazine %d", w.Tick, s.Def, s.Mag)
		}
	}
	if w.GrenadeAmmo < 0 {
		t.Fatalf("Tick %d: negative grenades", w.Tick)
	}
	for _, ev := range w.Events {
		if ev.Tick != w.Tick {
			t.Fatalf("Tick %d: event %s stamped %d", w.Tick, ev.Kind, ev.Tick)
		}
	}

	seen := map[uint64]bool{}
	check := func(id uint64, what string) {
		if id == 0 || id > w.NextID || seen[id] {
			t.Fatalf("Tick %d: bad %s id %d (next %d)", w.Tick, what, id, w.NextID)
		}
		seen[id] = true
	}
	for _, e := range w.Enemies {
		check(e.ID, "enemy")
		if e.HP <= 0 {
			t.Fatalf("Tick %d: dead enemy %d still listed", w.Tick, e.ID)
		}
		if e.Pos.X < 0 || e.Pos.Y < 0 || e.Pos.X > w.Bounds.Width || e.Pos.Y > w.Bounds.Height {
			t.Fatalf("Tick %d: enemy %d out of bounds at %+v", w.Tick, e.ID, e.Pos)
		}
	}
	for _, pr := range w.Projectiles {
		check(pr.ID, "projectile")
	}
	for _, pr := range w.EnemyProjectiles {
		check(pr.ID, "enemy projectile")
	}
	for _, gr := range w.Grenades {
		check(gr.ID, "grenade")
	}
	for _, c := range w.Crates {
		check(c.ID, "crate")
	}
	for _, c := range w.CashPickups {
		check(c.ID, "cash")
	}
	for _, c := range w.Containers {
		check(c.ID, "container")
	}
	if g.Config.Spawner.MaxEnemies < len(w.Enemies) && w.Mode == ModeArena {
		t.Fatalf("Tick %d: %d enemies over the cap", w.Tick, len(w.Enemies))
	}
}

func runStressTest(t *testing.T, cfg StressTestConfig) StressTestResult {
	t.Helper()
	var (
		res   StressTestResult
		total time.Duration
	)
	for _, seed := range cfg.Seeds {
		g := New(config.SimConfig{}, seed, cfg.Mode, DefaultLoadout(cfg.Mode))
		r := rand.New(rand.NewSource(seed))
		res.Runs++

		for i := 0; i < cfg.MaxTicks && !g.State.Terminal(); i++ {
			prev := g.State.Tick
			start := time.Now()
			g.Tick(randomInput(r))
			elapsed := time.Since(start)

			total += elapsed
			res.MaxTickTime = max(res.MaxTickTime, elapsed)
			res.TotalTicks++
			res.Events += len(g.State.Events)
			checkInvariants(t, g, prev)
		}
		if g.State.Terminal() {
			res.Terminal++
		}
	}
	if res.TotalTicks > 0 {
		res.AvgTickTime = total / time.Duration(res.TotalTicks)
	}
	return res
}

// -----------------------------------------------------------------------------
// STRESS TEST: ARENA
// -----------------------------------------------------------------------------

func TestStress_ArenaRandomInput(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	res := runStressTest(t, StressTestConfig{
		Seeds:    []int64{1, 2, 3, 42, 1337},
		MaxTicks: 60 * 60 * 3,
		Mode:     ModeArena,
	})

	t.Logf("=== ARENA STRESS ===")
	t.Logf("Runs: %d, ticks: %d, events: %d, ended: %d", res.Runs, res.TotalTicks, res.Events, res.Terminal)
	t.Logf("Avg tick: %v, max tick: %v", res.AvgTickTime, res.MaxTickTime)

	if res.Events == 0 {
		t.Error("Expected events from randomized play")
	}
}

// -----------------------------------------------------------------------------
// STRESS TEST: EXTRACTION
// -----------------------------------------------------------------------------

func TestStress_ExtractionRandomInput(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	res := runStressTest(t, StressTestConfig{
		Seeds:    []int64{7, 8, 9, 42},
		MaxTicks: 60 * 60 * 3,
		Mode:     ModeExtraction,
	})

	t.Logf("=== EXTRACTION STRESS ===")
	t.Logf("Runs: %d, ticks: %d, events: %d, ended: %d", res.Runs, res.TotalTicks, res.Events, res.Terminal)
	t.Logf("Avg tick: %v, max tick: %v", res.AvgTickTime, res.MaxTickTime)
}

// -----------------------------------------------------------------------------
// STRESS TEST: REPLAY UNDER LOAD
// -----------------------------------------------------------------------------

// TestStress_ReplayMatches replays recorded random input against a fresh
// game and compares the final hash.
func TestStress_ReplayMatches(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	for _, mode := range []Mode{ModeArena, ModeExtraction} {
		t.Run(mode.String(), func(t *testing.T) {
			r := rand.New(rand.NewSource(99))
			live := New(config.SimConfig{}, 99, mode, DefaultLoadout(mode))
			var inputs []Input
			for i := 0; i < 5000 && !live.State.Terminal(); i++ {
				in := randomInput(r)
				inputs = append(inputs, in)
				live.Tick(in)
			}

			replayed := New(config.SimConfig{}, 99, mode, DefaultLoadout(mode))
			for _, in := range inputs {
				replayed.Tick(in)
			}
			if live.Snapshot().Hash() != replayed.Snapshot().Hash() {
				t.Errorf("Replay diverged after %d inputs", len(inputs))
			}
		})
	}
}
