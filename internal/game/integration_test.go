package game

import (
	"testing"

	"breachline/internal/config"
	"breachline/internal/game/spatial"
)

// =============================================================================
// INTEGRATION TESTS: FULL RUNS THROUGH THE PUBLIC TICK API
// =============================================================================

// TestIntegration_ArenaSpawnAndKill plays the seed 42 arena opening: idle
// until the spawner has produced an enemy, then drop one rifle round into a
// freshly spawned target.
func TestIntegration_ArenaSpawnAndKill(t *testing.T) {
	g := New(config.SimConfig{}, 42, ModeArena, DefaultLoadout(ModeArena))
	w := g.State

	spawned := 0
	for i := 0; i < 300; i++ {
		g.Tick(Input{})
		spawned += len(eventsOf[EnemySpawned](w.Events))
	}
	if spawned == 0 || len(w.Enemies) == 0 {
		t.Fatal("Expected the spawner to produce an enemy within 300 ticks")
	}
	if w.GameOver {
		t.Fatal("Expected the player alive after 300 idle ticks")
	}

	// Clear geometry and keep only the newest spawn, 150 units to the right.
	w.Obstacles = nil
	w.Destructibles = nil
	target := w.Enemies[len(w.Enemies)-1]
	target.Pos = w.Player.Pos.Add(spatial.V(150, 0))
	target.Knockback = Vec2{}
	w.Enemies = []*Enemy{target}
	w.Spawner.Timer = 1 << 30
	g.RebuildPhysics()

	p := w.Player
	p.Inventory.Equipment.Weapons[0].Mag = GetWeapon("rifle").MagSize
	p.ActiveSlot = 0
	p.FireCooldown = 0
	p.Reload = TimedAction{}
	p.Heal = TimedAction{}

	g.Tick(Input{Aim: spatial.V(1, 0), FireHeld: true, FirePressed: true})
	fired := eventsOf[PlayerFired](w.Events)
	if len(fired) != 1 || fired[0].Weapon != "rifle" {
		t.Fatalf("Expected one rifle shot, got %+v", fired)
	}
	all := append([]Event(nil), w.Events...)
	all = append(all, tickUntilSpent(t, g)...)

	var sequence []EventKind
	for _, ev := range all {
		if ev.Kind == EventEnemyHit || ev.Kind == EventEnemyKilled {
			sequence = append(sequence, ev.Kind)
		}
	}
	if len(sequence) != 2 || sequence[0] != EventEnemyHit || sequence[1] != EventEnemyKilled {
		t.Fatalf("Expected enemy_hit then enemy_killed, got %v", sequence)
	}

	hit := eventsOf[EnemyHit](all)[0]
	killed := eventsOf[EnemyKilled](all)[0]
	if hit.EnemyID != target.ID || killed.EnemyID != target.ID {
		t.Errorf("Expected both events for enemy %d", target.ID)
	}
	if len(w.Enemies) != 0 {
		t.Errorf("Expected the target removed, %d enemies left", len(w.Enemies))
	}
	if w.Stats.Kills != 1 {
		t.Errorf("Expected 1 kill in stats, got %d", w.Stats.Kills)
	}
}

// TestIntegration_ExtractionLootAndExit walks a cleared extraction map,
// loots a cache on the way and banks it at the exit.
func TestIntegration_ExtractionLootAndExit(t *testing.T) {
	g := newTestGame(t, ModeExtraction)
	w := g.State
	p := w.Player
	cache := g.spawnContainer("cache", spatial.V(p.Pos.X+40, 1800))
	w.Events = nil

	var (
		searched  bool
		looted    bool
		extracted bool
	)
	for i := 0; i < 3000 && !extracted; i++ {
		in := Input{Aim: spatial.V(0, -1)}
		switch {
		case !looted && p.Pos.Dist(cache.Pos) <= g.Config.Player.InteractRadius-10:
			// Hold still; interact to start and again to take.
			in.Interact = !searched && w.ActiveContainer == 0 || cache.Searched
		case p.Pos.Dist(w.Map.Exit) > 20:
			in.Move = w.Map.Exit.Sub(p.Pos).Norm()
		}
		g.Tick(in)

		searched = searched || len(eventsOf[SearchStart](w.Events)) > 0
		looted = looted || len(eventsOf[LootTaken](w.Events)) > 0
		extracted = w.Extracted
	}

	if !looted {
		t.Fatal("Expected the cache to be looted on the way")
	}
	if !extracted {
		t.Fatalf("Expected extraction, player at %+v", p.Pos)
	}
	if w.Cash != p.Inventory.Value() {
		t.Errorf("Expected cash %d to equal carried value, got %d", p.Inventory.Value(), w.Cash)
	}
	if w.Cash <= 841 {
		t.Errorf("Expected looted value on top of the 841 kit, got %d", w.Cash)
	}

	before := w.Tick
	g.Tick(Input{Move: spatial.V(0, 1)})
	if w.Tick != before {
		t.Error("Expected no ticks after extraction")
	}
}

// TestIntegration_ArenaDeath runs an arena to its end with no input and
// checks the terminal state.
func TestIntegration_ArenaDeath(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping long run in short mode")
	}
	g := New(config.SimConfig{}, 42, ModeArena, DefaultLoadout(ModeArena))
	w := g.State

	var over []GameOver
	for i := 0; i < 60*60*10 && !w.GameOver; i++ {
		g.Tick(Input{})
		over = append(over, eventsOf[GameOver](w.Events)...)
	}
	if !w.GameOver {
		t.Fatal("Expected an idle player to be overrun")
	}
	if len(over) != 1 || over[0].Score != w.Score {
		t.Errorf("Expected one game_over with the final score, got %+v", over)
	}
	if w.Player.HP != 0 {
		t.Errorf("Expected HP 0, got %v", w.Player.HP)
	}
}
