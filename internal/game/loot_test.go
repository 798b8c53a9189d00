package game

import (
	"reflect"
	"testing"

	"breachline/internal/game/rng"
	"breachline/internal/game/spatial"
)

// TestLootRoll verifies rolls are seeded, bounded and land in free slots
func TestLootRoll(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		slots    int
		minStack int
		maxStack int
	}{
		{"light enemy", "enemy_light", 6, 1, 2},
		{"heavy enemy", "enemy_heavy", 6, 2, 3},
		{"cache", "cache", 6, 2, 4},
		{"cache squeezed", "cache", 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := int64(1); seed <= 50; seed++ {
				a := LootTables[tt.table].Roll(rng.New(seed), tt.slots)
				b := LootTables[tt.table].Roll(rng.New(seed), tt.slots)
				if !reflect.DeepEqual(a, b) {
					t.Fatalf("Seed %d rolled differently", seed)
				}
				if len(a) != tt.slots {
					t.Fatalf("Expected %d slots, got %d", tt.slots, len(a))
				}

				filled := 0
				for _, s := range a {
					if s == nil {
						continue
					}
					filled++
					if s.Qty <= 0 {
						t.Errorf("Seed %d: empty stack %+v", seed, s)
					}
				}
				if filled < tt.minStack || filled > tt.maxStack {
					t.Errorf("Seed %d: expected %d..%d stacks, got %d", seed, tt.minStack, tt.maxStack, filled)
				}
			}
		})
	}
}

// TestLootRollInstances verifies rolled weapons and armor carry their
// per-instance state
func TestLootRollInstances(t *testing.T) {
	table := LootTable{MinRolls: 2, MaxRolls: 2, Entries: []LootEntry{
		{Item: "smg", Weight: 1, MinQty: 1, MaxQty: 1},
		{Item: "helmet", Weight: 1, MinQty: 1, MaxQty: 1},
	}}
	for seed := int64(1); seed <= 20; seed++ {
		for _, s := range table.Roll(rng.New(seed), 4) {
			if s == nil {
				continue
			}
			switch s.Def {
			case "smg":
				if s.Mag != Weapons["smg"].MagSize {
					t.Errorf("Expected full magazine, got %d", s.Mag)
				}
			case "helmet":
				if s.Durability != Items["helmet"].Durability {
					t.Errorf("Expected full durability, got %v", s.Durability)
				}
			}
		}
	}
}

// TestLootRollEmpty verifies degenerate tables roll nothing
func TestLootRollEmpty(t *testing.T) {
	r := rng.New(1)
	before := r.State()
	out := LootTable{MinRolls: 1, MaxRolls: 3}.Roll(r, 4)
	for _, s := range out {
		if s != nil {
			t.Fatal("Expected no stacks from an empty table")
		}
	}
	if r.State() != before {
		t.Error("Expected no draws for an empty table")
	}
	if got := LootTables["cache"].Roll(r, 0); len(got) != 0 {
		t.Errorf("Expected zero slots, got %d", len(got))
	}
}

// TestContainerSearch verifies interact, reveal order, interruption and
// resuming a search
func TestContainerSearch(t *testing.T) {
	g := newTestGame(t, ModeExtraction)
	p := g.State.Player
	c := g.spawnContainer("cache", p.Pos.Add(spatial.V(30, 0)))
	g.State.Events = nil
	filled := c.Filled()

	g.Tick(Input{Interact: true})
	start := eventsOf[SearchStart](g.State.Events)
	if len(start) != 1 || start[0].ContainerID != c.ID || start[0].Progress != 0 {
		t.Fatalf("Expected search start, got %+v", start)
	}
	if g.State.ActiveContainer != c.ID {
		t.Fatal("Expected the container to become active")
	}

	var revealed []ItemRevealed
	for i := 0; i < 29; i++ {
		g.Tick(Input{})
		revealed = append(revealed, eventsOf[ItemRevealed](g.State.Events)...)
	}
	if len(revealed) != 1 {
		t.Fatalf("Expected one reveal after 30 ticks, got %d", len(revealed))
	}

	// Step out of reach; progress stays on the container.
	home := p.Pos
	p.Pos = p.Pos.Sub(spatial.V(200, 0))
	g.Tick(Input{})
	if g.State.ActiveContainer != 0 {
		t.Fatal("Expected the search to stop out of reach")
	}
	if c.SearchProgress != 30 {
		t.Errorf("Expected progress 30 kept, got %d", c.SearchProgress)
	}

	p.Pos = home
	g.Tick(Input{Interact: true})
	start = eventsOf[SearchStart](g.State.Events)
	if len(start) != 1 || start[0].Progress != 30 {
		t.Fatalf("Expected resume at 30, got %+v", start)
	}
	revealed = append(revealed, eventsOf[ItemRevealed](g.State.Events)...)

	done := false
	for i := 0; i < 30*filled && !done; i++ {
		g.Tick(Input{})
		revealed = append(revealed, eventsOf[ItemRevealed](g.State.Events)...)
		done = len(eventsOf[SearchComplete](g.State.Events)) == 1
	}
	if !done {
		t.Fatal("Expected the search to complete")
	}
	if len(revealed) != filled {
		t.Fatalf("Expected %d reveals, got %d", filled, len(revealed))
	}
	for i := 1; i < len(revealed); i++ {
		if revealed[i].Slot <= revealed[i-1].Slot {
			t.Errorf("Expected reveals in slot order, got %d after %d", revealed[i].Slot, revealed[i-1].Slot)
		}
	}
	if c.SearchProgress != 30*filled {
		t.Errorf("Expected %d search ticks, got %d", 30*filled, c.SearchProgress)
	}

	// Second interact takes everything.
	inv := p.Inventory
	before := map[string]int{}
	for _, r := range revealed {
		before[r.Item] = inv.Count(r.Item)
	}
	g.Tick(Input{Interact: true})
	taken := eventsOf[LootTaken](g.State.Events)
	if len(taken) != 1 || taken[0].Stacks != filled || taken[0].Left != 0 {
		t.Fatalf("Expected all %d stacks taken, got %+v", filled, taken)
	}
	gained := map[string]int{}
	for _, r := range revealed {
		gained[r.Item] += r.Qty
	}
	for item, qty := range gained {
		if got := inv.Count(item); got != before[item]+qty {
			t.Errorf("Expected %d %s, got %d", before[item]+qty, item, got)
		}
	}
	if len(g.State.Containers) != 0 {
		t.Error("Expected the emptied container to be removed")
	}
}

// TestTakeLootOverflow verifies stacks that do not fit stay behind
func TestTakeLootOverflow(t *testing.T) {
	g := newTestGame(t, ModeExtraction)
	w := g.State
	inv := w.Player.Inventory
	inv.Add("gold_watch", inv.FreeSlots())

	c := &LootContainer{
		ID:       w.newID(),
		Source:   "cache",
		Pos:      w.Player.Pos.Add(spatial.V(20, 0)),
		Slots:    []*ItemStack{nil, {Def: "intel", Qty: 1}, nil},
		Revealed: 1,
		Searched: true,
	}
	w.Containers = append(w.Containers, c)

	g.Tick(Input{Interact: true})
	taken := eventsOf[LootTaken](w.Events)
	if len(taken) != 1 || taken[0].Stacks != 0 || taken[0].Left != 1 {
		t.Fatalf("Expected the stack left behind, got %+v", taken)
	}
	if len(w.Containers) != 1 {
		t.Fatal("Expected the container to stay")
	}

	inv.Remove("gold_watch", 1)
	g.Tick(Input{Interact: true})
	if inv.Count("intel") != 1 {
		t.Error("Expected intel in the backpack")
	}
	if len(w.Containers) != 0 {
		t.Error("Expected the emptied container to be removed")
	}
}

// TestKillDropsContainer verifies extraction kills leave a loot container
func TestKillDropsContainer(t *testing.T) {
	g := newTestGame(t, ModeExtraction)
	p := g.State.Player
	e := addEnemy(g, "grunt", p.Pos.Add(spatial.V(150, 0)))
	injectShot(g, "rifle", p.Pos.Add(spatial.V(20, 0)), spatial.V(1, 0), 100, 0)

	events := tickUntilSpent(t, g)
	killed := eventsOf[EnemyKilled](events)
	spawned := eventsOf[ContainerSpawned](events)
	if len(killed) != 1 || killed[0].EnemyID != e.ID {
		t.Fatalf("Expected the grunt killed, got %+v", killed)
	}
	if len(spawned) != 1 || spawned[0].Source != "enemy_light" || spawned[0].Pos != killed[0].Pos {
		t.Errorf("Expected an enemy_light container at the kill, got %+v", spawned)
	}
	if len(g.State.Crates) != 0 || len(g.State.CashPickups) != 0 {
		t.Error("Expected no arena drops in extraction")
	}
}
