package game

import (
	"breachline/internal/game/rng"
)

// LootEntry is one weighted outcome of a loot roll.
type LootEntry struct {
	Item   string
	Weight float64
	MinQty int
	MaxQty int
}

// LootTable is a weighted set of entries rolled MinRolls..MaxRolls times.
type LootTable struct {
	MinRolls int
	MaxRolls int
	Entries  []LootEntry
}

// LootTables keys tables by source: enemy tier, destructible tier or a
// static cache.
var LootTables = map[string]LootTable{
	"enemy_light": {
		MinRolls: 1, MaxRolls: 2,
		Entries: []LootEntry{
			{Item: "ammo_9mm", Weight: 4, MinQty: 6, MaxQty: 18},
			{Item: "ammo_556", Weight: 3, MinQty: 5, MaxQty: 15},
			{Item: "bandage", Weight: 2, MinQty: 1, MaxQty: 2},
			{Item: "scrap", Weight: 3, MinQty: 1, MaxQty: 3},
		},
	},
	"enemy_heavy": {
		MinRolls: 2, MaxRolls: 3,
		Entries: []LootEntry{
			{Item: "ammo_556", Weight: 4, MinQty: 10, MaxQty: 30},
			{Item: "ammo_12g", Weight: 2, MinQty: 4, MaxQty: 10},
			{Item: "medkit", Weight: 1.5, MinQty: 1, MaxQty: 1},
			{Item: "armor_plate", Weight: 2, MinQty: 1, MaxQty: 2},
			{Item: "frag", Weight: 1.5, MinQty: 1, MaxQty: 2},
			{Item: "gold_watch", Weight: 0.5, MinQty: 1, MaxQty: 1},
		},
	},
	"crate_common": {
		MinRolls: 1, MaxRolls: 3,
		Entries: []LootEntry{
			{Item: "ammo_9mm", Weight: 3, MinQty: 10, MaxQty: 30},
			{Item: "ammo_556", Weight: 3, MinQty: 10, MaxQty: 30},
			{Item: "ammo_338", Weight: 1, MinQty: 3, MaxQty: 8},
			{Item: "bandage", Weight: 2, MinQty: 1, MaxQty: 3},
			{Item: "scrap", Weight: 4, MinQty: 2, MaxQty: 6},
		},
	},
	"cache": {
		MinRolls: 2, MaxRolls: 4,
		Entries: []LootEntry{
			{Item: "medkit", Weight: 2, MinQty: 1, MaxQty: 2},
			{Item: "vest_heavy", Weight: 0.6, MinQty: 1, MaxQty: 1},
			{Item: "helmet", Weight: 0.8, MinQty: 1, MaxQty: 1},
			{Item: "smg", Weight: 0.7, MinQty: 1, MaxQty: 1},
			{Item: "sniper", Weight: 0.4, MinQty: 1, MaxQty: 1},
			{Item: "frag", Weight: 1.5, MinQty: 1, MaxQty: 3},
			{Item: "gold_watch", Weight: 1, MinQty: 1, MaxQty: 1},
			{Item: "intel", Weight: 0.5, MinQty: 1, MaxQty: 1},
		},
	},
}

// Roll fills a fixed-length slot array. Each roll lands in an
// rng-chosen slot, probing forward to the next empty one; rolls stop once
// every slot is taken.
func (t LootTable) Roll(r *rng.RNG, slots int) []*ItemStack {
	out := make([]*ItemStack, slots)
	if slots <= 0 || len(t.Entries) == 0 {
		return out
	}

	weights := make([]float64, len(t.Entries))
	for i, e := range t.Entries {
		weights[i] = e.Weight
	}

	used := 0
	rolls := r.Int(t.MinRolls, t.MaxRolls)
	for i := 0; i < rolls && used < slots; i++ {
		idx := r.Pick(weights)
		if idx < 0 {
			break
		}
		e := t.Entries[idx]
		qty := r.Int(e.MinQty, e.MaxQty)
		slot := r.Int(0, slots-1)
		for out[slot] != nil {
			slot = (slot + 1) % slots
		}

		s := &ItemStack{Def: e.Item, Qty: qty}
		if d, ok := Items[e.Item]; ok && d.Durability > 0 {
			s.Durability = d.Durability
		}
		if w, ok := Weapons[e.Item]; ok {
			s.Mag = w.MagSize
		}
		out[slot] = s
		used++
	}
	return out
}

// spawnContainer rolls a new loot container from the named table.
func (g *Game) spawnContainer(source string, pos Vec2) *LootContainer {
	w := g.State
	c := &LootContainer{
		ID:     w.newID(),
		Source: source,
		Pos:    pos,
		Slots:  LootTables[source].Roll(g.RNG, g.Config.Loot.ContainerSlots),
	}
	if c.Filled() == 0 {
		c.Searched = true
	}
	w.Containers = append(w.Containers, c)
	w.emit(ContainerSpawned{ContainerID: c.ID, Source: source, Pos: pos})
	return c
}

// advanceSearch adds one tick of search to c and reveals the next non-empty
// slot on every RevealInterval boundary.
func (g *Game) advanceSearch(c *LootContainer) {
	if c.Searched {
		return
	}
	w := g.State
	interval := max(g.Config.Ticks(g.Config.Loot.RevealSeconds), 1)

	c.SearchProgress++
	if c.SearchProgress%interval != 0 {
		return
	}

	filled := c.Filled()
	if c.Revealed < filled {
		c.Revealed++
		slot := c.RevealedSlots()[c.Revealed-1]
		s := c.Slots[slot]
		w.emit(ItemRevealed{ContainerID: c.ID, Slot: slot, Item: s.Def, Qty: s.Qty})
	}
	if c.Revealed >= filled {
		c.Searched = true
		w.emit(SearchComplete{ContainerID: c.ID})
	}
}

// takeLoot moves every revealed stack into the backpack. Stacks that do not
// fit stay in the container.
func (g *Game) takeLoot(c *LootContainer) {
	w := g.State
	inv := w.Player.Inventory
	taken, left := 0, 0
	for _, i := range c.RevealedSlots() {
		s := c.Slots[i]
		if inv.AddStack(s) == 0 {
			c.Slots[i] = nil
			taken++
		} else {
			left++
		}
	}
	// Taking stacks shifts which slots count as revealed.
	c.Revealed = c.Filled()
	w.emit(LootTaken{ContainerID: c.ID, Stacks: taken, Left: left})
}

func (g *Game) containerByID(id uint64) *LootContainer {
	for _, c := range g.State.Containers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// updateContainers runs the extraction interact flow: select the nearest
// container in reach, search it while the player stays in range, and take
// its items on a second interact once fully revealed.
func (g *Game) updateContainers(in Input) {
	w := g.State
	p := w.Player
	reach := g.Config.Player.InteractRadius

	if active := g.containerByID(w.ActiveContainer); active != nil {
		if p.Pos.Dist(active.Pos) > reach {
			w.ActiveContainer = 0 // Walked away; progress stays on the container.
		}
	} else {
		w.ActiveContainer = 0
	}

	if in.Interact {
		if w.ActiveContainer != 0 {
			if c := g.containerByID(w.ActiveContainer); c.Searched {
				g.takeLoot(c)
			}
		} else if c := g.nearestContainer(p.Pos, reach); c != nil {
			if c.Searched {
				g.takeLoot(c)
			} else {
				w.ActiveContainer = c.ID
				w.emit(SearchStart{ContainerID: c.ID, Progress: c.SearchProgress})
			}
		}
	}

	if c := g.containerByID(w.ActiveContainer); c != nil && !c.Searched {
		g.advanceSearch(c)
	}

	// Drop emptied containers.
	n := 0
	for _, c := range w.Containers {
		if c.Searched && c.Empty() {
			if c.ID == w.ActiveContainer {
				w.ActiveContainer = 0
			}
			continue
		}
		w.Containers[n] = c
		n++
	}
	clear(w.Containers[n:])
	w.Containers = w.Containers[:n]
}

func (g *Game) nearestContainer(pos Vec2, reach float64) *LootContainer {
	var best *LootContainer
	bestDist := reach * reach
	for _, c := range g.State.Containers {
		if c.Searched && c.Empty() {
			continue
		}
		if d := pos.DistSq(c.Pos); d <= bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
