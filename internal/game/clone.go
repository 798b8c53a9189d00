package game

import "breachline/internal/game/spatial"

// Clone returns a structural deep copy. The copy shares no mutable state
// with w and can be advanced or discarded independently.
func (w *World) Clone() *World {
	if w == nil {
		return nil
	}
	c := *w

	c.Player = w.Player.Clone()
	c.Enemies = cloneEach(w.Enemies, func(e *Enemy) *Enemy { v := *e; return &v })
	c.Projectiles = cloneEach(w.Projectiles, (*Projectile).Clone)
	c.EnemyProjectiles = cloneEach(w.EnemyProjectiles, func(p *EnemyProjectile) *EnemyProjectile { v := *p; return &v })
	c.Grenades = cloneEach(w.Grenades, func(gr *Grenade) *Grenade { v := *gr; return &v })
	c.Crates = cloneEach(w.Crates, func(cr *Crate) *Crate { v := *cr; return &v })
	c.CashPickups = cloneEach(w.CashPickups, func(cp *CashPickup) *CashPickup { v := *cp; return &v })
	c.Destructibles = cloneEach(w.Destructibles, func(d *DestructibleCrate) *DestructibleCrate { v := *d; return &v })
	c.Containers = cloneEach(w.Containers, (*LootContainer).Clone)

	if w.Obstacles != nil {
		c.Obstacles = append([]spatial.Shape(nil), w.Obstacles...)
	}
	c.Stats = w.Stats.Clone()
	if w.Map != nil {
		m := *w.Map
		m.Zones = append([]Zone(nil), w.Map.Zones...)
		c.Map = &m
	}
	if w.Events != nil {
		// Payloads are values.
		c.Events = append([]Event(nil), w.Events...)
	}
	return &c
}

func cloneEach[T any](in []*T, fn func(*T) *T) []*T {
	if in == nil {
		return nil
	}
	out := make([]*T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// Clone returns a deep copy of the player including the inventory.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	c.Inventory = p.Inventory.Clone()
	return &c
}

// Clone returns a deep copy including the hit list.
func (pr *Projectile) Clone() *Projectile {
	c := *pr
	if pr.Hits != nil {
		c.Hits = append([]uint64(nil), pr.Hits...)
	}
	return &c
}

// Clone returns a deep copy including every slot.
func (lc *LootContainer) Clone() *LootContainer {
	c := *lc
	if lc.Slots != nil {
		c.Slots = make([]*ItemStack, len(lc.Slots))
		for i, s := range lc.Slots {
			c.Slots[i] = s.Clone()
		}
	}
	return &c
}
