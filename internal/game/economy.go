package game

import (
	"math"

	"breachline/internal/game/spatial"
)

const crateRadius = 12.0

// crateKinds fixes the order crate weights are rolled in.
var crateKinds = []CrateKind{CrateHealth, CrateGrenade, CrateArmor, CrateMedkit}

// updateEconomy turns this tick's kills and broken crates into drops, then
// handles pickups. Arena runs drop crates and cash that collect on
// proximity; extraction runs drop loot containers that need interaction.
func (g *Game) updateEconomy(in Input) {
	w := g.State
	n := len(w.Events)

	if w.Mode == ModeExtraction {
		for i := 0; i < n; i++ {
			switch ev := w.Events[i].Payload.(type) {
			case EnemyKilled:
				g.spawnContainer(GetEnemyDef(ev.EnemyType).Loot, ev.Pos)
			case DestructibleDestroyed:
				g.spawnContainer(ev.Loot, ev.Pos)
			}
		}
		g.updateContainers(in)
		return
	}

	for i := 0; i < n; i++ {
		switch ev := w.Events[i].Payload.(type) {
		case EnemyKilled:
			g.rollDrops(ev.Pos)
		case DestructibleDestroyed:
			g.spawnCrate(g.pickCrateKind(), ev.Pos)
		}
	}
	if w.MultiKillBoost > 0 {
		w.MultiKillBoost--
	}

	g.updateCrates()
	g.updateCash()
}

// rollDrops rolls a crate (elevated chance during a multi-kill boost) and a
// cash scatter for one kill.
func (g *Game) rollDrops(pos Vec2) {
	ec := g.Config.Economy
	chance := ec.CrateChance
	if g.State.MultiKillBoost > 0 {
		chance = ec.MultiKillCrateChance
	}
	if g.RNG.Chance(chance) {
		g.spawnCrate(g.pickCrateKind(), pos)
	}

	if !g.RNG.Chance(ec.CashChance) {
		return
	}
	count := g.RNG.Int(ec.CashMinPickups, ec.CashMaxPickups)
	for i := 0; i < count; i++ {
		off := spatial.FromAngle(g.RNG.Range(0, 2*math.Pi)).Scale(g.RNG.Range(0, ec.CashScatter))
		g.spawnCash(pos.Add(off))
	}
}

func (g *Game) pickCrateKind() CrateKind {
	ec := g.Config.Economy
	idx := g.RNG.Pick([]float64{ec.HealthWeight, ec.GrenadeWeight, ec.ArmorWeight, ec.MedkitWeight})
	if idx < 0 {
		return CrateHealth
	}
	return crateKinds[idx]
}

func (g *Game) spawnCrate(kind CrateKind, pos Vec2) {
	w := g.State
	c := &Crate{
		ID:   w.newID(),
		Kind: kind,
		Pos:  w.Bounds.Clamp(pos, crateRadius),
		Life: g.Config.Ticks(g.Config.Economy.CrateLifetime),
	}
	w.Crates = append(w.Crates, c)
	w.emit(CrateSpawned{CrateID: c.ID, Crate: kind, Pos: c.Pos})
}

func (g *Game) spawnCash(pos Vec2) {
	w := g.State
	c := &CashPickup{
		ID:    w.newID(),
		Pos:   w.Bounds.Clamp(pos, crateRadius),
		Value: g.Config.Economy.CashValue,
		Life:  g.Config.Ticks(g.Config.Economy.CashLifetime),
	}
	w.CashPickups = append(w.CashPickups, c)
	w.emit(CashSpawned{CashID: c.ID, Pos: c.Pos, Value: c.Value})
}

// updateCrates ages crates, flags them blinking near expiry and collects
// those the player touches.
func (g *Game) updateCrates() {
	w := g.State
	p := w.Player
	blink := g.Config.Ticks(g.Config.Economy.CrateBlink)
	reach := g.Config.Player.PickupRadius + crateRadius

	n := 0
	for _, c := range w.Crates {
		c.Life--
		c.Blinking = c.Life <= blink
		if c.Life <= 0 {
			w.emit(CrateExpired{CrateID: c.ID})
			continue
		}
		if !w.GameOver && p.Pos.Dist(c.Pos) <= reach && g.applyCrate(c.Kind) {
			w.emit(CratePicked{CrateID: c.ID, Crate: c.Kind})
			continue
		}
		w.Crates[n] = c
		n++
	}
	clear(w.Crates[n:])
	w.Crates = w.Crates[:n]
}

// applyCrate grants a crate's contents. A crate that would have no effect
// stays on the ground.
func (g *Game) applyCrate(kind CrateKind) bool {
	w := g.State
	p := w.Player
	ec := g.Config.Economy
	inv := p.Inventory

	switch kind {
	case CrateHealth:
		if p.HP >= p.MaxHP {
			return false
		}
		p.HP = min(p.MaxHP, p.HP+ec.HealthCrateAmount)
	case CrateGrenade:
		w.GrenadeAmmo += ec.GrenadeCrateAmount
	case CrateArmor:
		a := inv.Equipment.Armor
		if a == nil {
			inv.Equipment.Armor = &ItemStack{Def: "vest_light", Qty: 1, Durability: min(ec.ArmorCrateAmount, Items["vest_light"].Durability)}
			return true
		}
		maxDur := Items[a.Def].Durability
		if a.Durability >= maxDur {
			return false
		}
		a.Durability = min(maxDur, a.Durability+ec.ArmorCrateAmount)
	case CrateMedkit:
		return inv.Add("medkit", 1) == 0
	}
	return true
}

// updateCash ages cash pickups and collects those in reach.
func (g *Game) updateCash() {
	w := g.State
	p := w.Player
	reach := g.Config.Player.PickupRadius

	n := 0
	for _, c := range w.CashPickups {
		c.Life--
		if c.Life <= 0 {
			continue
		}
		if !w.GameOver && p.Pos.Dist(c.Pos) <= reach {
			w.Cash += c.Value
			w.emit(CashPicked{CashID: c.ID, Value: c.Value, Total: w.Cash})
			continue
		}
		w.CashPickups[n] = c
		n++
	}
	clear(w.CashPickups[n:])
	w.CashPickups = w.CashPickups[:n]
}

// checkExtraction ends an extraction run once the player has held position
// inside the exit zone long enough. Carried loot is banked as cash.
func (g *Game) checkExtraction() {
	w := g.State
	if w.Mode != ModeExtraction || w.GameOver || w.Map == nil {
		return
	}
	p := w.Player
	if p.Pos.Dist(w.Map.Exit) > w.Map.ExitRadius {
		p.Extracting = 0
		return
	}
	p.Extracting++
	if p.Extracting < g.Config.Ticks(g.Config.Extraction.HoldSeconds) {
		return
	}

	w.Cash += p.Inventory.Value()
	w.Extracted = true
	w.emit(Extracted{Score: w.Score, Cash: w.Cash})
	g.log.Info().Uint64("tick", w.Tick).Int("score", w.Score).Int("cash", w.Cash).Msg("Player extracted")
}
