package game

import (
	"breachline/internal/game/spatial"
)

// updateMovement applies instantaneous movement or the locked dodge
// velocity, then clamps to bounds and resolves against static geometry.
func (g *Game) updateMovement(in Input) {
	w := g.State
	p := w.Player
	cfg := g.Config.Player

	if p.IFrames > 0 {
		p.IFrames--
	}
	if p.DodgeCooldown > 0 {
		p.DodgeCooldown--
	}
	if !in.Aim.IsZero() {
		p.Aim = in.Aim.Norm()
	}

	move := in.Move.ClampLen(1)

	if in.Dodge && p.Dodge == 0 && p.DodgeCooldown == 0 {
		dir := move.Norm()
		if dir.IsZero() {
			dir = p.Aim
		}
		if !dir.IsZero() {
			p.Dodge = max(g.Config.Ticks(cfg.DodgeSeconds), 1)
			p.DodgeDir = dir
			g.cancelReload("dodge")
			g.cancelHeal("dodge")
			w.emit(Dodge{Dir: dir})
		}
	}

	var vel Vec2
	if p.Dodge > 0 {
		vel = p.DodgeDir.Scale(cfg.Speed * cfg.DodgeSpeedMult)
		p.Dodge--
		if p.Dodge == 0 {
			p.DodgeCooldown = g.Config.Ticks(cfg.DodgeCooldown)
		}
	} else {
		speed := cfg.Speed
		if p.Heal.Active {
			speed *= cfg.HealingMoveMult
		}
		vel = move.Scale(speed)
	}
	p.Moving = !vel.IsZero()

	p.Pos = w.Bounds.Clamp(p.Pos.Add(vel.Scale(g.Config.Dt())), p.Radius)
	if push, ok := g.physics.PushOut(p.Pos, p.Radius); ok {
		p.Pos = p.Pos.Add(push)
	}
}

func (g *Game) cancelReload(reason string) {
	p := g.State.Player
	if !p.Reload.Active {
		return
	}
	p.Reload = TimedAction{}
	g.State.emit(ReloadCancel{Reason: reason})
}

func (g *Game) cancelHeal(reason string) {
	p := g.State.Player
	if !p.Heal.Active {
		return
	}
	p.Heal = TimedAction{}
	g.State.emit(HealCancel{Reason: reason})
}

// =============================================================================
// HEALING
// =============================================================================

// updateHeal starts a heal on a heal key, or grades a confirm when the same
// key is pressed again while that heal runs.
func (g *Game) updateHeal(in Input) {
	p := g.State.Player
	hc := g.Config.Heal

	if p.Heal.Active {
		confirm := (in.HealSmall && p.Heal.Item == hc.SmallItem) ||
			(in.HealLarge && p.Heal.Item == hc.LargeItem)
		if confirm {
			tier, done := confirmAction(&p.Heal, hc.Windows)
			if tier != TierNone {
				g.State.emit(HealTiming{Tier: tier, Progress: p.Heal.Progress()})
			}
			if done {
				g.completeHeal()
				return
			}
		}
		if stepAction(&p.Heal) {
			g.completeHeal()
		}
		return
	}

	switch {
	case in.HealSmall:
		g.startHeal(hc.SmallItem)
	case in.HealLarge:
		g.startHeal(hc.LargeItem)
	}
}

// startHeal begins applying a medical item from the backpack. It cancels a
// running reload.
func (g *Game) startHeal(item string) bool {
	w := g.State
	p := w.Player
	d, ok := Items[item]
	if !ok || d.Category != CategoryMedical || p.Heal.Active || p.Dodging() {
		return false
	}
	if p.HP >= p.MaxHP || p.Inventory.Count(item) == 0 {
		return false
	}

	g.cancelReload("heal")
	total := max(g.Config.Ticks(d.HealSeconds), 1)
	startAction(&p.Heal, total, item)
	w.emit(HealStart{Item: item, Ticks: total})
	return true
}

// completeHeal consumes the item and applies its heal scaled by the tier.
func (g *Game) completeHeal() {
	w := g.State
	p := w.Player
	h := p.Heal
	p.Heal = TimedAction{}

	if p.Inventory.Remove(h.Item, 1) == 0 {
		return
	}
	amount := Items[h.Item].Heal * tierBonus(h.Tier, g.Config.Heal.Windows)
	p.HP = clampf(p.HP+amount, 0, p.MaxHP)
	w.emit(HealComplete{Item: h.Item, Amount: amount, Tier: h.Tier, HP: p.HP})
}

// =============================================================================
// RELOAD
// =============================================================================

// updateReload treats the reload key as "start" when idle and "confirm"
// while a reload runs.
func (g *Game) updateReload(in Input) {
	p := g.State.Player

	if in.Reload {
		if !p.Reload.Active {
			g.startReload()
			return
		}
		tier, done := confirmAction(&p.Reload, g.Config.Reload)
		if tier != TierNone {
			g.State.emit(ReloadTiming{Tier: tier, Progress: p.Reload.Progress()})
		}
		if done {
			g.completeReload()
			return
		}
	}

	if stepAction(&p.Reload) {
		g.completeReload()
	}
}

// usesAmmoReserve reports whether reloads draw from backpack ammunition.
// Arena runs reload from an unlimited reserve.
func (g *Game) usesAmmoReserve() bool { return g.State.Mode == ModeExtraction }

// startReload needs a non-full magazine and, when reloads draw from the
// backpack, matching ammunition there. Healing and weapon swaps block it.
func (g *Game) startReload() bool {
	w := g.State
	p := w.Player
	s, def, ok := p.Weapon()
	if !ok || p.Reload.Active || p.Heal.Active || p.SwapTicks > 0 {
		return false
	}
	if s.Mag >= def.MagSize {
		return false
	}
	if g.usesAmmoReserve() && p.Inventory.CountAmmo(def.AmmoType) == 0 {
		return false
	}

	total := def.ReloadTicks(g.Config.TickRate)
	startAction(&p.Reload, total, def.ID)
	w.emit(ReloadStart{Weapon: def.ID, Ticks: total})
	return true
}

// completeReload fills the magazine from the backpack and arms the tier
// bonus for the next shot.
func (g *Game) completeReload() {
	w := g.State
	p := w.Player
	r := p.Reload
	p.Reload = TimedAction{}

	s, def, ok := p.Weapon()
	if !ok || def.ID != r.Item {
		return
	}
	if g.usesAmmoReserve() {
		s.Mag += p.Inventory.PullAmmo(def.AmmoType, def.MagSize-s.Mag)
	} else {
		s.Mag = def.MagSize
	}

	bonus := tierBonus(r.Tier, g.Config.Reload)
	p.ReloadBonus = 0
	if bonus > 1 {
		p.ReloadBonus = bonus
	}
	w.emit(ReloadComplete{Weapon: def.ID, Mag: s.Mag, Tier: r.Tier, Bonus: bonus})
}

// =============================================================================
// WEAPONS
// =============================================================================

// updateWeapons runs weapon swap, hotbar use and firing, in that order.
func (g *Game) updateWeapons(in Input) {
	p := g.State.Player
	if p.SwapTicks > 0 {
		p.SwapTicks--
	}
	if p.FireCooldown > 0 {
		p.FireCooldown--
	}

	if in.WeaponSlot == 1 || in.WeaponSlot == 2 {
		g.swapWeapon(in.WeaponSlot - 1)
	}
	if in.HotbarUse >= 1 && in.HotbarUse <= HotbarSlots {
		g.useHotbar(in.HotbarUse - 1)
	}
	g.fire(in)
}

// swapWeapon activates a weapon slot. It cancels reload and blocks firing
// for the swap time.
func (g *Game) swapWeapon(slot int) bool {
	w := g.State
	p := w.Player
	if slot == p.ActiveSlot || p.Inventory.Equipment.Weapons[slot] == nil {
		return false
	}
	g.cancelReload("swap")
	p.ActiveSlot = slot
	p.SwapTicks = g.Config.Ticks(g.Config.Player.SwapSeconds)
	w.emit(WeaponSwap{Slot: slot, Weapon: p.Inventory.Equipment.Weapons[slot].Def})
	return true
}

// useHotbar uses the item bound to a hotbar index. Bindings reference item
// definitions; the quantity comes from the backpack.
func (g *Game) useHotbar(idx int) {
	w := g.State
	p := w.Player
	inv := p.Inventory
	def := inv.Hotbar[idx]
	d, ok := Items[def]
	if !ok {
		return
	}

	used := false
	switch d.Category {
	case CategoryMedical:
		used = g.startHeal(def)
	case CategoryRepair:
		a := inv.Equipment.Armor
		if a == nil || inv.Count(def) == 0 {
			break
		}
		maxDur := Items[a.Def].Durability
		if a.Durability >= maxDur {
			break
		}
		inv.Remove(def, 1)
		a.Durability = min(maxDur, a.Durability+d.Durability)
		used = true
	case CategoryThrowable:
		if inv.Remove(def, 1) == 1 {
			w.GrenadeAmmo++
			used = true
		}
	case CategoryWeapon:
		for slot, s := range inv.Equipment.Weapons {
			if s != nil && s.Def == def {
				used = g.swapWeapon(slot)
				break
			}
		}
	case CategoryArmor, CategoryHelmet:
		slot := SlotArmor
		if d.Category == CategoryHelmet {
			slot = SlotHelmet
		}
		for i, s := range inv.Backpack {
			if s != nil && s.Def == def {
				used = inv.Equip(i, slot)
				break
			}
		}
	}

	if used {
		w.emit(HotbarUse{Index: idx, Item: def})
	}
}

// fire spawns the pellets of one shot. Automatic weapons fire while held;
// semi-automatic weapons need a fresh press.
func (g *Game) fire(in Input) {
	w := g.State
	p := w.Player
	s, def, ok := p.Weapon()
	if !ok {
		return
	}

	trigger := in.FireHeld
	if !def.Automatic {
		trigger = in.FirePressed
	}
	if !trigger || p.FireCooldown > 0 || p.SwapTicks > 0 || p.Heal.Active {
		return
	}

	if s.Mag <= 0 {
		if in.FirePressed {
			w.emit(DryFire{Weapon: def.ID})
		}
		if !p.Reload.Active {
			g.startReload()
		}
		return
	}
	g.cancelReload("fire")

	s.Mag--
	p.FireCooldown = def.CooldownTicks(g.Config.TickRate)

	bonus := 1.0
	if p.ReloadBonus > 0 {
		bonus = p.ReloadBonus
		p.ReloadBonus = 0
	}

	spread := def.Spread
	if p.Moving {
		spread *= g.Config.Player.MovingSpreadMult
	}

	aim := p.Aim
	muzzle := p.Pos.Add(aim.Scale(g.Config.Player.MuzzleOffset))
	pellets := max(def.Pellets, 1)
	life := def.LifetimeTicks(g.Config.TickRate)
	base := aim.Angle()

	for i := 0; i < pellets; i++ {
		dir := spatial.FromAngle(base + g.RNG.Range(-spread, spread))
		w.Projectiles = append(w.Projectiles, &Projectile{
			ID:               w.newID(),
			Weapon:           def.ID,
			Pos:              muzzle,
			PrevPos:          muzzle,
			Vel:              dir.Scale(def.ProjectileSpeed),
			Damage:           def.Damage * bonus,
			Life:             life,
			HeadshotTargetID: in.HeadshotTargetID,
			Penetration:      def.Penetration,
		})
	}

	w.emit(PlayerFired{
		Weapon:  def.ID,
		Pos:     muzzle,
		Dir:     aim,
		Pellets: pellets,
		Bonus:   bonus,
		Mag:     s.Mag,
	})
}
