package game

import (
	"breachline/internal/config"
)

// Timed actions (reload and heal) share one mini-game. Progress runs from 0
// to 1 over Total ticks; a confirm inside the active or perfect window ends
// the action at once with that tier's bonus, a confirm outside both fumbles
// the cycle and the action then runs to 100% with no bonus.
// All timers use tick-based counting for deterministic replay.

// startAction resets a timed action to the beginning.
func startAction(a *TimedAction, total int, item string) {
	*a = TimedAction{Active: true, Total: max(total, 1), Item: item}
}

// confirmAction grades a confirm press against the windows. It returns the
// tier and whether the action completes now. Fumbled or graded cycles
// ignore further presses.
func confirmAction(a *TimedAction, win config.TimingWindows) (Tier, bool) {
	if !a.Active || a.Tier != TierNone {
		return TierNone, false
	}
	p := a.Progress()
	switch {
	case p >= win.PerfectStart && p <= win.PerfectEnd:
		a.Tier = TierPerfect
		return TierPerfect, true
	case p >= win.ActiveStart && p <= win.ActiveEnd:
		a.Tier = TierActive
		return TierActive, true
	default:
		a.Tier = TierFumbled
		return TierFumbled, false
	}
}

// stepAction advances one tick and reports whether the action reached 100%.
func stepAction(a *TimedAction) bool {
	if !a.Active {
		return false
	}
	a.Elapsed++
	return a.Elapsed >= a.Total
}

// tierBonus maps a tier to its multiplier; no bonus is 1.
func tierBonus(t Tier, win config.TimingWindows) float64 {
	switch t {
	case TierPerfect:
		return win.PerfectBonus
	case TierActive:
		return win.ActiveBonus
	default:
		return 1
	}
}

// enemyDamage applies headshot scaling and armor or helmet reduction.
func enemyDamage(base float64, headshot bool, w WeaponDef, d EnemyDef) float64 {
	dmg := base
	if headshot {
		dmg *= w.HeadshotMult
		if d.Helmet {
			dmg *= 1 - d.HelmetReduction
		}
	} else if d.Armored {
		dmg *= 1 - d.ArmorReduction
	}
	return dmg
}

// damagePlayer applies damage after i-frames, armor and (for aimed shots)
// helmet. It returns whether damage was applied, which starts i-frames.
// Taking damage cancels dodge and heal.
func (g *Game) damagePlayer(amount float64, source string, sourceID uint64, aimed bool) bool {
	w := g.State
	p := w.Player
	if w.GameOver || p.IFrames > 0 || amount <= 0 {
		return false
	}

	inv := p.Inventory
	if aimed && inv != nil && inv.Equipment.Helmet != nil && inv.Equipment.Helmet.Durability > 0 {
		h := inv.Equipment.Helmet
		cut := min(amount*Items[h.Def].Reduction, h.Durability)
		h.Durability -= cut
		amount -= cut
	}

	absorbed := 0.0
	if inv != nil && inv.Equipment.Armor != nil && inv.Equipment.Armor.Durability > 0 {
		a := inv.Equipment.Armor
		absorbed = min(amount*Items[a.Def].Reduction, a.Durability)
		a.Durability -= absorbed
	}

	taken := amount - absorbed
	p.HP = clampf(p.HP-taken, 0, p.MaxHP)
	p.IFrames = g.Config.Ticks(g.Config.Player.IFrameSeconds)

	if p.Dodge > 0 {
		p.Dodge = 0
		p.DodgeCooldown = g.Config.Ticks(g.Config.Player.DodgeCooldown)
	}
	if p.Heal.Active {
		p.Heal = TimedAction{}
		w.emit(HealCancel{Reason: "damage"})
	}

	w.emit(PlayerHit{Source: source, SourceID: sourceID, Damage: taken, Absorbed: absorbed, HPLeft: p.HP})

	if p.HP <= 0 {
		w.GameOver = true
		w.emit(PlayerDied{Pos: p.Pos})
		w.emit(GameOver{Score: w.Score, Cash: w.Cash})
		g.log.Info().Uint64("tick", w.Tick).Int("score", w.Score).Msg("Player died")
	}
	return true
}

// killEnemy credits a kill. The caller removes dead enemies by filtering.
func (g *Game) killEnemy(e *Enemy, source string, sourceID uint64, headshot bool) {
	w := g.State
	w.Score += e.Score
	w.emit(EnemyKilled{
		EnemyID:   e.ID,
		EnemyType: e.Type,
		Source:    source,
		SourceID:  sourceID,
		Headshot:  headshot,
		Score:     e.Score,
		Pos:       e.Pos,
	})
}

// removeDeadEnemies filters enemies with no hp left.
func (w *World) removeDeadEnemies() {
	n := 0
	for _, e := range w.Enemies {
		if e.HP > 0 {
			w.Enemies[n] = e
			n++
		}
	}
	clear(w.Enemies[n:])
	w.Enemies = w.Enemies[:n]
}

// detectMultiKill takes the largest number of kills credited to a single
// projectile or a single grenade this tick. Kills from different sources
// are not summed.
func (g *Game) detectMultiKill() {
	w := g.State
	type key struct {
		source string
		id     uint64
	}
	counts := map[key]int{}
	best := 0
	for _, ev := range w.Events {
		k, ok := ev.Payload.(EnemyKilled)
		if !ok {
			continue
		}
		c := counts[key{k.Source, k.SourceID}] + 1
		counts[key{k.Source, k.SourceID}] = c
		best = max(best, c)
	}
	if best >= g.Config.Combat.MultiKillMin {
		w.emit(MultiKill{Count: best})
		// Only arena drops read the boost.
		if w.Mode == ModeArena {
			w.MultiKillBoost = g.Config.Ticks(g.Config.Economy.MultiKillBoost)
		}
	}
}
