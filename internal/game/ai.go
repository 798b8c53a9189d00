package game

import (
	"math"

	"breachline/internal/game/spatial"
)

// updateVisibility recomputes each enemy's line of sight to the player.
// Only extraction runs do this; arena enemies are always visible.
func (g *Game) updateVisibility() {
	w := g.State
	p := w.Player
	vision := g.Config.AI.VisionRange
	for _, e := range w.Enemies {
		e.Visible = e.Pos.Dist(p.Pos) <= vision && g.lineClear(e.Pos, p.Pos)
	}
}

// updateAI runs every enemy's state machine, then applies decaying
// knockback, bounds and push-out.
func (g *Game) updateAI() {
	w := g.State
	p := w.Player
	ai := g.Config.AI
	dt := g.Config.Dt()
	decay := max(0, 1-g.Config.Combat.KnockbackDecay*dt)

	for _, e := range w.Enemies {
		d := e.Def()
		toPlayer := p.Pos.Sub(e.Pos)
		dist := toPlayer.Len()
		dir := toPlayer.Norm()

		var vel Vec2
		if e.State == AIWander {
			if e.Visible && dist <= ai.DetectionRange && g.lineClear(e.Pos, p.Pos) {
				e.State = AIChase
				w.emit(EnemyState{EnemyID: e.ID, From: AIWander.String(), To: AIChase.String()})
			} else {
				vel = g.wander(e)
			}
		}
		if e.State == AIChase && !w.GameOver {
			if d.Ranged() {
				vel = g.rangedMove(e, d, dist, dir)
				if override, ok := g.rangedFire(e, d, dist, dir); ok {
					vel = override
				}
			} else {
				vel = g.meleeMove(e, dist, dir)
			}
		}

		e.Pos = e.Pos.Add(vel.Add(e.Knockback).Scale(dt))
		e.Knockback = e.Knockback.Scale(decay)
		if e.Knockback.LenSq() < 1 {
			e.Knockback = Vec2{}
		}
		e.Pos = w.Bounds.Clamp(e.Pos, e.Radius)
		if push, ok := g.physics.PushOut(e.Pos, e.Radius); ok {
			e.Pos = e.Pos.Add(push)
		}
	}
}

// wander re-rolls a random heading every WanderMin..WanderMax seconds.
func (g *Game) wander(e *Enemy) Vec2 {
	ai := g.Config.AI
	e.WanderTimer--
	if e.WanderTimer <= 0 {
		e.Heading = spatial.FromAngle(g.RNG.Range(0, 2*math.Pi))
		e.WanderTimer = g.RNG.Int(g.Config.Ticks(ai.WanderMinSeconds), g.Config.Ticks(ai.WanderMaxSeconds))
	}
	return e.Heading.Scale(e.Speed * ai.WanderSpeedMult)
}

// meleeMove pursues directly, or along the shared flow field when the
// direct line is blocked.
func (g *Game) meleeMove(e *Enemy, dist float64, dir Vec2) Vec2 {
	p := g.State.Player
	if dist <= e.Radius+p.Radius {
		return Vec2{}
	}
	if g.lineClear(e.Pos, p.Pos) {
		return dir.Scale(e.Speed)
	}

	if g.nav.Cell(p.Pos) != g.nav.Goal() {
		g.nav.Generate(p.Pos)
	}
	if flow := g.nav.Lookup(e.Pos); !flow.IsZero() {
		return flow.Scale(e.Speed)
	}
	return dir.Scale(e.Speed)
}

// rangedMove is the advance/retreat phase machine layered on chase.
// Enemies hold still while telegraphing.
func (g *Game) rangedMove(e *Enemy, d EnemyDef, dist float64, dir Vec2) Vec2 {
	if e.Telegraph > 0 {
		return Vec2{}
	}
	w := g.State
	backOff := dir.Neg().Scale(e.Speed * g.Config.AI.RetreatSpeedMult)

	switch e.Phase {
	case PhaseRetreat:
		e.PhaseTimer++
		if e.PhaseTimer >= g.Config.Ticks(d.RetreatSeconds) || dist >= d.RetreatDistance {
			e.Phase = PhaseAdvance
			e.PhaseTimer = 0
			e.StrafeSign = -e.StrafeSign
			w.emit(EnemyState{EnemyID: e.ID, From: PhaseRetreat.String(), To: PhaseAdvance.String()})
			return Vec2{}
		}
		return backOff

	default:
		if dist > d.EngageRange {
			return dir.Scale(e.Speed)
		}
		e.PhaseTimer++
		if e.PhaseTimer >= g.Config.Ticks(d.AdvanceSeconds) || dist < d.RetreatTrigger {
			e.Phase = PhaseRetreat
			e.PhaseTimer = 0
			w.emit(EnemyState{EnemyID: e.ID, From: PhaseAdvance.String(), To: PhaseRetreat.String()})
			return backOff
		}
		if dist < d.PreferredRange {
			return backOff
		}
		return Vec2{}
	}
}

// rangedFire fires whenever the enemy is in engage range, off cooldown and
// has line of sight, regardless of phase. Telegraphing types track the
// player for the first part of the delay and then lock. A blocked line
// makes the enemy sidestep; the returned velocity then replaces movement.
func (g *Game) rangedFire(e *Enemy, d EnemyDef, dist float64, dir Vec2) (Vec2, bool) {
	w := g.State
	if e.FireCooldown > 0 {
		e.FireCooldown--
	}

	if e.Telegraph > 0 {
		e.Telegraph--
		if !e.AimLocked {
			e.AimDir = dir
			lockAt := e.TelegraphTotal - int(math.Round(float64(e.TelegraphTotal)*g.Config.AI.TelegraphLockFrac))
			if e.Telegraph <= lockAt {
				e.AimLocked = true
				w.emit(EnemyTelegraph{EnemyID: e.ID, Pos: e.Pos, Dir: e.AimDir, Locked: true, Ticks: e.Telegraph})
			}
		}
		if e.Telegraph == 0 {
			g.enemyShoot(e, d, e.AimDir, true)
			e.AimLocked = false
			e.FireCooldown = g.Config.Ticks(d.FireInterval)
		}
		return Vec2{}, true
	}

	if dist > d.EngageRange || e.FireCooldown > 0 {
		return Vec2{}, false
	}
	if !g.lineClear(e.Pos, w.Player.Pos) {
		return dir.Perp().Scale(e.StrafeSign * e.Speed * g.Config.AI.SidestepSpeedMult), true
	}

	if d.TelegraphSeconds > 0 {
		total := max(g.Config.Ticks(d.TelegraphSeconds), 1)
		e.Telegraph = total
		e.TelegraphTotal = total
		e.AimDir = dir
		e.AimLocked = false
		w.emit(EnemyTelegraph{EnemyID: e.ID, Pos: e.Pos, Dir: dir, Ticks: total})
		return Vec2{}, true
	}

	g.enemyShoot(e, d, dir, false)
	e.FireCooldown = g.Config.Ticks(d.FireInterval)
	return Vec2{}, false
}

// enemyShoot launches one enemy projectile. Untelegraphed shots roll spread.
func (g *Game) enemyShoot(e *Enemy, d EnemyDef, dir Vec2, aimed bool) {
	w := g.State
	if !aimed {
		dir = dir.Rotate(g.RNG.Range(-d.ShotSpread, d.ShotSpread))
	}
	life := 1
	if d.ShotSpeed > 0 {
		life = max(int(math.Ceil(d.ShotRange/d.ShotSpeed*float64(g.Config.TickRate))), 1)
	}

	pos := e.Pos.Add(dir.Scale(e.Radius + 4))
	ep := &EnemyProjectile{
		ID:      w.newID(),
		OwnerID: e.ID,
		Pos:     pos,
		PrevPos: pos,
		Vel:     dir.Scale(d.ShotSpeed),
		Damage:  d.ShotDamage,
		Life:    life,
		Aimed:   aimed,
	}
	w.EnemyProjectiles = append(w.EnemyProjectiles, ep)
	w.emit(EnemyFired{EnemyID: e.ID, ProjectileID: ep.ID, Pos: pos, Dir: dir})
}

// updateContact applies melee contact damage on a per-enemy cooldown.
func (g *Game) updateContact() {
	w := g.State
	p := w.Player
	for _, e := range w.Enemies {
		if e.ContactCooldown > 0 {
			e.ContactCooldown--
			continue
		}
		if w.GameOver || p.Dodging() || e.Pos.Dist(p.Pos) > e.Radius+p.Radius {
			continue
		}
		if g.damagePlayer(e.Contact, "contact", e.ID, false) {
			e.ContactCooldown = g.Config.Ticks(e.Def().ContactCooldown)
		}
	}
}
