package game

import (
	"math"

	"breachline/internal/game/spatial"
)

// updateGrenades throws a grenade on request, then integrates every live
// grenade and detonates those whose fuse ran out.
func (g *Game) updateGrenades(in Input) {
	w := g.State
	p := w.Player
	if p.GrenadeCooldown > 0 {
		p.GrenadeCooldown--
	}
	if in.ThrowGrenade && w.GrenadeAmmo > 0 && p.GrenadeCooldown == 0 {
		g.throwGrenade(clampf(in.GrenadeCharge, 0, 1))
	}

	physicsDirty := false
	n := 0
	for _, gr := range w.Grenades {
		g.stepGrenade(gr)
		gr.Fuse--
		if gr.Fuse <= 0 {
			if g.explodeGrenade(gr) {
				physicsDirty = true
			}
			continue
		}
		w.Grenades[n] = gr
		n++
	}
	clear(w.Grenades[n:])
	w.Grenades = w.Grenades[:n]

	w.removeDeadEnemies()
	g.removeDestroyed(physicsDirty)
}

// throwGrenade launches along the aim at 45 degrees; charge interpolates
// between the minimum and maximum throw speed.
func (g *Game) throwGrenade(charge float64) {
	w := g.State
	p := w.Player
	gc := g.Config.Grenade

	speed := gc.MinSpeed + (gc.MaxSpeed-gc.MinSpeed)*charge
	comp := speed * math.Sqrt2 / 2

	gr := &Grenade{
		ID:   w.newID(),
		Pos:  p.Pos,
		Vel:  p.Aim.Scale(comp),
		Z:    gc.ThrowHeight,
		VZ:   comp,
		Fuse: max(g.Config.Ticks(gc.FuseSeconds), 1),
	}
	w.Grenades = append(w.Grenades, gr)
	w.GrenadeAmmo--
	p.GrenadeCooldown = g.Config.Ticks(gc.CooldownSeconds)
	w.emit(GrenadeThrown{GrenadeID: gr.ID, Pos: gr.Pos, Vel: gr.Vel, Charge: charge})
}

// stepGrenade integrates height under gravity with ground bounces, ground
// friction while resting, arena walls, and obstacles while low enough to
// strike them.
func (g *Game) stepGrenade(gr *Grenade) {
	w := g.State
	gc := g.Config.Grenade
	dt := g.Config.Dt()

	if !gr.Resting {
		gr.VZ -= gc.Gravity * dt
		gr.Z += gr.VZ * dt
		if gr.Z <= 0 {
			gr.Z = 0
			if bounce := -gr.VZ * gc.Restitution; bounce > gc.RestSpeed {
				gr.VZ = bounce
				w.emit(GrenadeBounce{GrenadeID: gr.ID, Pos: gr.Pos})
			} else {
				gr.VZ = 0
				gr.Resting = true
			}
		}
	}
	if gr.Resting {
		gr.Vel = gr.Vel.Scale(max(0, 1-gc.GroundFriction*dt))
	}

	r := gc.BodyRadius
	next := gr.Pos.Add(gr.Vel.Scale(dt))
	if next.X < r || next.X > w.Bounds.Width-r {
		gr.Vel.X = -gr.Vel.X * gc.WallRestitution
		next.X = clampf(next.X, r, w.Bounds.Width-r)
	}
	if next.Y < r || next.Y > w.Bounds.Height-r {
		gr.Vel.Y = -gr.Vel.Y * gc.WallRestitution
		next.Y = clampf(next.Y, r, w.Bounds.Height-r)
	}

	if gr.Z < gc.ObstacleHeight {
		if push, ok := g.physics.PushOut(next, r); ok {
			if n := push.Norm(); gr.Vel.Dot(n) < 0 {
				gr.Vel = gr.Vel.Reflect(n).Scale(gc.WallRestitution)
				w.emit(GrenadeBounce{GrenadeID: gr.ID, Pos: next})
			}
			next = next.Add(push)
		}
	}
	gr.Pos = next
}

// explodeGrenade applies falloff damage and knockback to enemies and
// destructibles in radius, and reduced self-damage to the player unless
// dodging or invulnerable. It reports whether a destructible broke.
func (g *Game) explodeGrenade(gr *Grenade) bool {
	w := g.State
	gc := g.Config.Grenade
	radius := gc.Radius

	kills := 0
	for _, e := range w.Enemies {
		if e.HP <= 0 {
			continue
		}
		dist := e.Pos.Dist(gr.Pos)
		if dist >= radius {
			continue
		}
		falloff := 1 - dist/radius
		d := e.Def()

		dmg := gc.Damage * falloff
		if d.Armored {
			dmg *= 1 - d.ArmorReduction
		}
		e.HP -= dmg

		dir := e.Pos.Sub(gr.Pos).Norm()
		if dir.IsZero() {
			dir = spatial.V(1, 0)
		}
		e.Knockback = e.Knockback.Add(dir.Scale(gc.Knockback * falloff))

		w.emit(EnemyHit{
			EnemyID:   e.ID,
			EnemyType: e.Type,
			Source:    "grenade",
			SourceID:  gr.ID,
			Damage:    dmg,
			HPLeft:    max(e.HP, 0),
			Pos:       e.Pos,
		})
		if e.HP <= 0 {
			g.killEnemy(e, "grenade", gr.ID, false)
			kills++
		}
	}

	broke := false
	for i, d := range w.Destructibles {
		dist := d.Shape.Center.Dist(gr.Pos)
		if dist >= radius {
			continue
		}
		if g.damageDestructible(i, gc.Damage*(1-dist/radius)) {
			broke = true
		}
	}

	p := w.Player
	if !p.Dodging() && p.IFrames == 0 {
		if dist := p.Pos.Dist(gr.Pos); dist < radius {
			g.damagePlayer(gc.Damage*(1-dist/radius)*gc.SelfDamageMult, "grenade", gr.ID, false)
		}
	}

	w.emit(GrenadeExploded{GrenadeID: gr.ID, Pos: gr.Pos, Kills: kills})
	return broke
}
