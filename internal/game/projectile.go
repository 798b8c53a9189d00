package game

import (
	"sort"

	"breachline/internal/game/spatial"
)

// integrateProjectiles moves every player projectile one tick along its
// velocity. Collision is resolved afterwards against the swept segment
// PrevPos -> Pos.
func (g *Game) integrateProjectiles() {
	dt := g.Config.Dt()
	for _, pr := range g.State.Projectiles {
		pr.PrevPos = pr.Pos
		pr.Pos = pr.Pos.Add(pr.Vel.Scale(dt))
		pr.Life--
	}
}

// projectileContact is an enemy crossed by a projectile segment.
type projectileContact struct {
	enemy *Enemy
	t     float64
}

// resolveProjectileHits tests each projectile's swept segment against
// enemies and static geometry. Enemies are hit in order along the segment
// and only when nearer than the first wall.
func (g *Game) resolveProjectileHits() {
	w := g.State
	physicsDirty := false
	var contacts []projectileContact

	for _, pr := range w.Projectiles {
		seg := pr.Pos.Sub(pr.PrevPos)
		segLen := seg.Len()
		if segLen == 0 {
			if pr.Life <= 0 {
				pr.Spent = true
			}
			continue
		}

		wallDist := segLen
		wall, hitWall := g.physics.RayCast(pr.PrevPos, seg, segLen)
		if hitWall {
			wallDist = wall.Distance
		}

		contacts = contacts[:0]
		reach := g.Config.Combat.ProjectileRadius
		for _, e := range w.Enemies {
			if e.HP <= 0 || pr.hasHit(e.ID) {
				continue
			}
			t, ok := spatial.SegmentCircle(pr.PrevPos, pr.Pos, e.Pos, e.Radius+reach)
			if ok && t*segLen <= wallDist {
				contacts = append(contacts, projectileContact{enemy: e, t: t})
			}
		}
		sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].t < contacts[j].t })

		for _, c := range contacts {
			if g.projectileHit(pr, c.enemy) {
				break
			}
		}

		if !pr.Spent && hitWall {
			pr.Spent = true
			pr.Pos = wall.Point
			if i := g.destructibleAt(wall.Index); i >= 0 {
				if g.damageDestructible(i, pr.Damage) {
					physicsDirty = true
				}
			}
		}
		if pr.Life <= 0 {
			pr.Spent = true
		}
	}

	n := 0
	for _, pr := range w.Projectiles {
		if !pr.Spent {
			w.Projectiles[n] = pr
			n++
		}
	}
	clear(w.Projectiles[n:])
	w.Projectiles = w.Projectiles[:n]

	w.removeDeadEnemies()
	g.removeDestroyed(physicsDirty)
}

func (pr *Projectile) hasHit(id uint64) bool {
	for _, h := range pr.Hits {
		if h == id {
			return true
		}
	}
	return false
}

// projectileHit applies one contact and reports whether the projectile is
// consumed. The first contact is a headshot only when the enemy is the
// target stamped at fire time; later contacts are headshots when the
// trajectory passes within the head radius. A projectile whose first
// contact is not a headshot stops there whatever its penetration.
func (g *Game) projectileHit(pr *Projectile, e *Enemy) bool {
	w := g.State
	d := e.Def()
	wd := GetWeapon(pr.Weapon)

	first := len(pr.Hits) == 0
	var headshot bool
	if first {
		headshot = pr.HeadshotTargetID != 0 && e.ID == pr.HeadshotTargetID
	} else {
		dist, _ := spatial.SegmentPointDist(pr.PrevPos, pr.Pos, e.Pos)
		headshot = dist <= d.HeadRadius
	}
	pr.Hits = append(pr.Hits, e.ID)

	dmg := enemyDamage(pr.Damage, headshot, wd, d)
	e.HP -= dmg

	kb := wd.Knockback
	if headshot {
		kb *= g.Config.Combat.HeadshotKnockbackMult
	}
	e.Knockback = e.Knockback.Add(pr.Vel.Norm().Scale(kb))

	w.emit(EnemyHit{
		EnemyID:   e.ID,
		EnemyType: e.Type,
		Source:    "bullet",
		SourceID:  pr.ID,
		Damage:    dmg,
		Headshot:  headshot,
		HPLeft:    max(e.HP, 0),
		Pos:       e.Pos,
	})
	if e.HP <= 0 {
		g.killEnemy(e, "bullet", pr.ID, headshot)
	}

	switch {
	case first && !headshot:
		pr.Spent = true
	case first:
		pr.Spent = pr.Penetration <= 0
	default:
		pr.Penetration--
		pr.Spent = pr.Penetration <= 0
	}
	return pr.Spent
}

// damageDestructible damages the crate at index i and reports whether it
// broke. Broken crates are removed by removeDestroyed.
func (g *Game) damageDestructible(i int, amount float64) bool {
	w := g.State
	d := w.Destructibles[i]
	if d.HP <= 0 {
		return false
	}
	d.HP = max(d.HP-amount, 0)
	w.emit(DestructibleHit{CrateID: d.ID, Damage: amount, HPLeft: d.HP})
	if d.HP > 0 {
		return false
	}
	w.emit(DestructibleDestroyed{CrateID: d.ID, Pos: d.Shape.Center, Loot: d.Loot})
	return true
}

// removeDestroyed filters broken crates and rebuilds the collision layer
// when any were removed.
func (g *Game) removeDestroyed(dirty bool) {
	if !dirty {
		return
	}
	w := g.State
	n := 0
	for _, d := range w.Destructibles {
		if d.HP > 0 {
			w.Destructibles[n] = d
			n++
		}
	}
	clear(w.Destructibles[n:])
	w.Destructibles = w.Destructibles[:n]
	g.RebuildPhysics()
}

// =============================================================================
// ENEMY PROJECTILES
// =============================================================================

// updateEnemyProjectiles integrates enemy shots and checks them against the
// player and static geometry. Dodging players are passed through.
func (g *Game) updateEnemyProjectiles() {
	w := g.State
	p := w.Player
	dt := g.Config.Dt()
	reach := g.Config.Combat.ProjectileRadius

	for _, ep := range w.EnemyProjectiles {
		ep.PrevPos = ep.Pos
		ep.Pos = ep.Pos.Add(ep.Vel.Scale(dt))
		ep.Life--

		seg := ep.Pos.Sub(ep.PrevPos)
		segLen := seg.Len()
		wall, hitWall := g.physics.RayCast(ep.PrevPos, seg, segLen)

		if !w.GameOver && !p.Dodging() {
			t, ok := spatial.SegmentCircle(ep.PrevPos, ep.Pos, p.Pos, p.Radius+reach)
			if ok && (!hitWall || t*segLen <= wall.Distance) {
				g.damagePlayer(ep.Damage, "projectile", ep.ID, ep.Aimed)
				ep.Spent = true
				continue
			}
		}
		if hitWall || ep.Life <= 0 {
			ep.Spent = true
		}
	}

	n := 0
	for _, ep := range w.EnemyProjectiles {
		if !ep.Spent {
			w.EnemyProjectiles[n] = ep
			n++
		}
	}
	clear(w.EnemyProjectiles[n:])
	w.EnemyProjectiles = w.EnemyProjectiles[:n]
}
