package game

import (
	"breachline/internal/game/spatial"
)

// spawnEnemy creates an enemy of type typ at pos. Zone is -1 in arena runs.
func (g *Game) spawnEnemy(typ string, pos Vec2, zone int) *Enemy {
	w := g.State
	d := GetEnemyDef(typ)
	sign := 1.0
	if g.RNG.Chance(0.5) {
		sign = -1
	}
	e := &Enemy{
		ID:           w.newID(),
		Type:         d.Type,
		Pos:          pos,
		Radius:       d.Radius,
		HP:           d.HP,
		MaxHP:        d.HP,
		Speed:        d.Speed,
		Contact:      d.ContactDamage,
		Score:        d.Score,
		Visible:      w.Mode == ModeArena,
		Zone:         zone,
		StrafeSign:   sign,
		FireCooldown: g.Config.Ticks(d.FireInterval),
	}
	w.Enemies = append(w.Enemies, e)
	w.emit(EnemySpawned{EnemyID: e.ID, EnemyType: e.Type, Pos: pos})
	return e
}

// updateSpawner runs the arena edge spawner: each spawn shortens the next
// interval down to a floor, and nothing spawns at the concurrency cap.
func (g *Game) updateSpawner() {
	w := g.State
	if w.Mode != ModeArena || w.GameOver {
		return
	}
	sc := g.Config.Spawner
	s := &w.Spawner

	s.Timer--
	if s.Timer > 0 {
		return
	}
	if len(w.Enemies) < sc.MaxEnemies && g.spawnAtEdge() {
		s.Interval = max(sc.MinInterval, s.Interval*sc.Decay)
	}
	s.Timer = max(g.Config.Ticks(s.Interval), 1)
}

// spawnAtEdge picks a type by wave weight and tries a bounded number of
// edge positions clear of geometry and the player. Running out of attempts
// is a silent no-op.
func (g *Game) spawnAtEdge() bool {
	w := g.State
	sc := g.Config.Spawner
	s := &w.Spawner

	idx := g.RNG.Pick(enemyWeights(s.Wave))
	if idx < 0 {
		return false
	}
	d := EnemyDefs[enemyOrder[idx]]
	m := sc.EdgeMargin + d.Radius
	width, height := w.Bounds.Width, w.Bounds.Height

	for attempt := 0; attempt < sc.MaxAttempts; attempt++ {
		edge := g.RNG.Int(0, 3)
		t := g.RNG.Next()
		var pos Vec2
		switch edge {
		case 0:
			pos = spatial.V(m+t*(width-2*m), m)
		case 1:
			pos = spatial.V(m+t*(width-2*m), height-m)
		case 2:
			pos = spatial.V(m, m+t*(height-2*m))
		default:
			pos = spatial.V(width-m, m+t*(height-2*m))
		}
		if g.physics.Overlaps(pos, d.Radius) || pos.Dist(w.Player.Pos) < g.Config.Arena.CenterClear {
			continue
		}

		g.spawnEnemy(d.Type, pos, -1)
		s.Spawned++
		if wave := 1 + s.Spawned/max(sc.SpawnsPerWave, 1); wave > s.Wave {
			s.Wave = wave
			w.emit(WaveAdvanced{Wave: wave})
		}
		return true
	}
	return false
}

// populateExtraction places every zone's enemies once at run start. Deeper
// zones use heavier type weights. Positions keep their distance from the
// player spawn and stay clear of geometry.
func (g *Game) populateExtraction() {
	w := g.State
	sc := g.Config.Spawner
	ec := g.Config.Extraction
	m := w.Map

	for _, z := range m.Zones {
		weights := enemyWeights(z.Index + 1)
		for i := 0; i < ec.EnemiesPerZone; i++ {
			if len(w.Enemies) >= sc.ExtractionMaxEnemies {
				break
			}
			idx := g.RNG.Pick(weights)
			if idx < 0 {
				break
			}
			d := EnemyDefs[enemyOrder[idx]]
			margin := d.Radius + sc.EdgeMargin

			for attempt := 0; attempt < sc.MaxAttempts; attempt++ {
				pos := spatial.V(
					g.RNG.Range(margin, w.Bounds.Width-margin),
					g.RNG.Range(z.MinY+margin, z.MaxY-margin),
				)
				if pos.Dist(m.Spawn) < sc.MinSpawnDistance || g.physics.Overlaps(pos, d.Radius) {
					continue
				}
				g.spawnEnemy(d.Type, pos, z.Index)
				w.Spawner.Spawned++
				break
			}
		}
	}
	w.Spawner.Populated = true
}
