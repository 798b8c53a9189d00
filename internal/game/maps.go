package game

import (
	"math"

	"breachline/internal/config"
	"breachline/internal/game/spatial"
)

const (
	destructibleHalf = 22.0
	destructibleHP   = 60.0
	mapEdgeMargin    = 100.0
)

// randomObstacle rolls one piece of cover: an axis-aligned box, a rotated
// box or a pillar. RNG order: kind, center x, center y, then size.
func (g *Game) randomObstacle(minX, minY, maxX, maxY float64) spatial.Shape {
	r := g.RNG
	kind := r.Int(0, 2)
	c := spatial.V(r.Range(minX, maxX), r.Range(minY, maxY))
	switch kind {
	case 0:
		hw, hh := r.Range(20, 70), r.Range(20, 70)
		return spatial.Box(c.X-hw, c.Y-hh, c.X+hw, c.Y+hh)
	case 1:
		half := spatial.V(r.Range(25, 80), r.Range(12, 30))
		return spatial.Rotated(c, half, r.Range(0, math.Pi))
	default:
		return spatial.Disc(c, r.Range(20, 45))
	}
}

// shapeReach is the radius of a shape's bounding circle.
func shapeReach(s spatial.Shape) float64 {
	min, max := s.Bounds()
	return max.Sub(min).Len() / 2
}

// placeGeometry rolls up to n obstacles inside the given rectangle, keeping
// each at least gap away from the listed points. Attempts are bounded per piece.
func (g *Game) placeGeometry(n int, minX, minY, maxX, maxY float64, keep []Vec2, gap float64) []spatial.Shape {
	out := make([]spatial.Shape, 0, n)
	attempts := g.Config.Spawner.MaxAttempts
	for i := 0; i < n; i++ {
		for a := 0; a < attempts; a++ {
			s := g.randomObstacle(minX, minY, maxX, maxY)
			if tooClose(s.Center, shapeReach(s), keep, gap) {
				continue
			}
			out = append(out, s)
			break
		}
	}
	return out
}

// placeDestructibles rolls n breakable crates inside the rectangle.
func (g *Game) placeDestructibles(n int, minX, minY, maxX, maxY float64, keep []Vec2, gap float64, loot string) {
	w := g.State
	attempts := g.Config.Spawner.MaxAttempts
	for i := 0; i < n; i++ {
		for a := 0; a < attempts; a++ {
			c := spatial.V(g.RNG.Range(minX, maxX), g.RNG.Range(minY, maxY))
			if tooClose(c, destructibleHalf*math.Sqrt2, keep, gap) || g.overlapsGeometry(c, destructibleHalf*math.Sqrt2) {
				continue
			}
			w.Destructibles = append(w.Destructibles, &DestructibleCrate{
				ID:    w.newID(),
				Shape: spatial.Box(c.X-destructibleHalf, c.Y-destructibleHalf, c.X+destructibleHalf, c.Y+destructibleHalf),
				HP:    destructibleHP,
				MaxHP: destructibleHP,
				Loot:  loot,
			})
			break
		}
	}
}

func tooClose(c Vec2, reach float64, keep []Vec2, gap float64) bool {
	for _, k := range keep {
		if c.Dist(k) < reach+gap {
			return true
		}
	}
	return false
}

// overlapsGeometry is a placement test against obstacles rolled so far,
// before the collision layer exists.
func (g *Game) overlapsGeometry(c Vec2, r float64) bool {
	for _, s := range g.State.Obstacles {
		if _, hit := s.PushCircle(c, r); hit {
			return true
		}
	}
	return false
}

// generateArenaGeometry scatters cover and crates, keeping the centre spawn
// clear.
func (g *Game) generateArenaGeometry() {
	w := g.State
	ac := g.Config.Arena
	keep := []Vec2{w.Player.Pos}
	w.Obstacles = g.placeGeometry(ac.Obstacles,
		mapEdgeMargin, mapEdgeMargin, ac.Width-mapEdgeMargin, ac.Height-mapEdgeMargin,
		keep, ac.CenterClear)
	g.placeDestructibles(ac.Destructibles,
		mapEdgeMargin, mapEdgeMargin, ac.Width-mapEdgeMargin, ac.Height-mapEdgeMargin,
		keep, ac.CenterClear, "crate_common")
}

// buildExtractionMap lays out the raid: spawn at the south end, exit at the
// north end, and equal-height zones numbered from the spawn outward. It
// depends only on config.
func buildExtractionMap(cfg config.SimConfig) *ExtractionMap {
	ec := cfg.Extraction
	zones := max(ec.Zones, 1)
	band := ec.Length / float64(zones)

	m := &ExtractionMap{
		Spawn:      spatial.V(ec.Width/2, ec.Length-mapEdgeMargin),
		Exit:       spatial.V(ec.Width/2, mapEdgeMargin),
		ExitRadius: ec.ZoneRadius,
		SafeRadius: cfg.Spawner.MinSpawnDistance,
		Zones:      make([]Zone, zones),
	}
	for i := range m.Zones {
		m.Zones[i] = Zone{
			Index: i,
			MinY:  ec.Length - float64(i+1)*band,
			MaxY:  ec.Length - float64(i)*band,
		}
	}
	return m
}

// generateExtractionGeometry rolls cover and crates zone by zone, keeping
// the spawn and the exit clear.
func (g *Game) generateExtractionGeometry() {
	w := g.State
	ec := g.Config.Extraction
	m := w.Map
	keep := []Vec2{m.Spawn, m.Exit}
	gap := g.Config.Arena.CenterClear

	for _, z := range m.Zones {
		w.Obstacles = append(w.Obstacles, g.placeGeometry(ec.ObstaclesPerZone,
			mapEdgeMargin, z.MinY+40, ec.Width-mapEdgeMargin, z.MaxY-40, keep, gap)...)
	}
	for _, z := range m.Zones {
		g.placeDestructibles(ec.CratesPerZone,
			mapEdgeMargin, z.MinY+40, ec.Width-mapEdgeMargin, z.MaxY-40, keep, gap, "crate_common")
	}
}

// placeCaches drops the static loot caches of every zone.
func (g *Game) placeCaches() {
	w := g.State
	ec := g.Config.Extraction
	size := g.Config.Loot.ContainerSize
	attempts := g.Config.Spawner.MaxAttempts

	for _, z := range w.Map.Zones {
		for i := 0; i < ec.CachesPerZone; i++ {
			for a := 0; a < attempts; a++ {
				pos := spatial.V(
					g.RNG.Range(mapEdgeMargin, ec.Width-mapEdgeMargin),
					g.RNG.Range(z.MinY+40, z.MaxY-40),
				)
				if g.physics.Overlaps(pos, size) {
					continue
				}
				g.spawnContainer("cache", pos)
				break
			}
		}
	}
}
