package game

import (
	"github.com/rs/zerolog"

	"breachline/internal/config"
	"breachline/internal/game/rng"
	"breachline/internal/game/spatial"
)

// navCellSize is the flow field resolution used by melee pursuers.
const navCellSize = 40.0

// Game binds a World to the RNG stream, config and static collision layer
// that advance it. A Game is not safe for concurrent use; hosts serialize
// access.
type Game struct {
	State  *World
	RNG    *rng.RNG
	Config config.SimConfig

	physics *spatial.StaticWorld
	nav     *spatial.FlowField
	log     zerolog.Logger
}

// Option configures a Game at creation or restore.
type Option func(*Game)

// WithLogger attaches a logger for lifecycle messages.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Game) { g.log = l }
}

// New creates a run. Map generation draws from the RNG in a fixed order:
// obstacles, loot caches, then enemy population.
func New(cfg config.SimConfig, seed int64, mode Mode, loadout Loadout, opts ...Option) *Game {
	cfg = cfg.WithDefaults()
	g := &Game{
		RNG:    rng.New(seed),
		Config: cfg,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	w := &World{
		Mode: mode,
		Seed: seed,
		Spawner: SpawnerState{
			Timer:    cfg.Ticks(cfg.Spawner.FirstSpawnSeconds),
			Interval: cfg.Spawner.InitialInterval,
			Wave:     1,
		},
		Stats: newRunStats(),
	}
	g.State = w

	p := &Player{
		Radius:    cfg.Player.Radius,
		HP:        cfg.Player.MaxHP,
		MaxHP:     cfg.Player.MaxHP,
		Aim:       spatial.V(0, -1),
		Inventory: buildInventory(loadout, cfg.Player.BackpackSlots),
	}
	w.Player = p

	w.GrenadeAmmo = loadout.Grenades
	if w.GrenadeAmmo == 0 {
		w.GrenadeAmmo = cfg.Grenade.StartingAmmo
	}

	switch mode {
	case ModeExtraction:
		m := buildExtractionMap(cfg)
		w.Map = m
		w.Bounds = Bounds{Width: cfg.Extraction.Width, Height: cfg.Extraction.Length}
		p.Pos = m.Spawn
		g.generateExtractionGeometry()
		g.RebuildPhysics()
		g.placeCaches()
		g.populateExtraction()
	default:
		w.Bounds = Bounds{Width: cfg.Arena.Width, Height: cfg.Arena.Height}
		p.Pos = spatial.V(cfg.Arena.Width/2, cfg.Arena.Height/2)
		g.generateArenaGeometry()
		g.RebuildPhysics()
	}

	// Creation events are not part of any tick.
	w.Events = nil

	g.log.Info().
		Int64("seed", seed).
		Str("mode", mode.String()).
		Int("obstacles", len(w.Obstacles)).
		Int("enemies", len(w.Enemies)).
		Msg("Game created")
	return g
}

// Physics exposes the static collision layer.
func (g *Game) Physics() spatial.Collider { return g.physics }

// RebuildPhysics replaces the collision layer from the current obstacles and
// destructibles. It never touches the RNG or entity ids.
func (g *Game) RebuildPhysics() {
	w := g.State
	shapes := make([]spatial.Shape, 0, len(w.Obstacles)+len(w.Destructibles))
	shapes = append(shapes, w.Obstacles...)
	for _, d := range w.Destructibles {
		shapes = append(shapes, d.Shape)
	}
	g.physics = spatial.NewStaticWorld(w.Bounds.Width, w.Bounds.Height, shapes)

	if g.nav == nil {
		g.nav = spatial.NewFlowField(w.Bounds.Width, w.Bounds.Height, navCellSize)
	}
	g.nav.MarkBlocked(g.physics, 12)

	g.log.Debug().Uint64("tick", w.Tick).Int("colliders", len(shapes)).Msg("Physics rebuilt")
}

// destructibleAt maps a physics shape index to a destructible crate index,
// or -1 for obstacles and boundary slabs.
func (g *Game) destructibleAt(shape int) int {
	i := shape - len(g.State.Obstacles)
	if i < 0 || i >= len(g.State.Destructibles) {
		return -1
	}
	return i
}

// lineClear reports whether nothing static lies between a and b.
func (g *Game) lineClear(a, b Vec2) bool {
	return !g.physics.SegmentBlocked(a, b)
}

// Tick advances the run by one fixed step. It is a no-op once the run has
// ended. The order below is part of the replay format: changing it changes
// outcomes for recorded inputs.
func (g *Game) Tick(in Input) {
	w := g.State
	if w.Terminal() {
		return
	}

	w.Events = nil
	w.Tick++

	g.applyInventory(in)
	g.updateMovement(in)
	g.updateHeal(in)
	g.updateReload(in)
	g.updateWeapons(in)
	g.updateGrenades(in)
	g.integrateProjectiles()
	g.resolveProjectileHits()
	g.detectMultiKill()
	g.updateEconomy(in)
	if w.Mode == ModeExtraction {
		g.updateVisibility()
	}
	g.updateAI()
	g.updateEnemyProjectiles()
	g.updateContact()
	g.updateSpawner()
	g.aggregateStats()
	g.checkExtraction()
}

// Clone returns an independent game at the same point of the run. The
// collision layer is rebuilt from the cloned geometry.
func (g *Game) Clone() *Game {
	c := &Game{
		State:  g.State.Clone(),
		RNG:    g.RNG.Clone(),
		Config: g.Config,
		log:    g.log,
	}
	c.RebuildPhysics()
	return c
}
