package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"breachline/internal/config"
	"breachline/internal/game/rng"
	"breachline/internal/game/spatial"
)

// SnapshotVersion is the current snapshot layout.
//
//	1: initial layout
//	2: inventory, container slot arrays, per-tier reload stats
//	3: extraction map, enemy strafe side
const SnapshotVersion = 3

// Snapshot is the serializable document of a run at one tick.
type Snapshot struct {
	Version int    `json:"version"`
	World   *World `json:"world"`
}

var (
	ErrNoWorld       = errors.New("snapshot has no world")
	ErrFutureVersion = errors.New("snapshot version is newer than this build")
)

// Snapshot captures the world as an independent copy.
func (w *World) Snapshot() Snapshot {
	return Snapshot{Version: SnapshotVersion, World: w.Clone()}
}

// Snapshot captures the game's world. Pair it with RNG.State() to resume.
func (g *Game) Snapshot() Snapshot {
	return g.State.Snapshot()
}

// Hash is a stable digest of the world, excluding the per-tick events.
func (s Snapshot) Hash() string {
	if s.World == nil {
		return ""
	}
	w := *s.World
	w.Events = nil
	b, err := json.Marshal(&w)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Restore rebuilds a game from a snapshot and RNG state. Older snapshots are
// upgraded by filling fields they predate; a snapshot is only rejected when
// it cannot describe a run at all.
func Restore(snap Snapshot, rngState uint32, cfg config.SimConfig, opts ...Option) (*Game, error) {
	if snap.World == nil {
		return nil, ErrNoWorld
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: %d > %d", ErrFutureVersion, snap.Version, SnapshotVersion)
	}
	if snap.World.Mode != ModeArena && snap.World.Mode != ModeExtraction {
		return nil, fmt.Errorf("restore: unknown mode %d", snap.World.Mode)
	}

	cfg = cfg.WithDefaults()
	w := snap.World.Clone()
	upgradeWorld(w, max(snap.Version, 1), cfg)
	w.Events = nil

	g := &Game{
		State:  w,
		RNG:    rng.New(0),
		Config: cfg,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.RNG.SetState(rngState)
	g.RebuildPhysics()

	g.log.Info().
		Uint64("tick", w.Tick).
		Int("version", snap.Version).
		Str("mode", w.Mode.String()).
		Msg("Game restored")
	return g, nil
}

// upgradeWorld fills defaults for everything an older snapshot may lack.
func upgradeWorld(w *World, version int, cfg config.SimConfig) {
	if w.Player == nil {
		w.Player = &Player{}
	}
	p := w.Player

	if version < 2 {
		if p.Inventory == nil {
			p.Inventory = buildInventory(DefaultLoadout(w.Mode), cfg.Player.BackpackSlots)
		}
		for _, c := range w.Containers {
			if c.Slots == nil {
				c.Slots = make([]*ItemStack, cfg.Loot.ContainerSlots)
				c.Searched = true
			}
		}
	}
	if version < 3 {
		if w.Mode == ModeExtraction && w.Map == nil {
			w.Map = buildExtractionMap(cfg)
		}
		for _, e := range w.Enemies {
			if e.StrafeSign == 0 {
				e.StrafeSign = 1
			}
		}
	}

	// Fields every version must carry.
	if p.Inventory == nil {
		p.Inventory = NewInventory(cfg.Player.BackpackSlots)
	}
	p.Inventory.Resize(cfg.Player.BackpackSlots)
	if p.Radius == 0 {
		p.Radius = cfg.Player.Radius
	}
	if p.MaxHP == 0 {
		p.MaxHP = cfg.Player.MaxHP
	}
	if p.Aim.IsZero() {
		p.Aim = spatial.V(0, -1)
	}

	if w.Bounds.Width == 0 || w.Bounds.Height == 0 {
		if w.Mode == ModeExtraction {
			w.Bounds = Bounds{Width: cfg.Extraction.Width, Height: cfg.Extraction.Length}
		} else {
			w.Bounds = Bounds{Width: cfg.Arena.Width, Height: cfg.Arena.Height}
		}
	}
	if w.Spawner.Interval == 0 {
		w.Spawner.Interval = cfg.Spawner.InitialInterval
	}
	if w.Spawner.Wave == 0 {
		w.Spawner.Wave = 1
	}

	if w.Stats.KillsByType == nil {
		w.Stats.KillsByType = map[string]int{}
	}
	if w.Stats.Reloads == nil {
		w.Stats.Reloads = map[string]int{}
	}
	if w.Stats.HighestWave == 0 {
		w.Stats.HighestWave = w.Spawner.Wave
	}

	for _, e := range w.Enemies {
		d := e.Def()
		if e.Radius == 0 {
			e.Radius = d.Radius
		}
		if e.MaxHP == 0 {
			e.MaxHP = d.HP
		}
		if e.Speed == 0 {
			e.Speed = d.Speed
		}
	}

	w.NextID = max(w.NextID, w.maxEntityID())
}

// maxEntityID scans every collection for the highest id in use.
func (w *World) maxEntityID() uint64 {
	var top uint64
	see := func(id uint64) { top = max(top, id) }
	for _, e := range w.Enemies {
		see(e.ID)
	}
	for _, p := range w.Projectiles {
		see(p.ID)
	}
	for _, p := range w.EnemyProjectiles {
		see(p.ID)
	}
	for _, gr := range w.Grenades {
		see(gr.ID)
	}
	for _, c := range w.Crates {
		see(c.ID)
	}
	for _, c := range w.CashPickups {
		see(c.ID)
	}
	for _, d := range w.Destructibles {
		see(d.ID)
	}
	for _, c := range w.Containers {
		see(c.ID)
	}
	return top
}
