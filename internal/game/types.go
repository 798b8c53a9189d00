package game

import (
	"fmt"

	"breachline/internal/game/spatial"
)

// Vec2 is the simulation's vector type.
type Vec2 = spatial.Vec2

// Mode selects the rule set a run is played under.
type Mode uint8

const (
	ModeArena      Mode = iota // Open survival with wave spawns and drops
	ModeExtraction             // Linear raid with loot containers and an exit
)

func (m Mode) String() string {
	switch m {
	case ModeArena:
		return "arena"
	case ModeExtraction:
		return "extraction"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "arena", "":
		return ModeArena, nil
	case "extraction":
		return ModeExtraction, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Bounds is the playable rectangle [0,Width]x[0,Height].
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp keeps a circle of radius r inside the bounds.
func (b Bounds) Clamp(p Vec2, r float64) Vec2 {
	p.X = clampf(p.X, r, b.Width-r)
	p.Y = clampf(p.Y, r, b.Height-r)
	return p
}

// World is the single mutable aggregate of a run.
// Invariant: Events only ever holds events from the current tick.
type World struct {
	Tick   uint64 `json:"tick"`
	Mode   Mode   `json:"mode"`
	Seed   int64  `json:"seed"`
	NextID uint64 `json:"nextId"`

	Player *Player `json:"player"`

	Enemies          []*Enemy             `json:"enemies"`
	Projectiles      []*Projectile        `json:"projectiles"`
	EnemyProjectiles []*EnemyProjectile   `json:"enemyProjectiles"`
	Grenades         []*Grenade           `json:"grenades"`
	Crates           []*Crate             `json:"crates"`
	CashPickups      []*CashPickup        `json:"cashPickups"`
	Destructibles    []*DestructibleCrate `json:"destructibles"`
	Containers       []*LootContainer     `json:"containers"`

	Obstacles []spatial.Shape `json:"obstacles"`
	Bounds    Bounds          `json:"bounds"`

	Score       int  `json:"score"`
	Cash        int  `json:"cash"`
	GrenadeAmmo int  `json:"grenadeAmmo"`
	GameOver    bool `json:"gameOver"`
	Extracted   bool `json:"extracted"`

	Spawner         SpawnerState   `json:"spawner"`
	Stats           RunStats       `json:"stats"`
	Map             *ExtractionMap `json:"map,omitempty"`
	MultiKillBoost  int            `json:"multiKillBoost"`  // Ticks of elevated crate chance left
	ActiveContainer uint64         `json:"activeContainer"` // Container being searched, 0 for none

	Events []Event `json:"events,omitempty" msgpack:"-"`
}

// newID hands out the next entity id. Ids start at 1 and are never reused.
func (w *World) newID() uint64 {
	w.NextID++
	return w.NextID
}

// Terminal reports whether the run has ended.
func (w *World) Terminal() bool { return w.GameOver || w.Extracted }

func (w *World) emit(p EventPayload) {
	w.Events = append(w.Events, Event{Tick: w.Tick, Kind: p.Kind(), Payload: p})
}

// Player is the single controlled character.
type Player struct {
	Pos    Vec2    `json:"pos"`
	Radius float64 `json:"radius"`
	HP     float64 `json:"hp"`
	MaxHP  float64 `json:"maxHp"`
	Aim    Vec2    `json:"aim"`
	Moving bool    `json:"moving"`

	IFrames         int  `json:"iFrames"`
	FireCooldown    int  `json:"fireCooldown"`
	Dodge           int  `json:"dodge"` // Remaining dodge ticks
	DodgeDir        Vec2 `json:"dodgeDir"`
	DodgeCooldown   int  `json:"dodgeCooldown"`
	SwapTicks       int  `json:"swapTicks"`
	GrenadeCooldown int  `json:"grenadeCooldown"`

	Reload      TimedAction `json:"reload"`
	ReloadBonus float64     `json:"reloadBonus"` // Damage multiplier for the next shot, 0 when none
	Heal        TimedAction `json:"heal"`

	ActiveSlot int        `json:"activeSlot"` // 0 primary, 1 secondary
	Inventory  *Inventory `json:"inventory"`
	Extracting int        `json:"extracting"` // Ticks held inside the extraction zone
}

// Dodging reports whether a dodge is in progress.
func (p *Player) Dodging() bool { return p.Dodge > 0 }

// Weapon returns the active weapon stack and its definition.
func (p *Player) Weapon() (*ItemStack, WeaponDef, bool) {
	if p.Inventory == nil {
		return nil, WeaponDef{}, false
	}
	s := p.Inventory.Equipment.Weapons[p.ActiveSlot]
	if s == nil {
		return nil, WeaponDef{}, false
	}
	w, ok := Weapons[s.Def]
	return s, w, ok
}

// Tier is the outcome of a timed action confirm.
type Tier uint8

const (
	TierNone Tier = iota
	TierActive
	TierPerfect
	TierFumbled
)

func (t Tier) String() string {
	switch t {
	case TierActive:
		return "active"
	case TierPerfect:
		return "perfect"
	case TierFumbled:
		return "fumbled"
	default:
		return "none"
	}
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*t = TierActive
	case "perfect":
		*t = TierPerfect
	case "fumbled":
		*t = TierFumbled
	default:
		*t = TierNone
	}
	return nil
}

// TimedAction is the reload/heal mini-game state.
type TimedAction struct {
	Active  bool   `json:"active"`
	Elapsed int    `json:"elapsed"`
	Total   int    `json:"total"`
	Tier    Tier   `json:"tier"`
	Item    string `json:"item,omitempty"` // Heal item being applied
}

// Progress is the completed fraction in [0,1].
func (a TimedAction) Progress() float64 {
	if a.Total <= 0 {
		return 1
	}
	return float64(a.Elapsed) / float64(a.Total)
}

// AIState is an enemy's base behaviour.
type AIState uint8

const (
	AIWander AIState = iota
	AIChase
)

func (s AIState) String() string {
	if s == AIChase {
		return "chase"
	}
	return "wander"
}

func (s AIState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *AIState) UnmarshalText(b []byte) error {
	if string(b) == "chase" {
		*s = AIChase
	} else {
		*s = AIWander
	}
	return nil
}

// RangedPhase layers stand-off movement on top of chase for ranged types.
type RangedPhase uint8

const (
	PhaseAdvance RangedPhase = iota
	PhaseRetreat
)

func (p RangedPhase) String() string {
	if p == PhaseRetreat {
		return "retreat"
	}
	return "advance"
}

func (p RangedPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *RangedPhase) UnmarshalText(b []byte) error {
	if string(b) == "retreat" {
		*p = PhaseRetreat
	} else {
		*p = PhaseAdvance
	}
	return nil
}

// Enemy is one hostile. Static stats are copied from its EnemyDef at spawn.
type Enemy struct {
	ID        uint64  `json:"id"`
	Type      string  `json:"type"`
	Pos       Vec2    `json:"pos"`
	Radius    float64 `json:"radius"`
	HP        float64 `json:"hp"`
	MaxHP     float64 `json:"maxHp"`
	Speed     float64 `json:"speed"`
	Contact   float64 `json:"contact"`
	Score     int     `json:"score"`
	Knockback Vec2    `json:"knockback"`
	Visible   bool    `json:"visible"`
	Zone      int     `json:"zone"` // Extraction zone, -1 in arena

	State       AIState     `json:"state"`
	Phase       RangedPhase `json:"phase"`
	PhaseTimer  int         `json:"phaseTimer"`
	WanderTimer int         `json:"wanderTimer"`
	Heading     Vec2        `json:"heading"`
	StrafeSign  float64     `json:"strafeSign"`

	FireCooldown    int  `json:"fireCooldown"`
	ContactCooldown int  `json:"contactCooldown"`
	Telegraph       int  `json:"telegraph"` // Remaining telegraph ticks, 0 when idle
	TelegraphTotal  int  `json:"telegraphTotal"`
	AimDir          Vec2 `json:"aimDir"`
	AimLocked       bool `json:"aimLocked"`
}

// Def returns the enemy's static definition.
func (e *Enemy) Def() EnemyDef { return GetEnemyDef(e.Type) }

// Projectile is a player bullet or pellet.
type Projectile struct {
	ID               uint64   `json:"id"`
	Weapon           string   `json:"weapon"`
	Pos              Vec2     `json:"pos"`
	PrevPos          Vec2     `json:"prevPos"`
	Vel              Vec2     `json:"vel"`
	Damage           float64  `json:"damage"`
	Life             int      `json:"life"`
	HeadshotTargetID uint64   `json:"headshotTargetId"`
	Penetration      int      `json:"penetration"` // Additional enemies it may still damage
	Hits             []uint64 `json:"hits"`
	Spent            bool     `json:"spent"`
}

// EnemyProjectile is a shot fired by a ranged enemy.
type EnemyProjectile struct {
	ID      uint64  `json:"id"`
	OwnerID uint64  `json:"ownerId"`
	Pos     Vec2    `json:"pos"`
	PrevPos Vec2    `json:"prevPos"`
	Vel     Vec2    `json:"vel"`
	Damage  float64 `json:"damage"`
	Life    int     `json:"life"`
	Aimed   bool    `json:"aimed"` // Telegraphed shot, reduced by helmets
	Spent   bool    `json:"spent"`
}

// Grenade tracks horizontal motion plus height above ground.
type Grenade struct {
	ID      uint64  `json:"id"`
	Pos     Vec2    `json:"pos"`
	Vel     Vec2    `json:"vel"`
	Z       float64 `json:"z"`
	VZ      float64 `json:"vz"`
	Fuse    int     `json:"fuse"`
	Resting bool    `json:"resting"`
}

// CrateKind is the payload of an arena supply crate.
type CrateKind string

const (
	CrateHealth  CrateKind = "health"
	CrateGrenade CrateKind = "grenades"
	CrateArmor   CrateKind = "armor"
	CrateMedkit  CrateKind = "medkit"
)

// Crate is an arena pickup that expires.
type Crate struct {
	ID       uint64    `json:"id"`
	Kind     CrateKind `json:"kind"`
	Pos      Vec2      `json:"pos"`
	Life     int       `json:"life"`
	Blinking bool      `json:"blinking"`
}

// CashPickup is one scattered piece of cash.
type CashPickup struct {
	ID    uint64 `json:"id"`
	Pos   Vec2   `json:"pos"`
	Value int    `json:"value"`
	Life  int    `json:"life"`
}

// DestructibleCrate is breakable static geometry.
type DestructibleCrate struct {
	ID    uint64        `json:"id"`
	Shape spatial.Shape `json:"shape"`
	HP    float64       `json:"hp"`
	MaxHP float64       `json:"maxHp"`
	Loot  string        `json:"loot"` // Loot table rolled when destroyed in extraction
}

// LootContainer is a searchable container. Its slots are rolled once at
// creation and revealed progressively.
type LootContainer struct {
	ID             uint64       `json:"id"`
	Source         string       `json:"source"`
	Pos            Vec2         `json:"pos"`
	Slots          []*ItemStack `json:"slots"`
	SearchProgress int          `json:"searchProgress"` // Ticks of search so far
	Revealed       int          `json:"revealed"`       // Non-empty slots revealed, in slot order
	Searched       bool         `json:"searched"`
}

// Filled returns the number of non-empty slots.
func (c *LootContainer) Filled() int {
	n := 0
	for _, s := range c.Slots {
		if s != nil {
			n++
		}
	}
	return n
}

// RevealedSlots returns the indices of revealed non-empty slots.
func (c *LootContainer) RevealedSlots() []int {
	out := make([]int, 0, c.Revealed)
	for i, s := range c.Slots {
		if len(out) == c.Revealed {
			break
		}
		if s != nil {
			out = append(out, i)
		}
	}
	return out
}

// Empty reports whether every slot has been taken.
func (c *LootContainer) Empty() bool { return c.Filled() == 0 }

// SpawnerState is shared by both spawners.
type SpawnerState struct {
	Timer     int     `json:"timer"`    // Ticks until the next arena spawn
	Interval  float64 `json:"interval"` // Current interval in seconds
	Spawned   int     `json:"spawned"`
	Wave      int     `json:"wave"`
	Populated bool    `json:"populated"` // Extraction population done
}

// Zone is one band of the extraction map.
type Zone struct {
	Index int     `json:"index"`
	MinY  float64 `json:"minY"`
	MaxY  float64 `json:"maxY"`
}

// ExtractionMap is the fixed layout of an extraction run. It depends only on
// config, never on RNG.
type ExtractionMap struct {
	Spawn      Vec2    `json:"spawn"`
	Exit       Vec2    `json:"exit"`
	ExitRadius float64 `json:"exitRadius"`
	Zones      []Zone  `json:"zones"`
	SafeRadius float64 `json:"safeRadius"`
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
