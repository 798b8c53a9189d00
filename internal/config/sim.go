package config

import (
	"errors"
	"fmt"
	"math"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================
//
// SimConfig is bound to a game at creation and used unchanged for every tick.
// Durations are stored in seconds and converted with Ticks; speeds and
// accelerations are per second and scaled by Dt.
//
// A zero value in any field means "use the default". WithDefaults performs
// that fill explicitly so every default is listed once, in DefaultSim, and
// marks the result Resolved. A resolved config is never filled again, so a
// zero set on top of DefaultSim or read from a file (crate chance, bounce
// restitution, obstacle counts) stays zero through recording and replay.

// SimConfig holds every gameplay tunable.
type SimConfig struct {
	TickRate   int              `json:"tickRate"`
	Arena      ArenaConfig      `json:"arena"`
	Player     PlayerConfig     `json:"player"`
	Reload     TimingWindows    `json:"reload"`
	Heal       HealConfig       `json:"heal"`
	Grenade    GrenadeConfig    `json:"grenade"`
	Combat     CombatConfig     `json:"combat"`
	AI         AIConfig         `json:"ai"`
	Spawner    SpawnerConfig    `json:"spawner"`
	Economy    EconomyConfig    `json:"economy"`
	Loot       LootConfig       `json:"loot"`
	Extraction ExtractionConfig `json:"extraction"`

	// Resolved is set once defaults have been applied.
	Resolved bool `json:"resolved"`
}

// ArenaConfig describes the open survival map.
type ArenaConfig struct {
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Obstacles     int     `json:"obstacles"`     // Static cover pieces
	Destructibles int     `json:"destructibles"` // Breakable crates
	CenterClear   float64 `json:"centerClear"`   // Radius kept free around the player spawn
}

// PlayerConfig holds player movement and survivability values.
type PlayerConfig struct {
	Radius           float64 `json:"radius"`
	MaxHP            float64 `json:"maxHp"`
	Speed            float64 `json:"speed"`
	IFrameSeconds    float64 `json:"iFrameSeconds"`
	DodgeSeconds     float64 `json:"dodgeSeconds"`
	DodgeSpeedMult   float64 `json:"dodgeSpeedMult"`
	DodgeCooldown    float64 `json:"dodgeCooldown"`
	MovingSpreadMult float64 `json:"movingSpreadMult"`
	SwapSeconds      float64 `json:"swapSeconds"`
	PickupRadius     float64 `json:"pickupRadius"`
	InteractRadius   float64 `json:"interactRadius"`
	MuzzleOffset     float64 `json:"muzzleOffset"`
	HealingMoveMult  float64 `json:"healingMoveMult"`
	BackpackSlots    int     `json:"backpackSlots"`
}

// TimingWindows describes a timed action mini-game. Window bounds are
// fractions of the total action time; bonuses are multipliers.
type TimingWindows struct {
	ActiveStart  float64 `json:"activeStart"`
	ActiveEnd    float64 `json:"activeEnd"`
	PerfectStart float64 `json:"perfectStart"`
	PerfectEnd   float64 `json:"perfectEnd"`
	ActiveBonus  float64 `json:"activeBonus"`
	PerfectBonus float64 `json:"perfectBonus"`
}

// HealConfig binds the heal keys to item definitions.
type HealConfig struct {
	Windows   TimingWindows `json:"windows"`
	SmallItem string        `json:"smallItem"`
	LargeItem string        `json:"largeItem"`
}

// GrenadeConfig holds throw, flight and explosion values.
type GrenadeConfig struct {
	MinSpeed        float64 `json:"minSpeed"`
	MaxSpeed        float64 `json:"maxSpeed"`
	Gravity         float64 `json:"gravity"`
	Restitution     float64 `json:"restitution"`     // Ground bounce
	WallRestitution float64 `json:"wallRestitution"` // Walls and obstacles
	GroundFriction  float64 `json:"groundFriction"`  // Per second while resting
	RestSpeed       float64 `json:"restSpeed"`       // Below this vertical speed a bounce settles
	ObstacleHeight  float64 `json:"obstacleHeight"`  // Grenades above this fly over cover
	ThrowHeight     float64 `json:"throwHeight"`
	BodyRadius      float64 `json:"bodyRadius"`
	FuseSeconds     float64 `json:"fuseSeconds"`
	Radius          float64 `json:"radius"`
	Damage          float64 `json:"damage"`
	Knockback       float64 `json:"knockback"`
	SelfDamageMult  float64 `json:"selfDamageMult"`
	CooldownSeconds float64 `json:"cooldownSeconds"`
	StartingAmmo    int     `json:"startingAmmo"`
}

// CombatConfig holds hit resolution values shared by all weapons.
type CombatConfig struct {
	HeadshotKnockbackMult float64 `json:"headshotKnockbackMult"`
	KnockbackDecay        float64 `json:"knockbackDecay"` // Fraction lost per second
	ProjectileRadius      float64 `json:"projectileRadius"`
	MultiKillMin          int     `json:"multiKillMin"`
}

// AIConfig holds perception and movement multipliers for enemies.
type AIConfig struct {
	DetectionRange    float64 `json:"detectionRange"`
	VisionRange       float64 `json:"visionRange"`
	WanderMinSeconds  float64 `json:"wanderMinSeconds"`
	WanderMaxSeconds  float64 `json:"wanderMaxSeconds"`
	WanderSpeedMult   float64 `json:"wanderSpeedMult"`
	RetreatSpeedMult  float64 `json:"retreatSpeedMult"`
	SidestepSpeedMult float64 `json:"sidestepSpeedMult"`
	TelegraphLockFrac float64 `json:"telegraphLockFrac"` // Fraction of the telegraph spent tracking
}

// SpawnerConfig holds both the arena edge spawner and the extraction
// population limits.
type SpawnerConfig struct {
	FirstSpawnSeconds    float64 `json:"firstSpawnSeconds"`
	InitialInterval      float64 `json:"initialInterval"`
	Decay                float64 `json:"decay"`
	MinInterval          float64 `json:"minInterval"`
	MaxEnemies           int     `json:"maxEnemies"`
	SpawnsPerWave        int     `json:"spawnsPerWave"`
	EdgeMargin           float64 `json:"edgeMargin"`
	MaxAttempts          int     `json:"maxAttempts"`
	ExtractionMaxEnemies int     `json:"extractionMaxEnemies"`
	MinSpawnDistance     float64 `json:"minSpawnDistance"`
}

// EconomyConfig holds the arena drop tables.
type EconomyConfig struct {
	CrateChance          float64 `json:"crateChance"`
	MultiKillCrateChance float64 `json:"multiKillCrateChance"`
	MultiKillBoost       float64 `json:"multiKillBoost"` // Seconds of elevated crate chance
	CrateLifetime        float64 `json:"crateLifetime"`
	CrateBlink           float64 `json:"crateBlink"`
	CashChance           float64 `json:"cashChance"`
	CashMinPickups       int     `json:"cashMinPickups"`
	CashMaxPickups       int     `json:"cashMaxPickups"`
	CashValue            int     `json:"cashValue"`
	CashScatter          float64 `json:"cashScatter"`
	CashLifetime         float64 `json:"cashLifetime"`
	HealthCrateAmount    float64 `json:"healthCrateAmount"`
	ArmorCrateAmount     float64 `json:"armorCrateAmount"`
	GrenadeCrateAmount   int     `json:"grenadeCrateAmount"`
	HealthWeight         float64 `json:"healthWeight"`
	GrenadeWeight        float64 `json:"grenadeWeight"`
	ArmorWeight          float64 `json:"armorWeight"`
	MedkitWeight         float64 `json:"medkitWeight"`
}

// LootConfig holds container values for extraction mode.
type LootConfig struct {
	ContainerSlots int     `json:"containerSlots"`
	RevealSeconds  float64 `json:"revealSeconds"`
	ContainerSize  float64 `json:"containerSize"`
}

// ExtractionConfig describes the linear raid map.
type ExtractionConfig struct {
	Length           float64 `json:"length"`
	Width            float64 `json:"width"`
	Zones            int     `json:"zones"`
	ObstaclesPerZone int     `json:"obstaclesPerZone"`
	CachesPerZone    int     `json:"cachesPerZone"`
	CratesPerZone    int     `json:"cratesPerZone"`
	EnemiesPerZone   int     `json:"enemiesPerZone"`
	ZoneRadius       float64 `json:"zoneRadius"` // Extraction zone
	HoldSeconds      float64 `json:"holdSeconds"`
}

// DefaultSim returns the documented default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		Resolved: true,
		TickRate: 60,
		Arena: ArenaConfig{
			Width:         2000,
			Height:        1400,
			Obstacles:     10,
			Destructibles: 4,
			CenterClear:   220,
		},
		Player: PlayerConfig{
			Radius:           16,
			MaxHP:            100,
			Speed:            260,
			IFrameSeconds:    0.6,
			DodgeSeconds:     0.25,
			DodgeSpeedMult:   2.6,
			DodgeCooldown:    0.8,
			MovingSpreadMult: 1.6,
			SwapSeconds:      0.4,
			PickupRadius:     28,
			InteractRadius:   70,
			MuzzleOffset:     20,
			HealingMoveMult:  0.5,
			BackpackSlots:    20,
		},
		Reload: TimingWindows{
			ActiveStart:  0.45,
			ActiveEnd:    0.70,
			PerfectStart: 0.55,
			PerfectEnd:   0.62,
			ActiveBonus:  1.15,
			PerfectBonus: 1.35,
		},
		Heal: HealConfig{
			Windows: TimingWindows{
				ActiveStart:  0.45,
				ActiveEnd:    0.70,
				PerfectStart: 0.55,
				PerfectEnd:   0.62,
				ActiveBonus:  1.25,
				PerfectBonus: 1.5,
			},
			SmallItem: "bandage",
			LargeItem: "medkit",
		},
		Grenade: GrenadeConfig{
			MinSpeed:        250,
			MaxSpeed:        650,
			Gravity:         900,
			Restitution:     0.45,
			WallRestitution: 0.6,
			GroundFriction:  6,
			RestSpeed:       40,
			ObstacleHeight:  40,
			ThrowHeight:     20,
			BodyRadius:      5,
			FuseSeconds:     1.8,
			Radius:          140,
			Damage:          120,
			Knockback:       420,
			SelfDamageMult:  0.35,
			CooldownSeconds: 0.5,
			StartingAmmo:    3,
		},
		Combat: CombatConfig{
			HeadshotKnockbackMult: 1.6,
			KnockbackDecay:        8,
			ProjectileRadius:      3,
			MultiKillMin:          2,
		},
		AI: AIConfig{
			DetectionRange:    420,
			VisionRange:       650,
			WanderMinSeconds:  1,
			WanderMaxSeconds:  3,
			WanderSpeedMult:   0.45,
			RetreatSpeedMult:  0.6,
			SidestepSpeedMult: 0.7,
			TelegraphLockFrac: 2.0 / 3.0,
		},
		Spawner: SpawnerConfig{
			FirstSpawnSeconds:    1.5,
			InitialInterval:      3,
			Decay:                0.97,
			MinInterval:          0.6,
			MaxEnemies:           30,
			SpawnsPerWave:        8,
			EdgeMargin:           30,
			MaxAttempts:          12,
			ExtractionMaxEnemies: 40,
			MinSpawnDistance:     500,
		},
		Economy: EconomyConfig{
			CrateChance:          0.12,
			MultiKillCrateChance: 0.45,
			MultiKillBoost:       4,
			CrateLifetime:        15,
			CrateBlink:           4,
			CashChance:           0.6,
			CashMinPickups:       1,
			CashMaxPickups:       4,
			CashValue:            5,
			CashScatter:          28,
			CashLifetime:         20,
			HealthCrateAmount:    35,
			ArmorCrateAmount:     50,
			GrenadeCrateAmount:   2,
			HealthWeight:         4,
			GrenadeWeight:        3,
			ArmorWeight:          2,
			MedkitWeight:         1,
		},
		Loot: LootConfig{
			ContainerSlots: 6,
			RevealSeconds:  0.5,
			ContainerSize:  26,
		},
		Extraction: ExtractionConfig{
			Length:           3600,
			Width:            1200,
			Zones:            4,
			ObstaclesPerZone: 6,
			CachesPerZone:    2,
			CratesPerZone:    2,
			EnemiesPerZone:   6,
			ZoneRadius:       120,
			HoldSeconds:      3,
		},
	}
}

// WithDefaults returns a copy with every zero field replaced by its default.
// A Resolved config is returned unchanged.
func (c SimConfig) WithDefaults() SimConfig {
	if c.Resolved {
		return c
	}
	d := DefaultSim()
	c.Resolved = true

	orInt(&c.TickRate, d.TickRate)

	orFloat(&c.Arena.Width, d.Arena.Width)
	orFloat(&c.Arena.Height, d.Arena.Height)
	orInt(&c.Arena.Obstacles, d.Arena.Obstacles)
	orInt(&c.Arena.Destructibles, d.Arena.Destructibles)
	orFloat(&c.Arena.CenterClear, d.Arena.CenterClear)

	p, dp := &c.Player, d.Player
	orFloat(&p.Radius, dp.Radius)
	orFloat(&p.MaxHP, dp.MaxHP)
	orFloat(&p.Speed, dp.Speed)
	orFloat(&p.IFrameSeconds, dp.IFrameSeconds)
	orFloat(&p.DodgeSeconds, dp.DodgeSeconds)
	orFloat(&p.DodgeSpeedMult, dp.DodgeSpeedMult)
	orFloat(&p.DodgeCooldown, dp.DodgeCooldown)
	orFloat(&p.MovingSpreadMult, dp.MovingSpreadMult)
	orFloat(&p.SwapSeconds, dp.SwapSeconds)
	orFloat(&p.PickupRadius, dp.PickupRadius)
	orFloat(&p.InteractRadius, dp.InteractRadius)
	orFloat(&p.MuzzleOffset, dp.MuzzleOffset)
	orFloat(&p.HealingMoveMult, dp.HealingMoveMult)
	orInt(&p.BackpackSlots, dp.BackpackSlots)

	c.Reload = c.Reload.withDefaults(d.Reload)
	c.Heal.Windows = c.Heal.Windows.withDefaults(d.Heal.Windows)
	orString(&c.Heal.SmallItem, d.Heal.SmallItem)
	orString(&c.Heal.LargeItem, d.Heal.LargeItem)

	g, dg := &c.Grenade, d.Grenade
	orFloat(&g.MinSpeed, dg.MinSpeed)
	orFloat(&g.MaxSpeed, dg.MaxSpeed)
	orFloat(&g.Gravity, dg.Gravity)
	orFloat(&g.Restitution, dg.Restitution)
	orFloat(&g.WallRestitution, dg.WallRestitution)
	orFloat(&g.GroundFriction, dg.GroundFriction)
	orFloat(&g.RestSpeed, dg.RestSpeed)
	orFloat(&g.ObstacleHeight, dg.ObstacleHeight)
	orFloat(&g.ThrowHeight, dg.ThrowHeight)
	orFloat(&g.BodyRadius, dg.BodyRadius)
	orFloat(&g.FuseSeconds, dg.FuseSeconds)
	orFloat(&g.Radius, dg.Radius)
	orFloat(&g.Damage, dg.Damage)
	orFloat(&g.Knockback, dg.Knockback)
	orFloat(&g.SelfDamageMult, dg.SelfDamageMult)
	orFloat(&g.CooldownSeconds, dg.CooldownSeconds)
	orInt(&g.StartingAmmo, dg.StartingAmmo)

	orFloat(&c.Combat.HeadshotKnockbackMult, d.Combat.HeadshotKnockbackMult)
	orFloat(&c.Combat.KnockbackDecay, d.Combat.KnockbackDecay)
	orFloat(&c.Combat.ProjectileRadius, d.Combat.ProjectileRadius)
	orInt(&c.Combat.MultiKillMin, d.Combat.MultiKillMin)

	a, da := &c.AI, d.AI
	orFloat(&a.DetectionRange, da.DetectionRange)
	orFloat(&a.VisionRange, da.VisionRange)
	orFloat(&a.WanderMinSeconds, da.WanderMinSeconds)
	orFloat(&a.WanderMaxSeconds, da.WanderMaxSeconds)
	orFloat(&a.WanderSpeedMult, da.WanderSpeedMult)
	orFloat(&a.RetreatSpeedMult, da.RetreatSpeedMult)
	orFloat(&a.SidestepSpeedMult, da.SidestepSpeedMult)
	orFloat(&a.TelegraphLockFrac, da.TelegraphLockFrac)

	s, ds := &c.Spawner, d.Spawner
	orFloat(&s.FirstSpawnSeconds, ds.FirstSpawnSeconds)
	orFloat(&s.InitialInterval, ds.InitialInterval)
	orFloat(&s.Decay, ds.Decay)
	orFloat(&s.MinInterval, ds.MinInterval)
	orInt(&s.MaxEnemies, ds.MaxEnemies)
	orInt(&s.SpawnsPerWave, ds.SpawnsPerWave)
	orFloat(&s.EdgeMargin, ds.EdgeMargin)
	orInt(&s.MaxAttempts, ds.MaxAttempts)
	orInt(&s.ExtractionMaxEnemies, ds.ExtractionMaxEnemies)
	orFloat(&s.MinSpawnDistance, ds.MinSpawnDistance)

	e, de := &c.Economy, d.Economy
	orFloat(&e.CrateChance, de.CrateChance)
	orFloat(&e.MultiKillCrateChance, de.MultiKillCrateChance)
	orFloat(&e.MultiKillBoost, de.MultiKillBoost)
	orFloat(&e.CrateLifetime, de.CrateLifetime)
	orFloat(&e.CrateBlink, de.CrateBlink)
	orFloat(&e.CashChance, de.CashChance)
	orInt(&e.CashMinPickups, de.CashMinPickups)
	orInt(&e.CashMaxPickups, de.CashMaxPickups)
	orInt(&e.CashValue, de.CashValue)
	orFloat(&e.CashScatter, de.CashScatter)
	orFloat(&e.CashLifetime, de.CashLifetime)
	orFloat(&e.HealthCrateAmount, de.HealthCrateAmount)
	orFloat(&e.ArmorCrateAmount, de.ArmorCrateAmount)
	orInt(&e.GrenadeCrateAmount, de.GrenadeCrateAmount)
	orFloat(&e.HealthWeight, de.HealthWeight)
	orFloat(&e.GrenadeWeight, de.GrenadeWeight)
	orFloat(&e.ArmorWeight, de.ArmorWeight)
	orFloat(&e.MedkitWeight, de.MedkitWeight)

	orInt(&c.Loot.ContainerSlots, d.Loot.ContainerSlots)
	orFloat(&c.Loot.RevealSeconds, d.Loot.RevealSeconds)
	orFloat(&c.Loot.ContainerSize, d.Loot.ContainerSize)

	x, dx := &c.Extraction, d.Extraction
	orFloat(&x.Length, dx.Length)
	orFloat(&x.Width, dx.Width)
	orInt(&x.Zones, dx.Zones)
	orInt(&x.ObstaclesPerZone, dx.ObstaclesPerZone)
	orInt(&x.CachesPerZone, dx.CachesPerZone)
	orInt(&x.CratesPerZone, dx.CratesPerZone)
	orInt(&x.EnemiesPerZone, dx.EnemiesPerZone)
	orFloat(&x.ZoneRadius, dx.ZoneRadius)
	orFloat(&x.HoldSeconds, dx.HoldSeconds)

	return c
}

func (w TimingWindows) withDefaults(d TimingWindows) TimingWindows {
	orFloat(&w.ActiveStart, d.ActiveStart)
	orFloat(&w.ActiveEnd, d.ActiveEnd)
	orFloat(&w.PerfectStart, d.PerfectStart)
	orFloat(&w.PerfectEnd, d.PerfectEnd)
	orFloat(&w.ActiveBonus, d.ActiveBonus)
	orFloat(&w.PerfectBonus, d.PerfectBonus)
	return w
}

// Validate rejects zeros and inversions the simulation cannot run with.
// Tunables where zero switches a feature off are not checked.
func (c SimConfig) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	positive("tickRate", float64(c.TickRate))
	positive("arena.width", c.Arena.Width)
	positive("arena.height", c.Arena.Height)
	positive("player.radius", c.Player.Radius)
	positive("player.maxHp", c.Player.MaxHP)
	positive("player.backpackSlots", float64(c.Player.BackpackSlots))
	positive("grenade.fuseSeconds", c.Grenade.FuseSeconds)
	positive("spawner.initialInterval", c.Spawner.InitialInterval)
	positive("spawner.minInterval", c.Spawner.MinInterval)
	positive("extraction.length", c.Extraction.Length)
	positive("extraction.width", c.Extraction.Width)
	positive("extraction.zones", float64(c.Extraction.Zones))
	positive("loot.revealSeconds", c.Loot.RevealSeconds)
	if c.Grenade.MinSpeed > c.Grenade.MaxSpeed {
		errs = append(errs, fmt.Errorf("grenade.minSpeed %v above maxSpeed %v", c.Grenade.MinSpeed, c.Grenade.MaxSpeed))
	}
	if c.Economy.CashMinPickups > c.Economy.CashMaxPickups {
		errs = append(errs, fmt.Errorf("economy.cashMinPickups %d above cashMaxPickups %d", c.Economy.CashMinPickups, c.Economy.CashMaxPickups))
	}
	return errors.Join(errs...)
}

// Dt is the fixed tick duration in seconds.
func (c SimConfig) Dt() float64 {
	return 1.0 / float64(c.TickRate)
}

// Ticks converts a duration in seconds to a whole number of ticks.
func (c SimConfig) Ticks(seconds float64) int {
	return int(math.Round(seconds * float64(c.TickRate)))
}

func orFloat(v *float64, d float64) {
	if *v == 0 {
		*v = d
	}
}

func orInt(v *int, d int) {
	if *v == 0 {
		*v = d
	}
}

func orString(v *string, d string) {
	if *v == "" {
		*v = d
	}
}
