package game

import "sort"

// EnemyDef holds the static stats of an enemy type.
type EnemyDef struct {
	Type            string
	HP              float64
	Speed           float64
	Radius          float64
	HeadRadius      float64
	ContactDamage   float64
	ContactCooldown float64 // Seconds between contact hits
	Score           int
	Loot            string // Loot table rolled on death in extraction

	Armored         bool
	ArmorReduction  float64
	Helmet          bool
	HelmetReduction float64

	// Ranged behaviour. EngageRange 0 means melee only.
	EngageRange      float64
	PreferredRange   float64 // Stand-off distance; closer than this the enemy backs off
	RetreatTrigger   float64 // Retreat early when the player gets this close
	RetreatDistance  float64 // Stop retreating once this far away
	AdvanceSeconds   float64
	RetreatSeconds   float64
	FireInterval     float64
	TelegraphSeconds float64
	ShotSpeed        float64
	ShotDamage       float64
	ShotRange        float64
	ShotSpread       float64

	// Spawn weighting.
	MinWave int
	Weight  float64
}

// Ranged reports whether the type fires projectiles.
func (d EnemyDef) Ranged() bool { return d.EngageRange > 0 }

// EnemyDefs is the roster of hostile types.
var EnemyDefs = map[string]EnemyDef{
	"grunt": {
		Type: "grunt", HP: 30, Speed: 120, Radius: 15, HeadRadius: 6,
		ContactDamage: 12, ContactCooldown: 0.8, Score: 10, Loot: "enemy_light",
		MinWave: 1, Weight: 6,
	},
	"runner": {
		Type: "runner", HP: 20, Speed: 190, Radius: 12, HeadRadius: 5,
		ContactDamage: 8, ContactCooldown: 0.6, Score: 15, Loot: "enemy_light",
		MinWave: 1, Weight: 3,
	},
	"gunner": {
		Type: "gunner", HP: 45, Speed: 110, Radius: 15, HeadRadius: 6,
		ContactDamage: 8, ContactCooldown: 1, Score: 25, Loot: "enemy_heavy",
		EngageRange: 420, RetreatTrigger: 180, RetreatDistance: 380,
		AdvanceSeconds: 3, RetreatSeconds: 1.5,
		FireInterval: 1.2, ShotSpeed: 620, ShotDamage: 9, ShotRange: 700, ShotSpread: 0.08,
		MinWave: 2, Weight: 3,
	},
	"brute": {
		Type: "brute", HP: 140, Speed: 80, Radius: 22, HeadRadius: 8,
		ContactDamage: 28, ContactCooldown: 1.2, Score: 40, Loot: "enemy_heavy",
		Armored: true, ArmorReduction: 0.35, Helmet: true, HelmetReduction: 0.3,
		MinWave: 3, Weight: 2,
	},
	"sniper": {
		Type: "sniper", HP: 35, Speed: 95, Radius: 14, HeadRadius: 6,
		ContactDamage: 6, ContactCooldown: 1, Score: 35, Loot: "enemy_heavy",
		EngageRange: 900, PreferredRange: 520, RetreatTrigger: 260, RetreatDistance: 700,
		AdvanceSeconds: 4, RetreatSeconds: 2,
		FireInterval: 2.5, TelegraphSeconds: 1.2, ShotSpeed: 1500, ShotDamage: 30, ShotRange: 1200,
		MinWave: 4, Weight: 1.5,
	},
}

// enemyOrder fixes iteration order for weighted picks.
var enemyOrder = func() []string {
	out := make([]string, 0, len(EnemyDefs))
	for k := range EnemyDefs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}()

// GetEnemyDef returns the definition for a type, falling back to grunt.
func GetEnemyDef(t string) EnemyDef {
	if d, ok := EnemyDefs[t]; ok {
		return d
	}
	return EnemyDefs["grunt"]
}

// enemyWeights returns spawn weights for the given wave, aligned with enemyOrder.
func enemyWeights(wave int) []float64 {
	w := make([]float64, len(enemyOrder))
	for i, t := range enemyOrder {
		d := EnemyDefs[t]
		if wave >= d.MinWave {
			w[i] = d.Weight
		}
	}
	return w
}
