package game

import (
	"math"
	"sort"
)

// WeaponDef represents a firearm configuration
type WeaponDef struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Damage          float64 `json:"damage"`   // Per pellet
	FireRate        float64 `json:"fireRate"` // Shots per second
	Automatic       bool    `json:"automatic"`
	MagSize         int     `json:"magSize"`
	ReloadSeconds   float64 `json:"reloadSeconds"`
	Spread          float64 `json:"spread"` // Half-angle in radians
	Pellets         int     `json:"pellets"`
	ProjectileSpeed float64 `json:"projectileSpeed"`
	Range           float64 `json:"range"`
	Penetration     int     `json:"penetration"` // Extra enemies after a headshot first hit
	HeadshotMult    float64 `json:"headshotMult"`
	Knockback       float64 `json:"knockback"`
	AmmoType        string  `json:"ammoType"`
}

// Weapons is the map of all available firearms. Each also has an item
// definition of the same id.
var Weapons = map[string]WeaponDef{
	"pistol": {
		ID:              "pistol",
		Name:            "M9 Pistol",
		Damage:          22,
		FireRate:        6,
		Automatic:       false,
		MagSize:         12,
		ReloadSeconds:   1.1,
		Spread:          0.03,
		Pellets:         1,
		ProjectileSpeed: 1400,
		Range:           900,
		Penetration:     0,
		HeadshotMult:    2.0,
		Knockback:       90,
		AmmoType:        "9mm",
	},
	"smg": {
		ID:              "smg",
		Name:            "Vector SMG",
		Damage:          14,
		FireRate:        14,
		Automatic:       true,
		MagSize:         30,
		ReloadSeconds:   1.6,
		Spread:          0.07,
		Pellets:         1,
		ProjectileSpeed: 1500,
		Range:           800,
		Penetration:     0,
		HeadshotMult:    1.6,
		Knockback:       50,
		AmmoType:        "9mm",
	},
	"rifle": {
		ID:              "rifle",
		Name:            "AR-15 Rifle",
		Damage:          35,
		FireRate:        9,
		Automatic:       true,
		MagSize:         30,
		ReloadSeconds:   2.0,
		Spread:          0.04,
		Pellets:         1,
		ProjectileSpeed: 1800,
		Range:           1600,
		Penetration:     1,
		HeadshotMult:    2.0,
		Knockback:       120,
		AmmoType:        "556",
	},
	"shotgun": {
		ID:              "shotgun",
		Name:            "Pump Shotgun",
		Damage:          12,
		FireRate:        1.4,
		Automatic:       false,
		MagSize:         6,
		ReloadSeconds:   2.6,
		Spread:          0.18,
		Pellets:         8,
		ProjectileSpeed: 1200,
		Range:           450,
		Penetration:     0,
		HeadshotMult:    1.5,
		Knockback:       70,
		AmmoType:        "12g",
	},
	"sniper": {
		ID:              "sniper",
		Name:            "Bolt Sniper",
		Damage:          95,
		FireRate:        0.9,
		Automatic:       false,
		MagSize:         5,
		ReloadSeconds:   3.0,
		Spread:          0.005,
		Pellets:         1,
		ProjectileSpeed: 2600,
		Range:           2400,
		Penetration:     2,
		HeadshotMult:    2.5,
		Knockback:       260,
		AmmoType:        "338",
	},
}

// GetWeapon returns a weapon by ID. Unknown ids fall back to the pistol.
func GetWeapon(id string) WeaponDef {
	if w, ok := Weapons[id]; ok {
		return w
	}
	return Weapons["pistol"]
}

// GetAllWeapons returns all weapons sorted by id.
func GetAllWeapons() []WeaponDef {
	result := make([]WeaponDef, 0, len(Weapons))
	for _, w := range Weapons {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// CooldownTicks is the minimum tick gap between shots: ceil(tickRate / fireRate).
func (w WeaponDef) CooldownTicks(tickRate int) int {
	if w.FireRate <= 0 {
		return tickRate
	}
	return int(math.Ceil(float64(tickRate) / w.FireRate))
}

// LifetimeTicks is how long a projectile travels before expiring.
func (w WeaponDef) LifetimeTicks(tickRate int) int {
	if w.ProjectileSpeed <= 0 {
		return 1
	}
	n := int(math.Ceil(w.Range / w.ProjectileSpeed * float64(tickRate)))
	if n < 1 {
		n = 1
	}
	return n
}

// ReloadTicks is the full reload duration.
func (w WeaponDef) ReloadTicks(tickRate int) int {
	n := int(math.Round(w.ReloadSeconds * float64(tickRate)))
	if n < 1 {
		n = 1
	}
	return n
}
