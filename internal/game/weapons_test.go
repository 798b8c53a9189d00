package game

import "testing"

// TestGetWeapon verifies weapon lookup and the pistol fallback
func TestGetWeapon(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{"pistol", "pistol", "pistol"},
		{"smg", "smg", "smg"},
		{"rifle", "rifle", "rifle"},
		{"shotgun", "shotgun", "shotgun"},
		{"sniper", "sniper", "sniper"},
		{"unknown falls back", "railgun", "pistol"},
		{"empty falls back", "", "pistol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := GetWeapon(tt.id)
			if w.ID != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, w.ID)
			}
		})
	}
}

// TestGetAllWeapons verifies the catalogue is complete and sorted
func TestGetAllWeapons(t *testing.T) {
	all := GetAllWeapons()
	if len(all) != len(Weapons) {
		t.Fatalf("Expected %d weapons, got %d", len(Weapons), len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("Expected sorted ids, got %s before %s", all[i-1].ID, all[i].ID)
		}
	}
}

// TestWeaponCatalogue verifies every weapon is backed by an item and an
// ammo type
func TestWeaponCatalogue(t *testing.T) {
	for id, w := range Weapons {
		t.Run(id, func(t *testing.T) {
			if w.ID != id {
				t.Errorf("Expected ID %s, got %s", id, w.ID)
			}
			item, ok := Items[id]
			if !ok || item.Category != CategoryWeapon {
				t.Fatalf("Expected weapon item %s", id)
			}
			if item.AmmoType != w.AmmoType {
				t.Errorf("Expected item ammo %s, got %s", w.AmmoType, item.AmmoType)
			}
			if _, ok := Items[ammoItemFor(w.AmmoType)]; !ok {
				t.Errorf("No ammo item for %s", w.AmmoType)
			}
			if w.MagSize <= 0 || w.Pellets <= 0 || w.Damage <= 0 {
				t.Errorf("Invalid stats: %+v", w)
			}
		})
	}
}

// TestWeaponTicks verifies second-based stats convert to whole ticks
func TestWeaponTicks(t *testing.T) {
	tests := []struct {
		weapon   string
		cooldown int
		reload   int
		lifetime int
	}{
		{"pistol", 10, 66, 39},   // 60/6, 1.1s, 900/1400s
		{"rifle", 7, 120, 54},    // ceil(60/9), 2.0s, 1600/1800s
		{"shotgun", 43, 156, 23}, // ceil(60/1.4), 2.6s, 450/1200s
		{"sniper", 67, 180, 56},  // ceil(60/0.9), 3.0s, 2400/2600s
	}

	for _, tt := range tests {
		t.Run(tt.weapon, func(t *testing.T) {
			w := GetWeapon(tt.weapon)
			if got := w.CooldownTicks(60); got != tt.cooldown {
				t.Errorf("Expected cooldown %d, got %d", tt.cooldown, got)
			}
			if got := w.ReloadTicks(60); got != tt.reload {
				t.Errorf("Expected reload %d, got %d", tt.reload, got)
			}
			if got := w.LifetimeTicks(60); got != tt.lifetime {
				t.Errorf("Expected lifetime %d, got %d", tt.lifetime, got)
			}
		})
	}
}

// TestEnemyDamage verifies headshot scaling and armor reduction
func TestEnemyDamage(t *testing.T) {
	rifle := GetWeapon("rifle")
	grunt := GetEnemyDef("grunt")
	brute := GetEnemyDef("brute")

	tests := []struct {
		name     string
		headshot bool
		def      EnemyDef
		expected float64
	}{
		{"body unarmored", false, grunt, 35},
		{"head unarmored", true, grunt, 70},
		{"body armored", false, brute, 35 * (1 - 0.35)},
		{"head helmeted", true, brute, 70 * (1 - 0.3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enemyDamage(35, tt.headshot, rifle, tt.def)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
