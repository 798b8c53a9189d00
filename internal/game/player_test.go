package game

import (
	"testing"

	"breachline/internal/game/spatial"
)

// TestPlayerMovement verifies speed, diagonal clamping and bounds
func TestPlayerMovement(t *testing.T) {
	step := 260.0 / 60

	tests := []struct {
		name  string
		start Vec2
		move  Vec2
		want  Vec2
	}{
		{"right", spatial.V(1000, 700), spatial.V(1, 0), spatial.V(1000+step, 700)},
		{"idle", spatial.V(1000, 700), Vec2{}, spatial.V(1000, 700)},
		{"over-long input is clamped", spatial.V(1000, 700), spatial.V(0, -3), spatial.V(1000, 700-step)},
		{"left wall", spatial.V(17, 700), spatial.V(-1, 0), spatial.V(16, 700)},
		{"bottom wall", spatial.V(1000, 1383), spatial.V(0, 1), spatial.V(1000, 1384)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, ModeArena)
			p := g.State.Player
			p.Pos = tt.start

			g.Tick(Input{Move: tt.move})
			if !approx(p.Pos.X, tt.want.X) || !approx(p.Pos.Y, tt.want.Y) {
				t.Errorf("Expected %+v, got %+v", tt.want, p.Pos)
			}
			if p.Moving != !tt.move.IsZero() {
				t.Errorf("Expected moving=%v", !tt.move.IsZero())
			}
		})
	}
}

// TestPlayerPushedOutOfCover verifies the player never overlaps geometry
func TestPlayerPushedOutOfCover(t *testing.T) {
	g := newTestGame(t, ModeArena)
	p := g.State.Player
	g.State.Obstacles = []spatial.Shape{spatial.Box(p.Pos.X+20, p.Pos.Y-50, p.Pos.X+60, p.Pos.Y+50)}
	g.RebuildPhysics()

	for i := 0; i < 30; i++ {
		g.Tick(Input{Move: spatial.V(1, 0)})
		if _, hit := g.Physics().PushOut(p.Pos, p.Radius-0.01); hit {
			t.Fatalf("Tick %d: player overlaps cover at %+v", i, p.Pos)
		}
	}
	if !approx(p.Pos.X, g.State.Obstacles[0].Center.X-20-p.Radius) {
		t.Errorf("Expected player resting against the cover, got %+v", p.Pos)
	}
}

// TestDodge verifies dodge direction, duration and cooldown
func TestDodge(t *testing.T) {
	t.Run("uses movement direction", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		start := p.Pos

		g.Tick(Input{Move: spatial.V(0, 1), Aim: spatial.V(1, 0), Dodge: true})
		if len(eventsOf[Dodge](g.State.Events)) != 1 {
			t.Fatal("Expected dodge event")
		}
		if !p.Dodging() {
			t.Fatal("Expected dodge in progress")
		}
		want := 260 * 2.6 / 60
		if d := p.Pos.Sub(start); !approx(d.Y, want) || !approx(d.X, 0) {
			t.Errorf("Expected dodge step (0,%v), got %+v", want, d)
		}
	})

	t.Run("falls back to aim", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		g.Tick(Input{Aim: spatial.V(-1, 0), Dodge: true})
		if p.DodgeDir != spatial.V(-1, 0) {
			t.Errorf("Expected aim direction, got %+v", p.DodgeDir)
		}
	})

	t.Run("locked direction and cooldown", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		g.Tick(Input{Move: spatial.V(1, 0), Dodge: true})

		// Input is ignored while the dodge runs.
		for p.Dodging() {
			before := p.Pos
			g.Tick(Input{Move: spatial.V(-1, 0)})
			if p.Pos.X <= before.X && p.Dodging() {
				t.Fatal("Expected dodge to keep its direction")
			}
		}
		if p.DodgeCooldown != 48 {
			t.Errorf("Expected 48 cooldown ticks, got %d", p.DodgeCooldown)
		}

		g.Tick(Input{Move: spatial.V(1, 0), Dodge: true})
		if p.Dodging() {
			t.Error("Expected cooldown to block a new dodge")
		}
	})

	t.Run("cancels reload and heal", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		p.HP = 50
		p.Inventory.Equipment.Weapons[0].Mag = 0
		g.Tick(Input{Reload: true})
		g.Tick(Input{Move: spatial.V(1, 0), Dodge: true})
		if p.Reload.Active {
			t.Error("Expected reload cancelled by dodge")
		}
	})
}

// TestHeal verifies the heal flow and its timing tiers
func TestHeal(t *testing.T) {
	tests := []struct {
		name    string
		elapsed int // Of 90 bandage ticks, -1 to let it run out
		tier    Tier
		healed  float64
	}{
		{"perfect", 52, TierPerfect, 25 * 1.5},
		{"active", 45, TierActive, 25 * 1.25},
		{"fumbled", 10, TierFumbled, 25},
		{"no confirm", -1, TierNone, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, ModeArena)
			p := g.State.Player
			p.HP = 40

			g.Tick(Input{HealSmall: true})
			if !p.Heal.Active || p.Heal.Total != 90 {
				t.Fatalf("Expected 90-tick heal, got %+v", p.Heal)
			}

			var done []HealComplete
			if tt.elapsed >= 0 {
				p.Heal.Elapsed = tt.elapsed
				g.Tick(Input{HealSmall: true})
				done = eventsOf[HealComplete](g.State.Events)
			}
			for i := 0; i < 200 && p.Heal.Active; i++ {
				g.Tick(Input{})
				done = append(done, eventsOf[HealComplete](g.State.Events)...)
			}

			if len(done) != 1 {
				t.Fatalf("Expected one completion, got %d", len(done))
			}
			if done[0].Tier != tt.tier {
				t.Errorf("Expected tier %s, got %s", tt.tier, done[0].Tier)
			}
			if !approx(p.HP, 40+tt.healed) {
				t.Errorf("Expected HP %v, got %v", 40+tt.healed, p.HP)
			}
			if p.Inventory.Count("bandage") != 1 {
				t.Errorf("Expected one bandage used, %d left", p.Inventory.Count("bandage"))
			}
		})
	}
}

// TestHealRules verifies when a heal can start and what it blocks
func TestHealRules(t *testing.T) {
	t.Run("full health", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		g.Tick(Input{HealSmall: true})
		if g.State.Player.Heal.Active {
			t.Error("Expected no heal at full health")
		}
	})

	t.Run("no item", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		p.HP = 50
		p.Inventory.Remove("medkit", 5)
		g.Tick(Input{HealLarge: true})
		if p.Heal.Active {
			t.Error("Expected no heal without a medkit")
		}
	})

	t.Run("heal caps at max", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		p.HP = 90
		g.Tick(Input{HealLarge: true})
		for i := 0; i < 300 && p.Heal.Active; i++ {
			g.Tick(Input{})
		}
		if p.HP != p.MaxHP {
			t.Errorf("Expected HP capped at %v, got %v", p.MaxHP, p.HP)
		}
	})

	t.Run("blocks firing and slows movement", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		p.HP = 50
		g.Tick(Input{HealSmall: true})

		start := p.Pos
		g.Tick(Input{Move: spatial.V(1, 0), Aim: spatial.V(1, 0), FireHeld: true})
		if len(g.State.Projectiles) != 0 {
			t.Error("Expected no shots while healing")
		}
		if d := p.Pos.X - start.X; !approx(d, 260*0.5/60) {
			t.Errorf("Expected half speed while healing, moved %v", d)
		}
	})

	t.Run("cancels reload", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		p := g.State.Player
		p.HP = 50
		p.Inventory.Equipment.Weapons[0].Mag = 0
		g.Tick(Input{Reload: true})
		g.Tick(Input{HealSmall: true})
		if p.Reload.Active || !p.Heal.Active {
			t.Errorf("Expected heal to replace reload, reload=%v heal=%v", p.Reload.Active, p.Heal.Active)
		}
	})
}

// TestWeaponSwap verifies slot changes and the swap delay
func TestWeaponSwap(t *testing.T) {
	g := newTestGame(t, ModeArena)
	p := g.State.Player

	g.Tick(Input{WeaponSlot: 2})
	if p.ActiveSlot != 1 {
		t.Fatalf("Expected secondary slot, got %d", p.ActiveSlot)
	}
	if _, def, _ := p.Weapon(); def.ID != "shotgun" {
		t.Errorf("Expected shotgun, got %s", def.ID)
	}

	g.Tick(Input{Aim: spatial.V(1, 0), FireHeld: true, FirePressed: true})
	if len(g.State.Projectiles) != 0 {
		t.Error("Expected swap delay to block firing")
	}

	for p.SwapTicks > 0 {
		g.Tick(Input{})
	}
	g.Tick(Input{Aim: spatial.V(1, 0), FireHeld: true, FirePressed: true})
	if n := len(g.State.Projectiles); n != 8 {
		t.Errorf("Expected 8 shotgun pellets, got %d", n)
	}

	// Semi-automatic weapons need a fresh press.
	for p.FireCooldown > 0 {
		g.Tick(Input{})
	}
	g.State.Projectiles = nil
	g.Tick(Input{Aim: spatial.V(1, 0), FireHeld: true})
	if len(g.State.Projectiles) != 0 {
		t.Error("Expected held trigger not to refire a semi-automatic weapon")
	}
}

// TestHotbar verifies each hotbar category
func TestHotbar(t *testing.T) {
	t.Run("armor plate repairs", func(t *testing.T) {
		g := newTestGame(t, ModeExtraction)
		inv := g.State.Player.Inventory
		inv.Add("armor_plate", 1)
		inv.Equipment.Armor.Durability = 10

		g.Tick(Input{HotbarUse: 3})
		if !approx(inv.Equipment.Armor.Durability, 50) {
			t.Errorf("Expected durability 50, got %v", inv.Equipment.Armor.Durability)
		}
		if inv.Count("armor_plate") != 0 {
			t.Error("Expected plate consumed")
		}
	})

	t.Run("frag moves to grenade ammo", func(t *testing.T) {
		g := newTestGame(t, ModeExtraction)
		w := g.State
		w.Player.Inventory.Add("frag", 2)
		ammo := w.GrenadeAmmo

		g.Tick(Input{HotbarUse: 4})
		if w.GrenadeAmmo != ammo+1 || w.Player.Inventory.Count("frag") != 1 {
			t.Errorf("Expected one frag readied, ammo=%d frags=%d", w.GrenadeAmmo, w.Player.Inventory.Count("frag"))
		}
	})

	t.Run("helmet equips", func(t *testing.T) {
		g := newTestGame(t, ModeExtraction)
		inv := g.State.Player.Inventory
		inv.Add("helmet", 1)
		inv.BindHotbar(4, "helmet")

		g.Tick(Input{HotbarUse: 5})
		if inv.Equipment.Helmet == nil || inv.Count("helmet") != 0 {
			t.Error("Expected helmet equipped from the backpack")
		}
		if len(eventsOf[HotbarUse](g.State.Events)) != 1 {
			t.Error("Expected hotbar_use event")
		}
	})

	t.Run("empty binding", func(t *testing.T) {
		g := newTestGame(t, ModeArena)
		g.Tick(Input{HotbarUse: 5})
		if len(eventsOf[HotbarUse](g.State.Events)) != 0 {
			t.Error("Expected nothing for an empty binding")
		}
	})
}

// TestInputEdges verifies edge flags are cleared and held state kept
func TestInputEdges(t *testing.T) {
	in := Input{
		Move: spatial.V(1, 0), Aim: spatial.V(0, 1), FireHeld: true, HeadshotTargetID: 7,
		FirePressed: true, Dodge: true, Reload: true, ThrowGrenade: true, GrenadeCharge: 0.5,
		HealSmall: true, HealLarge: true, Interact: true, WeaponSlot: 2, HotbarUse: 3,
	}
	if !in.HasEdges() {
		t.Fatal("Expected edges")
	}

	out := in.ClearEdges()
	if out.HasEdges() {
		t.Errorf("Expected edges cleared, got %+v", out)
	}
	if out.Move != in.Move || out.Aim != in.Aim || !out.FireHeld || out.HeadshotTargetID != 7 {
		t.Errorf("Expected held state kept, got %+v", out)
	}
}
