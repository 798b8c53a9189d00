package game

// Input is the per-tick command set. Edge-triggered flags are never cleared
// by the simulation; the caller clears them after a tick that consumed them.
type Input struct {
	Move Vec2 `json:"move" msgpack:"m"`
	Aim  Vec2 `json:"aim" msgpack:"a"`

	FireHeld    bool `json:"fireHeld" msgpack:"fh"`
	FirePressed bool `json:"firePressed" msgpack:"fp"` // Edge; required by semi-automatic weapons

	// HeadshotTargetID is supplied by the host's own hit-test; 0 means none.
	HeadshotTargetID uint64 `json:"headshotTargetId,omitempty" msgpack:"hs,omitempty"`

	Dodge         bool    `json:"dodge,omitempty" msgpack:"d,omitempty"`
	Reload        bool    `json:"reload,omitempty" msgpack:"r,omitempty"`
	ThrowGrenade  bool    `json:"throwGrenade,omitempty" msgpack:"g,omitempty"`
	GrenadeCharge float64 `json:"grenadeCharge,omitempty" msgpack:"gc,omitempty"` // 0..1
	HealSmall     bool    `json:"healSmall,omitempty" msgpack:"h1,omitempty"`
	HealLarge     bool    `json:"healLarge,omitempty" msgpack:"h2,omitempty"`
	Interact      bool    `json:"interact,omitempty" msgpack:"i,omitempty"`
	WeaponSlot    int     `json:"weaponSlot,omitempty" msgpack:"ws,omitempty"` // 1 or 2, 0 for none
	HotbarUse     int     `json:"hotbarUse,omitempty" msgpack:"hb,omitempty"`  // 1..5, 0 for none

	// Inventory holds backpack and equipment commands, applied in order.
	Inventory []InventoryCommand `json:"inventory,omitempty" msgpack:"inv,omitempty"`
}

// HasEdges reports whether any edge-triggered flag is set.
func (in Input) HasEdges() bool {
	return in.FirePressed || in.Dodge || in.Reload || in.ThrowGrenade ||
		in.HealSmall || in.HealLarge || in.Interact || in.WeaponSlot != 0 || in.HotbarUse != 0 ||
		len(in.Inventory) > 0
}

// ClearEdges returns in with every edge-triggered flag reset. Held state
// (movement, aim, fire held, headshot target) is kept.
func (in Input) ClearEdges() Input {
	in.FirePressed = false
	in.Dodge = false
	in.Reload = false
	in.ThrowGrenade = false
	in.GrenadeCharge = 0
	in.HealSmall = false
	in.HealLarge = false
	in.Interact = false
	in.WeaponSlot = 0
	in.HotbarUse = 0
	in.Inventory = nil
	return in
}
