package session

import (
	"sync"

	"breachline/internal/game"
)

// InputLatch merges asynchronous client input into the per-tick Input.
// Held state (movement, aim, fire held, headshot target) is replaced by the
// latest message. Edge flags accumulate until a tick consumes them, so a
// press that arrives between two ticks is never lost. Inventory commands
// queue in arrival order up to game.MaxInventoryCommands per tick.
type InputLatch struct {
	mu  sync.Mutex
	cur game.Input
}

// Apply merges a client message.
func (l *InputLatch) Apply(in game.Input) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := &l.cur
	c.Move = in.Move
	c.Aim = in.Aim
	c.FireHeld = in.FireHeld
	c.HeadshotTargetID = in.HeadshotTargetID

	c.FirePressed = c.FirePressed || in.FirePressed
	c.Dodge = c.Dodge || in.Dodge
	c.Reload = c.Reload || in.Reload
	c.HealSmall = c.HealSmall || in.HealSmall
	c.HealLarge = c.HealLarge || in.HealLarge
	c.Interact = c.Interact || in.Interact
	if in.ThrowGrenade {
		c.ThrowGrenade = true
		c.GrenadeCharge = in.GrenadeCharge
	}
	if in.WeaponSlot != 0 {
		c.WeaponSlot = in.WeaponSlot
	}
	if in.HotbarUse != 0 {
		c.HotbarUse = in.HotbarUse
	}
	if room := game.MaxInventoryCommands - len(c.Inventory); room > 0 && len(in.Inventory) > 0 {
		c.Inventory = append(c.Inventory, in.Inventory[:min(room, len(in.Inventory))]...)
	}
}

// Peek returns the pending input without consuming edges.
func (l *InputLatch) Peek() game.Input {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur
}

// Consume returns the input for the next tick and clears its edge flags.
func (l *InputLatch) Consume() game.Input {
	l.mu.Lock()
	defer l.mu.Unlock()

	in := l.cur
	l.cur = l.cur.ClearEdges()
	return in
}
