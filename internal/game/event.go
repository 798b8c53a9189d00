package game

import (
	"encoding/json"
	"fmt"
)

// EventKind enum for event classification
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventPlayerFired
	EventDryFire
	EventEnemyHit
	EventEnemyKilled
	EventMultiKill
	EventPlayerHit
	EventPlayerDied
	EventGameOver
	EventDodge
	EventReloadStart
	EventReloadTiming
	EventReloadComplete
	EventReloadCancel
	EventHealStart
	EventHealTiming
	EventHealComplete
	EventHealCancel
	EventWeaponSwap
	EventHotbarUse
	EventGrenadeThrown
	EventGrenadeBounce
	EventGrenadeExploded
	EventCrateSpawned
	EventCratePicked
	EventCrateExpired
	EventCashSpawned
	EventCashPicked
	EventDestructibleHit
	EventDestructibleDestroyed
	EventContainerSpawned
	EventSearchStart
	EventItemRevealed
	EventSearchComplete
	EventLootTaken
	EventEnemySpawned
	EventEnemyState
	EventEnemyTelegraph
	EventEnemyFired
	EventWaveAdvanced
	EventExtracted
	EventInventoryChanged

	eventKindCount
)

var eventKindNames = [eventKindCount]string{
	EventUnknown:               "unknown",
	EventPlayerFired:           "player_fired",
	EventDryFire:               "dry_fire",
	EventEnemyHit:              "enemy_hit",
	EventEnemyKilled:           "enemy_killed",
	EventMultiKill:             "multi_kill",
	EventPlayerHit:             "player_hit",
	EventPlayerDied:            "player_died",
	EventGameOver:              "game_over",
	EventDodge:                 "dodge",
	EventReloadStart:           "reload_start",
	EventReloadTiming:          "reload_timing",
	EventReloadComplete:        "reload_complete",
	EventReloadCancel:          "reload_cancel",
	EventHealStart:             "heal_start",
	EventHealTiming:            "heal_timing",
	EventHealComplete:          "heal_complete",
	EventHealCancel:            "heal_cancel",
	EventWeaponSwap:            "weapon_swap",
	EventHotbarUse:             "hotbar_use",
	EventGrenadeThrown:         "grenade_thrown",
	EventGrenadeBounce:         "grenade_bounce",
	EventGrenadeExploded:       "grenade_exploded",
	EventCrateSpawned:          "crate_spawned",
	EventCratePicked:           "crate_picked",
	EventCrateExpired:          "crate_expired",
	EventCashSpawned:           "cash_spawned",
	EventCashPicked:            "cash_picked",
	EventDestructibleHit:       "destructible_hit",
	EventDestructibleDestroyed: "destructible_destroyed",
	EventContainerSpawned:      "container_spawned",
	EventSearchStart:           "search_start",
	EventItemRevealed:          "item_revealed",
	EventSearchComplete:        "search_complete",
	EventLootTaken:             "loot_taken",
	EventEnemySpawned:          "enemy_spawned",
	EventEnemyState:            "enemy_state",
	EventEnemyTelegraph:        "enemy_telegraph",
	EventEnemyFired:            "enemy_fired",
	EventWaveAdvanced:          "wave_advanced",
	EventExtracted:             "extracted",
	EventInventoryChanged:      "inventory_changed",
}

// String returns the snake_case event name
func (k EventKind) String() string {
	if k < eventKindCount {
		return eventKindNames[k]
	}
	return "unknown"
}

// ParseEventKind maps a name back to its kind.
func ParseEventKind(s string) EventKind {
	for k, name := range eventKindNames {
		if name == s {
			return EventKind(k)
		}
	}
	return EventUnknown
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	*k = ParseEventKind(string(b))
	return nil
}

// Event is one entry of World.Events.
type Event struct {
	Tick    uint64       `json:"tick"`
	Kind    EventKind    `json:"kind"`
	Payload EventPayload `json:"payload"`
}

// EventPayload is implemented only by the payload types in this file.
type EventPayload interface {
	Kind() EventKind
	sealed()
}

// UnmarshalJSON decodes the payload into the struct matching Kind.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Tick    uint64          `json:"tick"`
		Kind    EventKind       `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p := newPayload(raw.Kind)
	if p == nil {
		return fmt.Errorf("unknown event kind %q", raw.Kind)
	}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, p); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Kind, err)
		}
	}
	e.Tick = raw.Tick
	e.Kind = raw.Kind
	e.Payload = derefPayload(p)
	return nil
}

// Typed payloads for each event kind

type PlayerFired struct {
	Weapon  string  `json:"weapon"`
	Pos     Vec2    `json:"pos"`
	Dir     Vec2    `json:"dir"`
	Pellets int     `json:"pellets"`
	Bonus   float64 `json:"bonus"`
	Mag     int     `json:"mag"`
}

type DryFire struct {
	Weapon string `json:"weapon"`
}

// EnemyHit is emitted once per damaging contact.
type EnemyHit struct {
	EnemyID   uint64  `json:"enemyId"`
	EnemyType string  `json:"enemyType"`
	Source    string  `json:"source"` // "bullet" or "grenade"
	SourceID  uint64  `json:"sourceId"`
	Damage    float64 `json:"damage"`
	Headshot  bool    `json:"headshot"`
	HPLeft    float64 `json:"hpLeft"`
	Pos       Vec2    `json:"pos"`
}

type EnemyKilled struct {
	EnemyID   uint64 `json:"enemyId"`
	EnemyType string `json:"enemyType"`
	Source    string `json:"source"`
	SourceID  uint64 `json:"sourceId"`
	Headshot  bool   `json:"headshot"`
	Score     int    `json:"score"`
	Pos       Vec2   `json:"pos"`
}

type MultiKill struct {
	Count int `json:"count"`
}

type PlayerHit struct {
	Source   string  `json:"source"` // "contact", "projectile" or "grenade"
	SourceID uint64  `json:"sourceId"`
	Damage   float64 `json:"damage"`
	Absorbed float64 `json:"absorbed"`
	HPLeft   float64 `json:"hpLeft"`
}

type PlayerDied struct {
	Pos Vec2 `json:"pos"`
}

type GameOver struct {
	Score int `json:"score"`
	Cash  int `json:"cash"`
}

type Dodge struct {
	Dir Vec2 `json:"dir"`
}

type ReloadStart struct {
	Weapon string `json:"weapon"`
	Ticks  int    `json:"ticks"`
}

type ReloadTiming struct {
	Tier     Tier    `json:"tier"`
	Progress float64 `json:"progress"`
}

type ReloadComplete struct {
	Weapon string  `json:"weapon"`
	Mag    int     `json:"mag"`
	Tier   Tier    `json:"tier"`
	Bonus  float64 `json:"bonus"`
}

type ReloadCancel struct {
	Reason string `json:"reason"`
}

type HealStart struct {
	Item  string `json:"item"`
	Ticks int    `json:"ticks"`
}

type HealTiming struct {
	Tier     Tier    `json:"tier"`
	Progress float64 `json:"progress"`
}

type HealComplete struct {
	Item   string  `json:"item"`
	Amount float64 `json:"amount"`
	Tier   Tier    `json:"tier"`
	HP     float64 `json:"hp"`
}

type HealCancel struct {
	Reason string `json:"reason"`
}

type WeaponSwap struct {
	Slot   int    `json:"slot"`
	Weapon string `json:"weapon"`
}

type HotbarUse struct {
	Index int    `json:"index"`
	Item  string `json:"item"`
}

type GrenadeThrown struct {
	GrenadeID uint64  `json:"grenadeId"`
	Pos       Vec2    `json:"pos"`
	Vel       Vec2    `json:"vel"`
	Charge    float64 `json:"charge"`
}

type GrenadeBounce struct {
	GrenadeID uint64 `json:"grenadeId"`
	Pos       Vec2   `json:"pos"`
}

type GrenadeExploded struct {
	GrenadeID uint64 `json:"grenadeId"`
	Pos       Vec2   `json:"pos"`
	Kills     int    `json:"kills"`
}

type CrateSpawned struct {
	CrateID uint64    `json:"crateId"`
	Crate   CrateKind `json:"crateKind"`
	Pos     Vec2      `json:"pos"`
}

type CratePicked struct {
	CrateID uint64    `json:"crateId"`
	Crate   CrateKind `json:"crateKind"`
}

type CrateExpired struct {
	CrateID uint64 `json:"crateId"`
}

type CashSpawned struct {
	CashID uint64 `json:"cashId"`
	Pos    Vec2   `json:"pos"`
	Value  int    `json:"value"`
}

type CashPicked struct {
	CashID uint64 `json:"cashId"`
	Value  int    `json:"value"`
	Total  int    `json:"total"`
}

type DestructibleHit struct {
	CrateID uint64  `json:"crateId"`
	Damage  float64 `json:"damage"`
	HPLeft  float64 `json:"hpLeft"`
}

type DestructibleDestroyed struct {
	CrateID uint64 `json:"crateId"`
	Pos     Vec2   `json:"pos"`
	Loot    string `json:"loot"`
}

type ContainerSpawned struct {
	ContainerID uint64 `json:"containerId"`
	Source      string `json:"source"`
	Pos         Vec2   `json:"pos"`
}

type SearchStart struct {
	ContainerID uint64 `json:"containerId"`
	Progress    int    `json:"progress"`
}

type ItemRevealed struct {
	ContainerID uint64 `json:"containerId"`
	Slot        int    `json:"slot"`
	Item        string `json:"item"`
	Qty         int    `json:"qty"`
}

type SearchComplete struct {
	ContainerID uint64 `json:"containerId"`
}

type LootTaken struct {
	ContainerID uint64 `json:"containerId"`
	Stacks      int    `json:"stacks"`
	Left        int    `json:"left"` // Stacks that did not fit
}

type EnemySpawned struct {
	EnemyID   uint64 `json:"enemyId"`
	EnemyType string `json:"enemyType"`
	Pos       Vec2   `json:"pos"`
}

type EnemyState struct {
	EnemyID uint64 `json:"enemyId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// EnemyTelegraph is emitted when a telegraph starts and again when the aim
// locks.
type EnemyTelegraph struct {
	EnemyID uint64 `json:"enemyId"`
	Pos     Vec2   `json:"pos"`
	Dir     Vec2   `json:"dir"`
	Locked  bool   `json:"locked"`
	Ticks   int    `json:"ticks"` // Ticks until the shot
}

type EnemyFired struct {
	EnemyID      uint64 `json:"enemyId"`
	ProjectileID uint64 `json:"projectileId"`
	Pos          Vec2   `json:"pos"`
	Dir          Vec2   `json:"dir"`
}

type WaveAdvanced struct {
	Wave int `json:"wave"`
}

type Extracted struct {
	Score int `json:"score"`
	Cash  int `json:"cash"`
}

type InventoryChanged struct {
	Op InventoryOp `json:"op"`
}

func (PlayerFired) Kind() EventKind           { return EventPlayerFired }
func (DryFire) Kind() EventKind               { return EventDryFire }
func (EnemyHit) Kind() EventKind              { return EventEnemyHit }
func (EnemyKilled) Kind() EventKind           { return EventEnemyKilled }
func (MultiKill) Kind() EventKind             { return EventMultiKill }
func (PlayerHit) Kind() EventKind             { return EventPlayerHit }
func (PlayerDied) Kind() EventKind            { return EventPlayerDied }
func (GameOver) Kind() EventKind              { return EventGameOver }
func (Dodge) Kind() EventKind                 { return EventDodge }
func (ReloadStart) Kind() EventKind           { return EventReloadStart }
func (ReloadTiming) Kind() EventKind          { return EventReloadTiming }
func (ReloadComplete) Kind() EventKind        { return EventReloadComplete }
func (ReloadCancel) Kind() EventKind          { return EventReloadCancel }
func (HealStart) Kind() EventKind             { return EventHealStart }
func (HealTiming) Kind() EventKind            { return EventHealTiming }
func (HealComplete) Kind() EventKind          { return EventHealComplete }
func (HealCancel) Kind() EventKind            { return EventHealCancel }
func (WeaponSwap) Kind() EventKind            { return EventWeaponSwap }
func (HotbarUse) Kind() EventKind             { return EventHotbarUse }
func (GrenadeThrown) Kind() EventKind         { return EventGrenadeThrown }
func (GrenadeBounce) Kind() EventKind         { return EventGrenadeBounce }
func (GrenadeExploded) Kind() EventKind       { return EventGrenadeExploded }
func (CrateSpawned) Kind() EventKind          { return EventCrateSpawned }
func (CratePicked) Kind() EventKind           { return EventCratePicked }
func (CrateExpired) Kind() EventKind          { return EventCrateExpired }
func (CashSpawned) Kind() EventKind           { return EventCashSpawned }
func (CashPicked) Kind() EventKind            { return EventCashPicked }
func (DestructibleHit) Kind() EventKind       { return EventDestructibleHit }
func (DestructibleDestroyed) Kind() EventKind { return EventDestructibleDestroyed }
func (ContainerSpawned) Kind() EventKind      { return EventContainerSpawned }
func (SearchStart) Kind() EventKind           { return EventSearchStart }
func (ItemRevealed) Kind() EventKind          { return EventItemRevealed }
func (SearchComplete) Kind() EventKind        { return EventSearchComplete }
func (LootTaken) Kind() EventKind             { return EventLootTaken }
func (EnemySpawned) Kind() EventKind          { return EventEnemySpawned }
func (EnemyState) Kind() EventKind            { return EventEnemyState }
func (EnemyTelegraph) Kind() EventKind        { return EventEnemyTelegraph }
func (EnemyFired) Kind() EventKind            { return EventEnemyFired }
func (WaveAdvanced) Kind() EventKind          { return EventWaveAdvanced }
func (Extracted) Kind() EventKind             { return EventExtracted }
func (InventoryChanged) Kind() EventKind      { return EventInventoryChanged }

func (PlayerFired) sealed()           {}
func (DryFire) sealed()               {}
func (EnemyHit) sealed()              {}
func (EnemyKilled) sealed()           {}
func (MultiKill) sealed()             {}
func (PlayerHit) sealed()             {}
func (PlayerDied) sealed()            {}
func (GameOver) sealed()              {}
func (Dodge) sealed()                 {}
func (ReloadStart) sealed()           {}
func (ReloadTiming) sealed()          {}
func (ReloadComplete) sealed()        {}
func (ReloadCancel) sealed()          {}
func (HealStart) sealed()             {}
func (HealTiming) sealed()            {}
func (HealComplete) sealed()          {}
func (HealCancel) sealed()            {}
func (WeaponSwap) sealed()            {}
func (HotbarUse) sealed()             {}
func (GrenadeThrown) sealed()         {}
func (GrenadeBounce) sealed()         {}
func (GrenadeExploded) sealed()       {}
func (CrateSpawned) sealed()          {}
func (CratePicked) sealed()           {}
func (CrateExpired) sealed()          {}
func (CashSpawned) sealed()           {}
func (CashPicked) sealed()            {}
func (DestructibleHit) sealed()       {}
func (DestructibleDestroyed) sealed() {}
func (ContainerSpawned) sealed()      {}
func (SearchStart) sealed()           {}
func (ItemRevealed) sealed()          {}
func (SearchComplete) sealed()        {}
func (LootTaken) sealed()             {}
func (EnemySpawned) sealed()          {}
func (EnemyState) sealed()            {}
func (EnemyTelegraph) sealed()        {}
func (EnemyFired) sealed()            {}
func (WaveAdvanced) sealed()          {}
func (Extracted) sealed()             {}
func (InventoryChanged) sealed()      {}

// newPayload returns a pointer to a zero payload for kind, or nil.
func newPayload(k EventKind) any {
	switch k {
	case EventPlayerFired:
		return &PlayerFired{}
	case EventDryFire:
		return &DryFire{}
	case EventEnemyHit:
		return &EnemyHit{}
	case EventEnemyKilled:
		return &EnemyKilled{}
	case EventMultiKill:
		return &MultiKill{}
	case EventPlayerHit:
		return &PlayerHit{}
	case EventPlayerDied:
		return &PlayerDied{}
	case EventGameOver:
		return &GameOver{}
	case EventDodge:
		return &Dodge{}
	case EventReloadStart:
		return &ReloadStart{}
	case EventReloadTiming:
		return &ReloadTiming{}
	case EventReloadComplete:
		return &ReloadComplete{}
	case EventReloadCancel:
		return &ReloadCancel{}
	case EventHealStart:
		return &HealStart{}
	case EventHealTiming:
		return &HealTiming{}
	case EventHealComplete:
		return &HealComplete{}
	case EventHealCancel:
		return &HealCancel{}
	case EventWeaponSwap:
		return &WeaponSwap{}
	case EventHotbarUse:
		return &HotbarUse{}
	case EventGrenadeThrown:
		return &GrenadeThrown{}
	case EventGrenadeBounce:
		return &GrenadeBounce{}
	case EventGrenadeExploded:
		return &GrenadeExploded{}
	case EventCrateSpawned:
		return &CrateSpawned{}
	case EventCratePicked:
		return &CratePicked{}
	case EventCrateExpired:
		return &CrateExpired{}
	case EventCashSpawned:
		return &CashSpawned{}
	case EventCashPicked:
		return &CashPicked{}
	case EventDestructibleHit:
		return &DestructibleHit{}
	case EventDestructibleDestroyed:
		return &DestructibleDestroyed{}
	case EventContainerSpawned:
		return &ContainerSpawned{}
	case EventSearchStart:
		return &SearchStart{}
	case EventItemRevealed:
		return &ItemRevealed{}
	case EventSearchComplete:
		return &SearchComplete{}
	case EventLootTaken:
		return &LootTaken{}
	case EventEnemySpawned:
		return &EnemySpawned{}
	case EventEnemyState:
		return &EnemyState{}
	case EventEnemyTelegraph:
		return &EnemyTelegraph{}
	case EventEnemyFired:
		return &EnemyFired{}
	case EventWaveAdvanced:
		return &WaveAdvanced{}
	case EventExtracted:
		return &Extracted{}
	case EventInventoryChanged:
		return &InventoryChanged{}
	}
	return nil
}

// derefPayload turns the pointer from newPayload back into the value form
// stored in events.
func derefPayload(p any) EventPayload {
	switch v := p.(type) {
	case *PlayerFired:
		return *v
	case *DryFire:
		return *v
	case *EnemyHit:
		return *v
	case *EnemyKilled:
		return *v
	case *MultiKill:
		return *v
	case *PlayerHit:
		return *v
	case *PlayerDied:
		return *v
	case *GameOver:
		return *v
	case *Dodge:
		return *v
	case *ReloadStart:
		return *v
	case *ReloadTiming:
		return *v
	case *ReloadComplete:
		return *v
	case *ReloadCancel:
		return *v
	case *HealStart:
		return *v
	case *HealTiming:
		return *v
	case *HealComplete:
		return *v
	case *HealCancel:
		return *v
	case *WeaponSwap:
		return *v
	case *HotbarUse:
		return *v
	case *GrenadeThrown:
		return *v
	case *GrenadeBounce:
		return *v
	case *GrenadeExploded:
		return *v
	case *CrateSpawned:
		return *v
	case *CratePicked:
		return *v
	case *CrateExpired:
		return *v
	case *CashSpawned:
		return *v
	case *CashPicked:
		return *v
	case *DestructibleHit:
		return *v
	case *DestructibleDestroyed:
		return *v
	case *ContainerSpawned:
		return *v
	case *SearchStart:
		return *v
	case *ItemRevealed:
		return *v
	case *SearchComplete:
		return *v
	case *LootTaken:
		return *v
	case *EnemySpawned:
		return *v
	case *EnemyState:
		return *v
	case *EnemyTelegraph:
		return *v
	case *EnemyFired:
		return *v
	case *WaveAdvanced:
		return *v
	case *Extracted:
		return *v
	case *InventoryChanged:
		return *v
	}
	return nil
}
