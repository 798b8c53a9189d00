package game

// ItemCategory decides which equipment slot an item fits and how the hotbar
// uses it.
type ItemCategory string

const (
	CategoryWeapon    ItemCategory = "weapon"
	CategoryAmmo      ItemCategory = "ammo"
	CategoryArmor     ItemCategory = "armor"
	CategoryHelmet    ItemCategory = "helmet"
	CategoryMedical   ItemCategory = "medical"
	CategoryRepair    ItemCategory = "repair"
	CategoryThrowable ItemCategory = "throwable"
	CategoryValuable  ItemCategory = "valuable"
)

// ItemDef is the static description of an item.
type ItemDef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    ItemCategory `json:"category"`
	MaxStack    int          `json:"maxStack"`
	AmmoType    string       `json:"ammoType,omitempty"`
	Heal        float64      `json:"heal,omitempty"`
	HealSeconds float64      `json:"healSeconds,omitempty"`
	Reduction   float64      `json:"reduction,omitempty"` // Armor and helmet damage reduction
	Durability  float64      `json:"durability,omitempty"`
	Value       int          `json:"value"`
}

// Items is the item catalogue.
var Items = map[string]ItemDef{
	// Weapons share ids with Weapons.
	"pistol":  {ID: "pistol", Name: "M9 Pistol", Category: CategoryWeapon, MaxStack: 1, AmmoType: "9mm", Value: 80},
	"smg":     {ID: "smg", Name: "Vector SMG", Category: CategoryWeapon, MaxStack: 1, AmmoType: "9mm", Value: 220},
	"rifle":   {ID: "rifle", Name: "AR-15 Rifle", Category: CategoryWeapon, MaxStack: 1, AmmoType: "556", Value: 320},
	"shotgun": {ID: "shotgun", Name: "Pump Shotgun", Category: CategoryWeapon, MaxStack: 1, AmmoType: "12g", Value: 260},
	"sniper":  {ID: "sniper", Name: "Bolt Sniper", Category: CategoryWeapon, MaxStack: 1, AmmoType: "338", Value: 480},

	"ammo_9mm": {ID: "ammo_9mm", Name: "9mm Rounds", Category: CategoryAmmo, MaxStack: 90, AmmoType: "9mm", Value: 1},
	"ammo_556": {ID: "ammo_556", Name: "5.56 Rounds", Category: CategoryAmmo, MaxStack: 90, AmmoType: "556", Value: 2},
	"ammo_12g": {ID: "ammo_12g", Name: "12ga Shells", Category: CategoryAmmo, MaxStack: 30, AmmoType: "12g", Value: 2},
	"ammo_338": {ID: "ammo_338", Name: ".338 Rounds", Category: CategoryAmmo, MaxStack: 20, AmmoType: "338", Value: 5},

	"bandage": {ID: "bandage", Name: "Bandage", Category: CategoryMedical, MaxStack: 5, Heal: 25, HealSeconds: 1.5, Value: 15},
	"medkit":  {ID: "medkit", Name: "Medkit", Category: CategoryMedical, MaxStack: 3, Heal: 60, HealSeconds: 3.5, Value: 60},

	"vest_light":  {ID: "vest_light", Name: "Light Vest", Category: CategoryArmor, MaxStack: 1, Reduction: 0.25, Durability: 60, Value: 120},
	"vest_heavy":  {ID: "vest_heavy", Name: "Heavy Vest", Category: CategoryArmor, MaxStack: 1, Reduction: 0.45, Durability: 120, Value: 300},
	"helmet":      {ID: "helmet", Name: "Combat Helmet", Category: CategoryHelmet, MaxStack: 1, Reduction: 0.4, Durability: 50, Value: 140},
	"armor_plate": {ID: "armor_plate", Name: "Armor Plate", Category: CategoryRepair, MaxStack: 4, Durability: 40, Value: 45},

	"frag": {ID: "frag", Name: "Frag Grenade", Category: CategoryThrowable, MaxStack: 5, Value: 40},

	"scrap":      {ID: "scrap", Name: "Scrap Metal", Category: CategoryValuable, MaxStack: 20, Value: 5},
	"gold_watch": {ID: "gold_watch", Name: "Gold Watch", Category: CategoryValuable, MaxStack: 1, Value: 150},
	"intel":      {ID: "intel", Name: "Intel Drive", Category: CategoryValuable, MaxStack: 1, Value: 400},
}

// GetItem returns an item definition.
func GetItem(id string) (ItemDef, bool) {
	d, ok := Items[id]
	return d, ok
}

// ammoItemFor returns the ammo item id for an ammo type.
func ammoItemFor(ammoType string) string {
	return "ammo_" + ammoType
}
