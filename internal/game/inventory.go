package game

// HotbarSlots is the number of hotbar bindings.
const HotbarSlots = 5

// EquipSlot names an equipment slot.
type EquipSlot int

const (
	SlotPrimary EquipSlot = iota
	SlotSecondary
	SlotArmor
	SlotHelmet
)

// ItemStack is a quantity of one item. Mag and Durability are per-instance
// state for weapons and armor and prevent merging.
type ItemStack struct {
	Def        string  `json:"def"`
	Qty        int     `json:"qty"`
	Mag        int     `json:"mag,omitempty"`
	Durability float64 `json:"durability,omitempty"`
}

// Clone returns a copy of the stack, or nil.
func (s *ItemStack) Clone() *ItemStack {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *ItemStack) maxStack() int {
	if d, ok := Items[s.Def]; ok && d.MaxStack > 0 {
		return d.MaxStack
	}
	return 1
}

// Equipment holds the equipped items.
type Equipment struct {
	Weapons [2]*ItemStack `json:"weapons"`
	Armor   *ItemStack    `json:"armor"`
	Helmet  *ItemStack    `json:"helmet"`
}

// Inventory is equipment, hotbar bindings and a fixed-length backpack.
// Hotbar entries reference item definitions, not stacks.
type Inventory struct {
	Equipment Equipment           `json:"equipment"`
	Hotbar    [HotbarSlots]string `json:"hotbar"`
	Backpack  []*ItemStack        `json:"backpack"`
}

// NewInventory returns an empty inventory with the given backpack size.
func NewInventory(slots int) *Inventory {
	return &Inventory{Backpack: make([]*ItemStack, slots)}
}

// Clone returns a deep copy.
func (inv *Inventory) Clone() *Inventory {
	if inv == nil {
		return nil
	}
	c := &Inventory{
		Hotbar:   inv.Hotbar,
		Backpack: make([]*ItemStack, len(inv.Backpack)),
	}
	c.Equipment.Weapons[0] = inv.Equipment.Weapons[0].Clone()
	c.Equipment.Weapons[1] = inv.Equipment.Weapons[1].Clone()
	c.Equipment.Armor = inv.Equipment.Armor.Clone()
	c.Equipment.Helmet = inv.Equipment.Helmet.Clone()
	for i, s := range inv.Backpack {
		c.Backpack[i] = s.Clone()
	}
	return c
}

// Resize grows the backpack to n slots. It never drops items.
func (inv *Inventory) Resize(n int) {
	if n > len(inv.Backpack) {
		grown := make([]*ItemStack, n)
		copy(grown, inv.Backpack)
		inv.Backpack = grown
	}
}

func stackable(s *ItemStack) bool {
	return s.maxStack() > 1
}

// Add stores qty of an item, merging into existing stacks first and then
// using free slots. It returns the quantity that did not fit.
func (inv *Inventory) Add(def string, qty int) int {
	if qty <= 0 {
		return 0
	}
	d, ok := Items[def]
	if !ok {
		return qty
	}
	max := d.MaxStack
	if max < 1 {
		max = 1
	}

	if max > 1 {
		for _, s := range inv.Backpack {
			if qty == 0 {
				return 0
			}
			if s == nil || s.Def != def || s.Qty >= max {
				continue
			}
			n := min(max-s.Qty, qty)
			s.Qty += n
			qty -= n
		}
	}

	for i, s := range inv.Backpack {
		if qty == 0 {
			return 0
		}
		if s != nil {
			continue
		}
		n := min(max, qty)
		ns := &ItemStack{Def: def, Qty: n}
		if d.Category == CategoryArmor || d.Category == CategoryHelmet {
			ns.Durability = d.Durability
		}
		if w, ok := Weapons[def]; ok {
			ns.Mag = w.MagSize
		}
		inv.Backpack[i] = ns
		qty -= n
	}
	return qty
}

// AddStack stores a stack, keeping per-instance state for unstackable
// items. It returns the quantity left over (the stack is updated in place).
func (inv *Inventory) AddStack(s *ItemStack) int {
	if s == nil || s.Qty <= 0 {
		return 0
	}
	if stackable(s) {
		left := inv.Add(s.Def, s.Qty)
		s.Qty = left
		return left
	}
	for i, slot := range inv.Backpack {
		if slot == nil {
			inv.Backpack[i] = s.Clone()
			s.Qty = 0
			return 0
		}
	}
	return s.Qty
}

// Count returns the total quantity of an item in the backpack.
func (inv *Inventory) Count(def string) int {
	n := 0
	for _, s := range inv.Backpack {
		if s != nil && s.Def == def {
			n += s.Qty
		}
	}
	return n
}

// Remove takes up to qty of an item from the backpack, last slot first, and
// returns how many were removed.
func (inv *Inventory) Remove(def string, qty int) int {
	removed := 0
	for i := len(inv.Backpack) - 1; i >= 0 && removed < qty; i-- {
		s := inv.Backpack[i]
		if s == nil || s.Def != def {
			continue
		}
		n := min(s.Qty, qty-removed)
		s.Qty -= n
		removed += n
		if s.Qty == 0 {
			inv.Backpack[i] = nil
		}
	}
	return removed
}

// CountAmmo returns the rounds available for an ammo type.
func (inv *Inventory) CountAmmo(ammoType string) int {
	return inv.Count(ammoItemFor(ammoType))
}

// PullAmmo removes up to need rounds of an ammo type and returns how many
// were taken. Zero means no matching ammunition.
func (inv *Inventory) PullAmmo(ammoType string, need int) int {
	if need <= 0 {
		return 0
	}
	return inv.Remove(ammoItemFor(ammoType), need)
}

// FreeSlots returns the number of empty backpack slots.
func (inv *Inventory) FreeSlots() int {
	n := 0
	for _, s := range inv.Backpack {
		if s == nil {
			n++
		}
	}
	return n
}

func (inv *Inventory) validIndex(i int) bool {
	return i >= 0 && i < len(inv.Backpack)
}

func (inv *Inventory) slotRef(slot EquipSlot) **ItemStack {
	switch slot {
	case SlotPrimary:
		return &inv.Equipment.Weapons[0]
	case SlotSecondary:
		return &inv.Equipment.Weapons[1]
	case SlotArmor:
		return &inv.Equipment.Armor
	case SlotHelmet:
		return &inv.Equipment.Helmet
	}
	return nil
}

func slotCategory(slot EquipSlot) ItemCategory {
	switch slot {
	case SlotArmor:
		return CategoryArmor
	case SlotHelmet:
		return CategoryHelmet
	default:
		return CategoryWeapon
	}
}

// Equip moves the stack in backpack slot idx into an equipment slot,
// swapping any equipped item back into idx. The item's category must match
// the slot.
func (inv *Inventory) Equip(idx int, slot EquipSlot) bool {
	ref := inv.slotRef(slot)
	if ref == nil || !inv.validIndex(idx) {
		return false
	}
	s := inv.Backpack[idx]
	if s == nil {
		return false
	}
	d, ok := Items[s.Def]
	if !ok || d.Category != slotCategory(slot) {
		return false
	}
	inv.Backpack[idx], *ref = *ref, s
	return true
}

// Unequip moves an equipped item into the first free backpack slot.
func (inv *Inventory) Unequip(slot EquipSlot) bool {
	ref := inv.slotRef(slot)
	if ref == nil || *ref == nil {
		return false
	}
	for i, s := range inv.Backpack {
		if s == nil {
			inv.Backpack[i] = *ref
			*ref = nil
			return true
		}
	}
	return false
}

// Move moves a stack between backpack slots: into an empty slot, merging
// into a matching stack (overflow stays behind), or swapping otherwise.
func (inv *Inventory) Move(from, to int) bool {
	if !inv.validIndex(from) || !inv.validIndex(to) || from == to {
		return false
	}
	src, dst := inv.Backpack[from], inv.Backpack[to]
	if src == nil {
		return false
	}
	switch {
	case dst == nil:
		inv.Backpack[to], inv.Backpack[from] = src, nil
	case dst.Def == src.Def && stackable(src):
		n := min(dst.maxStack()-dst.Qty, src.Qty)
		if n <= 0 {
			inv.Backpack[to], inv.Backpack[from] = src, dst
			return true
		}
		dst.Qty += n
		src.Qty -= n
		if src.Qty == 0 {
			inv.Backpack[from] = nil
		}
	default:
		inv.Backpack[to], inv.Backpack[from] = src, dst
	}
	return true
}

// Split moves qty from the stack at idx into the first empty slot.
func (inv *Inventory) Split(idx, qty int) bool {
	if !inv.validIndex(idx) {
		return false
	}
	s := inv.Backpack[idx]
	if s == nil || qty <= 0 || qty >= s.Qty {
		return false
	}
	for i, slot := range inv.Backpack {
		if slot == nil {
			inv.Backpack[i] = &ItemStack{Def: s.Def, Qty: qty}
			s.Qty -= qty
			return true
		}
	}
	return false
}

// BindHotbar binds an item definition to a hotbar index (0-based). An empty
// def clears the binding.
func (inv *Inventory) BindHotbar(index int, def string) bool {
	if index < 0 || index >= HotbarSlots {
		return false
	}
	if def != "" {
		if _, ok := Items[def]; !ok {
			return false
		}
	}
	inv.Hotbar[index] = def
	return true
}

// Value sums the catalogue value of everything carried.
func (inv *Inventory) Value() int {
	total := 0
	add := func(s *ItemStack) {
		if s == nil {
			return
		}
		if d, ok := Items[s.Def]; ok {
			total += d.Value * s.Qty
		}
	}
	for _, s := range inv.Equipment.Weapons {
		add(s)
	}
	add(inv.Equipment.Armor)
	add(inv.Equipment.Helmet)
	for _, s := range inv.Backpack {
		add(s)
	}
	return total
}

// LoadoutItem is a starting backpack entry.
type LoadoutItem struct {
	Item string `json:"item"`
	Qty  int    `json:"qty"`
}

// Loadout is the starting kit of a run.
type Loadout struct {
	Primary   string              `json:"primary"`
	Secondary string              `json:"secondary"`
	Armor     string              `json:"armor,omitempty"`
	Helmet    string              `json:"helmet,omitempty"`
	Backpack  []LoadoutItem       `json:"backpack,omitempty"`
	Hotbar    [HotbarSlots]string `json:"hotbar"`
	Grenades  int                 `json:"grenades"`
}

// DefaultLoadout returns the stock kit for a mode.
func DefaultLoadout(mode Mode) Loadout {
	if mode == ModeExtraction {
		return Loadout{
			Primary:   "rifle",
			Secondary: "pistol",
			Armor:     "vest_light",
			Backpack: []LoadoutItem{
				{Item: "ammo_556", Qty: 90},
				{Item: "ammo_9mm", Qty: 36},
				{Item: "bandage", Qty: 3},
				{Item: "medkit", Qty: 1},
			},
			Hotbar:   [HotbarSlots]string{"bandage", "medkit", "armor_plate", "frag", ""},
			Grenades: 1,
		}
	}
	return Loadout{
		Primary:   "rifle",
		Secondary: "shotgun",
		Backpack: []LoadoutItem{
			{Item: "bandage", Qty: 2},
			{Item: "medkit", Qty: 1},
		},
		Hotbar:   [HotbarSlots]string{"bandage", "medkit", "", "", ""},
		Grenades: 0, // config StartingAmmo
	}
}

// buildInventory materializes a loadout. Unknown or miscategorized entries
// are skipped.
func buildInventory(l Loadout, slots int) *Inventory {
	inv := NewInventory(slots)
	equip := func(def string, slot EquipSlot) {
		d, ok := Items[def]
		if !ok || d.Category != slotCategory(slot) {
			return
		}
		s := &ItemStack{Def: def, Qty: 1}
		if w, ok := Weapons[def]; ok {
			s.Mag = w.MagSize
		}
		if d.Durability > 0 {
			s.Durability = d.Durability
		}
		*inv.slotRef(slot) = s
	}
	equip(l.Primary, SlotPrimary)
	equip(l.Secondary, SlotSecondary)
	equip(l.Armor, SlotArmor)
	equip(l.Helmet, SlotHelmet)
	for _, it := range l.Backpack {
		inv.Add(it.Item, it.Qty)
	}
	for i, def := range l.Hotbar {
		inv.BindHotbar(i, def)
	}
	return inv
}

// MaxInventoryCommands bounds the inventory commands applied in one tick.
const MaxInventoryCommands = 8

// InventoryOp names an inventory command.
type InventoryOp string

const (
	InvMove    InventoryOp = "move"
	InvSplit   InventoryOp = "split"
	InvEquip   InventoryOp = "equip"
	InvUnequip InventoryOp = "unequip"
	InvBind    InventoryOp = "bind"
)

// InventoryCommand is one player-issued inventory change. From and To are
// backpack indices; Hotbar is 1-based like Input.HotbarUse.
type InventoryCommand struct {
	Op     InventoryOp `json:"op" msgpack:"op"`
	From   int         `json:"from,omitempty" msgpack:"f,omitempty"`
	To     int         `json:"to,omitempty" msgpack:"t,omitempty"`
	Qty    int         `json:"qty,omitempty" msgpack:"q,omitempty"`
	Slot   EquipSlot   `json:"slot,omitempty" msgpack:"s,omitempty"`
	Hotbar int         `json:"hotbar,omitempty" msgpack:"hb,omitempty"`
	Def    string      `json:"def,omitempty" msgpack:"d,omitempty"`
}

// Apply runs the command against inv and reports whether it changed.
func (c InventoryCommand) Apply(inv *Inventory) bool {
	switch c.Op {
	case InvMove:
		return inv.Move(c.From, c.To)
	case InvSplit:
		return inv.Split(c.From, c.Qty)
	case InvEquip:
		return inv.Equip(c.From, c.Slot)
	case InvUnequip:
		return inv.Unequip(c.Slot)
	case InvBind:
		return inv.BindHotbar(c.Hotbar-1, c.Def)
	}
	return false
}

// applyInventory runs the tick's inventory commands. The inventory is locked
// while a reload or heal is in progress since both draw from the backpack.
func (g *Game) applyInventory(in Input) {
	p := g.State.Player
	if len(in.Inventory) == 0 || p.Inventory == nil || p.Reload.Active || p.Heal.Active {
		return
	}
	for i, c := range in.Inventory {
		if i == MaxInventoryCommands {
			break
		}
		if c.Apply(p.Inventory) {
			g.State.emit(InventoryChanged{Op: c.Op})
		}
	}
}
