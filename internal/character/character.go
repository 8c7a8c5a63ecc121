// Package character implements the Character Manager: cross-entity
// operations initiated by client intent (equip, HP/MP and currency
// updates, demon contract/summon) that drive into an Active Entity's
// RecalculateStats and the Zone Instance's broadcast.
package character

import (
	"context"

	"github.com/dhmanager/channel/internal/data"
	"github.com/dhmanager/channel/internal/entity"
	"github.com/dhmanager/channel/internal/zone"
	"go.uber.org/zap"
)

// ItemStack is an inventory entry. ObjectID identifies the physical stack
// (stable across moves/splits); ItemID names the template in the
// Definition Registry.
type ItemStack struct {
	ObjectID int64
	ItemID   int32
	Count    int32
}

// EquipSlot names an equippable item position.
type EquipSlot int

const (
	SlotWeapon EquipSlot = iota
	SlotArmor
	SlotAccessory1
	SlotAccessory2
	slotCount
)

// Character is the durable, per-account play entity: its Active Entity
// plus inventory, equipment, and partner-demon roster state the Character
// Manager operates on.
type Character struct {
	Entity *entity.Entity
	UUID   string

	Items    []ItemStack
	Equipped [slotCount]int64 // 0 = empty; otherwise an Items[].ObjectID

	LNC int32 // lawful/neutral/chaotic alignment value

	Demons       []DemonInstance
	SummonedSlot int // index into Demons, -1 = none summoned
}

// DemonInstance is one partner demon owned by a Character, stored (not
// summoned) unless it occupies SummonedSlot.
type DemonInstance struct {
	UUID   string
	DemonID int32
	Level  int16
	Entity *entity.Entity // nil unless currently summoned into a zone
}

// WAL is the economic write-ahead log collaborator (internal/persist.WALRepo)
// that currency-moving operations audit through before the in-memory state
// is considered final. Kept as a narrow interface so this package doesn't
// import internal/persist.
type WAL interface {
	WriteWAL(ctx context.Context, entries []WALEntry) error
}

// WALEntry mirrors persist.WALEntry's shape for the one transaction type
// the Character Manager itself originates: breaking a macca note for
// change.
type WALEntry struct {
	TxType     string
	FromChar   int32
	ToChar     int32
	ItemID     int32
	Count      int32
	EnchantLvl int16
	GoldAmount int64
}

// Manager is the Character Manager: the collaborator packet handlers call
// into for every client-intent operation that crosses from inventory/
// currency state into Active Entity stat recalculation and zone broadcast.
type Manager struct {
	defs  *data.Registry
	zones *zone.Manager
	log   *zap.Logger
	wal   WAL
}

func NewManager(defs *data.Registry, zones *zone.Manager, log *zap.Logger) *Manager {
	return &Manager{defs: defs, zones: zones, log: log}
}

// SetWAL wires the economic audit log. Optional: a Manager with no WAL set
// simply skips auditing (used in tests).
func (m *Manager) SetWAL(w WAL) {
	m.wal = w
}

// NewCharacter wraps an already-constructed Active Entity with the
// inventory/equipment/demon-roster state the Character Manager operates
// on.
func NewCharacter(uuid string, e *entity.Entity) *Character {
	e.SetUUID(uuid)
	return &Character{Entity: e, UUID: uuid, SummonedSlot: -1}
}

// equipmentAdjustments gathers correct-table entries from every equipped
// item's ItemDef. The definition's NRA flag is not consulted and entries
// are not split here; RecalculateStats routes each entry to the NRA or
// non-NRA pass by its stat index. All equipment entries are modeled as flat
// deltas; the
// original's percentage-typed equipment bonuses are binary-.sbin content
// this registry doesn't load (see DESIGN.md).
func (m *Manager) equipmentAdjustments(c *Character) []entity.Adjustment {
	var out []entity.Adjustment
	for _, objID := range c.Equipped {
		if objID == 0 {
			continue
		}
		stack, ok := m.findStack(c, objID)
		if !ok {
			continue
		}
		def, ok := m.defs.Items.Lookup(stack.ItemID)
		if !ok {
			continue
		}
		for stat, value := range def.CorrectTable {
			out = append(out, entity.Adjustment{Stat: entity.Stat(stat), Type: entity.AdjustFlat, Value: value})
		}
	}
	return out
}

func (m *Manager) findStack(c *Character, objectID int64) (*ItemStack, bool) {
	for i := range c.Items {
		if c.Items[i].ObjectID == objectID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// SendCharacterData is the entry point packet handlers call right after
// zone entry to push the character's full state to its own client. The
// core leaves framing to internal/net; this just snapshots what needs
// sending.
func (m *Manager) SendCharacterData(c *Character) (hp, mp, maxHP, maxMP int32, stats entity.CorrectTable) {
	hp, mp = c.Entity.HPMP()
	stats = c.Entity.Stats()
	return hp, mp, stats[entity.StatHPMax], stats[entity.StatMPMax], stats
}

// UpdateLNC adjusts the character's lawful/neutral/chaotic alignment by
// delta and returns the new value.
func (m *Manager) UpdateLNC(c *Character, delta int32) int32 {
	c.LNC += delta
	return c.LNC
}
