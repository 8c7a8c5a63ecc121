package character

import "github.com/dhmanager/channel/internal/entity"

// EquipItem equips the stack at objectID into its item's slot, unequipping
// whatever already occupies that slot, then recalculates stats and
// reports the change tier to propagate (spec §4.6 "Equip/unequip drive a
// recalculateStats and propagate the returned change bits").
func (m *Manager) EquipItem(c *Character, objectID int64, level int16, dependent entity.DependentStatsFunc) (entity.ChangeFlags, bool) {
	stack, ok := m.findStack(c, objectID)
	if !ok {
		return 0, false
	}
	def, ok := m.defs.Items.Lookup(stack.ItemID)
	if !ok || def.Slot < 0 || def.Slot >= int(slotCount) {
		return 0, false
	}

	slot := EquipSlot(def.Slot)
	if c.Equipped[slot] != 0 {
		c.Equipped[slot] = 0
	}
	c.Equipped[slot] = objectID

	return m.recalc(c, level, dependent), true
}

// UnequipItem clears whatever occupies slot and recalculates stats.
func (m *Manager) UnequipItem(c *Character, slot EquipSlot, level int16, dependent entity.DependentStatsFunc) entity.ChangeFlags {
	if slot < 0 || slot >= slotCount {
		return 0
	}
	c.Equipped[slot] = 0
	return m.recalc(c, level, dependent)
}

func (m *Manager) recalc(c *Character, level int16, dependent entity.DependentStatsFunc) entity.ChangeFlags {
	base := baseStatTable(c)
	adjustments := m.equipmentAdjustments(c)
	return c.Entity.RecalculateStats(base, adjustments, level, dependent, false)
}

// baseStatTable seeds the correct-table from the character's unmodified
// base stats before any equipment/skill/status adjustment is applied.
// Nothing in this package builds a Demon/Enemy table from data.DemonDef
// (SummonDemon only takes BaseHP/BaseMP from it as maxima); Character's
// own base-stat source (strength/vitality/etc at character creation plus
// level-up growth) lives in the persistence layer, out of scope here, so
// this takes whatever the entity last published as its floor.
func baseStatTable(c *Character) entity.CorrectTable {
	return c.Entity.Stats()
}
