package character

import (
	"fmt"

	"github.com/dhmanager/channel/internal/core/clock"
	"github.com/dhmanager/channel/internal/entity"
	"github.com/google/uuid"
)

// ContractDemon adds a new partner demon to the character's roster from a
// demon definition, generating its durable UUID (spec's durable-UUID
// requirement; see DESIGN.md "google/uuid").
func (m *Manager) ContractDemon(c *Character, demonID int32) (*DemonInstance, error) {
	def, ok := m.defs.Demons.Lookup(demonID)
	if !ok {
		return nil, fmt.Errorf("contract demon: unknown demon id %d", demonID)
	}

	d := DemonInstance{
		UUID:    uuid.NewString(),
		DemonID: def.ID,
		Level:   def.Level,
	}
	c.Demons = append(c.Demons, d)
	return &c.Demons[len(c.Demons)-1], nil
}

// SummonDemon activates demonUUID into the character's current zone,
// creating its Active Entity alongside the character's own.
func (m *Manager) SummonDemon(c *Character, demonUUID string, now clock.ServerTime) (*entity.Entity, error) {
	idx := m.demonIndex(c, demonUUID)
	if idx < 0 {
		return nil, fmt.Errorf("summon demon: %s not owned", demonUUID)
	}
	if c.SummonedSlot >= 0 {
		m.storeDemonAt(c, c.SummonedSlot)
	}

	def, ok := m.defs.Demons.Lookup(c.Demons[idx].DemonID)
	if !ok {
		return nil, fmt.Errorf("summon demon: definition %d missing", c.Demons[idx].DemonID)
	}

	x, y, rot := c.Entity.Position()
	maxHP := def.BaseHP
	maxMP := def.BaseMP
	e := entity.New(entity.NextID(), entity.KindPartnerDemon, x, y, rot, now, maxHP, maxMP)
	e.SetUUID(c.Demons[idx].UUID)
	e.SetCurrentSkills(def.LearnedSkills)

	c.Demons[idx].Entity = e
	c.SummonedSlot = idx

	return e, nil
}

// StoreDemon deactivates the currently summoned demon, removing its
// Active Entity.
func (m *Manager) StoreDemon(c *Character) {
	if c.SummonedSlot < 0 {
		return
	}
	m.storeDemonAt(c, c.SummonedSlot)
}

func (m *Manager) storeDemonAt(c *Character, idx int) {
	c.Demons[idx].Entity = nil
	if c.SummonedSlot == idx {
		c.SummonedSlot = -1
	}
}

func (m *Manager) demonIndex(c *Character, demonUUID string) int {
	for i := range c.Demons {
		if c.Demons[i].UUID == demonUUID {
			return i
		}
	}
	return -1
}
