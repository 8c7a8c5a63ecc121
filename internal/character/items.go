package character

import (
	"context"
	"fmt"
)

// Macca denominations: plain macca (1 unit each) and a macca note worth
// maccaNoteValue units, grounded on the original's two-item currency
// split (a "break a bill" insert happens when the part of a cost left after
// spending plain macca isn't an exact multiple of the note's value).
const (
	maccaItemID     int32 = 1
	maccaNoteItemID int32 = 2
	maccaNoteValue  int64 = 50000
)

// CalculateMaccaPayment computes which macca/macca-note stacks must be
// consumed to cover cost, potentially breaking one note into change (spec
// §4.6 "calculateMaccaPayment"). It never mutates c; ok=false on
// insufficient funds leaves inserts/deletes/adjusts empty.
//
// Breaking a note writes a WAL entry before returning ok=true: the payment
// is only considered applied once its audit record is durable, so the WAL
// write happens synchronously and its error aborts the payment rather than
// racing it in the background.
func (m *Manager) CalculateMaccaPayment(ctx context.Context, c *Character, cost int64) (inserts, deletes []ItemStack, adjusts []ItemStack, ok bool, err error) {
	if cost <= 0 {
		return nil, nil, nil, true, nil
	}

	var plainTotal, noteTotal int64
	for _, s := range c.Items {
		switch s.ItemID {
		case maccaItemID:
			plainTotal += int64(s.Count)
		case maccaNoteItemID:
			noteTotal += int64(s.Count)
		}
	}

	if plainTotal+noteTotal*maccaNoteValue < cost {
		return nil, nil, nil, false, nil
	}

	usePlain := cost
	if usePlain > plainTotal {
		usePlain = plainTotal
	}
	remaining := cost - usePlain

	if usePlain > 0 {
		adjusts = append(adjusts, ItemStack{ItemID: maccaItemID, Count: -int32(usePlain)})
	}

	if remaining > 0 {
		notesNeeded := (remaining + maccaNoteValue - 1) / maccaNoteValue
		deletes = append(deletes, ItemStack{ItemID: maccaNoteItemID, Count: int32(notesNeeded)})
		change := notesNeeded*maccaNoteValue - remaining
		if change > 0 {
			inserts = append(inserts, ItemStack{ItemID: maccaItemID, Count: int32(change)})
		}
		if m.wal != nil {
			if err := m.wal.WriteWAL(ctx, []WALEntry{{
				TxType: "macca_note_break", ItemID: maccaNoteItemID, Count: int32(notesNeeded),
			}}); err != nil {
				return nil, nil, nil, false, fmt.Errorf("calculate macca payment: write wal: %w", err)
			}
		}
	}

	return inserts, deletes, adjusts, true, nil
}

// UpdateItems applies a batch of inserts/deletes/adjusts in two phases
// (spec §4.6 "updateItems"): dryRun=true only validates capacity (no
// mutation); dryRun=false applies the change and, on success, the caller
// broadcasts the item-box update. Capacity here means the inventory slot
// count, not a persistence concern, so validation is local.
func (m *Manager) UpdateItems(c *Character, dryRun bool, inserts, deletes, adjusts []ItemStack, maxSlots int) bool {
	if len(c.Items)+len(inserts)-len(deletes) > maxSlots {
		return false
	}
	if dryRun {
		return true
	}

	for _, d := range deletes {
		m.removeStack(c, d.ItemID, d.Count)
	}
	for _, a := range adjusts {
		m.adjustStack(c, a.ItemID, a.Count)
	}
	for _, ins := range inserts {
		m.insertStack(c, ins.ItemID, ins.Count)
	}
	return true
}

// AddRemoveItems is a thin convenience wrapper over UpdateItems for
// handlers that don't need the dry-run distinction (e.g. drop pickup,
// quest reward).
func (m *Manager) AddRemoveItems(c *Character, adds, removes []ItemStack, maxSlots int) bool {
	return m.UpdateItems(c, false, adds, removes, nil, maxSlots)
}

// SendItemBoxData snapshots the character's inventory for a full resync
// push to its own client.
func (m *Manager) SendItemBoxData(c *Character) []ItemStack {
	out := make([]ItemStack, len(c.Items))
	copy(out, c.Items)
	return out
}

func (m *Manager) insertStack(c *Character, itemID int32, count int32) {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			c.Items[i].Count += count
			return
		}
	}
	c.Items = append(c.Items, ItemStack{ObjectID: nextObjectID(c), ItemID: itemID, Count: count})
}

func (m *Manager) adjustStack(c *Character, itemID int32, delta int32) {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			c.Items[i].Count += delta
			if c.Items[i].Count <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			}
			return
		}
	}
	if delta > 0 {
		m.insertStack(c, itemID, delta)
	}
}

func (m *Manager) removeStack(c *Character, itemID int32, count int32) {
	m.adjustStack(c, itemID, -count)
}

func nextObjectID(c *Character) int64 {
	var max int64
	for _, s := range c.Items {
		if s.ObjectID > max {
			max = s.ObjectID
		}
	}
	return max + 1
}
