package entity

import "github.com/dhmanager/channel/internal/data"

// Next-effect-time sentinel keys (spec §4.3 "Next-Effect-Time Registry").
// Reserved keys 1/2/3 track which typeIDs changed since the last drain;
// key 0 is the regen tick. Every other key is an absolute expiration in
// system seconds.
const (
	keyAdded   int64 = 1
	keyUpdated int64 = 2
	keyRemoved int64 = 3
	keyRegen   int64 = 0

	regenIntervalSeconds int64 = 10
)

// StatusEffect is one active status on an Entity.
type StatusEffect struct {
	TypeID    int32
	Stack     uint8
	ExpiresAt int64 // absolute system seconds; meaningless for effects whose duration never elapses this way (see DurationType handling in computeExpiration)
	Group     int32
	Rank      int32
}

// StatusRequest is one entry of an addStatusEffects call.
type StatusRequest struct {
	TypeID    int32
	Stack     uint8
	IsReplace bool
}

// AddStatusEffects applies a batch of status-effect requests (spec §4.3
// "addStatusEffects"). nowSeconds is the current system time in seconds,
// used for expiration math.
func (e *Entity) AddStatusEffects(reqs []StatusRequest, defs *data.Registry, nowSeconds int64) (added, updated, removed []int32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, req := range reqs {
		def, ok := defs.Statuses.Lookup(req.TypeID)
		if !ok {
			continue // definition miss: silent no-op, spec §7
		}

		if def.Group != 0 {
			if blocked := e.applyGroupRankLocked(def); blocked {
				continue
			}
		} else if e.applyInverseCancelLocked(req, def, defs) {
			continue
		}

		existing, has := e.effects[req.TypeID]
		newStack, resetExpiration, updatedExisting := mergeApplicationLogic(def, has, existing, req)

		if def.MaxStack > 0 && newStack > def.MaxStack {
			newStack = def.MaxStack
		}
		if newStack == 0 && has {
			e.removeEffectLocked(req.TypeID)
			continue
		}

		eff := &StatusEffect{TypeID: req.TypeID, Stack: newStack, Group: def.Group, Rank: def.Rank}
		if resetExpiration || !has {
			eff.ExpiresAt = computeExpiration(def, newStack, nowSeconds)
		} else {
			eff.ExpiresAt = existing.ExpiresAt
		}
		e.installEffectLocked(def, eff, resetExpiration || !has)

		if !has {
			e.registerSentinelLocked(keyAdded, req.TypeID)
		} else if updatedExisting || resetExpiration {
			e.registerSentinelLocked(keyUpdated, req.TypeID)
		}
	}

	e.registerSmallestLocked()
	return e.drainSentinels()
}

// applyGroupRankLocked enforces the group/rank precedence rule: an existing
// member of the same group with a higher rank than the incoming effect
// blocks insertion; otherwise (same or lower rank) the existing member is
// removed. Returns true if the
// incoming effect was blocked.
func (e *Entity) applyGroupRankLocked(def data.StatusEffectDef) bool {
	for id, existing := range e.effects {
		if existing.Group != def.Group {
			continue
		}
		if existing.Rank > def.Rank {
			return true
		}
		e.removeEffectLocked(id)
		return false
	}
	return false
}

// applyInverseCancelLocked tests req against every ungrouped existing
// effect for the inverse-cancellation relationship (spec P7) and, if
// found, applies the cancellation instead of a normal insert. Returns true
// if req was fully consumed by cancellation (caller should not also
// insert/update).
func (e *Entity) applyInverseCancelLocked(req StatusRequest, def data.StatusEffectDef, defs *data.Registry) bool {
	for id, existing := range e.effects {
		if existing.Group != 0 {
			continue
		}
		existingDef, ok := defs.Statuses.Lookup(id)
		if !ok || !inverseCancelPair(def, existingDef) {
			continue
		}

		switch {
		case req.Stack == existing.Stack:
			e.removeEffectLocked(id)
		case req.Stack < existing.Stack:
			existing.Stack -= req.Stack
			e.registerSentinelLocked(keyUpdated, id)
		default:
			remaining := req.Stack - existing.Stack
			e.removeEffectLocked(id)
			eff := &StatusEffect{TypeID: req.TypeID, Stack: remaining, Group: def.Group, Rank: def.Rank}
			// Remaining stack is applied as a fresh insert.
			e.installEffectLocked(def, eff, true)
			e.registerSentinelLocked(keyAdded, req.TypeID)
		}
		return true
	}
	return false
}

// inverseCancelPair reports whether a and b's correct-table entries are
// exact sign mirrors of one another (spec P7): same set of stat IDs, every
// entry nonzero, and b's value at each ID is the negation of a's.
func inverseCancelPair(a, b data.StatusEffectDef) bool {
	if len(a.CorrectTable) == 0 || len(b.CorrectTable) == 0 {
		return false
	}
	if len(a.CorrectTable) != len(b.CorrectTable) {
		return false
	}
	for stat, av := range a.CorrectTable {
		if av == 0 {
			return false
		}
		bv, ok := b.CorrectTable[stat]
		if !ok || bv != -av {
			return false
		}
	}
	return true
}

// mergeApplicationLogic computes the post-merge stack and whether
// expiration should reset, per applicationLogic 0-3 (spec §4.3).
func mergeApplicationLogic(def data.StatusEffectDef, has bool, existing *StatusEffect, req StatusRequest) (stack uint8, resetExpiration, updated bool) {
	if !has {
		return req.Stack, true, false
	}

	switch def.ApplicationLogic {
	case 0:
		if req.IsReplace && (req.Stack == 0 || existing.Stack < req.Stack) {
			return req.Stack, true, true
		}
		return existing.Stack, false, false

	case 1:
		if req.IsReplace {
			return req.Stack, def.StackType == 1, true
		}
		return addStack(existing.Stack, req.Stack), def.StackType == 1, true

	case 2:
		if req.IsReplace {
			return req.Stack, true, true
		}
		return addStack(existing.Stack, req.Stack), true, true

	case 3:
		return req.Stack, true, true

	default:
		return existing.Stack, false, false
	}
}

func addStack(a, b uint8) uint8 {
	sum := int(a) + int(b)
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}

// computeExpiration converts a status effect's definition duration into an
// absolute system-second deadline (spec §4.3 "Expiration computation").
func computeExpiration(def data.StatusEffectDef, stack uint8, nowSeconds int64) int64 {
	mult := int64(1)
	if def.StackType == 1 {
		mult = int64(stack)
	}
	switch def.DurationType {
	case "MS", "MS_SET":
		return nowSeconds + (def.Duration*mult)/1000
	case "HOUR":
		return nowSeconds + def.Duration*mult*3600
	case "DAY", "DAY_SET":
		return nowSeconds + def.Duration*mult*86400
	default:
		return nowSeconds
	}
}

// installEffectLocked stores eff, wires its cancel-flag and time-damage
// indices, and registers its expiration key. resetTimer controls whether
// the old expiration bucket (if any) is cleaned up and a new one added.
func (e *Entity) installEffectLocked(def data.StatusEffectDef, eff *StatusEffect, resetTimer bool) {
	if old, has := e.effects[eff.TypeID]; has && resetTimer && old.ExpiresAt != eff.ExpiresAt {
		e.unregisterExpirationLocked(old.TypeID, old.ExpiresAt)
	}
	e.effects[eff.TypeID] = eff

	for bit := uint8(0); bit < 8; bit++ {
		mask := uint8(1) << bit
		if def.CancelFlags&mask == 0 {
			continue
		}
		ids := e.cancelConditions[mask]
		found := false
		for _, id := range ids {
			if id == eff.TypeID {
				found = true
				break
			}
		}
		if !found {
			e.cancelConditions[mask] = append(ids, eff.TypeID)
		}
	}

	if def.TimeDamage != 0 {
		e.timeDamage[eff.TypeID] = def.TimeDamage
	} else {
		delete(e.timeDamage, eff.TypeID)
	}

	if resetTimer {
		e.registerExpirationLocked(eff.TypeID, eff.ExpiresAt)
	}
}

func (e *Entity) registerExpirationLocked(typeID int32, absTime int64) {
	bucket := e.nextEffectTime[absTime]
	if bucket == nil {
		bucket = make(map[int64]bool)
		e.nextEffectTime[absTime] = bucket
	}
	bucket[int64(typeID)] = true
}

func (e *Entity) unregisterExpirationLocked(typeID int32, absTime int64) {
	bucket, ok := e.nextEffectTime[absTime]
	if !ok {
		return
	}
	delete(bucket, int64(typeID))
	if len(bucket) == 0 {
		delete(e.nextEffectTime, absTime)
	}
}

func (e *Entity) registerSentinelLocked(key int64, typeID int32) {
	bucket := e.nextEffectTime[key]
	if bucket == nil {
		bucket = make(map[int64]bool)
		e.nextEffectTime[key] = bucket
	}
	bucket[int64(typeID)] = true
}

// registerSmallestLocked informs the owning Zone Instance of this entity's
// earliest pending next-effect-time, per spec §4.3 "The entity registers
// its smallest key with its Zone Instance so the instance can schedule a
// wake."
func (e *Entity) registerSmallestLocked() {
	if e.zone == nil {
		return
	}
	first := true
	var min int64
	for k := range e.nextEffectTime {
		if k == keyRegen {
			continue // regen recurs on a fixed cadence, not a wake target
		}
		if first || k < min {
			min, first = k, false
		}
	}
	if first {
		e.zone.SetNextStatusEffectTime(0, e.ID)
		return
	}
	e.zone.SetNextStatusEffectTime(min, e.ID)
}

// removeEffectLocked deletes typeID from every index and records its
// removal for the next drain.
func (e *Entity) removeEffectLocked(typeID int32) {
	eff, ok := e.effects[typeID]
	if !ok {
		return
	}
	delete(e.effects, typeID)
	delete(e.timeDamage, typeID)
	e.unregisterExpirationLocked(typeID, eff.ExpiresAt)

	for bit, ids := range e.cancelConditions {
		out := ids[:0]
		for _, id := range ids {
			if id != typeID {
				out = append(out, id)
			}
		}
		if len(out) == 0 {
			delete(e.cancelConditions, bit)
		} else {
			e.cancelConditions[bit] = out
		}
	}

	e.registerSentinelLocked(keyRemoved, typeID)
}

// CancelStatusEffects removes every effect whose cancel-flag set
// intersects flags (spec §4.3 "cancelStatusEffects").
func (e *Entity) CancelStatusEffects(flags uint8) (removed []int32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[int32]bool)
	for bit := uint8(0); bit < 8; bit++ {
		mask := uint8(1) << bit
		if flags&mask == 0 {
			continue
		}
		for _, id := range append([]int32(nil), e.cancelConditions[mask]...) {
			if seen[id] {
				continue
			}
			seen[id] = true
			e.removeEffectLocked(id)
		}
	}
	e.registerSmallestLocked()
	_, _, removed = e.drainSentinels()
	return removed
}

// ExpireStatusEffects removes exactly the given type IDs (spec §4.3
// "expireStatusEffects(set)").
func (e *Entity) ExpireStatusEffects(types []int32) (removed []int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range types {
		e.removeEffectLocked(id)
	}
	e.registerSmallestLocked()
	_, _, removed = e.drainSentinels()
	return removed
}

// drainSentinels pops the added/updated/removed sentinel buckets and
// returns their contents. Internal helper shared by AddStatusEffects,
// CancelStatusEffects, and ExpireStatusEffects so every mutator reports the
// same way PopEffectTicks does for its own sentinel drains.
func (e *Entity) drainSentinels() (added, updated, removed []int32) {
	added = popBucket(e.nextEffectTime, keyAdded)
	updated = popBucket(e.nextEffectTime, keyUpdated)
	removed = popBucket(e.nextEffectTime, keyRemoved)
	return added, updated, removed
}

func popBucket(m map[int64]map[int64]bool, key int64) []int32 {
	bucket, ok := m[key]
	if !ok {
		return nil
	}
	out := make([]int32, 0, len(bucket))
	for id := range bucket {
		out = append(out, int32(id))
	}
	delete(m, key)
	return out
}

// PopEffectTicks drains every due key (spec §4.3 "Effect tick drain").
// nowSeconds is the current system time in seconds. hpT/mpT accumulate the
// regen-tick's HP_REGEN/MP_REGEN contribution (negated, since positive
// regen reduces net damage) plus every active time-damage effect's
// contribution for that one window.
func (e *Entity) PopEffectTicks(nowSeconds int64) (hpT, mpT int32, added, updated, removed []int32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.nextEffectTime[keyRegen]; !ok {
		hpT, mpT = e.accumulateRegenLocked(hpT, mpT)
		e.nextEffectTime[keyRegen] = map[int64]bool{nowSeconds + regenIntervalSeconds: true}
	}

	for {
		var due []int64
		for k := range e.nextEffectTime {
			if k == keyRegen {
				continue
			}
			if k <= nowSeconds {
				due = append(due, k)
			}
		}
		if len(due) == 0 {
			break
		}

		for _, k := range due {
			switch k {
			case keyAdded:
				added = append(added, popBucket(e.nextEffectTime, k)...)
			case keyUpdated:
				updated = append(updated, popBucket(e.nextEffectTime, k)...)
			case keyRemoved:
				removed = append(removed, popBucket(e.nextEffectTime, k)...)
			default:
				for id := range e.nextEffectTime[k] {
					typeID := int32(id)
					if eff, ok := e.effects[typeID]; ok && eff.ExpiresAt == k {
						delete(e.effects, typeID)
						delete(e.timeDamage, typeID)
						for bit, ids := range e.cancelConditions {
							out := ids[:0]
							for _, i := range ids {
								if i != typeID {
									out = append(out, i)
								}
							}
							if len(out) == 0 {
								delete(e.cancelConditions, bit)
							} else {
								e.cancelConditions[bit] = out
							}
						}
						removed = append(removed, typeID)
					}
				}
				delete(e.nextEffectTime, k)
			}
		}

		if regenDue, ok := e.nextEffectTime[keyRegen]; ok {
			for k := range regenDue {
				if k <= nowSeconds {
					hpT, mpT = e.accumulateRegenLocked(hpT, mpT)
					delete(e.nextEffectTime, keyRegen)
					next := k + regenIntervalSeconds
					e.nextEffectTime[keyRegen] = map[int64]bool{next: true}
				}
			}
		}
	}

	e.registerSmallestLocked()
	return hpT, mpT, added, updated, removed
}

func (e *Entity) accumulateRegenLocked(hpT, mpT int32) (int32, int32) {
	hpT -= e.stats[StatHPRegen]
	mpT -= e.stats[StatMPRegen]
	for _, dmg := range e.timeDamage {
		hpT += dmg
	}
	return hpT, mpT
}
