package entity

// StoredEffect is a status effect at rest: its duration expressed relative
// to whenever it is next activated, the representation persisted while an
// entity has no zone (spec §4.2 "status effects deactivated: absolute
// converted back to relative countdowns stored on the durable record").
type StoredEffect struct {
	TypeID        int32
	Stack         uint8
	Group         int32
	Rank          int32
	RemainingSecs int64
}

// DeactivateEffects converts every absolute expiration back to a relative
// countdown from nowSeconds and clears the effects-active bit, without
// discarding the effects themselves (spec §4.2 entity lifecycle: "destroyed
// on disconnect or zone change (status effects deactivated...)").
func (e *Entity) DeactivateEffects(nowSeconds int64) []StoredEffect {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]StoredEffect, 0, len(e.effects))
	for _, eff := range e.effects {
		remaining := eff.ExpiresAt - nowSeconds
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, StoredEffect{
			TypeID:        eff.TypeID,
			Stack:         eff.Stack,
			Group:         eff.Group,
			Rank:          eff.Rank,
			RemainingSecs: remaining,
		})
	}
	e.effectsActive = false
	return out
}

// ActivateEffects restores a set of stored effects, converting each
// relative countdown back to an absolute expiration from nowSeconds, and
// registers the regen schedule (spec §4.5 step 4 "setStatusEffectsActive").
// It returns the smallest absolute next-effect-time key the caller's Zone
// Instance should schedule a wake for.
func (e *Entity) ActivateEffects(stored []StoredEffect, nowSeconds int64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.effects = make(map[int32]*StatusEffect, len(stored))
	e.nextEffectTime = make(map[int64]map[int64]bool)
	e.cancelConditions = make(map[uint8][]int32)
	e.timeDamage = make(map[int32]int32)

	for _, s := range stored {
		eff := &StatusEffect{TypeID: s.TypeID, Stack: s.Stack, Group: s.Group, Rank: s.Rank, ExpiresAt: nowSeconds + s.RemainingSecs}
		e.effects[eff.TypeID] = eff
		e.registerExpirationLocked(eff.TypeID, eff.ExpiresAt)
	}

	e.nextEffectTime[keyRegen] = map[int64]bool{nowSeconds + regenIntervalSeconds: true}
	e.effectsActive = true

	first := true
	var min int64
	for k := range e.nextEffectTime {
		if k == keyRegen {
			continue
		}
		if first || k < min {
			min, first = k, false
		}
	}
	if first {
		return 0
	}
	return min
}
