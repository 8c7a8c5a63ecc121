package entity

import "github.com/dhmanager/channel/internal/core/clock"

// SetHPMP applies an HP/MP change and reports the literal delta applied to
// each channel plus whether the entity's alive/dead state flipped (spec
// §4.3 "setHPMP").
//
// adjust=false treats hp/mp as absolute values; a negative value on either
// channel is a sentinel meaning "leave this channel unchanged" (for
// callers that only want to set one of the two).
// adjust=true treats them as deltas. Without canOverflow, a live entity is
// clamped so it cannot cross to exactly 0 HP through this call's own delta
// (floor of 1) and a dead entity cannot cross back to positive HP (ceiling
// of 0) — the transition itself is what flips alive, handled separately
// below. With canOverflow, only the [0, max] bounds apply.
func (e *Entity) SetHPMP(hp, mp int32, adjust, canOverflow bool, now clock.ServerTime) (hpAdjusted, mpAdjusted int32, transitioned bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasAlive := e.alive

	if !adjust {
		if hp >= 0 {
			before := e.hp
			e.hp = clampInt32(hp, 0, e.maxHP)
			hpAdjusted = e.hp - before
		}
		if mp >= 0 {
			before := e.mp
			e.mp = clampInt32(mp, 0, e.maxMP)
			mpAdjusted = e.mp - before
		}
	} else {
		hpAdjusted = e.applyDeltaLocked(&e.hp, hp, e.maxHP, wasAlive, canOverflow)
		mpAdjusted = e.applyDeltaLocked(&e.mp, mp, e.maxMP, wasAlive, canOverflow)
	}

	e.alive = e.hp > 0
	transitioned = wasAlive != e.alive
	if transitioned {
		e.stopLocked(now)
	}

	return hpAdjusted, mpAdjusted, transitioned
}

// applyDeltaLocked applies delta to *cur, clamping per the overflow rule,
// and returns the actual delta applied.
func (e *Entity) applyDeltaLocked(cur *int32, delta, max int32, wasAlive, canOverflow bool) int32 {
	before := *cur
	target := before + delta

	if canOverflow {
		target = clampInt32(target, 0, max)
	} else if wasAlive {
		// A live entity cannot be pushed to exactly 0 by this call; it
		// must go through the alive->dead transition at HP 0 some other
		// way (e.g. an absolute setHPMP(0, ..., adjust=false)).
		target = clampInt32(target, 1, max)
	} else {
		// A dead entity cannot be revived past 0 by this call; it must go
		// through an overflow-permitted or absolute setHPMP to come back.
		target = clampInt32(target, 0, 0)
	}

	*cur = target
	return target - before
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
