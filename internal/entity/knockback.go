package entity

import "github.com/dhmanager/channel/internal/core/clock"

// knockbackRegenPerUS is the regeneration rate of 0.015 per millisecond,
// expressed per microsecond (clock.ServerTime's unit) to avoid a division
// in the hot path.
const knockbackRegenPerUS = 0.015 / 1000.0

// RefreshKnockback regenerates knockback resistance toward its max at a
// fixed rate (spec P6: refreshed value is exactly
// clamp(kb0 + 0.015*(t-t0), 0, max)). If the max is reached, lastKbTick is
// cleared so a later UpdateKnockback doesn't attribute idle time to
// regeneration it already accounted for.
func (e *Entity) RefreshKnockback(now clock.ServerTime) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshKnockbackLocked(now)
	return e.knockback
}

func (e *Entity) refreshKnockbackLocked(now clock.ServerTime) {
	if e.knockback < e.maxKnockback {
		elapsed := float32(now - e.lastKbTick)
		e.knockback += elapsed * knockbackRegenPerUS
		if e.knockback < 0 {
			e.knockback = 0
		}
		if e.knockback > e.maxKnockback {
			e.knockback = e.maxKnockback
		}
		if e.knockback >= e.maxKnockback {
			e.lastKbTick = 0
		}
	}
}

// UpdateKnockback refreshes, then subtracts decrease (clamped at zero),
// recording now as the new regeneration reference point.
func (e *Entity) UpdateKnockback(now clock.ServerTime, decrease float32) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshKnockbackLocked(now)
	e.knockback -= decrease
	if e.knockback < 0 {
		e.knockback = 0
	}
	e.lastKbTick = now
	return e.knockback
}

// SetMaxKnockback seeds the knockback ceiling, typically from the
// KNOCKBACK_RESIST correct-table entry on first stat calculation.
func (e *Entity) SetMaxKnockback(max float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxKnockback = max
}

func (e *Entity) Knockback() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.knockback
}
