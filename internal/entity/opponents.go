package entity

// AddOpponent/RemoveOpponent maintain the symmetric combat-opponent set
// (spec §4.1 capability list "opponent set"). Callers are expected to
// mutate both sides of a pair; Entity only tracks its own half.
func (e *Entity) AddOpponent(id ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opponents[id] = true
}

func (e *Entity) RemoveOpponent(id ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.opponents, id)
}

// Opponents returns a snapshot of the current opponent set.
func (e *Entity) Opponents() []ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ID, 0, len(e.opponents))
	for id := range e.opponents {
		out = append(out, id)
	}
	return out
}

// ClearOpponents empties the opponent set and returns what was removed, so
// the caller can clean up the reverse references on each former opponent
// (spec P5: "no residual references anywhere - opponent sets, next-effect
// queue, subscribers").
func (e *Entity) ClearOpponents() []ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ID, 0, len(e.opponents))
	for id := range e.opponents {
		out = append(out, id)
	}
	e.opponents = make(map[ID]bool)
	return out
}

// SetCurrentSkills replaces the entity's active skill set wholesale,
// reporting whether the set actually changed (spec §4.3 step 1 "Character
// variant: collect learned skills... compare to previous, set
// ENTITY_CALC_SKILL if the set changed").
func (e *Entity) SetCurrentSkills(skillIDs []int32) (changed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[int32]bool, len(skillIDs))
	for _, id := range skillIDs {
		next[id] = true
	}

	if len(next) != len(e.currentSkills) {
		changed = true
	} else {
		for id := range next {
			if !e.currentSkills[id] {
				changed = true
				break
			}
		}
	}

	e.currentSkills = next
	return changed
}

// CurrentSkills returns a snapshot of the active skill set.
func (e *Entity) CurrentSkills() []int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int32, 0, len(e.currentSkills))
	for id := range e.currentSkills {
		out = append(out, id)
	}
	return out
}

// Effects returns a snapshot of every active status effect, for broadcast
// and persistence (spec §4.4 "Broadcast contract").
func (e *Entity) Effects() []StatusEffect {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]StatusEffect, 0, len(e.effects))
	for _, eff := range e.effects {
		out = append(out, *eff)
	}
	return out
}

// EffectsActive reports whether this entity's status effects are currently
// activated (absolute expirations scheduled) - invariant I1 requires this
// bit be true for any entity with entries in a zone's next-effect-time
// set.
func (e *Entity) EffectsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectsActive
}

// SetEffectsActive flips the effects-active bit (spec §4.5 step 4
// "setStatusEffectsActive").
func (e *Entity) SetEffectsActive(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.effectsActive = active
}
