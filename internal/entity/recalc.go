package entity

// baseStatOrder lists the six stats recalculated with baseMode=true (spec
// §4.3 step 5); the DependentStatsFunc passed to RecalculateStats recomputes
// the eight derived stats from these plus level between the two adjustStats
// passes.
var baseStatOrder = [...]Stat{StatSTR, StatMAGIC, StatVIT, StatINT, StatSPEED, StatLUCK}

var derivedStatOrder = [...]Stat{StatHPMax, StatMPMax, StatCLSR, StatLNGR, StatSPELL, StatSUPPORT, StatPDEF, StatMDEF}

// DependentStatsFunc recomputes the eight derived stats from the six base
// stats and level. It is a parameter rather than a hardcoded formula
// because the per-race/per-class growth curve is not part of the entity
// package; the caller supplies it, and a nil func skips the step.
type DependentStatsFunc func(stats *CorrectTable, level int16)

// RecalculateStats rebuilds the entity's stat cache from a base table plus
// every adjustment currently in effect (equipment, skills, status effects),
// then compares against the entity's current published stats to produce a
// change bitmask (spec §4.3 "recalculateStats", steps 3-7).
//
// currentSkillsChanged lets the caller (Character Manager, which alone
// knows about learned/clan/party skill sources) report whether
// ChangeSkill should be set; Demon/Enemy variants pass false.
func (e *Entity) RecalculateStats(base CorrectTable, adjustments []Adjustment, level int16, dependent DependentStatsFunc, currentSkillsChanged bool) ChangeFlags {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := base

	if !e.initialCalc {
		e.maxKnockback = float32(stats[StatKnockbackResist])
		e.initialCalc = true
	}

	sorted := sortAdjustments(adjustments)

	e.updateNRAChancesLocked(&stats, sorted)
	adjustStats(&stats, sorted, true)
	if dependent != nil {
		dependent(&stats, level)
	}
	adjustStats(&stats, sorted, false)

	var flags ChangeFlags
	if currentSkillsChanged {
		flags |= ChangeSkill
	}

	return flags | e.compareAndResetStatsLocked(stats)
}

// sortAdjustments orders adjustments so zero-percent (immutable-lock)
// entries apply first, other percentages next, and flat numerics last
// (spec §4.3 step 4): a later flat add should not be undone by an earlier
// percentage multiply, and a 0% lock must win over any other entry for the
// same stat regardless of arrival order.
func sortAdjustments(adjustments []Adjustment) []Adjustment {
	out := make([]Adjustment, len(adjustments))
	copy(out, adjustments)

	rank := func(a Adjustment) int {
		switch {
		case a.Type == AdjustPercent && a.Value == 0:
			return 0
		case a.Type == AdjustPercent:
			return 1
		default:
			return 2
		}
	}
	// Stable insertion sort: the adjustment lists here are always small
	// (equipment slots + active skills + status effects on one entity).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && rank(out[j-1]) > rank(out[j]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// adjustStats applies every adjustment matching baseMode (true = the six
// base stats, false = everything else) to stats, skipping NRA entries
// (handled separately by updateNRAChancesLocked) and honoring a prior
// zero-percent lock on a stat.
func adjustStats(stats *CorrectTable, adjustments []Adjustment, baseMode bool) {
	locked := make(map[Stat]bool)
	for _, adj := range adjustments {
		if adj.Stat.isBase() != baseMode {
			continue
		}
		if adj.Stat.isNRA() {
			continue
		}
		if locked[adj.Stat] {
			continue
		}

		switch adj.Type {
		case AdjustPercent:
			if adj.Value == 0 {
				stats[adj.Stat] = 0
				locked[adj.Stat] = true
			} else {
				stats[adj.Stat] += int32(float64(stats[adj.Stat]) * (float64(adj.Value) * 0.01))
			}
		case AdjustFlat:
			stats[adj.Stat] += adj.Value
		}
	}
}

// updateNRAChancesLocked rebuilds the null/reflect/absorb maps: natural NRA
// encodes the result index in the ones digit and the percent chance in the
// rest of the base stat value (spec §4.3 step 6); adjustments of type 0
// pin the corresponding map to 100% and become unremovable.
func (e *Entity) updateNRAChancesLocked(stats *CorrectTable, adjustments []Adjustment) {
	e.nullMap = make(map[Stat]int32)
	e.reflectMap = make(map[Stat]int32)
	e.absorbMap = make(map[Stat]int32)

	for s := StatNRAWeapon; s <= StatNRAMagic; s++ {
		val := stats[s]
		if val <= 0 {
			continue
		}
		idx := val % 10
		chance := val / 10
		switch NRAResult(idx) {
		case NRANull:
			e.nullMap[s] = chance
		case NRAReflect:
			e.reflectMap[s] = chance
		case NRAAbsorb:
			e.absorbMap[s] = chance
		}
	}

	pinned := make(map[Stat]bool)
	for _, adj := range adjustments {
		if !adj.Stat.isNRA() {
			continue
		}
		if pinned[adj.Stat] {
			continue
		}
		if adj.Type == AdjustFlat && adj.Value == 0 {
			e.nullMap[adj.Stat] = 100
			pinned[adj.Stat] = true
			continue
		}
		switch NRAResult(adj.Type) {
		case NRANull:
			e.nullMap[adj.Stat] += adj.Value
		case NRAReflect:
			e.reflectMap[adj.Stat] += adj.Value
		case NRAAbsorb:
			e.absorbMap[adj.Stat] += adj.Value
		}
	}
}

// compareAndResetStatsLocked clamps HP/MP to the new maxima, publishes the
// new stat table, and reports which change tiers actually moved (spec
// §4.3 step 7 / §4.6).
func (e *Entity) compareAndResetStatsLocked(stats CorrectTable) ChangeFlags {
	hp, mp := e.hp, e.mp
	if hp > stats[StatHPMax] {
		hp = stats[StatHPMax]
	}
	if mp > stats[StatMPMax] {
		mp = stats[StatMPMax]
	}

	var flags ChangeFlags
	switch {
	case hp != e.hp || mp != e.mp || e.maxHP != stats[StatHPMax] || e.maxMP != stats[StatMPMax]:
		flags |= ChangeWorld | ChangeLocal
	case statsDiffer(e.stats, stats, baseStatOrder[:]) || statsDiffer(e.stats, stats, derivedStatOrder[:]):
		flags |= ChangeLocal
	}

	e.hp, e.mp = hp, mp
	e.maxHP, e.maxMP = stats[StatHPMax], stats[StatMPMax]
	e.alive = e.hp > 0
	e.stats = stats

	return flags
}

func statsDiffer(a, b CorrectTable, order []Stat) bool {
	for _, s := range order {
		if a[s] != b[s] {
			return true
		}
	}
	return false
}

// Stats returns a copy of the entity's published correct-table.
func (e *Entity) Stats() CorrectTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
