package entity

// Stat indexes an entry in the correct-table: the flat array of
// base/derived stats and resistances that recalculateStats assembles from
// equipment, skills, and status effects. Names and ordering are grounded on
// the original CorrectTbl enum (ActiveEntityState.cpp's CorrectTbl::*
// usages); Go has no natural fit for a C++ enum class used both as a map
// key and an array index, so this is a plain int-backed const block indexed
// into CorrectTable, a fixed-size array rather than a map for cache-locality
// on the per-tick recalculation hot path.
type Stat int

const (
	StatSTR Stat = iota
	StatMAGIC
	StatVIT
	StatINT
	StatSPEED
	StatLUCK

	StatCLSR
	StatLNGR
	StatSPELL
	StatSUPPORT
	StatPDEF
	StatMDEF
	StatHPMax
	StatMPMax

	StatKnockbackResist

	// NRA (null/reflect/absorb) table: a contiguous range, walked with
	// StatNRAWeapon..StatNRAMagic inclusive bounds rather than enumerated
	// member-by-member, matching the original's range check.
	StatNRAWeapon
	StatNRASlash
	StatNRALongRange
	StatNRAMagic

	StatHPRegen
	StatMPRegen

	statCount
)

// baseStats is the set recalculated with baseMode=true (spec §4.3 step 5);
// everything else is a derived stat recalculated with baseMode=false.
var baseStats = map[Stat]bool{
	StatSTR:   true,
	StatMAGIC: true,
	StatVIT:   true,
	StatINT:   true,
	StatSPEED: true,
	StatLUCK:  true,
}

func (s Stat) isBase() bool { return baseStats[s] }

func (s Stat) isNRA() bool { return s >= StatNRAWeapon && s <= StatNRAMagic }

// CorrectTable is a fixed-size stat array, one slot per Stat.
type CorrectTable [statCount]int32

// AdjustType is the correct-table entry's mixing rule: 0 adds a flat
// amount, 1 applies (and can zero-lock) a percentage, and NRA entries
// additionally special-case type 0 as "set to 100%, unremovable".
type AdjustType uint8

const (
	AdjustFlat    AdjustType = 0
	AdjustPercent AdjustType = 1
)

// NRAResult enumerates the three natural-resistance outcomes a weapon/
// magic NRA slot can carry.
type NRAResult uint8

const (
	NRANull NRAResult = iota
	NRAReflect
	NRAAbsorb
)

// Adjustment is one correct-table entry contributed by equipment, a skill,
// or a status effect.
type Adjustment struct {
	Stat  Stat
	Type  AdjustType
	Value int32
}

// ChangeFlags is the bitmask RecalculateStats returns, naming which
// audiences must be notified of the change (spec §4.6 "LOCAL -> self only,
// WORLD -> party/friends/clan subset, SKILL -> re-send learned-skill
// list").
type ChangeFlags uint8

const (
	ChangeLocal ChangeFlags = 1 << iota
	ChangeWorld
	ChangeSkill
)
