package data

import (
	"fmt"
	"sort"
)

// Registry is the read-only-after-startup Definition Registry (spec §4.1).
// Every Table it owns is populated once during Load and never mutated
// afterward, so no lock is needed (spec §5 "Definition Registry is
// read-only after startup; no lock").
type Registry struct {
	Items    *Table[ItemDef]
	Skills   *Table[SkillDef]
	Demons   *Table[DemonDef]
	Zones    *Table[ZoneDef]
	Statuses *Table[StatusEffectDef]
	Shops    *Table[ShopProductDef]
	CZones   *Table[CZoneRelationDef]
	DynMaps  *Table[DynamicMapDef]
	Partials *Table[ZonePartialDef]

	// spotsByMap is derived at Load from each ZoneDef's embedded Spots,
	// keyed by dynamicMapID then spotID (spec: "spots(dynamicMapID) ->
	// map<spotID, SpotDef>").
	spotsByMap map[int32]map[int32]SpotDef

	// fusionIndex maps race -> ordered list of (levelMarker, resultID),
	// derived once from DemonDef.FusionLevelMarker.
	fusionIndex map[string][]FusionRange

	// defaultCharacterSkills is the skill-ID list every new Character
	// starts with, copied once in finalize from Paths.DefaultSkills.
	defaultCharacterSkills []int32
}

// Paths bundles the YAML file locations for every record kind, mirroring
// the teacher's flat "one file per table" convention in cmd/l1jgo/main.go.
type Paths struct {
	Items    string
	Skills   string
	Demons   string
	Zones    string
	Statuses string
	Shops    string
	CZones   string
	DynMaps  string
	Partials string

	// DefaultSkills lists skill IDs granted to every new character.
	DefaultSkills []int32
}

// Load reads every YAML table and builds the derived indices. A missing
// file for any kind yields an empty table, never an error (content packs
// are additive).
func Load(p Paths) (*Registry, error) {
	r := &Registry{}

	var err error
	var items []ItemDef
	if r.Items, err = LoadTable(p.Items, &items); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	var skills []SkillDef
	if r.Skills, err = LoadTable(p.Skills, &skills); err != nil {
		return nil, fmt.Errorf("skills: %w", err)
	}
	var demons []DemonDef
	if r.Demons, err = LoadTable(p.Demons, &demons); err != nil {
		return nil, fmt.Errorf("demons: %w", err)
	}
	var zones []ZoneDef
	if r.Zones, err = LoadTable(p.Zones, &zones); err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}
	var statuses []StatusEffectDef
	if r.Statuses, err = LoadTable(p.Statuses, &statuses); err != nil {
		return nil, fmt.Errorf("statuses: %w", err)
	}
	var shops []ShopProductDef
	if r.Shops, err = LoadTable(p.Shops, &shops); err != nil {
		return nil, fmt.Errorf("shops: %w", err)
	}
	var czones []CZoneRelationDef
	if r.CZones, err = LoadTable(p.CZones, &czones); err != nil {
		return nil, fmt.Errorf("c-zone relations: %w", err)
	}
	var dynmaps []DynamicMapDef
	if r.DynMaps, err = LoadTable(p.DynMaps, &dynmaps); err != nil {
		return nil, fmt.Errorf("dynamic maps: %w", err)
	}
	var partials []ZonePartialDef
	if r.Partials, err = LoadTable(p.Partials, &partials); err != nil {
		return nil, fmt.Errorf("zone partials: %w", err)
	}

	r.finalize(demons, p.DefaultSkills)
	return r, nil
}

// finalize builds every index derived once from the loaded tables (spec
// §4.1 "Precomputed fusion-range indices... derived once at load").
func (r *Registry) finalize(demons []DemonDef, defaultSkills []int32) {
	r.spotsByMap = make(map[int32]map[int32]SpotDef)
	for _, z := range r.Zones.All() {
		m := r.spotsByMap[z.DynamicMapID]
		if m == nil {
			m = make(map[int32]SpotDef, len(z.Spots))
			r.spotsByMap[z.DynamicMapID] = m
		}
		for id, s := range z.Spots {
			m[id] = s
		}
	}

	byRace := make(map[string][]FusionRange)
	for _, d := range demons {
		byRace[d.Race] = append(byRace[d.Race], FusionRange{
			LevelMarker: d.FusionLevelMarker,
			ResultID:    d.ID,
		})
	}
	for race, ranges := range byRace {
		sort.Slice(ranges, func(i, j int) bool {
			return ranges[i].LevelMarker < ranges[j].LevelMarker
		})
		byRace[race] = ranges
	}
	r.fusionIndex = byRace

	r.defaultCharacterSkills = append([]int32(nil), defaultSkills...)
}

// Spots returns the spot index for a dynamic map, or an empty map if none
// are defined — never nil, so callers can range over it unconditionally.
func (r *Registry) Spots(dynamicMapID int32) map[int32]SpotDef {
	if m, ok := r.spotsByMap[dynamicMapID]; ok {
		return m
	}
	return map[int32]SpotDef{}
}

// FusionRanges returns the ordered fusion index for a race, or nil if the
// race has no fusible demons.
func (r *Registry) FusionRanges(race string) []FusionRange {
	return r.fusionIndex[race]
}

// FusionResult resolves the highest fusion range whose LevelMarker is <=
// level, or 0 if the race has no applicable range.
func (r *Registry) FusionResult(race string, level int16) int32 {
	ranges := r.fusionIndex[race]
	var result int32
	for _, fr := range ranges {
		if fr.LevelMarker <= level {
			result = fr.ResultID
		} else {
			break
		}
	}
	return result
}

// DefaultCharacterSkills returns the skill IDs granted to every new
// character.
func (r *Registry) DefaultCharacterSkills() []int32 {
	return r.defaultCharacterSkills
}
