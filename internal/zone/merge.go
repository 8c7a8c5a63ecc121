package zone

import "github.com/dhmanager/channel/internal/data"

// MergeZone computes a merged zone from base plus an ordered sequence of
// selected partials (spec §4.4 "Partial merging"). It is a pure function:
// scalar fields take the last partial that sets them (explicit-optional,
// so a partial not setting a field leaves the running value untouched),
// named child tables union by key with later partials winning on
// conflict, and unkeyed lists concatenate in partial order after the
// base's own entries.
func MergeZone(base data.ZoneDef, partials []data.ZonePartialDef) data.ZoneDef {
	out := base
	out.NPCs = cloneNPCs(base.NPCs)
	out.Objects = cloneObjects(base.Objects)
	out.Spots = cloneSpots(base.Spots)
	out.SpawnGroups = cloneSpawnGroups(base.SpawnGroups)
	out.Triggers = append([]data.TriggerDef(nil), base.Triggers...)
	out.DropSets = append([]int32(nil), base.DropSets...)
	out.SkillBlacklist = append([]int32(nil), base.SkillBlacklist...)
	out.SkillWhitelist = append([]int32(nil), base.SkillWhitelist...)

	for _, p := range partials {
		if p.Name != nil {
			out.Name = *p.Name
		}
		if p.Width != nil {
			out.Width = *p.Width
		}
		if p.Height != nil {
			out.Height = *p.Height
		}

		for id, v := range p.NPCs {
			out.NPCs[id] = v
		}
		for id, v := range p.Objects {
			out.Objects[id] = v
		}
		for id, v := range p.Spots {
			out.Spots[id] = v
		}
		for id, v := range p.SpawnGroups {
			out.SpawnGroups[id] = v
		}

		out.Triggers = append(out.Triggers, p.Triggers...)
		out.DropSets = append(out.DropSets, p.DropSets...)
		out.SkillBlacklist = append(out.SkillBlacklist, p.SkillBlacklist...)
		out.SkillWhitelist = append(out.SkillWhitelist, p.SkillWhitelist...)
	}

	return out
}

// SelectAutoApply filters a registry's full partial table down to the
// auto-apply partials whose DynamicMapIDs include dynamicMapID, in the order
// all lists them (spec §4.4 "Partials
// declare dynamicMapIDs and autoApply; any autoApply partial whose
// dynamicMapID matches is applied implicitly when the zone loads").
func SelectAutoApply(all []data.ZonePartialDef, dynamicMapID int32) []data.ZonePartialDef {
	var out []data.ZonePartialDef
	for _, p := range all {
		if !p.AutoApply {
			continue
		}
		for _, id := range p.DynamicMapIDs {
			if id == dynamicMapID {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func cloneNPCs(m map[int32]data.NPCSpawnDef) map[int32]data.NPCSpawnDef {
	out := make(map[int32]data.NPCSpawnDef, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneObjects(m map[int32]data.ObjectDef) map[int32]data.ObjectDef {
	out := make(map[int32]data.ObjectDef, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSpots(m map[int32]data.SpotDef) map[int32]data.SpotDef {
	out := make(map[int32]data.SpotDef, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSpawnGroups(m map[int32]data.SpawnGroupDef) map[int32]data.SpawnGroupDef {
	out := make(map[int32]data.SpawnGroupDef, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
