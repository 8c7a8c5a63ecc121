package data

// Record kinds held by the Definition Registry. Every kind is read-only
// after startup and keyed by a 32-bit numeric ID (per spec: item, skill,
// demon, zone, spot, status, shop product, c-zone-relation, dynamic-map).

// ItemDef is a static item template.
type ItemDef struct {
	ID        int32         `yaml:"id"`
	Name      string        `yaml:"name"`
	Category  string        `yaml:"category"` // "weapon", "armor", "consumable", "material"
	Stack     int32         `yaml:"stack_max"`
	BasePrice int32         `yaml:"base_price"`
	Slot      int           `yaml:"slot"`         // EquipSlot this item occupies when equipped, -1 = not equippable
	NRA       bool          `yaml:"nra"`           // true if CorrectTable entries target the NRA stat range
	CorrectTable map[int]int32 `yaml:"correct_table"` // stat index -> signed delta/percent, applied while equipped
}

// SkillDef is a static skill template.
type SkillDef struct {
	ID         int32  `yaml:"id"`
	Name       string `yaml:"name"`
	MPCost     int32  `yaml:"mp_cost"`
	HPCost     int32  `yaml:"hp_cost"`
	CastRange  int32  `yaml:"cast_range"`
	StatusID   int32  `yaml:"status_id"`   // status effect applied on hit, 0 = none
	StatusStack uint8 `yaml:"status_stack"`
}

// DemonDef is a static partner-demon template (race, base stats, fusion
// participation).
type DemonDef struct {
	ID    int32  `yaml:"id"`
	Name  string `yaml:"name"`
	Race  string `yaml:"race"`
	Level int16  `yaml:"level"`

	BaseSTR   int16 `yaml:"base_str"`
	BaseMAGIC int16 `yaml:"base_magic"`
	BaseVIT   int16 `yaml:"base_vit"`
	BaseINT   int16 `yaml:"base_int"`
	BaseSPEED int16 `yaml:"base_speed"`
	BaseLUCK  int16 `yaml:"base_luck"`

	BaseHP int32 `yaml:"base_hp"`
	BaseMP int32 `yaml:"base_mp"`

	// FusionLevelMarker positions this demon in its race's fusion-range
	// index (ascending levels per race form the lookup table).
	FusionLevelMarker int16 `yaml:"fusion_level_marker"`

	LearnedSkills []int32 `yaml:"learned_skills"`
}

// ZoneDef is a static zone/map definition (the "base zone" that Zone
// Partials are merged onto — see internal/zone.MergeZone).
type ZoneDef struct {
	ZoneID       int32  `yaml:"zone_id"`
	DynamicMapID int32  `yaml:"dynamic_map_id"`
	Name         string `yaml:"name"`
	Width        int32  `yaml:"width"`
	Height       int32  `yaml:"height"`

	NPCs         map[int32]NPCSpawnDef  `yaml:"npcs"`
	Objects      map[int32]ObjectDef    `yaml:"objects"`
	Spots        map[int32]SpotDef      `yaml:"spots"`
	SpawnGroups  map[int32]SpawnGroupDef `yaml:"spawn_groups"`
	Triggers     []TriggerDef           `yaml:"triggers"`
	DropSets     []int32                `yaml:"drop_sets"`
	SkillBlacklist []int32              `yaml:"skill_blacklist"`
	SkillWhitelist []int32              `yaml:"skill_whitelist"`
}

// ZonePartialDef overlays a base ZoneDef. Every field below is an explicit
// optional: a nil/zero-length value means "not set by this partial", not
// "set to zero" — see internal/zone.MergeZone for the merge policy this
// encodes (spec.md §4.4).
type ZonePartialDef struct {
	ID             int32                  `yaml:"id"`
	DynamicMapIDs  []int32                `yaml:"dynamic_map_ids"`
	AutoApply      bool                   `yaml:"auto_apply"`
	Name           *string                `yaml:"name"`
	Width          *int32                 `yaml:"width"`
	Height         *int32                 `yaml:"height"`
	NPCs           map[int32]NPCSpawnDef  `yaml:"npcs"`
	Objects        map[int32]ObjectDef    `yaml:"objects"`
	Spots          map[int32]SpotDef      `yaml:"spots"`
	SpawnGroups    map[int32]SpawnGroupDef `yaml:"spawn_groups"`
	Triggers       []TriggerDef           `yaml:"triggers"`
	DropSets       []int32                `yaml:"drop_sets"`
	SkillBlacklist []int32                `yaml:"skill_blacklist"`
	SkillWhitelist []int32                `yaml:"skill_whitelist"`
}

// NPCSpawnDef, ObjectDef, SpawnGroupDef, TriggerDef are the named/unnamed
// child records a zone or partial carries.
type NPCSpawnDef struct {
	NPCID int32 `yaml:"npc_id"`
	X, Y  int32 `yaml:"x,y"`
}

type ObjectDef struct {
	ObjectID int32  `yaml:"object_id"`
	Kind     string `yaml:"kind"`
}

type SpawnGroupDef struct {
	GroupID int32   `yaml:"group_id"`
	SpotIDs []int32 `yaml:"spot_ids"`
}

type TriggerDef struct {
	Name   string `yaml:"name"`
	SpotID int32  `yaml:"spot_id"`
}

// SpotDef is a named rectangular region with optional server-side
// enter/leave actions and an optional match-spawn predicate gating spawn
// groups.
type SpotDef struct {
	SpotID      int32    `yaml:"spot_id"`
	Name        string   `yaml:"name"`
	X1, Y1      int32    `yaml:"x1,y1"`
	X2, Y2      int32    `yaml:"x2,y2"`
	EnterScript string   `yaml:"enter_script"` // Lua action name, "" = none
	LeaveScript string   `yaml:"leave_script"`
	MatchSpawn  []int32  `yaml:"match_spawn"` // spawn-group IDs gated by this spot
}

// StatusEffectDef is a static status-effect definition.
type StatusEffectDef struct {
	TypeID            int32  `yaml:"type_id"`
	Name              string `yaml:"name"`
	Group             int32  `yaml:"group"`      // 0 = ungrouped
	Rank              int32  `yaml:"rank"`
	MaxStack          uint8  `yaml:"max_stack"`
	StackType         int    `yaml:"stack_type"` // 1 = duration scales with stack
	ApplicationLogic  int    `yaml:"application_logic"` // 0-3, see spec §4.3
	DurationType      string `yaml:"duration_type"`     // MS, MS_SET, HOUR, DAY, DAY_SET
	Duration          int64  `yaml:"duration"`          // unit depends on DurationType
	CancelFlags       uint8  `yaml:"cancel_flags"`      // bitmask, see spec §4.3
	CorrectTable      map[int]int32 `yaml:"correct_table"` // stat index -> signed delta/percent
	TimeDamage        int32  `yaml:"time_damage"`        // per-regen-tick damage, 0 = none
}

// ShopProductDef is a static shop-listing record.
type ShopProductDef struct {
	ShopID  int32 `yaml:"shop_id"`
	ItemID  int32 `yaml:"item_id"`
	Price   int32 `yaml:"price"`
}

// CZoneRelationDef links a c-zone (client-facing zone grouping) to the
// dynamic maps that implement it — used to resolve which ZoneDef instance
// backs a given (zoneID, dynamicMapID) pair.
type CZoneRelationDef struct {
	CZoneID      int32 `yaml:"c_zone_id"`
	DynamicMapID int32 `yaml:"dynamic_map_id"`
}

// DynamicMapDef distinguishes spatial variants of the same logical zone
// (instanced dungeons, event variants, ...).
type DynamicMapDef struct {
	DynamicMapID int32  `yaml:"dynamic_map_id"`
	Name         string `yaml:"name"`
	Instanced    bool   `yaml:"instanced"`
}

// FusionRange is one entry in a race's ordered fusion index: above
// LevelMarker (and below the next entry's marker) the fusion result is
// ResultID.
type FusionRange struct {
	LevelMarker int16
	ResultID    int32
}
