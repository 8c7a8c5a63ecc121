package data

// RecordID/RecordName implementations wiring each def type into Table[T].

func (d ItemDef) RecordID() int32          { return d.ID }
func (d ItemDef) RecordName() string       { return d.Name }

func (d SkillDef) RecordID() int32         { return d.ID }
func (d SkillDef) RecordName() string      { return d.Name }

func (d DemonDef) RecordID() int32         { return d.ID }
func (d DemonDef) RecordName() string      { return d.Name }

func (d ZoneDef) RecordID() int32          { return d.ZoneID }
func (d ZoneDef) RecordName() string       { return d.Name }

func (d StatusEffectDef) RecordID() int32  { return d.TypeID }
func (d StatusEffectDef) RecordName() string { return d.Name }

func (d ShopProductDef) RecordID() int32 { return d.ShopID*1_000_000 + d.ItemID }

func (d CZoneRelationDef) RecordID() int32 { return d.CZoneID*1_000_000 + d.DynamicMapID }

func (d DynamicMapDef) RecordID() int32    { return d.DynamicMapID }
func (d DynamicMapDef) RecordName() string { return d.Name }

func (d ZonePartialDef) RecordID() int32 { return d.ID }

func (d SpotDef) RecordID() int32    { return d.SpotID }
func (d SpotDef) RecordName() string { return d.Name }
