package zone

import (
	"testing"

	"github.com/dhmanager/channel/internal/data"
)

// Scenario 6: partial merge order.
func TestMergePartialOrderScenario(t *testing.T) {
	base := data.ZoneDef{
		ZoneID: 1,
		NPCs:   map[int32]data.NPCSpawnDef{5: {NPCID: 5, X: 0}},
	}
	p1 := data.ZonePartialDef{
		ID:  1,
		NPCs: map[int32]data.NPCSpawnDef{5: {NPCID: 5, X: 10}},
	}
	p2 := data.ZonePartialDef{
		ID:  2,
		NPCs: map[int32]data.NPCSpawnDef{5: {NPCID: 5, X: 20}},
	}

	merged := MergeZone(base, []data.ZonePartialDef{p1, p2})
	if merged.NPCs[5].X != 20 {
		t.Fatalf("Merge(Z, [P1, P2]) expected x=20, got %d", merged.NPCs[5].X)
	}

	merged = MergeZone(base, []data.ZonePartialDef{p2, p1})
	if merged.NPCs[5].X != 10 {
		t.Fatalf("Merge(Z, [P2, P1]) expected x=10, got %d", merged.NPCs[5].X)
	}
}
