package zone

import (
	"testing"

	"github.com/dhmanager/channel/internal/data"
	"github.com/dhmanager/channel/internal/entity"
)

// P5: removing an entity leaves no residual reference anywhere.
func TestRemoveEntityCleansResidualReferences(t *testing.T) {
	inst := NewInstance(1, 1, 1, data.ZoneDef{ZoneID: 1})

	a := entity.New(entity.NextID(), entity.KindCharacter, 0, 0, 0, 0, 100, 100)
	b := entity.New(entity.NextID(), entity.KindCharacter, 10, 10, 0, 0, 100, 100)

	inst.AddEntity(a)
	inst.AddEntity(b)
	a.AddOpponent(b.ID)
	b.AddOpponent(a.ID)
	inst.SetNextStatusEffectTime(500, a.ID)
	inst.Subscribe(a.ID, fakeSub{})

	before := inst.EntityCount()

	inst.RemoveEntity(a.ID)

	if inst.EntityCount() != before-1 {
		t.Fatalf("expected entity count to drop by one")
	}
	if _, ok := inst.Entity(a.ID); ok {
		t.Fatalf("expected a removed from entity set")
	}
	for _, id := range b.Opponents() {
		if id == a.ID {
			t.Fatalf("expected b's opponent set to no longer reference a")
		}
	}
	due := inst.DueEntities(1000)
	for _, id := range due {
		if id == a.ID {
			t.Fatalf("expected a removed from next-effect-time queue")
		}
	}
}

type fakeSub struct{}

func (fakeSub) Send(payload []byte) error { return nil }
