package entity

import (
	"math"
	"testing"

	"github.com/dhmanager/channel/internal/data"
)

func approxEqual(t *testing.T, got, want, tol float32) {
	t.Helper()
	if diff := got - want; diff > tol || diff < -tol {
		t.Fatalf("got %v, want %v (+/-%v)", got, want, tol)
	}
}

// Scenario 1: move + interpolation.
func TestMoveInterpolation(t *testing.T) {
	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.Move(1000, 0, 0)

	e.RefreshCurrentPosition(250_000)
	x, _, _ := e.Position()
	approxEqual(t, x, 500.0, 0.1)

	e.RefreshCurrentPosition(500_000)
	x, _, _ = e.Position()
	approxEqual(t, x, 1000.0, 0.0001)
}

// P1: refreshCurrentPosition is idempotent under repeated advancing calls.
func TestRefreshCurrentPositionIdempotent(t *testing.T) {
	a := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	a.Move(1000, 500, 0)
	a.RefreshCurrentPosition(100_000)
	a.RefreshCurrentPosition(300_000)
	xa, ya, rota := a.Position()

	b := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	b.Move(1000, 500, 0)
	b.RefreshCurrentPosition(300_000)
	xb, yb, rotb := b.Position()

	if xa != xb || ya != yb || rota != rotb {
		t.Fatalf("refresh not idempotent: (%v,%v,%v) vs (%v,%v,%v)", xa, ya, rota, xb, yb, rotb)
	}
}

// Scenario 2 / P6: knockback regen formula.
func TestKnockbackRegen(t *testing.T) {
	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.knockback = 10.0
	e.maxKnockback = 100.0
	e.lastKbTick = 0

	kb := e.RefreshKnockback(1_000_000)
	approxEqual(t, kb, 25.0, 0.0001)

	kb = e.RefreshKnockback(6_000_000)
	approxEqual(t, kb, 100.0, 0.0001)
	if e.lastKbTick != 0 {
		t.Fatalf("expected lastKbTick cleared at max, got %v", e.lastKbTick)
	}
}

// P4: correctRotation idempotence for rotations in [-pi, pi]; out-of-range
// input takes the asymmetric branches once.
func TestCorrectRotationIdempotent(t *testing.T) {
	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	for _, r := range []float32{-math.Pi, -1.5, 0, 1.5, math.Pi} {
		once := e.CorrectRotation(r)
		twice := e.CorrectRotation(once)
		if once != twice {
			t.Fatalf("not idempotent for %v: once=%v twice=%v", r, once, twice)
		}
	}
	approxEqual(t, e.CorrectRotation(10), 3.68, 0.0001)
	approxEqual(t, e.CorrectRotation(-10), 6.84, 0.0001)
}

// Scenario 4 / P2: HP overflow guard.
func TestSetHPMPOverflowGuard(t *testing.T) {
	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.hp = 1

	hpAdj, _, transitioned := e.SetHPMP(-5, 0, true, false, 0)
	if e.hp != 1 {
		t.Fatalf("expected hp to stay at 1, got %d", e.hp)
	}
	if hpAdj != 0 {
		t.Fatalf("expected hpAdjusted=0, got %d", hpAdj)
	}
	if transitioned {
		t.Fatalf("expected no alive/dead transition")
	}
}

func TestSetHPMPOverflowGuardGeneral(t *testing.T) {
	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.hp = 40

	hpAdj, _, _ := e.SetHPMP(-40, 0, true, false, 0)
	if e.hp != 1 {
		t.Fatalf("expected hp floor of 1, got %d", e.hp)
	}
	if hpAdj != -39 {
		t.Fatalf("expected hpAdjusted=-39, got %d", hpAdj)
	}
}

// P3: stack merge with applicationLogic 1 (additive, no replace).
func TestAddStatusEffectsStackMerge(t *testing.T) {
	defs := registryWithStatus(data.StatusEffectDef{
		TypeID: 100, MaxStack: 10, ApplicationLogic: 1, StackType: 0, DurationType: "MS", Duration: 60_000,
	})

	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	added, _, _ := e.AddStatusEffects([]StatusRequest{{TypeID: 100, Stack: 3, IsReplace: false}}, defs, 0)
	if len(added) != 1 || added[0] != 100 {
		t.Fatalf("expected type 100 added, got %v", added)
	}

	_, updated, _ := e.AddStatusEffects([]StatusRequest{{TypeID: 100, Stack: 4, IsReplace: false}}, defs, 0)
	eff := e.effects[100]
	if eff.Stack != 7 {
		t.Fatalf("expected stack 3+4=7, got %d", eff.Stack)
	}
	if len(updated) != 1 || updated[0] != 100 {
		t.Fatalf("expected type 100 reported updated, got %v", updated)
	}
}

// Scenario 3: group/rank precedence.
func TestStatusEffectGroupRanking(t *testing.T) {
	defs := registryWithStatus(
		data.StatusEffectDef{TypeID: 100, Group: 7, Rank: 1, MaxStack: 1, DurationType: "MS", Duration: 60_000},
		data.StatusEffectDef{TypeID: 101, Group: 7, Rank: 2, MaxStack: 1, DurationType: "MS", Duration: 60_000},
		data.StatusEffectDef{TypeID: 102, Group: 7, Rank: 1, MaxStack: 1, DurationType: "MS", Duration: 60_000},
	)

	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.AddStatusEffects([]StatusRequest{{TypeID: 100, Stack: 1}}, defs, 0)

	e.AddStatusEffects([]StatusRequest{{TypeID: 101, Stack: 1}}, defs, 0)
	if _, ok := e.effects[100]; ok {
		t.Fatalf("expected 100 removed after higher-rank 101 applied")
	}
	if _, ok := e.effects[101]; !ok {
		t.Fatalf("expected 101 present")
	}

	e.AddStatusEffects([]StatusRequest{{TypeID: 102, Stack: 1}}, defs, 0)
	if _, ok := e.effects[101]; !ok {
		t.Fatalf("expected 101 to remain: lower-rank 102 must be blocked")
	}
	if _, ok := e.effects[102]; ok {
		t.Fatalf("expected 102 blocked by higher-rank 101")
	}
}

// P7: inverse-cancel pairs.
func TestInverseCancelExact(t *testing.T) {
	defs := registryWithStatus(
		data.StatusEffectDef{TypeID: 1, DurationType: "MS", Duration: 60_000, CorrectTable: map[int]int32{int(StatSTR): 10}},
		data.StatusEffectDef{TypeID: 2, DurationType: "MS", Duration: 60_000, CorrectTable: map[int]int32{int(StatSTR): -10}},
	)

	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.AddStatusEffects([]StatusRequest{{TypeID: 2, Stack: 5}}, defs, 0)
	e.AddStatusEffects([]StatusRequest{{TypeID: 1, Stack: 5}}, defs, 0)

	if _, ok := e.effects[1]; ok {
		t.Fatalf("expected type 1 cancelled")
	}
	if _, ok := e.effects[2]; ok {
		t.Fatalf("expected type 2 cancelled")
	}
}

func TestInverseCancelPartial(t *testing.T) {
	defs := registryWithStatus(
		data.StatusEffectDef{TypeID: 1, DurationType: "MS", Duration: 60_000, CorrectTable: map[int]int32{int(StatSTR): 10}},
		data.StatusEffectDef{TypeID: 2, DurationType: "MS", Duration: 60_000, CorrectTable: map[int]int32{int(StatSTR): -10}},
	)

	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.AddStatusEffects([]StatusRequest{{TypeID: 2, Stack: 8}}, defs, 0)
	e.AddStatusEffects([]StatusRequest{{TypeID: 1, Stack: 3}}, defs, 0)

	if _, ok := e.effects[1]; ok {
		t.Fatalf("expected type 1 fully absorbed")
	}
	if eff, ok := e.effects[2]; !ok || eff.Stack != 5 {
		t.Fatalf("expected type 2 stack 8-3=5, got %+v", e.effects[2])
	}
}

// Scenario 5: tick drain.
func TestPopEffectTicksScenario(t *testing.T) {
	e := New(NextID(), KindCharacter, 0, 0, 0, 0, 100, 100)
	e.effects[1] = &StatusEffect{TypeID: 1, Stack: 1, ExpiresAt: 100}
	e.effects[2] = &StatusEffect{TypeID: 2, Stack: 1, ExpiresAt: 105}
	e.registerExpirationLocked(1, 100)
	e.registerExpirationLocked(2, 105)
	e.registerSentinelLocked(keyAdded, 3)

	_, _, added, _, removed := e.PopEffectTicks(110)

	if len(added) != 1 || added[0] != 3 {
		t.Fatalf("expected added=[3], got %v", added)
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", removed)
	}
	if next, ok := e.nextEffectTime[keyRegen]; !ok {
		t.Fatalf("expected regen rescheduled")
	} else if _, ok := next[120]; !ok {
		t.Fatalf("expected regen rescheduled at 120, got %v", next)
	}
}

func registryWithStatus(defs ...data.StatusEffectDef) *data.Registry {
	r, err := data.Load(data.Paths{})
	if err != nil {
		panic(err)
	}
	r.Statuses = data.NewTable(defs)
	return r
}
