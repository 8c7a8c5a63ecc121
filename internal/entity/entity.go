package entity

import (
	"math"
	"sync"

	"github.com/dhmanager/channel/internal/core/clock"
)

const (
	movementDurationUS = 500_000 // 500 ms, in clock.ServerTime units

	rotationBias = math.Pi
	correctHigh  = 3.16
	correctLow   = -3.16
	correctWrap  = 6.32 // original's literal, not 2*correctHigh's rounder cousin
)

// ZoneBackRef is the weak, lookup-only link from an Entity to the Zone
// Instance that owns it (spec §9 "Cyclic ownership... treat the entity->
// zone link as a weak back-reference"). Zone is the only implementer
// (internal/zone.Instance); defining the interface here instead of
// importing internal/zone avoids an import cycle, since internal/zone
// necessarily imports internal/entity to hold a set of *Entity.
type ZoneBackRef interface {
	// SetNextStatusEffectTime records entityID's earliest pending
	// next-effect-time with the owning zone, or clears it if absTime==0.
	SetNextStatusEffectTime(absTime int64, entityID ID)
}

// point is a 2D position snapshot with the tick it applies at.
type point struct {
	x, y  float32
	rot   float32
	ticks clock.ServerTime
}

// Entity is the Active Entity state machine shared by characters, partner
// demons, and enemies (spec §4.3). Every exported method acquires mu, so
// callers never need to lock externally; per spec §5 "Per-Active-Entity
// mutex... held for microseconds", methods must stay non-blocking.
type Entity struct {
	ID   ID
	Kind Kind

	mu sync.Mutex

	uuid string // durable UUID of the backing Character/Demon; empty for Enemy

	zone ZoneBackRef

	alive bool

	origin      point
	destination point
	lastRefresh clock.ServerTime

	hp, mp       int32
	maxHP, maxMP int32

	knockback    float32
	maxKnockback float32
	lastKbTick   clock.ServerTime

	stats       CorrectTable
	initialCalc bool

	nullMap, reflectMap, absorbMap map[Stat]int32

	effects          map[int32]*StatusEffect
	nextEffectTime   map[int64]map[int64]bool // absTime -> set of "keys" (typeIDs or sentinels)
	cancelConditions map[uint8][]int32         // cancel-flag bit -> typeIDs
	timeDamage       map[int32]int32           // typeID -> per-tick damage, for active T-damage effects

	effectsActive bool

	opponents map[ID]bool

	currentSkills map[int32]bool
}

// New constructs an Entity with the given starting position and stat
// maxima. zone may be nil until the entity is placed (see internal/zone's
// entry sequence, spec §4.5).
func New(id ID, kind Kind, x, y, rot float32, now clock.ServerTime, maxHP, maxMP int32) *Entity {
	p := point{x: x, y: y, rot: rot, ticks: now}
	e := &Entity{
		ID:               id,
		Kind:             kind,
		origin:           p,
		destination:      p,
		lastRefresh:      now,
		hp:               maxHP,
		mp:               maxMP,
		maxHP:            maxHP,
		maxMP:            maxMP,
		alive:            maxHP > 0,
		nullMap:          make(map[Stat]int32),
		reflectMap:       make(map[Stat]int32),
		absorbMap:        make(map[Stat]int32),
		effects:          make(map[int32]*StatusEffect),
		nextEffectTime:   make(map[int64]map[int64]bool),
		cancelConditions: make(map[uint8][]int32),
		timeDamage:       make(map[int32]int32),
		opponents:        make(map[ID]bool),
		currentSkills:    make(map[int32]bool),
	}
	return e
}

// SetZone installs or clears (nil) the weak back-reference to the owning
// Zone Instance.
func (e *Entity) SetZone(z ZoneBackRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.zone = z
}

// SetUUID installs the durable UUID of the Character/Demon backing this
// Entity (spec §3 "durable objects additionally carry a UUID"). Never
// called for KindEnemy, which has no durable backing object.
func (e *Entity) SetUUID(uuid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uuid = uuid
}

// EntityUUID returns the durable UUID of the object this Entity represents,
// the method that varies by Kind (original:
// ActiveEntityStateImp<T>::GetEntityUUID). A Character's UUID is
// permanent; a PartnerDemon's is only meaningful while summoned (empty if
// SetUUID was never called); an Enemy has none and always returns "".
func (e *Entity) EntityUUID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.Kind {
	case KindCharacter, KindPartnerDemon:
		return e.uuid
	default:
		return ""
	}
}

func (e *Entity) Alive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alive
}

// HPMP returns the current HP/MP without mutating anything.
func (e *Entity) HPMP() (hp, mp int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hp, e.mp
}

// Position returns the last-refreshed (x, y, rotation); callers that need
// the up-to-date value must call RefreshCurrentPosition(now) first.
func (e *Entity) Position() (x, y, rot float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destination.x, e.destination.y, e.destination.rot
}

// Move begins linear movement toward (x, y), arriving 500ms after now.
// Ignored on a dead entity (spec §4.3 "Ignored if the entity is dead").
func (e *Entity) Move(x, y float32, now clock.ServerTime) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.alive {
		return
	}
	e.refreshCurrentPositionLocked(now)
	e.origin = point{x: e.destination.x, y: e.destination.y, rot: e.destination.rot, ticks: now}
	e.destination = point{x: x, y: y, rot: e.destination.rot, ticks: now + movementDurationUS}
}

// MoveRelative moves distance units from the current position toward (or,
// if away, away from) (targetX, targetY), arriving at endTime.
func (e *Entity) MoveRelative(targetX, targetY, distance float32, away bool, now, endTime clock.ServerTime) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.alive {
		return
	}
	e.refreshCurrentPositionLocked(now)

	dx := targetX - e.destination.x
	dy := targetY - e.destination.y
	length := float32(math.Hypot(float64(dx), float64(dy)))

	var ux, uy float32
	if length > 0 {
		ux, uy = dx/length, dy/length
	}
	if away {
		ux, uy = -ux, -uy
	}

	newX := e.destination.x + ux*distance
	newY := e.destination.y + uy*distance

	e.origin = point{x: e.destination.x, y: e.destination.y, rot: e.destination.rot, ticks: now}
	e.destination = point{x: newX, y: newY, rot: e.destination.rot, ticks: endTime}
}

// Rotate begins rotating toward rot, arriving 500ms after now.
func (e *Entity) Rotate(rot float32, now clock.ServerTime) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.alive {
		return
	}
	e.refreshCurrentPositionLocked(now)
	e.origin = point{x: e.destination.x, y: e.destination.y, rot: e.destination.rot, ticks: now}
	e.destination = point{x: e.destination.x, y: e.destination.y, rot: rot, ticks: now + movementDurationUS}
}

// Stop freezes the entity by collapsing destination into its current
// (interpolated) position.
func (e *Entity) Stop(now clock.ServerTime) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked(now)
}

func (e *Entity) stopLocked(now clock.ServerTime) {
	e.refreshCurrentPositionLocked(now)
	e.origin = e.destination
}

// RefreshCurrentPosition advances the interpolated position/rotation to
// now. Calling it twice with non-decreasing times is idempotent (spec P1):
// the second call with the same or a later time reproduces what a single
// call to the later time would have produced, because the interpolation
// always derives from the fixed origin/destination pair, not from the
// previously-refreshed value.
func (e *Entity) RefreshCurrentPosition(now clock.ServerTime) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshCurrentPositionLocked(now)
}

func (e *Entity) refreshCurrentPositionLocked(now clock.ServerTime) {
	if now == e.lastRefresh {
		return
	}
	e.lastRefresh = now

	span := e.destination.ticks - e.origin.ticks
	var prog float64
	if span > 0 {
		prog = float64(now-e.origin.ticks) / float64(span)
	} else {
		prog = 1
	}
	if prog > 1 {
		prog = 1
	}
	if prog < 0 {
		prog = 0
	}

	x := e.origin.x + float32(prog)*(e.destination.x-e.origin.x)
	y := e.origin.y + float32(prog)*(e.destination.y-e.origin.y)

	// Bias both endpoints by +pi, interpolate, remove the bias, then
	// renormalize with correctRotationLocked. The bias cancels out, so a
	// path crossing the +-pi seam is interpolated linearly between the raw
	// endpoint values.
	originRot := e.origin.rot + rotationBias
	destRot := e.destination.rot + rotationBias
	rot := originRot + float32(prog)*(destRot-originRot)
	rot = e.correctRotationLocked(rot - rotationBias)

	e.destination.x, e.destination.y, e.destination.rot = x, y, rot
	if prog >= 1 {
		e.origin = e.destination
	}
}

// CorrectRotation maps r back toward the +-3.16 range the client tolerates
// (spec §4.3), keeping the original's asymmetric branches exactly: the
// negative branch negates r rather than adding 2*pi. This is deliberate,
// not a bug to fix (spec §9 Open Question 2) - e.g. r = -10 yields 6.84,
// itself out of (-pi, pi], matching the original's documented quirk.
// Idempotent (spec P4) for any r already in range; callers are documented
// as only ever passing already-roughly-in-range input.
func (e *Entity) CorrectRotation(r float32) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.correctRotationLocked(r)
}

func (e *Entity) correctRotationLocked(r float32) float32 {
	if r > correctHigh {
		return r - correctWrap
	}
	if r < correctLow {
		return -r - correctHigh
	}
	return r
}
