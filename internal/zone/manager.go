package zone

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dhmanager/channel/internal/core/clock"
	"github.com/dhmanager/channel/internal/data"
	"github.com/dhmanager/channel/internal/entity"
	"github.com/dhmanager/channel/internal/scripting"
)

// Manager indexes every running Instance by instanceID, and additionally
// by (zoneID, dynamicMapID) so a non-instanced zone's single running copy
// can be found without a linear scan (spec §4.5 "Indexes running instances
// by (instanceID, zoneID, dynamicMapID)").
type Manager struct {
	defs  *data.Registry
	clock *clock.Clock

	nextInstanceID atomic.Int32

	mu         sync.RWMutex
	byID       map[int32]*Instance
	byZoneDyn  map[zoneDynKey]*Instance
	lastActive map[int32]clock.ServerTime

	scripts SpotScripter
	log     *zap.Logger
}

type zoneDynKey struct {
	zoneID       int32
	dynamicMapID int32
}

// SpotScripter runs a spot's server-side enter/leave action.
type SpotScripter interface {
	RunSpotAction(zoneID, spotID int32, phase string, ctx *scripting.ActionContext) error
}

func NewManager(defs *data.Registry, clk *clock.Clock, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		defs:       defs,
		clock:      clk,
		byID:       make(map[int32]*Instance),
		byZoneDyn:  make(map[zoneDynKey]*Instance),
		lastActive: make(map[int32]clock.ServerTime),
		log:        log,
	}
}

// SetScripts wires the spot-action scripting engine. Optional: a nil
// scripter means spot enter/leave actions are skipped (e.g. in tests).
func (m *Manager) SetScripts(s SpotScripter) {
	m.scripts = s
}

// FindOrCreate returns the running instance for (zoneID, dynamicMapID),
// creating one if none exists (spec §4.5 step 1). Instanced dynamic maps
// (data.DynamicMapDef.Instanced) never share an instance across callers;
// non-instanced maps return the sole existing instance.
func (m *Manager) FindOrCreate(zoneID, dynamicMapID int32, instanced bool) (*Instance, error) {
	key := zoneDynKey{zoneID, dynamicMapID}

	if !instanced {
		m.mu.RLock()
		if inst, ok := m.byZoneDyn[key]; ok {
			m.mu.RUnlock()
			return inst, nil
		}
		m.mu.RUnlock()
	}

	base, ok := m.defs.Zones.Lookup(zoneID)
	if !ok {
		return nil, ErrUnknownZone
	}

	partials := SelectAutoApply(m.defs.Partials.All(), dynamicMapID)
	merged := MergeZone(base, partials)

	id := m.nextInstanceID.Add(1)
	inst := NewInstance(id, zoneID, dynamicMapID, merged)

	m.mu.Lock()
	m.byID[id] = inst
	if !instanced {
		m.byZoneDyn[key] = inst
	}
	m.lastActive[id] = m.clock.Now()
	m.mu.Unlock()

	return inst, nil
}

// Get looks up a running instance by instanceID.
func (m *Manager) Get(instanceID int32) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.byID[instanceID]
	return inst, ok
}

// InstanceIDs returns every currently running instance's ID, for the tick
// worker pool to fan out over.
func (m *Manager) InstanceIDs() []int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int32, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	return ids
}

// Touch records activity on instanceID, resetting its idle timer.
func (m *Manager) Touch(instanceID int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActive[instanceID] = m.clock.Now()
}

// SweepIdle destroys every instance with zero entities whose last activity
// is older than idleTimeout. Returns the destroyed instance IDs.
func (m *Manager) SweepIdle(idleTimeout clock.ServerTime) []int32 {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var destroyed []int32
	for id, inst := range m.byID {
		if inst.EntityCount() > 0 {
			m.lastActive[id] = now
			continue
		}
		if now-m.lastActive[id] < idleTimeout {
			continue
		}
		delete(m.byID, id)
		delete(m.lastActive, id)
		for key, candidate := range m.byZoneDyn {
			if candidate == inst {
				delete(m.byZoneDyn, key)
			}
		}
		destroyed = append(destroyed, id)
	}
	return destroyed
}

// zoneError is a sentinel error type for zone-manager lookup failures.
type zoneError string

func (e zoneError) Error() string { return string(e) }

// ErrUnknownZone is returned by FindOrCreate when zoneID has no Definition
// Registry entry.
const ErrUnknownZone = zoneError("zone: unknown zone id")

// EnterZone implements the zone-entry sequence (spec §4.5 steps 1-5):
// find-or-create the destination instance, leave the old zone if any,
// place the entity, activate its status effects, and broadcast its
// arrival. oldInstance may be nil for a fresh login.
func (m *Manager) EnterZone(oldInstance *Instance, e *entity.Entity, zoneID, dynamicMapID int32, instanced bool, x, y, rot float32, spotID int32, nowSeconds int64, now clock.ServerTime) (*Instance, error) {
	dest, err := m.FindOrCreate(zoneID, dynamicMapID, instanced)
	if err != nil {
		return nil, err
	}

	if oldInstance != nil {
		m.LeaveZone(oldInstance, e, nowSeconds)
	}

	if spotID != 0 {
		if spot, ok := dest.Spot(spotID); ok {
			x, y = float32(spot.X1+spot.X2)/2, float32(spot.Y1+spot.Y2)/2
		}
	}
	e.Move(x, y, now)
	e.Rotate(rot, now)
	e.Stop(now)

	dest.AddEntity(e)

	if spotID != 0 && m.scripts != nil {
		actCtx := &scripting.ActionContext{
			EntityID:     int32(e.ID),
			ZoneID:       zoneID,
			DynamicMapID: dynamicMapID,
			InstanceID:   dest.InstanceID,
			X:            x, Y: y, Rot: rot,
		}
		if err := m.scripts.RunSpotAction(zoneID, spotID, scripting.PhaseEnter, actCtx); err != nil {
			m.log.Warn("spot enter action failed", zap.Int32("zoneID", zoneID), zap.Int32("spotID", spotID), zap.Error(err))
		}
	}

	stored := e.DeactivateEffects(nowSeconds) // no-op if already inactive; normalizes state before reactivating
	minKey := e.ActivateEffects(stored, nowSeconds)
	dest.SetNextStatusEffectTime(minKey, e.ID)

	dest.Broadcast(nil, e.ID) // payload encoding is a handler concern

	m.Touch(dest.InstanceID)

	return dest, nil
}

// LeaveZone implements spec §4.5 step 2: fire zoneout-cancel (flag 0x04)
// on the entity's status effects, deactivate them (absolute -> relative),
// then remove the entity from the old instance.
func (m *Manager) LeaveZone(inst *Instance, e *entity.Entity, nowSeconds int64) {
	const cancelZoneout = 0x04
	e.CancelStatusEffects(cancelZoneout)
	e.DeactivateEffects(nowSeconds)
	inst.RemoveEntity(e.ID)
}
