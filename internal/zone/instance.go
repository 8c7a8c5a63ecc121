// Package zone implements the Zone Instance and Zone Manager: the runtime
// container for a zone's Active Entities, its merged definition, and the
// cross-entity operations (broadcast, entry/leave, spot triggers) that
// require locking more than one entity at a time.
package zone

import (
	"sync"

	"github.com/dhmanager/channel/internal/data"
	"github.com/dhmanager/channel/internal/entity"
)

// Subscriber is a connection that can receive broadcast packets. Kept as a
// tiny interface here so the zone package never imports internal/net.
type Subscriber interface {
	Send(payload []byte) error
}

// Instance is one running zone (spec §4.4). Per spec §5 "Per-Zone-Instance
// mutex guards: entity set, next-effect-time queue, subscriber set", a
// single RWMutex covers all three; reads (lookups, broadcast fan-out) take
// RLock, every mutation takes Lock.
type Instance struct {
	InstanceID   int32
	ZoneID       int32
	DynamicMapID int32
	Zone         data.ZoneDef // merged base+partials, immutable after construction

	mu          sync.RWMutex
	entities    map[entity.ID]*entity.Entity
	pending     map[entity.ID]int64 // entityID -> its currently registered key
	byKey       map[int64]map[entity.ID]bool
	subscribers map[entity.ID]Subscriber
}

// NewInstance constructs an empty Instance over an already-merged zone
// definition (see MergeZone).
func NewInstance(instanceID, zoneID, dynamicMapID int32, merged data.ZoneDef) *Instance {
	return &Instance{
		InstanceID:   instanceID,
		ZoneID:       zoneID,
		DynamicMapID: dynamicMapID,
		Zone:         merged,
		entities:     make(map[entity.ID]*entity.Entity),
		pending:      make(map[entity.ID]int64),
		byKey:        make(map[int64]map[entity.ID]bool),
		subscribers:  make(map[entity.ID]Subscriber),
	}
}

// AddEntity places e in this instance and wires its weak zone back-
// reference (spec §9 "ownership flows zone -> entity").
func (z *Instance) AddEntity(e *entity.Entity) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.entities[e.ID] = e
	e.SetZone(z)
}

// RemoveEntity fully detaches id from the instance: its entry, its pending
// next-effect-time registration, its subscriber slot, and the reverse
// opponent reference on every entity that held it as an opponent (spec P5:
// "no residual references anywhere").
func (z *Instance) RemoveEntity(id entity.ID) {
	z.mu.Lock()
	defer z.mu.Unlock()

	e, ok := z.entities[id]
	if !ok {
		return
	}
	delete(z.entities, id)
	delete(z.subscribers, id)
	z.clearPendingLocked(id)
	e.SetZone(nil)

	for _, opp := range e.ClearOpponents() {
		if other, ok := z.entities[opp]; ok {
			other.RemoveOpponent(id)
		}
	}
	for _, other := range z.entities {
		other.RemoveOpponent(id)
	}
}

func (z *Instance) clearPendingLocked(id entity.ID) {
	if key, ok := z.pending[id]; ok {
		if bucket := z.byKey[key]; bucket != nil {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(z.byKey, key)
			}
		}
		delete(z.pending, id)
	}
}

// SetNextStatusEffectTime implements entity.ZoneBackRef: it records (or,
// if absTime==0, clears) id's earliest pending next-effect-time so the
// zone's tick loop knows which entities are due for an effect drain (spec
// §4.4 "setNextStatusEffectTime").
func (z *Instance) SetNextStatusEffectTime(absTime int64, id entity.ID) {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.clearPendingLocked(id)
	if absTime == 0 {
		return
	}
	z.pending[id] = absTime
	bucket := z.byKey[absTime]
	if bucket == nil {
		bucket = make(map[entity.ID]bool)
		z.byKey[absTime] = bucket
	}
	bucket[id] = true
}

// DueEntities returns every entity whose registered next-effect-time is at
// or before nowSeconds, for the tick loop to drain via
// entity.Entity.PopEffectTicks.
func (z *Instance) DueEntities(nowSeconds int64) []entity.ID {
	z.mu.RLock()
	defer z.mu.RUnlock()

	var out []entity.ID
	for key, ids := range z.byKey {
		if key > nowSeconds {
			continue
		}
		for id := range ids {
			out = append(out, id)
		}
	}
	return out
}

// Entity looks up a live entity by ID.
func (z *Instance) Entity(id entity.ID) (*entity.Entity, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	e, ok := z.entities[id]
	return e, ok
}

// Entities returns a snapshot of every entity currently in the instance.
func (z *Instance) Entities() []*entity.Entity {
	z.mu.RLock()
	defer z.mu.RUnlock()
	out := make([]*entity.Entity, 0, len(z.entities))
	for _, e := range z.entities {
		out = append(out, e)
	}
	return out
}

// EntityCount reports how many entities are currently in the instance,
// used by the Zone Manager's idle-timeout sweep.
func (z *Instance) EntityCount() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return len(z.entities)
}

// Subscribe registers a connection to receive this instance's broadcasts.
func (z *Instance) Subscribe(id entity.ID, sub Subscriber) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.subscribers[id] = sub
}

func (z *Instance) Unsubscribe(id entity.ID) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.subscribers, id)
}

// Broadcast fans payload out to every subscriber except skip (pass 0 to
// exclude none). Packets for a subscriber that has since left the instance
// are never sent (spec §4.4 "Packets destined for players outside the
// current zone are dropped") — leaving removes the subscriber entry, so a
// stale send target simply isn't in the map anymore.
func (z *Instance) Broadcast(payload []byte, skip entity.ID) {
	z.mu.RLock()
	subs := make([]Subscriber, 0, len(z.subscribers))
	for id, sub := range z.subscribers {
		if id == skip {
			continue
		}
		subs = append(subs, sub)
	}
	z.mu.RUnlock()

	for _, sub := range subs {
		_ = sub.Send(payload)
	}
}

// Spot looks up a spot definition by ID within this instance's merged zone.
func (z *Instance) Spot(spotID int32) (data.SpotDef, bool) {
	s, ok := z.Zone.Spots[spotID]
	return s, ok
}
