package main

import (
	"sync"
	"time"

	"github.com/dhmanager/channel/internal/config"
	"github.com/dhmanager/channel/internal/core/clock"
	"github.com/dhmanager/channel/internal/zone"
)

// zoneTickPool is the worker pool spec.md §5 requires in place of a single
// goroutine game loop: a fixed number of workers drain a job channel of
// zone-instance IDs every tick, each worker touching only the one Instance
// it dequeued (and that Instance's own mutex), never the others.
type zoneTickPool struct {
	zones *zone.Manager
	clk   *clock.Clock
	cfg   config.ZoneConfig

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func newZoneTickPool(zones *zone.Manager, clk *clock.Clock, cfg config.ZoneConfig) *zoneTickPool {
	return &zoneTickPool{zones: zones, clk: clk, cfg: cfg, stopCh: make(chan struct{})}
}

func (p *zoneTickPool) Start() {
	jobs := make(chan int32, 256)

	workers := p.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(jobs)
	}

	p.wg.Add(1)
	go p.dispatch(jobs)
}

func (p *zoneTickPool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

// dispatch fires once per configured tick interval, draining the clock's
// due callbacks and pushing every currently-tracked instance ID onto jobs
// for the worker pool to process.
func (p *zoneTickPool) dispatch(jobs chan<- int32) {
	defer p.wg.Done()

	interval := time.Duration(p.cfg.TickIntervalMicros) * time.Microsecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(jobs)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			now := p.clk.Now()
			p.clk.Drain(now)
			for _, id := range p.zones.InstanceIDs() {
				select {
				case jobs <- id:
				default:
					// job queue saturated this tick; the instance picks up
					// next tick instead of blocking the dispatch loop
				}
			}
		}
	}
}

// worker processes one zone instance at a time: pops due entities from its
// next-effect-time registry and pops each entity's accrued status-effect
// ticks, rebroadcasting to the instance's subscribers on every change.
func (p *zoneTickPool) worker(jobs <-chan int32) {
	defer p.wg.Done()

	for id := range jobs {
		inst, ok := p.zones.Get(id)
		if !ok {
			continue
		}
		nowSeconds := time.Now().Unix()
		for _, entID := range inst.DueEntities(nowSeconds) {
			e, ok := inst.Entity(entID)
			if !ok {
				continue
			}
			_, _, added, updated, removed := e.PopEffectTicks(nowSeconds)
			if len(added)+len(updated)+len(removed) > 0 {
				inst.Broadcast(nil, 0) // payload encoding is a handler concern, out of this bootstrap's scope
			}
		}
	}
}
