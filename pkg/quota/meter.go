// Package quota provides a small injected meter for counting remote reads,
// writes, and live-subscription events.
//
// The meter exists for operational visibility on metered store plans; it has
// no effect on correctness. Components accept a [Meter] so tests can assert
// on call volume, and default to [Nop] when none is supplied.
package quota

import "sync/atomic"

// Meter counts remote store operations.
type Meter interface {
	CountReads(n int64)
	CountWrites(n int64)
	CountLiveEvents(n int64)
}

// Totals is a point-in-time snapshot of a Counter.
type Totals struct {
	Reads      int64 `json:"reads"`
	Writes     int64 `json:"writes"`
	LiveEvents int64 `json:"live_events"`
}

// Counter is a concurrency-safe Meter backed by atomics.
type Counter struct {
	reads      atomic.Int64
	writes     atomic.Int64
	liveEvents atomic.Int64
}

func NewCounter() *Counter { return &Counter{} }

func (c *Counter) CountReads(n int64)      { c.reads.Add(n) }
func (c *Counter) CountWrites(n int64)     { c.writes.Add(n) }
func (c *Counter) CountLiveEvents(n int64) { c.liveEvents.Add(n) }

// Snapshot returns the current totals.
func (c *Counter) Snapshot() Totals {
	return Totals{
		Reads:      c.reads.Load(),
		Writes:     c.writes.Load(),
		LiveEvents: c.liveEvents.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counter) Reset() {
	c.reads.Store(0)
	c.writes.Store(0)
	c.liveEvents.Store(0)
}

// Nop is a Meter that discards all counts.
var Nop Meter = nopMeter{}

type nopMeter struct{}

func (nopMeter) CountReads(int64)      {}
func (nopMeter) CountWrites(int64)     {}
func (nopMeter) CountLiveEvents(int64) {}
