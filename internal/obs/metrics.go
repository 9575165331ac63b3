package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxTag = int(schema.TagExternal)

// Metrics collects lightweight counters and latency stats for a run.
type Metrics struct {
	orderCounts    [maxTag + 1]uint64
	holdCounts     [maxTag + 1]uint64
	trades         uint64
	evolutions     uint64
	replaced       uint64
	selfTradeDrops uint64
	expiredDrops   uint64

	stepLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	OrderCounts    map[schema.Tag]uint64
	HoldCounts     map[schema.Tag]uint64
	Trades         uint64
	Evolutions     uint64
	Replaced       uint64
	SelfTradeDrops uint64
	ExpiredDrops   uint64
	StepLatency    LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncOrder records an order submitted by a trader with the given tag.
func (m *Metrics) IncOrder(tag schema.Tag) {
	if m == nil {
		return
	}
	idx := int(tag)
	if idx >= 0 && idx < len(m.orderCounts) {
		atomic.AddUint64(&m.orderCounts[idx], 1)
	}
}

// IncHold records a trader sitting a tick out.
func (m *Metrics) IncHold(tag schema.Tag) {
	if m == nil {
		return
	}
	idx := int(tag)
	if idx >= 0 && idx < len(m.holdCounts) {
		atomic.AddUint64(&m.holdCounts[idx], 1)
	}
}

// AddTrades records executed trades.
func (m *Metrics) AddTrades(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.trades, uint64(n))
}

// IncEvolution records one evolution pass replacing n traders.
func (m *Metrics) IncEvolution(n int) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.evolutions, 1)
	atomic.AddUint64(&m.replaced, uint64(n))
}

// AddSelfTradeDrops records resting orders discarded by the self-trade
// guard.
func (m *Metrics) AddSelfTradeDrops(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.selfTradeDrops, uint64(n))
}

// AddExpiredDrops records resting orders discarded past their age limit.
func (m *Metrics) AddExpiredDrops(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.expiredDrops, uint64(n))
}

// ObserveStep measures one simulation step.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.stepLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	orders := make(map[schema.Tag]uint64)
	for i := range m.orderCounts {
		if v := atomic.LoadUint64(&m.orderCounts[i]); v > 0 {
			orders[schema.Tag(i)] = v
		}
	}
	holds := make(map[schema.Tag]uint64)
	for i := range m.holdCounts {
		if v := atomic.LoadUint64(&m.holdCounts[i]); v > 0 {
			holds[schema.Tag(i)] = v
		}
	}
	return Snapshot{
		OrderCounts:    orders,
		HoldCounts:     holds,
		Trades:         atomic.LoadUint64(&m.trades),
		Evolutions:     atomic.LoadUint64(&m.evolutions),
		Replaced:       atomic.LoadUint64(&m.replaced),
		SelfTradeDrops: atomic.LoadUint64(&m.selfTradeDrops),
		ExpiredDrops:   atomic.LoadUint64(&m.expiredDrops),
		StepLatency:    m.stepLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
