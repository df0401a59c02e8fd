// Package metrics implements the cache-line-aligned record of atomic
// counters and the latency histogram from spec section 4.7. The matcher
// goroutine writes with relaxed atomics on the hot path; any other
// goroutine may read a consistent-enough snapshot at any time.
package metrics

import "sync/atomic"

const cacheLinePad = 64 - 8

// Record holds every counter the matcher updates per command, padded to
// keep independently-hot fields off each other's cache line, mirroring
// the atomic-counter layout used throughout the teacher's engine metrics
// collector.
type Record struct {
	ordersReceived uint64
	_              [cacheLinePad]byte
	ordersProcessed uint64
	_               [cacheLinePad]byte
	ordersRejected uint64
	_              [cacheLinePad]byte
	tradesExecuted uint64
	_              [cacheLinePad]byte
	journalDropped uint64
	_              [cacheLinePad]byte
	emptyOppositeMarket uint64
	_              [cacheLinePad]byte
	fillOrKillUnfillable uint64
	_              [cacheLinePad]byte
	queueDepthCur  int64
	_              [cacheLinePad]byte
	queueDepthHigh int64
	_              [cacheLinePad]byte
	minLatencyNs   int64
	_              [cacheLinePad]byte
	maxLatencyNs   int64
	_              [cacheLinePad]byte

	latency histogram
}

// New constructs a zeroed Record.
func New() *Record {
	r := &Record{}
	atomic.StoreInt64(&r.minLatencyNs, -1)
	return r
}

func (r *Record) RecordReceived() {
	atomic.AddUint64(&r.ordersReceived, 1)
}

func (r *Record) RecordRejected() {
	atomic.AddUint64(&r.ordersRejected, 1)
}

func (r *Record) RecordTrade() {
	atomic.AddUint64(&r.tradesExecuted, 1)
}

func (r *Record) RecordJournalDrop() {
	atomic.AddUint64(&r.journalDropped, 1)
}

// RecordEmptyOppositeMarket accounts a Market order accepted against an
// empty opposing side (spec section 8, scenario 6): no trade, no resting
// order, but a distinct counter from a generic rejection.
func (r *Record) RecordEmptyOppositeMarket() {
	atomic.AddUint64(&r.emptyOppositeMarket, 1)
}

// RecordFillOrKillUnfillable accounts a FillOrKill Add rejected because
// the opposing side could not cover its full quantity (spec section 7's
// FullFillImpossible), mirroring RecordEmptyOppositeMarket's treatment.
func (r *Record) RecordFillOrKillUnfillable() {
	atomic.AddUint64(&r.fillOrKillUnfillable, 1)
}

// RecordProcessed accounts one fully processed command and its end-to-end
// latency in nanoseconds (ingress to matcher completion, spec 4.7).
func (r *Record) RecordProcessed(latencyNs int64) {
	atomic.AddUint64(&r.ordersProcessed, 1)
	r.latency.record(latencyNs)

	for {
		cur := atomic.LoadInt64(&r.minLatencyNs)
		if cur != -1 && cur <= latencyNs {
			break
		}
		if atomic.CompareAndSwapInt64(&r.minLatencyNs, cur, latencyNs) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&r.maxLatencyNs)
		if cur >= latencyNs {
			break
		}
		if atomic.CompareAndSwapInt64(&r.maxLatencyNs, cur, latencyNs) {
			break
		}
	}
}

// UpdateQueueDepth records the current command queue depth and tracks the
// high-water mark (spec 4.7's queue high-water requirement).
func (r *Record) UpdateQueueDepth(depth int) {
	atomic.StoreInt64(&r.queueDepthCur, int64(depth))
	for {
		cur := atomic.LoadInt64(&r.queueDepthHigh)
		if cur >= int64(depth) {
			break
		}
		if atomic.CompareAndSwapInt64(&r.queueDepthHigh, cur, int64(depth)) {
			break
		}
	}
}

// Reset clears all counters and the latency histogram, used by the
// warm-up/stats-reset operation supplemented from original_source.
func (r *Record) Reset() {
	atomic.StoreUint64(&r.ordersReceived, 0)
	atomic.StoreUint64(&r.ordersProcessed, 0)
	atomic.StoreUint64(&r.ordersRejected, 0)
	atomic.StoreUint64(&r.tradesExecuted, 0)
	atomic.StoreUint64(&r.journalDropped, 0)
	atomic.StoreUint64(&r.emptyOppositeMarket, 0)
	atomic.StoreUint64(&r.fillOrKillUnfillable, 0)
	atomic.StoreInt64(&r.queueDepthHigh, atomic.LoadInt64(&r.queueDepthCur))
	atomic.StoreInt64(&r.minLatencyNs, -1)
	atomic.StoreInt64(&r.maxLatencyNs, 0)
	r.latency.reset()
}

// Snapshot is a point-in-time, non-atomic copy of Record for reporting.
type Snapshot struct {
	OrdersReceived  uint64
	OrdersProcessed uint64
	OrdersRejected  uint64
	TradesExecuted  uint64
	JournalDropped  uint64
	EmptyOppositeMarket uint64
	FillOrKillUnfillable uint64
	QueueDepth      int64
	QueueDepthHigh  int64
	MinLatencyNs    int64
	MaxLatencyNs    int64
	P50Ns           int64
	P99Ns           int64
	P999Ns          int64
}

// Snapshot reads a consistent-enough view of every counter plus derived
// latency percentiles (supplemented from original_source's
// PerformanceMonitor).
func (r *Record) Snapshot() Snapshot {
	minLatency := atomic.LoadInt64(&r.minLatencyNs)
	if minLatency == -1 {
		minLatency = 0
	}
	return Snapshot{
		OrdersReceived:  atomic.LoadUint64(&r.ordersReceived),
		OrdersProcessed: atomic.LoadUint64(&r.ordersProcessed),
		OrdersRejected:  atomic.LoadUint64(&r.ordersRejected),
		TradesExecuted:  atomic.LoadUint64(&r.tradesExecuted),
		JournalDropped:  atomic.LoadUint64(&r.journalDropped),
		EmptyOppositeMarket: atomic.LoadUint64(&r.emptyOppositeMarket),
		FillOrKillUnfillable: atomic.LoadUint64(&r.fillOrKillUnfillable),
		QueueDepth:      atomic.LoadInt64(&r.queueDepthCur),
		QueueDepthHigh:  atomic.LoadInt64(&r.queueDepthHigh),
		MinLatencyNs:    minLatency,
		MaxLatencyNs:    atomic.LoadInt64(&r.maxLatencyNs),
		P50Ns:           r.latency.percentile(0.50),
		P99Ns:           r.latency.percentile(0.99),
		P999Ns:          r.latency.percentile(0.999),
	}
}
