package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketIndexIsMonotonicWithValue(t *testing.T) {
	assert.LessOrEqual(t, bucketIndex(1), bucketIndex(50))
	assert.LessOrEqual(t, bucketIndex(50), bucketIndex(5_000))
	assert.LessOrEqual(t, bucketIndex(5_000), bucketIndex(500_000_000))
}

func TestBucketIndexPlacesMinimumLatencyInFirstBucket(t *testing.T) {
	assert.Equal(t, 0, bucketIndex(1))
}

func TestBucketIndexClampsValuesAboveOneSecond(t *testing.T) {
	assert.Equal(t, bucketIndex(10_000_000_000), bucketIndex(50_000_000_000))
}

func TestHistogramPercentileApproximatesDistribution(t *testing.T) {
	h := &histogram{}
	for i := 0; i < 100; i++ {
		h.record(1000) // 1us, decade 3
	}
	for i := 0; i < 10; i++ {
		h.record(1_000_000_000) // 1s, top decade
	}
	p50 := h.percentile(0.5)
	p999 := h.percentile(0.999)
	assert.Less(t, p50, int64(10_000))
	assert.GreaterOrEqual(t, p999, p50)
}

func TestRecordTracksMinMaxAndPercentiles(t *testing.T) {
	r := New()
	r.RecordProcessed(500)
	r.RecordProcessed(1500)
	r.RecordProcessed(100)

	snap := r.Snapshot()
	assert.Equal(t, int64(100), snap.MinLatencyNs)
	assert.Equal(t, int64(1500), snap.MaxLatencyNs)
	assert.Equal(t, uint64(3), snap.OrdersProcessed)
}

func TestResetClearsCounters(t *testing.T) {
	r := New()
	r.RecordReceived()
	r.RecordProcessed(100)
	r.RecordTrade()
	r.Reset()

	snap := r.Snapshot()
	assert.Equal(t, uint64(0), snap.OrdersReceived)
	assert.Equal(t, uint64(0), snap.OrdersProcessed)
	assert.Equal(t, uint64(0), snap.TradesExecuted)
	assert.Equal(t, int64(0), snap.MinLatencyNs)
}

func TestUpdateQueueDepthTracksHighWaterMark(t *testing.T) {
	r := New()
	r.UpdateQueueDepth(5)
	r.UpdateQueueDepth(3)
	r.UpdateQueueDepth(8)
	r.UpdateQueueDepth(2)

	snap := r.Snapshot()
	assert.Equal(t, int64(2), snap.QueueDepth)
	assert.Equal(t, int64(8), snap.QueueDepthHigh)
}
