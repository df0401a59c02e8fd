package metrics

import "sync/atomic"

// decades spans 1ns (10^0) to 1s (10^9), per spec section 4.7.
const (
	decades       = 10
	subBuckets    = 10
	bucketCount   = decades * subBuckets
)

// histogram is a fixed, preallocated logarithmic-bucket latency
// histogram. Each decade [10^d, 10^(d+1)) gets subBuckets slots; slot s
// covers [(s+1)*10^d, (s+2)*10^d), so nine linear slices of width 10^d
// fill the decade and the last slot is reached only in the top decade,
// where it collects every value of 10s and above. This gives
// coarse-but-bounded percentile resolution without unbounded bucket
// counts or hot-path allocation.
type histogram struct {
	buckets [bucketCount]int64 // atomic
}

func bucketIndex(ns int64) int {
	if ns < 1 {
		ns = 1
	}
	decade := 0
	base := int64(1)
	for decade < decades-1 && base*10 <= ns {
		base *= 10
		decade++
	}
	sub := (ns - base) / base
	if sub >= subBuckets {
		sub = subBuckets - 1
	}
	return decade*subBuckets + int(sub)
}

func bucketUpperBoundNs(index int) int64 {
	decade := index / subBuckets
	sub := index % subBuckets
	base := int64(1)
	for i := 0; i < decade; i++ {
		base *= 10
	}
	return base * int64(sub+2) // exclusive upper bound of this slice
}

func (h *histogram) record(ns int64) {
	atomic.AddInt64(&h.buckets[bucketIndex(ns)], 1)
}

// percentile returns the upper bound (nanoseconds) of the bucket
// containing the p-th percentile (0 < p <= 1), an approximation
// consistent with the bounded-bucket-count contract in spec 4.7.
func (h *histogram) percentile(p float64) int64 {
	var total int64
	counts := make([]int64, bucketCount)
	for i := range counts {
		counts[i] = atomic.LoadInt64(&h.buckets[i])
		total += counts[i]
	}
	if total == 0 {
		return 0
	}
	target := int64(p * float64(total))
	if target < 1 {
		target = 1
	}
	var cum int64
	for i, c := range counts {
		cum += c
		if cum >= target {
			return bucketUpperBoundNs(i)
		}
	}
	return bucketUpperBoundNs(bucketCount - 1)
}

func (h *histogram) reset() {
	for i := range h.buckets {
		atomic.StoreInt64(&h.buckets[i], 0)
	}
}
