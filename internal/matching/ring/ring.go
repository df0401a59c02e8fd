// Package ring implements the bounded single-producer/single-consumer ring
// buffer used both for the matcher's command ingress and for the journal's
// entry queue (distinct instances of the same type, per spec section 4.1).
package ring

import "sync/atomic"

const cacheLinePad = 64 - 8

// Ring is a fixed-capacity SPSC ring buffer. Capacity must be a power of
// two; New rounds up if it is not. Push is called only from the
// producer goroutine, Pop only from the consumer goroutine — mixing
// callers across goroutines other than that pairing is undefined.
type Ring[T any] struct {
	buf  []T
	mask uint64

	// head/tail sit on separate cache lines so producer and consumer
	// don't false-share the same line under sustained throughput.
	_    [cacheLinePad]byte
	tail uint64 // atomic, producer-owned
	_    [cacheLinePad]byte
	head uint64 // atomic, consumer-owned
	_    [cacheLinePad]byte
}

// New allocates a ring of the given capacity, rounded up to a power of two.
func New[T any](capacity int) *Ring[T] {
	c := nextPowerOfTwo(capacity)
	return &Ring[T]{
		buf:  make([]T, c),
		mask: uint64(c) - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// TryPush appends item, returning false iff the ring is full. The tail
// store uses release ordering so a concurrent TryPop's acquire load of
// tail observes the written slot.
func (r *Ring[T]) TryPush(item T) bool {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	if tail-head >= uint64(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = item
	atomic.StoreUint64(&r.tail, tail+1)
	return true
}

// TryPop removes and returns the oldest item, returning false iff empty.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head == tail {
		return zero, false
	}
	idx := head & r.mask
	item := r.buf[idx]
	r.buf[idx] = zero
	atomic.StoreUint64(&r.head, head+1)
	return item, true
}

// Size returns the current number of queued items. Safe from any thread.
func (r *Ring[T]) Size() int {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	return int(tail - head)
}

// Capacity returns the ring's fixed capacity.
func (r *Ring[T]) Capacity() int {
	return len(r.buf)
}

// IsEmpty reports whether the ring currently holds no items.
func (r *Ring[T]) IsEmpty() bool {
	return atomic.LoadUint64(&r.head) == atomic.LoadUint64(&r.tail)
}
