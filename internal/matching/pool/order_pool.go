// Package pool implements the bounded, preallocated order-record supply
// used by the matcher's hot path (spec section 4.2). Acquire runs on the
// producer goroutine and Release mostly on the matcher goroutine (see
// OrderPool); the pool never frees memory during operation.
package pool

import (
	"sync"

	"github.com/orbitcex/matchcore/internal/matching/model"
)

// OrderPool hands out and reclaims *model.Order records in LIFO order over
// a preallocated slice stack, per spec section 4.2. If the pool is
// exhausted, Acquire allocates one more record rather than blocking or
// rejecting — the documented soft-failure mode from spec section 4.2.
// Acquire is called from the producer goroutine (Engine.AddOrder) while
// Release runs on the matcher goroutine, so the stack is guarded by a
// mutex; each call is a handful of instructions and the two goroutines
// only ever meet here, unlike the book/index/pool contents themselves.
type OrderPool struct {
	mu    sync.Mutex
	stack []*model.Order
}

// New preallocates size order records.
func New(size int) *OrderPool {
	p := &OrderPool{stack: make([]*model.Order, 0, size)}
	for i := 0; i < size; i++ {
		p.stack = append(p.stack, &model.Order{})
	}
	return p
}

// Acquire returns the most recently released record, or a freshly
// allocated one if the pool is empty.
func (p *OrderPool) Acquire() *model.Order {
	p.mu.Lock()
	n := len(p.stack)
	if n == 0 {
		p.mu.Unlock()
		return &model.Order{}
	}
	o := p.stack[n-1]
	p.stack = p.stack[:n-1]
	p.mu.Unlock()
	return o
}

// Release returns a record to the top of the pool stack, to be the next
// one handed out by Acquire. Releasing an order whose Residual is
// non-zero is a programmer error — the matcher must fully fill or cancel
// an order before releasing it.
func (p *OrderPool) Release(o *model.Order) {
	if o.Residual != 0 {
		panic("pool: release of order with non-zero residual")
	}
	o.Reset()
	p.mu.Lock()
	if len(p.stack) < cap(p.stack) {
		p.stack = append(p.stack, o)
	}
	// Pool at capacity; let GC reclaim this one.
	p.mu.Unlock()
}

// Len reports the number of currently pooled (idle) records.
func (p *OrderPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stack)
}
