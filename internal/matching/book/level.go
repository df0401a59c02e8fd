package book

import (
	"container/list"

	"github.com/orbitcex/matchcore/internal/matching/model"
)

// Level is the FIFO sequence of resting orders at one (side, price). The
// sequence order is arrival order, i.e. time priority. A Locator returned
// by Push resolves to the same *model.Order for as long as it remains in
// the level; Remove is O(1) given that locator.
type Level struct {
	Side  model.Side
	Price model.Price

	orders    *list.List
	aggregate uint64
}

// Locator is an opaque handle into a Level's FIFO sequence, produced by
// Push and consumed by Remove. Callers must not use a Locator against any
// Level other than the one that produced it.
type Locator struct {
	elem *list.Element
}

func newLevel(side model.Side, price model.Price) *Level {
	return &Level{Side: side, Price: price, orders: list.New()}
}

// Push appends order to the tail of the FIFO sequence and returns its
// locator.
func (l *Level) Push(o *model.Order) Locator {
	e := l.orders.PushBack(o)
	l.aggregate += o.Residual
	return Locator{elem: e}
}

// Remove unlinks the order at loc from the sequence in O(1).
func (l *Level) Remove(loc Locator) {
	o := loc.elem.Value.(*model.Order)
	l.aggregate -= o.Residual
	l.orders.Remove(loc.elem)
}

// Front returns the head order (earliest arrival) or nil if empty.
func (l *Level) Front() *model.Order {
	e := l.orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*model.Order)
}

// FrontLocator returns the locator of the head order.
func (l *Level) FrontLocator() Locator {
	return Locator{elem: l.orders.Front()}
}

// DecrementAggregate reflects a fill against the head order without
// unlinking it; callers must keep this in sync with Order.Residual.
func (l *Level) DecrementAggregate(qty uint64) {
	l.aggregate -= qty
}

// Len returns the number of resting orders at this level.
func (l *Level) Len() int {
	return l.orders.Len()
}

// Aggregate returns the sum of residual quantities at this level.
func (l *Level) Aggregate() uint64 {
	return l.aggregate
}

// Empty reports whether the level has no resting orders.
func (l *Level) Empty() bool {
	return l.orders.Len() == 0
}

// Orders returns the resting orders in FIFO order. Intended for snapshots
// and tests, not the hot path.
func (l *Level) Orders() []*model.Order {
	out := make([]*model.Order, 0, l.orders.Len())
	for e := l.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*model.Order))
	}
	return out
}
