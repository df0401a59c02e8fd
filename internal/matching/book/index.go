package book

import "github.com/orbitcex/matchcore/internal/matching/model"

// entry pairs an order with its FIFO locator within its resting level.
type entry struct {
	order *model.Order
	side  model.Side
	loc   Locator
}

// Index maps order identifiers to their record and locator, giving O(1)
// cancel/modify lookup (spec section 3). Owned exclusively by the matcher.
type Index struct {
	byID map[model.ID]entry
}

// NewIndex constructs an empty order index.
func NewIndex() *Index {
	return &Index{byID: make(map[model.ID]entry)}
}

// Put records that order is resting on side at loc.
func (ix *Index) Put(o *model.Order, side model.Side, loc Locator) {
	ix.byID[o.ID] = entry{order: o, side: side, loc: loc}
}

// Get returns the order, its side and its locator, or ok=false if absent.
func (ix *Index) Get(id model.ID) (*model.Order, model.Side, Locator, bool) {
	e, ok := ix.byID[id]
	if !ok {
		return nil, 0, Locator{}, false
	}
	return e.order, e.side, e.loc, true
}

// Has reports whether id is currently resting.
func (ix *Index) Has(id model.ID) bool {
	_, ok := ix.byID[id]
	return ok
}

// Delete removes id from the index.
func (ix *Index) Delete(id model.ID) {
	delete(ix.byID, id)
}

// Len returns the number of resting orders indexed.
func (ix *Index) Len() int {
	return len(ix.byID)
}
