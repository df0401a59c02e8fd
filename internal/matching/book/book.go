package book

import "github.com/orbitcex/matchcore/internal/matching/model"

// Book is the two-sided price-level book for a single symbol, plus the
// order index shared by both sides. It is owned exclusively by the
// matcher goroutine (spec section 5): no other goroutine may read or
// write it directly.
type Book struct {
	Bids  *Side
	Asks  *Side
	Index *Index
}

// New constructs an empty book.
func New() *Book {
	return &Book{
		Bids:  NewSide(model.Buy),
		Asks:  NewSide(model.Sell),
		Index: NewIndex(),
	}
}

// SideFor returns the resting side (the side an order of the given side
// would insert into).
func (b *Book) SideFor(side model.Side) *Side {
	if side == model.Buy {
		return b.Bids
	}
	return b.Asks
}

// Opposing returns the side an order of the given side would match
// against.
func (b *Book) Opposing(side model.Side) *Side {
	if side == model.Buy {
		return b.Asks
	}
	return b.Bids
}

// CanFullyFill implements the FillOrKill full-fill predicate from spec
// section 4.4: walk the opposing side from the best price inward, summing
// level aggregate quantities, until either the running sum covers qty
// (true) or the next level is strictly worse than limit (false).
func CanFullyFill(opposing *Side, side model.Side, limit model.Price, qty uint64) bool {
	var sum uint64
	fullyFillable := false
	opposing.Levels(func(l *Level) bool {
		if WorseThanLimit(side, l.Price, limit) {
			return false
		}
		sum += l.Aggregate()
		if sum >= qty {
			fullyFillable = true
			return false
		}
		return true
	})
	return fullyFillable
}

// WorseThanLimit reports whether price is strictly worse than limit for
// an order of the given (aggressing) side matching against the opposite
// book: a buy's limit tolerates ask prices <= limit; a sell's limit
// tolerates bid prices >= limit.
func WorseThanLimit(side model.Side, price, limit model.Price) bool {
	if side == model.Buy {
		return price > limit
	}
	return price < limit
}

// Crosses reports whether an order of side at price would cross the
// current best of the opposing side.
func (b *Book) Crosses(side model.Side, price model.Price) bool {
	opp := b.Opposing(side)
	best, ok := opp.Best()
	if !ok {
		return false
	}
	if side == model.Buy {
		return price >= best.Price
	}
	return price <= best.Price
}

// BestOf returns the best price on side, or ok=false if empty.
func (b *Book) BestOf(side model.Side) (model.Price, bool) {
	l, ok := b.SideFor(side).Best()
	if !ok {
		return 0, false
	}
	return l.Price, true
}

// LevelSnapshot is one aggregated (price, quantity, order-count) row,
// used by book snapshots and the HTTP observation surface.
type LevelSnapshot struct {
	Price    model.Price
	Quantity uint64
	Count    int
}

// Snapshot returns up to maxLevels aggregated rows per side, best first.
// This is a best-effort read: callers invoke it from the matcher goroutine
// (synchronous snapshot) or against a quiesced/double-buffered copy, per
// spec section 6's book_snapshot contract — Book itself does no locking.
func (b *Book) Snapshot(maxLevels int) (bids, asks []LevelSnapshot) {
	collect := func(s *Side) []LevelSnapshot {
		out := make([]LevelSnapshot, 0, maxLevels)
		s.Levels(func(l *Level) bool {
			if len(out) >= maxLevels {
				return false
			}
			out = append(out, LevelSnapshot{Price: l.Price, Quantity: l.Aggregate(), Count: l.Len()})
			return true
		})
		return out
	}
	return collect(b.Bids), collect(b.Asks)
}
