// Package book implements the price-level book: one Side (bids or asks)
// per instance, backed by an ordered tree keyed by price with a cached
// best-price value, per spec section 4.3 variant (a).
package book

import (
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/tidwall/btree"
)

// Side holds all resting price levels for one side of the book, keyed
// directly by model.Price in the tree's natural ascending order. Bids
// read best-first via Max/Reverse, asks via Min/Scan, avoiding any
// per-lookup probe allocation (spec section 5's zero-allocation hot
// path) since btree.Map.Get/Delete take the key by value.
//
// Side is owned exclusively by the matcher goroutine; it is never locked
// and must never be touched from any other goroutine (spec section 5).
type Side struct {
	side   model.Side
	levels *btree.Map[model.Price, *Level]

	hasBest bool
	bestPrc model.Price
	bestLvl *Level
}

// NewSide constructs an empty book side for the given side.
func NewSide(side model.Side) *Side {
	return &Side{side: side, levels: btree.NewMap[model.Price, *Level](0)}
}

// Level returns the existing level at price, or nil.
func (s *Side) Level(price model.Price) *Level {
	l, ok := s.levels.Get(price)
	if !ok {
		return nil
	}
	return l
}

// LevelOrCreate returns the level at price, creating it (and refreshing
// the cached best price if it becomes the new extremal level) if absent.
func (s *Side) LevelOrCreate(price model.Price) *Level {
	if l := s.Level(price); l != nil {
		return l
	}
	l := newLevel(s.side, price)
	s.levels.Set(price, l)
	if !s.hasBest || s.isBetter(price, s.bestPrc) {
		s.hasBest = true
		s.bestPrc = price
		s.bestLvl = l
	}
	return l
}

// RemoveIfEmpty deletes the level at price if it has no resting orders,
// refreshing the cached best price if the extremal level was removed.
func (s *Side) RemoveIfEmpty(price model.Price) {
	l := s.Level(price)
	if l == nil || !l.Empty() {
		return
	}
	s.levels.Delete(price)
	if s.hasBest && s.bestPrc == price {
		s.refreshBest()
	}
}

func (s *Side) refreshBest() {
	var top *Level
	var ok bool
	if s.side == model.Buy {
		_, top, ok = s.levels.Max()
	} else {
		_, top, ok = s.levels.Min()
	}
	if !ok {
		s.hasBest = false
		s.bestLvl = nil
		return
	}
	s.hasBest = true
	s.bestPrc = top.Price
	s.bestLvl = top
}

func (s *Side) isBetter(candidate, current model.Price) bool {
	if s.side == model.Buy {
		return candidate > current
	}
	return candidate < current
}

// Best returns the best (extremal) level and true, or (nil, false) if the
// side is empty. O(1).
func (s *Side) Best() (*Level, bool) {
	if !s.hasBest {
		return nil, false
	}
	return s.bestLvl, true
}

// WorstPrice returns the least aggressive resting price on this side, or
// ok=false if empty. Used to convert a Market order into a marketable
// limit order at acceptance time (spec section 4.4).
func (s *Side) WorstPrice() (model.Price, bool) {
	var price model.Price
	var ok bool
	if s.side == model.Buy {
		price, _, ok = s.levels.Min()
	} else {
		price, _, ok = s.levels.Max()
	}
	return price, ok
}

// Empty reports whether the side has no resting levels.
func (s *Side) Empty() bool {
	return s.levels.Len() == 0
}

// NumLevels returns the number of distinct price levels.
func (s *Side) NumLevels() int {
	return s.levels.Len()
}

// Levels iterates levels in price priority order (best first), invoking
// fn until it returns false or levels are exhausted. Used for snapshots
// and the FillOrKill full-fill predicate; not called from the per-command
// hot path beyond that predicate.
func (s *Side) Levels(fn func(*Level) bool) {
	if s.side == model.Buy {
		s.levels.Reverse(func(_ model.Price, l *Level) bool { return fn(l) })
	} else {
		s.levels.Scan(func(_ model.Price, l *Level) bool { return fn(l) })
	}
}
