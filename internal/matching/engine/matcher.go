// Package engine implements the single-writer matcher goroutine (spec
// section 4.4) and the producer-facing Engine API around it.
package engine

import (
	"time"

	"github.com/orbitcex/matchcore/internal/matching/book"
	"github.com/orbitcex/matchcore/internal/matching/journal"
	"github.com/orbitcex/matchcore/internal/matching/metrics"
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/orbitcex/matchcore/internal/matching/pool"
	"github.com/orbitcex/matchcore/internal/matching/risk"
	"go.uber.org/zap"
)

// Publisher receives trade and top-of-book events as they happen on the
// matcher goroutine. Implementations must not block; the feed package's
// Broadcaster satisfies this by dropping events (when its hand-off ring is
// full, or for a subscriber whose send buffer is full) instead of backing
// up the matcher.
type Publisher interface {
	PublishTrade(model.Trade)
	PublishTopOfBook(bestBid model.Price, hasBid bool, bestAsk model.Price, hasAsk bool)
}

// matcher owns the book, order pool and index exclusively. Every method
// on matcher runs only on the single matcher goroutine (spec section 5);
// nothing here takes a lock.
type matcher struct {
	book *book.Book
	pool *pool.OrderPool
	gate *risk.Gate
	jrnl *journal.Journal
	rec  *metrics.Record
	log  *zap.Logger
	feed Publisher // nil if no feed is wired
}

func newMatcher(b *book.Book, p *pool.OrderPool, g *risk.Gate, j *journal.Journal, rec *metrics.Record, log *zap.Logger, feed Publisher) *matcher {
	return &matcher{book: b, pool: p, gate: g, jrnl: j, rec: rec, log: log, feed: feed}
}

func (m *matcher) publishTopOfBook() {
	if m.feed == nil {
		return
	}
	bid, hasBid := m.book.BestOf(model.Buy)
	ask, hasAsk := m.book.BestOf(model.Sell)
	m.feed.PublishTopOfBook(bid, hasBid, ask, hasAsk)
}

// process handles one command end to end: risk gate, dispatch, journal,
// metrics. It never panics on a well-formed Command.
func (m *matcher) process(cmd *model.Command, nowNs int64) {
	m.rec.RecordReceived()

	if reason := m.gate.Check(cmd); reason != risk.Allowed {
		m.rec.RecordRejected()
		if cmd.Order != nil {
			m.jrnl.Log(journal.Entry{Tag: journal.TagReject, TimestampNs: nowNs, OrderID: cmd.Order.ID, Reason: string(reason)})
			cmd.Order.Residual = 0
			m.pool.Release(cmd.Order)
		} else {
			m.jrnl.Log(journal.Entry{Tag: journal.TagReject, TimestampNs: nowNs, OrderID: cmd.ID, Reason: string(reason)})
		}
		m.rec.RecordProcessed(nowNs - cmd.IngressNs)
		return
	}

	switch cmd.Tag {
	case model.CmdAdd:
		m.handleAdd(cmd.Order, nowNs)
	case model.CmdCancel:
		m.handleCancel(cmd.ID, nowNs)
	case model.CmdModify:
		m.handleModify(cmd.ID, cmd.NewSide, cmd.NewPrice, cmd.NewQty, nowNs)
	}
	m.publishTopOfBook()

	m.rec.RecordProcessed(nowNs - cmd.IngressNs)
}

// handleAdd implements the acceptance and matching path of spec section
// 4.4 for all four order kinds.
func (m *matcher) handleAdd(o *model.Order, nowNs int64) {
	if _, _, _, exists := m.book.Index.Get(o.ID); exists {
		// DuplicateIdentifier (spec section 7): silently ignored, no book
		// mutation, no Add journal entry.
		m.jrnl.Log(journal.Entry{Tag: journal.TagReject, TimestampNs: nowNs, OrderID: o.ID, Reason: "duplicate_identifier"})
		o.Residual = 0
		m.pool.Release(o)
		return
	}

	if o.Kind == model.Market {
		worst, ok := m.book.Opposing(o.Side).WorstPrice()
		if !ok {
			// No liquidity to convert against; nothing to do.
			m.rec.RecordEmptyOppositeMarket()
			m.jrnl.Log(journal.Entry{Tag: journal.TagReject, TimestampNs: nowNs, OrderID: o.ID, Reason: "empty_opposite_market"})
			o.Residual = 0
			m.pool.Release(o)
			return
		}
		o.Price = worst
		// Spec section 4.4: a Market order is treated at acceptance as a
		// GoodTillCancel priced at the worst opposing level, so it carries
		// GTC semantics (including resting on a partial fill) from here on.
		o.Kind = model.GoodTillCancel
	}

	if o.Kind == model.FillOrKill {
		if !book.CanFullyFill(m.book.Opposing(o.Side), o.Side, o.Price, o.Residual) {
			m.rec.RecordFillOrKillUnfillable()
			m.jrnl.Log(journal.Entry{Tag: journal.TagReject, TimestampNs: nowNs, OrderID: o.ID, Reason: "fill_or_kill_unfillable"})
			o.Residual = 0
			m.pool.Release(o)
			return
		}
	}

	m.jrnl.Log(journal.Entry{Tag: journal.TagAdd, TimestampNs: nowNs, OrderID: o.ID, Side: o.Side, Kind: o.Kind, Price: o.Price, Quantity: o.Residual})

	m.match(o, nowNs)

	if o.Residual == 0 {
		m.pool.Release(o)
		return
	}

	switch o.Kind {
	case model.FillAndKill, model.FillOrKill:
		// Never rests: whatever remains after matching is discarded.
		o.Residual = 0
		m.pool.Release(o)
	default:
		lvl := m.book.SideFor(o.Side).LevelOrCreate(o.Price)
		loc := lvl.Push(o)
		m.book.Index.Put(o, o.Side, loc)
	}
}

// match crosses o against the opposing side of the book while it remains
// marketable, producing trades at the resting order's price (price-time
// priority, FIFO per level).
func (m *matcher) match(o *model.Order, nowNs int64) {
	opp := m.book.Opposing(o.Side)
	for o.Residual > 0 {
		best, ok := opp.Best()
		if !ok {
			return
		}
		if book.WorseThanLimit(o.Side, best.Price, o.Price) {
			return
		}
		resting := best.Front()
		if resting == nil {
			return
		}

		fillQty := resting.Residual
		if o.Residual < fillQty {
			fillQty = o.Residual
		}

		resting.Residual -= fillQty
		o.Residual -= fillQty
		best.DecrementAggregate(fillQty)

		trade := model.Trade{Price: best.Price, Quantity: fillQty, TimestampNs: nowNs}
		if o.Side == model.Buy {
			trade.Buyer, trade.Seller = o.ID, resting.ID
		} else {
			trade.Buyer, trade.Seller = resting.ID, o.ID
		}
		m.rec.RecordTrade()
		m.jrnl.Log(journal.Entry{Tag: journal.TagTrade, TimestampNs: nowNs, Buyer: trade.Buyer, Seller: trade.Seller, Price: trade.Price, Quantity: trade.Quantity})
		if m.feed != nil {
			m.feed.PublishTrade(trade)
		}

		if resting.Filled() {
			best.Remove(best.FrontLocator())
			m.book.Index.Delete(resting.ID)
			m.pool.Release(resting)
			opp.RemoveIfEmpty(best.Price)
		}
	}
}

func (m *matcher) handleCancel(id model.ID, nowNs int64) {
	o, side, loc, ok := m.book.Index.Get(id)
	if !ok {
		m.jrnl.Log(journal.Entry{Tag: journal.TagReject, TimestampNs: nowNs, OrderID: id, Reason: "unknown_order"})
		return
	}
	lvl := m.book.SideFor(side).Level(o.Price)
	lvl.Remove(loc)
	m.book.SideFor(side).RemoveIfEmpty(o.Price)
	m.book.Index.Delete(id)
	m.jrnl.Log(journal.Entry{Tag: journal.TagCancel, TimestampNs: nowNs, OrderID: id})
	o.Residual = 0
	m.pool.Release(o)
}

// handleModify implements Modify as Cancel followed by Add, an explicit
// standardization: the modified order loses time priority even when only
// its quantity decreases.
func (m *matcher) handleModify(id model.ID, newSide model.Side, newPrice model.Price, newQty uint64, nowNs int64) {
	o, side, loc, ok := m.book.Index.Get(id)
	if !ok {
		m.jrnl.Log(journal.Entry{Tag: journal.TagReject, TimestampNs: nowNs, OrderID: id, Reason: "unknown_order"})
		return
	}
	lvl := m.book.SideFor(side).Level(o.Price)
	lvl.Remove(loc)
	m.book.SideFor(side).RemoveIfEmpty(o.Price)
	m.book.Index.Delete(id)

	m.jrnl.Log(journal.Entry{Tag: journal.TagModify, TimestampNs: nowNs, OrderID: id, NewSide: newSide, NewPrice: newPrice, NewQty: newQty})

	o.Side = newSide
	o.Price = newPrice
	o.Initial = newQty
	o.Residual = newQty

	m.match(o, nowNs)
	if o.Residual == 0 {
		m.pool.Release(o)
		return
	}
	nlvl := m.book.SideFor(o.Side).LevelOrCreate(o.Price)
	nloc := nlvl.Push(o)
	m.book.Index.Put(o, o.Side, nloc)
}

// idleBackoff is how long the matcher goroutine sleeps between empty
// ring polls, keeping CPU usage bounded without introducing meaningful
// latency under load (the ring is polled again immediately whenever a
// prior poll succeeded).
const idleBackoff = 20 * time.Microsecond
