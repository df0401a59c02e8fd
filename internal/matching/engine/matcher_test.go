package engine

import (
	"os"
	"testing"
	"time"

	"github.com/orbitcex/matchcore/internal/matching/journal"
	"github.com/orbitcex/matchcore/internal/matching/metrics"
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/orbitcex/matchcore/internal/matching/pool"
	"github.com/orbitcex/matchcore/internal/matching/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"github.com/orbitcex/matchcore/internal/matching/book"
)

type recordingFeed struct {
	trades []model.Trade
}

func (f *recordingFeed) PublishTrade(t model.Trade) { f.trades = append(f.trades, t) }
func (f *recordingFeed) PublishTopOfBook(model.Price, bool, model.Price, bool) {}

func newTestMatcher(t *testing.T) (*matcher, *recordingFeed, func()) {
	t.Helper()
	dir := t.TempDir()
	jrnl, err := journal.Open(journal.Config{
		Path:       dir + "/j.log",
		Capacity:   64,
		BatchSize:  8,
		FlushEvery: time.Millisecond,
	}, noopDrops{}, zap.NewNop())
	require.NoError(t, err)

	rec := metrics.New()
	gate := risk.New(risk.Config{MaxQuantity: 1_000_000, MinPrice: 0, MaxPrice: 1_000_000})
	feed := &recordingFeed{}
	m := newMatcher(book.New(), pool.New(16), gate, jrnl, rec, zap.NewNop(), feed)
	return m, feed, func() { jrnl.Close(); os.RemoveAll(dir) }
}

type noopDrops struct{}

func (noopDrops) RecordJournalDrop() {}

func addOrder(id model.ID, side model.Side, kind model.Kind, price model.Price, qty uint64) *model.Order {
	return &model.Order{ID: id, Side: side, Kind: kind, Price: price, Initial: qty, Residual: qty}
}

func TestScenarioEmptyCrossing(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(1, model.Buy, model.GoodTillCancel, 100, 10), 0)

	best, ok := m.book.Bids.Best()
	require.True(t, ok)
	assert.Equal(t, model.Price(100), best.Price)
	assert.Empty(t, feed.trades)
}

func TestScenarioPriceTimePriority(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(1, model.Buy, model.GoodTillCancel, 100, 5), 0)
	m.handleAdd(addOrder(2, model.Buy, model.GoodTillCancel, 100, 5), 0)
	m.handleAdd(addOrder(3, model.Sell, model.GoodTillCancel, 100, 8), 0)

	require.Len(t, feed.trades, 2)
	assert.Equal(t, model.Trade{Buyer: 1, Seller: 3, Price: 100, Quantity: 5}, stripTime(feed.trades[0]))
	assert.Equal(t, model.Trade{Buyer: 2, Seller: 3, Price: 100, Quantity: 3}, stripTime(feed.trades[1]))

	o, _, _, ok := m.book.Index.Get(2)
	require.True(t, ok)
	assert.Equal(t, uint64(2), o.Residual)
}

func TestScenarioFillOrKillRejection(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(10, model.Sell, model.GoodTillCancel, 101, 3), 0)
	m.handleAdd(addOrder(11, model.Sell, model.GoodTillCancel, 102, 4), 0)

	m.handleAdd(addOrder(20, model.Buy, model.FillOrKill, 101, 5), 0)

	assert.Empty(t, feed.trades)
	assert.False(t, m.book.Index.Has(20))
	lvl := m.book.Asks.Level(101)
	require.NotNil(t, lvl)
	assert.Equal(t, uint64(3), lvl.Aggregate())
	assert.Equal(t, uint64(1), m.rec.Snapshot().FillOrKillUnfillable)
}

func TestScenarioFillAndKillPartial(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(10, model.Sell, model.GoodTillCancel, 101, 3), 0)
	m.handleAdd(addOrder(20, model.Buy, model.FillAndKill, 101, 5), 0)

	require.Len(t, feed.trades, 1)
	assert.Equal(t, model.Trade{Buyer: 20, Seller: 10, Price: 101, Quantity: 3}, stripTime(feed.trades[0]))
	assert.False(t, m.book.Index.Has(20))
	assert.True(t, m.book.Asks.Empty())
}

func TestScenarioModifyLosesTimePriority(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(1, model.Buy, model.GoodTillCancel, 100, 5), 0)
	m.handleAdd(addOrder(2, model.Buy, model.GoodTillCancel, 100, 5), 0)
	m.handleModify(1, model.Buy, 100, 5, 0)
	m.handleAdd(addOrder(3, model.Sell, model.GoodTillCancel, 100, 10), 0)

	require.Len(t, feed.trades, 2)
	assert.Equal(t, model.ID(2), feed.trades[0].Buyer)
	assert.Equal(t, model.ID(1), feed.trades[1].Buyer)
}

func TestScenarioMarketAgainstEmptyOpposite(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(1, model.Buy, model.Market, model.NoPrice, 5), 0)

	assert.Empty(t, feed.trades)
	assert.True(t, m.book.Bids.Empty())
	assert.Equal(t, uint64(1), m.rec.Snapshot().EmptyOppositeMarket)
}

func TestMarketOrderRestsAsGoodTillCancelAfterPartialFill(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(10, model.Sell, model.GoodTillCancel, 101, 3), 0)
	m.handleAdd(addOrder(20, model.Buy, model.Market, model.NoPrice, 8), 0)

	require.Len(t, feed.trades, 1)
	o, _, _, ok := m.book.Index.Get(20)
	require.True(t, ok)
	assert.Equal(t, model.GoodTillCancel, o.Kind)
	assert.Equal(t, model.Price(101), o.Price)
	assert.Equal(t, uint64(5), o.Residual)
}

func TestDuplicateAddIsNoOp(t *testing.T) {
	m, feed, cleanup := newTestMatcher(t)
	defer cleanup()

	m.handleAdd(addOrder(1, model.Buy, model.GoodTillCancel, 100, 10), 0)
	m.handleAdd(addOrder(1, model.Buy, model.GoodTillCancel, 105, 20), 0)

	assert.Equal(t, 1, m.book.Index.Len())
	o, _, _, ok := m.book.Index.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.Price(100), o.Price)
	assert.Equal(t, uint64(10), o.Residual)
	assert.Empty(t, feed.trades)
}

func TestCancelIsNoOpOnAbsentID(t *testing.T) {
	m, _, cleanup := newTestMatcher(t)
	defer cleanup()
	m.handleCancel(999, 0)
	assert.Equal(t, 0, m.book.Index.Len())
}

func TestAddThenCancelReturnsBookToEmpty(t *testing.T) {
	m, _, cleanup := newTestMatcher(t)
	defer cleanup()
	m.handleAdd(addOrder(1, model.Buy, model.GoodTillCancel, 100, 10), 0)
	m.handleCancel(1, 0)
	assert.True(t, m.book.Bids.Empty())
	assert.Equal(t, 0, m.book.Index.Len())
}

func stripTime(t model.Trade) model.Trade {
	t.TimestampNs = 0
	return t
}
