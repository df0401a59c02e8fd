package risk

import (
	"testing"

	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/stretchr/testify/assert"
)

func newTestGate() *Gate {
	return New(Config{MaxQuantity: 1000, MinPrice: 1, MaxPrice: 10000})
}

func TestCheckAllowsOrderWithinLimits(t *testing.T) {
	g := newTestGate()
	cmd := &model.Command{Tag: model.CmdAdd, Order: &model.Order{Kind: model.GoodTillCancel, Price: 100, Initial: 10}}
	assert.Equal(t, Allowed, g.Check(cmd))
}

func TestCheckRejectsQuantityOverLimit(t *testing.T) {
	g := newTestGate()
	cmd := &model.Command{Tag: model.CmdAdd, Order: &model.Order{Kind: model.GoodTillCancel, Price: 100, Initial: 1001}}
	assert.Equal(t, ReasonQuantity, g.Check(cmd))
}

func TestCheckRejectsPriceOutOfRange(t *testing.T) {
	g := newTestGate()
	cmd := &model.Command{Tag: model.CmdAdd, Order: &model.Order{Kind: model.GoodTillCancel, Price: 20000, Initial: 10}}
	assert.Equal(t, ReasonPrice, g.Check(cmd))
}

func TestCheckSkipsPriceRangeForMarketOrders(t *testing.T) {
	g := newTestGate()
	cmd := &model.Command{Tag: model.CmdAdd, Order: &model.Order{Kind: model.Market, Price: model.NoPrice, Initial: 10}}
	assert.Equal(t, Allowed, g.Check(cmd))
}

func TestCheckAppliesLimitsToModifiedValues(t *testing.T) {
	g := newTestGate()
	cmd := &model.Command{Tag: model.CmdModify, NewPrice: 20000, NewQty: 10}
	assert.Equal(t, ReasonPrice, g.Check(cmd))
}

func TestCheckAllowsCancelUnconditionally(t *testing.T) {
	g := newTestGate()
	cmd := &model.Command{Tag: model.CmdCancel, ID: 1}
	assert.Equal(t, Allowed, g.Check(cmd))
}
