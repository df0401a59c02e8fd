package api

import (
	"github.com/orbitcex/matchcore/internal/matching/book"
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/shopspring/decimal"
)

// AddOrderRequest is the validated request body for POST /orders. The
// identifier is caller-supplied (spec section 3): resubmitting one already
// resting is a DuplicateIdentifier no-op rather than an assigned-id
// response.
type AddOrderRequest struct {
	ID       uint64 `json:"id" binding:"required"`
	Side     string `json:"side" binding:"required,oneof=buy sell"`
	Kind     string `json:"kind" binding:"required,oneof=gtc market fak fok"`
	Price    int64  `json:"price" binding:"nonnegativeprice"`
	Quantity uint64 `json:"quantity" binding:"required,gt=0"`
}

func (r AddOrderRequest) toDomain() (model.Side, model.Kind) {
	side := model.Buy
	if r.Side == "sell" {
		side = model.Sell
	}
	var kind model.Kind
	switch r.Kind {
	case "market":
		kind = model.Market
	case "fak":
		kind = model.FillAndKill
	case "fok":
		kind = model.FillOrKill
	default:
		kind = model.GoodTillCancel
	}
	return side, kind
}

// AddOrderResponse is returned on successful order acceptance.
type AddOrderResponse struct {
	OrderID uint64 `json:"order_id"`
}

// LevelDTO is one price level formatted for JSON, using decimal for
// presentation only, matching the teacher's snapshot output convention.
type LevelDTO struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int             `json:"orders"`
}

func toLevelDTOs(levels []book.LevelSnapshot) []LevelDTO {
	out := make([]LevelDTO, 0, len(levels))
	for _, l := range levels {
		out = append(out, LevelDTO{
			Price:    decimal.NewFromInt(int64(l.Price)),
			Quantity: decimal.NewFromInt(int64(l.Quantity)),
			Orders:   l.Count,
		})
	}
	return out
}

// BookSnapshotResponse is the GET /book response body.
type BookSnapshotResponse struct {
	Bids []LevelDTO `json:"bids"`
	Asks []LevelDTO `json:"asks"`
}
