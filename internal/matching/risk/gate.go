// Package risk implements the stateless risk gate: a pure predicate over
// an incoming command and book-independent configuration (spec section
// 4.5). It never reads the book.
package risk

import "github.com/orbitcex/matchcore/internal/matching/model"

// Reason names why a command was rejected, for counters and logging.
type Reason string

const (
	Allowed             Reason = ""
	ReasonQuantity      Reason = "quantity_out_of_range"
	ReasonPrice         Reason = "price_out_of_range"
)

// Config holds the minimum checks spec section 4.5 requires. It is set
// at construction and never mutated during operation.
type Config struct {
	MaxQuantity uint64
	MinPrice    model.Price
	MaxPrice    model.Price
}

// Gate evaluates commands against Config. Gate is stateless with respect
// to the book: constructing it does not require a Book.
type Gate struct {
	cfg Config
}

// New constructs a Gate from cfg.
func New(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Check evaluates cmd, returning Allowed or a rejection reason. Add
// commands are checked on the order's quantity and price; Modify commands
// are checked on their new quantity and price, as a GoodTillCancel Add of
// the resulting order would be; Cancel commands are always allowed.
func (g *Gate) Check(cmd *model.Command) Reason {
	switch cmd.Tag {
	case model.CmdAdd:
		return g.checkOrder(cmd.Order.Initial, cmd.Order.Kind, cmd.Order.Price)
	case model.CmdModify:
		return g.checkOrder(cmd.NewQty, model.GoodTillCancel, cmd.NewPrice)
	default:
		return Allowed
	}
}

func (g *Gate) checkOrder(qty uint64, kind model.Kind, price model.Price) Reason {
	if qty > g.cfg.MaxQuantity {
		return ReasonQuantity
	}
	if kind == model.Market {
		return Allowed
	}
	if price < g.cfg.MinPrice || price > g.cfg.MaxPrice {
		return ReasonPrice
	}
	return Allowed
}
