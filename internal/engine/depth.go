package engine

import "github.com/shopspring/decimal"

// OrderDepth is one resting order as seen by an external renderer.
type OrderDepth struct {
	ID       uint64
	Quantity uint64
}

// LevelDepth is one price level, orders in time priority.
type LevelDepth struct {
	Price  decimal.Decimal
	Orders []OrderDepth
}

// Depth is a point-in-time view of both sides of the book, each in
// side-specific priority order (bids descending, asks ascending). It shares
// nothing with the live book, so callers may hold it across operations.
type Depth struct {
	Bids []LevelDepth
	Asks []LevelDepth
}

// Depth snapshots the book. Safe at any quiescent point, i.e. between
// operations.
func (book *OrderBook) Depth() Depth {
	return Depth{
		Bids: flattenLevels(book.bids),
		Asks: flattenLevels(book.asks),
	}
}

func flattenLevels(levels *PriceLevels) []LevelDepth {
	var out []LevelDepth
	levels.Scan(func(level *PriceLevel) bool {
		flat := LevelDepth{
			Price:  level.Price,
			Orders: make([]OrderDepth, 0, len(level.Orders)),
		}
		for _, order := range level.Orders {
			flat.Orders = append(flat.Orders, OrderDepth{
				ID:       order.ID,
				Quantity: order.Quantity,
			})
		}
		out = append(out, flat)
		return true
	})
	return out
}
