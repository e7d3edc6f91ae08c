package engine

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// PriceLevel is a FIFO queue of resting orders sharing one price on one
// side. Orders are appended at the back, so slice order is time priority.
type PriceLevel struct {
	Price  decimal.Decimal
	Orders []*Order
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// orderRef locates a resting order without scanning the whole side.
type orderRef struct {
	side  Side
	price decimal.Decimal
}

// OrderBook holds the two sides of the book. Bids sort greatest-first and
// asks least-first, so MinMut is always the best level on either tree.
//
// The book exclusively owns every resting *Order. It is single-writer: no
// internal locking, callers serialize access.
type OrderBook struct {
	bids *PriceLevels
	asks *PriceLevels

	// Resting order id -> (side, price), kept in lockstep with the trees so
	// cancel and modify are a level lookup instead of a side scan.
	index map[uint64]orderRef
}

func NewOrderBook() *OrderBook {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.GreaterThan(b.Price)
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
	return &OrderBook{
		bids:  bids,
		asks:  asks,
		index: make(map[uint64]orderRef),
	}
}

func (book *OrderBook) levels(side Side) *PriceLevels {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// AddOrder rests a limit order at the back of its price level's queue,
// creating the level if needed. Market orders and empty orders never rest.
func (book *OrderBook) AddOrder(order *Order) error {
	if order.Type != LimitOrder {
		return ErrInvalidType
	}
	if order.Quantity == 0 {
		return ErrInvalidQuantity
	}

	levels := book.levels(order.Side)
	if level, ok := levels.GetMut(&PriceLevel{Price: order.LimitPrice}); ok {
		level.Orders = append(level.Orders, order)
	} else {
		levels.Set(&PriceLevel{
			Price:  order.LimitPrice,
			Orders: []*Order{order},
		})
	}
	book.index[order.ID] = orderRef{side: order.Side, price: order.LimitPrice}
	return nil
}

// BestBid returns the highest-priced bid level, if any.
func (book *OrderBook) BestBid() (*PriceLevel, bool) {
	return book.bids.MinMut()
}

// BestAsk returns the lowest-priced ask level, if any.
func (book *OrderBook) BestAsk() (*PriceLevel, bool) {
	return book.asks.MinMut()
}

// RemoveOrder takes a resting order out of its queue, dropping the level if
// that empties it. Returns a snapshot of the removed order.
func (book *OrderBook) RemoveOrder(id uint64) (Order, error) {
	ref, ok := book.index[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}

	levels := book.levels(ref.side)
	level, ok := levels.GetMut(&PriceLevel{Price: ref.price})
	if !ok {
		return Order{}, ErrOrderNotFound
	}

	for i, order := range level.Orders {
		if order.ID != id {
			continue
		}
		removed := *order
		level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
		if len(level.Orders) == 0 {
			levels.Delete(level)
		}
		delete(book.index, id)
		return removed, nil
	}
	return Order{}, ErrOrderNotFound
}

// Resting reports whether an order id is currently in the book.
func (book *OrderBook) Resting(id uint64) bool {
	_, ok := book.index[id]
	return ok
}

// SideOrders snapshots every resting order on one side in priority order
// (best price first, FIFO within a level).
func (book *OrderBook) SideOrders(side Side) []Order {
	var out []Order
	book.levels(side).Scan(func(level *PriceLevel) bool {
		for _, order := range level.Orders {
			out = append(out, *order)
		}
		return true
	})
	return out
}

// unindex drops a filled order's lookup entry. Matching pops queue heads
// directly rather than going through RemoveOrder.
func (book *OrderBook) unindex(id uint64) {
	delete(book.index, id)
}
