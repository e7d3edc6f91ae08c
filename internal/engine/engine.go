package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine runs the order lifecycle against a single-instrument book:
// placement, matching, cancellation and modification. It owns the book, the
// id counter and the append-only trade/cancel logs for the life of the
// process.
//
// Every operation runs to completion before the next is considered. The
// engine is deliberately free of locking; an embedding system that exposes
// it to multiple callers must serialize access externally.
type Engine struct {
	book   *OrderBook
	lastID uint64

	trades   []Trade
	canceled []CanceledOrder
}

// PlaceResult reports what one placement (or re-placement via modify) did.
type PlaceResult struct {
	// Order is the incoming order after matching; Quantity is what was left
	// to rest or discard.
	Order Order
	// Trades generated by this operation, in execution order.
	Trades []Trade
	// Canceled is set when a market remainder was discarded.
	Canceled *CanceledOrder
}

// New creates an engine whose next assigned id is lastID+1. The seed comes
// from whatever store the embedding process persists ids in.
func New(lastID uint64) *Engine {
	return &Engine{
		book:   NewOrderBook(),
		lastID: lastID,
	}
}

// Place validates an intent, assigns the next id and matches it against the
// opposite side immediately. A limit remainder rests in the book; a market
// remainder is discarded and recorded as canceled.
func (e *Engine) Place(side Side, otype OrderType, price decimal.Decimal, quantity uint64) (PlaceResult, error) {
	if side != Buy && side != Sell {
		return PlaceResult{}, ErrInvalidSide
	}
	if otype != LimitOrder && otype != MarketOrder {
		return PlaceResult{}, ErrInvalidType
	}
	if quantity == 0 {
		return PlaceResult{}, ErrInvalidQuantity
	}
	if otype == LimitOrder && price.Sign() <= 0 {
		return PlaceResult{}, ErrInvalidPrice
	}

	e.lastID++
	order := &Order{
		ID:            e.lastID,
		Side:          side,
		Type:          otype,
		LimitPrice:    price,
		Quantity:      quantity,
		TotalQuantity: quantity,
		Timestamp:     time.Now(),
	}
	return e.execute(order), nil
}

// Cancel removes a resting order and records the cancellation. A missing id
// is reported without touching the book.
func (e *Engine) Cancel(id uint64) (CanceledOrder, error) {
	removed, err := e.book.RemoveOrder(id)
	if err != nil {
		return CanceledOrder{}, err
	}

	canceled := CanceledOrder{
		Order:     removed,
		Reason:    ReasonUserCancel,
		Type:      CancelManual,
		Timestamp: time.Now(),
	}
	e.canceled = append(e.canceled, canceled)
	return canceled, nil
}

// Modify amends the price or quantity of a resting order. The old instance
// leaves the book without a cancellation record; a new instance with the
// same id and a fresh timestamp re-runs matching as if newly placed, so the
// order gives up its queue position. Invalid fields and values are rejected
// before any book mutation.
func (e *Engine) Modify(id uint64, field ModifyField, value decimal.Decimal) (PlaceResult, error) {
	var qty uint64
	switch field {
	case ModifyPrice:
		if value.Sign() <= 0 {
			return PlaceResult{}, ErrInvalidPrice
		}
	case ModifyQuantity:
		if !value.IsInteger() || value.Sign() <= 0 {
			return PlaceResult{}, ErrInvalidQuantity
		}
		// IntPart truncates silently past the int64 range; only accept
		// values that round-trip.
		qty = uint64(value.IntPart())
		if !decimal.NewFromUint64(qty).Equal(value) {
			return PlaceResult{}, ErrInvalidQuantity
		}
	default:
		return PlaceResult{}, ErrInvalidField
	}

	old, err := e.book.RemoveOrder(id)
	if err != nil {
		return PlaceResult{}, err
	}

	order := &Order{
		ID:            old.ID,
		Side:          old.Side,
		Type:          old.Type,
		LimitPrice:    old.LimitPrice,
		Quantity:      old.Quantity,
		TotalQuantity: old.TotalQuantity,
		Timestamp:     time.Now(),
	}
	switch field {
	case ModifyPrice:
		order.LimitPrice = value
	case ModifyQuantity:
		order.Quantity = qty
		order.TotalQuantity = qty
	}
	return e.execute(order), nil
}

// Seed bulk-loads resting orders, e.g. from a persisted snapshot, without
// triggering matching. The id counter is bumped past any seeded id so fresh
// placements never collide.
func (e *Engine) Seed(orders []Order) error {
	for i := range orders {
		order := orders[i]
		if err := e.book.AddOrder(&order); err != nil {
			return err
		}
		if order.ID > e.lastID {
			e.lastID = order.ID
		}
	}
	return nil
}

// LastAssignedID exposes the id counter so an external store can persist it
// across restarts.
func (e *Engine) LastAssignedID() uint64 {
	return e.lastID
}

// Trades returns the append-only execution log. Callers must treat it as
// read-only.
func (e *Engine) Trades() []Trade {
	return e.trades
}

// Canceled returns the append-only cancellation log. Callers must treat it
// as read-only.
func (e *Engine) Canceled() []CanceledOrder {
	return e.canceled
}

// Depth snapshots both sides of the book.
func (e *Engine) Depth() Depth {
	return e.book.Depth()
}

// SideOrders snapshots one side in priority order, e.g. for export.
func (e *Engine) SideOrders(side Side) []Order {
	return e.book.SideOrders(side)
}

// Reset discards all state: book, logs and id counter.
func (e *Engine) Reset() {
	e.book = NewOrderBook()
	e.lastID = 0
	e.trades = nil
	e.canceled = nil
}

// execute matches an already validated order and settles its remainder.
func (e *Engine) execute(order *Order) PlaceResult {
	var trades []Trade
	if order.Side == Buy {
		trades = e.matchBuy(order)
	} else {
		trades = e.matchSell(order)
	}
	e.trades = append(e.trades, trades...)

	result := PlaceResult{Trades: trades}
	if order.Quantity > 0 {
		if order.Type == LimitOrder {
			// Validated above; the remainder always rests cleanly.
			_ = e.book.AddOrder(order)
		} else {
			reason := ReasonMarketUnfilled
			if order.Quantity < order.TotalQuantity {
				reason = ReasonPartialMarketUnfilled
			}
			canceled := CanceledOrder{
				Order:     *order,
				Reason:    reason,
				Type:      CancelAutomatic,
				Timestamp: time.Now(),
			}
			e.canceled = append(e.canceled, canceled)
			result.Canceled = &canceled
		}
	}
	result.Order = *order
	return result
}

// matchBuy sweeps the ask side best-price-first. The sweep stops when the
// incoming order is filled, the side is exhausted, or (limit only) the next
// level no longer satisfies the price bound.
func (e *Engine) matchBuy(buy *Order) []Trade {
	var trades []Trade
	for buy.Quantity > 0 {
		level, ok := e.book.asks.MinMut()
		if !ok {
			break
		}
		if buy.Type == LimitOrder && level.Price.GreaterThan(buy.LimitPrice) {
			break
		}

		// Consume the level front-to-back: strict FIFO within a price.
		var consumed int
		for consumed < len(level.Orders) && buy.Quantity > 0 {
			sell := level.Orders[consumed]

			tradedQty := min(buy.Quantity, sell.Quantity)
			buy.Quantity -= tradedQty
			sell.Quantity -= tradedQty

			// Executions happen at the resting order's price, never the
			// aggressor's limit.
			trades = append(trades, Trade{
				ID:        uuid.New(),
				BuyID:     buy.ID,
				SellID:    sell.ID,
				Price:     sell.LimitPrice,
				Quantity:  tradedQty,
				Timestamp: time.Now(),
			})

			if sell.Quantity == 0 {
				e.book.unindex(sell.ID)
				consumed++
			}
		}

		if consumed > 0 {
			level.Orders = level.Orders[consumed:]
		}
		if len(level.Orders) == 0 {
			e.book.asks.Delete(level)
		}
	}
	return trades
}

// matchSell is the mirror image of matchBuy against the bid side.
func (e *Engine) matchSell(sell *Order) []Trade {
	var trades []Trade
	for sell.Quantity > 0 {
		level, ok := e.book.bids.MinMut()
		if !ok {
			break
		}
		if sell.Type == LimitOrder && level.Price.LessThan(sell.LimitPrice) {
			break
		}

		var consumed int
		for consumed < len(level.Orders) && sell.Quantity > 0 {
			buy := level.Orders[consumed]

			tradedQty := min(sell.Quantity, buy.Quantity)
			sell.Quantity -= tradedQty
			buy.Quantity -= tradedQty

			trades = append(trades, Trade{
				ID:        uuid.New(),
				BuyID:     buy.ID,
				SellID:    sell.ID,
				Price:     buy.LimitPrice,
				Quantity:  tradedQty,
				Timestamp: time.Now(),
			})

			if buy.Quantity == 0 {
				e.book.unindex(buy.ID)
				consumed++
			}
		}

		if consumed > 0 {
			level.Orders = level.Orders[consumed:]
		}
		if len(level.Orders) == 0 {
			e.book.bids.Delete(level)
		}
	}
	return trades
}
