package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a single resting or incoming order. Identity fields never change
// after creation; only Quantity is decremented while matching.
type Order struct {
	ID            uint64          // Sequential exchange-assigned id
	Side          Side            // Order side
	Type          OrderType       // LIMIT or MARKET
	LimitPrice    decimal.Decimal // Limiting price, ignored as a bound for MARKET
	Quantity      uint64          // Remaining quantity
	TotalQuantity uint64          // Total volume requested
	Timestamp     time.Time       // Time of arrival into the book, queue priority
}

// Trade records one execution between an aggressor and a resting order.
// Price is always the resting order's price, so the aggressor gets any
// improvement over its own limit.
type Trade struct {
	ID        uuid.UUID
	BuyID     uint64
	SellID    uint64
	Price     decimal.Decimal
	Quantity  uint64
	Timestamp time.Time
}

// CanceledOrder is a snapshot of an order at the moment it left the book
// unfilled, either by user action or because a market remainder was
// discarded.
type CanceledOrder struct {
	Order     Order
	Reason    CancelReason
	Type      CancelType
	Timestamp time.Time
}
