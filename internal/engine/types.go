package engine

import "errors"

// Every failure the engine can produce is recoverable: the caller gets one
// of these sentinels and the book is left untouched.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidSide     = errors.New("invalid side")
	ErrInvalidType     = errors.New("invalid order type")
	ErrInvalidField    = errors.New("invalid modify field")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return "UNKNOWN"
}

// ParseSide validates a textual side at the boundary so the matching
// algorithm never sees a malformed one.
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return 0, ErrInvalidSide
}

type OrderType int

const (
	// Limit orders are an order to buy or sell at a specified price or
	// better. Limit orders may rest on the order book until filled.
	LimitOrder OrderType = iota
	// Market orders are instructions to buy or sell immediately, with no
	// price bound. Any remainder a sweep cannot fill is discarded rather
	// than rested.
	MarketOrder
)

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "LIMIT"
	case MarketOrder:
		return "MARKET"
	}
	return "UNKNOWN"
}

func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "LIMIT":
		return LimitOrder, nil
	case "MARKET":
		return MarketOrder, nil
	}
	return 0, ErrInvalidType
}

// ModifyField selects which attribute of a resting order an amend changes.
type ModifyField int

const (
	ModifyPrice ModifyField = iota
	ModifyQuantity
)

func (f ModifyField) String() string {
	switch f {
	case ModifyPrice:
		return "PRICE"
	case ModifyQuantity:
		return "QTY"
	}
	return "UNKNOWN"
}

func ParseModifyField(s string) (ModifyField, error) {
	switch s {
	case "PRICE":
		return ModifyPrice, nil
	case "QTY":
		return ModifyQuantity, nil
	}
	return 0, ErrInvalidField
}

// CancelReason records why an order left the book without filling.
type CancelReason string

const (
	ReasonUserCancel            CancelReason = "user_cancel"
	ReasonMarketUnfilled        CancelReason = "market_unfilled"
	ReasonPartialMarketUnfilled CancelReason = "partial_market_unfilled"
)

// CancelType distinguishes user-driven cancels from engine-driven ones.
type CancelType string

const (
	CancelManual    CancelType = "manual"
	CancelAutomatic CancelType = "automatic"
)
