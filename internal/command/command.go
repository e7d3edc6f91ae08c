// Package command parses the textual intent grammar an external collaborator
// feeds the engine:
//
//	PLACE <BUY|SELL> <LIMIT|MARKET> <price> <qty>
//	CANCEL <id>
//	MODIFY <id> <PRICE|QTY> <value>
//	CLEAR
//
// All validation of sides, types and fields happens here, so the engine
// only ever sees well-formed intents.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utsav2110/Orderbook-Deploy/internal/engine"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("wrong number of arguments")
)

type Kind int

const (
	Place Kind = iota
	Cancel
	Modify
	Clear
)

func (k Kind) String() string {
	switch k {
	case Place:
		return "PLACE"
	case Cancel:
		return "CANCEL"
	case Modify:
		return "MODIFY"
	case Clear:
		return "CLEAR"
	}
	return "UNKNOWN"
}

// Intent is one parsed operation. Only the fields relevant to Kind are set.
type Intent struct {
	Kind Kind

	// PLACE
	Side     engine.Side
	Type     engine.OrderType
	Price    decimal.Decimal
	Quantity uint64

	// CANCEL / MODIFY
	OrderID uint64
	Field   engine.ModifyField
	Value   decimal.Decimal
}

// Parse turns one input line into an Intent. Errors wrap the engine's
// sentinel errors where the failure is a malformed side/type/field.
func Parse(line string) (Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Intent{}, ErrUnknownCommand
	}

	switch fields[0] {
	case "PLACE":
		return parsePlace(fields[1:])
	case "CANCEL":
		return parseCancel(fields[1:])
	case "MODIFY":
		return parseModify(fields[1:])
	case "CLEAR":
		if len(fields) != 1 {
			return Intent{}, ErrBadArguments
		}
		return Intent{Kind: Clear}, nil
	default:
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

func parsePlace(args []string) (Intent, error) {
	if len(args) != 4 {
		return Intent{}, fmt.Errorf("%w: PLACE takes side, type, price, qty", ErrBadArguments)
	}

	side, err := engine.ParseSide(args[0])
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %q", err, args[0])
	}
	otype, err := engine.ParseOrderType(args[1])
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %q", err, args[1])
	}
	price, err := decimal.NewFromString(args[2])
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %q", engine.ErrInvalidPrice, args[2])
	}
	quantity, err := strconv.ParseUint(args[3], 10, 64)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %q", engine.ErrInvalidQuantity, args[3])
	}

	return Intent{
		Kind:     Place,
		Side:     side,
		Type:     otype,
		Price:    price,
		Quantity: quantity,
	}, nil
}

func parseCancel(args []string) (Intent, error) {
	if len(args) != 1 {
		return Intent{}, fmt.Errorf("%w: CANCEL takes an order id", ErrBadArguments)
	}

	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return Intent{}, fmt.Errorf("bad order id %q: %w", args[0], err)
	}
	return Intent{Kind: Cancel, OrderID: id}, nil
}

func parseModify(args []string) (Intent, error) {
	if len(args) != 3 {
		return Intent{}, fmt.Errorf("%w: MODIFY takes id, field, value", ErrBadArguments)
	}

	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return Intent{}, fmt.Errorf("bad order id %q: %w", args[0], err)
	}
	field, err := engine.ParseModifyField(args[1])
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %q, use PRICE or QTY", err, args[1])
	}
	value, err := decimal.NewFromString(args[2])
	if err != nil {
		return Intent{}, fmt.Errorf("bad value %q: %w", args[2], err)
	}

	return Intent{Kind: Modify, OrderID: id, Field: field, Value: value}, nil
}
