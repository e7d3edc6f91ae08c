package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utsav2110/Orderbook-Deploy/internal/engine"
)

// --- Setup & Helpers --------------------------------------------------------

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func placeLimit(t *testing.T, e *engine.Engine, side engine.Side, price string, qty uint64) engine.PlaceResult {
	t.Helper()
	res, err := e.Place(side, engine.LimitOrder, d(price), qty)
	require.NoError(t, err)
	return res
}

func placeMarket(t *testing.T, e *engine.Engine, side engine.Side, qty uint64) engine.PlaceResult {
	t.Helper()
	res, err := e.Place(side, engine.MarketOrder, decimal.Zero, qty)
	require.NoError(t, err)
	return res
}

type flatLevel struct {
	price  string
	orders []engine.OrderDepth
}

// assertSide checks one side of the depth snapshot level by level, in
// priority order.
func assertSide(t *testing.T, got []engine.LevelDepth, want ...flatLevel) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, lvl := range want {
		assert.Truef(t, d(lvl.price).Equal(got[i].Price),
			"level %d: want price %s, got %s", i, lvl.price, got[i].Price)
		assert.Equal(t, lvl.orders, got[i].Orders, "level %d orders", i)
	}
}

// --- Placement --------------------------------------------------------------

func TestPlaceLimit_RestsOnEmptyBook(t *testing.T) {
	e := engine.New(0)

	res := placeLimit(t, e, engine.Buy, "100.0", 10)

	assert.Equal(t, uint64(1), res.Order.ID)
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.Canceled)

	depth := e.Depth()
	assertSide(t, depth.Bids, flatLevel{"100.0", []engine.OrderDepth{{ID: 1, Quantity: 10}}})
	assert.Empty(t, depth.Asks)
}

func TestPlaceLimit_MatchesAtRestingPrice(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Buy, "100.0", 10)

	// Crossing sell executes at the resting bid's price, not its own limit.
	res := placeLimit(t, e, engine.Sell, "99.0", 4)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, uint64(1), trade.BuyID)
	assert.Equal(t, uint64(2), trade.SellID)
	assert.Equal(t, uint64(4), trade.Quantity)
	assert.True(t, d("100.0").Equal(trade.Price))

	depth := e.Depth()
	assertSide(t, depth.Bids, flatLevel{"100.0", []engine.OrderDepth{{ID: 1, Quantity: 6}}})
	assert.Empty(t, depth.Asks)
}

func TestPlaceLimit_AggressorRemainderRests(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Sell, "100.0", 5)

	res := placeLimit(t, e, engine.Buy, "102.0", 8)

	require.Len(t, res.Trades, 1)
	assert.True(t, d("100.0").Equal(res.Trades[0].Price))
	assert.Equal(t, uint64(3), res.Order.Quantity)

	depth := e.Depth()
	assert.Empty(t, depth.Asks)
	assertSide(t, depth.Bids, flatLevel{"102.0", []engine.OrderDepth{{ID: 2, Quantity: 3}}})
}

func TestPlaceLimit_PriceBoundStopsSweep(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Sell, "100.0", 5)
	placeLimit(t, e, engine.Sell, "105.0", 5)

	// Limit 100 may not lift the 105 level.
	res := placeLimit(t, e, engine.Buy, "100.0", 7)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, uint64(5), res.Trades[0].Quantity)

	depth := e.Depth()
	assertSide(t, depth.Asks, flatLevel{"105.0", []engine.OrderDepth{{ID: 2, Quantity: 5}}})
	assertSide(t, depth.Bids, flatLevel{"100.0", []engine.OrderDepth{{ID: 3, Quantity: 2}}})
}

func TestPlaceLimit_SweepsMultipleLevels(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Sell, "100.0", 5)
	placeLimit(t, e, engine.Sell, "101.0", 5)

	res := placeLimit(t, e, engine.Buy, "102.0", 12)

	require.Len(t, res.Trades, 2)
	assert.True(t, d("100.0").Equal(res.Trades[0].Price))
	assert.True(t, d("101.0").Equal(res.Trades[1].Price))

	depth := e.Depth()
	assert.Empty(t, depth.Asks)
	assertSide(t, depth.Bids, flatLevel{"102.0", []engine.OrderDepth{{ID: 3, Quantity: 2}}})
}

func TestPlace_Validation(t *testing.T) {
	e := engine.New(0)

	_, err := e.Place(engine.Side(7), engine.LimitOrder, d("1"), 1)
	assert.ErrorIs(t, err, engine.ErrInvalidSide)

	_, err = e.Place(engine.Buy, engine.OrderType(7), d("1"), 1)
	assert.ErrorIs(t, err, engine.ErrInvalidType)

	_, err = e.Place(engine.Buy, engine.LimitOrder, d("1"), 0)
	assert.ErrorIs(t, err, engine.ErrInvalidQuantity)

	_, err = e.Place(engine.Buy, engine.LimitOrder, d("-1"), 1)
	assert.ErrorIs(t, err, engine.ErrInvalidPrice)

	// Rejected intents assign no ids and leave the book empty.
	assert.Equal(t, uint64(0), e.LastAssignedID())
	assert.Empty(t, e.Depth().Bids)
	assert.Empty(t, e.Depth().Asks)
}

// --- Market orders ----------------------------------------------------------

func TestPlaceMarket_EmptyBookIsCanceled(t *testing.T) {
	e := engine.New(0)

	res := placeMarket(t, e, engine.Sell, 20)

	assert.Empty(t, res.Trades)
	require.NotNil(t, res.Canceled)
	assert.Equal(t, engine.ReasonMarketUnfilled, res.Canceled.Reason)
	assert.Equal(t, engine.CancelAutomatic, res.Canceled.Type)
	assert.Equal(t, uint64(20), res.Canceled.Order.Quantity)

	require.Len(t, e.Canceled(), 1)
	assert.Empty(t, e.Depth().Bids)
	assert.Empty(t, e.Depth().Asks)
}

func TestPlaceMarket_PartialFillRemainderDiscarded(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Buy, "50.0", 5)

	res := placeMarket(t, e, engine.Sell, 8)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, uint64(5), res.Trades[0].Quantity)
	require.NotNil(t, res.Canceled)
	assert.Equal(t, engine.ReasonPartialMarketUnfilled, res.Canceled.Reason)
	assert.Equal(t, uint64(3), res.Canceled.Order.Quantity)

	// Nothing rests from a market order.
	assert.Empty(t, e.Depth().Bids)
	assert.Empty(t, e.Depth().Asks)
}

func TestPlaceMarket_SweepsIgnoringPrice(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Sell, "100.0", 3)
	placeLimit(t, e, engine.Sell, "500.0", 3)

	res := placeMarket(t, e, engine.Buy, 6)

	require.Len(t, res.Trades, 2)
	assert.True(t, d("100.0").Equal(res.Trades[0].Price))
	assert.True(t, d("500.0").Equal(res.Trades[1].Price))
	assert.Nil(t, res.Canceled)
	assert.Empty(t, e.Depth().Asks)
}

// --- Priority ---------------------------------------------------------------

func TestTimePriority_FIFOWithinLevel(t *testing.T) {
	e := engine.New(0)
	first := placeLimit(t, e, engine.Buy, "50.0", 5)
	second := placeLimit(t, e, engine.Buy, "50.0", 5)

	res := placeLimit(t, e, engine.Sell, "50.0", 5)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, first.Order.ID, res.Trades[0].BuyID)

	depth := e.Depth()
	assertSide(t, depth.Bids, flatLevel{"50.0", []engine.OrderDepth{{ID: second.Order.ID, Quantity: 5}}})
}

func TestPricePriority_BestLevelFirst(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Buy, "100.0", 5)
	best := placeLimit(t, e, engine.Buy, "101.0", 5)

	res := placeLimit(t, e, engine.Sell, "99.0", 3)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, best.Order.ID, res.Trades[0].BuyID)
	assert.True(t, d("101.0").Equal(res.Trades[0].Price))
}

// --- Cancel -----------------------------------------------------------------

func TestCancel_RemovesRestingOrder(t *testing.T) {
	e := engine.New(0)
	res := placeLimit(t, e, engine.Buy, "100.0", 10)

	canceled, err := e.Cancel(res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonUserCancel, canceled.Reason)
	assert.Equal(t, engine.CancelManual, canceled.Type)
	assert.Equal(t, uint64(10), canceled.Order.Quantity)

	assert.Empty(t, e.Depth().Bids)
	require.Len(t, e.Canceled(), 1)
}

func TestCancel_UnknownIDIsNoOp(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Buy, "100.0", 10)
	placeLimit(t, e, engine.Sell, "105.0", 7)
	before := e.Depth()

	_, err := e.Cancel(999)

	assert.ErrorIs(t, err, engine.ErrOrderNotFound)
	assert.Equal(t, before, e.Depth())
	assert.Empty(t, e.Canceled())
}

// --- Modify -----------------------------------------------------------------

func TestModifyQuantity_ReplacesNotDuplicates(t *testing.T) {
	e := engine.New(0)
	res := placeLimit(t, e, engine.Buy, "50.0", 10)

	modified, err := e.Modify(res.Order.ID, engine.ModifyQuantity, d("3"))
	require.NoError(t, err)
	assert.Equal(t, res.Order.ID, modified.Order.ID)
	assert.Empty(t, modified.Trades)

	depth := e.Depth()
	assertSide(t, depth.Bids, flatLevel{"50.0", []engine.OrderDepth{{ID: res.Order.ID, Quantity: 3}}})
	// Modification is an amend, not a cancel: no cancellation record.
	assert.Empty(t, e.Canceled())
}

func TestModifyPrice_RerunsMatching(t *testing.T) {
	e := engine.New(0)
	bid := placeLimit(t, e, engine.Buy, "95.0", 10)
	placeLimit(t, e, engine.Sell, "100.0", 4)

	modified, err := e.Modify(bid.Order.ID, engine.ModifyPrice, d("100.0"))
	require.NoError(t, err)

	require.Len(t, modified.Trades, 1)
	assert.Equal(t, uint64(4), modified.Trades[0].Quantity)
	assert.True(t, d("100.0").Equal(modified.Trades[0].Price))

	depth := e.Depth()
	assert.Empty(t, depth.Asks)
	assertSide(t, depth.Bids, flatLevel{"100.0", []engine.OrderDepth{{ID: bid.Order.ID, Quantity: 6}}})
}

func TestModify_LosesQueuePosition(t *testing.T) {
	e := engine.New(0)
	first := placeLimit(t, e, engine.Buy, "50.0", 5)
	second := placeLimit(t, e, engine.Buy, "50.0", 5)

	// Amending the earlier order sends it to the back of the queue.
	_, err := e.Modify(first.Order.ID, engine.ModifyQuantity, d("5"))
	require.NoError(t, err)

	res := placeLimit(t, e, engine.Sell, "50.0", 5)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, second.Order.ID, res.Trades[0].BuyID)
}

func TestModify_InvalidFieldHasNoSideEffects(t *testing.T) {
	e := engine.New(0)
	res := placeLimit(t, e, engine.Buy, "50.0", 10)
	before := e.Depth()

	_, err := e.Modify(res.Order.ID, engine.ModifyField(42), d("3"))

	assert.ErrorIs(t, err, engine.ErrInvalidField)
	assert.Equal(t, before, e.Depth())
}

func TestModify_UnknownID(t *testing.T) {
	e := engine.New(0)

	_, err := e.Modify(123, engine.ModifyPrice, d("10"))
	assert.ErrorIs(t, err, engine.ErrOrderNotFound)
}

func TestModify_RejectsBadValues(t *testing.T) {
	e := engine.New(0)
	res := placeLimit(t, e, engine.Buy, "50.0", 10)
	before := e.Depth()

	_, err := e.Modify(res.Order.ID, engine.ModifyQuantity, d("2.5"))
	assert.ErrorIs(t, err, engine.ErrInvalidQuantity)

	_, err = e.Modify(res.Order.ID, engine.ModifyQuantity, d("0"))
	assert.ErrorIs(t, err, engine.ErrInvalidQuantity)

	// Past the int64 range IntPart would truncate to garbage.
	_, err = e.Modify(res.Order.ID, engine.ModifyQuantity, d("10000000000000000000"))
	assert.ErrorIs(t, err, engine.ErrInvalidQuantity)

	_, err = e.Modify(res.Order.ID, engine.ModifyPrice, d("-5"))
	assert.ErrorIs(t, err, engine.ErrInvalidPrice)

	assert.Equal(t, before, e.Depth())
}

// --- Seeding & identity -----------------------------------------------------

func TestSeed_LoadsWithoutMatching(t *testing.T) {
	e := engine.New(0)

	err := e.Seed([]engine.Order{
		{ID: 3, Side: engine.Buy, Type: engine.LimitOrder, LimitPrice: d("100.0"), Quantity: 10, TotalQuantity: 10},
		{ID: 7, Side: engine.Sell, Type: engine.LimitOrder, LimitPrice: d("99.0"), Quantity: 4, TotalQuantity: 4},
	})
	require.NoError(t, err)

	// Seeding inserts directly: a crossed snapshot stays crossed until the
	// next placement, and no trades are produced.
	assert.Empty(t, e.Trades())
	assertSide(t, e.Depth().Bids, flatLevel{"100.0", []engine.OrderDepth{{ID: 3, Quantity: 10}}})
	assertSide(t, e.Depth().Asks, flatLevel{"99.0", []engine.OrderDepth{{ID: 7, Quantity: 4}}})

	// The counter moves past the highest seeded id.
	res := placeLimit(t, e, engine.Buy, "1.0", 1)
	assert.Equal(t, uint64(8), res.Order.ID)
}

func TestSeed_RejectsMarketOrders(t *testing.T) {
	e := engine.New(0)

	err := e.Seed([]engine.Order{
		{ID: 1, Side: engine.Buy, Type: engine.MarketOrder, Quantity: 5, TotalQuantity: 5},
	})
	assert.ErrorIs(t, err, engine.ErrInvalidType)
}

func TestLastAssignedID_Monotonic(t *testing.T) {
	e := engine.New(41)

	res := placeLimit(t, e, engine.Buy, "10.0", 1)
	assert.Equal(t, uint64(42), res.Order.ID)
	assert.Equal(t, uint64(42), e.LastAssignedID())

	res = placeLimit(t, e, engine.Sell, "20.0", 1)
	assert.Equal(t, uint64(43), res.Order.ID)
}

// --- Invariants -------------------------------------------------------------

func TestQuantityConservation(t *testing.T) {
	e := engine.New(0)

	var placed uint64
	place := func(side engine.Side, otype engine.OrderType, price string, qty uint64) {
		_, err := e.Place(side, otype, d(price), qty)
		require.NoError(t, err)
		placed += qty
	}

	place(engine.Buy, engine.LimitOrder, "100.0", 10)
	place(engine.Buy, engine.LimitOrder, "99.0", 7)
	place(engine.Sell, engine.LimitOrder, "100.0", 4)
	place(engine.Sell, engine.LimitOrder, "101.0", 3)
	place(engine.Sell, engine.MarketOrder, "0", 20)
	_, err := e.Cancel(4)
	require.NoError(t, err)

	var resting uint64
	depth := e.Depth()
	for _, side := range [][]engine.LevelDepth{depth.Bids, depth.Asks} {
		for _, lvl := range side {
			for _, o := range lvl.Orders {
				resting += o.Quantity
			}
		}
	}

	// Each trade consumes its quantity from both sides.
	var executed uint64
	for _, trade := range e.Trades() {
		executed += 2 * trade.Quantity
	}

	var canceledQty uint64
	for _, c := range e.Canceled() {
		canceledQty += c.Order.Quantity
	}

	assert.Equal(t, placed, resting+executed+canceledQty)
}

func TestBookNeverCrossed(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Buy, "100.0", 10)
	placeLimit(t, e, engine.Sell, "101.0", 10)
	placeLimit(t, e, engine.Buy, "101.0", 4)
	placeLimit(t, e, engine.Sell, "100.0", 4)
	placeMarket(t, e, engine.Buy, 3)

	depth := e.Depth()
	if len(depth.Bids) > 0 && len(depth.Asks) > 0 {
		assert.True(t, depth.Bids[0].Price.LessThan(depth.Asks[0].Price),
			"best bid %s must stay below best ask %s", depth.Bids[0].Price, depth.Asks[0].Price)
	}
}

func TestReset_DropsAllState(t *testing.T) {
	e := engine.New(0)
	placeLimit(t, e, engine.Buy, "100.0", 10)
	placeLimit(t, e, engine.Sell, "100.0", 4)

	e.Reset()

	assert.Empty(t, e.Depth().Bids)
	assert.Empty(t, e.Depth().Asks)
	assert.Empty(t, e.Trades())
	assert.Empty(t, e.Canceled())
	assert.Equal(t, uint64(0), e.LastAssignedID())
}
