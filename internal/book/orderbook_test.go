package book

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

func testPair() domain.PairId {
	base := ethcommon.HexToAddress("0x00")
	quote := ethcommon.HexToAddress("0x01")
	return domain.DerivePairId(base, quote)
}

func trader(b byte) domain.Trader {
	return ethcommon.BytesToAddress([]byte{b})
}

func newTestBook() *OrderBook {
	return New(testPair(), num.FromUint64(1), false)
}

// TestPlaceLimitRestsOnEmptyBook mirrors spec.md scenario S1: a limit buy on
// an empty book produces no fills and becomes the best bid.
func TestPlaceLimitRestsOnEmptyBook(t *testing.T) {
	book := newTestBook()
	alice := trader(1)

	orderId, fills, status, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(1000))
	require.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, domain.Open, status)

	best, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, best.Equal(num.NewPrice(2, 1)))

	order, err := book.GetOrder(orderId)
	require.NoError(t, err)
	assert.Equal(t, domain.Open, order.Status)
	assert.Equal(t, big.NewInt(1000), order.RemainingAmount)
}

// TestPlaceLimitCrossingFillsMaker mirrors spec.md scenario S2: a crossing
// sell smaller than the resting buy fills completely, leaving the buy
// partially filled with its remainder resting.
func TestPlaceLimitCrossingFillsMaker(t *testing.T) {
	book := newTestBook()
	alice := trader(1)
	bob := trader(2)

	buyId, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(1000))
	require.NoError(t, err)

	_, fills, sellStatus, err := book.PlaceLimit(bob, domain.Sell, num.NewPrice(2, 1), num.FromUint64(600))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, big.NewInt(600), fills[0].BaseAmount)
	assert.Equal(t, big.NewInt(1200), fills[0].QuoteAmount)
	assert.Equal(t, domain.Filled, sellStatus)

	restingBuy, err := book.GetOrder(buyId)
	require.NoError(t, err)
	assert.Equal(t, domain.PartiallyFilled, restingBuy.Status)
	assert.Equal(t, big.NewInt(400), restingBuy.RemainingAmount)
}

// TestPlaceMarketSlippageExceeded mirrors spec.md scenario S3: a market
// order that can only be partially filled against available liquidity must
// revert entirely (no partial commit) when the achievable output falls
// short of min_amount_out.
func TestPlaceMarketSlippageExceeded(t *testing.T) {
	book := newTestBook()
	alice := trader(1)
	bob := trader(2)

	buyId, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(1000))
	require.NoError(t, err)
	_, fills, _, err := book.PlaceLimit(bob, domain.Sell, num.NewPrice(2, 1), num.FromUint64(600))
	require.NoError(t, err)
	require.Len(t, fills, 1)

	carol := trader(3)
	out, marketFills, err := book.PlaceMarket(carol, domain.Sell, num.FromUint64(500), num.FromUint64(1000))
	assert.ErrorIs(t, err, ErrSlippageExceeded)
	assert.Nil(t, out)
	assert.Nil(t, marketFills)

	// State must be unchanged: the resting buy still shows its pre-attempt
	// remaining amount, exactly as simulate-then-commit requires.
	restingBuy, err := book.GetOrder(buyId)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), restingBuy.RemainingAmount)
}

// TestSelfTradeSkipsMakerAtBookLevel exercises the book's half of the
// skip-the-maker self-trade policy: a trader's own resting order is passed
// over during matching, and remains resting afterward, while a third
// party's crossing order still fills normally.
func TestSelfTradeSkipsMakerAtBookLevel(t *testing.T) {
	book := newTestBook()
	alice := trader(1)

	buyId, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(100))
	require.NoError(t, err)

	// Alice's own crossing sell must not match her own resting buy.
	_, fills, sellStatus, err := book.PlaceLimit(alice, domain.Sell, num.NewPrice(2, 1), num.FromUint64(100))
	require.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, domain.Open, sellStatus)

	restingBuy, err := book.GetOrder(buyId)
	require.NoError(t, err)
	assert.Equal(t, domain.Open, restingBuy.Status)
	assert.Equal(t, big.NewInt(100), restingBuy.RemainingAmount)

	// A third party's buy at the same price matches Alice's resting sell.
	bob := trader(2)
	_, bobFills, bobStatus, err := book.PlaceLimit(bob, domain.Buy, num.NewPrice(2, 1), num.FromUint64(100))
	require.NoError(t, err)
	require.Len(t, bobFills, 1)
	assert.Equal(t, domain.Filled, bobStatus)
}

// TestPlaceMarketRoundingAsymmetry mirrors spec.md scenario S6: buyer
// payment rounds up while the matched base amount rounds down, so a partial
// fill can leave the resting maker with a nonzero remainder even though the
// taker's entire amount_in was consumed.
func TestPlaceMarketRoundingAsymmetry(t *testing.T) {
	book := newTestBook()
	alice := trader(1)
	bob := trader(2)

	// Resting sell: 3 base @ price 2/3 (quote per base).
	sellId, _, _, err := book.PlaceLimit(alice, domain.Sell, num.NewPrice(2, 3), num.FromUint64(3))
	require.NoError(t, err)

	out, fills, err := book.PlaceMarket(bob, domain.Buy, num.FromUint64(1), num.FromUint64(1))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, big.NewInt(1), fills[0].BaseAmount)
	assert.Equal(t, big.NewInt(1), fills[0].QuoteAmount)
	assert.Equal(t, big.NewInt(1), out)

	restingSell, err := book.GetOrder(sellId)
	require.NoError(t, err)
	assert.Equal(t, domain.PartiallyFilled, restingSell.Status)
	assert.Equal(t, big.NewInt(2), restingSell.RemainingAmount)
}

// TestPlaceLimitDustForfeitsMaker covers the true dust case: a resting
// maker's remainder is so small that the buyer's crossing order would owe
// it zero quote units, so the entire resting order is forfeited rather than
// transferring base for free.
func TestPlaceLimitDustForfeitsMaker(t *testing.T) {
	book := newTestBook()
	alice := trader(1)
	bob := trader(2)

	// Resting sell: 1 base unit @ price 1/1000 (quote per base) — any fill
	// smaller than 1000 base rounds its quote down to zero.
	sellId, _, _, err := book.PlaceLimit(alice, domain.Sell, num.NewPrice(1, 1000), num.FromUint64(1))
	require.NoError(t, err)

	_, fills, buyStatus, err := book.PlaceLimit(bob, domain.Buy, num.NewPrice(1, 1000), num.FromUint64(500))
	require.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, domain.Open, buyStatus)

	forfeited, err := book.GetOrder(sellId)
	require.NoError(t, err, "a terminal order remains gettable by id")
	assert.Equal(t, domain.Filled, forfeited.Status, "dust maker must be forfeited entirely, not left resting")
	assert.Equal(t, big.NewInt(0).Sign(), forfeited.RemainingAmount.Sign())

	_, ok := book.BestAsk()
	assert.False(t, ok, "the forfeited order must not remain queryable via depth")
}

func TestPlaceMarketInsufficientLiquidityOnEmptyBook(t *testing.T) {
	book := newTestBook()
	bob := trader(2)

	out, fills, err := book.PlaceMarket(bob, domain.Buy, num.FromUint64(10), num.FromUint64(1))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
	assert.Nil(t, out)
	assert.Nil(t, fills)
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	book := newTestBook()
	alice := trader(1)

	orderId, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(100))
	require.NoError(t, err)

	cancelled, err := book.Cancel(orderId, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.Cancelled, cancelled.Status)

	snapshot, err := book.GetOrder(orderId)
	require.NoError(t, err, "a cancelled order remains gettable by id")
	assert.Equal(t, domain.Cancelled, snapshot.Status)

	_, ok := book.BestBid()
	assert.False(t, ok)
}

func TestCancelUnauthorized(t *testing.T) {
	book := newTestBook()
	alice := trader(1)
	bob := trader(2)

	orderId, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(100))
	require.NoError(t, err)

	_, err = book.Cancel(orderId, bob)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCancelAlreadyTerminal(t *testing.T) {
	book := newTestBook()
	alice := trader(1)

	orderId, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(100))
	require.NoError(t, err)
	_, err = book.Cancel(orderId, alice)
	require.NoError(t, err)

	_, err = book.Cancel(orderId, alice)
	assert.ErrorIs(t, err, ErrOrderTerminal)
}

// TestCancelIdempotence covers spec.md §8 invariant 4: a second cancel of
// the same order fails with OrderTerminal, not OrderNotFound, and the
// order's snapshot is unchanged.
func TestCancelIdempotence(t *testing.T) {
	book := newTestBook()
	alice := trader(1)

	orderId, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(100))
	require.NoError(t, err)

	_, err = book.Cancel(orderId, alice)
	require.NoError(t, err)

	_, err = book.Cancel(orderId, alice)
	assert.ErrorIs(t, err, ErrOrderTerminal)

	snapshot, err := book.GetOrder(orderId)
	require.NoError(t, err)
	assert.Equal(t, domain.Cancelled, snapshot.Status)
}

func TestBelowMinOrderSizeRejected(t *testing.T) {
	book := New(testPair(), num.FromUint64(50), false)
	alice := trader(1)

	_, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(2, 1), num.FromUint64(10))
	assert.ErrorIs(t, err, ErrBelowMinOrderSize)
}

// TestDepthOrdering verifies bids are returned best-first (descending) and
// asks best-first (ascending), matching price-time priority.
func TestDepthOrdering(t *testing.T) {
	book := newTestBook()
	alice := trader(1)

	_, _, _, err := book.PlaceLimit(alice, domain.Buy, num.NewPrice(99, 1), num.FromUint64(10))
	require.NoError(t, err)
	_, _, _, err = book.PlaceLimit(alice, domain.Buy, num.NewPrice(100, 1), num.FromUint64(10))
	require.NoError(t, err)
	_, _, _, err = book.PlaceLimit(alice, domain.Sell, num.NewPrice(101, 1), num.FromUint64(10))
	require.NoError(t, err)
	_, _, _, err = book.PlaceLimit(alice, domain.Sell, num.NewPrice(102, 1), num.FromUint64(10))
	require.NoError(t, err)

	bids, asks := book.Depth(10)
	require.Len(t, bids, 2)
	require.Len(t, asks, 2)
	assert.True(t, bids[0].Price.Equal(num.NewPrice(100, 1)))
	assert.True(t, bids[1].Price.Equal(num.NewPrice(99, 1)))
	assert.True(t, asks[0].Price.Equal(num.NewPrice(101, 1)))
	assert.True(t, asks[1].Price.Equal(num.NewPrice(102, 1)))
}

func TestMultiLevelSweep(t *testing.T) {
	book := newTestBook()
	alice := trader(1)
	bob := trader(2)

	_, _, _, err := book.PlaceLimit(alice, domain.Sell, num.NewPrice(100, 1), num.FromUint64(100))
	require.NoError(t, err)
	_, _, _, err = book.PlaceLimit(alice, domain.Sell, num.NewPrice(101, 1), num.FromUint64(20))
	require.NoError(t, err)

	_, fills, status, err := book.PlaceLimit(bob, domain.Buy, num.NewPrice(101, 1), num.FromUint64(120))
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, domain.Filled, status)

	_, asks := book.Depth(10)
	assert.Empty(t, asks)
}
