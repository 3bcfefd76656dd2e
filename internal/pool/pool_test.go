package pool

import (
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/fenrir-labs/clob/internal/book"
	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

func token(b byte) domain.TokenId {
	return ethcommon.BytesToAddress([]byte{b})
}

func trader(b byte) domain.Trader {
	return ethcommon.BytesToAddress([]byte{0xf0 + b})
}

func newManager(opts ...Option) *Manager {
	cfg := DefaultConfig()
	cfg.FeeBps = 0
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg, zerolog.Nop(), nil)
}

// TestGoldenScenarios exercises spec.md §8's literal golden scenarios
// S1-S3 end to end through the Manager, in sequence, exactly as the spec
// states them. S6 is covered separately by TestDustHandlingS6.
func TestGoldenScenarios(t *testing.T) {
	m := newManager()
	t0, t1 := token(0x00), token(0x01)

	_, _, err := m.CreatePair(t0, t1)
	require.NoError(t, err)

	alice := trader(1)
	bob := trader(2)

	// S1: empty-book limit rest.
	orderId, fills, status, _, err := m.PlaceLimitOrder(alice, t1, t0, domain.Buy, num.FromUint64(1000), num.NewPrice(2, 1))
	require.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, domain.Open, status)

	bids, _, err := m.GetOrderbookDepth(t0, t1, 10)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Price.Equal(num.NewPrice(2, 1)))
	assert.Equal(t, big.NewInt(1000), bids[0].RemainingAmount)

	// S2: crossing limit.
	_, sellFills, sellStatus, _, err := m.PlaceLimitOrder(bob, t0, t1, domain.Sell, num.FromUint64(600), num.NewPrice(2, 1))
	require.NoError(t, err)
	require.Len(t, sellFills, 1)
	assert.Equal(t, big.NewInt(600), sellFills[0].BaseAmount)
	assert.Equal(t, big.NewInt(1200), sellFills[0].QuoteAmount)
	assert.Equal(t, domain.Filled, sellStatus)

	restingBuy, err := m.GetOrder(orderId)
	require.NoError(t, err)
	assert.Equal(t, domain.PartiallyFilled, restingBuy.Status)
	assert.Equal(t, big.NewInt(400), restingBuy.RemainingAmount)

	// S3: market slippage — must revert with no state change.
	carol := trader(3)
	_, _, _, _, err = m.ExecuteSwap(carol, t0, t1, num.FromUint64(500), num.FromUint64(1000))
	assert.ErrorIs(t, err, book.ErrSlippageExceeded)

	restingBuyAfter, err := m.GetOrder(orderId)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), restingBuyAfter.RemainingAmount, "failed swap must not mutate book state")
}

// TestDustHandlingS6 mirrors spec.md scenario S6 through the pool's swap
// entry point with a zero fee, matching the spec's literal numbers.
func TestDustHandlingS6(t *testing.T) {
	m := newManager()
	t0, t1 := token(0x00), token(0x01) // base=t0, quote=t1

	_, _, err := m.CreatePair(t0, t1)
	require.NoError(t, err)

	alice := trader(1)
	_, _, _, _, err = m.PlaceLimitOrder(alice, t1, t0, domain.Sell, num.FromUint64(3), num.NewPrice(2, 3))
	require.NoError(t, err)

	bob := trader(2)
	amountOut, route, fills, _, err := m.ExecuteSwap(bob, t1, t0, num.FromUint64(1), num.FromUint64(1))
	require.NoError(t, err)
	require.Len(t, route, 1)
	require.Len(t, fills, 1)
	assert.Equal(t, big.NewInt(1), fills[0].BaseAmount)
	assert.Equal(t, big.NewInt(1), fills[0].QuoteAmount)
	assert.Equal(t, big.NewInt(1), amountOut)
}

// TestSelfTradeSkipsMakerAndRests documents and tests the chosen self-trade
// policy (spec.md §9 open question, §4.3): the maker is skipped in place,
// not cancelled, and a crossing order from the SAME trader rests on its own
// side without matching, so that trader's bid and ask both rest at 2/1.
func TestSelfTradeSkipsMakerAndRests(t *testing.T) {
	m := newManager(WithAllowSelfTrade(false))
	t0, t1 := token(0x00), token(0x01)
	_, _, err := m.CreatePair(t0, t1)
	require.NoError(t, err)

	x := trader(9)

	buyId, _, _, _, err := m.PlaceLimitOrder(x, t1, t0, domain.Buy, num.FromUint64(100), num.NewPrice(2, 1))
	require.NoError(t, err)

	sellId, fills, sellStatus, _, err := m.PlaceLimitOrder(x, t0, t1, domain.Sell, num.FromUint64(100), num.NewPrice(2, 1))
	require.NoError(t, err)
	assert.Empty(t, fills, "a trader's own resting order must be skipped, not matched")
	assert.Equal(t, domain.Open, sellStatus)

	buyOrder, err := m.GetOrder(buyId)
	require.NoError(t, err)
	assert.Equal(t, domain.Open, buyOrder.Status)
	assert.Equal(t, big.NewInt(100), buyOrder.RemainingAmount)

	sellOrder, err := m.GetOrder(sellId)
	require.NoError(t, err)
	assert.Equal(t, domain.Open, sellOrder.Status)

	// A third party's buy at the same price matches x's resting sell
	// normally — self-trade skip does not poison liquidity for others.
	dave := trader(4)
	_, daveFills, daveStatus, _, err := m.PlaceLimitOrder(dave, t1, t0, domain.Buy, num.FromUint64(100), num.NewPrice(2, 1))
	require.NoError(t, err)
	require.Len(t, daveFills, 1)
	assert.Equal(t, domain.Filled, daveStatus)
}

func TestCreatePairSymmetryRejected(t *testing.T) {
	m := newManager()
	t0, t1 := token(0x00), token(0x01)

	_, _, err := m.CreatePair(t0, t1)
	require.NoError(t, err)

	_, _, err = m.CreatePair(t1, t0)
	assert.ErrorIs(t, err, ErrPairExists)
}

func TestCreatePairSameToken(t *testing.T) {
	m := newManager()
	t0 := token(0x00)
	_, _, err := m.CreatePair(t0, t0)
	assert.ErrorIs(t, err, ErrInvalidPair)
}

func TestCancelOrderRoutesThroughGlobalIndex(t *testing.T) {
	m := newManager()
	t0, t1 := token(0x00), token(0x01)
	_, _, err := m.CreatePair(t0, t1)
	require.NoError(t, err)

	alice := trader(1)
	orderId, _, _, _, err := m.PlaceLimitOrder(alice, t1, t0, domain.Buy, num.FromUint64(100), num.NewPrice(2, 1))
	require.NoError(t, err)

	cancelled, _, err := m.CancelOrder(orderId, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.Cancelled, cancelled.Status)
}

func TestExecuteSwapFeeAppliedOnce(t *testing.T) {
	m := newManager(WithFeeBps(100)) // 1%
	t0, t1 := token(0x00), token(0x01)
	_, _, err := m.CreatePair(t0, t1)
	require.NoError(t, err)

	alice := trader(1)
	_, _, _, _, err = m.PlaceLimitOrder(alice, t1, t0, domain.Sell, num.FromUint64(1000), num.NewPrice(1, 1))
	require.NoError(t, err)

	bob := trader(2)
	// Raw output would be 1000 base for 1000 quote in; 1% fee = floor(1000*100/10000)=10.
	amountOut, _, _, _, err := m.ExecuteSwap(bob, t1, t0, num.FromUint64(1000), num.FromUint64(990))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(990), amountOut)
}

func TestGetQuoteMatchesExecuteSwap(t *testing.T) {
	m := newManager(WithFeeBps(30))
	t0, t1 := token(0x00), token(0x01)
	_, _, err := m.CreatePair(t0, t1)
	require.NoError(t, err)

	alice := trader(1)
	_, _, _, _, err = m.PlaceLimitOrder(alice, t1, t0, domain.Sell, num.FromUint64(1000), num.NewPrice(1, 1))
	require.NoError(t, err)

	bob := trader(2)
	quoted, _, err := m.GetQuote(t1, t0, num.FromUint64(500))
	require.NoError(t, err)

	actual, _, _, _, err := m.ExecuteSwap(bob, t1, t0, num.FromUint64(500), num.Zero())
	require.NoError(t, err)
	assert.Equal(t, quoted, actual)
}
