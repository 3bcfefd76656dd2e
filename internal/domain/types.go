// Package domain holds the value types shared by the order book, pool
// manager, and router: token/pair/order identifiers, sides, order and pair
// entities, and the event records mutating operations emit.
package domain

import (
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/fenrir-labs/clob/internal/num"
)

// TokenId is an opaque 20-byte token identifier. The zero value denotes the
// native asset.
type TokenId = ethcommon.Address

// Trader identifies the account that owns an order.
type Trader = ethcommon.Address

// PairId is the deterministic 32-byte digest of a canonically-ordered token
// pair.
type PairId = ethcommon.Hash

// OrderId is a 32-byte digest derived from (pair_id, trader, nonce).
type OrderId = ethcommon.Hash

// NativeToken is the sentinel TokenId (all zeros) denoting the chain's
// native asset.
var NativeToken = TokenId{}

// Side is which direction of a pair an order trades.
type Side uint8

const (
	// Buy acquires base by paying quote.
	Buy Side = iota
	// Sell disposes of base to receive quote.
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType distinguishes resting limit orders from immediate-or-reject
// market orders.
type OrderType uint8

const (
	// Limit orders carry a price bound and may rest on the book.
	Limit OrderType = iota
	// Market orders never rest; they fill against existing liquidity or
	// fail per slippage rules.
	Market
)

func (t OrderType) String() string {
	if t == Limit {
		return "limit"
	}
	return "market"
}

// OrderStatus is the lifecycle state of an Order. Terminal states are
// Filled and Cancelled.
type OrderStatus uint8

const (
	Open OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
)

func (s OrderStatus) String() string {
	switch s {
	case Open:
		return "open"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == Filled || s == Cancelled
}

// Order is a resting or just-matched order. RemainingAmount is always
// expressed in base units (for both Buy and Sell limit orders), per §3.
type Order struct {
	OrderId         OrderId
	PairId          PairId
	Trader          Trader
	Side            Side
	Kind            OrderType
	Price           num.Price // meaningful for Limit orders only
	OriginalAmount  *num.Amount
	RemainingAmount *num.Amount
	SeqNum          uint64
	Status          OrderStatus
}

// Clone returns a deep copy safe to hand to a caller without risking
// aliasing of the book's internal state.
func (o *Order) Clone() *Order {
	clone := *o
	clone.OriginalAmount = new(num.Amount).Set(o.OriginalAmount)
	clone.RemainingAmount = new(num.Amount).Set(o.RemainingAmount)
	if o.Price.Num != nil {
		clone.Price.Num = new(num.Amount).Set(o.Price.Num)
	}
	if o.Price.Denom != nil {
		clone.Price.Denom = new(num.Amount).Set(o.Price.Denom)
	}
	return &clone
}

// Pair is a created trading pair. Base is fixed at creation to the
// lexicographically smaller token.
type Pair struct {
	PairId     PairId
	BaseToken  TokenId
	QuoteToken TokenId
	Stats      PairStats
}

// PairStats tracks cumulative volume and last trade price for a pair.
type PairStats struct {
	VolumeBase     *num.Amount
	LastPrice      num.Price
	HasLastPrice   bool
	OpenOrderCount uint64
}
