package domain

import "github.com/fenrir-labs/clob/internal/num"

// EventKind distinguishes the event records emitted by mutating operations.
// The host maps these to log entries; see spec.md §6.
type EventKind uint8

const (
	EventPairCreated EventKind = iota
	EventLimitOrderPlaced
	EventOrderCancelled
	EventOrderFilled
	EventSwap
)

// Event is a single structured record appended, in emission order, to the
// result of any mutating PoolManager call.
type Event struct {
	Kind EventKind

	PairCreated      *PairCreatedEvent      `json:",omitempty"`
	LimitOrderPlaced *LimitOrderPlacedEvent `json:",omitempty"`
	OrderCancelled   *OrderCancelledEvent   `json:",omitempty"`
	OrderFilled      *OrderFilledEvent      `json:",omitempty"`
	Swap             *SwapEvent             `json:",omitempty"`
}

// PairCreatedEvent records a new pair's canonical tokens and id.
type PairCreatedEvent struct {
	BaseToken  TokenId
	QuoteToken TokenId
	PairId     PairId
}

// LimitOrderPlacedEvent records the resting (or fully-filled) limit order
// as submitted, independent of the fills it may have produced.
type LimitOrderPlacedEvent struct {
	OrderId OrderId
	Trader  Trader
	PairId  PairId
	Side    Side
	Amount  *num.Amount
	Price   num.Price
}

// OrderCancelledEvent records a successful cancellation.
type OrderCancelledEvent struct {
	OrderId OrderId
	Trader  Trader
}

// OrderFilledEvent records one match between a maker and a taker.
type OrderFilledEvent struct {
	PairId       PairId
	MakerOrderId OrderId
	TakerOrderId OrderId
	MakerSide    Side
	BaseAmount   *num.Amount
	QuoteAmount  *num.Amount
	Price        num.Price
}

// SwapEvent records a (possibly multi-hop) swap's route and totals.
type SwapEvent struct {
	Trader    Trader
	TokenIn   TokenId
	TokenOut  TokenId
	AmountIn  *num.Amount
	AmountOut *num.Amount
	Route     []PairId
}

// Fill is the return-value counterpart of OrderFilledEvent, used by
// OrderBook methods before they are wrapped into Events by the pool layer.
type Fill struct {
	PairId       PairId
	MakerOrderId OrderId
	TakerOrderId OrderId
	MakerSide    Side
	BaseAmount   *num.Amount
	QuoteAmount  *num.Amount
	Price        num.Price
}

// AsEvent wraps a Fill into an Event carrying an OrderFilledEvent.
func (f Fill) AsEvent() Event {
	return Event{
		Kind: EventOrderFilled,
		OrderFilled: &OrderFilledEvent{
			PairId:       f.PairId,
			MakerOrderId: f.MakerOrderId,
			TakerOrderId: f.TakerOrderId,
			MakerSide:    f.MakerSide,
			BaseAmount:   f.BaseAmount,
			QuoteAmount:  f.QuoteAmount,
			Price:        f.Price,
		},
	}
}
