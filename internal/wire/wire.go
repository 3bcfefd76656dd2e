// Package wire implements the binary request/response protocol the TCP
// server speaks with clients, adapted from the retrieval pack's own
// fixed-header, type-tagged message format (internal/net/messages.go
// there) to this engine's domain: 256-bit amounts and prices in place of
// float64 quantities, and common.Address/common.Hash identifiers in place
// of string tickers and UUID order ids. Each request still carries its own
// correlation id (a google/uuid value) so a client can match asynchronous
// responses to the request that produced them.
package wire

import (
	"errors"

	"github.com/google/uuid"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

var (
	ErrMessageTooShort    = errors.New("wire: message too short")
	ErrInvalidMessageType = errors.New("wire: unrecognized message type")
	ErrTrailingBytes      = errors.New("wire: trailing bytes after message")
)

// RequestType tags which operation a Request carries. Values match
// spec.md §4.4's operation list.
type RequestType uint8

const (
	ReqCreatePair RequestType = iota
	ReqPlaceLimitOrder
	ReqCancelOrder
	ReqExecuteSwap
	ReqGetQuote
	ReqGetOrder
	ReqGetUserOrders
	ReqGetOrderbookDepth
	ReqGetPairStats
)

func (t RequestType) String() string {
	switch t {
	case ReqCreatePair:
		return "create_pair"
	case ReqPlaceLimitOrder:
		return "place_limit_order"
	case ReqCancelOrder:
		return "cancel_order"
	case ReqExecuteSwap:
		return "execute_swap"
	case ReqGetQuote:
		return "get_quote"
	case ReqGetOrder:
		return "get_order"
	case ReqGetUserOrders:
		return "get_user_orders"
	case ReqGetOrderbookDepth:
		return "get_orderbook_depth"
	case ReqGetPairStats:
		return "get_pair_stats"
	default:
		return "unknown"
	}
}

// Request is the decoded form of one client message. Only the fields
// relevant to Type are meaningful; Encode/Decode pick the wire layout from
// Type alone, mirroring the pack's own BaseMessage-plus-switch approach.
type Request struct {
	CorrelationID uuid.UUID
	Type          RequestType

	Trader   domain.Trader
	TokenIn  domain.TokenId
	TokenOut domain.TokenId
	Side     domain.Side
	Amount   *num.Amount
	Price    num.Price

	MinAmountOut *num.Amount
	OrderId      domain.OrderId
	Levels       uint16
}

// ResponseStatus is the outcome tag of a Response.
type ResponseStatus uint8

const (
	StatusOK ResponseStatus = iota
	StatusError
)

// Response is the decoded form of one server reply. ErrText carries the
// error's message when Status is StatusError; the typed result fields are
// meaningful only on StatusOK, and only those matching the originating
// Request's Type are populated.
type Response struct {
	CorrelationID uuid.UUID
	Status        ResponseStatus
	ErrText       string

	PairId      domain.PairId
	OrderId     domain.OrderId
	OrderStatus domain.OrderStatus

	AmountOut *num.Amount
	Route     []domain.PairId
	Fills     []domain.Fill

	Order     *domain.Order
	OrderIds  []domain.OrderId
	Bids      []DepthLevel
	Asks      []DepthLevel
	PairStats PairStatsWire
}

// DepthLevel mirrors book.DepthLevel for wire purposes, so internal/wire
// does not depend on internal/book.
type DepthLevel struct {
	Price           num.Price
	RemainingAmount *num.Amount
}

// PairStatsWire mirrors pool.PairStatsResult, so internal/wire does not
// depend on internal/pool.
type PairStatsWire struct {
	VolumeBase     *num.Amount
	LastPrice      num.Price
	HasLastPrice   bool
	OpenOrderCount uint64
}
