package server

import (
	"github.com/google/uuid"
	tomb "gopkg.in/tomb.v2"

	"github.com/fenrir-labs/clob/internal/book"
	"github.com/fenrir-labs/clob/internal/wire"
)

// command is one decoded request awaiting execution on the single command
// loop, paired with a channel its submitting connection worker blocks on
// for the reply.
type command struct {
	req    wire.Request
	replyC chan wire.Response
}

// commandLoop is the engine's single writer: every command is executed to
// completion, one at a time, in submission order, before the next is
// started. This is what makes the engine's outputs reproducible across
// independent nodes replaying the same command sequence.
func (s *Server) commandLoop(t *tomb.Tomb) {
	for {
		select {
		case <-t.Dying():
			return
		case cmd := <-s.commands:
			cmd.replyC <- s.dispatch(cmd.req)
		}
	}
}

func errResponse(id uuid.UUID, err error) wire.Response {
	return wire.Response{
		CorrelationID: id,
		Status:        wire.StatusError,
		ErrText:       err.Error(),
	}
}

// dispatch executes req against the pool manager and builds the matching
// response. It never panics on a domain error (ErrPairNotFound and
// friends); those become StatusError responses, not worker crashes.
func (s *Server) dispatch(req wire.Request) wire.Response {
	id := req.CorrelationID

	switch req.Type {
	case wire.ReqCreatePair:
		pairId, _, err := s.manager.CreatePair(req.TokenIn, req.TokenOut)
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, PairId: pairId}

	case wire.ReqPlaceLimitOrder:
		orderId, fills, status, _, err := s.manager.PlaceLimitOrder(req.Trader, req.TokenIn, req.TokenOut, req.Side, req.Amount, req.Price)
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, OrderId: orderId, OrderStatus: status, Fills: fills}

	case wire.ReqCancelOrder:
		order, _, err := s.manager.CancelOrder(req.OrderId, req.Trader)
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, OrderId: order.OrderId, OrderStatus: order.Status, Order: order}

	case wire.ReqExecuteSwap:
		amountOut, route, fills, _, err := s.manager.ExecuteSwap(req.Trader, req.TokenIn, req.TokenOut, req.Amount, req.MinAmountOut)
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, AmountOut: amountOut, Route: route, Fills: fills}

	case wire.ReqGetQuote:
		amountOut, route, err := s.manager.GetQuote(req.TokenIn, req.TokenOut, req.Amount)
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, AmountOut: amountOut, Route: route}

	case wire.ReqGetOrder:
		order, err := s.manager.GetOrder(req.OrderId)
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, Order: order, OrderId: order.OrderId, OrderStatus: order.Status}

	case wire.ReqGetUserOrders:
		orderIds := s.manager.GetUserOrders(req.Trader)
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, OrderIds: orderIds}

	case wire.ReqGetOrderbookDepth:
		bids, asks, err := s.manager.GetOrderbookDepth(req.TokenIn, req.TokenOut, int(req.Levels))
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{CorrelationID: id, Status: wire.StatusOK, Bids: toWireDepth(bids), Asks: toWireDepth(asks)}

	case wire.ReqGetPairStats:
		stats, err := s.manager.GetPairStats(req.TokenIn, req.TokenOut)
		if err != nil {
			return errResponse(id, err)
		}
		return wire.Response{
			CorrelationID: id,
			Status:        wire.StatusOK,
			PairStats: wire.PairStatsWire{
				VolumeBase:     stats.VolumeBase,
				LastPrice:      stats.LastPrice,
				HasLastPrice:   stats.HasLastPrice,
				OpenOrderCount: stats.OpenOrderCount,
			},
		}

	default:
		return errResponse(id, wire.ErrInvalidMessageType)
	}
}

func toWireDepth(levels []book.DepthLevel) []wire.DepthLevel {
	out := make([]wire.DepthLevel, len(levels))
	for i, l := range levels {
		out[i] = wire.DepthLevel{Price: l.Price, RemainingAmount: l.RemainingAmount}
	}
	return out
}
