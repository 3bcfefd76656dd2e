package server

import (
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
	"github.com/fenrir-labs/clob/internal/pool"
	"github.com/fenrir-labs/clob/internal/wire"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := pool.DefaultConfig()
	cfg.FeeBps = 0
	manager := pool.New(cfg, zerolog.Nop(), nil)
	return &Server{manager: manager, log: zerolog.Nop(), commands: make(chan command)}
}

func tok(b byte) domain.TokenId { return ethcommon.BytesToAddress([]byte{b}) }

func TestDispatchCreatePairThenPlaceLimitOrder(t *testing.T) {
	s := newTestServer(t)

	createReq := wire.Request{CorrelationID: uuid.New(), Type: wire.ReqCreatePair, TokenIn: tok(1), TokenOut: tok(2)}
	createResp := s.dispatch(createReq)
	require.Equal(t, wire.StatusOK, createResp.Status)
	assert.NotEqual(t, domain.PairId{}, createResp.PairId)

	limitReq := wire.Request{
		CorrelationID: uuid.New(),
		Type:          wire.ReqPlaceLimitOrder,
		Trader:        tok(9),
		TokenIn:       tok(2),
		TokenOut:      tok(1),
		Side:          domain.Buy,
		Amount:        num.FromUint64(100),
		Price:         num.NewPrice(1, 1),
	}
	limitResp := s.dispatch(limitReq)
	require.Equal(t, wire.StatusOK, limitResp.Status)
	assert.Equal(t, domain.Open, limitResp.OrderStatus)

	getReq := wire.Request{CorrelationID: uuid.New(), Type: wire.ReqGetOrder, OrderId: limitResp.OrderId}
	getResp := s.dispatch(getReq)
	require.Equal(t, wire.StatusOK, getResp.Status)
	require.NotNil(t, getResp.Order)
	assert.Equal(t, domain.Open, getResp.Order.Status)
}

func TestDispatchUnknownPairReturnsError(t *testing.T) {
	s := newTestServer(t)
	req := wire.Request{CorrelationID: uuid.New(), Type: wire.ReqGetPairStats, TokenIn: tok(1), TokenOut: tok(2)}
	resp := s.dispatch(req)
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.NotEmpty(t, resp.ErrText)
}

func TestCommandLoopSerializesRequests(t *testing.T) {
	s := newTestServer(t)
	tmb := &tomb.Tomb{}
	go s.commandLoop(tmb)

	createReq := wire.Request{CorrelationID: uuid.New(), Type: wire.ReqCreatePair, TokenIn: tok(1), TokenOut: tok(2)}
	replyC := make(chan wire.Response, 1)
	s.commands <- command{req: createReq, replyC: replyC}
	resp := <-replyC
	require.Equal(t, wire.StatusOK, resp.Status)

	tmb.Kill(nil)
}
