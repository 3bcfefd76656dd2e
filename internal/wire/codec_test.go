package wire

import (
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

func TestRequestRoundTripPlaceLimitOrder(t *testing.T) {
	req := Request{
		CorrelationID: uuid.New(),
		Type:          ReqPlaceLimitOrder,
		Trader:        ethcommon.BytesToAddress([]byte{1}),
		TokenIn:       ethcommon.BytesToAddress([]byte{2}),
		TokenOut:      ethcommon.BytesToAddress([]byte{3}),
		Side:          domain.Buy,
		Amount:        num.FromUint64(1000),
		Price:         num.NewPrice(2, 1),
	}

	encoded, err := EncodeRequest(req)
	require.NoError(t, err)

	decoded, err := DecodeRequest(encoded)
	require.NoError(t, err)

	assert.Equal(t, req.CorrelationID, decoded.CorrelationID)
	assert.Equal(t, req.Type, decoded.Type)
	assert.Equal(t, req.Trader, decoded.Trader)
	assert.Equal(t, req.TokenIn, decoded.TokenIn)
	assert.Equal(t, req.TokenOut, decoded.TokenOut)
	assert.Equal(t, req.Side, decoded.Side)
	assert.Equal(t, req.Amount, decoded.Amount)
	assert.True(t, req.Price.Equal(decoded.Price))
}

func TestRequestRoundTripCancelOrder(t *testing.T) {
	req := Request{
		CorrelationID: uuid.New(),
		Type:          ReqCancelOrder,
		Trader:        ethcommon.BytesToAddress([]byte{9}),
		OrderId:       ethcommon.BytesToHash([]byte{0xaa}),
	}
	encoded, err := EncodeRequest(req)
	require.NoError(t, err)
	decoded, err := DecodeRequest(encoded)
	require.NoError(t, err)
	assert.Equal(t, req.Trader, decoded.Trader)
	assert.Equal(t, req.OrderId, decoded.OrderId)
}

func TestRequestTooShortRejected(t *testing.T) {
	_, err := DecodeRequest([]byte{1, 2})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestResponseRoundTripSuccess(t *testing.T) {
	resp := Response{
		CorrelationID: uuid.New(),
		Status:        StatusOK,
		PairId:        ethcommon.BytesToHash([]byte{1}),
		OrderId:       ethcommon.BytesToHash([]byte{2}),
		OrderStatus:   domain.PartiallyFilled,
		AmountOut:     num.FromUint64(500),
		Route:         []domain.PairId{ethcommon.BytesToHash([]byte{3}), ethcommon.BytesToHash([]byte{4})},
		Fills: []domain.Fill{
			{
				PairId:       ethcommon.BytesToHash([]byte{1}),
				MakerOrderId: ethcommon.BytesToHash([]byte{5}),
				TakerOrderId: ethcommon.BytesToHash([]byte{6}),
				MakerSide:    domain.Sell,
				BaseAmount:   num.FromUint64(100),
				QuoteAmount:  num.FromUint64(200),
				Price:        num.NewPrice(2, 1),
			},
		},
	}

	encoded, err := EncodeResponse(resp)
	require.NoError(t, err)
	decoded, err := DecodeResponse(encoded)
	require.NoError(t, err)

	assert.Equal(t, resp.CorrelationID, decoded.CorrelationID)
	assert.Equal(t, resp.Status, decoded.Status)
	assert.Equal(t, resp.PairId, decoded.PairId)
	assert.Equal(t, resp.OrderId, decoded.OrderId)
	assert.Equal(t, resp.OrderStatus, decoded.OrderStatus)
	assert.Equal(t, resp.AmountOut, decoded.AmountOut)
	assert.Equal(t, resp.Route, decoded.Route)
	require.Len(t, decoded.Fills, 1)
	assert.Equal(t, resp.Fills[0].BaseAmount, decoded.Fills[0].BaseAmount)
	assert.Equal(t, resp.Fills[0].QuoteAmount, decoded.Fills[0].QuoteAmount)
	assert.True(t, resp.Fills[0].Price.Equal(decoded.Fills[0].Price))
}

func TestResponseRoundTripError(t *testing.T) {
	resp := Response{
		CorrelationID: uuid.New(),
		Status:        StatusError,
		ErrText:       "pool: pair not found",
	}
	encoded, err := EncodeResponse(resp)
	require.NoError(t, err)
	decoded, err := DecodeResponse(encoded)
	require.NoError(t, err)
	assert.Equal(t, resp.Status, decoded.Status)
	assert.Equal(t, resp.ErrText, decoded.ErrText)
}
