package wire

import (
	"encoding/binary"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

// requestHeaderLen is uuid(16) + type(1), present on every request.
const requestHeaderLen = 16 + 1

// put256 writes v as a 32-byte big-endian field, per spec.md §2's 256-bit
// amount representation. v must already be known to fit (num.CheckFits is
// the caller's responsibility, as it is for every other num operation).
func put256(buf []byte, v *big.Int) {
	v.FillBytes(buf[:32])
}

func get256(buf []byte) *big.Int {
	return new(big.Int).SetBytes(buf[:32])
}

// EncodeRequest serializes req per its Type. Unused fields for that type
// are omitted from the wire form entirely, rather than zero-filled, so the
// frame length itself discloses nothing beyond what the type already
// implies.
func EncodeRequest(req Request) ([]byte, error) {
	head := make([]byte, requestHeaderLen)
	idBytes, err := req.CorrelationID.MarshalBinary()
	if err != nil {
		return nil, err
	}
	copy(head[0:16], idBytes)
	head[16] = byte(req.Type)

	switch req.Type {
	case ReqCreatePair:
		body := make([]byte, 20+20)
		copy(body[0:20], req.TokenIn.Bytes())
		copy(body[20:40], req.TokenOut.Bytes())
		return append(head, body...), nil

	case ReqPlaceLimitOrder:
		body := make([]byte, 20+20+20+1+32+32+32)
		off := 0
		off += copy(body[off:], req.Trader.Bytes())
		off += copy(body[off:], req.TokenIn.Bytes())
		off += copy(body[off:], req.TokenOut.Bytes())
		body[off] = byte(req.Side)
		off++
		put256(body[off:off+32], req.Amount)
		off += 32
		put256(body[off:off+32], req.Price.Num)
		off += 32
		put256(body[off:off+32], req.Price.Denom)
		return append(head, body...), nil

	case ReqCancelOrder:
		body := make([]byte, 20+32)
		copy(body[0:20], req.Trader.Bytes())
		copy(body[20:52], req.OrderId.Bytes())
		return append(head, body...), nil

	case ReqExecuteSwap:
		body := make([]byte, 20+20+20+32+32)
		off := 0
		off += copy(body[off:], req.Trader.Bytes())
		off += copy(body[off:], req.TokenIn.Bytes())
		off += copy(body[off:], req.TokenOut.Bytes())
		put256(body[off:off+32], req.Amount)
		off += 32
		put256(body[off:off+32], req.MinAmountOut)
		return append(head, body...), nil

	case ReqGetQuote:
		body := make([]byte, 20+20+32)
		off := 0
		off += copy(body[off:], req.TokenIn.Bytes())
		off += copy(body[off:], req.TokenOut.Bytes())
		put256(body[off:off+32], req.Amount)
		return append(head, body...), nil

	case ReqGetOrder:
		body := make([]byte, 32)
		copy(body, req.OrderId.Bytes())
		return append(head, body...), nil

	case ReqGetUserOrders:
		body := make([]byte, 20)
		copy(body, req.Trader.Bytes())
		return append(head, body...), nil

	case ReqGetOrderbookDepth:
		body := make([]byte, 20+20+2)
		off := 0
		off += copy(body[off:], req.TokenIn.Bytes())
		off += copy(body[off:], req.TokenOut.Bytes())
		binary.BigEndian.PutUint16(body[off:off+2], req.Levels)
		return append(head, body...), nil

	case ReqGetPairStats:
		body := make([]byte, 20+20)
		copy(body[0:20], req.TokenIn.Bytes())
		copy(body[20:40], req.TokenOut.Bytes())
		return append(head, body...), nil

	default:
		return nil, ErrInvalidMessageType
	}
}

// DecodeRequest parses a frame produced by EncodeRequest.
func DecodeRequest(msg []byte) (Request, error) {
	if len(msg) < requestHeaderLen {
		return Request{}, ErrMessageTooShort
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(msg[0:16]); err != nil {
		return Request{}, err
	}
	req := Request{CorrelationID: id, Type: RequestType(msg[16])}
	body := msg[requestHeaderLen:]

	switch req.Type {
	case ReqCreatePair:
		if len(body) != 40 {
			return Request{}, ErrMessageTooShort
		}
		req.TokenIn = ethcommon.BytesToAddress(body[0:20])
		req.TokenOut = ethcommon.BytesToAddress(body[20:40])

	case ReqPlaceLimitOrder:
		if len(body) != 20+20+20+1+32+32+32 {
			return Request{}, ErrMessageTooShort
		}
		off := 0
		req.Trader = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.TokenIn = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.TokenOut = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.Side = domain.Side(body[off])
		off++
		req.Amount = get256(body[off : off+32])
		off += 32
		req.Price.Num = get256(body[off : off+32])
		off += 32
		req.Price.Denom = get256(body[off : off+32])

	case ReqCancelOrder:
		if len(body) != 20+32 {
			return Request{}, ErrMessageTooShort
		}
		req.Trader = ethcommon.BytesToAddress(body[0:20])
		req.OrderId = ethcommon.BytesToHash(body[20:52])

	case ReqExecuteSwap:
		if len(body) != 20+20+20+32+32 {
			return Request{}, ErrMessageTooShort
		}
		off := 0
		req.Trader = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.TokenIn = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.TokenOut = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.Amount = get256(body[off : off+32])
		off += 32
		req.MinAmountOut = get256(body[off : off+32])

	case ReqGetQuote:
		if len(body) != 20+20+32 {
			return Request{}, ErrMessageTooShort
		}
		off := 0
		req.TokenIn = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.TokenOut = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.Amount = get256(body[off : off+32])

	case ReqGetOrder:
		if len(body) != 32 {
			return Request{}, ErrMessageTooShort
		}
		req.OrderId = ethcommon.BytesToHash(body)

	case ReqGetUserOrders:
		if len(body) != 20 {
			return Request{}, ErrMessageTooShort
		}
		req.Trader = ethcommon.BytesToAddress(body)

	case ReqGetOrderbookDepth:
		if len(body) != 20+20+2 {
			return Request{}, ErrMessageTooShort
		}
		off := 0
		req.TokenIn = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.TokenOut = ethcommon.BytesToAddress(body[off : off+20])
		off += 20
		req.Levels = binary.BigEndian.Uint16(body[off : off+2])

	case ReqGetPairStats:
		if len(body) != 40 {
			return Request{}, ErrMessageTooShort
		}
		req.TokenIn = ethcommon.BytesToAddress(body[0:20])
		req.TokenOut = ethcommon.BytesToAddress(body[20:40])

	default:
		return Request{}, ErrInvalidMessageType
	}
	return req, nil
}

// responseHeaderLen is uuid(16) + status(1).
const responseHeaderLen = 16 + 1

// EncodeResponse serializes resp. Error responses carry only ErrText.
// Success responses always carry PairId, OrderId, OrderStatus and AmountOut
// (zero-filled when unset), followed by the length-prefixed Route, Fills and
// OrderIds lists, so the decoder does not need to know the originating
// request's Type to parse the frame. Order, Bids, Asks and PairStats are not
// encoded, so a decoded Response never carries them.
func EncodeResponse(resp Response) ([]byte, error) {
	idBytes, err := resp.CorrelationID.MarshalBinary()
	if err != nil {
		return nil, err
	}
	head := make([]byte, responseHeaderLen)
	copy(head[0:16], idBytes)
	head[16] = byte(resp.Status)

	if resp.Status == StatusError {
		errBytes := []byte(resp.ErrText)
		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(errBytes)))
		return append(append(head, lenBuf...), errBytes...), nil
	}

	body := make([]byte, 0, 128)
	body = append(body, resp.PairId.Bytes()...)
	body = append(body, resp.OrderId.Bytes()...)
	body = append(body, byte(resp.OrderStatus))

	var amountOut [32]byte
	if resp.AmountOut != nil {
		put256(amountOut[:], resp.AmountOut)
	}
	body = append(body, amountOut[:]...)

	routeLen := make([]byte, 2)
	binary.BigEndian.PutUint16(routeLen, uint16(len(resp.Route)))
	body = append(body, routeLen...)
	for _, p := range resp.Route {
		body = append(body, p.Bytes()...)
	}

	fillsLen := make([]byte, 2)
	binary.BigEndian.PutUint16(fillsLen, uint16(len(resp.Fills)))
	body = append(body, fillsLen...)
	for _, f := range resp.Fills {
		body = append(body, encodeFill(f)...)
	}

	orderIdsLen := make([]byte, 2)
	binary.BigEndian.PutUint16(orderIdsLen, uint16(len(resp.OrderIds)))
	body = append(body, orderIdsLen...)
	for _, id := range resp.OrderIds {
		body = append(body, id.Bytes()...)
	}

	return append(head, body...), nil
}

const fillWireLen = 32 + 32 + 32 + 1 + 32 + 32 + 32 + 32

func encodeFill(f domain.Fill) []byte {
	buf := make([]byte, fillWireLen)
	off := 0
	off += copy(buf[off:], f.PairId.Bytes())
	off += copy(buf[off:], f.MakerOrderId.Bytes())
	off += copy(buf[off:], f.TakerOrderId.Bytes())
	buf[off] = byte(f.MakerSide)
	off++
	put256(buf[off:off+32], f.BaseAmount)
	off += 32
	put256(buf[off:off+32], f.QuoteAmount)
	off += 32
	put256(buf[off:off+32], f.Price.Num)
	off += 32
	put256(buf[off:off+32], f.Price.Denom)
	return buf
}

func decodeFill(buf []byte) domain.Fill {
	off := 0
	pairId := ethcommon.BytesToHash(buf[off : off+32])
	off += 32
	makerId := ethcommon.BytesToHash(buf[off : off+32])
	off += 32
	takerId := ethcommon.BytesToHash(buf[off : off+32])
	off += 32
	side := domain.Side(buf[off])
	off++
	base := get256(buf[off : off+32])
	off += 32
	quote := get256(buf[off : off+32])
	off += 32
	priceNum := get256(buf[off : off+32])
	off += 32
	priceDenom := get256(buf[off : off+32])
	return domain.Fill{
		PairId:       pairId,
		MakerOrderId: makerId,
		TakerOrderId: takerId,
		MakerSide:    side,
		BaseAmount:   base,
		QuoteAmount:  quote,
		Price:        num.Price{Num: priceNum, Denom: priceDenom},
	}
}

// DecodeResponse parses a frame produced by EncodeResponse.
func DecodeResponse(msg []byte) (Response, error) {
	if len(msg) < responseHeaderLen {
		return Response{}, ErrMessageTooShort
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(msg[0:16]); err != nil {
		return Response{}, err
	}
	resp := Response{CorrelationID: id, Status: ResponseStatus(msg[16])}
	rest := msg[responseHeaderLen:]

	if resp.Status == StatusError {
		if len(rest) < 4 {
			return Response{}, ErrMessageTooShort
		}
		n := binary.BigEndian.Uint32(rest[0:4])
		if uint32(len(rest)-4) < n {
			return Response{}, ErrMessageTooShort
		}
		resp.ErrText = string(rest[4 : 4+n])
		return resp, nil
	}

	off := 0
	need := func(n int) bool { return off+n <= len(rest) }

	if !need(32) {
		return Response{}, ErrMessageTooShort
	}
	resp.PairId = ethcommon.BytesToHash(rest[off : off+32])
	off += 32

	if !need(32) {
		return Response{}, ErrMessageTooShort
	}
	resp.OrderId = ethcommon.BytesToHash(rest[off : off+32])
	off += 32

	if !need(1) {
		return Response{}, ErrMessageTooShort
	}
	resp.OrderStatus = domain.OrderStatus(rest[off])
	off++

	if !need(32) {
		return Response{}, ErrMessageTooShort
	}
	resp.AmountOut = get256(rest[off : off+32])
	off += 32

	if !need(2) {
		return Response{}, ErrMessageTooShort
	}
	routeLen := int(binary.BigEndian.Uint16(rest[off : off+2]))
	off += 2
	for i := 0; i < routeLen; i++ {
		if !need(32) {
			return Response{}, ErrMessageTooShort
		}
		resp.Route = append(resp.Route, ethcommon.BytesToHash(rest[off:off+32]))
		off += 32
	}

	if !need(2) {
		return Response{}, ErrMessageTooShort
	}
	fillsLen := int(binary.BigEndian.Uint16(rest[off : off+2]))
	off += 2
	for i := 0; i < fillsLen; i++ {
		if !need(fillWireLen) {
			return Response{}, ErrMessageTooShort
		}
		resp.Fills = append(resp.Fills, decodeFill(rest[off:off+fillWireLen]))
		off += fillWireLen
	}

	if !need(2) {
		return Response{}, ErrMessageTooShort
	}
	orderIdsLen := int(binary.BigEndian.Uint16(rest[off : off+2]))
	off += 2
	for i := 0; i < orderIdsLen; i++ {
		if !need(32) {
			return Response{}, ErrMessageTooShort
		}
		resp.OrderIds = append(resp.OrderIds, ethcommon.BytesToHash(rest[off:off+32]))
		off += 32
	}

	if off != len(rest) {
		return Response{}, ErrTrailingBytes
	}
	return resp, nil
}
