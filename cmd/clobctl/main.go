// Command clobctl is a TCP client for clobd: a flag-driven CLI that sends
// one wire.Request and prints the resulting wire.Response, adapted from
// the retrieval pack's own cmd/client.go (flag parsing, a single dial, an
// action switch) to this engine's framed binary protocol and 256-bit
// identifiers in place of tickers and float64 prices.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
	"github.com/fenrir-labs/clob/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the clobd server")
	action := flag.String("action", "", "create-pair | place-limit | cancel | execute-swap | get-quote | get-order | get-user-orders | depth | stats")

	trader := flag.String("trader", "", "trader address (hex, 20 bytes)")
	tokenIn := flag.String("token-in", "", "input/base token address (hex, 20 bytes)")
	tokenOut := flag.String("token-out", "", "output/quote token address (hex, 20 bytes)")
	side := flag.String("side", "buy", "buy | sell")
	amount := flag.String("amount", "0", "amount, base-10 integer")
	priceNum := flag.Uint64("price-num", 1, "price numerator")
	priceDenom := flag.Uint64("price-denom", 1, "price denominator")
	minAmountOut := flag.String("min-amount-out", "0", "minimum acceptable output, base-10 integer")
	orderId := flag.String("order-id", "", "order id (hex, 32 bytes)")
	levels := flag.Uint("levels", 10, "depth levels to request")
	flag.Parse()

	if *action == "" {
		fmt.Println("Error: -action is required.")
		flag.Usage()
		os.Exit(1)
	}

	req, err := buildRequest(*action, requestArgs{
		trader:       *trader,
		tokenIn:      *tokenIn,
		tokenOut:     *tokenOut,
		side:         *side,
		amount:       *amount,
		priceNum:     *priceNum,
		priceDenom:   *priceDenom,
		minAmountOut: *minAmountOut,
		orderId:      *orderId,
		levels:       uint16(*levels),
	})
	if err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()

	encoded, err := wire.EncodeRequest(req)
	if err != nil {
		log.Fatalf("failed to encode request: %v", err)
	}
	if err := writeFrame(conn, encoded); err != nil {
		log.Fatalf("failed to send request: %v", err)
	}

	respFrame, err := readFrame(conn)
	if err != nil {
		log.Fatalf("failed to read response: %v", err)
	}
	resp, err := wire.DecodeResponse(respFrame)
	if err != nil {
		log.Fatalf("failed to decode response: %v", err)
	}
	printResponse(resp)
}

type requestArgs struct {
	trader, tokenIn, tokenOut, side, amount, minAmountOut, orderId string
	priceNum, priceDenom                                          uint64
	levels                                                         uint16
}

func buildRequest(action string, a requestArgs) (wire.Request, error) {
	req := wire.Request{CorrelationID: uuid.New()}

	parseSide := func(s string) domain.Side {
		if strings.EqualFold(s, "sell") {
			return domain.Sell
		}
		return domain.Buy
	}
	parseAmount := func(s string) (*num.Amount, error) {
		v, ok := new(num.Amount).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%q is not a valid base-10 integer", s)
		}
		return v, nil
	}

	switch action {
	case "create-pair":
		req.Type = wire.ReqCreatePair
		req.TokenIn = ethcommon.HexToAddress(a.tokenIn)
		req.TokenOut = ethcommon.HexToAddress(a.tokenOut)

	case "place-limit":
		amt, err := parseAmount(a.amount)
		if err != nil {
			return req, err
		}
		req.Type = wire.ReqPlaceLimitOrder
		req.Trader = ethcommon.HexToAddress(a.trader)
		req.TokenIn = ethcommon.HexToAddress(a.tokenIn)
		req.TokenOut = ethcommon.HexToAddress(a.tokenOut)
		req.Side = parseSide(a.side)
		req.Amount = amt
		req.Price = num.NewPrice(a.priceNum, a.priceDenom)

	case "cancel":
		req.Type = wire.ReqCancelOrder
		req.Trader = ethcommon.HexToAddress(a.trader)
		req.OrderId = ethcommon.HexToHash(a.orderId)

	case "execute-swap":
		amt, err := parseAmount(a.amount)
		if err != nil {
			return req, err
		}
		minOut, err := parseAmount(a.minAmountOut)
		if err != nil {
			return req, err
		}
		req.Type = wire.ReqExecuteSwap
		req.Trader = ethcommon.HexToAddress(a.trader)
		req.TokenIn = ethcommon.HexToAddress(a.tokenIn)
		req.TokenOut = ethcommon.HexToAddress(a.tokenOut)
		req.Amount = amt
		req.MinAmountOut = minOut

	case "get-quote":
		amt, err := parseAmount(a.amount)
		if err != nil {
			return req, err
		}
		req.Type = wire.ReqGetQuote
		req.TokenIn = ethcommon.HexToAddress(a.tokenIn)
		req.TokenOut = ethcommon.HexToAddress(a.tokenOut)
		req.Amount = amt

	case "get-order":
		req.Type = wire.ReqGetOrder
		req.OrderId = ethcommon.HexToHash(a.orderId)

	case "get-user-orders":
		req.Type = wire.ReqGetUserOrders
		req.Trader = ethcommon.HexToAddress(a.trader)

	case "depth":
		req.Type = wire.ReqGetOrderbookDepth
		req.TokenIn = ethcommon.HexToAddress(a.tokenIn)
		req.TokenOut = ethcommon.HexToAddress(a.tokenOut)
		req.Levels = a.levels

	case "stats":
		req.Type = wire.ReqGetPairStats
		req.TokenIn = ethcommon.HexToAddress(a.tokenIn)
		req.TokenOut = ethcommon.HexToAddress(a.tokenOut)

	default:
		return req, fmt.Errorf("unknown action %q", action)
	}
	return req, nil
}

func printResponse(resp wire.Response) {
	if resp.Status == wire.StatusError {
		fmt.Printf("ERROR: %s\n", resp.ErrText)
		return
	}
	fmt.Printf("OK pair_id=%s order_id=%s status=%s amount_out=%s\n",
		resp.PairId.Hex(), resp.OrderId.Hex(), resp.OrderStatus, amountString(resp.AmountOut))
	if len(resp.Route) > 0 {
		hops := make([]string, len(resp.Route))
		for i, p := range resp.Route {
			hops[i] = p.Hex()
		}
		fmt.Printf("route: %s\n", strings.Join(hops, " -> "))
	}
	for _, f := range resp.Fills {
		fmt.Printf("fill: maker=%s taker=%s base=%s quote=%s\n",
			f.MakerOrderId.Hex(), f.TakerOrderId.Hex(), f.BaseAmount, f.QuoteAmount)
	}
	for _, id := range resp.OrderIds {
		fmt.Printf("order: %s\n", id.Hex())
	}
	for _, b := range resp.Bids {
		fmt.Printf("bid: price=%s/%s remaining=%s\n", b.Price.Num, b.Price.Denom, b.RemainingAmount)
	}
	for _, a := range resp.Asks {
		fmt.Printf("ask: price=%s/%s remaining=%s\n", a.Price.Num, a.Price.Denom, a.RemainingAmount)
	}
}

func amountString(a *num.Amount) string {
	if a == nil {
		return "-"
	}
	return a.String()
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	buf := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
