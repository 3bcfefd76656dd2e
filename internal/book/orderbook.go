// Package book implements the per-pair two-sided order book: price-time
// priority limit matching, market-order sweeps, cancellation, and depth
// queries. It is pure — no logging, no config loading — so it can be unit
// tested in isolation and reused from any orchestration layer.
package book

import (
	"math/big"

	"github.com/tidwall/btree"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

// levels is the ordered price -> PriceLevel map used for both sides. Using
// *PriceLevel as the element type means Get returns the same pointer we
// stored, so mutating the orders resting at a level never requires a
// separate "mutable get" call.
type levels = btree.BTreeG[*PriceLevel]

// OrderBook is the matching engine for a single pair.
type OrderBook struct {
	PairId domain.PairId

	bids *levels // best bid first (descending price)
	asks *levels // best ask first (ascending price)

	ordersByID map[domain.OrderId]*orderLocation
	nextSeq    uint64

	minOrderSize   *num.Amount
	allowSelfTrade bool

	volumeBase   *num.Amount
	lastPrice    num.Price
	hasLastPrice bool
	openOrders   uint64
}

func bidLess(a, b *PriceLevel) bool {
	return a.Price.Greater(b.Price) // descending: Min() is the best bid
}

func askLess(a, b *PriceLevel) bool {
	return a.Price.Less(b.Price) // ascending: Min() is the best ask
}

// New constructs an empty OrderBook for pairId.
func New(pairId domain.PairId, minOrderSize *num.Amount, allowSelfTrade bool) *OrderBook {
	bids := btree.NewBTreeG(bidLess)
	asks := btree.NewBTreeG(askLess)
	return &OrderBook{
		PairId:         pairId,
		bids:           bids,
		asks:           asks,
		ordersByID:     make(map[domain.OrderId]*orderLocation),
		minOrderSize:   minOrderSize,
		allowSelfTrade: allowSelfTrade,
		volumeBase:     num.Zero(),
	}
}

// Clone returns a deep, independent copy of ob: its own price-level trees,
// its own FIFO queues (in the same time-priority order), its own orders, and
// its own id index. Used by pool.Manager to snapshot a book before a
// multi-hop swap commits, so a later hop's failure can be undone by simply
// restoring the pointer to the snapshot rather than unwinding mutations.
func (ob *OrderBook) Clone() *OrderBook {
	clone := &OrderBook{
		PairId:         ob.PairId,
		bids:           btree.NewBTreeG(bidLess),
		asks:           btree.NewBTreeG(askLess),
		ordersByID:     make(map[domain.OrderId]*orderLocation, len(ob.ordersByID)),
		nextSeq:        ob.nextSeq,
		minOrderSize:   new(big.Int).Set(ob.minOrderSize),
		allowSelfTrade: ob.allowSelfTrade,
		volumeBase:     new(big.Int).Set(ob.volumeBase),
		lastPrice:      ob.lastPrice,
		hasLastPrice:   ob.hasLastPrice,
		openOrders:     ob.openOrders,
	}

	cloneSide := func(src *levels, dst *levels, side domain.Side) {
		src.Scan(func(lvl *PriceLevel) bool {
			newLvl := newPriceLevel(lvl.Price)
			for e := lvl.Orders.Front(); e != nil; e = e.Next() {
				o := e.Value.(*domain.Order).Clone()
				newElem := newLvl.Orders.PushBack(o)
				clone.ordersByID[o.OrderId] = &orderLocation{order: o, side: side, level: newLvl, elem: newElem}
			}
			dst.Set(newLvl)
			return true
		})
	}
	cloneSide(ob.bids, clone.bids, domain.Buy)
	cloneSide(ob.asks, clone.asks, domain.Sell)

	// Terminal orders (cancelled/filled) have no level/elem and so are
	// invisible to the tree scan above; copy them in directly.
	for id, loc := range ob.ordersByID {
		if loc.level != nil {
			continue
		}
		if _, already := clone.ordersByID[id]; already {
			continue
		}
		clone.ordersByID[id] = &orderLocation{order: loc.order.Clone(), side: loc.side}
	}

	return clone
}

func minAmount(a, b *num.Amount) *num.Amount {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

func (ob *OrderBook) sideLevels(side domain.Side) *levels {
	if side == domain.Buy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) recordTrade(base *num.Amount, price num.Price) {
	ob.volumeBase = new(big.Int).Add(ob.volumeBase, base)
	ob.lastPrice = price
	ob.hasLastPrice = true
}

// removeFromLevel detaches an order from its resting level's queue,
// clearing its location so it is no longer matchable, but keeps the
// orderLocation itself (and its terminal order snapshot) in ordersByID.
// Callers must delete the level from its tree if it becomes empty.
func (ob *OrderBook) removeFromLevel(loc *orderLocation) {
	loc.level.Orders.Remove(loc.elem)
	loc.level = nil
	loc.elem = nil
	ob.openOrders--
}

// PlaceLimit implements spec.md §4.3 place_limit.
func (ob *OrderBook) PlaceLimit(trader domain.Trader, side domain.Side, price num.Price, amount *num.Amount) (domain.OrderId, []domain.Fill, domain.OrderStatus, error) {
	if err := price.Validate(); err != nil {
		return domain.OrderId{}, nil, 0, ErrInvalidPrice
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.OrderId{}, nil, 0, ErrInvalidAmount
	}
	if amount.Cmp(ob.minOrderSize) < 0 {
		return domain.OrderId{}, nil, 0, ErrBelowMinOrderSize
	}

	seq := ob.nextSeq
	ob.nextSeq++
	orderId := domain.DeriveOrderId(ob.PairId, trader, seq)

	order := &domain.Order{
		OrderId:         orderId,
		PairId:          ob.PairId,
		Trader:          trader,
		Side:            side,
		Kind:            domain.Limit,
		Price:           price,
		OriginalAmount:  new(big.Int).Set(amount),
		RemainingAmount: new(big.Int).Set(amount),
		SeqNum:          seq,
		Status:          domain.Open,
	}

	opposite := ob.sideLevels(side.Opposite())
	var fills []domain.Fill
	var toReinsert []*PriceLevel

	for order.RemainingAmount.Sign() > 0 {
		best, ok := opposite.Min()
		if !ok {
			break
		}
		if side == domain.Buy && best.Price.Greater(price) {
			break
		}
		if side == domain.Sell && best.Price.Less(price) {
			break
		}

		opposite.Delete(best)
		ob.matchAgainstLevel(best, order, trader, &fills)

		if best.Orders.Len() == 0 {
			continue // fully drained, do not reinsert
		}
		toReinsert = append(toReinsert, best)
	}
	for _, lvl := range toReinsert {
		opposite.Set(lvl)
	}

	if order.RemainingAmount.Sign() == 0 {
		order.Status = domain.Filled
		ob.ordersByID[orderId] = &orderLocation{order: order, side: side}
		return orderId, fills, order.Status, nil
	}

	if len(fills) > 0 {
		order.Status = domain.PartiallyFilled
	} else {
		order.Status = domain.Open
	}

	own := ob.sideLevels(side)
	level, ok := own.Get(&PriceLevel{Price: price})
	if !ok {
		level = newPriceLevel(price)
		own.Set(level)
	}
	elem := level.Orders.PushBack(order)
	ob.ordersByID[orderId] = &orderLocation{order: order, side: side, level: level, elem: elem}
	ob.openOrders++

	return orderId, fills, order.Status, nil
}

// matchAgainstLevel walks a single opposing price level FIFO, filling the
// taker order against it. Self-trade makers are skipped in place (per
// spec.md §4.3's documented policy: skip, don't cancel). Dust fills (quote
// amount rounds to zero) close the resting order without any transfer, per
// spec.md §4.1.
func (ob *OrderBook) matchAgainstLevel(level *PriceLevel, taker *domain.Order, takerTrader domain.Trader, fills *[]domain.Fill) {
	elem := level.Orders.Front()
	for elem != nil && taker.RemainingAmount.Sign() > 0 {
		resting := elem.Value.(*domain.Order)
		next := elem.Next()

		if !ob.allowSelfTrade && resting.Trader == takerTrader {
			elem = next
			continue
		}

		restingLoc := ob.ordersByID[resting.OrderId]

		fillBase := minAmount(taker.RemainingAmount, resting.RemainingAmount)
		quoteAmount, err := resting.Price.QuoteForSeller(fillBase)
		if err != nil || quoteAmount.Sign() == 0 {
			// Dust remnant: the resting order cannot produce a transfer
			// worth a single quote unit. Forfeit it entirely rather than
			// give away base for zero quote.
			resting.RemainingAmount = num.Zero()
			resting.Status = domain.Filled
			ob.removeFromLevel(restingLoc)
			elem = next
			continue
		}

		taker.RemainingAmount = new(big.Int).Sub(taker.RemainingAmount, fillBase)
		resting.RemainingAmount = new(big.Int).Sub(resting.RemainingAmount, fillBase)

		*fills = append(*fills, domain.Fill{
			PairId:       ob.PairId,
			MakerOrderId: resting.OrderId,
			TakerOrderId: taker.OrderId,
			MakerSide:    resting.Side,
			BaseAmount:   fillBase,
			QuoteAmount:  quoteAmount,
			Price:        resting.Price,
		})
		ob.recordTrade(fillBase, resting.Price)

		if resting.RemainingAmount.Sign() == 0 {
			resting.Status = domain.Filled
			ob.removeFromLevel(restingLoc)
		} else {
			resting.Status = domain.PartiallyFilled
		}
		elem = next
	}
}

// marketConsumption is a planned mutation against a single resting order,
// computed during the read-only simulation pass of PlaceMarket and applied
// only once the slippage check has passed.
type marketConsumption struct {
	orderId     domain.OrderId
	baseReduced *num.Amount
	fill        *domain.Fill // nil for a dust close
}

// simulateMarket performs the read-only sweep-planning pass shared by
// PlaceMarket and Quote. It never mutates book state. trader is used only to
// apply the self-trade skip policy; Quote passes its own trader argument
// through, which is the zero address for an identity-agnostic quote.
func (ob *OrderBook) simulateMarket(trader domain.Trader, side domain.Side, amountIn *num.Amount) (totalOut *num.Amount, plan []marketConsumption, matched bool, err error) {
	opposite := ob.sideLevels(side.Opposite())
	remainingIn := new(big.Int).Set(amountIn)
	totalOut = num.Zero()

	stop := false
	opposite.Scan(func(level *PriceLevel) bool {
		for elem := level.Orders.Front(); elem != nil; elem = elem.Next() {
			if remainingIn.Sign() == 0 {
				stop = true
				return false
			}
			resting := elem.Value.(*domain.Order)
			if !ob.allowSelfTrade && resting.Trader == trader {
				continue
			}
			p := resting.Price

			if side == domain.Buy {
				// Taker spends quote (remainingIn), receives base.
				quoteCost, err := p.QuoteForBuyer(resting.RemainingAmount)
				if err != nil {
					stop = true
					return false
				}
				var baseTaken, quoteSpent *num.Amount
				if remainingIn.Cmp(quoteCost) >= 0 {
					baseTaken = new(big.Int).Set(resting.RemainingAmount)
					quoteSpent = quoteCost
				} else {
					baseTaken, err = p.BaseForBuyer(remainingIn)
					if err != nil {
						stop = true
						return false
					}
					if baseTaken.Sign() == 0 {
						stop = true
						return false
					}
					quoteSpent, err = p.QuoteForBuyer(baseTaken)
					if err != nil {
						stop = true
						return false
					}
				}
				remainingIn = new(big.Int).Sub(remainingIn, quoteSpent)
				totalOut = new(big.Int).Add(totalOut, baseTaken)
				plan = append(plan, marketConsumption{
					orderId:     resting.OrderId,
					baseReduced: baseTaken,
					fill: &domain.Fill{
						PairId:       ob.PairId,
						MakerOrderId: resting.OrderId,
						MakerSide:    resting.Side,
						BaseAmount:   baseTaken,
						QuoteAmount:  quoteSpent,
						Price:        p,
					},
				})
			} else {
				// Taker spends base (remainingIn), receives quote.
				baseTaken := minAmount(remainingIn, resting.RemainingAmount)
				quoteReceived, err := p.QuoteForSeller(baseTaken)
				if err != nil {
					stop = true
					return false
				}
				if quoteReceived.Sign() == 0 {
					// Dust: forfeit the resting order entirely, no transfer.
					plan = append(plan, marketConsumption{
						orderId:     resting.OrderId,
						baseReduced: new(big.Int).Set(resting.RemainingAmount),
						fill:        nil,
					})
					continue
				}
				remainingIn = new(big.Int).Sub(remainingIn, baseTaken)
				totalOut = new(big.Int).Add(totalOut, quoteReceived)
				plan = append(plan, marketConsumption{
					orderId:     resting.OrderId,
					baseReduced: baseTaken,
					fill: &domain.Fill{
						PairId:       ob.PairId,
						MakerOrderId: resting.OrderId,
						MakerSide:    resting.Side,
						BaseAmount:   baseTaken,
						QuoteAmount:  quoteReceived,
						Price:        p,
					},
				})
			}
		}
		return !stop
	})

	matched = false
	for _, c := range plan {
		if c.fill != nil {
			matched = true
			break
		}
	}
	return totalOut, plan, matched, nil
}

// Quote implements the read-only half of spec.md §4.4 get_quote: it reports
// the output a market order of this size would achieve, without touching
// book state. trader applies the same self-trade skip policy PlaceMarket
// would use for that trader; pass the zero address for an identity-agnostic
// quote (get_quote has no specific taker).
func (ob *OrderBook) Quote(side domain.Side, trader domain.Trader, amountIn *num.Amount) (*num.Amount, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	totalOut, _, matched, err := ob.simulateMarket(trader, side, amountIn)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrInsufficientLiquidity
	}
	return totalOut, nil
}

// PlaceMarket implements spec.md §4.3 place_market. It simulates the entire
// sweep against the opposing book without mutating it, and only commits the
// planned consumptions if the resulting total_out satisfies min_amount_out
// — giving the "simulate first, then commit" rollback semantics spec.md §7
// recommends, without needing a snapshot/restore step.
func (ob *OrderBook) PlaceMarket(trader domain.Trader, side domain.Side, amountIn, minAmountOut *num.Amount) (*num.Amount, []domain.Fill, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	totalOut, plan, matched, err := ob.simulateMarket(trader, side, amountIn)
	if err != nil {
		return nil, nil, err
	}
	if !matched {
		return nil, nil, ErrInsufficientLiquidity
	}
	if totalOut.Cmp(minAmountOut) < 0 {
		return nil, nil, ErrSlippageExceeded
	}

	// Market orders are ephemeral — never a resting book entity — but the
	// OrderFilled event contract (spec.md §6) still needs a taker reference
	// distinct from each fill's maker. Derive one the same deterministic way
	// resting order ids are derived, consuming a seq number, without ever
	// inserting it into ordersByID.
	seq := ob.nextSeq
	ob.nextSeq++
	takerOrderId := domain.DeriveOrderId(ob.PairId, trader, seq)

	fills := make([]domain.Fill, 0, len(plan))
	for _, c := range plan {
		loc, ok := ob.ordersByID[c.orderId]
		if !ok || loc.level == nil {
			continue // already consumed by an earlier plan entry referencing the same order
		}
		resting := loc.order
		level := loc.level
		resting.RemainingAmount = new(big.Int).Sub(resting.RemainingAmount, c.baseReduced)
		if resting.RemainingAmount.Sign() < 0 {
			resting.RemainingAmount = num.Zero()
		}
		if c.fill != nil {
			ob.recordTrade(c.fill.BaseAmount, c.fill.Price)
			f := *c.fill
			f.TakerOrderId = takerOrderId
			fills = append(fills, f)
		} else {
			resting.Status = domain.Filled
		}
		if resting.RemainingAmount.Sign() == 0 {
			resting.Status = domain.Filled
			ob.removeFromLevel(loc)
			if level.Orders.Len() == 0 {
				ob.sideLevels(side.Opposite()).Delete(level)
			}
		} else {
			resting.Status = domain.PartiallyFilled
		}
	}

	return totalOut, fills, nil
}

// Cancel implements spec.md §4.3 cancel.
func (ob *OrderBook) Cancel(orderId domain.OrderId, caller domain.Trader) (*domain.Order, error) {
	loc, ok := ob.ordersByID[orderId]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order := loc.order
	if order.Trader != caller {
		return nil, ErrUnauthorized
	}
	if order.Status.IsTerminal() {
		return nil, ErrOrderTerminal
	}

	level := loc.level
	order.Status = domain.Cancelled
	ob.removeFromLevel(loc)
	if level.Orders.Len() == 0 {
		ob.sideLevels(loc.side).Delete(level)
	}
	return order.Clone(), nil
}

// GetOrder returns a snapshot of an order by id, resting or terminal.
func (ob *OrderBook) GetOrder(orderId domain.OrderId) (*domain.Order, error) {
	loc, ok := ob.ordersByID[orderId]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return loc.order.Clone(), nil
}

// DepthLevel is one row of a depth snapshot.
type DepthLevel struct {
	Price           num.Price
	RemainingAmount *num.Amount
}

// Depth implements spec.md §4.3 depth: the first `levels` rows on each side.
func (ob *OrderBook) Depth(levelCount int) (bids, asks []DepthLevel) {
	bids = collectDepth(ob.bids, levelCount)
	asks = collectDepth(ob.asks, levelCount)
	return bids, asks
}

func collectDepth(tree *levels, levelCount int) []DepthLevel {
	var out []DepthLevel
	tree.Scan(func(lvl *PriceLevel) bool {
		if len(out) >= levelCount {
			return false
		}
		out = append(out, DepthLevel{Price: lvl.Price, RemainingAmount: lvl.TotalRemaining()})
		return true
	})
	return out
}

// BestBid returns the best resting bid price level, if any.
func (ob *OrderBook) BestBid() (num.Price, bool) {
	lvl, ok := ob.bids.Min()
	if !ok {
		return num.Price{}, false
	}
	return lvl.Price, true
}

// BestAsk returns the best resting ask price level, if any.
func (ob *OrderBook) BestAsk() (num.Price, bool) {
	lvl, ok := ob.asks.Min()
	if !ok {
		return num.Price{}, false
	}
	return lvl.Price, true
}

// Stats returns the book's cumulative volume, last trade price (if any),
// and the number of currently-open orders.
func (ob *OrderBook) Stats() (volume *num.Amount, lastPrice num.Price, hasLastPrice bool, openOrderCount uint64) {
	return new(big.Int).Set(ob.volumeBase), ob.lastPrice, ob.hasLastPrice, ob.openOrders
}

// OpenOrderCount reports the number of resting orders.
func (ob *OrderBook) OpenOrderCount() uint64 {
	return ob.openOrders
}
