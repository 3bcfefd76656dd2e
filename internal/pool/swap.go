package pool

import (
	"math/big"

	"github.com/fenrir-labs/clob/internal/book"
	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
	"github.com/fenrir-labs/clob/internal/router"
)

// sideForHop returns the OrderSide and resulting output token for spending
// tokenIn through pair, and an error if tokenIn is not one of the pair's two
// tokens (which should never happen for an edge the router itself produced).
func sideForHop(pair *domain.Pair, tokenIn domain.TokenId) (domain.Side, domain.TokenId, error) {
	switch tokenIn {
	case pair.QuoteToken:
		return domain.Buy, pair.BaseToken, nil
	case pair.BaseToken:
		return domain.Sell, pair.QuoteToken, nil
	default:
		return 0, domain.TokenId{}, ErrPairNotFound
	}
}

// edges returns the pool's pair graph in insertion order, satisfying
// spec.md §9's determinism requirement for any traversal over the pair
// directory.
func (m *Manager) edges() []router.Edge {
	out := make([]router.Edge, 0, len(m.pairOrder))
	for _, pairId := range m.pairOrder {
		p := m.pairs[pairId]
		out = append(out, router.Edge{PairId: pairId, Base: p.BaseToken, Quote: p.QuoteToken})
	}
	return out
}

// quoteHop adapts a single pair's read-only Quote to the router.QuoteFunc
// signature, binding the swap's actual trader so the simulated route
// respects that trader's own self-trade policy exactly as the real commit
// will.
func (m *Manager) quoteHop(trader domain.Trader, pairId domain.PairId, tokenIn domain.TokenId, amountIn *num.Amount) (*num.Amount, error) {
	pair, ok := m.pairs[pairId]
	if !ok {
		return nil, ErrPairNotFound
	}
	side, _, err := sideForHop(pair, tokenIn)
	if err != nil {
		return nil, err
	}
	return m.books[pairId].Quote(side, trader, amountIn)
}

// tokenHasPair reports whether token participates in any created pair.
func (m *Manager) tokenHasPair(token domain.TokenId) bool {
	for _, pairId := range m.pairOrder {
		p := m.pairs[pairId]
		if p.BaseToken == token || p.QuoteToken == token {
			return true
		}
	}
	return false
}

// resolveRoute finds the path from tIn to tOut — direct if a pair exists,
// otherwise via the router — and simulates it read-only, returning the
// raw (pre-fee) output. trader is threaded into every hop's quote so the
// simulation respects that trader's own self-trade policy; pass the zero
// address for an identity-agnostic quote (get_quote has no specific taker).
func (m *Manager) resolveRoute(trader domain.Trader, tIn, tOut domain.TokenId, amountIn *num.Amount) ([]domain.PairId, *num.Amount, error) {
	base, quote := domain.CanonicalizePair(tIn, tOut)
	directId := domain.DerivePairId(base, quote)
	if pair, ok := m.pairs[directId]; ok {
		side, _, err := sideForHop(pair, tIn)
		if err != nil {
			return nil, nil, err
		}
		out, err := m.books[directId].Quote(side, trader, amountIn)
		if err != nil {
			return nil, nil, err
		}
		return []domain.PairId{directId}, out, nil
	}

	if !m.tokenHasPair(tIn) || !m.tokenHasPair(tOut) {
		return nil, nil, ErrPairNotFound
	}

	quoteFn := func(pairId domain.PairId, tokenIn domain.TokenId, amountIn *num.Amount) (*num.Amount, error) {
		return m.quoteHop(trader, pairId, tokenIn, amountIn)
	}
	route, err := router.FindBestRoute(m.edges(), tIn, tOut, amountIn, m.cfg.MaxRoutingHops, quoteFn)
	if err != nil {
		return nil, nil, ErrNoRouteFound
	}
	return route.Pairs, route.AmountOut, nil
}

// applyFeeBps computes net_out = amount_out - floor(amount_out*fee_bps/10000)
// per spec.md §4.4.
func applyFeeBps(amountOut *num.Amount, feeBps uint64) (*num.Amount, error) {
	fee, err := num.MulDivFloor(amountOut, big.NewInt(int64(feeBps)), big.NewInt(10_000))
	if err != nil {
		return nil, err
	}
	return num.Sub(amountOut, fee)
}

// GetQuote implements spec.md §4.4 get_quote: a read-only simulation that
// must agree exactly with ExecuteSwap's output for the same state.
func (m *Manager) GetQuote(tIn, tOut domain.TokenId, amountIn *num.Amount) (*num.Amount, []domain.PairId, error) {
	route, rawOut, err := m.resolveRoute(domain.Trader{}, tIn, tOut, amountIn)
	if err != nil {
		return nil, nil, err
	}
	netOut, err := applyFeeBps(rawOut, m.cfg.FeeBps)
	if err != nil {
		return nil, nil, err
	}
	return netOut, route, nil
}

// ExecuteSwap implements spec.md §4.4 execute_swap. It simulates the whole
// route (direct or multi-hop) before committing any hop, using the real
// trader's own self-trade policy so the simulation and the commit agree on
// which resting orders are even visible to this taker. Every book touched
// by the route is snapshotted before the first hop commits; if any hop
// fails anyway, or the actually-realized output falls short of
// minAmountOut once fees are applied, every snapshotted book is restored
// and no partial fills are left committed, per spec.md §7. The returned
// amountOut is always derived from what the commit loop actually moved,
// not from the pre-commit simulation.
func (m *Manager) ExecuteSwap(trader domain.Trader, tIn, tOut domain.TokenId, amountIn, minAmountOut *num.Amount) (*num.Amount, []domain.PairId, []domain.Fill, []domain.Event, error) {
	route, rawOut, err := m.resolveRoute(trader, tIn, tOut, amountIn)
	if err != nil {
		if m.met != nil {
			m.met.SwapsReverted.Inc()
		}
		return nil, nil, nil, nil, err
	}
	netOut, err := applyFeeBps(rawOut, m.cfg.FeeBps)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if netOut.Cmp(minAmountOut) < 0 {
		if m.met != nil {
			m.met.SwapsReverted.Inc()
		}
		return nil, nil, nil, nil, book.ErrSlippageExceeded
	}

	snapshots := make(map[domain.PairId]*book.OrderBook, len(route))
	for _, pairId := range route {
		if _, ok := snapshots[pairId]; !ok {
			snapshots[pairId] = m.books[pairId].Clone()
		}
	}
	rollback := func() {
		for pairId, snap := range snapshots {
			m.books[pairId] = snap
		}
	}

	var allFills []domain.Fill
	currentIn := amountIn
	currentToken := tIn
	for _, pairId := range route {
		pair := m.pairs[pairId]
		ob := m.books[pairId]
		side, nextToken, hopErr := sideForHop(pair, currentToken)
		if hopErr != nil {
			rollback()
			return nil, nil, nil, nil, hopErr
		}
		hopOut, hopFills, hopErr := ob.PlaceMarket(trader, side, currentIn, num.Zero())
		if hopErr != nil {
			rollback()
			if m.met != nil {
				m.met.SwapsReverted.Inc()
			}
			return nil, nil, nil, nil, hopErr
		}
		allFills = append(allFills, hopFills...)
		currentIn = hopOut
		currentToken = nextToken
	}

	realizedOut, err := applyFeeBps(currentIn, m.cfg.FeeBps)
	if err != nil {
		rollback()
		return nil, nil, nil, nil, err
	}
	if realizedOut.Cmp(minAmountOut) < 0 {
		rollback()
		if m.met != nil {
			m.met.SwapsReverted.Inc()
		}
		return nil, nil, nil, nil, book.ErrSlippageExceeded
	}

	if m.met != nil {
		m.met.SwapsExecuted.Inc()
		m.met.FillsMatched.Add(float64(len(allFills)))
		m.met.RouteHops.Observe(float64(len(route)))
	}
	m.log.Info().Stringer("trader", trader).Int("hops", len(route)).Msg("swap executed")

	events := []domain.Event{
		{
			Kind: domain.EventSwap,
			Swap: &domain.SwapEvent{
				Trader:    trader,
				TokenIn:   tIn,
				TokenOut:  tOut,
				AmountIn:  amountIn,
				AmountOut: realizedOut,
				Route:     route,
			},
		},
	}
	for _, f := range allFills {
		events = append(events, f.AsEvent())
	}

	return realizedOut, route, allFills, events, nil
}
