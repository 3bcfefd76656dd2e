// Package pool implements the multi-pair PoolManager: pair creation,
// order routing to the correct book, fee application on swaps, and
// dispatch to the router for multi-hop swaps when no direct pair exists.
// See spec.md §4.4.
package pool

import (
	"github.com/rs/zerolog"

	"github.com/fenrir-labs/clob/internal/book"
	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/metrics"
	"github.com/fenrir-labs/clob/internal/num"
	"github.com/fenrir-labs/clob/internal/router"
)

// Manager owns every pair's book, the global config, and the OrderId ->
// PairId index used to route cancellations without the caller knowing
// which pair an order belongs to.
type Manager struct {
	cfg Config
	log zerolog.Logger
	met *metrics.Metrics

	pairs        map[domain.PairId]*domain.Pair
	books        map[domain.PairId]*book.OrderBook
	pairOrder    []domain.PairId // insertion order, for deterministic graph traversal
	orderIndex   map[domain.OrderId]domain.PairId
	traderOrders map[domain.Trader][]domain.OrderId // insertion order, per spec.md §9
}

// New constructs an empty Manager. log and met may be zero-valued
// (zerolog.Nop() logger, nil metrics) for tests.
func New(cfg Config, log zerolog.Logger, met *metrics.Metrics) *Manager {
	return &Manager{
		cfg:          cfg,
		log:          log.With().Str("component", "pool").Logger(),
		met:          met,
		pairs:        make(map[domain.PairId]*domain.Pair),
		books:        make(map[domain.PairId]*book.OrderBook),
		orderIndex:   make(map[domain.OrderId]domain.PairId),
		traderOrders: make(map[domain.Trader][]domain.OrderId),
	}
}

// CreatePair implements spec.md §4.4 create_pair / §4.2.
func (m *Manager) CreatePair(t0, t1 domain.TokenId) (domain.PairId, []domain.Event, error) {
	base, quote := domain.CanonicalizePair(t0, t1)
	if base == quote {
		return domain.PairId{}, nil, ErrInvalidPair
	}
	pairId := domain.DerivePairId(base, quote)
	if _, exists := m.pairs[pairId]; exists {
		return domain.PairId{}, nil, ErrPairExists
	}

	m.pairs[pairId] = &domain.Pair{
		PairId:     pairId,
		BaseToken:  base,
		QuoteToken: quote,
		Stats:      domain.PairStats{VolumeBase: num.Zero()},
	}
	m.books[pairId] = book.New(pairId, m.cfg.MinOrderSize, m.cfg.AllowSelfTrade)
	m.pairOrder = append(m.pairOrder, pairId)

	if m.met != nil {
		m.met.PairsCreated.Inc()
	}
	m.log.Info().Stringer("pair_id", pairId).Stringer("base", base).Stringer("quote", quote).Msg("pair created")

	event := domain.Event{
		Kind: domain.EventPairCreated,
		PairCreated: &domain.PairCreatedEvent{
			BaseToken:  base,
			QuoteToken: quote,
			PairId:     pairId,
		},
	}
	return pairId, []domain.Event{event}, nil
}

// resolvePair finds the pair for an unordered token pair (t0,t1).
func (m *Manager) resolvePair(t0, t1 domain.TokenId) (*domain.Pair, *book.OrderBook, error) {
	base, quote := domain.CanonicalizePair(t0, t1)
	pairId := domain.DerivePairId(base, quote)
	pair, ok := m.pairs[pairId]
	if !ok {
		return nil, nil, ErrPairNotFound
	}
	return pair, m.books[pairId], nil
}

// PlaceLimitOrder implements spec.md §4.4 place_limit_order. side follows
// OrderSide's own definition (Buy acquires base by paying quote) relative
// to the pair's canonical base/quote assignment, independent of which of
// t_in/t_out happens to be lexicographically smaller.
func (m *Manager) PlaceLimitOrder(trader domain.Trader, tIn, tOut domain.TokenId, side domain.Side, amount *num.Amount, price num.Price) (domain.OrderId, []domain.Fill, domain.OrderStatus, []domain.Event, error) {
	pair, ob, err := m.resolvePair(tIn, tOut)
	if err != nil {
		return domain.OrderId{}, nil, 0, nil, err
	}

	orderId, fills, status, err := ob.PlaceLimit(trader, side, price, amount)
	if err != nil {
		return domain.OrderId{}, nil, 0, nil, err
	}

	m.orderIndex[orderId] = pair.PairId
	m.traderOrders[trader] = append(m.traderOrders[trader], orderId)
	m.applyFillStats(pair, fills)

	events := make([]domain.Event, 0, len(fills)+1)
	events = append(events, domain.Event{
		Kind: domain.EventLimitOrderPlaced,
		LimitOrderPlaced: &domain.LimitOrderPlacedEvent{
			OrderId: orderId,
			Trader:  trader,
			PairId:  pair.PairId,
			Side:    side,
			Amount:  amount,
			Price:   price,
		},
	})
	for _, f := range fills {
		events = append(events, f.AsEvent())
	}

	if m.met != nil {
		m.met.OrdersPlaced.Inc()
		m.met.FillsMatched.Add(float64(len(fills)))
	}
	m.log.Debug().Stringer("order_id", orderId).Int("fills", len(fills)).Stringer("status", status).Msg("limit order placed")

	return orderId, fills, status, events, nil
}

// CancelOrder implements spec.md §4.4 cancel_order, using the manager-level
// OrderId -> PairId index to route the cancel to the owning book.
func (m *Manager) CancelOrder(orderId domain.OrderId, caller domain.Trader) (*domain.Order, []domain.Event, error) {
	pairId, ok := m.orderIndex[orderId]
	if !ok {
		return nil, nil, book.ErrOrderNotFound
	}
	ob := m.books[pairId]
	order, err := ob.Cancel(orderId, caller)
	if err != nil {
		return nil, nil, err
	}

	if m.met != nil {
		m.met.OrdersCancelled.Inc()
	}
	m.log.Debug().Stringer("order_id", orderId).Msg("order cancelled")

	event := domain.Event{
		Kind:           domain.EventOrderCancelled,
		OrderCancelled: &domain.OrderCancelledEvent{OrderId: orderId, Trader: caller},
	}
	return order, []domain.Event{event}, nil
}

// GetOrder implements spec.md §4.4 get_order, routed via the global index.
func (m *Manager) GetOrder(orderId domain.OrderId) (*domain.Order, error) {
	pairId, ok := m.orderIndex[orderId]
	if !ok {
		return nil, book.ErrOrderNotFound
	}
	return m.books[pairId].GetOrder(orderId)
}

// GetUserOrders implements spec.md §4.4 get_user_orders. traderOrders records
// each trader's order ids in placement (insertion) order as they are
// created, rather than being derived by iterating a Go map at query time —
// map iteration order is randomized per process, which spec.md §9's
// determinism surface explicitly forbids for any result an independent
// implementation must reproduce.
func (m *Manager) GetUserOrders(trader domain.Trader) []domain.OrderId {
	ids := m.traderOrders[trader]
	if len(ids) == 0 {
		return nil
	}
	result := make([]domain.OrderId, len(ids))
	copy(result, ids)
	return result
}

// GetOrderbookDepth implements spec.md §4.4 get_orderbook_depth.
func (m *Manager) GetOrderbookDepth(t0, t1 domain.TokenId, levels int) ([]book.DepthLevel, []book.DepthLevel, error) {
	_, ob, err := m.resolvePair(t0, t1)
	if err != nil {
		return nil, nil, err
	}
	bids, asks := ob.Depth(levels)
	return bids, asks, nil
}

// PairStatsResult is the return value of GetPairStats.
type PairStatsResult struct {
	VolumeBase     *num.Amount
	LastPrice      num.Price
	HasLastPrice   bool
	OpenOrderCount uint64
}

// GetPairStats implements spec.md §4.4 get_pair_stats.
func (m *Manager) GetPairStats(t0, t1 domain.TokenId) (PairStatsResult, error) {
	_, ob, err := m.resolvePair(t0, t1)
	if err != nil {
		return PairStatsResult{}, err
	}
	volume, lastPrice, hasLastPrice, openOrderCount := ob.Stats()
	return PairStatsResult{
		VolumeBase:     volume,
		LastPrice:      lastPrice,
		HasLastPrice:   hasLastPrice,
		OpenOrderCount: openOrderCount,
	}, nil
}

func (m *Manager) applyFillStats(pair *domain.Pair, fills []domain.Fill) {
	for _, f := range fills {
		pair.Stats.VolumeBase = new(num.Amount).Add(pair.Stats.VolumeBase, f.BaseAmount)
		pair.Stats.LastPrice = f.Price
		pair.Stats.HasLastPrice = true
	}
}
