// Package metrics wires the engine's operation counters into a Prometheus
// registry and HTTP handler, following the registry/handler split used by
// abdoElHodaky-tradSys's own metrics module (there built on uber/fx and
// uber/zap; here on a plain constructor since this engine has no DI
// container and logs via zerolog, not zap).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter the pool manager updates.
type Metrics struct {
	registry *prometheus.Registry

	PairsCreated    prometheus.Counter
	OrdersPlaced    prometheus.Counter
	OrdersCancelled prometheus.Counter
	FillsMatched    prometheus.Counter
	SwapsExecuted   prometheus.Counter
	SwapsReverted   prometheus.Counter
	RouteHops       prometheus.Histogram
}

// New constructs a Metrics bound to a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		PairsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_pairs_created_total",
			Help: "Pairs created since process start.",
		}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_orders_placed_total",
			Help: "Limit orders placed, regardless of resulting status.",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_orders_cancelled_total",
			Help: "Orders successfully cancelled.",
		}),
		FillsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_fills_total",
			Help: "Maker/taker fills recorded across all books.",
		}),
		SwapsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_swaps_executed_total",
			Help: "execute_swap calls that committed successfully.",
		}),
		SwapsReverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_swaps_reverted_total",
			Help: "execute_swap calls that reverted (slippage, no route, or insufficient liquidity).",
		}),
		RouteHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clob_route_hops",
			Help:    "Number of pairs traversed by a committed swap's route.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
	}
	registry.MustRegister(
		m.PairsCreated,
		m.OrdersPlaced,
		m.OrdersCancelled,
		m.FillsMatched,
		m.SwapsExecuted,
		m.SwapsReverted,
		m.RouteHops,
	)
	return m
}

// Handler returns the HTTP handler the host should mount for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
