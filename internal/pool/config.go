package pool

import "github.com/fenrir-labs/clob/internal/num"

// Config holds the global, host-supplied options recognized by Manager. See
// spec.md §4.4.
type Config struct {
	// FeeBps is the fee, in basis points, withheld from the output of every
	// execute_swap call. Never applied to resting limit orders.
	FeeBps uint64
	// MaxRoutingHops bounds how many pairs a routed swap may traverse.
	MaxRoutingHops int
	// MinOrderSize is the minimum base amount accepted by place_limit_order.
	MinOrderSize *num.Amount
	// AllowSelfTrade, when false, causes a taker to skip resting makers
	// sharing its trader identity instead of matching against itself.
	AllowSelfTrade bool
}

// Option configures a Manager at construction time.
type Option func(*Config)

// DefaultConfig returns the config spec.md §4.4 lists as defaults.
func DefaultConfig() Config {
	return Config{
		FeeBps:         30,
		MaxRoutingHops: 3,
		MinOrderSize:   num.FromUint64(1),
		AllowSelfTrade: false,
	}
}

// WithFeeBps overrides the swap output fee.
func WithFeeBps(bps uint64) Option {
	return func(c *Config) { c.FeeBps = bps }
}

// WithMaxRoutingHops overrides the router's hop ceiling.
func WithMaxRoutingHops(hops int) Option {
	return func(c *Config) { c.MaxRoutingHops = hops }
}

// WithMinOrderSize overrides the minimum accepted limit order size.
func WithMinOrderSize(size *num.Amount) Option {
	return func(c *Config) { c.MinOrderSize = size }
}

// WithAllowSelfTrade overrides the self-trade policy.
func WithAllowSelfTrade(allow bool) Option {
	return func(c *Config) { c.AllowSelfTrade = allow }
}
