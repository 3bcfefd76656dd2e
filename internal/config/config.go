// Package config loads the clobd process's host configuration from a YAML
// file with environment-variable overrides, in the same viper-based shape
// the retrieval pack's market-making bot uses for its own config package.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fenrir-labs/clob/internal/num"
)

// Config is the top-level clobd configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig controls the TCP front end.
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// EngineConfig maps directly onto pool.Config; kept distinct so the wire
// format (basis points as an integer, min order size as a decimal string)
// stays decoupled from the engine's own *num.Amount-typed Config.
type EngineConfig struct {
	FeeBps         uint64 `mapstructure:"fee_bps"`
	MaxRoutingHops int    `mapstructure:"max_routing_hops"`
	MinOrderSize   string `mapstructure:"min_order_size"`
	AllowSelfTrade bool   `mapstructure:"allow_self_trade"`
}

// LoggingConfig controls the zerolog global logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// Load reads config from a YAML file, overridable via CLOB_*
// environment variables (e.g. CLOB_SERVER_PORT, CLOB_ENGINE_FEE_BPS).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CLOB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 9001)
	v.SetDefault("engine.fee_bps", 30)
	v.SetDefault("engine.max_routing_hops", 3)
	v.SetDefault("engine.min_order_size", "1")
	v.SetDefault("engine.allow_self_trade", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", "0.0.0.0")
	v.SetDefault("metrics.port", 9090)
}

// MinOrderSizeAmount parses EngineConfig.MinOrderSize as a base-10 integer
// amount. It fails closed (returns an error) rather than silently defaulting,
// since an unparsed min order size would otherwise accept every order.
func (e EngineConfig) MinOrderSizeAmount() (*num.Amount, error) {
	amount, ok := new(num.Amount).SetString(e.MinOrderSize, 10)
	if !ok {
		return nil, fmt.Errorf("config: engine.min_order_size %q is not a valid base-10 integer", e.MinOrderSize)
	}
	if err := num.CheckFits(amount); err != nil {
		return nil, fmt.Errorf("config: engine.min_order_size: %w", err)
	}
	return amount, nil
}
