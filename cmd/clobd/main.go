// Command clobd hosts the order book engine behind a TCP front end,
// wiring together config loading, structured logging, the pool manager,
// the Prometheus metrics endpoint, and the command server — the
// composition root the retrieval pack's own cmd/main.go plays for its
// in-process engine, extended with the config/metrics/logging setup a
// standalone daemon needs.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fenrir-labs/clob/internal/config"
	"github.com/fenrir-labs/clob/internal/metrics"
	"github.com/fenrir-labs/clob/internal/pool"
	"github.com/fenrir-labs/clob/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/clobd.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zerolog.New(os.Stderr).With().Timestamp().Logger().Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg.Logging)

	minOrderSize, err := cfg.Engine.MinOrderSizeAmount()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid engine config")
	}

	met := metrics.New()
	engineCfg := pool.Config{
		FeeBps:         cfg.Engine.FeeBps,
		MaxRoutingHops: cfg.Engine.MaxRoutingHops,
		MinOrderSize:   minOrderSize,
		AllowSelfTrade: cfg.Engine.AllowSelfTrade,
	}
	manager := pool.New(engineCfg, log, met)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics, met, log)
	}

	srv, err := server.New(cfg.Server.Address, cfg.Server.Port, manager, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind server")
	}

	log.Info().
		Str("address", cfg.Server.Address).
		Int("port", cfg.Server.Port).
		Msg("clobd starting")

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}
	<-ctx.Done()
	log.Info().Msg("clobd stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writer = os.Stdout
	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(writer).With().Timestamp().Logger()
}

func serveMetrics(ctx context.Context, cfg config.MetricsConfig, met *metrics.Metrics, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())

	httpSrv := &http.Server{
		Addr:    cfg.Address + ":" + strconv.Itoa(cfg.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("address", httpSrv.Addr).Msg("metrics endpoint listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server exited with error")
	}
}

