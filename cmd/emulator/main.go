// Command emulator runs the order emulator as a standalone process: it
// loads configuration, wires the cache/bus/market-data/clock
// collaborators, constructs the Emulator, starts the admin HTTP surface,
// and drains the message bus on a single goroutine until a shutdown
// signal arrives — the cooperative, lock-free concurrency model the
// matching core and emulator are built around.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pi5trading/order-emulator/internal/api"
	"github.com/pi5trading/order-emulator/internal/audit"
	"github.com/pi5trading/order-emulator/internal/bus"
	"github.com/pi5trading/order-emulator/internal/cache"
	"github.com/pi5trading/order-emulator/internal/circuitbreaker"
	"github.com/pi5trading/order-emulator/internal/clock"
	"github.com/pi5trading/order-emulator/internal/config"
	"github.com/pi5trading/order-emulator/internal/core/contingency"
	"github.com/pi5trading/order-emulator/internal/core/emulator"
	"github.com/pi5trading/order-emulator/internal/domain"
	"github.com/pi5trading/order-emulator/internal/marketdata"
	"github.com/pi5trading/order-emulator/internal/metrics"
)

func main() {
	cfgPath := os.Getenv("EMULATOR_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}

	logger := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var orderCache cache.Cache
	var auditLog *audit.Logger
	var pool *pgxpool.Pool
	if cfg.Database.DSN != "" {
		pool, err = pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		cbManager := circuitbreaker.NewManager(logger)
		pgCache := cache.NewPostgres(pool, cbManager, logger)
		if err := pgCache.InitSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to init cache schema")
		}
		orderCache = pgCache

		auditLog = audit.NewLogger(pool, logger)
		if err := auditLog.InitSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to init audit schema")
		}
	} else {
		logger.Warn().Msg("no database DSN configured, running with an in-memory cache (state will not survive a restart)")
		orderCache = cache.NewMemory()
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	msgBus := bus.New(cfg.Bus.SubscriberBufferSize, logger)
	msgBus.OnDrop(func(topic string) {
		m.BusMessagesDroppedTotal.WithLabelValues(topic).Inc()
	})
	egress := bus.NewEgress(msgBus)
	clk := clock.NewReal()

	var feed marketdata.Feed
	if cfg.MarketData.URL != "" {
		feed = marketdata.NewWSFeed(cfg.MarketData.URL, 2, logger)
	}

	em := emulator.New(orderCache, feed, egress, clk, m, logger)
	co := contingency.New(orderCache, em, logger)
	em.AttachContingency(co)

	var pinger interface{ Ping() error }
	if pg, ok := orderCache.(*cache.Postgres); ok {
		pinger = pg
	} else if mem, ok := orderCache.(*cache.Memory); ok {
		pinger = mem
	}

	server := api.NewServer(&cfg.Server, &cfg.Auth, pinger, em, auditLog, m, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("admin HTTP server stopped")
		}
	}()

	if feed != nil {
		go func() {
			if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("market data feed stopped")
			}
		}()
	}

	if auditLog != nil {
		runAuditSubscriber(ctx, auditLog, msgBus)
	}

	em.Reactivate()
	logger.Info().Msg("order emulator started")

	runLoop(ctx, em, msgBus, feed, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin server shutdown error")
	}
	if feed != nil {
		feed.Close()
	}
	msgBus.Close()
}

// runLoop spawns the single goroutine that drains the emulator's command
// and market-data inputs. The emulator itself is never called from two
// goroutines concurrently: this loop is its sole caller.
func runLoop(ctx context.Context, em *emulator.Emulator, b *bus.Bus, feed marketdata.Feed, logger zerolog.Logger) {
	cmdCh := b.Subscribe(bus.EndpointOrderEmulatorExecute)

	var quoteCh <-chan domain.QuoteTick
	var tradeCh <-chan domain.TradeTick
	if feed != nil {
		quoteCh = feed.QuoteTicks()
		tradeCh = feed.TradeTicks()
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-cmdCh:
				cmd, ok := msg.Payload.(*domain.TradingCommand)
				if !ok {
					logger.Warn().Str("topic", msg.Topic).Msg("main: unexpected payload on execute topic")
					continue
				}
				em.Execute(cmd)
			case tick := <-quoteCh:
				em.OnQuoteTick(tick)
			case tick := <-tradeCh:
				em.OnTradeTick(tick)
			}
		}
	}()
}

// runAuditSubscriber drains the fixed audit fan-out topic onto the
// Postgres-backed log, independent of the per-strategy bus subscribers.
// It is itself a bus subscriber, so it misses any event dropped while its
// buffer is full.
func runAuditSubscriber(ctx context.Context, auditLog *audit.Logger, b *bus.Bus) {
	ch := b.Subscribe(bus.EndpointAudit)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-ch:
				evt, ok := msg.Payload.(domain.Event)
				if !ok {
					continue
				}
				auditLog.Log(ctx, &audit.Event{
					EventType:     audit.EventType(evt.Type()),
					Timestamp:     evt.Timestamp(),
					ClientOrderID: evt.OrderID(),
				})
			}
		}
	}()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}
