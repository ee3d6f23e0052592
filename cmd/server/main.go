package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simply-Ryan/stockleague/internal/broadcast"
	"github.com/Simply-Ryan/stockleague/internal/config"
	"github.com/Simply-Ryan/stockleague/internal/db"
	"github.com/Simply-Ryan/stockleague/internal/league"
	"github.com/Simply-Ryan/stockleague/internal/quote"
	"github.com/Simply-Ryan/stockleague/internal/server"
	"github.com/Simply-Ryan/stockleague/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Setup logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.Duration("tickInterval", cfg.Broadcast.TickInterval),
		zap.Bool("marketHoursOnly", cfg.Broadcast.MarketHoursOnly),
		zap.Bool("simulatedQuotes", cfg.Quote.Simulate),
		zap.Bool("quoteCache", cfg.Redis.Addr != ""),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Quote source: upstream or simulator, optionally behind Redis.
	var quotes quote.Source
	if cfg.Quote.Simulate {
		quotes = quote.NewSimulator(cfg.Quote.SimSeed)
	} else {
		quotes = quote.NewHTTPClient(cfg.Quote.BaseURL, cfg.Quote.APIKey, cfg.Quote.RatePerSecond, cfg.Quote.Timeout, logger)
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect redis", zap.Error(err))
			return 1
		}
		defer rdb.Close()
		quotes = quote.NewCache(rdb, quotes, cfg.Quote.CacheTTL, logger)
	}

	// League store
	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		return 1
	}
	defer pool.Close()
	leagues := league.NewStore(pool, quotes, logger)

	// Realtime core
	hub := ws.NewHub(logger)
	gateway := ws.NewGateway(hub, leagues, cfg.Broadcast.FetchTimeout, logger)

	scheduler := broadcast.NewScheduler(broadcast.Config{
		Interval:        cfg.Broadcast.TickInterval,
		FetchTimeout:    cfg.Broadcast.FetchTimeout,
		MarketHoursOnly: cfg.Broadcast.MarketHoursOnly,
		Timezone:        cfg.Broadcast.Timezone,
	}, hub, quotes, leagues, logger)

	emitter := broadcast.NewEmitter(hub, scheduler, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.NewRouter(gateway, emitter, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		hub.Shutdown()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
