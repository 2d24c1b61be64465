package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cosmicpe/auctionhouse-backend/api/routes"
	"github.com/cosmicpe/auctionhouse-backend/internal/auctionhouse"
	"github.com/cosmicpe/auctionhouse-backend/internal/bin"
	"github.com/cosmicpe/auctionhouse-backend/internal/economy"
	"github.com/cosmicpe/auctionhouse-backend/internal/items"
	"github.com/cosmicpe/auctionhouse-backend/internal/ledger"
	"github.com/cosmicpe/auctionhouse-backend/internal/listings"
	"github.com/cosmicpe/auctionhouse-backend/internal/players"
	"github.com/cosmicpe/auctionhouse-backend/pkg/config"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db"
	"github.com/cosmicpe/auctionhouse-backend/pkg/env"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
	"github.com/cosmicpe/auctionhouse-backend/pkg/metrics"
	"github.com/cosmicpe/auctionhouse-backend/pkg/migrate"
	"github.com/cosmicpe/auctionhouse-backend/pkg/outbox"
	"github.com/cosmicpe/auctionhouse-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis only backs the idempotency middleware; the marketplace itself
	// runs without it, so a missing address downgrades rather than aborts.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, request idempotency disabled")
	}

	gormDB := dbClient.DB()
	houseService, err := auctionhouse.NewService(auctionhouse.ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Listings: listings.NewRepository(gormDB),
		Items:    items.NewRepository(gormDB),
		Bin:      bin.NewRepository(gormDB),
		Sales:    ledger.NewRepository(gormDB),
		Players:  players.NewRepository(gormDB),
		Economy:  economy.NewNullEconomy(),
		Outbox:   outbox.NewService(outbox.NewRepository(gormDB), logg),
		Policies: auctionhouse.PoliciesFromConfig(cfg.Auction),
		Auction:  cfg.Auction,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auction house service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	sweeper, err := auctionhouse.NewSweeper(auctionhouse.SweeperParams{
		Logger:  logg,
		House:   houseService,
		Metrics: metrics.NewSweepMetrics(registry),
		Sweep:   cfg.Sweep,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweeper", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
			logg.Error(ctx, "sweeper stopped unexpectedly", err)
			stop()
		}
	}()

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, houseService, registry),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown error", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
