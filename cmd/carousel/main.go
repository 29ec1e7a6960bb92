package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"carousel/internal/arbitrage"
	"carousel/internal/config"
	"carousel/internal/database"
	"carousel/internal/exchange"
	"carousel/internal/executor"
	"carousel/internal/ledger"
	"carousel/internal/metrics"
	"carousel/internal/model"
	"carousel/internal/rates"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	pairs, err := cfg.TradingPairs()
	if err != nil {
		log.Fatalf("invalid pair whitelist: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo database.Repository = database.NoopRepository{}
	if cfg.Database.Host != "" {
		pg, err := database.NewPostgresRepository(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("cannot connect to database: %v", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("cannot migrate database: %v", err)
		}
		repo = pg
	}

	store := rates.NewStore()

	streamer, err := exchange.NewStreamer(cfg.Feed.Source, logger, &cfg.Feed)
	if err != nil {
		log.Fatalf("cannot create feed: %v", err)
	}
	ticks := make(chan model.PriceTick, 256)
	go func() {
		if err := streamer.StartStream(ctx, ticks, pairs); err != nil {
			logger.Error("Feed stream terminated", "error", err)
		}
	}()
	// The pump is the store's single writer; everything else only reads.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticks:
				store.Set(tick.Pair, tick.Price)
			}
		}
	}()

	client, err := exchange.NewTradeClient(cfg.Execution.Trader, logger, &cfg, store, pairs)
	if err != nil {
		log.Fatalf("cannot create trade client: %v", err)
	}

	metrics.Serve(ctx, cfg.Metrics.Addr, logger)

	finder := arbitrage.NewFinder(logger, cfg.Arbitrage.FeePerLeg, cfg.Arbitrage.MinLegProfitPct)
	exec := executor.NewEngine(logger, client, pairs,
		cfg.Arbitrage.FeePerLeg,
		cfg.Execution.MinOrderNotional,
		cfg.Execution.PollAttempts,
		cfg.PollInterval(),
	)
	led := ledger.New(logger, repo, client, store, pairs, cfg.Base(),
		cfg.Arbitrage.StartingBalance,
		cfg.Execution.PollAttempts,
		cfg.PollInterval(),
	)

	engine := arbitrage.NewEngine(logger, &cfg, store, finder, exec, led, pairs)
	if err := engine.Run(ctx); err != nil {
		logger.Error("Engine stopped with error", "error", err)
		os.Exit(1)
	}
}
