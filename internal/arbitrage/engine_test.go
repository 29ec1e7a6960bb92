package arbitrage

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carousel/internal/config"
	"carousel/internal/database"
	"carousel/internal/exchange"
	"carousel/internal/executor"
	"carousel/internal/ledger"
	"carousel/internal/rates"
)

func newTestEngine(store *rates.Store, client *exchange.PaperClient) (*Engine, *ledger.Ledger) {
	logger := testLogger()
	cfg := &config.Config{
		Arbitrage: config.ArbitrageConfig{
			BaseCurrency:     "usd",
			StartingBalance:  10000,
			TickIntervalMS:   20,
			FeePerLeg:        0.0022,
			MinLegProfitPct:  0.22,
			PositionFraction: 0.5,
		},
		Execution: config.ExecutionConfig{
			Trader:           "paper",
			MinOrderNotional: 0.0001,
			PollAttempts:     5,
			PollIntervalMS:   1,
		},
	}

	repo := database.NoopRepository{}
	finder := NewFinder(logger, 0.0022, 0.22)
	exec := executor.NewEngine(logger, client, testPairs, 0.0022, 0.0001, 5, time.Millisecond)
	led := ledger.New(logger, repo, client, store, testPairs, "usd", 10000, 5, time.Millisecond)
	return NewEngine(logger, cfg, store, finder, exec, led, testPairs), led
}

func TestEngine_EmptyRateStore(t *testing.T) {
	logger := testLogger()
	store := rates.NewStore()
	client := exchange.NewPaperClient(logger, store, testPairs, 0.0022, 0, map[string]float64{"usd": 10000})
	engine, led := newTestEngine(store, client)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	require.NoError(t, engine.Run(ctx))

	assert.Empty(t, led.Trades())
	assert.Equal(t, 10000.0, led.Balance())
}

func TestEngine_EndToEnd(t *testing.T) {
	logger := testLogger()
	store := rates.NewStore()
	for pair, price := range mispricedSnapshot() {
		store.Set(pair, price)
	}
	client := exchange.NewPaperClient(logger, store, testPairs, 0.0022, 0, map[string]float64{"usd": 10000})
	engine, led := newTestEngine(store, client)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	require.NoError(t, engine.Run(ctx))

	require.NotEmpty(t, led.Trades())

	first := led.Trades()[0]
	assert.Equal(t, "usd>btc>eth>usd", first.Path)
	assert.Len(t, first.OrderIDs, 3, "one order per leg, in path order")
	assert.Positive(t, first.Profit)
	assert.InDelta(t, first.BalanceBefore+first.Profit, first.BalanceAfter, 1e-9)

	// half the starting balance run through a 2% loop at 0.22% fee per leg
	wantProfit := 5000 * (1.02*math.Pow(1-0.0022, 3) - 1)
	assert.InDelta(t, wantProfit, first.Profit, 1e-6)

	total := 0.0
	for _, trade := range led.Trades() {
		total += trade.Profit
	}
	assert.InDelta(t, 10000+total, led.Balance(), 1e-6)
	assert.NotEmpty(t, led.History(), "balance sampled every tick")
}
