package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carousel/internal/model"
)

func TestTradingPairs(t *testing.T) {
	cfg := Config{
		Arbitrage: ArbitrageConfig{
			Pairs: []string{"BTC/USD", "eth-usd", "eth_btc"},
		},
	}

	pairs, err := cfg.TradingPairs()
	require.NoError(t, err)
	assert.Equal(t, []model.Pair{
		{Base: "btc", Quote: "usd"},
		{Base: "eth", Quote: "usd"},
		{Base: "eth", Quote: "btc"},
	}, pairs)
}

func TestTradingPairs_RejectsDuplicates(t *testing.T) {
	cfg := Config{
		Arbitrage: ArbitrageConfig{
			Pairs: []string{"btc/usd", "BTC-USD"},
		},
	}

	_, err := cfg.TradingPairs()
	assert.ErrorContains(t, err, "duplicate pair")
}

func TestTradingPairs_RejectsMalformed(t *testing.T) {
	cfg := Config{
		Arbitrage: ArbitrageConfig{
			Pairs: []string{"btcusd"},
		},
	}

	_, err := cfg.TradingPairs()
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	cfg := Config{
		Arbitrage: ArbitrageConfig{RunDurationSec: 3600, TickIntervalMS: 250},
		Execution: ExecutionConfig{PollIntervalMS: 100, FillDelayMS: 200},
	}

	assert.Equal(t, time.Hour, cfg.RunDuration())
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 200*time.Millisecond, cfg.FillDelay())

	// zero values fall back to safe defaults
	var zero Config
	assert.Equal(t, 5*time.Second, zero.TickInterval())
	assert.Equal(t, 500*time.Millisecond, zero.PollInterval())
	assert.Zero(t, zero.RunDuration())
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "carousel"}
	assert.Equal(t, "postgres://u:p@localhost:5432/carousel", d.DSN())
}

func TestBase(t *testing.T) {
	cfg := Config{Arbitrage: ArbitrageConfig{BaseCurrency: " USD "}}
	assert.Equal(t, "usd", cfg.Base())
}
