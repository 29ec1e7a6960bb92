package exchange

import (
	"fmt"
	"log/slog"

	"carousel/internal/config"
	"carousel/internal/model"
	"carousel/internal/rates"
)

// NewStreamer creates a price streamer based on the configured source name.
func NewStreamer(name string, logger *slog.Logger, cfg *config.FeedConfig) (Streamer, error) {
	switch name {
	case "kraken":
		return NewKrakenStreamer(logger, cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown feed source: %s", name)
	}
}

// NewTradeClient creates a trading client based on the configured trader name.
func NewTradeClient(name string, logger *slog.Logger, cfg *config.Config, store *rates.Store, pairs []model.Pair) (TradeClient, error) {
	switch name {
	case "paper":
		holdings := map[string]float64{cfg.Base(): cfg.Arbitrage.StartingBalance}
		return NewPaperClient(logger, store, pairs, cfg.Arbitrage.FeePerLeg, cfg.FillDelay(), holdings), nil
	default:
		return nil, fmt.Errorf("unknown trader: %s", name)
	}
}
