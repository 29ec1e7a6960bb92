package exchange

import (
	"context"

	"carousel/internal/model"
)

// Streamer defines the standard interface for live price feeds. The streamer
// owns its connection lifecycle and keeps pushing ticks until the context is
// cancelled.
type Streamer interface {
	Name() string
	StartStream(ctx context.Context, ticks chan<- model.PriceTick, pairs []model.Pair) error
}

// TradeClient defines the standard interface for order placement and account
// queries against the venue.
type TradeClient interface {
	Name() string
	SubmitMarketOrder(ctx context.Context, instrument string, side model.Side, volume float64) (string, error)
	OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error)
	Balances(ctx context.Context) (map[string]float64, error)
	ResolveInstrument(pair model.Pair) (string, error)
}
