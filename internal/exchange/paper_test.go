package exchange

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carousel/internal/model"
	"carousel/internal/rates"
)

func newTestPaperClient(fillDelay time.Duration) (*PaperClient, *rates.Store) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := rates.NewStore()
	pairs := []model.Pair{{Base: "btc", Quote: "usd"}}
	client := NewPaperClient(logger, store, pairs, 0.0022, fillDelay, map[string]float64{"usd": 1000})
	return client, store
}

func TestPaperClient_BuyAndSettle(t *testing.T) {
	ctx := context.Background()
	client, store := newTestPaperClient(0)
	store.Set("btcusd", 50000)

	orderID, err := client.SubmitMarketOrder(ctx, "BTCUSD", model.SideBuy, 0.01)
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	// the usd side is reserved at submit time
	balances, err := client.Balances(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 500, balances["usd"], 1e-9)
	assert.Zero(t, balances["btc"])

	status, err := client.OrderStatus(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderFilled, status)

	balances, err = client.Balances(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.01*(1-0.0022), balances["btc"], 1e-12)
}

func TestPaperClient_SellAndSettle(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := rates.NewStore()
	store.Set("btcusd", 50000)
	client := NewPaperClient(logger, store, []model.Pair{{Base: "btc", Quote: "usd"}}, 0.0022, 0, map[string]float64{"btc": 1})

	orderID, err := client.SubmitMarketOrder(ctx, "BTCUSD", model.SideSell, 0.5)
	require.NoError(t, err)

	status, err := client.OrderStatus(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderFilled, status)

	balances, err := client.Balances(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, balances["btc"], 1e-9)
	assert.InDelta(t, 0.5*50000*(1-0.0022), balances["usd"], 1e-9)
}

func TestPaperClient_FillDelay(t *testing.T) {
	ctx := context.Background()
	client, store := newTestPaperClient(30 * time.Millisecond)
	store.Set("btcusd", 50000)

	orderID, err := client.SubmitMarketOrder(ctx, "BTCUSD", model.SideBuy, 0.01)
	require.NoError(t, err)

	status, err := client.OrderStatus(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderOpen, status)

	time.Sleep(50 * time.Millisecond)

	status, err = client.OrderStatus(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderFilled, status)
}

func TestPaperClient_SubmitErrors(t *testing.T) {
	ctx := context.Background()
	client, store := newTestPaperClient(0)

	t.Run("no price", func(t *testing.T) {
		_, err := client.SubmitMarketOrder(ctx, "BTCUSD", model.SideBuy, 0.01)
		assert.ErrorContains(t, err, "no price")
	})

	t.Run("unknown instrument", func(t *testing.T) {
		_, err := client.SubmitMarketOrder(ctx, "DOGEEUR", model.SideBuy, 1)
		assert.ErrorContains(t, err, "unknown instrument")
	})

	t.Run("insufficient funds", func(t *testing.T) {
		store.Set("btcusd", 50000)
		_, err := client.SubmitMarketOrder(ctx, "BTCUSD", model.SideBuy, 1)
		assert.ErrorContains(t, err, "insufficient")
	})
}

func TestPaperClient_UnknownOrder(t *testing.T) {
	client, _ := newTestPaperClient(0)
	_, err := client.OrderStatus(context.Background(), "nope")
	assert.Error(t, err)
}
