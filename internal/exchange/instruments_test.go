package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carousel/internal/model"
)

func TestInstruments_Resolve(t *testing.T) {
	m := NewInstruments([]model.Pair{
		{Base: "btc", Quote: "usd"},
		{Base: "eth", Quote: "usdt"},
	})

	t.Run("exact match", func(t *testing.T) {
		code, err := m.Resolve(model.Pair{Base: "btc", Quote: "usd"})
		require.NoError(t, err)
		assert.Equal(t, "BTCUSD", code)
	})

	t.Run("usd falls back to usdt", func(t *testing.T) {
		code, err := m.Resolve(model.Pair{Base: "eth", Quote: "usd"})
		require.NoError(t, err)
		assert.Equal(t, "ETHUSDT", code)
	})

	t.Run("usdt falls back to usd", func(t *testing.T) {
		code, err := m.Resolve(model.Pair{Base: "btc", Quote: "usdt"})
		require.NoError(t, err)
		assert.Equal(t, "BTCUSD", code)
	})

	t.Run("unknown pair", func(t *testing.T) {
		_, err := m.Resolve(model.Pair{Base: "doge", Quote: "eur"})
		assert.Error(t, err)
	})
}

func TestInstruments_PairLookup(t *testing.T) {
	m := NewInstruments([]model.Pair{{Base: "btc", Quote: "usd"}})

	pair, ok := m.Pair("BTCUSD")
	require.True(t, ok)
	assert.Equal(t, model.Pair{Base: "btc", Quote: "usd"}, pair)

	_, ok = m.Pair("ETHUSD")
	assert.False(t, ok)
}
