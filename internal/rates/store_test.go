package rates

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_SetGet(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("btcusd")
	assert.False(t, ok)

	s.Set("btcusd", 50000)
	price, ok := s.Get("btcusd")
	assert.True(t, ok)
	assert.Equal(t, 50000.0, price)

	// most recent write wins
	s.Set("btcusd", 50100)
	price, _ = s.Get("btcusd")
	assert.Equal(t, 50100.0, price)
}

func TestStore_DropsNonPositive(t *testing.T) {
	s := NewStore()
	s.Set("btcusd", 0)
	s.Set("ethusd", -1)
	assert.Equal(t, 0, s.Len())
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Set("btcusd", 50000)

	snap := s.Snapshot()
	snap["btcusd"] = 1

	price, _ := s.Get("btcusd")
	assert.Equal(t, 50000.0, price)
}

func TestStore_ConcurrentFeedAndReader(t *testing.T) {
	s := NewStore()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Set("btcusd", float64(50000+i))
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			price, ok := s.Get("btcusd")
			assert.True(t, ok)
			assert.Equal(t, 50999.0, price)
			return
		default:
			if price, ok := s.Get("btcusd"); ok {
				assert.Positive(t, price)
			}
			_ = s.Snapshot()
		}
	}
}
