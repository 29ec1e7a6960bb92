package rates

import "sync"

// Store holds the latest known price per canonical pair. The feed goroutine is
// the only writer; the control loop reads. Each write replaces a single key
// atomically, so last-write-wins is safe without further coordination.
type Store struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStore creates an empty price store.
func NewStore() *Store {
	return &Store{prices: make(map[string]float64)}
}

// Set records the latest price for a canonical pair. Non-positive prices are
// dropped; a rate of zero would poison the log-weight transform downstream.
func (s *Store) Set(pair string, price float64) {
	if price <= 0 {
		return
	}
	s.mu.Lock()
	s.prices[pair] = price
	s.mu.Unlock()
}

// Get returns the latest price for a canonical pair, if one is known.
func (s *Store) Get(pair string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[pair]
	return p, ok
}

// Snapshot returns a copy of all known prices. The copy is safe to read while
// the feed keeps writing.
func (s *Store) Snapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}

// Len returns the number of pairs with a known price.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prices)
}
