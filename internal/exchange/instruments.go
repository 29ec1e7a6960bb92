package exchange

import (
	"fmt"
	"strings"

	"carousel/internal/model"
)

// Instruments maps canonical pair keys to venue instrument codes and back.
type Instruments struct {
	codes map[string]string     // canonical key -> venue code
	pairs map[string]model.Pair // venue code -> pair
}

// NewInstruments builds the instrument table for the configured pairs. The
// venue code convention is the upper-case concatenation of base and quote.
func NewInstruments(pairs []model.Pair) *Instruments {
	m := &Instruments{
		codes: make(map[string]string, len(pairs)),
		pairs: make(map[string]model.Pair, len(pairs)),
	}
	for _, p := range pairs {
		code := strings.ToUpper(p.Base) + strings.ToUpper(p.Quote)
		m.codes[p.Canon()] = code
		m.pairs[code] = p
	}
	return m
}

// Resolve returns the venue code for a pair. When the exact canonical key is
// unknown, it retries once with the quote's USD suffix swapped for USDT (and
// vice versa) before failing; venues commonly list only one of the two.
func (m *Instruments) Resolve(pair model.Pair) (string, error) {
	if code, ok := m.codes[pair.Canon()]; ok {
		return code, nil
	}
	if alias, ok := aliasQuote(pair); ok {
		if code, ok := m.codes[alias.Canon()]; ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("no instrument for pair %s", pair)
}

// Pair returns the configured pair behind a venue code.
func (m *Instruments) Pair(code string) (model.Pair, bool) {
	p, ok := m.pairs[code]
	return p, ok
}

func aliasQuote(pair model.Pair) (model.Pair, bool) {
	switch pair.Quote {
	case "usd":
		return model.Pair{Base: pair.Base, Quote: "usdt"}, true
	case "usdt":
		return model.Pair{Base: pair.Base, Quote: "usd"}, true
	}
	return model.Pair{}, false
}
