package model

import (
	"fmt"
	"strings"
	"time"
)

// Side identifies the direction of a market order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus is the venue-reported state of a submitted order.
type OrderStatus string

const (
	OrderOpen   OrderStatus = "open"
	OrderFilled OrderStatus = "filled"
	OrderError  OrderStatus = "error"
)

// Pair is an ordered (base, quote) currency pair. Symbols are stored in
// canonical lower-case form.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair parses a configured pair string such as "btc/usd", "BTC-USD" or
// "btc_usd" into a Pair.
func ParsePair(s string) (Pair, error) {
	for _, sep := range []string{"/", "-", "_"} {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return Pair{
				Base:  CanonSymbol(parts[0]),
				Quote: CanonSymbol(parts[1]),
			}, nil
		}
	}
	return Pair{}, fmt.Errorf("cannot parse pair %q: no separator found", s)
}

// Canon returns the canonical key for the pair: lower-case, no separators.
// The key is unique per configured pair.
func (p Pair) Canon() string {
	return p.Base + p.Quote
}

// String returns the pair in "base/quote" form for logging.
func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// CanonSymbol normalises a currency symbol: lower-case, separators stripped.
func CanonSymbol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sep := range []string{"/", "-", "_", " "} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

// PriceTick is a single price update from the feed for one canonical pair.
type PriceTick struct {
	Pair  string
	Price float64
}

// Cycle is a closed conversion walk through the rate graph, starting and
// ending at the base currency. It is produced by the cycle finder and consumed
// once by the execution engine.
type Cycle struct {
	Path               []string  // currencies, Path[0] == Path[len-1] == base
	Rates              []float64 // per-hop conversion rates, len(Path)-1 entries
	Weight             float64   // sum of -ln(rate) over the hops
	RawProfitPct       float64
	EffectiveProfitPct float64
	Legs               int
}

// Signature returns the ordered node tuple as a string, used to deduplicate
// the same cycle across ticks.
func (c *Cycle) Signature() string {
	return strings.Join(c.Path, ">")
}

// TradeRecord is an immutable snapshot of one completed arbitrage cycle.
type TradeRecord struct {
	ID                 int64     `db:"id"`
	Timestamp          time.Time `db:"timestamp"`
	Path               string    `db:"path"`
	OrderIDs           []string  `db:"order_ids"`
	RawProfitPct       float64   `db:"raw_profit_pct"`
	EffectiveProfitPct float64   `db:"effective_profit_pct"`
	TradeAmount        float64   `db:"trade_amount"`
	FinalAmount        float64   `db:"final_amount"`
	Profit             float64   `db:"profit"`
	BalanceBefore      float64   `db:"balance_before"`
	BalanceAfter       float64   `db:"balance_after"`
}

// BalanceSample is one point of the append-only balance history.
type BalanceSample struct {
	Timestamp time.Time `db:"timestamp"`
	Balance   float64   `db:"balance"`
}
