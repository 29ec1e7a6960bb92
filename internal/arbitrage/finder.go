package arbitrage

import (
	"log/slog"
	"math"

	"carousel/internal/graph"
	"carousel/internal/metrics"
	"carousel/internal/model"
)

// Finder enumerates conversion cycles through the base currency and selects
// the most profitable one that passes the fee-aware filter.
//
// Enumeration is exhaustive over simple cycles, which is exponential in graph
// size. That is acceptable for the small currency universes this engine is
// configured with; a larger universe would need a Bellman-Ford style
// negative-cycle detector over the same log weights.
type Finder struct {
	logger  *slog.Logger
	feeRate float64 // per-leg fee, e.g. 0.0022
	cutoff  float64 // minimum per-leg effective profit %, 0 disables the filter
}

// NewFinder creates a Finder with the given per-leg fee rate and per-leg
// profit cutoff.
func NewFinder(logger *slog.Logger, feeRate, cutoff float64) *Finder {
	return &Finder{logger: logger, feeRate: feeRate, cutoff: cutoff}
}

// Best returns the qualifying cycle with the highest raw profit, or nil when
// no cycle qualifies.
//
// Acceptance uses the fee-adjusted (effective) profit while ranking uses raw
// profit. The asymmetry is deliberate and load-bearing: do not align the two.
func (f *Finder) Best(g *graph.Graph, base string) *model.Cycle {
	if !g.HasNode(base) {
		return nil
	}

	var best *model.Cycle
	visited := map[string]bool{base: true}
	path := []string{base}

	var dfs func(cur string)
	dfs = func(cur string) {
		for _, nxt := range g.Neighbors(cur) {
			if nxt == base {
				if len(path) < 3 {
					continue // degenerate: fewer than 2 hops
				}
				closed := append(append([]string{}, path...), base)
				if c := f.score(g, closed); c != nil {
					metrics.CyclesAccepted.Inc()
					if best == nil || c.RawProfitPct > best.RawProfitPct {
						best = c
					}
				}
				continue
			}
			if visited[nxt] {
				continue
			}
			visited[nxt] = true
			path = append(path, nxt)
			dfs(nxt)
			path = path[:len(path)-1]
			visited[nxt] = false
		}
	}
	dfs(base)

	if best != nil {
		metrics.BestRawProfitPct.Set(best.RawProfitPct)
		f.logger.Debug("Best cycle selected",
			"signature", best.Signature(),
			"rawProfitPct", best.RawProfitPct,
			"effectiveProfitPct", best.EffectiveProfitPct,
		)
	}
	return best
}

// score walks a closed path, sums the edge weights, and applies the
// profitability filter. It returns nil when an edge is missing or the cycle
// does not qualify.
func (f *Finder) score(g *graph.Graph, path []string) *model.Cycle {
	metrics.CyclesEvaluated.Inc()

	legs := len(path) - 1
	rates := make([]float64, 0, legs)
	weight := 0.0
	for i := 0; i < legs; i++ {
		e, ok := g.Edge(path[i], path[i+1])
		if !ok {
			return nil // no partial credit for incomplete cycles
		}
		rates = append(rates, e.Rate)
		weight += e.Weight
	}

	product := math.Exp(-weight)
	rawPct := (product - 1) * 100
	effective := product * math.Pow(1-f.feeRate, float64(legs))
	effPct := (effective - 1) * 100

	if product <= 1 {
		return nil
	}
	if f.cutoff > 0 && effPct < float64(legs)*f.cutoff {
		return nil
	}

	return &model.Cycle{
		Path:               path,
		Rates:              rates,
		Weight:             weight,
		RawProfitPct:       rawPct,
		EffectiveProfitPct: effPct,
		Legs:               legs,
	}
}
