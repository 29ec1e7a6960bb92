// Package executor turns a selected conversion cycle into an ordered sequence
// of dependent market orders. Execution is non-transactional: legs run
// strictly in cycle order because each leg's output funds the next, and an
// abort leaves the position partially converted with no compensating trade.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carousel/internal/exchange"
	"carousel/internal/metrics"
	"carousel/internal/model"
)

// ErrFillTimeout marks an order that exhausted its fill-poll budget.
var ErrFillTimeout = errors.New("fill confirmation timed out")

// Engine executes conversion cycles against a trade client.
type Engine struct {
	logger       *slog.Logger
	client       exchange.TradeClient
	pairs        []model.Pair
	feeRate      float64
	minNotional  float64
	pollAttempts int
	pollInterval time.Duration
}

// Result carries the outcome of a cycle execution. On abort it holds the
// orders submitted so far and the amount converted so far.
type Result struct {
	OrderIDs    []string
	FinalAmount float64
}

// NewEngine creates an execution engine over the configured pair whitelist.
func NewEngine(logger *slog.Logger, client exchange.TradeClient, pairs []model.Pair, feeRate, minNotional float64, pollAttempts int, pollInterval time.Duration) *Engine {
	return &Engine{
		logger:       logger.With("component", "executor"),
		client:       client,
		pairs:        pairs,
		feeRate:      feeRate,
		minNotional:  minNotional,
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
	}
}

// Execute runs the cycle leg by leg starting from the given trade amount in
// the base currency. On success the result holds every order id in path order
// and the final converted amount; on failure it returns the partial result
// together with the error that aborted the cycle.
func (e *Engine) Execute(ctx context.Context, cycle *model.Cycle, amount float64) (Result, error) {
	res := Result{FinalAmount: amount}

	for i := 0; i < cycle.Legs; i++ {
		cur, nxt := cycle.Path[i], cycle.Path[i+1]

		pair, side, ok := resolveSide(e.pairs, cur, nxt)
		if !ok {
			return res, fmt.Errorf("leg %d: no configured pair for %s->%s", i, cur, nxt)
		}

		// The pair price is quoted in quote units per base unit; the cycle
		// edge rate is quoted in the hop's direction of travel.
		price := cycle.Rates[i]
		if side == model.SideBuy {
			price = 1 / cycle.Rates[i]
		}

		var volume float64
		switch side {
		case model.SideBuy:
			if res.FinalAmount < e.minNotional {
				return res, fmt.Errorf("leg %d: notional %.8f below minimum %.8f", i, res.FinalAmount, e.minNotional)
			}
			volume = res.FinalAmount / price
		case model.SideSell:
			volume = res.FinalAmount
			if volume*price < e.minNotional {
				volume = e.minNotional / price
				if volume > res.FinalAmount {
					return res, fmt.Errorf("leg %d: cannot meet minimum notional %.8f with %.8f %s", i, e.minNotional, res.FinalAmount, cur)
				}
			}
		}

		instrument, err := e.client.ResolveInstrument(pair)
		if err != nil {
			return res, fmt.Errorf("leg %d: resolve instrument for %s: %w", i, pair, err)
		}

		orderID, err := e.client.SubmitMarketOrder(ctx, instrument, side, volume)
		if err != nil {
			metrics.OrderFailures.Inc()
			return res, fmt.Errorf("leg %d: submit %s %s: %w", i, side, instrument, err)
		}
		metrics.OrdersSubmitted.Inc()
		res.OrderIDs = append(res.OrderIDs, orderID)
		e.logger.Info("Order submitted",
			"leg", i,
			"instrument", instrument,
			"side", side,
			"volume", volume,
			"orderID", orderID,
		)

		if err := e.awaitFill(ctx, orderID); err != nil {
			return res, fmt.Errorf("leg %d: order %s: %w", i, orderID, err)
		}

		if side == model.SideBuy {
			res.FinalAmount = volume * (1 - e.feeRate)
		} else {
			res.FinalAmount = volume * price * (1 - e.feeRate)
		}
	}

	return res, nil
}

// awaitFill polls the order status a bounded number of times at a fixed
// interval and returns ErrFillTimeout when the budget is exhausted.
func (e *Engine) awaitFill(ctx context.Context, orderID string) error {
	for attempt := 0; attempt < e.pollAttempts; attempt++ {
		status, err := e.client.OrderStatus(ctx, orderID)
		if err != nil {
			e.logger.Warn("Failed to poll order status", "orderID", orderID, "attempt", attempt, "error", err)
		} else {
			switch status {
			case model.OrderFilled:
				return nil
			case model.OrderError:
				return fmt.Errorf("venue reported order error")
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
	metrics.FillTimeouts.Inc()
	return ErrFillTimeout
}

// resolveSide finds a configured pair and side for one hop. An exact
// orientation match wins; otherwise the first configured pair mentioning
// either currency is used with a best-effort quote comparison. The fallback
// can mis-orient exotic configurations and is kept as a documented ambiguity.
func resolveSide(pairs []model.Pair, cur, nxt string) (model.Pair, model.Side, bool) {
	for _, p := range pairs {
		if p.Quote == cur && p.Base == nxt {
			return p, model.SideBuy, true
		}
		if p.Base == cur && p.Quote == nxt {
			return p, model.SideSell, true
		}
	}
	for _, p := range pairs {
		if p.Base == cur || p.Quote == cur || p.Base == nxt || p.Quote == nxt {
			if p.Quote == cur {
				return p, model.SideBuy, true
			}
			return p, model.SideSell, true
		}
	}
	return model.Pair{}, "", false
}
