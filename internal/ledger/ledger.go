// Package ledger owns the session's money state: balance, trade history,
// balance-history samples, the pending-cycle registry and per-signature
// execution counters. The control loop is the ledger's single owner; nothing
// here is called from the feed goroutine, so no locking is needed.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"carousel/internal/database"
	"carousel/internal/exchange"
	"carousel/internal/metrics"
	"carousel/internal/model"
	"carousel/internal/rates"
)

// lossLimitFactor stops new cycles once the balance falls below this fraction
// of the starting balance.
const lossLimitFactor = 0.95

// dust is the smallest holding worth liquidating.
const dust = 1e-9

// Ledger tracks balances and completed trades and enforces the loss limit.
type Ledger struct {
	logger *slog.Logger
	repo   database.Repository
	client exchange.TradeClient
	store  *rates.Store
	pairs  []model.Pair
	base   string

	startingBalance float64
	balance         float64
	lossLimited     bool
	trades          []model.TradeRecord
	history         []model.BalanceSample
	pending         map[string][]string
	execCount       map[string]int

	pollAttempts int
	pollInterval time.Duration
}

// New creates a ledger seeded with the starting balance.
func New(logger *slog.Logger, repo database.Repository, client exchange.TradeClient, store *rates.Store, pairs []model.Pair, base string, startingBalance float64, pollAttempts int, pollInterval time.Duration) *Ledger {
	metrics.BalanceBase.Set(startingBalance)
	return &Ledger{
		logger:          logger.With("component", "ledger"),
		repo:            repo,
		client:          client,
		store:           store,
		pairs:           pairs,
		base:            base,
		startingBalance: startingBalance,
		balance:         startingBalance,
		pending:         make(map[string][]string),
		execCount:       make(map[string]int),
		pollAttempts:    pollAttempts,
		pollInterval:    pollInterval,
	}
}

// Balance returns the current base-currency balance.
func (l *Ledger) Balance() float64 {
	return l.balance
}

// Trades returns the append-only trade history.
func (l *Ledger) Trades() []model.TradeRecord {
	return l.trades
}

// History returns the append-only balance samples.
func (l *Ledger) History() []model.BalanceSample {
	return l.history
}

// ExecutionCount returns how many times a cycle signature has been executed.
func (l *Ledger) ExecutionCount(signature string) int {
	return l.execCount[signature]
}

// IsPending reports whether a cycle signature still has outstanding orders.
func (l *Ledger) IsPending(signature string) bool {
	_, ok := l.pending[signature]
	return ok
}

// LossLimitHit reports whether the balance has ever fallen below the loss
// limit. The trip is sticky: once hit, no new cycles are initiated for the
// remainder of the session even if liquidation recovers some value.
func (l *Ledger) LossLimitHit() bool {
	if !l.lossLimited && l.balance < lossLimitFactor*l.startingBalance {
		l.lossLimited = true
	}
	return l.lossLimited
}

// ReconcilePending removes every pending signature whose orders all report
// filled. Signatures with an unconfirmed or unqueryable order stay pending.
func (l *Ledger) ReconcilePending(ctx context.Context) {
	for _, sig := range l.pendingSignatures() {
		allFilled := true
		for _, orderID := range l.pending[sig] {
			status, err := l.client.OrderStatus(ctx, orderID)
			if err != nil {
				l.logger.Warn("Failed to query pending order", "signature", sig, "orderID", orderID, "error", err)
				allFilled = false
				break
			}
			if status != model.OrderFilled {
				allFilled = false
				break
			}
		}
		if allFilled {
			delete(l.pending, sig)
			l.logger.Debug("Pending cycle reconciled", "signature", sig)
		}
	}
}

func (l *Ledger) pendingSignatures() []string {
	sigs := make([]string, 0, len(l.pending))
	for sig := range l.pending {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	return sigs
}

// RecordSuccess books a completed cycle. It requires a positive profit to
// count as a success and reports false otherwise, leaving all state
// untouched; the caller treats that as unprofitable and liquidates.
func (l *Ledger) RecordSuccess(ctx context.Context, cycle *model.Cycle, orderIDs []string, tradeAmount, finalAmount float64) bool {
	profit := finalAmount - tradeAmount
	if profit <= 0 {
		return false
	}

	sig := cycle.Signature()
	record := model.TradeRecord{
		Timestamp:          time.Now(),
		Path:               sig,
		OrderIDs:           orderIDs,
		RawProfitPct:       cycle.RawProfitPct,
		EffectiveProfitPct: cycle.EffectiveProfitPct,
		TradeAmount:        tradeAmount,
		FinalAmount:        finalAmount,
		Profit:             profit,
		BalanceBefore:      l.balance,
		BalanceAfter:       l.balance + profit,
	}

	l.balance += profit
	l.trades = append(l.trades, record)
	l.pending[sig] = append([]string{}, orderIDs...)
	l.execCount[sig]++
	metrics.BalanceBase.Set(l.balance)

	if err := l.repo.LogTrade(ctx, record); err != nil {
		l.logger.Error("Failed to log trade", "error", err)
	}
	l.logger.Info("Cycle completed",
		"signature", sig,
		"profit", profit,
		"balance", l.balance,
		"executions", l.execCount[sig],
	)
	return true
}

// SampleBalance appends one balance-history point.
func (l *Ledger) SampleBalance(ctx context.Context) {
	sample := model.BalanceSample{Timestamp: time.Now(), Balance: l.balance}
	l.history = append(l.history, sample)
	if err := l.repo.LogBalanceSample(ctx, sample); err != nil {
		l.logger.Error("Failed to log balance sample", "error", err)
	}
}

// CloseAllPositions converts every non-base holding back to the base
// currency, best effort. Assets with no configured pair back to base, no
// known rate, or a failing order are logged and skipped.
func (l *Ledger) CloseAllPositions(ctx context.Context) {
	holdings, err := l.client.Balances(ctx)
	if err != nil {
		l.logger.Error("Failed to query holdings for liquidation", "error", err)
		return
	}

	assets := make([]string, 0, len(holdings))
	for asset := range holdings {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	for _, asset := range assets {
		amount := holdings[asset]
		if asset == l.base || amount <= dust {
			continue
		}

		pair, ok := l.pairToBase(asset)
		if !ok {
			l.logger.Warn("No pair to liquidate asset", "asset", asset, "amount", amount)
			continue
		}
		if _, ok := l.store.Get(pair.Canon()); !ok {
			l.logger.Warn("No rate to liquidate asset", "asset", asset, "pair", pair.String())
			continue
		}
		instrument, err := l.client.ResolveInstrument(pair)
		if err != nil {
			l.logger.Warn("Failed to resolve liquidation instrument", "asset", asset, "error", err)
			continue
		}

		orderID, err := l.client.SubmitMarketOrder(ctx, instrument, model.SideSell, amount)
		if err != nil {
			l.logger.Warn("Failed to submit liquidation order", "asset", asset, "error", err)
			continue
		}
		l.logger.Info("Liquidation order submitted", "asset", asset, "amount", amount, "orderID", orderID)

		if !l.awaitLiquidationFill(ctx, orderID) {
			l.logger.Warn("Liquidation order not confirmed", "asset", asset, "orderID", orderID)
		}
	}

	// The venue's base holding is the ground truth once everything has been
	// converted back; this is where a losing session drags the balance down
	// toward the loss limit.
	after, err := l.client.Balances(ctx)
	if err != nil {
		l.logger.Warn("Failed to re-query holdings after liquidation", "error", err)
		return
	}
	if bal, ok := after[l.base]; ok {
		l.balance = bal
		metrics.BalanceBase.Set(bal)
		l.logger.Info("Balance re-synced after liquidation", "balance", bal)
	}
}

// awaitLiquidationFill polls with the same bounded budget as the executor but
// never escalates; liquidation is best effort.
func (l *Ledger) awaitLiquidationFill(ctx context.Context, orderID string) bool {
	for attempt := 0; attempt < l.pollAttempts; attempt++ {
		status, err := l.client.OrderStatus(ctx, orderID)
		if err == nil && status == model.OrderFilled {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(l.pollInterval):
		}
	}
	return false
}

// pairToBase finds the configured pair that sells an asset directly into the
// base currency.
func (l *Ledger) pairToBase(asset string) (model.Pair, bool) {
	for _, p := range l.pairs {
		if p.Base == asset && p.Quote == l.base {
			return p, true
		}
	}
	return model.Pair{}, false
}
