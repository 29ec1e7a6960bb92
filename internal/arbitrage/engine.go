package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"carousel/internal/config"
	"carousel/internal/executor"
	"carousel/internal/graph"
	"carousel/internal/ledger"
	"carousel/internal/metrics"
	"carousel/internal/model"
	"carousel/internal/rates"
)

// Engine is the control loop. Each tick it reconciles pending cycles,
// rebuilds the rate graph, searches it for the best conversion cycle and
// hands a qualifying one to the execution engine.
type Engine struct {
	logger *slog.Logger
	cfg    *config.Config
	store  *rates.Store
	finder *Finder
	exec   *executor.Engine
	ledger *ledger.Ledger
	pairs  []model.Pair
	base   string
}

// NewEngine creates the control loop over its collaborators.
func NewEngine(logger *slog.Logger, cfg *config.Config, store *rates.Store, finder *Finder, exec *executor.Engine, led *ledger.Ledger, pairs []model.Pair) *Engine {
	return &Engine{
		logger: logger.With("component", "engine"),
		cfg:    cfg,
		store:  store,
		finder: finder,
		exec:   exec,
		ledger: led,
		pairs:  pairs,
		base:   cfg.Base(),
	}
}

// Run ticks at the configured interval until the run duration expires or the
// context is cancelled. Cancellation is honoured at the tick boundary, never
// mid-leg; every exit path performs a final liquidation pass.
func (e *Engine) Run(ctx context.Context) error {
	if d := e.cfg.RunDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	e.logger.Info("Control loop starting",
		"base", e.base,
		"pairs", len(e.pairs),
		"tickInterval", e.cfg.TickInterval(),
		"runDuration", e.cfg.RunDuration(),
	)

	ticker := time.NewTicker(e.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		case <-ticker.C:
			// In-flight legs finish their own abort/complete protocol even
			// when the session ends under them.
			e.tick(context.WithoutCancel(ctx))
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	metrics.Ticks.Inc()
	defer e.ledger.SampleBalance(ctx)

	e.ledger.ReconcilePending(ctx)

	g := graph.Build(e.store.Snapshot(), e.pairs)
	best := e.finder.Best(g, e.base)
	if best == nil {
		e.logger.Debug("No qualifying cycle", "nodes", g.NumNodes())
		return
	}

	sig := best.Signature()
	if e.ledger.IsPending(sig) {
		e.logger.Debug("Skipping cycle with pending orders", "signature", sig)
		return
	}
	if e.ledger.LossLimitHit() {
		e.logger.Warn("Loss limit reached, not initiating new cycles",
			"balance", e.ledger.Balance(),
			"signature", sig,
		)
		return
	}

	amount := e.cfg.Arbitrage.PositionFraction * e.ledger.Balance()
	e.logger.Info("Executing cycle",
		"signature", sig,
		"rawProfitPct", best.RawProfitPct,
		"effectiveProfitPct", best.EffectiveProfitPct,
		"amount", amount,
	)

	res, err := e.exec.Execute(ctx, best, amount)
	if err != nil {
		e.logger.Error("Cycle execution aborted",
			"signature", sig,
			"error", err,
			"ordersSubmitted", len(res.OrderIDs),
			"convertedAmount", res.FinalAmount,
		)
		e.ledger.CloseAllPositions(ctx)
		return
	}

	if !e.ledger.RecordSuccess(ctx, best, res.OrderIDs, amount, res.FinalAmount) {
		e.logger.Warn("Cycle completed without profit, liquidating",
			"signature", sig,
			"tradeAmount", amount,
			"finalAmount", res.FinalAmount,
		)
		e.ledger.CloseAllPositions(ctx)
	}
}

// shutdown runs the final liquidation pass with its own bounded context; the
// session context is already done by the time we get here.
func (e *Engine) shutdown() {
	e.logger.Info("Control loop stopping, closing positions")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	e.ledger.CloseAllPositions(ctx)
	e.logger.Info("Session complete",
		"balance", e.ledger.Balance(),
		"trades", len(e.ledger.Trades()),
	)
}
