package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CyclesEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carousel_cycles_evaluated_total",
		Help: "Number of candidate cycles scored",
	})

	CyclesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carousel_cycles_accepted_total",
		Help: "Number of cycles that passed the profitability filter",
	})

	BestRawProfitPct = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "carousel_best_raw_profit_pct",
		Help: "Raw profit percent of the best cycle found on the last tick",
	})

	OrdersSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carousel_orders_submitted_total",
		Help: "Number of market orders submitted",
	})

	OrderFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carousel_order_failures_total",
		Help: "Number of order submissions rejected by the venue",
	})

	FillTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carousel_fill_timeouts_total",
		Help: "Number of orders that exhausted the fill-poll budget",
	})

	BalanceBase = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "carousel_balance_base",
		Help: "Current ledger balance in base currency units",
	})

	Ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carousel_ticks_total",
		Help: "Number of control loop ticks completed",
	})
)

func init() {
	prometheus.MustRegister(
		CyclesEvaluated,
		CyclesAccepted,
		BestRawProfitPct,
		OrdersSubmitted,
		OrderFailures,
		FillTimeouts,
		BalanceBase,
		Ticks,
	)
}
