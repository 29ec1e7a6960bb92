package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"carousel/internal/model"
)

// PostgresRepository implements the Repository interface backed by a pgx
// connection pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository connects a pool to the given DSN.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Migrate creates the trade and balance-history tables if they do not exist.
// Statements run one at a time; pgx's extended protocol rejects batched DDL
// strings.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS trades (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		path TEXT NOT NULL,
		order_ids TEXT[] NOT NULL,
		raw_profit_pct NUMERIC(20, 8) NOT NULL,
		effective_profit_pct NUMERIC(20, 8) NOT NULL,
		trade_amount NUMERIC(20, 8) NOT NULL,
		final_amount NUMERIC(20, 8) NOT NULL,
		profit NUMERIC(20, 8) NOT NULL,
		balance_before NUMERIC(20, 8) NOT NULL,
		balance_after NUMERIC(20, 8) NOT NULL
	)`); err != nil {
		return err
	}
	_, err := r.Pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS balance_history (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		balance NUMERIC(20, 8) NOT NULL
	)`)
	return err
}

// LogTrade appends one completed cycle to the trades table.
func (r *PostgresRepository) LogTrade(ctx context.Context, trade model.TradeRecord) error {
	_, err := r.Pool.Exec(ctx, `
	INSERT INTO trades (
		timestamp, path, order_ids, raw_profit_pct, effective_profit_pct,
		trade_amount, final_amount, profit, balance_before, balance_after
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		trade.Timestamp,
		trade.Path,
		trade.OrderIDs,
		trade.RawProfitPct,
		trade.EffectiveProfitPct,
		trade.TradeAmount,
		trade.FinalAmount,
		trade.Profit,
		trade.BalanceBefore,
		trade.BalanceAfter,
	)
	return err
}

// LogBalanceSample appends one balance-history point.
func (r *PostgresRepository) LogBalanceSample(ctx context.Context, sample model.BalanceSample) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO balance_history (timestamp, balance) VALUES ($1, $2)`,
		sample.Timestamp, sample.Balance,
	)
	return err
}

// Close releases the underlying pool.
func (r *PostgresRepository) Close() {
	r.Pool.Close()
}
