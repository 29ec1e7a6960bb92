package database

import (
	"context"

	"carousel/internal/model"
)

// Repository defines the standard interface for database operations.
type Repository interface {
	Migrate(ctx context.Context) error
	LogTrade(ctx context.Context, trade model.TradeRecord) error
	LogBalanceSample(ctx context.Context, sample model.BalanceSample) error
}

// NoopRepository discards everything. It backs runs without a database
// configured.
type NoopRepository struct{}

func (NoopRepository) Migrate(ctx context.Context) error                               { return nil }
func (NoopRepository) LogTrade(ctx context.Context, trade model.TradeRecord) error     { return nil }
func (NoopRepository) LogBalanceSample(ctx context.Context, s model.BalanceSample) error { return nil }
