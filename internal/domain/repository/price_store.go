package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
)

// PriceStore provides read-only access to the candle history the forecaster runs on.
type PriceStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}
