package service

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// RegimeClassifier labels every post-warm-up timestamp of a series with a
// volatility regime.
type RegimeClassifier interface {
	Classify(series models.PriceSeries) (*models.RegimeClassification, error)
	RegimeCount() int
}

// ForecastRequest parameterizes one regime-conditional forecast.
// A nil Regime conditions on the current regime.
type ForecastRequest struct {
	Horizon    int
	Confidence float64
	Regime     *models.VolatilityRegime
}

// RegimeForecaster fits one model per regime and forecasts from the
// selected one.
type RegimeForecaster interface {
	Forecast(ctx context.Context, series models.PriceSeries, cls *models.RegimeClassification, req ForecastRequest) (*models.ForecastRun, error)
}

// SignalSource is anything that can emit one opinion about a symbol.
type SignalSource interface {
	Name() string
	Signal(ctx context.Context, symbol string) (models.AgentSignal, error)
}

// ConsensusDecider validates a batch and runs the rule cascade on it.
type ConsensusDecider interface {
	Decide(signals []models.AgentSignal) (models.ConsensusResult, error)
}
