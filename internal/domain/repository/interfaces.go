package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// DecisionPublisher ships consensus decisions downstream.
type DecisionPublisher interface {
	Publish(ctx context.Context, msg models.DecisionMessage) error
	Close() error
}

type Metrics interface {
	RecordDecision(rec models.Recommendation, fallback bool)
	RecordForecast(regime string, fallback bool)
	RecordFitFailure(regime string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
