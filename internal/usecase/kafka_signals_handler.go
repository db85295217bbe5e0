package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
)

// KafkaSignalsHandler consumes signal batches and decides each of them.
// Malformed or invalid batches are marked permanent so they go straight to
// the DLQ; publish failures are retried.
type KafkaSignalsHandler struct {
	topic   string
	uc      *ConsensusUseCase
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewKafkaSignalsHandler(topic string, uc *ConsensusUseCase, metrics domrepo.Metrics, l *applogger.Logger) *KafkaSignalsHandler {
	if l == nil {
		l = applogger.NewNop()
	}
	return &KafkaSignalsHandler{topic: topic, uc: uc, metrics: metrics, l: l}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var msg models.SignalBatchMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode signal batch: %w", err))
	}
	if msg.Symbol == "" {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("signal batch %q has no symbol", msg.BatchID))
	}
	if id := pkgkafka.TraceIDFromContext(ctx); id != "" {
		h.l.Debug("signal batch received",
			applogger.String("trace_id", id),
			applogger.String("batch_id", msg.BatchID),
		)
	}

	_, err := h.uc.HandleBatch(ctx, msg)
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrInvalidRequest) {
		return pkgkafka.Permanent(err)
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
