package repository

import (
	"context"
	"fmt"

	"SignalDesk/internal/domain/models"
	pkgkafka "SignalDesk/pkg/kafka"
)

type eventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaDecisionPublisher implements DecisionPublisher for Kafka. Messages
// are keyed by symbol so one symbol's decisions stay ordered.
type KafkaDecisionPublisher struct {
	producer eventPublisher
	topic    string
}

// NewKafkaDecisionPublisher creates a Kafka decision publisher.
func NewKafkaDecisionPublisher(producer *pkgkafka.Producer, topic string) *KafkaDecisionPublisher {
	return &KafkaDecisionPublisher{producer: producer, topic: topic}
}

func (p *KafkaDecisionPublisher) Publish(ctx context.Context, msg models.DecisionMessage) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(msg.Symbol), msg); err != nil {
		return fmt.Errorf("publish decision %s: %w", msg.BatchID, err)
	}
	return nil
}

func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
