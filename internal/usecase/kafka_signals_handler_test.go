package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "SignalDesk/pkg/kafka"
)

func TestKafkaSignalsHandlerDecidesAndPublishes(t *testing.T) {
	uc, m := newConsensusUC(t)
	pub := &fakePublisher{}
	uc.SetPublisher(pub)
	h := NewKafkaSignalsHandler("signaldesk.signals", uc, m, nil)

	err := h.Handle(context.Background(), []byte(`{
		"batch_id": "b-7",
		"symbol": "MSFT",
		"signals": [
			{"source": "technical", "direction": 1, "confidence": 0.8, "reliability": 0.9},
			{"source": "sentiment", "direction": 1, "confidence": 0.7, "reliability": 0.8}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "MSFT", pub.msgs[0].Symbol)
	assert.Equal(t, "signaldesk.signals", h.Topic())
}

func TestKafkaSignalsHandlerMalformedIsPermanent(t *testing.T) {
	uc, m := newConsensusUC(t)
	h := NewKafkaSignalsHandler("s", uc, m, nil)

	err := h.Handle(context.Background(), []byte(`{not json`))
	assert.True(t, pkgkafka.IsPermanent(err))
	assert.Equal(t, 1, m.errs["consumer_unmarshal"])

	err = h.Handle(context.Background(), []byte(`{"batch_id":"x","signals":[]}`))
	assert.True(t, pkgkafka.IsPermanent(err))
}

func TestKafkaSignalsHandlerInvalidBatchIsPermanent(t *testing.T) {
	uc, m := newConsensusUC(t)
	h := NewKafkaSignalsHandler("s", uc, m, nil)

	err := h.Handle(context.Background(), []byte(`{"symbol":"AAPL","signals":[]}`))
	require.Error(t, err)
	assert.True(t, pkgkafka.IsPermanent(err))
}

func TestKafkaSignalsHandlerPublishErrorIsRetried(t *testing.T) {
	uc, m := newConsensusUC(t)
	uc.SetPublisher(&fakePublisher{err: errors.New("broker down")})
	h := NewKafkaSignalsHandler("s", uc, m, nil)

	err := h.Handle(context.Background(), []byte(`{"symbol":"AAPL","signals":[{"source":"a","direction":1,"confidence":0.9,"reliability":0.9}]}`))
	require.Error(t, err)
	assert.False(t, pkgkafka.IsPermanent(err))
}
