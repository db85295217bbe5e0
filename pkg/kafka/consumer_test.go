package kafka

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConsumer(retries int, dlq *fakeWriter) *Consumer {
	cfg := &ConsumerConfig{
		GroupID:     "test",
		WorkerCount: 1,
		BufferSize:  1,
		RetryMax:    retries,
		BackoffMin:  time.Millisecond,
		BackoffMax:  time.Millisecond,
	}
	c := newConsumer(cfg)
	if dlq != nil {
		cfg.DLQTopic = "signals.dlq"
		c.dlq = dlq
	}
	return c
}

func msgFor(topic string) *message {
	return &message{topic: topic, km: kafka.Message{
		Topic: topic,
		Key:   []byte("AAPL"),
		Value: []byte(`{"symbol":"AAPL"}`),
	}}
}

func TestProcessCommitsOnSuccess(t *testing.T) {
	h := &fakeHandler{topic: "signals"}
	c := testConsumer(2, nil)
	c.RegisterHandler(h)
	com := &fakeCommitter{}

	c.process(msgFor("signals"), com)

	assert.Equal(t, 1, h.calls)
	require.Len(t, com.committed, 1)
	assert.Equal(t, []byte("AAPL"), com.committed[0].Key)
}

func TestProcessRetriesTransientErrors(t *testing.T) {
	h := &fakeHandler{topic: "signals", errs: []error{errBoom, errBoom}}
	c := testConsumer(3, nil)
	c.RegisterHandler(h)
	com := &fakeCommitter{}

	c.process(msgFor("signals"), com)

	assert.Equal(t, 3, h.calls)
	assert.Len(t, com.committed, 1)
}

func TestProcessExhaustedRetriesGoToDLQ(t *testing.T) {
	h := &fakeHandler{topic: "signals", errs: []error{errBoom, errBoom, errBoom, errBoom}}
	dlq := &fakeWriter{}
	c := testConsumer(2, dlq)
	c.RegisterHandler(h)
	com := &fakeCommitter{}

	c.process(msgFor("signals"), com)

	assert.Equal(t, 3, h.calls)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "signals.dlq", dlq.msgs[0].Topic)
	assert.Len(t, com.committed, 1)
}

func TestProcessPermanentErrorSkipsRetries(t *testing.T) {
	h := &fakeHandler{topic: "signals", errs: []error{Permanent(fmt.Errorf("decode: %w", errBoom))}}
	dlq := &fakeWriter{}
	c := testConsumer(5, dlq)
	c.RegisterHandler(h)
	com := &fakeCommitter{}

	c.process(msgFor("signals"), com)

	assert.Equal(t, 1, h.calls)
	require.Len(t, dlq.msgs, 1)
	headers := map[string]string{}
	for _, hd := range dlq.msgs[0].Headers {
		headers[hd.Key] = string(hd.Value)
	}
	assert.Equal(t, "signals", headers["source_topic"])
	assert.Contains(t, headers["error"], "boom")
	assert.Len(t, com.committed, 1)
}

func TestProcessWithoutDLQDoesNotCommitFailures(t *testing.T) {
	h := &fakeHandler{topic: "signals", errs: []error{Permanent(errBoom)}}
	c := testConsumer(0, nil)
	c.RegisterHandler(h)
	com := &fakeCommitter{}

	c.process(msgFor("signals"), com)

	assert.Empty(t, com.committed)
}

func TestProcessFailedDLQWriteDoesNotCommit(t *testing.T) {
	h := &fakeHandler{topic: "signals", errs: []error{Permanent(errBoom)}}
	c := testConsumer(0, &fakeWriter{err: errBoom})
	c.RegisterHandler(h)
	com := &fakeCommitter{}

	c.process(msgFor("signals"), com)

	assert.Empty(t, com.committed)
}

func TestProcessUnknownTopicIsIgnored(t *testing.T) {
	c := testConsumer(0, nil)
	com := &fakeCommitter{}
	c.process(msgFor("other"), com)
	assert.Empty(t, com.committed)
}

func TestProcessRecoversHandlerPanic(t *testing.T) {
	c := testConsumer(0, nil)
	c.RegisterHandler(panicHandler{})
	assert.NotPanics(t, func() { c.process(msgFor("panics"), &fakeCommitter{}) })
}

type panicHandler struct{}

func (panicHandler) Topic() string { return "panics" }
func (panicHandler) Handle(context.Context, []byte) error { panic("bad payload") }

func TestProcessTraceHookPropagatesTraceID(t *testing.T) {
	h := &fakeHandler{topic: "signals"}
	c := testConsumer(0, nil)
	c.RegisterHandler(h)
	c.WithConsumerHook(NewHookChain(TraceHook()))

	msg := msgFor("signals")
	msg.km.Headers = []kafka.Header{{Key: "trace_id", Value: []byte("abc-123")}}
	c.process(msg, &fakeCommitter{})

	require.Len(t, h.seen, 1)
	assert.Equal(t, "abc-123", TraceIDFromContext(h.seen[0]))
	_, ok := StartTimeFromContext(h.seen[0])
	assert.True(t, ok)
}

func TestRegisterHandlerKeepsFirst(t *testing.T) {
	c := testConsumer(0, nil)
	first := &fakeHandler{topic: "signals"}
	c.RegisterHandler(first)
	c.RegisterHandler(&fakeHandler{topic: "signals"})
	assert.Same(t, first, c.handlers["signals"])
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	require.Error(t, err)
}

func TestStartWithoutHandlers(t *testing.T) {
	c := testConsumer(0, nil)
	require.Error(t, c.Start())
}

func TestPartitionLockIsStable(t *testing.T) {
	c := testConsumer(0, nil)
	a := c.partitionLock("signals", 0)
	assert.Same(t, a, c.partitionLock("signals", 0))
	assert.NotSame(t, a, c.partitionLock("signals", 1))
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 200*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	err := fmt.Errorf("wrap: %w", Permanent(errBoom))
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, IsPermanent(errBoom))
}
