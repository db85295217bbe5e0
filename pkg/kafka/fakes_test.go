package kafka

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeCommitter struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (c *fakeCommitter) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, msgs...)
	return nil
}

type fakeHandler struct {
	topic string
	calls int
	errs  []error
	seen  []context.Context
}

func (h *fakeHandler) Topic() string { return h.topic }

func (h *fakeHandler) Handle(ctx context.Context, _ []byte) error {
	h.seen = append(h.seen, ctx)
	i := h.calls
	h.calls++
	if i < len(h.errs) {
		return h.errs[i]
	}
	return nil
}

var errBoom = errors.New("boom")
