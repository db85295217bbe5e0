package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"SignalDesk/internal/domain/models"
	xhttp "SignalDesk/pkg/http"
)

// Options tunes how a remote source is called.
type Options struct {
	Timeout         time.Duration
	Retries         uint64
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultOptions mirrors the consensus config defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:         5 * time.Second,
		Retries:         2,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

type opinionRequest struct {
	Symbol string `json:"symbol"`
}

type opinionResponse struct {
	Direction  int     `json:"direction"`
	Confidence float64 `json:"confidence"`
}

// HTTPSource asks a remote analysis service for its opinion on a symbol.
// The service answers POST {symbol} with {direction, confidence}; the
// configured reliability is attached locally.
type HTTPSource struct {
	name        string
	url         string
	reliability float64
	retries     uint64
	client      *xhttp.Client
	breaker     *gobreaker.CircuitBreaker
}

func NewHTTPSource(name, url string, reliability float64, opts Options) *HTTPSource {
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	return &HTTPSource{
		name:        name,
		url:         url,
		reliability: reliability,
		retries:     opts.Retries,
		client:      xhttp.NewClient(xhttp.WithTimeout(opts.Timeout)),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "source-" + name,
			Timeout: opts.BreakerCooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
		}),
	}
}

func (s *HTTPSource) Name() string { return s.name }

// Signal fetches one opinion. Rejected requests (4xx other than 429) are
// not retried.
func (s *HTTPSource) Signal(ctx context.Context, symbol string) (models.AgentSignal, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		var resp opinionResponse
		op := func() error {
			err := s.client.PostJSON(ctx, s.url, opinionRequest{Symbol: symbol}, &resp)
			var se *xhttp.StatusError
			if errors.As(err, &se) && !se.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 50 * time.Millisecond
		if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, s.retries), ctx)); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return models.AgentSignal{}, fmt.Errorf("source %s: %w", s.name, err)
	}
	resp := out.(opinionResponse)
	return models.AgentSignal{
		Source:      s.name,
		Direction:   resp.Direction,
		Confidence:  resp.Confidence,
		Reliability: s.reliability,
	}, nil
}
