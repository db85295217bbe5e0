package usecase

import (
	"context"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

type fakeMetrics struct {
	mu          sync.Mutex
	decisions   map[models.Recommendation]int
	forecasts   map[string]int
	fitFailures map[string]int
	errs        map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		decisions:   map[models.Recommendation]int{},
		forecasts:   map[string]int{},
		fitFailures: map[string]int{},
		errs:        map[string]int{},
	}
}

func (m *fakeMetrics) RecordDecision(rec models.Recommendation, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[rec]++
}

func (m *fakeMetrics) RecordForecast(regime string, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts[regime]++
}

func (m *fakeMetrics) RecordFitFailure(regime string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fitFailures[regime]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakeStore struct {
	candles     []models.Candle
	err         error
	latestCalls int
	rangeCalls  int
	from, to    time.Time
}

func (s *fakeStore) GetCandles(_ context.Context, _ string, from, to time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	s.rangeCalls++
	s.from, s.to = from, to
	return s.candles, s.err
}

func (s *fakeStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	s.latestCalls++
	if n < len(s.candles) {
		return s.candles[len(s.candles)-n:], s.err
	}
	return s.candles, s.err
}

type fakePublisher struct {
	msgs []models.DecisionMessage
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, msg models.DecisionMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeSource struct {
	name string
	sig  models.AgentSignal
	err  error
}

func (s fakeSource) Name() string { return s.name }

func (s fakeSource) Signal(context.Context, string) (models.AgentSignal, error) {
	return s.sig, s.err
}
