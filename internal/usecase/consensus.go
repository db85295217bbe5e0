package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	applogger "SignalDesk/pkg/logger"
)

// ConsensusUseCase runs the rule cascade over signal batches, logs the
// audit trail and ships streamed decisions downstream.
type ConsensusUseCase struct {
	decider   domsvc.ConsensusDecider
	metrics   domrepo.Metrics
	l         *applogger.Logger
	publisher domrepo.DecisionPublisher

	sources       []domsvc.SignalSource
	sourceTimeout time.Duration
	now           func() time.Time
}

func NewConsensusUseCase(decider domsvc.ConsensusDecider, metrics domrepo.Metrics, l *applogger.Logger) *ConsensusUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &ConsensusUseCase{decider: decider, metrics: metrics, l: l, now: time.Now}
}

// SetPublisher enables publishing of streamed decisions.
func (uc *ConsensusUseCase) SetPublisher(p domrepo.DecisionPublisher) { uc.publisher = p }

// SetSources registers the remote sources polled by Collect.
func (uc *ConsensusUseCase) SetSources(sources []domsvc.SignalSource, timeout time.Duration) {
	uc.sources = sources
	uc.sourceTimeout = timeout
}

// Decide validates signals and returns the verdict with its audit trail.
func (uc *ConsensusUseCase) Decide(ctx context.Context, symbol string, signals []models.AgentSignal) (models.ConsensusResult, error) {
	start := time.Now()
	res, err := uc.decider.Decide(signals)
	uc.metrics.RecordLatency("consensus", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		uc.l.Warn("consensus batch rejected",
			applogger.String("symbol", symbol),
			applogger.Int("signals", len(signals)),
			applogger.Error(err),
		)
		return models.ConsensusResult{}, err
	}

	for _, a := range res.Audit {
		uc.l.Debug("consensus rule",
			applogger.String("symbol", symbol),
			applogger.Int("step", a.Step),
			applogger.String("rule", a.Rule),
			applogger.String("outcome", string(a.Outcome)),
			applogger.String("detail", a.Detail),
			applogger.Strings("sources", a.Sources),
		)
	}
	uc.metrics.RecordDecision(res.Recommendation, res.FallbackUsed)
	uc.l.Info("consensus decided",
		applogger.String("symbol", symbol),
		applogger.String("recommendation", string(res.Recommendation)),
		applogger.Float64("strength", res.Strength),
		applogger.String("reason", res.Reason),
		applogger.Bool("fallback", res.FallbackUsed),
		applogger.Int("signals", len(signals)),
	)
	return res, nil
}

// HandleBatch decides one streamed batch and publishes the decision.
func (uc *ConsensusUseCase) HandleBatch(ctx context.Context, msg models.SignalBatchMessage) (models.DecisionMessage, error) {
	res, err := uc.Decide(ctx, msg.Symbol, msg.Signals)
	if err != nil {
		return models.DecisionMessage{}, err
	}
	out := models.DecisionMessage{
		BatchID: msg.BatchID,
		Symbol:  msg.Symbol,
		Result:  res,
		TS:      uc.now().UnixMilli(),
	}
	if uc.publisher == nil {
		return out, nil
	}
	if err := uc.publisher.Publish(ctx, out); err != nil {
		uc.metrics.RecordError("publish")
		uc.l.Error("decision publish failed",
			applogger.String("batch_id", msg.BatchID),
			applogger.String("symbol", msg.Symbol),
			applogger.Error(err),
		)
		return out, err
	}
	return out, nil
}

// CollectResult is one polled batch and its verdict.
type CollectResult struct {
	BatchID string                 `json:"batch_id"`
	Symbol  string                 `json:"symbol"`
	Signals []models.AgentSignal   `json:"signals"`
	Result  models.ConsensusResult `json:"result"`
}

// Collect polls every configured source concurrently and decides the
// resulting batch. Any source failure fails the whole run.
func (uc *ConsensusUseCase) Collect(ctx context.Context, symbol string) (*CollectResult, error) {
	if len(uc.sources) == 0 {
		return nil, fmt.Errorf("%w: no signal sources configured", models.ErrInvalidRequest)
	}
	signals := make([]models.AgentSignal, len(uc.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range uc.sources {
		i, src := i, src
		g.Go(func() error {
			sctx := gctx
			if uc.sourceTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(gctx, uc.sourceTimeout)
				defer cancel()
			}
			s, err := src.Signal(sctx, symbol)
			if err != nil {
				return err
			}
			if s.Source == "" {
				s.Source = src.Name()
			}
			signals[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.metrics.RecordError("source")
		uc.l.Error("signal collection failed", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	res, err := uc.Decide(ctx, symbol, signals)
	if err != nil {
		return nil, err
	}
	return &CollectResult{BatchID: uuid.NewString(), Symbol: symbol, Signals: signals, Result: res}, nil
}

// ErrSourceUnavailable wraps failures of remote signal sources.
var ErrSourceUnavailable = errors.New("signal source unavailable")
