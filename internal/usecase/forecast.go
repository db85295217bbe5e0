package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	icache "SignalDesk/internal/service/cache"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/util"
)

// ErrPriceStoreDisabled is returned by symbol lookups when no price history
// backend is configured.
var ErrPriceStoreDisabled = errors.New("price store is not configured")

// ForecastUseCase classifies a price series and forecasts it from the model
// of the selected regime.
type ForecastUseCase struct {
	classifier domsvc.RegimeClassifier
	forecaster domsvc.RegimeForecaster
	store      domrepo.PriceStore
	metrics    domrepo.Metrics
	l          *applogger.Logger

	cache    icache.BytesCache
	cacheTTL time.Duration
}

func NewForecastUseCase(classifier domsvc.RegimeClassifier, forecaster domsvc.RegimeForecaster, metrics domrepo.Metrics, l *applogger.Logger) *ForecastUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &ForecastUseCase{classifier: classifier, forecaster: forecaster, metrics: metrics, l: l}
}

// SetStore enables GET-by-symbol forecasts.
func (uc *ForecastUseCase) SetStore(s domrepo.PriceStore) { uc.store = s }

// SetCache enables response caching. A zero ttl disables it.
func (uc *ForecastUseCase) SetCache(c icache.BytesCache, ttl time.Duration) {
	uc.cache = c
	uc.cacheTTL = ttl
}

// ForecastParams are the per-call overrides of the forecast defaults.
type ForecastParams struct {
	Horizon    int
	Confidence float64
	Regime     string
}

// Run classifies series and produces the regime-conditional forecast.
func (uc *ForecastUseCase) Run(ctx context.Context, series models.PriceSeries, p ForecastParams) (*models.ForecastRun, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("forecast", time.Since(start).Seconds()) }()

	req := domsvc.ForecastRequest{Horizon: p.Horizon, Confidence: p.Confidence}
	if p.Regime != "" {
		r, err := models.ParseRegime(p.Regime, uc.classifier.RegimeCount())
		if err != nil {
			uc.metrics.RecordError("invalid_request")
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
		}
		req.Regime = &r
	}

	cls, err := uc.classifier.Classify(series)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("classify %s: %w", series.Symbol, err)
	}

	run, err := uc.forecaster.Forecast(ctx, series, cls, req)
	if err != nil {
		var nm *models.NoModelError
		if errors.As(err, &nm) {
			for regime, reason := range nm.Reasons {
				uc.metrics.RecordFitFailure(regime)
				uc.l.Warn("regime model unavailable",
					applogger.String("symbol", series.Symbol),
					applogger.String("regime", regime),
					applogger.String("reason", reason),
				)
			}
		}
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("forecast %s: %w", series.Symbol, err)
	}

	for _, m := range run.Models {
		if !m.Available {
			uc.metrics.RecordFitFailure(m.RegimeName)
			uc.l.Warn("regime model unavailable",
				applogger.String("symbol", series.Symbol),
				applogger.String("regime", m.RegimeName),
				applogger.String("reason", m.Reason),
			)
		}
	}
	f := run.Forecast
	uc.metrics.RecordForecast(f.RegimeName, f.FallbackUsed)
	uc.l.Info("forecast completed",
		applogger.String("symbol", series.Symbol),
		applogger.Int("observations", series.Len()),
		applogger.String("current_regime", f.CurrentRegime.Name(cls.Count)),
		applogger.String("regime", f.RegimeName),
		applogger.String("order", f.Model.Order.String()),
		applogger.Bool("fallback", f.FallbackUsed),
		applogger.Int("horizon", len(f.Points)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return run, nil
}

// RunRequest forecasts an inline price series.
func (uc *ForecastUseCase) RunRequest(ctx context.Context, req *models.ForecastRequest) (*models.ForecastRun, error) {
	return uc.cached(ctx, "inline", req, func() (*models.ForecastRun, error) {
		series, err := seriesFromRequest(req)
		if err != nil {
			uc.metrics.RecordError(errorKind(err))
			return nil, err
		}
		return uc.Run(ctx, series, ForecastParams{Horizon: req.Horizon, Confidence: req.Confidence, Regime: req.Regime})
	})
}

// RunForSymbol loads history from the price store and forecasts it. A
// from/to pair selects a time range, otherwise the latest N candles are used.
func (uc *ForecastUseCase) RunForSymbol(ctx context.Context, q *models.ForecastQuery) (*models.ForecastRun, error) {
	if uc.store == nil {
		return nil, ErrPriceStoreDisabled
	}
	return uc.cached(ctx, "symbol", q, func() (*models.ForecastRun, error) {
		tf, err := domrepo.ParseTimeframe(q.TF)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
		}
		var candles []models.Candle
		if q.From != "" || q.To != "" {
			from, okFrom := util.ParseTime(q.From)
			to, okTo := util.ParseTime(q.To)
			if !okFrom || !okTo || from.After(to) {
				return nil, fmt.Errorf("%w: from/to must both be valid times with from <= to", models.ErrInvalidRequest)
			}
			from, to = util.AlignFromTo(from, to, string(tf))
			candles, err = uc.store.GetCandles(ctx, q.Symbol, from, to, tf)
		} else {
			candles, err = uc.store.GetLatestNCandles(ctx, q.Symbol, q.N, tf)
		}
		if err != nil {
			uc.metrics.RecordError("price_store")
			return nil, fmt.Errorf("load prices for %s: %w", q.Symbol, err)
		}
		series, err := models.SeriesFromCandles(q.Symbol, candles)
		if err != nil {
			uc.metrics.RecordError(errorKind(err))
			return nil, err
		}
		return uc.Run(ctx, series, ForecastParams{Horizon: q.Horizon, Confidence: q.Confidence, Regime: q.Regime})
	})
}

func (uc *ForecastUseCase) cached(ctx context.Context, kind string, key interface{}, run func() (*models.ForecastRun, error)) (*models.ForecastRun, error) {
	if uc.cache == nil || uc.cacheTTL <= 0 {
		return run()
	}
	ck, err := cacheKey(kind, key)
	if err != nil {
		return run()
	}
	if b, ok, err := uc.cache.GetBytes(ctx, ck); err != nil {
		uc.l.Warn("forecast cache_get_error", applogger.Error(err))
	} else if ok {
		var out models.ForecastRun
		if err := json.Unmarshal(b, &out); err == nil {
			uc.l.Debug("forecast cache_hit", applogger.String("key", ck))
			return &out, nil
		}
	}

	res, err := run()
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(res); err == nil {
		if err := uc.cache.SetBytes(ctx, ck, b, uc.cacheTTL); err != nil {
			uc.l.Warn("forecast cache_set_error", applogger.Error(err))
		}
	}
	return res, nil
}

func cacheKey(kind string, v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "forecast:" + kind + ":" + hex.EncodeToString(sum[:]), nil
}

func seriesFromRequest(req *models.ForecastRequest) (models.PriceSeries, error) {
	pts := make([]models.Observation, len(req.Prices))
	for i, p := range req.Prices {
		t, ok := util.ParseTime(p.T)
		if !ok {
			return models.PriceSeries{}, &models.DataError{Msg: fmt.Sprintf("unparseable timestamp %q", p.T), Index: i}
		}
		pts[i] = models.Observation{Time: t, Value: p.V}
	}
	return models.NewPriceSeries(req.Symbol, pts)
}

// errorKind buckets an error for the errors_total metric.
func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrData):
		return "data"
	case errors.Is(err, models.ErrNoModelAvailable):
		return "no_model"
	case errors.Is(err, models.ErrFit):
		return "fit"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
