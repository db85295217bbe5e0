package forecast

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/arima"
)

var _ domsvc.RegimeForecaster = (*Forecaster)(nil)

// Config holds forecast defaults and estimation settings.
type Config struct {
	Horizon    int
	Confidence float64
	Order      models.ModelOrder
	// Search, when set, replaces Order with a lowest-AIC grid search.
	Search        *arima.Grid
	Estimation    arima.Options
	Parallelism   int
	Annualization float64
}

func DefaultConfig() Config {
	return Config{
		Horizon:       5,
		Confidence:    0.95,
		Order:         models.ModelOrder{P: 2, D: 1, Q: 2},
		Estimation:    arima.DefaultOptions(),
		Annualization: 252,
	}
}

// Forecaster fits one ARIMA per regime and forecasts from the model of the
// requested regime, falling back to the best available one.
type Forecaster struct {
	cfg Config
}

func New(cfg Config) (*Forecaster, error) {
	if cfg.Horizon < 1 {
		return nil, fmt.Errorf("forecast horizon must be >= 1, got %d", cfg.Horizon)
	}
	if !(cfg.Confidence > 0 && cfg.Confidence < 1) {
		return nil, fmt.Errorf("forecast confidence must be in (0,1), got %v", cfg.Confidence)
	}
	if cfg.Annualization <= 0 {
		cfg.Annualization = 252
	}
	return &Forecaster{cfg: cfg}, nil
}

// regimeFit is one arena slot.
type regimeFit struct {
	meta  models.RegimeModel
	model *arima.Model
}

func (f *Forecaster) Forecast(ctx context.Context, series models.PriceSeries, cls *models.RegimeClassification, req domsvc.ForecastRequest) (*models.ForecastRun, error) {
	h, conf := req.Horizon, req.Confidence
	if h == 0 {
		h = f.cfg.Horizon
	}
	if conf == 0 {
		conf = f.cfg.Confidence
	}
	if h < 1 {
		return nil, fmt.Errorf("%w: horizon must be >= 1, got %d", models.ErrInvalidRequest, h)
	}
	if !(conf > 0 && conf < 1) {
		return nil, fmt.Errorf("%w: confidence must be in (0,1), got %v", models.ErrInvalidRequest, conf)
	}
	if cls == nil || len(cls.Labels) == 0 || cls.Count < 1 {
		return nil, fmt.Errorf("%w: empty regime classification", models.ErrInvalidRequest)
	}
	if last := cls.Labels[len(cls.Labels)-1].Index; last >= series.Len() {
		return nil, fmt.Errorf("%w: classification does not match series (index %d of %d)", models.ErrInvalidRequest, last, series.Len())
	}

	current := cls.Current()
	target := current
	if req.Regime != nil {
		target = *req.Regime
		if int(target) < 0 || int(target) >= cls.Count {
			return nil, fmt.Errorf("%w: regime %d out of range [0,%d)", models.ErrInvalidRequest, target, cls.Count)
		}
	}

	arena, err := f.fitAll(ctx, series, cls)
	if err != nil {
		return nil, err
	}

	chosen, fallback, err := selectRegime(arena, target, cls.Count)
	if err != nil {
		return nil, err
	}
	slot := arena[chosen]
	points, err := slot.model.Forecast(h, conf)
	if err != nil {
		return nil, fmt.Errorf("forecast regime %s: %w", slot.meta.RegimeName, err)
	}

	run := &models.ForecastRun{
		Symbol: series.Symbol,
		Forecast: models.Forecast{
			Confidence:    conf,
			CurrentRegime: current,
			Regime:        chosen,
			RegimeName:    chosen.Name(cls.Count),
			FallbackUsed:  fallback,
			Model:         slot.meta,
			Points:        points,
		},
		Classification: cls,
		Models:         make([]models.RegimeModel, cls.Count),
		Metrics:        ComputeMetrics(series, cls, f.cfg.Annualization),
	}
	for r := 0; r < cls.Count; r++ {
		run.Models[r] = arena[models.VolatilityRegime(r)].meta
	}
	return run, nil
}

// fitAll estimates every regime independently. Each goroutine writes only
// its own slot, and the map is assembled after Wait.
func (f *Forecaster) fitAll(ctx context.Context, series models.PriceSeries, cls *models.RegimeClassification) (map[models.VolatilityRegime]*regimeFit, error) {
	prices := series.Values()
	slots := make([]*regimeFit, cls.Count)

	g, gctx := errgroup.WithContext(ctx)
	if f.cfg.Parallelism > 0 {
		g.SetLimit(f.cfg.Parallelism)
	}
	for r := 0; r < cls.Count; r++ {
		r := r
		regime := models.VolatilityRegime(r)
		idx := cls.Indices(regime)
		sub := make([]float64, len(idx))
		for i, j := range idx {
			sub[i] = prices[j]
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[r] = f.fitRegime(regime, cls.Count, sub)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	arena := make(map[models.VolatilityRegime]*regimeFit, cls.Count)
	for r, s := range slots {
		arena[models.VolatilityRegime(r)] = s
	}
	return arena, nil
}

func (f *Forecaster) fitRegime(regime models.VolatilityRegime, count int, values []float64) *regimeFit {
	name := regime.Name(count)
	slot := &regimeFit{meta: models.RegimeModel{
		Regime:     regime,
		RegimeName: name,
		Order:      f.cfg.Order,
		NObs:       len(values),
	}}

	var (
		m   *arima.Model
		err error
	)
	if f.cfg.Search != nil {
		m, err = arima.Search(values, *f.cfg.Search, f.cfg.Estimation)
	} else {
		m, err = arima.Fit(values, f.cfg.Order, f.cfg.Estimation)
	}
	if err != nil {
		var fe *models.FitError
		if errors.As(err, &fe) {
			fe.Regime = name
		}
		slot.meta.Reason = err.Error()
		return slot
	}

	slot.model = m
	slot.meta.Available = true
	slot.meta.Order = m.Order()
	slot.meta.AIC = m.AIC()
	slot.meta.BIC = m.BIC()
	slot.meta.LogLik = m.LogLikelihood()
	slot.meta.Sigma2 = m.Sigma2()
	return slot
}

// selectRegime returns target when its model is available, otherwise the
// available regime with the lowest AIC (lowest level on ties).
func selectRegime(arena map[models.VolatilityRegime]*regimeFit, target models.VolatilityRegime, count int) (models.VolatilityRegime, bool, error) {
	if s := arena[target]; s != nil && s.meta.Available {
		return target, false, nil
	}
	best := -1
	for r := 0; r < count; r++ {
		s := arena[models.VolatilityRegime(r)]
		if s == nil || !s.meta.Available {
			continue
		}
		if best < 0 || s.meta.AIC < arena[models.VolatilityRegime(best)].meta.AIC {
			best = r
		}
	}
	if best < 0 {
		reasons := make(map[string]string, count)
		for r := 0; r < count; r++ {
			if s := arena[models.VolatilityRegime(r)]; s != nil {
				reasons[s.meta.RegimeName] = s.meta.Reason
			}
		}
		return 0, false, &models.NoModelError{Reasons: reasons}
	}
	return models.VolatilityRegime(best), true, nil
}
