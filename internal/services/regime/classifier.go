package regime

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/features"
)

var _ domsvc.RegimeClassifier = (*Classifier)(nil)

// Config controls the rolling window and bucket layout.
type Config struct {
	Window        int
	Count         int
	Annualization float64
}

// DefaultConfig returns a 20-period window, three buckets, 252 periods a year.
func DefaultConfig() Config {
	return Config{Window: 20, Count: models.DefaultRegimeCount, Annualization: 252}
}

// Classifier buckets rolling realized volatility into ordered regimes.
// It holds no state beyond its configuration and is safe for concurrent use.
type Classifier struct {
	cfg Config
}

func New(cfg Config) (*Classifier, error) {
	if cfg.Window < 2 {
		return nil, fmt.Errorf("regime window must be >= 2, got %d", cfg.Window)
	}
	if cfg.Count < 1 {
		return nil, fmt.Errorf("regime count must be >= 1, got %d", cfg.Count)
	}
	if cfg.Annualization <= 0 {
		return nil, fmt.Errorf("annualization factor must be positive, got %v", cfg.Annualization)
	}
	return &Classifier{cfg: cfg}, nil
}

func (c *Classifier) RegimeCount() int { return c.cfg.Count }

// Classify labels every timestamp from index Window onwards. The cut points
// are taken over the whole labeled history, so earlier labels depend on
// later data.
func (c *Classifier) Classify(series models.PriceSeries) (*models.RegimeClassification, error) {
	n := series.Len()
	if n < c.cfg.Window+1 {
		return nil, &models.DataError{
			Msg:      "series shorter than volatility window",
			Required: c.cfg.Window + 1,
			Got:      n,
		}
	}

	returns := features.LogReturns(series.Values())
	vols := features.RollingVolatility(returns, c.cfg.Window, c.cfg.Annualization)
	levels, cuts := Bucketize(vols, c.cfg.Count)

	out := &models.RegimeClassification{
		Window:       c.cfg.Window,
		Count:        c.cfg.Count,
		CutPoints:    cuts,
		Labels:       make([]models.RegimeLabel, len(vols)),
		Distribution: make([]int, c.cfg.Count),
	}
	for j, v := range vols {
		idx := j + c.cfg.Window
		out.Labels[j] = models.RegimeLabel{
			Index:      idx,
			Time:       series.At(idx).Time,
			Volatility: v,
			Regime:     levels[j],
		}
		out.Distribution[levels[j]]++
	}
	return out, nil
}

// CutPoints returns the count-1 empirical quantiles of vols at i/count.
func CutPoints(vols []float64, count int) []float64 {
	if count < 2 || len(vols) == 0 {
		return nil
	}
	sorted := make([]float64, len(vols))
	copy(sorted, vols)
	sort.Float64s(sorted)

	cuts := make([]float64, count-1)
	for i := 1; i < count; i++ {
		cuts[i-1] = stat.Quantile(float64(i)/float64(count), stat.Empirical, sorted, nil)
	}
	return cuts
}

// Bucketize maps each volatility to the number of cut points strictly below
// it, so bucket i holds cut[i-1] < v <= cut[i].
func Bucketize(vols []float64, count int) ([]models.VolatilityRegime, []float64) {
	cuts := CutPoints(vols, count)
	out := make([]models.VolatilityRegime, len(vols))
	for i, v := range vols {
		out[i] = models.VolatilityRegime(sort.Search(len(cuts), func(j int) bool { return cuts[j] >= v }))
	}
	return out, cuts
}
