package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// ComputeMetrics summarizes prices and simple returns per regime. Returns
// are taken from the full series so a regime's first point still has one.
func ComputeMetrics(series models.PriceSeries, cls *models.RegimeClassification, annualization float64) []models.RegimeMetrics {
	prices := series.Values()
	returns := features.SimpleReturns(prices)
	out := make([]models.RegimeMetrics, cls.Count)
	for r := 0; r < cls.Count; r++ {
		regime := models.VolatilityRegime(r)
		idx := cls.Indices(regime)
		m := models.RegimeMetrics{
			Regime:     regime,
			RegimeName: regime.Name(cls.Count),
			Count:      len(idx),
		}
		if len(cls.Labels) > 0 {
			m.Share = float64(len(idx)) / float64(len(cls.Labels))
		}
		if len(idx) > 0 {
			px := make([]float64, len(idx))
			rets := make([]float64, 0, len(idx))
			for i, j := range idx {
				px[i] = prices[j]
				if j > 0 {
					rets = append(rets, returns[j-1])
				}
			}
			m.MeanPrice, m.StdPrice = meanStd(px)
			var retStd float64
			m.MeanReturn, retStd = meanStd(rets)
			m.AnnualizedVol = retStd * math.Sqrt(annualization)
		}
		out[r] = m
	}
	return out
}

func meanStd(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
