package consensus

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"SignalDesk/internal/domain/models"
)

// Distribution selects the reference distribution of the vote test.
type Distribution string

const (
	Normal   Distribution = "normal"
	StudentT Distribution = "student"
)

// zeroVarianceTol is the relative spread below which samples count as equal.
const zeroVarianceTol = 1e-12

// significance runs a two-sided one-sample test of mean(x) == 0.
func significance(x []float64, alpha float64, dist Distribution) (models.SignificanceTest, error) {
	n := len(x)
	if n < 2 {
		return models.SignificanceTest{}, &models.StatisticalError{Reason: "fewer than two samples", N: n}
	}
	mean, sd := stat.MeanStdDev(x, nil)
	if math.IsNaN(sd) || sd <= zeroVarianceTol*math.Max(1, math.Abs(mean)) {
		return models.SignificanceTest{}, &models.StatisticalError{Reason: "zero variance", N: n}
	}

	t := mean / (sd / math.Sqrt(float64(n)))
	res := models.SignificanceTest{
		Distribution: string(dist),
		N:            n,
		Mean:         mean,
		StdDev:       sd,
		Statistic:    t,
		Alpha:        alpha,
	}
	switch dist {
	case StudentT:
		res.DF = n - 1
		ref := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(res.DF)}
		res.PValue = 2 * (1 - ref.CDF(math.Abs(t)))
	case Normal:
		res.PValue = 2 * (1 - distuv.UnitNormal.CDF(math.Abs(t)))
	default:
		return models.SignificanceTest{}, &models.StatisticalError{Reason: fmt.Sprintf("unknown distribution %q", dist), N: n}
	}
	if math.IsNaN(res.PValue) {
		return models.SignificanceTest{}, &models.StatisticalError{Reason: "undefined p-value", N: n}
	}
	res.Significant = res.PValue < alpha
	return res, nil
}
