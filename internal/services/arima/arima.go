package arima

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"SignalDesk/internal/domain/models"
)

const (
	maxARMAOrder = 10
	maxDiff      = 2

	// objective value for parameters outside the stationary/invertible region
	invalidObjective = 1e100
)

// Options tune estimation.
type Options struct {
	// MinObservations is a floor on top of the 4*(p+d+q+1) rule.
	MinObservations int
	MaxIterations   int
}

func DefaultOptions() Options {
	return Options{MinObservations: 20, MaxIterations: 5000}
}

// MinRequired is the number of observations needed to fit order.
func MinRequired(order models.ModelOrder, opts Options) int {
	n := 4 * (order.P + order.D + order.Q + 1)
	if opts.MinObservations > n {
		n = opts.MinObservations
	}
	return n
}

// Model is a fitted ARIMA(p,d,q). The ARMA part is estimated by conditional
// sum of squares; a constant is carried only when d == 0.
type Model struct {
	order   models.ModelOrder
	phi     []float64
	theta   []float64
	mean    float64
	z       []float64 // differenced, demeaned series
	resid   []float64
	tails   []float64 // last value of each differencing level, level 0 first
	nobs    int
	sigma2  float64
	llf     float64
	aic     float64
	bic     float64
	nParams int
}

// Fit estimates order on y. y is not retained.
func Fit(y []float64, order models.ModelOrder, opts Options) (*Model, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	fail := func(reason string, err error) error {
		return &models.FitError{Order: order, NObs: len(y), Reason: reason, Err: err}
	}

	if order.P < 0 || order.Q < 0 || order.D < 0 || order.P > maxARMAOrder || order.Q > maxARMAOrder || order.D > maxDiff {
		return nil, fail("invalid order", nil)
	}
	if need := MinRequired(order, opts); len(y) < need {
		return nil, fail(fmt.Sprintf("insufficient observations (need %d)", need), nil)
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fail("non-finite observation", nil)
		}
	}

	level := append([]float64(nil), y...)
	tails := make([]float64, 0, order.D)
	for i := 0; i < order.D; i++ {
		tails = append(tails, level[len(level)-1])
		level = difference(level)
	}

	m := &Model{order: order, tails: tails}
	if order.D == 0 {
		m.mean = stat.Mean(level, nil)
	}
	m.z = make([]float64, len(level))
	for i, v := range level {
		m.z[i] = v - m.mean
	}
	m.resid = make([]float64, len(m.z))

	p, q := order.P, order.Q
	params := make([]float64, p+q)
	if len(params) > 0 {
		problem := optimize.Problem{Func: func(x []float64) float64 {
			phi, theta := x[:p], x[p:]
			if !stationary(phi) || !invertible(theta) {
				return invalidObjective
			}
			sse := conditionalSSE(m.z, phi, theta, m.resid)
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return invalidObjective
			}
			return sse
		}}
		settings := &optimize.Settings{
			MajorIterations: opts.MaxIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-12,
				Relative:   1e-9,
				Iterations: 200,
			},
		}
		res, err := optimize.Minimize(problem, make([]float64, len(params)), settings, &optimize.NelderMead{})
		if err != nil {
			return nil, fail("optimizer failed", err)
		}
		if !converged(res.Status) {
			return nil, fail("optimizer did not converge: "+res.Status.String(), nil)
		}
		if res.F >= invalidObjective {
			return nil, fail("no stationary and invertible solution", nil)
		}
		copy(params, res.X)
	}
	m.phi = append([]float64(nil), params[:p]...)
	m.theta = append([]float64(nil), params[p:]...)

	sse := conditionalSSE(m.z, m.phi, m.theta, m.resid)
	m.nobs = len(m.z) - p
	m.sigma2 = sse / float64(m.nobs)
	if !(m.sigma2 > 0) || math.IsInf(m.sigma2, 0) {
		return nil, fail("degenerate residual variance", nil)
	}

	n := float64(m.nobs)
	m.nParams = p + q + 1
	if order.D == 0 {
		m.nParams++
	}
	m.llf = -0.5 * n * (math.Log(2*math.Pi*m.sigma2) + 1)
	m.aic = -2*m.llf + 2*float64(m.nParams)
	m.bic = -2*m.llf + float64(m.nParams)*math.Log(n)
	if math.IsNaN(m.aic) || math.IsInf(m.aic, 0) {
		return nil, fail("non-finite information criterion", nil)
	}
	return m, nil
}

func (m *Model) Order() models.ModelOrder { return m.order }
func (m *Model) AR() []float64 { return append([]float64(nil), m.phi...) }
func (m *Model) MA() []float64 { return append([]float64(nil), m.theta...) }
func (m *Model) Mean() float64 { return m.mean }
func (m *Model) NObs() int { return m.nobs }
func (m *Model) Sigma2() float64 { return m.sigma2 }
func (m *Model) LogLikelihood() float64 { return m.llf }
func (m *Model) AIC() float64 { return m.aic }
func (m *Model) BIC() float64 { return m.bic }

// Forecast produces h steps ahead with symmetric normal intervals at the
// given confidence. Future shocks are taken as zero.
func (m *Model) Forecast(h int, confidence float64) ([]models.ForecastPoint, error) {
	if h < 1 {
		return nil, fmt.Errorf("horizon must be >= 1, got %d", h)
	}
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("confidence must be in (0,1), got %v", confidence)
	}

	n := len(m.z)
	z := make([]float64, n+h)
	copy(z, m.z)
	e := make([]float64, n+h)
	copy(e, m.resid)
	for t := n; t < n+h; t++ {
		var v float64
		for i, c := range m.phi {
			if k := t - 1 - i; k >= 0 {
				v += c * z[k]
			}
		}
		for j, c := range m.theta {
			if k := t - 1 - j; k >= 0 {
				v += c * e[k]
			}
		}
		z[t] = v
	}

	path := make([]float64, h)
	for k := range path {
		path[k] = z[n+k] + m.mean
	}
	for lvl := len(m.tails) - 1; lvl >= 0; lvl-- {
		acc := m.tails[lvl]
		for k := range path {
			acc += path[k]
			path[k] = acc
		}
	}

	zq := distuv.UnitNormal.Quantile(0.5 + confidence/2)
	psi := psiWeights(m.phi, m.theta, m.order.D, h)
	out := make([]models.ForecastPoint, h)
	var cum float64
	for k := 0; k < h; k++ {
		cum += psi[k] * psi[k]
		half := zq * math.Sqrt(m.sigma2*cum)
		out[k] = models.ForecastPoint{
			Step:  k + 1,
			Point: path[k],
			Lower: path[k] - half,
			Upper: path[k] + half,
		}
	}
	return out, nil
}

func difference(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}

// conditionalSSE fills resid with one-step errors, conditioning on the first
// p values and on zero pre-sample shocks.
func conditionalSSE(z, phi, theta, resid []float64) float64 {
	p := len(phi)
	for i := range resid {
		resid[i] = 0
	}
	var sse float64
	for t := p; t < len(z); t++ {
		e := z[t]
		for i, c := range phi {
			e -= c * z[t-1-i]
		}
		for j, c := range theta {
			if k := t - 1 - j; k >= 0 {
				e -= c * resid[k]
			}
		}
		resid[t] = e
		sse += e * e
	}
	return sse
}

// psiWeights returns the first h MA(inf) weights of phi(B)(1-B)^d y = theta(B) e.
func psiWeights(phi, theta []float64, d, h int) []float64 {
	ar := make([]float64, 1, len(phi)+1)
	ar[0] = 1
	for _, c := range phi {
		ar = append(ar, -c)
	}
	for i := 0; i < d; i++ {
		next := make([]float64, len(ar)+1)
		for j, c := range ar {
			next[j] += c
			next[j+1] -= c
		}
		ar = next
	}

	psi := make([]float64, h)
	psi[0] = 1
	for j := 1; j < h; j++ {
		var v float64
		if j <= len(theta) {
			v = theta[j-1]
		}
		for i := 1; i < len(ar) && i <= j; i++ {
			v -= ar[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// stationary reports whether 1 - c1 B - ... - ck B^k has all roots outside
// the unit circle.
func stationary(c []float64) bool {
	k := len(c)
	switch k {
	case 0:
		return true
	case 1:
		return math.Abs(c[0]) < 1
	}
	comp := mat.NewDense(k, k, nil)
	for j, v := range c {
		comp.Set(0, j, v)
	}
	for i := 1; i < k; i++ {
		comp.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenNone) {
		return false
	}
	for _, l := range eig.Values(nil) {
		if cmplx.Abs(l) >= 1 {
			return false
		}
	}
	return true
}

// invertible reports whether 1 + t1 B + ... + tk B^k has all roots outside
// the unit circle.
func invertible(theta []float64) bool {
	neg := make([]float64, len(theta))
	for i, v := range theta {
		neg[i] = -v
	}
	return stationary(neg)
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionThreshold, optimize.FunctionConvergence,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}
