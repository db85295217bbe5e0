package models

import "fmt"

// ModelOrder is an ARIMA (p, d, q) order.
type ModelOrder struct {
	P int `json:"p" yaml:"p"`
	D int `json:"d" yaml:"d"`
	Q int `json:"q" yaml:"q"`
}

func (o ModelOrder) String() string { return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q) }

// RegimeModel describes the model fitted for one regime. Unavailable
// models keep the reason the fit failed.
type RegimeModel struct {
	Regime     VolatilityRegime `json:"regime"`
	RegimeName string           `json:"regime_name"`
	Order      ModelOrder       `json:"order"`
	Available  bool             `json:"available"`
	Reason     string           `json:"reason,omitempty"`
	NObs       int              `json:"n_obs"`
	AIC        float64          `json:"aic,omitempty"`
	BIC        float64          `json:"bic,omitempty"`
	LogLik     float64          `json:"log_likelihood,omitempty"`
	Sigma2     float64          `json:"sigma2,omitempty"`
}

// ForecastPoint is one step of a forecast with its interval.
type ForecastPoint struct {
	Step  int     `json:"step"`
	Point float64 `json:"point"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Forecast is the h-step output of the selected regime model.
type Forecast struct {
	Confidence    float64          `json:"confidence"`
	CurrentRegime VolatilityRegime `json:"current_regime"`
	Regime        VolatilityRegime `json:"regime"`
	RegimeName    string           `json:"regime_name"`
	FallbackUsed  bool             `json:"fallback_used"`
	Model         RegimeModel      `json:"model"`
	Points        []ForecastPoint  `json:"points"`
}

// RegimeMetrics summarizes the observations that fell into one regime.
type RegimeMetrics struct {
	Regime        VolatilityRegime `json:"regime"`
	RegimeName    string           `json:"regime_name"`
	Count         int              `json:"count"`
	Share         float64          `json:"share"`
	MeanPrice     float64          `json:"mean_price"`
	StdPrice      float64          `json:"std_price"`
	MeanReturn    float64          `json:"mean_return"`
	AnnualizedVol float64          `json:"annualized_volatility"`
}

// ForecastRun bundles a forecast with the classification and per-regime
// diagnostics it was derived from.
type ForecastRun struct {
	Symbol         string                `json:"symbol,omitempty"`
	Forecast       Forecast              `json:"forecast"`
	Classification *RegimeClassification `json:"classification"`
	Models         []RegimeModel         `json:"models"`
	Metrics        []RegimeMetrics       `json:"metrics"`
}
