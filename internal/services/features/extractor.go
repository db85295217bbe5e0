package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LogReturns computes r_t = ln(P_t / P_{t-1}). The result has len(prices)-1
// entries and is nil when fewer than two prices are given.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// SimpleReturns computes P_t / P_{t-1} - 1.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, prices[i]/prices[i-1]-1)
	}
	return out
}

// RollingVolatility returns the annualized sample standard deviation of
// every full window of returns. Entry j covers returns[j : j+window], so the
// result has len(returns)-window+1 entries.
func RollingVolatility(returns []float64, window int, annualization float64) []float64 {
	if window <= 1 || len(returns) < window {
		return nil
	}
	scale := math.Sqrt(annualization)
	out := make([]float64, 0, len(returns)-window+1)
	for end := window; end <= len(returns); end++ {
		out = append(out, stat.StdDev(returns[end-window:end], nil)*scale)
	}
	return out
}

// RealizedVolatility is the annualized volatility of the latest window.
func RealizedVolatility(returns []float64, window int, annualization float64) float64 {
	if window <= 1 || len(returns) < window {
		return 0
	}
	return stat.StdDev(returns[len(returns)-window:], nil) * math.Sqrt(annualization)
}

// BarsPerYearForTF returns the approximate number of bars per year for a timeframe.
func BarsPerYearForTF(tf string) float64 {
	switch tf {
	case "1s":
		return 365 * 24 * 60 * 60
	case "1m":
		return 365 * 24 * 60
	case "5m":
		return 365 * 24 * 12
	default:
		return 252
	}
}
