package repository

import "fmt"

// Timeframe is a candle resolution. Each one maps to its own
// candles_<tf> table in the price store.
type Timeframe string

const (
	TF1s Timeframe = "1s"
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
)

// Valid reports whether the price store keeps candles at tf.
func (tf Timeframe) Valid() bool {
	return tf == TF1s || tf == TF1m || tf == TF5m
}

// ParseTimeframe maps a query value to a Timeframe. Empty means one minute.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return TF1m, nil
	}
	tf := Timeframe(s)
	if !tf.Valid() {
		return "", fmt.Errorf("unsupported timeframe %q, want one of 1s, 1m, 5m", s)
	}
	return tf, nil
}
