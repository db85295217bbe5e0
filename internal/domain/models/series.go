package models

import (
	"math"
	"time"
)

// Observation is one (timestamp, price) point of a series.
type Observation struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
}

// PriceSeries is an immutable, chronologically ordered price history.
// Construct it with NewPriceSeries so the ordering and positivity hold.
type PriceSeries struct {
	Symbol string
	points []Observation
}

// NewPriceSeries copies points into a series, rejecting out-of-order
// timestamps and non-positive or non-finite prices.
func NewPriceSeries(symbol string, points []Observation) (PriceSeries, error) {
	cp := make([]Observation, len(points))
	for i, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) || p.Value <= 0 {
			return PriceSeries{}, &DataError{Msg: "price must be positive and finite", Index: i}
		}
		if i > 0 && !p.Time.After(points[i-1].Time) {
			return PriceSeries{}, &DataError{Msg: "timestamps must be strictly increasing", Index: i}
		}
		cp[i] = p
	}
	return PriceSeries{Symbol: symbol, points: cp}, nil
}

// SeriesFromCandles builds a close-price series from candles ordered by bucket.
func SeriesFromCandles(symbol string, candles []Candle) (PriceSeries, error) {
	pts := make([]Observation, 0, len(candles))
	for _, c := range candles {
		pts = append(pts, Observation{Time: c.Bucket, Value: c.Close})
	}
	return NewPriceSeries(symbol, pts)
}

func (s PriceSeries) Len() int { return len(s.points) }

func (s PriceSeries) At(i int) Observation { return s.points[i] }

// Values returns a fresh copy of the prices.
func (s PriceSeries) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// Points returns a fresh copy of the observations.
func (s PriceSeries) Points() []Observation {
	out := make([]Observation, len(s.points))
	copy(out, s.points)
	return out
}

// Candle represents an OHLCV record as stored in the candle tables.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
