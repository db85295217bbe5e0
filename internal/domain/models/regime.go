package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VolatilityRegime is an ordered volatility bucket, 0 being the calmest.
type VolatilityRegime int

const (
	RegimeLow VolatilityRegime = iota
	RegimeMedium
	RegimeHigh
)

// DefaultRegimeCount is the number of buckets used when none is configured.
const DefaultRegimeCount = 3

// Name renders the regime for a classifier configured with count buckets.
// Two and three buckets get LOW/MEDIUM/HIGH style names, anything else R<i>.
func (r VolatilityRegime) Name(count int) string {
	switch {
	case count == 3:
		return [...]string{"LOW", "MEDIUM", "HIGH"}[clampLevel(int(r), 3)]
	case count == 2:
		return [...]string{"LOW", "HIGH"}[clampLevel(int(r), 2)]
	default:
		return "R" + strconv.Itoa(int(r))
	}
}

func (r VolatilityRegime) String() string { return r.Name(DefaultRegimeCount) }

func clampLevel(l, n int) int {
	if l < 0 {
		return 0
	}
	if l >= n {
		return n - 1
	}
	return l
}

// ParseRegime resolves a regime name (or numeric level) for count buckets.
func ParseRegime(name string, count int) (VolatilityRegime, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i := 0; i < count; i++ {
		if VolatilityRegime(i).Name(count) == name {
			return VolatilityRegime(i), nil
		}
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(name, "R")); err == nil && n >= 0 && n < count {
		return VolatilityRegime(n), nil
	}
	return 0, fmt.Errorf("unknown regime %q for %d buckets", name, count)
}

// RegimeLabel is the classification of a single post-warm-up timestamp.
type RegimeLabel struct {
	Index      int              `json:"index"`
	Time       time.Time        `json:"t"`
	Volatility float64          `json:"volatility"`
	Regime     VolatilityRegime `json:"regime"`
}

// RegimeClassification is the labeled series produced by the classifier.
type RegimeClassification struct {
	Window       int           `json:"window"`
	Count        int           `json:"count"`
	CutPoints    []float64     `json:"cut_points"`
	Labels       []RegimeLabel `json:"labels"`
	Distribution []int         `json:"distribution"`
}

// Current is the regime of the latest labeled timestamp.
func (c *RegimeClassification) Current() VolatilityRegime {
	if len(c.Labels) == 0 {
		return RegimeLow
	}
	return c.Labels[len(c.Labels)-1].Regime
}

// Indices returns the series positions labeled with r, in time order.
func (c *RegimeClassification) Indices(r VolatilityRegime) []int {
	var out []int
	for _, l := range c.Labels {
		if l.Regime == r {
			out = append(out, l.Index)
		}
	}
	return out
}
