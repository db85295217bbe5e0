package arima

import (
	"fmt"

	"SignalDesk/internal/domain/models"
)

// Grid bounds an order search. Orders are tried with p, then d, then q
// ascending, and the first lowest AIC wins.
//
// AIC is compared across d even though each d fits a differently
// differenced series, which tilts the choice toward higher d on trending
// prices. Set MinD == MaxD to compare orders within one d.
type Grid struct {
	MaxP int
	MinD int
	MaxD int
	MaxQ int
}

// Orders lists the candidate orders of g in search order.
func (g Grid) Orders() []models.ModelOrder {
	var out []models.ModelOrder
	for p := 0; p <= g.MaxP; p++ {
		for d := g.MinD; d <= g.MaxD; d++ {
			for q := 0; q <= g.MaxQ; q++ {
				out = append(out, models.ModelOrder{P: p, D: d, Q: q})
			}
		}
	}
	return out
}

// Search fits every order of the grid on y and keeps the lowest AIC.
func Search(y []float64, g Grid, opts Options) (*Model, error) {
	orders := g.Orders()
	if len(orders) == 0 {
		return nil, &models.FitError{NObs: len(y), Reason: "empty order grid"}
	}
	var (
		best    *Model
		lastErr error
	)
	for _, o := range orders {
		m, err := Fit(y, o, opts)
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || m.AIC() < best.AIC() {
			best = m
		}
	}
	if best == nil {
		return nil, &models.FitError{
			Order:  models.ModelOrder{P: g.MaxP, D: g.MaxD, Q: g.MaxQ},
			NObs:   len(y),
			Reason: fmt.Sprintf("none of %d candidate orders could be fitted", len(orders)),
			Err:    lastErr,
		}
	}
	return best, nil
}
