package consensus

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"SignalDesk/internal/domain/models"
)

// Batch is a signal list that passed validation. Only Validator builds one.
type Batch struct {
	signals []models.AgentSignal
}

func (b Batch) Len() int { return len(b.signals) }

// Signals returns a copy of the batch in submission order.
func (b Batch) Signals() []models.AgentSignal {
	out := make([]models.AgentSignal, len(b.signals))
	copy(out, b.signals)
	return out
}

// Validator checks every signal of a batch before any consensus rule runs.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

// Validate accepts the batch or reports the first offending entry.
func (v *Validator) Validate(signals []models.AgentSignal) (Batch, error) {
	if len(signals) == 0 {
		return Batch{}, &models.ValidationError{Index: -1, Reason: "at least one signal is required"}
	}
	for i, s := range signals {
		if math.IsNaN(s.Confidence) {
			return Batch{}, &models.ValidationError{Index: i, Source: s.Source, Field: "Confidence", Value: s.Confidence, Reason: "must be a number"}
		}
		if math.IsNaN(s.Reliability) {
			return Batch{}, &models.ValidationError{Index: i, Source: s.Source, Field: "Reliability", Value: s.Reliability, Reason: "must be a number"}
		}
		if err := v.v.Struct(s); err != nil {
			return Batch{}, toValidationError(i, s, err)
		}
	}
	cp := make([]models.AgentSignal, len(signals))
	copy(cp, signals)
	return Batch{signals: cp}, nil
}

func toValidationError(i int, s models.AgentSignal, err error) error {
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return &models.ValidationError{Index: i, Source: s.Source, Reason: err.Error()}
	}
	fe := fes[0]
	var reason string
	switch fe.Tag() {
	case "oneof":
		reason = "must be one of -1, 0, 1"
	case "gte":
		reason = fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		reason = fmt.Sprintf("must be <= %s", fe.Param())
	default:
		reason = "failed " + fe.Tag()
	}
	return &models.ValidationError{Index: i, Source: s.Source, Field: fe.Field(), Value: fe.Value(), Reason: reason}
}
