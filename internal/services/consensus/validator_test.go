package consensus

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
)

func TestValidatorAcceptsWellFormedBatch(t *testing.T) {
	in := []models.AgentSignal{sig("a", -1, 0, 1), sig("", 0, 1, 0), sig("c", 1, 0.5, 0.5)}
	b, err := NewValidator().Validate(in)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, in, b.Signals())

	in[0].Direction = 1
	assert.Equal(t, -1, b.Signals()[0].Direction)
}

func TestValidatorRejects(t *testing.T) {
	cases := []struct {
		name  string
		in    []models.AgentSignal
		index int
		field string
	}{
		{"empty", nil, -1, ""},
		{"direction", []models.AgentSignal{sig("a", 1, 0.9, 0.9), sig("b", 2, 0.9, 0.9)}, 1, "Direction"},
		{"confidence high", []models.AgentSignal{sig("a", 1, 1.3, 0.9)}, 0, "Confidence"},
		{"reliability negative", []models.AgentSignal{sig("a", 1, 0.9, -0.1)}, 0, "Reliability"},
		{"confidence nan", []models.AgentSignal{sig("a", 0, 0.5, 0.5), sig("b", 1, math.NaN(), 0.9)}, 1, "Confidence"},
		{"reliability inf", []models.AgentSignal{sig("a", 1, 0.9, math.Inf(1))}, 0, "Reliability"},
	}
	v := NewValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrValidation))

			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.index, ve.Index)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}
