package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordDecision(models.Buy, false)
	r.RecordDecision(models.Buy, false)
	r.RecordDecision(models.Hold, true)
	r.RecordForecast("HIGH", true)
	r.RecordFitFailure("LOW")
	r.RecordError("forecast")
	r.RecordLatency("consensus", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.decisions.WithLabelValues("BUY", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("HOLD", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("HIGH", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fitFailures.WithLabelValues("LOW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("forecast")))

	n, err := testutil.GatherAndCount(reg, "signaldesk_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
