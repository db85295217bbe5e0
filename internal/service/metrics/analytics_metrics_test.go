package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestEndpointCounters(t *testing.T) {
	EndpointErrors.WithLabelValues("forecast", "400").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(EndpointErrors.WithLabelValues("forecast", "400")))

	ObserveSince("forecast", time.Now())
	assert.Equal(t, 1, testutil.CollectAndCount(EndpointLatency))
}
