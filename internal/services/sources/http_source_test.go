package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{Timeout: time.Second, Retries: 2, BreakerFailures: 2, BreakerCooldown: time.Minute}
}

func TestHTTPSourceSignal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req opinionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "AAPL", req.Symbol)
		_, _ = w.Write([]byte(`{"direction":1,"confidence":0.8}`))
	}))
	defer srv.Close()

	s := NewHTTPSource("momentum", srv.URL, 0.9, testOptions())
	sig, err := s.Signal(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "momentum", sig.Source)
	assert.Equal(t, 1, sig.Direction)
	assert.Equal(t, 0.8, sig.Confidence)
	assert.Equal(t, 0.9, sig.Reliability)
	assert.Equal(t, "momentum", s.Name())
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"direction":-1,"confidence":0.6}`))
	}))
	defer srv.Close()

	s := NewHTTPSource("news", srv.URL, 0.5, testOptions())
	sig, err := s.Signal(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, -1, sig.Direction)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewHTTPSource("news", srv.URL, 0.5, testOptions())
	_, err := s.Signal(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source news")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPSourceBreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewHTTPSource("flaky", srv.URL, 0.5, testOptions())
	for i := 0; i < 2; i++ {
		_, err := s.Signal(context.Background(), "AAPL")
		require.Error(t, err)
	}
	_, err := s.Signal(context.Background(), "AAPL")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
