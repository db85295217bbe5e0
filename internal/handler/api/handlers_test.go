package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/services/consensus"
	"SignalDesk/internal/services/forecast"
	"SignalDesk/internal/services/regime"
	"SignalDesk/internal/usecase"
	xlogger "SignalDesk/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordDecision(models.Recommendation, bool) {}
func (nopMetrics) RecordForecast(string, bool) {}
func (nopMetrics) RecordFitFailure(string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestEcho(t *testing.T, rl *ratelimit.Limiter) *echo.Echo {
	t.Helper()
	l := xlogger.NewNop()

	cls, err := regime.New(regime.DefaultConfig())
	require.NoError(t, err)
	f, err := forecast.New(forecast.DefaultConfig())
	require.NoError(t, err)
	fuc := usecase.NewForecastUseCase(cls, f, nopMetrics{}, l)

	eng, err := consensus.NewEngine(consensus.DefaultThresholds(), consensus.NewValidator())
	require.NoError(t, err)
	cuc := usecase.NewConsensusUseCase(eng, nopMetrics{}, l)

	e := echo.New()
	NewHealthHandler().RegisterRoutes(e)
	NewForecastHandler(l, fuc, rl, time.Minute).RegisterRoutes(e)
	NewConsensusHandler(l, cuc).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func pricesJSON(n int) string {
	rng := rand.New(rand.NewSource(7))
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	pts := make([]models.PricePointRequest, n)
	for i := range pts {
		s := 0.002
		if i > n/2 {
			s = 0.02
		}
		price *= math.Exp(rng.NormFloat64() * s)
		pts[i] = models.PricePointRequest{T: t0.Add(time.Duration(i) * time.Hour).Format(time.RFC3339), V: price}
	}
	b, _ := json.Marshal(pts)
	return string(b)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler()
	h.AddCheck("clickhouse", func(context.Context) error { return nil })
	h.RegisterRoutes(e)

	rec, env := do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"status":"ok"`)

	h.AddCheck("kafka", func(context.Context) error { return errors.New("no brokers") })
	rec, env = do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, string(env.Data), "no brokers")
}

func TestConsensusDecide(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, env := do(t, e, http.MethodPost, "/api/consensus", `{"symbol":"AAPL","signals":[
		{"source":"technical","direction":1,"confidence":0.8,"reliability":0.9},
		{"source":"sentiment","direction":1,"confidence":0.7,"reliability":0.8}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res models.ConsensusResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.Buy, res.Recommendation)
	assert.NotEmpty(t, res.Audit)
}

func TestConsensusRejectsInvalidSignal(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, env := do(t, e, http.MethodPost, "/api/consensus", `{"signals":[
		{"source":"technical","direction":2,"confidence":0.8,"reliability":0.9}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_INVALID_SIGNAL")
}

func TestConsensusRejectsEmptyBatch(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, _ := do(t, e, http.MethodPost, "/api/consensus", `{"signals":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectRequiresSymbol(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, env := do(t, e, http.MethodPost, "/api/consensus/collect", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_REQUIRED")
}

func TestCollectWithoutSources(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, _ := do(t, e, http.MethodPost, "/api/consensus/collect", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecastInline(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, env := do(t, e, http.MethodPost, "/api/forecast", `{"symbol":"AAPL","horizon":4,"prices":`+pricesJSON(300)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var run models.ForecastRun
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Len(t, run.Forecast.Points, 4)
	assert.Len(t, run.Metrics, 3)
}

func TestForecastValidatesBody(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, _ := do(t, e, http.MethodPost, "/api/forecast", `{"prices":[{"t":"2024-01-01T00:00:00Z","v":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/api/forecast", `{"prices":`+pricesJSON(300)+`,"confidence":1.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecastShortSeries(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, env := do(t, e, http.MethodPost, "/api/forecast", `{"prices":`+pricesJSON(10)+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_INVALID_SERIES")
}

func TestForecastSymbolWithoutStore(t *testing.T) {
	e := newTestEcho(t, nil)
	rec, _ := do(t, e, http.MethodGet, "/api/forecast?symbol=AAPL&n=100", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/forecast?n=100", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecastRateLimited(t *testing.T) {
	e := newTestEcho(t, ratelimit.New(1, time.Hour, 1))
	rec, _ := do(t, e, http.MethodGet, "/api/forecast?symbol=AAPL", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/api/forecast?symbol=AAPL", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestToAppErrorStatuses(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, toAppError(&models.NoModelError{Reasons: map[string]string{"LOW": "x"}}).Status)
	assert.Equal(t, http.StatusBadRequest, toAppError(models.ErrInvalidRequest).Status)
	assert.Equal(t, http.StatusServiceUnavailable, toAppError(usecase.ErrSourceUnavailable).Status)
	assert.Equal(t, http.StatusInternalServerError, toAppError(errors.New("boom")).Status)

	de := toAppError(&models.DataError{Msg: "too short", Required: 21, Got: 3})
	assert.Equal(t, 21, de.Params["required"])
}
