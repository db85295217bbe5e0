package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleQuery struct {
	Symbol string `query:"symbol" validate:"required"`
	N      int    `query:"n" default:"500" validate:"gte=2"`
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/?symbol=AAPL", "")
	q := &sampleQuery{}
	require.Nil(t, ReadAndValidateRequest(c, q))
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 500, q.N)
}

func TestReadAndValidateRequestReportsFields(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/?n=1", "")
	verr := ReadAndValidateRequest(c, &sampleQuery{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	assert.ElementsMatch(t, []string{"ERR_REQUIRED", "ERR_GTE"}, codes)
}

type samplePoint struct {
	T string  `json:"t" validate:"required"`
	V float64 `json:"v" validate:"gt=0"`
}

type sampleBody struct {
	Prices []samplePoint `json:"prices" validate:"required,min=2,dive"`
}

func TestReadAndValidateRequestUsesWireNames(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/", `{"prices":[{"t":"1","v":1},{"t":"2","v":-1}]}`)
	errs, ok := ReadAndValidateRequest(c, &sampleBody{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_GT", errs[0].Code)
	assert.Equal(t, "prices[1].v", errs[0].Field)
	assert.Equal(t, "prices[1].v must be greater than 0", errs[0].Message)

	c, _ = newContext(http.MethodPost, "/", `{"prices":[{"t":"1","v":1}]}`)
	errs, ok = ReadAndValidateRequest(c, &sampleBody{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "prices needs at least 2 points", errs[0].Message)

	c, _ = newContext(http.MethodPost, "/", `{"prices":`)
	errs, ok = ReadAndValidateRequest(c, &sampleBody{}).([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_MALFORMED_BODY", errs[0].Code)
}

func TestAppErrorResponseUsesStatus(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "")
	require.NoError(t, AppErrorResponse(c, UnprocessableError("no model")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_UNPROCESSABLE")

	c, rec = newContext(http.MethodGet, "/", "")
	require.NoError(t, AppErrorResponse(c, errors.New("hidden detail")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hidden detail")
}

func TestAppErrorWrapping(t *testing.T) {
	base := errors.New("root cause")
	err := BadRequestErrorf("bad %s", "input").WithError(base).WithParam("index", 2)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "bad input: root cause", err.Error())
	assert.Equal(t, 2, err.Params["index"])
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestServerRegistersHandlersAndMetrics(t *testing.T) {
	s := NewServer([]Handler{pingHandler{}}, WithPort(0))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "signaldesk_http_requests_total")
}
