package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func corsServer(cfg CORSConfig) *echo.Echo {
	e := echo.New()
	e.Use(CORS(cfg))
	e.POST("/api/consensus", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func TestCORSAllowedOrigin(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"https://desk.example.com"}})

	req := httptest.NewRequest(http.MethodPost, "/api/consensus", nil)
	req.Header.Set(echo.HeaderOrigin, "https://desk.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://desk.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Values(echo.HeaderVary), echo.HeaderOrigin)
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"https://desk.example.com"}})

	req := httptest.NewRequest(http.MethodPost, "/api/consensus", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCORSPreflight(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"*"}, MaxAge: 10 * time.Minute})

	req := httptest.NewRequest(http.MethodOptions, "/api/consensus", nil)
	req.Header.Set(echo.HeaderOrigin, "https://any.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://any.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}
