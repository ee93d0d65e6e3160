package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// Gateway callbacks are server-to-server POSTs without an Origin header;
// the headers must be present on those successful responses too.
func TestCORSHeadersWithoutOrigin(t *testing.T) {
	e := echo.New()
	e.Use(CORS())
	e.POST("/webhooks/mercadopago/:tenant", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "applied"})
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago/acme", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
}

func TestCORSPreflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS())
	e.POST("/webhooks/appmax/:tenant", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "applied"})
	})

	req := httptest.NewRequest(http.MethodOptions, "/webhooks/appmax/acme", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
