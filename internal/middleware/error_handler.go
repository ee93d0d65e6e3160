package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CustomErrorHandler creates a custom error handler for Echo. Webhook
// callers are payment gateways, so every error renders as a small JSON
// body with permissive CORS headers rather than an HTML page.
func CustomErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	errorMessage := ""

	// Check if it's an Echo HTTPError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code

		if msg, ok := he.Message.(string); ok && msg != "" {
			errorMessage = msg
		}

		if errorMessage == "" {
			switch code {
			case http.StatusNotFound:
				errorMessage = "not found"
			case http.StatusMethodNotAllowed:
				errorMessage = "method not allowed"
			case http.StatusBadRequest:
				errorMessage = "the request could not be processed"
			default:
				errorMessage = "something went wrong"
			}
		}
	} else {
		errorMessage = "something went wrong"
	}

	c.Logger().Error(err)

	if c.Response().Committed {
		return
	}

	// The CORS middleware only decorates successful handler chains, so
	// responses written here need the headers set again.
	c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	c.Response().Header().Set(echo.HeaderAccessControlAllowHeaders, "*")

	if jsonErr := c.JSON(code, map[string]string{"error": errorMessage}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
