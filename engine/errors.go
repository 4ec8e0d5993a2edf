package engine

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler answers errors under apiPrefix with the JSON error body the
// handlers use and leaves everything else to echo's default handler. The API
// server passes "/" since every path it serves is an API path.
func HTTPErrorHandler(e *echo.Echo, apiPrefix string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if !strings.HasPrefix(c.Request().URL.Path, apiPrefix) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		switch code {
		case http.StatusNotFound:
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
		case http.StatusRequestEntityTooLarge:
			jsonError(c, code, "file is too large")
		default:
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}
