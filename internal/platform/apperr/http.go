package apperr

import "github.com/labstack/echo/v4"

// HTTP maps an error to an echo.HTTPError using the kind's status code.
func HTTP(err error) *echo.HTTPError {
	return echo.NewHTTPError(StatusCode(err), Message(err))
}
