package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders every error as {"error": ..., "request_id": ...}.
// Errors that are not already *echo.HTTPError are categorised through apperr
// so a stray service error still maps to the right status.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := apperr.HTTP(err)
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		rid, _ := c.Get("request_id").(string)

		if he.Code >= http.StatusInternalServerError && he.Internal != nil {
			logger.Error().Err(he.Internal).Str("request_id", rid).Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(he.Code)
		} else {
			writeErr = c.JSON(he.Code, errorBody{Error: msg, RequestID: rid})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
