package http

import (
	"errors"
	"net/http"

	"tuichain-backend/internal/domain/errs"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var statusByKind = map[error]int{
	errs.ErrValidation:   http.StatusUnprocessableEntity,
	errs.ErrNotFound:     http.StatusNotFound,
	errs.ErrForbidden:    http.StatusForbidden,
	errs.ErrInvalidState: http.StatusConflict,
	errs.ErrCapacity:     http.StatusConflict,
	errs.ErrConflict:     http.StatusConflict,
	errs.ErrSettlement:   http.StatusBadGateway,
	errs.ErrStorage:      http.StatusBadGateway,
	errs.ErrProvider:     http.StatusBadRequest,
}

// StatusFor maps a usecase error to its HTTP status.
func StatusFor(err error) int {
	if code, ok := statusByKind[errs.Kind(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func respondError(c echo.Context, log zerolog.Logger, err error) error {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bindAndValidate decodes the body into req. It writes the error response
// itself and returns false when the request is unusable.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		msg := "invalid body"
		if errors.As(err, &he) {
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
