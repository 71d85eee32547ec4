package utils

import (
	"errors"
	"net/http"

	"route-ops/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON payload with the given status code.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes a standard error body.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// HandleServiceError maps service-layer sentinel errors to HTTP responses.
// Precondition failures get distinct statuses from persistence failures so
// the client can tell "nothing to do" from "something broke".
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNoActiveRun):
		return RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrRunAlreadyActive),
		errors.Is(err, models.ErrRunFinished):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrInvalidToken):
		return RespondWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrInvalidStopIndex),
		errors.Is(err, models.ErrEmptyItinerary),
		errors.Is(err, models.ErrInvalidRecurrence),
		errors.Is(err, models.ErrMissingOdometerEnd),
		errors.Is(err, models.ErrMissingGPSDistance):
		return RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		c.Logger().Errorf("unhandled service error: %v", err)
		return RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
