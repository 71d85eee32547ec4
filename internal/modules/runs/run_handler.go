package runs

import (
	"net/http"

	"route-ops/internal/models"
	"route-ops/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the run lifecycle.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new run handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// StartRun handles POST /runs.
func (h *Handler) StartRun(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	var req models.StartRunRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}
	if req.TrackingMode == models.TrackingOdometer && req.OdometerStart == nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "odometer_start is required for odometer tracking")
	}

	run, err := h.svc.Start(c.Request().Context(), operatorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, run)
}

// GetActiveRun handles GET /runs/active.
func (h *Handler) GetActiveRun(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	run, err := h.svc.Active(c.Request().Context(), operatorID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, run)
}

// CompleteStop handles POST /runs/active/stops.
func (h *Handler) CompleteStop(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	var req models.CompleteStopRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	outcome, err := h.svc.CompleteStop(c.Request().Context(), operatorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, outcome)
}

// CompleteRun handles POST /runs/active/complete.
func (h *Handler) CompleteRun(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	var req models.CompleteRunRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	run, err := h.svc.Complete(c.Request().Context(), operatorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, run)
}

// DiscardRun handles DELETE /runs/active.
func (h *Handler) DiscardRun(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	if err := h.svc.Discard(c.Request().Context(), operatorID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GoToStop handles PUT /runs/active/cursor.
func (h *Handler) GoToStop(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	var req models.GoToStopRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	run, err := h.svc.GoToStop(c.Request().Context(), operatorID, req.StopIndex)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, run)
}
