package schedule

import (
	"net/http"
	"strconv"

	"route-ops/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the schedule views.
type Handler struct {
	svc            ServiceInterface
	digestFallback string // recipient used when the request names none
}

// NewHandler creates a new schedule handler.
func NewHandler(svc ServiceInterface, digestFallback string) *Handler {
	return &Handler{svc: svc, digestFallback: digestFallback}
}

// horizonParam reads the optional ?horizon= query parameter. The weekly
// widget uses 7, the agenda view 30; anything non-positive falls back to
// the weekly default.
func horizonParam(c echo.Context) int {
	raw := c.QueryParam("horizon")
	if raw == "" {
		return HorizonWeek
	}
	horizon, err := strconv.Atoi(raw)
	if err != nil || horizon <= 0 {
		return HorizonWeek
	}
	return horizon
}

// GetTasks handles GET /schedule/tasks.
func (h *Handler) GetTasks(c echo.Context) error {
	sched, err := h.svc.GetSchedule(c.Request().Context(), horizonParam(c))
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute schedule")
	}
	return utils.RespondWithJSON(c, http.StatusOK, sched)
}

// GetRestockStatuses handles GET /schedule/restocks.
func (h *Handler) GetRestockStatuses(c echo.Context) error {
	sched, err := h.svc.GetSchedule(c.Request().Context(), horizonParam(c))
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute restock statuses")
	}
	return utils.RespondWithJSON(c, http.StatusOK, sched.RestockStatuses)
}

// GetRouteStatuses handles GET /schedule/routes.
func (h *Handler) GetRouteStatuses(c echo.Context) error {
	sched, err := h.svc.GetSchedule(c.Request().Context(), horizonParam(c))
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute route statuses")
	}
	return utils.RespondWithJSON(c, http.StatusOK, sched.RouteStatuses)
}

// SendDigest handles POST /schedule/digest. The authenticated operator's
// email is the recipient unless the configured fallback overrides it.
func (h *Handler) SendDigest(c echo.Context) error {
	_, operatorEmail, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}
	recipient := operatorEmail
	if recipient == "" {
		recipient = h.digestFallback
	}

	count, err := h.svc.SendUrgentDigest(c.Request().Context(), recipient)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send digest")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"sent": count})
}
