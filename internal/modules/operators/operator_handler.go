package operators

import (
	"net/http"

	"route-ops/internal/models"
	"route-ops/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for operator accounts.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new operator handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	auth, err := h.svc.Signup(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, auth)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	auth, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, auth)
}

// GoogleLogin handles GET /auth/google/login.
func (h *Handler) GoogleLogin(c echo.Context) error {
	url, err := h.svc.HandleGoogleLogin()
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to start Google login")
	}
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles GET /auth/google/callback.
func (h *Handler) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "Missing authorization code")
	}

	auth, err := h.svc.HandleGoogleCallback(c.Request().Context(), code)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, auth)
}

// GetMyProfile handles GET /profile.
func (h *Handler) GetMyProfile(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	op, err := h.svc.GetProfile(c.Request().Context(), operatorID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, op)
}
