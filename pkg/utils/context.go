package utils

import (
	"net/http"
	"strconv"

	"route-ops/internal/models"

	"github.com/labstack/echo/v4"
)

// ExtractOperatorInfo reads the operator identity placed in the context by
// the JWT middleware.
func ExtractOperatorInfo(c echo.Context) (operatorID string, email string, err error) {
	operatorID, _ = c.Get("operatorID").(string)
	email, _ = c.Get("operatorEmail").(string)
	if operatorID == "" {
		return "", "", c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing authentication"})
	}
	return operatorID, email, nil
}

// GetPageLimit reads ?page= and ?limit= with sane defaults.
func GetPageLimit(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
