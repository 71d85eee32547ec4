package api

import (
	"net/http"

	"route-ops/internal/api/middleware"
	"route-ops/internal/modules/operators"
	"route-ops/internal/modules/runs"
	"route-ops/internal/modules/schedule"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	operatorHandler *operators.Handler,
	scheduleHandler *schedule.Handler,
	runHandler *runs.Handler,
	jwtSecret string,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Vending route operations API"})
	})

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", operatorHandler.Signup)
		authGroup.POST("/login", operatorHandler.Login)
		authGroup.GET("/google/login", operatorHandler.GoogleLogin)
		authGroup.GET("/google/callback", operatorHandler.GoogleCallback)
	}

	// --- Operator Profile ---
	e.GET("/profile", operatorHandler.GetMyProfile, authMiddleware)

	// --- Schedule Routes ---
	scheduleGroup := e.Group("/schedule", authMiddleware)
	{
		scheduleGroup.GET("/tasks", scheduleHandler.GetTasks)
		scheduleGroup.GET("/restocks", scheduleHandler.GetRestockStatuses)
		scheduleGroup.GET("/routes", scheduleHandler.GetRouteStatuses)
		scheduleGroup.POST("/digest", scheduleHandler.SendDigest)
	}

	// --- Route Run Routes ---
	runGroup := e.Group("/runs", authMiddleware)
	{
		runGroup.POST("", runHandler.StartRun)
		runGroup.GET("/active", runHandler.GetActiveRun)
		runGroup.POST("/active/stops", runHandler.CompleteStop)
		runGroup.POST("/active/complete", runHandler.CompleteRun)
		runGroup.PUT("/active/cursor", runHandler.GoToStop)
		runGroup.DELETE("/active", runHandler.DiscardRun)
	}

	// --- Live Run Stream ---
	e.GET("/ws/runs/active", runHandler.StreamActiveRun, authMiddleware)
}
