package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"route-ops/internal/api"
	"route-ops/internal/config"
	"route-ops/internal/modules/operators"
	"route-ops/internal/modules/runs"
	"route-ops/internal/modules/schedule"
	"route-ops/pkg/email"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Successfully connected to the database")

	// 4. --- Shared Services ---
	emailSender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom)
	if err != nil {
		log.Fatalf("Unable to initialize email sender: %v", err)
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		log.Fatalf("Unable to parse email templates: %v", err)
	}

	googleOAuthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	// 5. --- Dependency Injection ---
	// --- Operators Module ---
	operatorRepo := operators.NewRepository(dbPool)
	operatorService := operators.NewService(operatorRepo, cfg.JWTSecret, googleOAuthConfig)
	operatorHandler := operators.NewHandler(operatorService)

	// --- Schedule Module ---
	scheduleRepo := schedule.NewRepository(dbPool)
	scheduleService := schedule.NewService(scheduleRepo, emailSender, templates)
	scheduleHandler := schedule.NewHandler(scheduleService, cfg.DigestRecipient)

	// --- Runs Module ---
	runRepo := runs.NewRepository(dbPool)
	runService := runs.NewService(runRepo)
	runHandler := runs.NewHandler(runService)

	// 6. --- Router ---
	api.SetupRoutes(e,
		operatorHandler,
		scheduleHandler,
		runHandler,
		cfg.JWTSecret,
	)

	// 7. --- Start Server with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
