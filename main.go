package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/samaj-registry/registry-backend/config"
	"github.com/samaj-registry/registry-backend/monitoring"
	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/handlers"
	"github.com/samaj-registry/registry-backend/v1/middleware"
	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/utils"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting Registry Backend initialization")

	// Load the configurable enum sets (relations, member statuses)
	enums, err := config.LoadEnums(config.GetEnvOrDefault("ENUMS_CONFIG_PATH", "config/enums.yaml"))
	if err != nil {
		slog.Warn("Failed to load enums config, using defaults", "error", err)
		enums = config.GetDefaultEnums()
	}
	enums.InitializeMaps()

	// Connect to the database
	dbConfig := database.NewDatabaseConfig()
	gormDB, err := database.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Migrate the domain schema; the audit repository migrates its own table
	if err := gormDB.AutoMigrate(
		&models.Member{},
		&models.Zone{},
		&models.RegistrationRequest{},
		&models.User{},
	); err != nil {
		slog.Error("Failed to migrate database schema", "error", err)
		os.Exit(1)
	}

	// Set up metrics
	shutdownTelemetry, err := monitoring.Setup(context.Background(), monitoring.Config{
		ServiceName: "registry-backend",
	})
	if err != nil {
		slog.Error("Failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	// Wire the service layer. The audit ledger sits underneath every mutating
	// service.
	auditRepo := database.NewGormAuditRepository(gormDB)
	auditService := services.NewAuditService(auditRepo)
	queryService := services.NewAuditQueryService(auditRepo)
	memberService := services.NewMemberService(gormDB, auditService, enums)
	zoneService := services.NewZoneService(gormDB, auditService)
	requestService := services.NewRequestService(gormDB, memberService, auditService)
	dashboardService := services.NewDashboardService(gormDB, zoneService, auditRepo)
	cardService := services.NewCardService(services.CardConfig{
		ChromiumPath:     os.Getenv("CHROMIUM_PATH"),
		OrganizationName: config.GetEnvOrDefault("ORGANIZATION_NAME", "Community Registry"),
	})

	v1Handler := handlers.NewV1Handler(handlers.Services{
		Members:   memberService,
		Zones:     zoneService,
		Requests:  requestService,
		Audit:     auditService,
		Query:     queryService,
		Dashboard: dashboardService,
		Cards:     cardService,
	})

	// Admin routes sit behind JWT authentication plus an admin role check
	adminMux := http.NewServeMux()
	v1Handler.SetupAdminRoutes(adminMux)

	corsMiddleware := middleware.CORSMiddleware()

	idpBaseURL := os.Getenv("IDP_BASE_URL")
	if idpBaseURL == "" {
		slog.Error("IDP_BASE_URL environment variable is required")
		os.Exit(1)
	}
	jwtConfig := middleware.JWTAuthConfig{
		JWKSURL:          config.GetEnvOrDefault("IDP_JWKS_URL", idpBaseURL+"/oauth2/jwks"),
		ExpectedIssuer:   config.GetEnvOrDefault("IDP_TOKEN_URL", idpBaseURL+"/oauth2/token"),
		ExpectedAudience: os.Getenv("IDP_CLIENT_ID"),
		Timeout:          10 * time.Second,
	}
	jwtAuth := middleware.NewJWTAuthMiddleware(jwtConfig)

	protectedAdminHandler := jwtAuth.Authenticate(
		middleware.RequireRole(models.RoleAdmin)(adminMux),
	)

	// Top-level mux: public routes plus the protected admin surface, with
	// CORS and request metrics applied to everything
	topLevelMux := http.NewServeMux()
	v1Handler.SetupPublicRoutes(topLevelMux)
	topLevelMux.Handle("/api/v1/", protectedAdminHandler)
	topLevelMux.Handle("/metrics", monitoring.Handler())
	topLevelMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{"status": "healthy", "service": "registry-backend"}
		statusCode := http.StatusOK

		sqlDB, err := gormDB.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"] = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}
		utils.RespondWithJSON(w, statusCode, status)
	})

	rootHandler := corsMiddleware(middleware.MetricsMiddleware(topLevelMux))

	port := config.GetEnvOrDefault("PORT", "3000")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Registry Backend starting", "port", port, "dbType", dbConfig.Type)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start Registry Backend", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down Registry Backend...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := shutdownTelemetry(ctx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}

	slog.Info("Registry Backend exited")
}
