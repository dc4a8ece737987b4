package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/swapkart/tradein-backend/internal/catalog"
	"github.com/swapkart/tradein-backend/internal/db"
	"github.com/swapkart/tradein-backend/internal/handlers"
	"github.com/swapkart/tradein-backend/internal/jobs"
	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/middleware"
	"github.com/swapkart/tradein-backend/internal/observability"
	"github.com/swapkart/tradein-backend/internal/repos"
	"github.com/swapkart/tradein-backend/internal/server"
	"github.com/swapkart/tradein-backend/internal/services"
	"github.com/swapkart/tradein-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	sessionTTL := utils.GetEnvAsDuration("SESSION_TTL_SEC", 30*time.Minute, log)
	extendBy := utils.GetEnvAsDuration("SESSION_EXTEND_SEC", 15*time.Minute, log)
	sweepInterval := utils.GetEnvAsDuration("SWEEP_INTERVAL_SEC", time.Minute, log)
	catalogBaseURL := utils.GetEnv("CATALOG_BASE_URL", "", log)
	catalogSeedFile := utils.GetEnv("CATALOG_SEED_FILE", "config/catalog.seed.yaml", log)
	allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "tradein-backend",
		Environment: logMode,
	})
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	sessionRepo := repos.NewTradeInSessionRepo(thePG, log)
	orderRepo := repos.NewTradeInOrderRepo(thePG, log)

	// Catalog
	log.Info("Setting up catalog service from main...")
	var catalogService catalog.Service
	if strings.TrimSpace(catalogBaseURL) != "" {
		catalogService, err = catalog.NewHTTPService(log, catalogBaseURL)
	} else {
		catalogService, err = catalog.NewSeedService(log, catalogSeedFile)
	}
	if err != nil {
		log.Error("Could not init catalog service", "error", err)
		os.Exit(1)
	}

	// Resumption cache
	resumeStore, err := services.NewResumeStore(log)
	if err != nil {
		log.Warn("Redis unavailable, resumption cache disabled", "error", err)
		resumeStore = services.NewNoopResumeStore()
	}

	// Services
	log.Info("Setting up Services from main...")
	sessionService := services.NewSessionService(
		thePG,
		log,
		sessionRepo,
		orderRepo,
		catalogService,
		resumeStore,
		services.SessionConfig{TTL: sessionTTL, ExtendBy: extendBy},
	)

	// Background jobs
	sweeper := jobs.NewSweeper(log, sessionService, sweepInterval)
	sweeper.Start(ctx)

	// Handlers
	log.Info("Setting up handlers from main...")
	tradeInHandler := handlers.NewTradeInHandler(log, sessionService, catalogService, resumeStore)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		TradeInHandler: tradeInHandler,
		AuthMiddleware: authMiddleware,
		AllowOrigins:   splitOrigins(allowOrigins),
		TracingEnabled: observability.Enabled(),
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
