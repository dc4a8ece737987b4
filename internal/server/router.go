package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/swapkart/tradein-backend/internal/handlers"
	"github.com/swapkart/tradein-backend/internal/middleware"
)

type RouterConfig struct {
	TradeInHandler *handlers.TradeInHandler
	AuthMiddleware *middleware.AuthMiddleware
	AllowOrigins   []string
	TracingEnabled bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("tradein-backend"))
	}

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cleanOrigins(allowOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api/tradein")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/sessions", cfg.TradeInHandler.CreateSession)
		api.PUT("/sessions/:id/assessment", cfg.TradeInHandler.SubmitAssessment)
		api.GET("/sessions/:id/quote", cfg.TradeInHandler.GetQuote)
		api.POST("/sessions/:id/extend", cfg.TradeInHandler.Extend)
		api.POST("/sessions/:id/finalize", cfg.TradeInHandler.Finalize)
		api.POST("/sessions/:id/cancel", cfg.TradeInHandler.Cancel)

		api.GET("/catalog/:category", cfg.TradeInHandler.GetCatalog)

		api.GET("/resume/:productId/:variantId", cfg.TradeInHandler.LoadResume)
		api.PUT("/resume/:productId/:variantId", cfg.TradeInHandler.SaveResume)
		api.DELETE("/resume/:productId/:variantId", cfg.TradeInHandler.ClearResume)
	}

	return router
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
