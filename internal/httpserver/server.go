package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PratikDhanave/ticket-view-sync/internal/auth"
	"github.com/PratikDhanave/ticket-view-sync/internal/config"
	"github.com/PratikDhanave/ticket-view-sync/internal/handlers"
)

// Store is what the readiness check and view queries read from Postgres.
type Store interface {
	Ping(ctx context.Context) error
	handlers.ViewCounter
}

// NewRouter wires public health checks and authenticated ops APIs.
// Public: /health, /ready, /metrics
// Authenticated: /runs, /runs/latest, /views/count
func NewRouter(cfg config.Config, st Store, runs handlers.RunHistory, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth group enforces operator context via X-API-Key.
	authGroup := r.Group("/")
	authGroup.Use(auth.APIKeyMiddleware(cfg.APIKeys))

	handlers.RegisterRunRoutes(authGroup, runs)
	handlers.RegisterViewRoutes(authGroup, st)

	return r
}

// requestLogger logs every request; health checks and scrapes go to debug.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}

		level := slog.LevelInfo
		switch c.FullPath() {
		case "/health", "/ready", "/metrics":
			level = slog.LevelDebug
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"operator", auth.Operator(c),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
