// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/jobs"
	"identity_sync_backend/internal/middleware"
	"identity_sync_backend/internal/platform/metrics"
	"identity_sync_backend/internal/webhook"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger
	db         *gorm.DB

	webhookHandler *webhook.Handler

	// Jobs
	deadLetterPruneJob *jobs.DeadLetterPruneJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	webhookHandler *webhook.Handler,
	m *metrics.Metrics,
	deadLetterPruneJob *jobs.DeadLetterPruneJob,
	db *gorm.DB,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	// None of these read the request body; only the webhook route buffers it.
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	s := &Server{
		router:             router,
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		webhookHandler:     webhookHandler,
		deadLetterPruneJob: deadLetterPruneJob,
	}

	// --- Setup Routes ---
	router.GET("/health", s.health)
	if cfg.MetricsEnabled {
		router.GET(cfg.MetricsPath, gin.WrapH(m.Handler()))
	}
	webhookHandler.RegisterRoutes(router)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ServerTimeout,
		WriteTimeout:      cfg.ServerTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 || slices.Contains(cfg.CORSAllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	c.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	c.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	return c
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.logger.Warn("Health check: database unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP", "database": "ok"})
}

func (s *Server) Start() error {
	if s.deadLetterPruneJob != nil {
		if err := s.deadLetterPruneJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start dead-letter prune job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
		zap.String("webhook_path", s.cfg.WebhookPath),
		zap.String("failure_mode", s.cfg.WebhookFailureMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.deadLetterPruneJob != nil {
		s.deadLetterPruneJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
