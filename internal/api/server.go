// Package api exposes the report core to the UI shell over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vetreport-server/internal/annotation"
	"github.com/vetreport-server/internal/config"
	"github.com/vetreport-server/internal/domain"
	"github.com/vetreport-server/internal/notify"
	"github.com/vetreport-server/internal/report"
)

// Server represents the HTTP server
type Server struct {
	cfg      *config.Config
	logger   *logrus.Logger
	service  *report.Service
	engine   *annotation.Engine
	hub      *notify.Hub
	journal  domain.Journal
	exporter domain.Exporter
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *logrus.Logger,
	service *report.Service,
	engine *annotation.Engine,
	hub *notify.Hub,
	journal domain.Journal,
	exporter domain.Exporter,
) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		engine:   engine,
		hub:      hub,
		journal:  journal,
		exporter: exporter,
		router:   router,
	}
	s.setupRoutes()
	return s
}

// Router exposes the configured handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/report", s.handleGetReport)
		v1.GET("/report/export", s.handleExportReport)

		v1.POST("/findings", s.handleAddFinding)
		v1.POST("/findings/:id/accept", s.handleAcceptFinding)
		v1.PUT("/findings/:id/text", s.handleEditFinding)
		v1.POST("/findings/:id/regenerate", s.handleRegenerateFinding)
		v1.DELETE("/findings/:id", s.handleDeleteFinding)

		v1.POST("/diagnosis/accept", s.handleAcceptDiagnosis)
		v1.PUT("/diagnosis/text", s.handleEditDiagnosis)
		v1.POST("/diagnosis/regenerate", s.handleRegenerateDiagnosis)

		v1.POST("/annotate", s.handleAnnotate)

		v1.GET("/events", s.handleEvents)
		v1.GET("/audit", s.handleAudit)
		v1.GET("/audit/export", s.handleAuditExport)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
