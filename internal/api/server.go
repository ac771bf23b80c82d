// Package api exposes the HTTP surface: health, risk assessment, and the
// admin advice endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/domain"
	"github.com/glaucoma-risk-server/internal/middleware"
	"github.com/glaucoma-risk-server/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	cfg        *domain.ServerConfig
	router     *gin.Engine
	server     *http.Server
	calculator *service.ScoreCalculator
	advice     *service.RecommendationStore
	health     HealthChecker
	log        *logrus.Logger
}

// NewServer creates a new HTTP server instance. health may be nil when no
// database is wired, in which case the health endpoint reports only process
// liveness.
func NewServer(cfg *domain.ServerConfig, calculator *service.ScoreCalculator, advice *service.RecommendationStore, health HealthChecker, logger *logrus.Logger) *Server {
	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	if cfg.RateLimitRPS > 0 {
		router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	server := &Server{
		cfg:        cfg,
		router:     router,
		calculator: calculator,
		advice:     advice,
		health:     health,
		log:        logger,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Handler returns the underlying router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("starting server: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assessments", s.handleAssessment)
		v1.GET("/advice", s.handleGetAdvice)
		v1.PUT("/advice", s.handleUpdateAdvice)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Health(ctx); err != nil {
			s.log.WithError(err).Warn("Health check failed")
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// assessmentRequest is the body of an assessment request.
type assessmentRequest struct {
	Answers []domain.Answer `json:"answers" binding:"required"`
}

// handleAssessment scores a questionnaire and returns the assessment result.
// Calculation never fails; malformed bodies are the only error path.
func (s *Server) handleAssessment(c *gin.Context) {
	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Invalid request body: answers array is required",
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	result := s.calculator.Calculate(c.Request.Context(), domain.AnswerSet(req.Answers))
	c.JSON(http.StatusOK, result)
}

// handleGetAdvice returns the current advice record set. Fallback records are
// served with 200 so clients cannot tell a degraded store from a healthy one.
func (s *Server) handleGetAdvice(c *gin.Context) {
	records := s.advice.GetAdvice(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"advice": records})
}

// handleUpdateAdvice applies an admin edit to one advice record. Validation
// failures map to 400, store failures to 502 with the record that would have
// been written.
func (s *Server) handleUpdateAdvice(c *gin.Context) {
	var update domain.AdviceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Invalid request body",
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	record, err := s.advice.UpdateAdvice(c.Request.Context(), update)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          validationErr.Message,
				"field":          validationErr.Field,
				"correlation_id": c.GetString("correlation_id"),
			})
			return
		}

		c.JSON(http.StatusBadGateway, gin.H{
			"error":          "Advice store unavailable, update not applied",
			"attempted":      record,
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	c.JSON(http.StatusOK, record)
}
