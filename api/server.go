package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/cardroom/services/orchestrator/config"
	"example.com/cardroom/services/orchestrator/messaging"
	"example.com/cardroom/services/orchestrator/process"
)

// Server is the HTTP server for the ops API
type Server struct {
	cfg        config.Config
	router     *gin.Engine
	httpServer *http.Server
	manager    *process.Manager
	processor  *messaging.Processor
}

// NewServer creates a new API server
func NewServer(cfg config.Config, manager *process.Manager, processor *messaging.Processor) *Server {
	server := &Server{
		cfg:       cfg,
		router:    gin.Default(),
		manager:   manager,
		processor: processor,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware adds middleware to the router
func (s *Server) setupMiddleware() {
	// Add request ID middleware
	s.router.Use(RequestIDMiddleware())

	// Add CORS middleware
	if s.cfg.CorsEnabled {
		s.router.Use(CORSMiddleware())
	}

	// Add recovery middleware
	s.router.Use(gin.Recovery())

	// Add logging middleware
	s.router.Use(LoggingMiddleware())
}

// setupRoutes defines the API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// API v1 group
	v1 := s.router.Group("/api/v1")

	// Hand routes
	handRoutes := v1.Group("/hands")
	{
		handRoutes.GET("", s.listHands)
		handRoutes.GET("/:id", s.getHand)
	}

	// Event ingestion for environments without a bus
	v1.POST("/events", s.receiveEvents)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPServerAddress,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.cfg.HTTPServerAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
