// Package api provides the HTTP API server implementation for Noupe2API.
// It includes the main server struct, routing setup, middleware for CORS and
// authentication, and the OpenAI-compatible endpoint handlers. The server
// supports hot-reloading of configuration.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/lzA6/noupe2api/internal/api/handlers"
	"github.com/lzA6/noupe2api/internal/api/handlers/openai"
	"github.com/lzA6/noupe2api/internal/api/middleware"
	"github.com/lzA6/noupe2api/internal/buildinfo"
	"github.com/lzA6/noupe2api/internal/config"
	"github.com/lzA6/noupe2api/internal/logging"
)

// Server represents the main API server.
// It encapsulates the Gin engine, HTTP server, handlers, and configuration.
type Server struct {
	// engine is the Gin web framework engine instance.
	engine *gin.Engine

	// httpServer is the underlying HTTP server.
	httpServer *http.Server

	// base holds the hot-reloadable handler state shared by all endpoints.
	base *handlers.BaseAPIHandler

	// openaiHandlers provides the OpenAI-compatible endpoint handlers.
	openaiHandlers *openai.OpenAIAPIHandler
}

// NewServer creates and configures a new API server instance.
// It sets up the Gin engine, middleware, routes, and handlers.
//
// Parameters:
//   - cfg: The application configuration
//
// Returns:
//   - *Server: A configured server ready to start
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	base := handlers.NewBaseAPIHandler(cfg)
	s := &Server{
		engine:         engine,
		base:           base,
		openaiHandlers: openai.NewOpenAIAPIHandler(base),
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	middleware.SetMetricsEnabled(cfg.Metrics)

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.engine.Use(
		logging.GinLogrusRecovery(),
		logging.GinLogrusLogger(),
		middleware.CORSMiddleware(),
		middleware.RequestDecompressionMiddleware(),
		middleware.PrometheusMiddleware(),
	)
}

// setupRoutes registers the service endpoints. The /v1 group carries the
// OpenAI-compatible surface and is the only one behind client authentication.
func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", middleware.MetricsHandler())

	v1 := s.engine.Group("/v1")
	v1.Use(middleware.AuthMiddleware(func() []string {
		return s.base.Cfg().APIKeys
	}))
	{
		v1.GET("/models", s.openaiHandlers.Models)
		v1.POST("/chat/completions", s.openaiHandlers.ChatCompletions)
	}
}

// handleRoot serves a small service banner so that hitting the base URL in a
// browser confirms the proxy is up.
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "noupe2api",
		"message": "OpenAI-compatible proxy for the Noupe AI agent",
		"version": buildinfo.Version,
		"endpoints": []string{
			"GET /v1/models",
			"POST /v1/chat/completions",
		},
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start begins listening for HTTP requests.
// It blocks until the server is stopped or encounters an error.
func (s *Server) Start() error {
	log.Infof("starting server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, draining in-flight requests until
// the context expires.
func (s *Server) Stop(ctx context.Context) error {
	log.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// ReloadConfig applies a new configuration to the running server. The
// listener port cannot change without a restart; everything else takes
// effect immediately.
func (s *Server) ReloadConfig(cfg *config.Config) {
	old := s.base.Cfg()
	if old != nil && old.Port != cfg.Port {
		log.Warnf("config reload: port change %d -> %d requires restart", old.Port, cfg.Port)
	}

	middleware.SetMetricsEnabled(cfg.Metrics)
	logging.ConfigureLogOutput(cfg.Logging.Level, cfg.Logging.File)
	s.base.Update(cfg)

	if cfg.OpenAccess() {
		log.Warn("no API keys configured; the proxy accepts unauthenticated requests")
	}
	log.Info("configuration reloaded")
}
