// Package server exposes a read-only HTTP surface over the graph client
// adapter: health, anomaly reports, and graph stats. It never mutates the
// remote graph; deletion stays behind the CLI's confirmation gate.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/go-graphkeeper/pkg/config"
	"github.com/soundprediction/go-graphkeeper/pkg/graph"
	"github.com/soundprediction/go-graphkeeper/pkg/server/handlers"
)

// Server is the read-only HTTP server.
type Server struct {
	cfg    *config.Config
	client *graph.Client
	logger *slog.Logger
	engine *gin.Engine
	http   *http.Server
}

// New creates a server over the given graph client.
func New(cfg *config.Config, client *graph.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, client: client, logger: logger}
}

// Setup configures routes.
func (s *Server) Setup() {
	gin.SetMode(s.cfg.Server.Mode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())

	health := handlers.NewHealthHandler(s.client)
	report := handlers.NewReportHandler(s.client, s.logger)

	s.engine.GET("/health", health.HealthCheck)
	s.engine.GET("/graphs/:graph_id/anomalies", report.Anomalies)
	s.engine.GET("/graphs/:graph_id/stats", report.Stats)
}

// Start runs the server until Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{Addr: addr, Handler: s.engine}

	s.logger.Info("starting read-only server", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
