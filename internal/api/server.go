// Package api exposes the HTTP surface: campaign dispatch, interview
// lifecycle, suppression CRUD, and delivery webhooks.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verticalhire/verticalhire/internal/pipeline"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/service/campaign"
	"github.com/verticalhire/verticalhire/internal/service/interview"
	"github.com/verticalhire/verticalhire/internal/service/suppression"
)

// Server is the HTTP API server.
type Server struct {
	handlers *Handlers
	server   *http.Server
}

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	campaigns    *campaign.Service
	interviews   *interview.Service
	suppressions *suppression.Service
	pipeline     *pipeline.Service
	validate     *validator.Validate
}

// NewHandlers creates the handler set. pipeline may be nil when the
// post-interview providers are not configured; the trigger endpoint then
// returns 503.
func NewHandlers(campaigns *campaign.Service, interviews *interview.Service, suppressions *suppression.Service, pl *pipeline.Service) *Handlers {
	return &Handlers{
		campaigns:    campaigns,
		interviews:   interviews,
		suppressions: suppressions,
		pipeline:     pl,
		validate:     validator.New(),
	}
}

// NewServer creates an API server listening on the given port.
func NewServer(port int, h *Handlers, allowedOrigins []string) *Server {
	return &Server{
		handlers: h,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      SetupRoutes(h, allowedOrigins),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	logger.Info("api server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
