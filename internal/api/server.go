// Package api provides the HTTP REST API for NoteNest.
//
// It exposes account signup/login/refresh/logout, note CRUD with checklist
// support, and the audit trail, enforcing the child/parent access model on
// every protected route.
//
// The server follows the standard lifecycle pattern:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/notenest/notenest/internal/audit"
	"github.com/notenest/notenest/internal/auth"
	"github.com/notenest/notenest/internal/infrastructure/config"
	"github.com/notenest/notenest/internal/infrastructure/logging"
	"github.com/notenest/notenest/internal/notes"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Accounts *auth.Service
	Notes    *notes.Service
	Audit    audit.Repository
	Version  string
}

// Server is the HTTP API server for NoteNest.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	accounts *auth.Service
	notes    *notes.Service
	audit    audit.Repository
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if deps.Notes == nil {
		return nil, fmt.Errorf("note service is required")
	}
	// Audit is optional; without it the API simply records nothing

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "api"),
		accounts: deps.Accounts,
		notes:    deps.Notes,
		audit:    deps.Audit,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; the server is stopped with
// Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}

// handleHealth reports liveness and the running version.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// recordAudit writes an audit event, best effort. A failed write is logged
// and never fails the request that triggered it.
func (s *Server) recordAudit(ctx context.Context, action, entityType, entityID string, actor *auth.Principal, details map[string]any) {
	if s.audit == nil {
		return
	}

	event := &audit.Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if actor != nil {
		event.ActorID = actor.ID
		event.ActorRole = string(actor.Role)
	}

	if err := s.audit.Create(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", "action", action, "error", err)
	}
}
