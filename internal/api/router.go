package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Account endpoints (no auth required)
	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/child/by-family-code", s.handleChildByFamilyCode)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)
		r.Get("/audit", s.handleListAudit)

		// Note endpoints
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", s.handleListNotes)
			r.With(s.requireChild).Post("/", s.handleCreateNote)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetNote)
				r.With(s.requireChild).Put("/", s.handleUpdateNote)
				r.With(s.requireChild).Delete("/", s.handleDeleteNote)

				r.Get("/checklist", s.handleListChecklistItems)
				r.With(s.requireChild).Post("/checklist", s.handleAddChecklistItem)
			})
		})

		// Checklist items are addressed by their own ID; access is scoped
		// through the owning note inside the service
		r.Route("/checklist/{id}", func(r chi.Router) {
			r.With(s.requireChild).Put("/", s.handleUpdateChecklistItem)
			r.With(s.requireChild).Delete("/", s.handleDeleteChecklistItem)
		})
	})

	return r
}
