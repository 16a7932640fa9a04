package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/notenest/notenest/internal/auth"
)

// authMiddleware validates the bearer access token on protected routes.
//
// It extracts `Authorization: Bearer <token>`, verifies it as an access
// token, loads the account it names, and stores the resulting Principal in
// the request context. A missing header, a bad or expired token, a refresh
// token presented as access, or a token naming a deleted account all end
// the request with 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "missing bearer token")
			return
		}

		claims, err := s.accounts.ParseAccessToken(token)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}

		principal, err := s.accounts.LookupPrincipal(r.Context(), claims.Subject, claims.Role)
		if err != nil {
			// The token is fine but its account is gone
			writeUnauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyPrincipal, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireChild rejects any principal that is not a child account.
func (s *Server) requireChild(next http.Handler) http.Handler {
	return s.requireRole(next, auth.RoleChild)
}

// requireParent rejects any principal that is not a parent account.
func (s *Server) requireParent(next http.Handler) http.Handler {
	return s.requireRole(next, auth.RoleParent)
}

func (s *Server) requireRole(next http.Handler, want auth.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r.Context())
		if principal == nil {
			writeUnauthorized(w, "authentication required")
			return
		}
		if principal.Role != want {
			writeForbidden(w, "access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// principalFromContext returns the authenticated principal, or nil outside
// the auth middleware.
func principalFromContext(ctx context.Context) *auth.Principal {
	principal, _ := ctx.Value(ctxKeyPrincipal).(*auth.Principal)
	return principal
}

// bearerToken extracts the token from an `Authorization: Bearer ...` header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
