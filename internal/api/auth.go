package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/notenest/notenest/internal/audit"
	"github.com/notenest/notenest/internal/auth"
)

// Audit entity types.
const (
	entityAccount       = "account"
	entityNote          = "note"
	entityChecklistItem = "checklist_item"
)

// signupRequest is the request body for POST /signup.
type signupRequest struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// FamilyCode is required when role is "parent" and ignored otherwise.
	FamilyCode string `json:"family_code"`
}

// loginRequest is the request body for POST /login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the request body for POST /refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshResponse is the response body for POST /refresh.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleSignup registers a child or parent account and returns the profile
// with a fresh token pair.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var bundle *auth.AccountBundle
	var err error

	switch auth.Role(req.Role) {
	case auth.RoleChild:
		bundle, err = s.accounts.SignupChild(r.Context(), req.Name, req.Email, req.Password)
	case auth.RoleParent:
		bundle, err = s.accounts.SignupParent(r.Context(), req.Name, req.Email, req.Password, req.FamilyCode)
	default:
		writeBadRequest(w, "role must be \"child\" or \"parent\"")
		return
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionSignup, entityAccount, bundle.User.ID,
		&auth.Principal{ID: bundle.User.ID, Role: bundle.User.Role}, nil)

	writeJSON(w, http.StatusCreated, bundle)
}

// handleLogin authenticates by email and password, checking child accounts
// before parent accounts.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	bundle, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionLogin, entityAccount, bundle.User.ID,
		&auth.Principal{ID: bundle.User.ID, Role: bundle.User.Role}, nil)

	writeJSON(w, http.StatusOK, bundle)
}

// handleRefresh exchanges a valid refresh token for a new access token.
// The refresh token itself stays valid and is returned unchanged.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	access, err := s.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// No principal in context on this route; the verified claims carry
	// the actor.
	if claims, claimsErr := s.accounts.ParseRefreshToken(req.RefreshToken); claimsErr == nil {
		s.recordAudit(r.Context(), audit.ActionRefresh, entityAccount, claims.Subject,
			&auth.Principal{ID: claims.Subject, Role: claims.Role}, nil)
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: access,
		TokenType:   "Bearer",
	})
}

// handleLogout revokes the caller's stored refresh token. The access token
// keeps working until it expires; only the refresh path is cut off.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	found, err := s.accounts.Logout(r.Context(), principal.ID, principal.Role)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !found {
		writeNotFound(w, "user not found")
		return
	}

	s.recordAudit(r.Context(), audit.ActionLogout, entityAccount, principal.ID, principal, nil)

	writeJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

// handleChildByFamilyCode resolves a family code to the owning child's
// public details. Used by the parent signup flow to confirm the link
// before committing.
func (s *Server) handleChildByFamilyCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeBadRequest(w, "code query parameter is required")
		return
	}

	ref, err := s.accounts.ChildByFamilyCode(r.Context(), code)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ref)
}

// handleMe returns the authenticated principal.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, principalFromContext(r.Context()))
}

// handleListAudit returns the caller's own audit trail, newest first.
// The actor filter is forced to the authenticated account; other filters
// and pagination come from the query string.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail not enabled")
		return
	}

	principal := principalFromContext(r.Context())
	filter := audit.Filter{
		ActorID:    principal.ID,
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// queryInt parses an integer query parameter, returning 0 when absent or
// malformed.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
