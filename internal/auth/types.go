package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a permissive sanity check, not full RFC 5322 validation.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail checks if an email address looks plausible.
func IsValidEmail(email string) bool {
	return len(email) <= 254 && emailPattern.MatchString(email)
}

// Role represents an account role. The set is closed: notes are owned by
// children and read by linked parents, nothing else.
type Role string

const (
	// RoleChild owns notes and may create, edit, and delete them.
	RoleChild Role = "child"

	// RoleParent is linked to exactly one child at signup and has
	// read-only access to that child's notes.
	RoleParent Role = "parent"
)

// IsValidRole returns true if the role is one of the two account roles.
func IsValidRole(r Role) bool {
	switch r {
	case RoleChild, RoleParent:
		return true
	}
	return false
}

// Child represents a note-owning account.
type Child struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	FamilyCode   string    `json:"family_code"`
	RefreshToken string    `json:"-"` // never serialised; empty = none active
	CreatedAt    time.Time `json:"created_at"`
}

// Parent represents a read-only viewing account linked to one child.
type Parent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	ChildID      string    `json:"child_id"`
	RefreshToken string    `json:"-"` // never serialised; empty = none active
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity resolved from a credential.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`

	// FamilyCode is set for child principals.
	FamilyCode string `json:"family_code,omitempty"`

	// ChildID is set for parent principals: the linked child's ID.
	ChildID string `json:"child_id,omitempty"`
}

// ChildRef is a minimal reference to a linked child, returned to parents.
type ChildRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile is the public view of an account returned by signup and login.
type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	FamilyCode string    `json:"family_code,omitempty"` // children only
	Child      *ChildRef `json:"child,omitempty"`       // parents only
	CreatedAt  time.Time `json:"created_at"`
}

// AccountBundle is the result of a successful signup or login: the account
// profile plus a fresh access/refresh token pair.
type AccountBundle struct {
	User         Profile `json:"user"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
}

// Sentinel errors for account and token operations.
var (
	ErrValidation          = errors.New("invalid input")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidFamilyCode   = errors.New("invalid family code")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTokenExpired        = errors.New("token has expired")
	ErrTokenKindMismatch   = errors.New("unexpected token type")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("refresh token is not valid for this account")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrUserNotFound        = errors.New("user not found")
)

// errFamilyCodeCollision is returned by the child repository when an insert
// hits the family_code uniqueness constraint. The service retries with a
// fresh code; the collision is never surfaced to callers.
var errFamilyCodeCollision = errors.New("family code already in use")
