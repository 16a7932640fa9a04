package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind tags a token as either a short-lived access token or a
// long-lived refresh token. The kind is embedded in the signed payload so
// one cannot be presented in place of the other.
type TokenKind string

const (
	// TokenKindAccess is presented on every authenticated request.
	TokenKindAccess TokenKind = "access"

	// TokenKindRefresh is exchanged for new access tokens and validated
	// against the value stored on the account row.
	TokenKindRefresh TokenKind = "refresh"
)

// Claims extends JWT registered claims with NoteNest-specific fields.
// The subject is the account ID.
type Claims struct {
	jwt.RegisteredClaims
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenType TokenKind `json:"type"`
}

// GenerateAccessToken creates a signed HS256 access token for an account.
func GenerateAccessToken(userID, email string, role Role, secret string, ttl time.Duration) (string, error) {
	return generateToken(userID, email, role, TokenKindAccess, secret, ttl)
}

// GenerateRefreshToken creates a signed HS256 refresh token for an account.
// The returned string is also persisted verbatim on the account row; see
// Service.Refresh for the store-match check.
func GenerateRefreshToken(userID, email string, role Role, secret string, ttl time.Duration) (string, error) {
	return generateToken(userID, email, role, TokenKindRefresh, secret, ttl)
}

func generateToken(userID, email string, role Role, kind TokenKind, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email:     email,
		Role:      role,
		TokenType: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// ParseToken validates a token's signature and expiry, then checks the
// embedded kind against expected. No payload field is trusted before the
// signature and expiry checks pass.
//
// Returns ErrTokenExpired past expiry, ErrTokenKindMismatch when the kind
// tag differs from expected, and ErrTokenInvalid for anything malformed,
// unsigned, or tampered with.
func ParseToken(tokenString string, expected TokenKind, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if !IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: missing or unknown role", ErrTokenInvalid)
	}
	if claims.TokenType != expected {
		return nil, ErrTokenKindMismatch
	}

	return claims, nil
}
