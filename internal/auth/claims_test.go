package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("chd-abc12345", "kid@example.com", RoleChild, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not a JWT", token)
	}

	claims, err := ParseToken(token, TokenKindAccess, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "chd-abc12345" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "chd-abc12345")
	}
	if claims.Email != "kid@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "kid@example.com")
	}
	if claims.Role != RoleChild {
		t.Errorf("Role = %q, want %q", claims.Role, RoleChild)
	}
	if claims.TokenType != TokenKindAccess {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenKindAccess)
	}
	if claims.ID == "" {
		t.Error("token should carry a unique jti")
	}
}

func TestParseToken_KindMismatch(t *testing.T) {
	access, err := GenerateAccessToken("par-11111111", "mum@example.com", RoleParent, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refresh, err := GenerateRefreshToken("par-11111111", "mum@example.com", RoleParent, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := ParseToken(access, TokenKindRefresh, testSecret); !errors.Is(err, ErrTokenKindMismatch) {
		t.Errorf("access-as-refresh error = %v, want ErrTokenKindMismatch", err)
	}
	if _, err := ParseToken(refresh, TokenKindAccess, testSecret); !errors.Is(err, ErrTokenKindMismatch) {
		t.Errorf("refresh-as-access error = %v, want ErrTokenKindMismatch", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken("chd-abc12345", "kid@example.com", RoleChild, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	_, err = ParseToken(token, TokenKindAccess, testSecret)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("chd-abc12345", "kid@example.com", RoleChild, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	_, err = ParseToken(token, TokenKindAccess, "another-secret-value-0123456789abcdef")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := ParseToken(tok, TokenKindAccess, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("ParseToken(%q) error = %v, want ErrTokenInvalid", tok, err)
		}
	}
}

func TestParseToken_TamperedPayload(t *testing.T) {
	token, err := GenerateAccessToken("chd-abc12345", "kid@example.com", RoleChild, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + ".eyJzdWIiOiJjaGQtZXZpbCJ9." + parts[2]

	if _, err := ParseToken(tampered, TokenKindAccess, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}
