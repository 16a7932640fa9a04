package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/notenest/notenest/internal/auth"
)

func TestGuard_MissingOrMalformedToken(t *testing.T) {
	_, router := testServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doJSON(t, router, http.MethodGet, "/notes/", tt.token, nil)
			if status != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", status)
			}
		})
	}
}

func TestGuard_RefreshTokenNotAcceptedAsAccess(t *testing.T) {
	_, router := testServer(t)

	body := signupChild(t, router, "Jack", "jack@example.com")
	refresh := bundleField(t, body, "refresh_token")

	status, _ := doJSON(t, router, http.MethodGet, "/notes/", refresh, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestGuard_ExpiredToken(t *testing.T) {
	_, router := testServer(t)

	body := signupChild(t, router, "Jack", "jack@example.com")
	userID := userField(t, body, "id")

	expired, err := auth.GenerateAccessToken(userID, "jack@example.com", auth.RoleChild, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	status, _ := doJSON(t, router, http.MethodGet, "/notes/", expired, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestGuard_TokenForDeletedAccount(t *testing.T) {
	_, router := testServer(t)

	// A validly signed token whose subject never existed
	ghost, err := auth.GenerateAccessToken("chd-ghost000", "ghost@example.com", auth.RoleChild, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	status, _ := doJSON(t, router, http.MethodGet, "/notes/", ghost, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestGuard_ParentCannotCreateNotes(t *testing.T) {
	_, router := testServer(t)

	child := signupChild(t, router, "Jack", "jack@example.com")
	parent := signupParent(t, router, "Dad", "dad@example.com", userField(t, child, "family_code"))
	parentToken := bundleField(t, parent, "access_token")

	status, _ := doJSON(t, router, http.MethodPost, "/notes/", parentToken, map[string]any{
		"title": "Parental note",
	})
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}
}

func TestHandleMe(t *testing.T) {
	_, router := testServer(t)

	child := signupChild(t, router, "Jack", "jack@example.com")
	token := bundleField(t, child, "access_token")

	status, body := doJSON(t, router, http.MethodGet, "/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["role"] != "child" {
		t.Errorf("role = %v, want child", body["role"])
	}
	if code, ok := body["family_code"].(string); !ok || len(code) != 6 {
		t.Errorf("family_code = %v, want 6-char code", body["family_code"])
	}
}
