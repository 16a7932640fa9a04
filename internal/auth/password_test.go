package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword() returned empty hash")
	}
	if hash == "correct-horse-battery" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash = %q, want bcrypt format", hash)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !VerifyPassword("correct-horse-battery", hash) {
		t.Error("VerifyPassword() = false for the right password")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Error("VerifyPassword() = true for the wrong password")
	}
	if VerifyPassword("", hash) {
		t.Error("VerifyPassword() = true for empty password")
	}
	if VerifyPassword("correct-horse-battery", "not-a-hash") {
		t.Error("VerifyPassword() = true for garbage hash")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

// Passwords beyond 72 bytes are truncated before hashing, so two passwords
// sharing the first 72 bytes verify against each other's hash.
func TestPassword_TruncationAt72Bytes(t *testing.T) {
	prefix := strings.Repeat("a", maxPasswordBytes)
	long := prefix + "tail-that-is-ignored"
	longer := prefix + "completely-different-tail"

	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !VerifyPassword(long, hash) {
		t.Error("original long password should verify")
	}
	if !VerifyPassword(longer, hash) {
		t.Error("password sharing the first 72 bytes should verify")
	}
	if !VerifyPassword(prefix, hash) {
		t.Error("exact 72-byte prefix should verify")
	}
	if VerifyPassword(prefix[:maxPasswordBytes-1], hash) {
		t.Error("shorter prefix should not verify")
	}
}
