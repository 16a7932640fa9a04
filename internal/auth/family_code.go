package auth

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// Family codes are 6 characters from [A-Z0-9], shared verbally or written
// down, so the alphabet stays uppercase-and-digits only.
const (
	familyCodeLength   = 6
	familyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var familyCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// GenerateFamilyCode creates a random 6-character family code.
// Uniqueness is enforced by the children table; callers retry on collision.
func GenerateFamilyCode() (string, error) {
	b := make([]byte, familyCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating family code: %w", err)
	}
	for i := range b {
		b[i] = familyCodeAlphabet[int(b[i])%len(familyCodeAlphabet)]
	}
	return string(b), nil
}

// IsValidFamilyCode checks the 6-character [A-Z0-9] format.
func IsValidFamilyCode(code string) bool {
	return familyCodePattern.MatchString(code)
}
