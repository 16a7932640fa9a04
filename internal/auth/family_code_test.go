package auth

import "testing"

func TestGenerateFamilyCode(t *testing.T) {
	code, err := GenerateFamilyCode()
	if err != nil {
		t.Fatalf("GenerateFamilyCode() error = %v", err)
	}
	if len(code) != familyCodeLength {
		t.Fatalf("len(code) = %d, want %d", len(code), familyCodeLength)
	}
	if !IsValidFamilyCode(code) {
		t.Errorf("generated code %q does not match its own format", code)
	}
}

func TestGenerateFamilyCode_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateFamilyCode()
		if err != nil {
			t.Fatalf("GenerateFamilyCode() error = %v", err)
		}
		seen[code] = true
	}
	// 50 draws from a 36^6 space colliding down to a handful would mean
	// the randomness is broken.
	if len(seen) < 45 {
		t.Errorf("only %d distinct codes out of 50 draws", len(seen))
	}
}

func TestIsValidFamilyCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABC123", true},
		{"ZZZZZZ", true},
		{"000000", true},
		{"abc123", false}, // lowercase
		{"ABC12", false},  // too short
		{"ABC1234", false},
		{"AB-123", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidFamilyCode(tt.code); got != tt.want {
			t.Errorf("IsValidFamilyCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
