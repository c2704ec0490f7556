package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if hash == "Secret123!" {
		t.Fatal("hash equals the cleartext password")
	}

	if !CheckPassword(hash, "Secret123!") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Error("wrong password accepted")
	}
}

func TestPasswordPolicy(t *testing.T) {
	full := PasswordPolicy{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}

	testCases := []struct {
		name     string
		policy   PasswordPolicy
		password string
		wantErr  bool
	}{
		{"zero policy accepts anything non-empty", PasswordPolicy{}, "x", false},
		{"full policy accepts compliant", full, "Abcdef1!", false},
		{"too short", full, "Ab1!", true},
		{"missing upper", full, "abcdef1!", true},
		{"missing lower", full, "ABCDEF1!", true},
		{"missing digit", full, "Abcdefg!", true},
		{"missing special", full, "Abcdefg1", true},
		{"only min length enforced", PasswordPolicy{MinLength: 6}, "abcdef", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate(tc.password)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
