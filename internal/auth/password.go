package auth

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of the password using DefaultCost.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext
// equivalent. bcrypt's comparison is constant-time.
func CheckPassword(hash string, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// PasswordPolicy is the configured strength policy applied at registration.
// The zero value accepts any non-empty password.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// Validate checks the password against the policy. Failures are wrapped
// ErrValidation so callers can match with errors.Is.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, p.MinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if p.RequireUpper && !hasUpper {
		return fmt.Errorf("%w: password must contain an uppercase letter", ErrValidation)
	}
	if p.RequireLower && !hasLower {
		return fmt.Errorf("%w: password must contain a lowercase letter", ErrValidation)
	}
	if p.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: password must contain a digit", ErrValidation)
	}
	if p.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w: password must contain a special character", ErrValidation)
	}
	return nil
}
