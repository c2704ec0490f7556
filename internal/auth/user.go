package auth

import "time"

// Role is the access level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account represents a player/administrator account. The username is the
// primary key (case-insensitive, stored lowercase).
type Account struct {
	Username     string    // Unique username (case-insensitive)
	PasswordHash string    // bcrypt hashed password, never cleartext
	Email        string    // Contact address supplied at registration
	Role         Role      // "user" or "admin"
	Level        int       // Progression level, >= 1
	Experience   int       // Experience within the current level, < Level*100
	RegisteredAt time.Time // Set once at registration, immutable
}

// AccountView is the public projection of an account. It never carries the
// password hash and is what handlers serialize.
type AccountView struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Level        int       `json:"level"`
	Experience   int       `json:"experience"`
	RegisteredAt time.Time `json:"registered_at"`
}

// View returns the public projection of the account.
func (a *Account) View() *AccountView {
	return &AccountView{
		Username:     a.Username,
		Email:        a.Email,
		Role:         a.Role,
		Level:        a.Level,
		Experience:   a.Experience,
		RegisteredAt: a.RegisteredAt,
	}
}
