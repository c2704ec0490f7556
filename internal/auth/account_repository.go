package auth

import (
	"context"
	"errors"
)

// AccountRepo defines operations for account persistence and retrieval.
// MongoDB is the production backend; the in-memory implementation serves
// tests and single-instance setups without a database.
type AccountRepo interface {
	// GetByUsername returns an account by username (case-insensitive). If the
	// account is not found, (nil, ErrUserNotFound) is returned.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// Create inserts a new account. Implementations must enforce unique
	// usernames and return ErrUserExists on conflict.
	Create(ctx context.Context, account *Account) error

	// UpdateProgression conditionally persists a level/experience transition.
	// The update only applies if the stored progression still matches
	// (prevLevel, prevExp); the returned count is the number of matched
	// records (0 or 1). A zero count means a concurrent update or deletion
	// won the race and the caller must not report success.
	UpdateProgression(ctx context.Context, username string, prevLevel, prevExp, newLevel, newExp int) (int64, error)

	// Delete removes an account and returns the number of deleted records.
	Delete(ctx context.Context, username string) (int64, error)

	// TopByProgression returns up to limit accounts ordered by level then
	// experience, descending.
	TopByProgression(ctx context.Context, limit int) ([]*Account, error)
}

// Domain-level errors returned by the repository and the account service.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
