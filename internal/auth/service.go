package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dunereach/dune-server/internal/logging"
)

// RegisterCommand is the typed input for account registration, validated
// before anything touches the store.
type RegisterCommand struct {
	Username string
	Password string
	Email    string
}

// Register creates a new account: validates the command against the password
// policy, rejects duplicates, hashes the password and initialises progression
// (level 1, zero experience, role "user").
func Register(ctx context.Context, repo AccountRepo, policy PasswordPolicy, cmd RegisterCommand) (*Account, error) {
	if cmd.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if cmd.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if cmd.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if err := policy.Validate(cmd.Password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &Account{
		Username:     normalize(cmd.Username),
		PasswordHash: passwordHash,
		Email:        cmd.Email,
		Role:         RoleUser,
		Level:        1,
		Experience:   0,
		RegisteredAt: time.Now(),
	}
	if err := repo.Create(ctx, account); err != nil {
		return nil, err
	}

	logging.Info("Account registered: %s", account.Username)
	return account, nil
}

// Authenticate verifies the supplied credentials and returns the account on
// success. Wrong password yields ErrInvalidCredentials; an unknown username
// yields ErrUserNotFound. The HTTP layer maps both to the same response body
// so callers cannot probe which part was wrong.
func Authenticate(ctx context.Context, repo AccountRepo, username, password string) (*Account, error) {
	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}
