package auth

import (
	"context"
	"sort"
	"sync"
)

// MemoryAccountRepo is a threadsafe in-memory store useful for tests and
// single-instance servers. NOT suitable for production without persistence.
type MemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]*Account // key = lowercase(username)
}

// NewMemoryAccountRepo returns an empty repository.
func NewMemoryAccountRepo() *MemoryAccountRepo {
	return &MemoryAccountRepo{
		accounts: make(map[string]*Account),
	}
}

// GetByUsername retrieves an account by case-insensitive username.
func (r *MemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[normalize(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *account
	return &cp, nil
}

// Create inserts a new account if the username is not taken.
func (r *MemoryAccountRepo) Create(ctx context.Context, account *Account) error {
	key := normalize(account.Username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[key]; exists {
		return ErrUserExists
	}
	cp := *account
	cp.Username = key
	r.accounts[key] = &cp
	return nil
}

// UpdateProgression applies the transition only if the stored progression
// still matches the previous values, mirroring the mongo conditional update.
func (r *MemoryAccountRepo) UpdateProgression(ctx context.Context, username string, prevLevel, prevExp, newLevel, newExp int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[normalize(username)]
	if !ok || account.Level != prevLevel || account.Experience != prevExp {
		return 0, nil
	}
	account.Level = newLevel
	account.Experience = newExp
	return 1, nil
}

// Delete removes the account if present.
func (r *MemoryAccountRepo) Delete(ctx context.Context, username string) (int64, error) {
	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[key]; !ok {
		return 0, nil
	}
	delete(r.accounts, key)
	return 1, nil
}

// TopByProgression returns up to limit accounts sorted by level then
// experience, descending. Ties fall back to username for stable output.
func (r *MemoryAccountRepo) TopByProgression(ctx context.Context, limit int) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		cp := *account
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Level != accounts[j].Level {
			return accounts[i].Level > accounts[j].Level
		}
		if accounts[i].Experience != accounts[j].Experience {
			return accounts[i].Experience > accounts[j].Experience
		}
		return accounts[i].Username < accounts[j].Username
	})
	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}
