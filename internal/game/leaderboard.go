package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dunereach/dune-server/internal/auth"
	"github.com/dunereach/dune-server/internal/cache"
	"github.com/dunereach/dune-server/internal/logging"
)

// AccountRanker is the slice of the account repository the leaderboard needs.
type AccountRanker interface {
	TopByProgression(ctx context.Context, limit int) ([]*auth.Account, error)
}

// LeaderboardEntry is one row of the ranking.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	Username   string `json:"username"`
	Level      int    `json:"level"`
	Experience int    `json:"experience"`
}

// Leaderboard serves the top accounts by progression with a cache-aside
// layer. Cache errors never fail a request; they only cost a store read.
type Leaderboard struct {
	accounts AccountRanker
	cache    cache.Repo
	ttl      time.Duration
}

// NewLeaderboard returns a leaderboard over the given stores. cacheRepo may
// be nil to disable caching entirely.
func NewLeaderboard(accounts AccountRanker, cacheRepo cache.Repo, ttl time.Duration) *Leaderboard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Leaderboard{
		accounts: accounts,
		cache:    cacheRepo,
		ttl:      ttl,
	}
}

// Top returns the first limit entries of the ranking.
func (lb *Leaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	key := fmt.Sprintf("leaderboard:%d", limit)

	if lb.cache != nil {
		if data, err := lb.cache.Get(ctx, key); err == nil {
			var entries []LeaderboardEntry
			if err := json.Unmarshal(data, &entries); err == nil {
				return entries, nil
			}
			// Corrupt entry; drop it and rebuild.
			_ = lb.cache.Delete(ctx, key)
		}
	}

	accounts, err := lb.accounts.TopByProgression(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for i, account := range accounts {
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			Username:   account.Username,
			Level:      account.Level,
			Experience: account.Experience,
		})
	}

	if lb.cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := lb.cache.Set(ctx, key, data, lb.ttl); err != nil {
				logging.Debug("Leaderboard cache write failed: %v", err)
			}
		}
	}
	return entries, nil
}
