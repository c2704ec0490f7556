package game

import (
	"context"
	"fmt"

	"github.com/dunereach/dune-server/internal/auth"
	"github.com/dunereach/dune-server/internal/logging"
)

// Experience awarded per monster rarity. Unrecognized or missing rarity falls
// back to the common award.
var rarityPoints = map[string]int{
	"common":    10,
	"rare":      25,
	"epic":      50,
	"legendary": 100,
}

const defaultPoints = 10

// PointsForRarity returns the experience award for a rarity classification.
func PointsForRarity(rarity string) int {
	if points, ok := rarityPoints[rarity]; ok {
		return points
	}
	return defaultPoints
}

// AccountStore is the narrow slice of the account repository the engine
// needs: a read and the conditional progression write.
type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*auth.Account, error)
	UpdateProgression(ctx context.Context, username string, prevLevel, prevExp, newLevel, newExp int) (int64, error)
}

// EncounterResult is the outcome of one resolved encounter.
type EncounterResult struct {
	Username   string `json:"username"`
	Monster    string `json:"monster"`
	Points     int    `json:"points"`
	Level      int    `json:"level"`
	Experience int    `json:"experience"`
	Message    string `json:"message"`
}

// Engine resolves encounters: it selects a monster, awards rarity-based
// experience and applies the level-up carryover.
type Engine struct {
	accounts AccountStore
	monsters MonsterRepo
}

// NewEngine returns a progression engine over the given stores.
func NewEngine(accounts AccountStore, monsters MonsterRepo) *Engine {
	return &Engine{
		accounts: accounts,
		monsters: monsters,
	}
}

// ResolveEncounter resolves one player-vs-monster encounter. An empty
// monsterID means "pick one uniformly at random from the catalog".
//
// The level/experience transition is persisted as a single conditional
// update keyed on the previously read values; if nothing matched (concurrent
// update or deletion) the encounter fails with ErrConflict and no partial
// result is reported.
func (e *Engine) ResolveEncounter(ctx context.Context, username string, monsterID string) (*EncounterResult, error) {
	account, err := e.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	var monster *Monster
	if monsterID == "" {
		monster, err = e.monsters.Sample(ctx)
	} else {
		monster, err = e.monsters.GetByID(ctx, monsterID)
	}
	if err != nil {
		return nil, err
	}

	points := PointsForRarity(monster.Attributes.Rarity)
	level, experience := applyAward(account.Level, account.Experience, points)

	matched, err := e.accounts.UpdateProgression(ctx, account.Username, account.Level, account.Experience, level, experience)
	if err != nil {
		return nil, fmt.Errorf("failed to persist progression: %w", err)
	}
	if matched == 0 {
		return nil, ErrConflict
	}

	message := fmt.Sprintf("%s slayed %s and earned %d experience points!", account.Username, monster.Name, points)
	if level > account.Level {
		message += fmt.Sprintf(" Leveled up to level %d!", level)
		logging.Info("%s leveled up: %d -> %d", account.Username, account.Level, level)
	}
	logging.Debug("Encounter resolved: user=%s monster=%s points=%d level=%d exp=%d",
		account.Username, monster.MonsterID, points, level, experience)

	return &EncounterResult{
		Username:   account.Username,
		Monster:    monster.Name,
		Points:     points,
		Level:      level,
		Experience: experience,
		Message:    message,
	}, nil
}

// applyAward adds the points and carries experience over level boundaries.
// A single large award may cross several thresholds, so this loops until the
// invariant 0 <= experience < level*100 holds again.
func applyAward(level, experience, points int) (int, int) {
	experience += points
	for threshold := level * 100; experience >= threshold; threshold = level * 100 {
		level++
		experience -= threshold
	}
	return level, experience
}
