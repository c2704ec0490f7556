package game

import (
	"context"
	"errors"
)

// MonsterRepo defines operations on the monster catalog.
type MonsterRepo interface {
	// GetByID returns a monster by id, or (nil, ErrMonsterNotFound).
	GetByID(ctx context.Context, monsterID string) (*Monster, error)

	// Sample returns one monster drawn uniformly at random from the full
	// catalog, or ErrCatalogEmpty when there is nothing to draw.
	Sample(ctx context.Context) (*Monster, error)

	// Create inserts a new monster. Implementations must enforce unique ids
	// and return ErrMonsterExists on conflict.
	Create(ctx context.Context, monster *Monster) error

	// Update replaces the mutable fields of an existing monster. Returns
	// ErrMonsterNotFound if no record matched.
	Update(ctx context.Context, monster *Monster) error

	// Delete removes a monster. Returns ErrMonsterNotFound if absent.
	Delete(ctx context.Context, monsterID string) error

	// List returns the full catalog.
	List(ctx context.Context) ([]*Monster, error)
}

// Domain-level errors for the catalog and the progression engine.
var (
	ErrMonsterNotFound = errors.New("monster not found")
	ErrMonsterExists   = errors.New("monster already exists")
	ErrCatalogEmpty    = errors.New("monster catalog is empty")
	ErrConflict        = errors.New("progression update matched no record")
)
