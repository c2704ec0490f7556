package game

import (
	"context"
	"math/rand"
	"sort"
	"sync"
)

// MemoryMonsterRepo is a threadsafe in-memory catalog for tests and
// single-instance servers.
type MemoryMonsterRepo struct {
	mu       sync.RWMutex
	monsters map[string]*Monster
}

// NewMemoryMonsterRepo returns an empty catalog.
func NewMemoryMonsterRepo() *MemoryMonsterRepo {
	return &MemoryMonsterRepo{
		monsters: make(map[string]*Monster),
	}
}

// GetByID implements MonsterRepo.
func (r *MemoryMonsterRepo) GetByID(ctx context.Context, monsterID string) (*Monster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	monster, ok := r.monsters[monsterID]
	if !ok {
		return nil, ErrMonsterNotFound
	}
	cp := *monster
	return &cp, nil
}

// Sample picks one monster uniformly at random.
func (r *MemoryMonsterRepo) Sample(ctx context.Context) (*Monster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.monsters) == 0 {
		return nil, ErrCatalogEmpty
	}

	ids := make([]string, 0, len(r.monsters))
	for id := range r.monsters {
		ids = append(ids, id)
	}
	sort.Strings(ids) // map order is random; sort so rand is the only source of randomness
	cp := *r.monsters[ids[rand.Intn(len(ids))]]
	return &cp, nil
}

// Create inserts a new monster if the id is free.
func (r *MemoryMonsterRepo) Create(ctx context.Context, monster *Monster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.monsters[monster.MonsterID]; exists {
		return ErrMonsterExists
	}
	cp := *monster
	r.monsters[monster.MonsterID] = &cp
	return nil
}

// Update replaces an existing monster.
func (r *MemoryMonsterRepo) Update(ctx context.Context, monster *Monster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.monsters[monster.MonsterID]; !ok {
		return ErrMonsterNotFound
	}
	cp := *monster
	r.monsters[monster.MonsterID] = &cp
	return nil
}

// Delete removes a monster.
func (r *MemoryMonsterRepo) Delete(ctx context.Context, monsterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.monsters[monsterID]; !ok {
		return ErrMonsterNotFound
	}
	delete(r.monsters, monsterID)
	return nil
}

// List returns the catalog ordered by monster id.
func (r *MemoryMonsterRepo) List(ctx context.Context) ([]*Monster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.monsters))
	for id := range r.monsters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	monsters := make([]*Monster, 0, len(ids))
	for _, id := range ids {
		cp := *r.monsters[id]
		monsters = append(monsters, &cp)
	}
	return monsters, nil
}
