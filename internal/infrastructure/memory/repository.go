// Package memory is an in-process todo item store. State lives for the
// lifetime of the process.
package memory

import (
	"context"
	"sync"

	"github.com/dmehra2102/TodoList/internal/domain"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.TodoItem
	newID func() uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[uuid.UUID]domain.TodoItem),
		newID: uuid.New,
	}
}

// Seed stores items as-is, keeping their ids. Items without an id get one.
func (r *MemoryRepository) Seed(items ...domain.TodoItem) []domain.TodoItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	seeded := make([]domain.TodoItem, 0, len(items))
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = r.newID()
		}
		r.items[item.ID] = item
		seeded = append(seeded, item)
	}
	return seeded
}

func (r *MemoryRepository) ListIncomplete(ctx context.Context) ([]domain.TodoItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.TodoItem, 0, len(r.items))
	for _, item := range r.items {
		if !item.IsCompleted {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.TodoItem, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.TodoItem{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok, nil
}

func (r *MemoryRepository) Create(ctx context.Context, item domain.TodoItem) (domain.TodoItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.TodoItem{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !item.IsCompleted && r.descriptionTaken(item.Description, uuid.Nil) {
		return domain.TodoItem{}, domain.ErrDescriptionExists
	}

	item.ID = r.newID()
	r.items[item.ID] = item
	return item, nil
}

func (r *MemoryRepository) Update(ctx context.Context, item domain.TodoItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrConcurrencyConflict
	}
	if !item.IsCompleted && r.descriptionTaken(item.Description, item.ID) {
		return domain.ErrDescriptionExists
	}

	r.items[item.ID] = item
	return nil
}

func (r *MemoryRepository) IDExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[id]
	return ok, nil
}

func (r *MemoryRepository) DescriptionExists(ctx context.Context, description string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.descriptionTaken(description, uuid.Nil), nil
}

// PingContext lets the readiness probe treat the memory store like a database.
func (r *MemoryRepository) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// descriptionTaken must be called with the lock held. The item with id except
// is ignored so an item does not collide with itself on update.
func (r *MemoryRepository) descriptionTaken(description string, except uuid.UUID) bool {
	key := domain.DescriptionKey(description)
	for id, item := range r.items {
		if id == except || item.IsCompleted {
			continue
		}
		if domain.DescriptionKey(item.Description) == key {
			return true
		}
	}
	return false
}

var _ domain.Repository = (*MemoryRepository)(nil)
