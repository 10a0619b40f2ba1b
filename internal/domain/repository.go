package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the contract for todo item persistence.
//
// Returned errors are infrastructure failures, except for the sentinels
// documented on each method.
type Repository interface {
	// ListIncomplete returns every item that is not completed, in no particular order.
	ListIncomplete(ctx context.Context) ([]TodoItem, error)

	// GetByID returns the item and true, or false when no item has the id.
	GetByID(ctx context.Context, id uuid.UUID) (TodoItem, bool, error)

	// Create persists a new item under a store-assigned id and returns it.
	// ErrDescriptionExists is returned when the store rejects a duplicate.
	Create(ctx context.Context, item TodoItem) (TodoItem, error)

	// Update replaces the stored item with the same id. ErrConcurrencyConflict
	// is returned when the write matched no row.
	Update(ctx context.Context, item TodoItem) error

	// IDExists reports whether any item, completed or not, has the id.
	IDExists(ctx context.Context, id uuid.UUID) (bool, error)

	// DescriptionExists reports whether an incomplete item has the description,
	// compared case-insensitively.
	DescriptionExists(ctx context.Context, description string) (bool, error)
}
