package domain

import (
	"strings"

	"github.com/google/uuid"
)

type TodoItem struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
}

// NewTodoItem builds an incomplete item for the store to persist. The ID is left
// empty; stores assign it on create.
func NewTodoItem(description string) (TodoItem, error) {
	if err := ValidateDescription(description); err != nil {
		return TodoItem{}, err
	}
	return TodoItem{Description: description}, nil
}

// ValidateDescription rejects empty and whitespace-only descriptions.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return ErrDescriptionRequired
	}
	return nil
}

// DescriptionKey is the form descriptions are compared in when checking uniqueness.
func DescriptionKey(description string) string {
	return strings.ToLower(description)
}
