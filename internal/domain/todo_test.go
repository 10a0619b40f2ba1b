package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantErr     error
	}{
		{name: "empty", description: "", wantErr: ErrDescriptionRequired},
		{name: "spaces", description: "   ", wantErr: ErrDescriptionRequired},
		{name: "tabs and newlines", description: "\t\n ", wantErr: ErrDescriptionRequired},
		{name: "text", description: "Buy milk", wantErr: nil},
		{name: "padded text", description: "  Buy milk  ", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescription(tt.description)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewTodoItem(t *testing.T) {
	item, err := NewTodoItem("Write report")
	require.NoError(t, err)
	assert.Equal(t, "Write report", item.Description)
	assert.False(t, item.IsCompleted)
	assert.Zero(t, item.ID)

	_, err = NewTodoItem(" ")
	assert.ErrorIs(t, err, ErrDescriptionRequired)
}

func TestDescriptionKey(t *testing.T) {
	assert.Equal(t, DescriptionKey("To Do Item"), DescriptionKey("to do ITEM"))
	assert.NotEqual(t, DescriptionKey("item"), DescriptionKey("item "))
}
