package tui

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dmehra2102/TodoList/pkg/client"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	items       []client.TodoItem
	listErr     error
	createErr   error
	completeErr error
	created     []string
	completed   []uuid.UUID
}

func (f *fakeAPI) ListIncomplete(context.Context) ([]client.TodoItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]client.TodoItem(nil), f.items...), nil
}

func (f *fakeAPI) Create(_ context.Context, description string) (client.TodoItem, error) {
	f.created = append(f.created, description)
	if f.createErr != nil {
		return client.TodoItem{}, f.createErr
	}
	item := client.TodoItem{ID: uuid.New(), Description: description}
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeAPI) MarkComplete(_ context.Context, id uuid.UUID) error {
	f.completed = append(f.completed, id)
	if f.completeErr != nil {
		return f.completeErr
	}
	for i, item := range f.items {
		if item.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// settle runs API commands until the model stops asking for more work.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 10, "too many follow-up commands")
		m, cmd = update(t, m, cmd())
	}
	return m
}

func started(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	m := New(api, time.Second)
	return settle(t, m, m.Init())
}

func startAdding(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, runes("a"))
	require.True(t, m.adding)
	m, _ = update(t, m, runes(text))
	return m
}

func TestInitLoadsItemsSortedDescending(t *testing.T) {
	api := &fakeAPI{items: []client.TodoItem{
		{ID: uuid.New(), Description: "alpha"},
		{ID: uuid.New(), Description: "charlie"},
		{ID: uuid.New(), Description: "bravo"},
	}}

	m := started(t, api)

	require.Len(t, m.items, 3)
	assert.Equal(t, "charlie", m.items[0].Description)
	assert.Equal(t, "bravo", m.items[1].Description)
	assert.Equal(t, "alpha", m.items[2].Description)
	assert.Contains(t, m.View(), "Showing 3 Item(s)")
	assert.Empty(t, m.errMsg)
}

func TestInitListFailureShowsGenericMessage(t *testing.T) {
	api := &fakeAPI{listErr: &client.APIError{StatusCode: http.StatusServiceUnavailable, Message: "upstream down"}}

	m := started(t, api)

	assert.Equal(t, client.UnexpectedErrorMessage, m.errMsg)
	assert.Contains(t, m.View(), client.UnexpectedErrorMessage)
}

func TestAddItemSuccessClearsFormAndRefreshes(t *testing.T) {
	api := &fakeAPI{}
	m := started(t, api)
	m.errMsg = "stale"

	m = startAdding(t, m, "Buy milk")
	assert.Equal(t, "Buy milk", m.input.Value())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	assert.Equal(t, []string{"Buy milk"}, api.created)
	assert.False(t, m.adding)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.errMsg)
	require.Len(t, m.items, 1)
	assert.Equal(t, "Buy milk", m.items[0].Description)
	assert.Contains(t, m.View(), "Showing 1 Item(s)")
}

func TestAddItemValidationMessageShownVerbatim(t *testing.T) {
	api := &fakeAPI{createErr: &client.APIError{StatusCode: http.StatusBadRequest, Message: "Description already exists"}}
	m := started(t, api)

	m = startAdding(t, m, "Buy milk")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	assert.Equal(t, "Description already exists", m.errMsg)
	assert.True(t, m.adding)
	assert.Equal(t, "Buy milk", m.input.Value())
	assert.Empty(t, m.items)
}

func TestAddItemEmptyDescriptionIsSentToAPI(t *testing.T) {
	api := &fakeAPI{createErr: &client.APIError{StatusCode: http.StatusBadRequest, Message: "Description is required"}}
	m := started(t, api)

	m, _ = update(t, m, runes("a"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	assert.Equal(t, []string{""}, api.created)
	assert.Equal(t, "Description is required", m.errMsg)
}

func TestAddItemServerFailureShowsGenericMessage(t *testing.T) {
	api := &fakeAPI{createErr: &client.APIError{StatusCode: http.StatusInternalServerError}}
	m := started(t, api)

	m = startAdding(t, m, "Buy milk")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	assert.Equal(t, client.UnexpectedErrorMessage, m.errMsg)
}

func TestCancelClearsForm(t *testing.T) {
	m := started(t, &fakeAPI{})
	m = startAdding(t, m, "half typed")
	m.errMsg = "Description is required"

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.adding)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.errMsg)
}

func TestMarkCompleteRemovesSelectedItem(t *testing.T) {
	keep := client.TodoItem{ID: uuid.New(), Description: "alpha"}
	done := client.TodoItem{ID: uuid.New(), Description: "bravo"}
	api := &fakeAPI{items: []client.TodoItem{keep, done}}
	m := started(t, api)

	// bravo sorts first and holds the cursor.
	m, cmd := update(t, m, runes("c"))
	m = settle(t, m, cmd)

	assert.Equal(t, []uuid.UUID{done.ID}, api.completed)
	require.Len(t, m.items, 1)
	assert.Equal(t, keep.ID, m.items[0].ID)
	assert.Contains(t, m.View(), "Showing 1 Item(s)")
}

func TestMarkCompleteFailureShowsGenericMessage(t *testing.T) {
	api := &fakeAPI{
		items:       []client.TodoItem{{ID: uuid.New(), Description: "alpha"}},
		completeErr: errors.New("connection refused"),
	}
	m := started(t, api)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	m = settle(t, m, cmd)

	assert.Equal(t, client.UnexpectedErrorMessage, m.errMsg)
	assert.Len(t, m.items, 1)
}

func TestMarkCompleteWithNoItemsDoesNothing(t *testing.T) {
	api := &fakeAPI{}
	m := started(t, api)

	_, cmd := update(t, m, runes("c"))

	assert.Nil(t, cmd)
	assert.Empty(t, api.completed)
}

func TestQuit(t *testing.T) {
	m := started(t, &fakeAPI{})

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)

	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
