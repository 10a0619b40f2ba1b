// Package tui is the terminal front end for the todo item API.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dmehra2102/TodoList/pkg/client"
	"github.com/google/uuid"
)

// API is the part of the todo client the UI needs.
type API interface {
	ListIncomplete(ctx context.Context) ([]client.TodoItem, error)
	Create(ctx context.Context, description string) (client.TodoItem, error)
	MarkComplete(ctx context.Context, id uuid.UUID) error
}

type (
	itemsLoadedMsg   struct{ items []client.TodoItem }
	itemAddedMsg     struct{}
	itemCompletedMsg struct{}

	// failedMsg carries the text to show, already mapped for the user.
	failedMsg struct{ text string }
)

type Model struct {
	api     API
	timeout time.Duration
	keys    keyMap

	items  []client.TodoItem
	table  table.Model
	input  textinput.Model
	adding bool
	errMsg string
}

func New(api API, timeout time.Duration) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Id", Width: 36},
			{Title: "Description", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter description..."
	ti.CharLimit = 200

	return Model{
		api:     api,
		timeout: timeout,
		keys:    defaultKeyMap(),
		table:   t,
		input:   ti,
	}
}

// Run starts the UI and blocks until the user quits.
func Run(api API, timeout time.Duration) error {
	_, err := tea.NewProgram(New(api, timeout), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadItems()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		m.setItems(msg.items)
		return m, nil
	case itemAddedMsg:
		m.clearForm()
		return m, m.loadItems()
	case itemCompletedMsg:
		return m, m.loadItems()
	case failedMsg:
		m.errMsg = msg.text
		return m, nil
	case tea.WindowSizeMsg:
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil
	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		// Validation is left to the API so its messages reach the user unchanged.
		return m, m.addItem(m.input.Value())
	case key.Matches(msg, m.keys.Cancel):
		m.clearForm()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.table.Blur()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadItems()
	case key.Matches(msg, m.keys.Complete):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.markComplete(item.ID)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Todo List"))
	b.WriteString("  ")
	b.WriteString(countStyle.Render(fmt.Sprintf("Showing %d Item(s)", len(m.items))))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.adding {
		b.WriteString("\nAdd Item\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.adding {
		b.WriteString(helpStyle.Render(helpLine(m.keys.Submit, m.keys.Cancel)))
	} else {
		b.WriteString(helpStyle.Render(helpLine(m.keys.Add, m.keys.Complete, m.keys.Refresh, m.keys.Quit)))
	}

	return panelStyle.Render(b.String())
}

// setItems shows items ordered by description, descending.
func (m *Model) setItems(items []client.TodoItem) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b client.TodoItem) int {
		return strings.Compare(b.Description, a.Description)
	})
	m.items = sorted

	rows := make([]table.Row, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, table.Row{item.ID.String(), item.Description})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) clearForm() {
	m.adding = false
	m.input.SetValue("")
	m.input.Blur()
	m.table.Focus()
	m.errMsg = ""
}

func (m Model) selected() (client.TodoItem, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.items) {
		return client.TodoItem{}, false
	}
	return m.items[i], true
}

func (m Model) loadItems() tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		items, err := api.ListIncomplete(ctx)
		if err != nil {
			return failedMsg{text: client.UserMessage(err)}
		}
		return itemsLoadedMsg{items: items}
	}
}

func (m Model) addItem(description string) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := api.Create(ctx, description); err != nil {
			return failedMsg{text: client.UserMessage(err)}
		}
		return itemAddedMsg{}
	}
}

func (m Model) markComplete(id uuid.UUID) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := api.MarkComplete(ctx, id); err != nil {
			return failedMsg{text: client.UserMessage(err)}
		}
		return itemCompletedMsg{}
	}
}
