// Package tui implements the interactive reconciliation screen.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

// State is the current mode of the reconcile screen.
type State int

// Screen states.
const (
	StateBrowsing State = iota
	StatePicking
)

const pickerHeight = 10

// Model holds the reconcile screen state.
type Model struct {
	ctx          context.Context
	storage      service.Storage
	lastError    error
	transactions []model.Transaction
	categories   []model.Category
	filtered     []model.Category
	table        table.Model
	filter       textinput.Model
	keymap       KeyMap
	cursor       int
	reconciled   int
	width        int
	height       int
	state        State
	quitting     bool
}

// savedMsg reports the outcome of persisting a categorization.
type savedMsg struct {
	err error
	id  string
}

func newModel(ctx context.Context, storage service.Storage, transactions []model.Transaction, categories []model.Category) Model {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Description", Width: 40},
		{Title: "Customer", Width: 20},
		{Title: "Amount", Width: 12},
		{Title: "Type", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#333")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(cli.PrimaryColor).
		Bold(true)
	t.SetStyles(s)

	filter := textinput.New()
	filter.Placeholder = "Filter categories..."
	filter.CharLimit = 50

	m := Model{
		ctx:          ctx,
		storage:      storage,
		transactions: transactions,
		categories:   categories,
		filtered:     categories,
		table:        t,
		filter:       filter,
		keymap:       DefaultKeyMap(),
		state:        StateBrowsing,
		width:        80,
		height:       24,
	}
	m.refreshRows()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(5, m.height-8))
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			m.state = StateBrowsing
			return m, nil
		}
		m.lastError = nil
		m.reconciled++
		m.removeTransaction(msg.id)
		m.state = StateBrowsing
		if len(m.transactions) == 0 {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		if m.state == StatePicking {
			return m.updatePicking(msg)
		}
		return m.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Select):
		if len(m.transactions) == 0 {
			return m, nil
		}
		m.state = StatePicking
		m.cursor = 0
		m.filter.SetValue("")
		m.filter.Focus()
		m.applyFilter()
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.Skip):
		m.table.MoveDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updatePicking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Back):
		m.state = StateBrowsing
		m.filter.Blur()
		return m, nil

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keymap.ClearQuery):
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil

	case key.Matches(msg, m.keymap.Select):
		if m.cursor >= len(m.filtered) {
			return m, nil
		}
		txn := m.currentTransaction()
		if txn == nil {
			return m, nil
		}
		return m, m.saveCmd(*txn, m.filtered[m.cursor].ID)
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// saveCmd persists the categorization. The storage layer flips the status to
// manually reconciled when a category is set on a pending transaction.
func (m Model) saveCmd(txn model.Transaction, categoryID int64) tea.Cmd {
	return func() tea.Msg {
		txn.CategoryID = &categoryID
		if err := m.storage.SaveTransaction(m.ctx, &txn); err != nil {
			return savedMsg{id: txn.ID, err: err}
		}
		return savedMsg{id: txn.ID}
	}
}

func (m *Model) currentTransaction() *model.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.transactions) {
		return nil
	}
	return &m.transactions[idx]
}

func (m *Model) removeTransaction(id string) {
	for i := range m.transactions {
		if m.transactions[i].ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			break
		}
	}
	m.refreshRows()
	if m.table.Cursor() >= len(m.transactions) && len(m.transactions) > 0 {
		m.table.SetCursor(len(m.transactions) - 1)
	}
}

func (m *Model) refreshRows() {
	rows := make([]table.Row, 0, len(m.transactions))
	for _, txn := range m.transactions {
		rows = append(rows, table.Row{
			txn.Date.Format("2006-01-02"),
			txn.Description,
			txn.CustomerName,
			fmt.Sprintf("%.2f", txn.Amount),
			string(txn.Type),
		})
	}
	m.table.SetRows(rows)
}

func (m *Model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if query == "" {
		m.filtered = m.categories
	} else {
		filtered := make([]model.Category, 0, len(m.categories))
		for _, cat := range m.categories {
			if strings.Contains(strings.ToLower(cat.Name), query) ||
				strings.Contains(strings.ToLower(cat.Code), query) {
				filtered = append(filtered, cat)
			}
		}
		m.filtered = filtered
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle("Reconcile Transactions"))
	b.WriteString("\n\n")

	switch m.state {
	case StatePicking:
		b.WriteString(m.pickerView())
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf(
			"%d pending · %d reconciled · enter: categorize · s: skip · q: quit",
			len(m.transactions), m.reconciled)))
	}

	if m.lastError != nil {
		b.WriteString("\n")
		b.WriteString(cli.FormatError(m.lastError.Error()))
	}

	return b.String()
}

func (m Model) pickerView() string {
	var b strings.Builder

	if txn := m.currentTransaction(); txn != nil {
		b.WriteString(cli.BoldStyle.Render(txn.Description))
		b.WriteString("\n")
		b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf(
			"%s · %s · %s",
			txn.Date.Format("2006-01-02"),
			cli.FormatAmount(txn.Amount),
			txn.Type)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(cli.SubtleStyle.Render("No categories match."))
		b.WriteString("\n")
	}

	start := 0
	if m.cursor >= pickerHeight {
		start = m.cursor - pickerHeight + 1
	}
	end := min(start+pickerHeight, len(m.filtered))

	for i := start; i < end; i++ {
		cat := m.filtered[i]
		line := fmt.Sprintf("%s  %s", cat.Code, cat.Name)
		if i == m.cursor {
			b.WriteString(cli.PromptStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(cli.SubtleStyle.Render("enter: assign · esc: back · ctrl+u: clear filter"))

	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
