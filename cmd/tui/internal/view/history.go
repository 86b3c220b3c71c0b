package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/walweb/camisolas/internal/inventory"
)

const historyLimit = 200

// historyItem wraps a history entry to implement list.Item.
type historyItem struct {
	entry inventory.HistoryEntry
}

func (i historyItem) first() *inventory.Movement {
	return i.entry.Movements[0]
}

func (i historyItem) Title() string {
	m := i.first()
	kind := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s]", m.Kind))

	if i.entry.IsBatch() {
		return fmt.Sprintf("%s  %s  batch of %d lines, %d units", FormatDate(m.Date), kind, len(i.entry.Movements), i.entry.TotalQuantity())
	}

	return fmt.Sprintf("%s  %s  %s %s (%s) x%d", FormatDate(m.Date), kind, m.Team, m.Color, m.Size, m.Quantity)
}

func (i historyItem) Description() string {
	m := i.first()

	var parts []string
	if m.Note != "" {
		parts = append(parts, m.Note)
	}

	if m.SalePrice != nil {
		parts = append(parts, "price "+FormatPrice(m.SalePrice))
	}

	if m.ReturnDate != nil {
		parts = append(parts, "back "+FormatDate(*m.ReturnDate))
	}

	if m.Actor != "" {
		parts = append(parts, "by "+m.Actor)
	}

	return strings.Join(parts, "  |  ")
}

func (i historyItem) FilterValue() string {
	var b strings.Builder
	for _, m := range i.entry.Movements {
		b.WriteString(m.Team + " " + m.Color + " " + m.Note + " ")
	}

	return b.String()
}

// HistoryModel lists recent movements with batches collapsed into one row.
// Enter expands a batch.
type HistoryModel struct {
	CommonModel
	deps Deps

	list     list.Model
	expanded *inventory.HistoryEntry
	loading  bool
	err      error
}

func NewHistoryModel(deps Deps) HistoryModel {
	l := list.New([]list.Item{}, historyDelegate{}, 0, 0)
	l.Title = "Movement history"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return HistoryModel{deps: deps, list: l, loading: true}
}

func (m HistoryModel) Title() string { return "History" }

func (m HistoryModel) ShortHelp() string {
	if m.expanded != nil {
		return "Esc: back to history"
	}

	return "Esc: back | Enter: expand batch | /: filter | r: refresh"
}

func (m HistoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyMsg:
		m.loading = false
		m.err = msg.err

		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = historyItem{entry: e}
		}

		return m, m.list.SetItems(items)

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.expanded != nil {
			if msg.Type == tea.KeyEsc {
				m.expanded = nil
			}

			return m, nil
		}

		if m.list.FilterState() != list.Filtering {
			switch {
			case msg.Type == tea.KeyEsc:
				return m, Back
			case msg.Type == tea.KeyEnter:
				if it, ok := m.list.SelectedItem().(historyItem); ok && it.entry.IsBatch() {
					m.expanded = &it.entry
				}

				return m, nil
			case msg.String() == "r":
				m.loading = true
				return m, m.loadCmd()
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m HistoryModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading history...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(statusLine("", m.err))
	}

	if m.expanded != nil {
		return lipgloss.NewStyle().Padding(1).Render(batchView(*m.expanded))
	}

	return lipgloss.NewStyle().Padding(1).Render(m.list.View())
}

func batchView(e inventory.HistoryEntry) string {
	var b strings.Builder

	first := e.Movements[0]
	fmt.Fprintf(&b, "%s  %s  %s\n\n", FormatDate(first.Date), first.Kind, first.Note)

	for _, m := range e.Movements {
		fmt.Fprintf(&b, "  %-20s %-10s %-3s x%-4d %s\n", m.Team, m.Color, m.Size, m.Quantity, FormatPrice(m.SalePrice))
	}

	fmt.Fprintf(&b, "\n  Total: %d units", e.TotalQuantity())

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(b.String())
}

type historyMsg struct {
	entries []inventory.HistoryEntry
	err     error
}

func (m HistoryModel) loadCmd() tea.Cmd {
	ledger := m.deps.Ledger

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := ledger.History(ctx, historyLimit)

		return historyMsg{entries: entries, err: err}
	}
}

type historyDelegate struct{}

func (d historyDelegate) Height() int                             { return 2 }
func (d historyDelegate) Spacing() int                            { return 0 }
func (d historyDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d historyDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(historyItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)

	desc := i.Description()
	if desc == "" {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(desc))
}
