package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/walweb/camisolas/internal/order"
)

var orderStatusFilters = []*order.Status{
	nil,
	new(order.StatusPending),
	new(order.StatusPendingReceive),
	new(order.StatusPendingDispatch),
	new(order.StatusDelivered),
	new(order.StatusReceived),
	new(order.StatusDispatched),
	new(order.StatusCancelled),
}

var orderKindFilters = []*order.Kind{
	nil,
	new(order.KindSale),
	new(order.KindSupply),
	new(order.KindDispatch),
}

// orderAction is bound to the confirmation prompt.
type orderAction struct {
	id      int64
	cancel  bool
	proceed bool
}

// OrdersModel lists orders and lets staff confirm or cancel pending ones.
type OrdersModel struct {
	CommonModel
	deps Deps

	table  table.Model
	orders []*order.Order
	form   *huh.Form
	action *orderAction

	statusIdx int
	kindIdx   int

	loading bool
	status  string
	err     error
}

func NewOrdersModel(deps Deps) OrdersModel {
	columns := []table.Column{
		{Title: "#", Width: 6},
		{Title: "Date", Width: 12},
		{Title: "Kind", Width: 9},
		{Title: "Status", Width: 17},
		{Title: "Counterparty", Width: 24},
		{Title: "Total", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return OrdersModel{deps: deps, table: t, loading: true}
}

func (m OrdersModel) Title() string { return "Orders" }

func (m OrdersModel) ShortHelp() string {
	if m.form != nil {
		return "Navigate prompt | Esc: cancel"
	}

	return "Esc: back | s: status filter | k: kind filter | c: confirm | x: cancel | r: refresh"
}

func (m OrdersModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m OrdersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ordersMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.orders = msg.orders
		m.refreshTable()

		return m, nil

	case actionMsg:
		m.status, m.err = msg.status, msg.err
		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 14)
		return m, nil
	}

	if m.form != nil {
		return m.updatePrompt(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % len(orderStatusFilters)
			return m, m.loadCmd()
		case "k":
			m.kindIdx = (m.kindIdx + 1) % len(orderKindFilters)
			return m, m.loadCmd()
		case "c":
			return m.startPrompt(false)
		case "x":
			return m.startPrompt(true)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m OrdersModel) startPrompt(cancel bool) (tea.Model, tea.Cmd) {
	o := m.selected()
	if o == nil {
		return m, nil
	}

	if !o.Status.Pending() {
		m.status, m.err = fmt.Sprintf("Order #%d is already %s.", o.ID, o.Status), nil
		return m, nil
	}

	verb := "Confirm"
	if cancel {
		verb = "Cancel"
	}

	m.action = &orderAction{id: o.ID, cancel: cancel}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s order #%d for %s?", verb, o.ID, o.Counterparty)).
				Affirmative("Yes").
				Negative("No").
				Value(&m.action.proceed),
		),
	).WithWidth(45).WithShowHelp(false)

	m.table.Blur()

	return m, m.form.Init()
}

func (m OrdersModel) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.form = nil
	m.table.Focus()

	if !m.action.proceed {
		return m, nil
	}

	return m, m.actionCmd(*m.action)
}

func (m OrdersModel) actionCmd(a orderAction) tea.Cmd {
	deps := m.deps

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if a.cancel {
			if err := deps.Orders.Cancel(ctx, deps.Actor, a.id); err != nil {
				return actionMsg{err: err}
			}

			return actionMsg{status: fmt.Sprintf("Order #%d cancelled.", a.id)}
		}

		o, err := deps.Orders.Confirm(ctx, deps.Actor, a.id, time.Time{})
		if err != nil {
			return actionMsg{err: err}
		}

		return actionMsg{status: fmt.Sprintf("Order #%d is now %s.", o.ID, o.Status)}
	}
}

func (m OrdersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading orders...")
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [k] Kind: %s",
		activeStyle(filterLabel(orderStatusFilters[m.statusIdx])),
		activeStyle(filterLabel(orderKindFilters[m.kindIdx])),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	side := m.detailView()
	if m.form != nil {
		side = m.form.View()
	}

	if side != "" {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(side)

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m OrdersModel) detailView() string {
	o := m.selected()
	if o == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d  %s\n", o.ID, o.Counterparty)

	if o.Contact != "" {
		fmt.Fprintf(&b, "Contact: %s\n", o.Contact)
	}

	if o.DeliveryDate != nil {
		fmt.Fprintf(&b, "Delivery: %s\n", FormatDate(*o.DeliveryDate))
	}

	b.WriteString("\n")

	for _, l := range o.Lines {
		desc := l.Description
		if l.Kind == order.LineInventory && l.Size != nil {
			desc = fmt.Sprintf("%s (%s)", desc, *l.Size)
		}

		fmt.Fprintf(&b, "%3d x %-24s %10s\n", l.Quantity, desc, l.Subtotal().StringFixed(2))
	}

	fmt.Fprintf(&b, "\nTotal: %s", o.Total.StringFixed(2))

	if o.Notes != "" {
		fmt.Fprintf(&b, "\n\n%s", lipgloss.NewStyle().Faint(true).Render(o.Notes))
	}

	return b.String()
}

func filterLabel[T ~string](v *T) string {
	if v == nil {
		return "All"
	}

	return string(*v)
}

func (m OrdersModel) selected() *order.Order {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.orders) {
		return nil
	}

	return m.orders[idx]
}

func (m *OrdersModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.orders))
	for _, o := range m.orders {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", o.ID),
			FormatDate(o.OrderDate),
			string(o.Kind),
			string(o.Status),
			o.Counterparty,
			o.Total.StringFixed(2),
		})
	}

	m.table.SetRows(rows)
}

type ordersMsg struct {
	orders []*order.Order
	err    error
}

func (m OrdersModel) loadCmd() tea.Cmd {
	svc := m.deps.Orders
	filter := order.ListFilter{
		Status: orderStatusFilters[m.statusIdx],
		Kind:   orderKindFilters[m.kindIdx],
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		orders, err := svc.List(ctx, filter)

		return ordersMsg{orders: orders, err: err}
	}
}
