package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/walweb/camisolas/internal/inventory"
)

type balanceState int

const (
	balanceStateBrowse balanceState = iota
	balanceStateTransfer
	balanceStateAdjust
)

// BalancesModel shows the live balance table and the activity ticker.
type BalancesModel struct {
	CommonModel
	deps Deps
	sub  *inventory.Subscription

	state  balanceState
	table  table.Model
	bals   []*inventory.Balance
	ticker []string
	form   *huh.Form

	loading bool
	status  string
	err     error

	input *bucketInput
}

// bucketInput is shared with the form, so it must outlive model copies.
type bucketInput struct {
	from   inventory.Bucket
	to     inventory.Bucket
	bucket inventory.Bucket
	amount string
}

func NewBalancesModel(deps Deps) BalancesModel {
	columns := []table.Column{
		{Title: "Team", Width: 20},
		{Title: "Color", Width: 12},
		{Title: "Size", Width: 5},
		{Title: "Available", Width: 10},
		{Title: "Sample", Width: 8},
		{Title: "Sold", Width: 8},
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

	return BalancesModel{
		deps:    deps,
		sub:     deps.Feed.Subscribe(),
		table:   t,
		loading: true,
	}
}

func (m BalancesModel) Title() string { return "Balances" }

func (m BalancesModel) ShortHelp() string {
	if m.state != balanceStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | r: refresh | t: transfer | a: adjust"
}

func (m BalancesModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitCmd())
}

// Close releases the live-update subscription.
func (m BalancesModel) Close() {
	m.sub.Close()
}

func (m BalancesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case balancesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.bals = msg.bals
		m.ticker = msg.ticker
		m.refreshTable()

		return m, nil

	case snapshotMsg:
		m.bals = msg.snap
		m.refreshTable()

		return m, tea.Batch(m.loadCmd(), m.waitCmd())

	case actionMsg:
		m.status, m.err = msg.status, msg.err
		m.state = balanceStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 14)
		return m, nil
	}

	switch m.state {
	case balanceStateBrowse:
		return m.updateBrowse(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m BalancesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.Close()
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "t":
			return m.startForm(balanceStateTransfer)
		case "a":
			return m.startForm(balanceStateAdjust)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func bucketOptions() []huh.Option[inventory.Bucket] {
	return []huh.Option[inventory.Bucket]{
		huh.NewOption("Available", inventory.BucketAvailable),
		huh.NewOption("Sample", inventory.BucketSample),
		huh.NewOption("Sold", inventory.BucketSold),
	}
}

func (m BalancesModel) startForm(state balanceState) (tea.Model, tea.Cmd) {
	if m.selected() == nil {
		return m, nil
	}

	if !m.deps.Actor.IsAdmin() {
		m.err = inventory.ErrNotAuthorized
		return m, nil
	}

	in := &bucketInput{
		from:   inventory.BucketAvailable,
		to:     inventory.BucketSample,
		bucket: inventory.BucketAvailable,
	}
	m.input = in

	var fields []huh.Field

	if state == balanceStateTransfer {
		fields = []huh.Field{
			huh.NewSelect[inventory.Bucket]().Title("From").Options(bucketOptions()...).Value(&in.from),
			huh.NewSelect[inventory.Bucket]().Title("To").Options(bucketOptions()...).Value(&in.to),
			huh.NewInput().Title("Amount").Value(&in.amount).Validate(positiveInt),
		}
	} else {
		fields = []huh.Field{
			huh.NewSelect[inventory.Bucket]().Title("Bucket").Options(bucketOptions()...).Value(&in.bucket),
			huh.NewInput().Title("Delta (+/-)").Value(&in.amount).Validate(signedInt),
		}
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(40).WithShowHelp(false)
	m.state = state
	m.err = nil
	m.table.Blur()

	return m, m.form.Init()
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a whole number above zero")
	}

	return nil
}

func signedInt(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a whole number")
	}

	return nil
}

func (m BalancesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = balanceStateBrowse
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

	save := m.saveCmd()
	m.state = balanceStateBrowse
	m.form = nil
	m.table.Focus()

	return m, save
}

func (m BalancesModel) View() string {
	if m.loading && m.bals == nil {
		return lipgloss.NewStyle().Padding(2).Render("Loading balances...")
	}

	ticker := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		PaddingBottom(1).
		Render(strings.Join(m.ticker, "\n"))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left, ticker, tableView)

	if m.form != nil {
		title := "Transfer between buckets"
		if m.state == balanceStateAdjust {
			title = "Adjust bucket"
		}

		b := m.selected()
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(44).
			Render(fmt.Sprintf("%s\n\n%s %s (%s)\n\n%s", title, b.Team, b.Color, b.Size, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m BalancesModel) selected() *inventory.Balance {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.bals) {
		return nil
	}

	return m.bals[idx]
}

func (m *BalancesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.bals))
	for _, b := range m.bals {
		rows = append(rows, table.Row{
			b.Team,
			b.Color,
			string(b.Size),
			strconv.Itoa(b.Available),
			strconv.Itoa(b.Sample),
			strconv.Itoa(b.Sold),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type balancesMsg struct {
	bals   []*inventory.Balance
	ticker []string
	err    error
}

type snapshotMsg struct {
	snap inventory.Snapshot
}

func (m BalancesModel) loadCmd() tea.Cmd {
	deps := m.deps

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		bals, err := deps.Ledger.Balances(ctx, inventory.BalanceFilter{})
		if err != nil {
			return balancesMsg{err: err}
		}

		ticker, err := deps.Ledger.Summary(ctx, deps.Actor, deps.SummaryWindow)
		if err != nil {
			return balancesMsg{err: err}
		}

		return balancesMsg{bals: bals, ticker: ticker}
	}
}

// waitCmd blocks until the feed delivers the next snapshot.
func (m BalancesModel) waitCmd() tea.Cmd {
	sub := m.sub

	return func() tea.Msg {
		snap, ok := <-sub.C()
		if !ok {
			return nil
		}

		return snapshotMsg{snap: snap}
	}
}

func (m BalancesModel) saveCmd() tea.Cmd {
	b := m.selected()
	if b == nil {
		return nil
	}

	var (
		deps  = m.deps
		state = m.state
		in    = *m.input
	)

	amount, _ := strconv.Atoi(strings.TrimSpace(in.amount))

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var err error
		if state == balanceStateTransfer {
			_, err = deps.Ledger.TransferBucket(ctx, deps.Actor, b.ID, in.from, in.to, amount)
		} else {
			_, err = deps.Ledger.AdjustDirect(ctx, deps.Actor, b.ID, in.bucket, amount)
		}

		if err != nil {
			return actionMsg{err: err}
		}

		return actionMsg{status: fmt.Sprintf("Updated %s %s (%s).", b.Team, b.Color, b.Size)}
	}
}
