package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/walweb/camisolas/cmd/tui/internal/view"
	"github.com/walweb/camisolas/internal/app"
	"github.com/walweb/camisolas/internal/config"
)

type model struct {
	deps view.Deps

	currentView View
	width       int
	height      int

	balancesView view.BalancesModel
	movementView view.MovementModel
	historyView  view.HistoryModel
	ordersView   view.OrdersModel
	importView   view.ImportModel
}

type View int

const (
	ViewMenu     View = 0
	ViewBalances View = 1
	ViewMovement View = 2
	ViewHistory  View = 3
	ViewOrders   View = 4
	ViewImport   View = 5
)

func initialModel(deps view.Deps) model {
	return model{
		deps:        deps,
		currentView: ViewMenu,
		importView:  view.NewImportModel(deps),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewBalances
				m.balancesView = view.NewBalancesModel(m.deps)

				return m, tea.Batch(m.balancesView.Init(), m.resize())
			case "2":
				m.currentView = ViewMovement
				m.movementView = view.NewMovementModel(m.deps)

				return m, m.movementView.Init()
			case "3":
				m.currentView = ViewHistory
				m.historyView = view.NewHistoryModel(m.deps)

				return m, tea.Batch(m.historyView.Init(), m.resize())
			case "4":
				m.currentView = ViewOrders
				m.ordersView = view.NewOrdersModel(m.deps)

				return m, tea.Batch(m.ordersView.Init(), m.resize())
			case "5":
				m.currentView = ViewImport
				return m, m.importView.Init()
			}
		}

	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewBalances:
		var newModel tea.Model
		newModel, cmd = m.balancesView.Update(msg)
		m.balancesView = newModel.(view.BalancesModel)
	case ViewMovement:
		var newModel tea.Model
		newModel, cmd = m.movementView.Update(msg)
		m.movementView = newModel.(view.MovementModel)
	case ViewHistory:
		var newModel tea.Model
		newModel, cmd = m.historyView.Update(msg)
		m.historyView = newModel.(view.HistoryModel)
	case ViewOrders:
		var newModel tea.Model
		newModel, cmd = m.ordersView.Update(msg)
		m.ordersView = newModel.(view.OrdersModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

// resize replays the last window size to a freshly opened view.
func (m model) resize() tea.Cmd {
	if m.width == 0 {
		return nil
	}

	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

	return func() tea.Msg { return size }
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Camisolas Inventory (%s, %s)\n\n", m.deps.Actor.Name(), m.deps.Actor.Role) +
				"1. Balances\n" +
				"2. Record Movement\n" +
				"3. History\n" +
				"4. Orders\n" +
				"5. Import Stock File\n\n" +
				"q. Quit",
		)
	case ViewBalances:
		return m.balancesView.View()
	case ViewMovement:
		return m.movementView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewOrders:
		return m.ordersView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	go a.Listen(ctx)

	deps := view.Deps{
		Ledger:        a.Ledger,
		Feed:          a.Feed,
		Catalog:       a.Catalog,
		Orders:        a.Orders,
		Importer:      a.Importer,
		Actor:         a.Resolver.Resolve(cfg.Ledger.Operator),
		SummaryWindow: cfg.Ledger.SummaryWindow,
	}

	p := tea.NewProgram(initialModel(deps), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
