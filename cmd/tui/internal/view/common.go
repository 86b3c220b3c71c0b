package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/order"
)

// Deps are the services every screen talks to and the operator acting through them.
type Deps struct {
	Ledger        *inventory.Service
	Feed          *inventory.Feed
	Catalog       *catalog.Service
	Orders        *order.Service
	Importer      *importer.Service
	Actor         auth.Actor
	SummaryWindow int
}

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// actionMsg reports the outcome of a mutation started from a screen.
type actionMsg struct {
	status string
	err    error
}
