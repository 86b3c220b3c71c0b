// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	catalogStore "github.com/walweb/camisolas/internal/catalog/store"
	"github.com/walweb/camisolas/internal/config"
	"github.com/walweb/camisolas/internal/database"
	"github.com/walweb/camisolas/internal/export"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/importer/stockcsv"
	"github.com/walweb/camisolas/internal/inventory"
	inventoryStore "github.com/walweb/camisolas/internal/inventory/store"
	"github.com/walweb/camisolas/internal/matching"
	matchingStore "github.com/walweb/camisolas/internal/matching/store"
	"github.com/walweb/camisolas/internal/order"
	orderStore "github.com/walweb/camisolas/internal/order/store"
)

type App struct {
	Config   *config.Config
	DB       *sql.DB
	Resolver *auth.Resolver
	Tokens   *auth.Tokens
	Feed     *inventory.Feed
	Ledger   *inventory.Service
	Catalog  *catalog.Service
	Orders   *order.Service
	Aliases  *matching.Service
	Importer *importer.Service
	Export   *export.Service
}

// New connects to the database and builds every service.
// With LEDGER_LISTEN the feed is driven by Postgres notifications, which also
// covers writes from other processes; otherwise the ledger publishes directly.
func New(cfg *config.Config) (*App, error) {
	policy, err := inventory.ParseOutPolicy(cfg.Ledger.OutPolicy)
	if err != nil {
		return nil, fmt.Errorf("reading ledger config: %w", err)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		DB:       db,
		Resolver: auth.NewResolver(cfg.Auth.AdminEmails, cfg.Auth.ViewerEmails),
	}

	a.Tokens = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.Name, a.Resolver)

	a.Feed = inventory.NewFeed(func(ctx context.Context) (inventory.Snapshot, error) {
		return a.Ledger.Snapshot(ctx)
	})

	opts := []inventory.Option{inventory.WithOutPolicy(policy)}
	if !cfg.Ledger.Listen {
		opts = append(opts, inventory.WithFeed(a.Feed))
	}

	a.Ledger = inventory.NewService(inventoryStore.New(db), opts...)
	a.Catalog = catalog.NewService(catalogStore.New(db))
	a.Orders = order.NewService(orderStore.New(db), a.Ledger)
	a.Aliases = matching.NewService(matchingStore.New(db), a.Catalog)
	a.Importer = importer.NewService(a.Aliases, a.Ledger, map[importer.Format]importer.Parser{
		importer.FormatStockCSV: stockcsv.NewParser(),
	})
	a.Export = export.NewService(a.Ledger)

	return a, nil
}

// Listen feeds change notifications into the feed until ctx is done.
// It does nothing unless LEDGER_LISTEN is set.
func (a *App) Listen(ctx context.Context) {
	if !a.Config.Ledger.Listen {
		return
	}

	inventoryStore.NewListener(a.Config.ConnectionString(), a.Feed.Changed).Run(ctx)
}

func (a *App) Close() error {
	a.Feed.Close()
	return a.DB.Close()
}
