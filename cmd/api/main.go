package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/walweb/camisolas/internal/app"
	"github.com/walweb/camisolas/internal/config"
	"github.com/walweb/camisolas/internal/database"
	camisolasHttp "github.com/walweb/camisolas/internal/http"
	catalogHandler "github.com/walweb/camisolas/internal/http/catalog"
	exportHandler "github.com/walweb/camisolas/internal/http/export"
	inventoryHandler "github.com/walweb/camisolas/internal/http/inventory"
	matchingHandler "github.com/walweb/camisolas/internal/http/matching"
	orderHandler "github.com/walweb/camisolas/internal/http/order"
)

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

	version, err := database.Migrate(a.DB)
	if err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "schema_version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.Listen(ctx)

	var (
		catalogH   = catalogHandler.NewHandler(a.Catalog)
		inventoryH = inventoryHandler.NewHandler(a.Ledger, a.Feed, a.Importer, cfg.Ledger.SummaryWindow)
		orderH     = orderHandler.NewHandler(a.Orders)
		exportH    = exportHandler.NewHandler(a.Export)
		aliasesH   = matchingHandler.NewHandler(a.Aliases)
	)

	router := camisolasHttp.New(a.Tokens, cfg.CORS.AllowedOrigins, catalogH, inventoryH, orderH, exportH, aliasesH)

	// No write timeout: the balance stream holds its response open.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		// Streams only end once their subscriptions close.
		a.Feed.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("starting server", "port", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
