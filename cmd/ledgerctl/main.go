package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/walweb/camisolas/internal/app"
	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/config"
	"github.com/walweb/camisolas/internal/database"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/inventory"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var asFlag = &cli.StringFlag{
	Name:     "as",
	Usage:    "email of the operator; must be listed in AUTH_ADMIN_EMAILS for destructive commands",
	EnvVars:  []string{"LEDGER_OPERATOR"},
	Required: true,
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ledgerctl",
		Usage: "maintain the jersey inventory ledger",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply pending schema migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "revert the last migration instead"},
				},
				Action: migrateCmd,
			},
			{
				Name:   "reset",
				Usage:  "zero every balance and empty the movement log",
				Flags:  []cli.Flag{asFlag},
				Action: resetCmd,
			},
			{
				Name:   "clear-log",
				Usage:  "delete every movement record, keeping balances",
				Flags:  []cli.Flag{asFlag},
				Action: clearLogCmd,
			},
			{
				Name:  "token",
				Usage: "issue an API bearer token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: tokenCmd,
			},
			{
				Name:      "import",
				Usage:     "submit a stock CSV as one batch",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					asFlag,
					&cli.StringFlag{Name: "kind", Value: string(inventory.KindIn), Usage: "in, out, to_sample or sale"},
					&cli.StringFlag{Name: "note"},
					&cli.TimestampFlag{Name: "date", Layout: time.DateOnly},
				},
				Action: importCmd,
			},
			{
				Name:  "export",
				Usage: "write the inventory report and movement log as CSV files",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "out", Value: ".", Usage: "output directory"},
					&cli.IntFlag{Name: "movements", Value: inventory.MaxRecentLimit, Usage: "how many recent movements to include"},
				},
				Action: exportCmd,
			},
			{
				Name:  "alias",
				Usage: "teach the importer another spelling of a catalog variant",
				Flags: []cli.Flag{
					asFlag,
					&cli.StringFlag{Name: "team", Required: true},
					&cli.StringFlag{Name: "color", Required: true},
					&cli.StringFlag{Name: "variant", Required: true, Usage: "catalog variant id"},
				},
				Action: aliasCmd,
			},
		},
	}
}

func open() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// One-shot commands publish through notifications only.
	cfg.Ledger.Listen = true

	return app.New(cfg)
}

func operator(c *cli.Context, a *app.App) auth.Actor {
	return a.Resolver.Resolve(c.String("as"))
}

func migrateCmd(c *cli.Context) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Bool("down") {
		if err := database.Rollback(a.DB); err != nil {
			return err
		}

		fmt.Fprintln(c.App.Writer, "reverted last migration")

		return nil
	}

	version, err := database.Migrate(a.DB)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "schema at version %d\n", version)

	return nil
}

func resetCmd(c *cli.Context) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Ledger.ResetAll(c.Context, operator(c, a)); err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, "inventory reset")

	return nil
}

func clearLogCmd(c *cli.Context) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Ledger.ClearLog(c.Context, operator(c, a))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "deleted %d movements\n", n)

	return nil
}

// tokenCmd needs no database: roles come from configuration.
func tokenCmd(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	resolver := auth.NewResolver(cfg.Auth.AdminEmails, cfg.Auth.ViewerEmails)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.Name, resolver)

	token, err := tokens.Issue(c.String("email"))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)

	return nil
}

func importCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one FILE argument", 2)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	kind, err := inventory.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}

	req := importer.Request{
		Format: importer.FormatStockCSV,
		Kind:   kind,
		Note:   c.String("note"),
	}

	if ts := c.Timestamp("date"); ts != nil {
		req.Date = *ts
	}

	res, err := a.Importer.Import(c.Context, operator(c, a), req, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "charset %s, %d rows: %d applied, %d failed, %d skipped\n",
		res.Parsed.Charset, len(res.Parsed.Rows), len(res.Batch.Applied), res.Batch.Failed(), len(res.Skipped))

	for _, s := range res.Skipped {
		fmt.Fprintf(c.App.ErrWriter, "line %d: %v\n", s.Line, s.Err)
	}

	for _, fl := range res.Batch.Failures {
		fmt.Fprintf(c.App.ErrWriter, "line %d: %v\n", res.RowLines[fl.Index], fl.Err)
	}

	return nil
}

func exportCmd(c *cli.Context) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	paths, err := a.Export.Export(c.Context, c.Path("out"), c.Int("movements"))
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}

	return nil
}

func aliasCmd(c *cli.Context) error {
	id, err := uuid.Parse(c.String("variant"))
	if err != nil {
		return cli.Exit("--variant must be a variant id", 2)
	}

	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	alias, err := a.Aliases.Learn(c.Context, operator(c, a), c.String("team"), c.String("color"), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%q / %q now resolve to %s\n", alias.Team, alias.Color, alias.VariantID)

	return nil
}
