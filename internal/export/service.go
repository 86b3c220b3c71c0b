package export

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/walweb/camisolas/internal/inventory"
)

// Ledger is the read side of the inventory ledger the reports are built from.
type Ledger interface {
	Balances(ctx context.Context, filter inventory.BalanceFilter) ([]*inventory.Balance, error)
	RecentMovements(ctx context.Context, limit int) ([]*inventory.Movement, error)
}

// Totals sums every bucket across the report rows.
type Totals struct {
	Available int
	Sample    int
	Sold      int
}

// Report is a point-in-time inventory listing.
type Report struct {
	GeneratedAt time.Time
	Balances    []*inventory.Balance
	Totals      Totals
}

// Service builds inventory reports and writes them as CSV files or a zip archive.
type Service struct {
	ledger Ledger
	now    func() time.Time
}

func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger, now: time.Now}
}

// Report lists the balances matching filter with bucket totals.
func (s *Service) Report(ctx context.Context, filter inventory.BalanceFilter) (*Report, error) {
	bals, err := s.ledger.Balances(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing balances: %w", err)
	}

	r := &Report{GeneratedAt: s.now(), Balances: bals}
	for _, b := range bals {
		r.Totals.Available += b.Available
		r.Totals.Sample += b.Sample
		r.Totals.Sold += b.Sold
	}

	return r, nil
}

// Filename is the dated file name the report is saved under.
func (r *Report) Filename() string {
	return fmt.Sprintf("inventory_%s.csv", r.GeneratedAt.Format(time.DateOnly))
}

// WriteCSV writes one row per balance followed by a TOTAL row.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	rows := [][]string{{"Team", "Color", "Size", "Available", "Sample", "Sold"}}
	for _, b := range r.Balances {
		rows = append(rows, []string{
			b.Team,
			b.Color,
			string(b.Size),
			strconv.Itoa(b.Available),
			strconv.Itoa(b.Sample),
			strconv.Itoa(b.Sold),
		})
	}

	rows = append(rows, []string{
		"TOTAL", "", "",
		strconv.Itoa(r.Totals.Available),
		strconv.Itoa(r.Totals.Sample),
		strconv.Itoa(r.Totals.Sold),
	})

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

// WriteMovementsCSV writes the movement log, newest first.
func WriteMovementsCSV(w io.Writer, movs []*inventory.Movement) error {
	cw := csv.NewWriter(w)

	rows := [][]string{{"ID", "Date", "Kind", "Team", "Color", "Size", "Quantity", "Sale Price", "Return Date", "Note", "Actor", "Batch"}}
	for _, m := range movs {
		price, returnDate, batch := "", "", ""
		if m.SalePrice != nil {
			price = m.SalePrice.StringFixed(2)
		}

		if m.ReturnDate != nil {
			returnDate = m.ReturnDate.Format(time.DateOnly)
		}

		if m.BatchID != nil {
			batch = m.BatchID.String()
		}

		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			m.Date.Format(time.DateOnly),
			string(m.Kind),
			m.Team,
			m.Color,
			string(m.Size),
			strconv.Itoa(m.Quantity),
			price,
			returnDate,
			m.Note,
			m.Actor,
			batch,
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing movements: %w", err)
	}

	return nil
}

// Export writes the full inventory report and the latest movements to
// outputDir and returns the paths written.
func (s *Service) Export(ctx context.Context, outputDir string, movementLimit int) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	report, movs, err := s.load(ctx, movementLimit)
	if err != nil {
		return nil, err
	}

	reportPath := filepath.Join(outputDir, report.Filename())
	if err := writeFile(reportPath, report.WriteCSV); err != nil {
		return nil, err
	}

	movPath := filepath.Join(outputDir, movementsFilename(report.GeneratedAt))
	if err := writeFile(movPath, func(w io.Writer) error { return WriteMovementsCSV(w, movs) }); err != nil {
		return nil, err
	}

	return []string{reportPath, movPath}, nil
}

// Archive streams a zip holding the same two files Export writes.
func (s *Service) Archive(ctx context.Context, w io.Writer, movementLimit int) error {
	report, movs, err := s.load(ctx, movementLimit)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	zf, err := zw.Create(report.Filename())
	if err != nil {
		return fmt.Errorf("adding report: %w", err)
	}

	if err := report.WriteCSV(zf); err != nil {
		return err
	}

	zf, err = zw.Create(movementsFilename(report.GeneratedAt))
	if err != nil {
		return fmt.Errorf("adding movements: %w", err)
	}

	if err := WriteMovementsCSV(zf, movs); err != nil {
		return err
	}

	return zw.Close()
}

func (s *Service) load(ctx context.Context, movementLimit int) (*Report, []*inventory.Movement, error) {
	report, err := s.Report(ctx, inventory.BalanceFilter{})
	if err != nil {
		return nil, nil, err
	}

	movs, err := s.ledger.RecentMovements(ctx, movementLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("listing movements: %w", err)
	}

	return report, movs, nil
}

func movementsFilename(at time.Time) string {
	return fmt.Sprintf("movements_%s.csv", at.Format(time.DateOnly))
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}

	return f.Close()
}
