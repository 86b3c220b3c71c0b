package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/inventory/memory"
)

var day = time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()

	ctx := context.Background()
	clock := func() time.Time { return day }
	clerk := auth.Actor{ID: "clerk@camisolas.gt", Role: auth.RoleStaff}

	store := memory.New()
	mx, gt := uuid.New(), uuid.New()
	store.AddVariant(mx, "Mexico", "Green")
	store.AddVariant(gt, "Guatemala", "Blue")

	ledger := inventory.NewService(store, inventory.WithClock(clock))

	for _, p := range []inventory.RecordParams{
		{VariantID: mx, Size: inventory.SizeM, Kind: inventory.KindIn, Quantity: 5},
		{VariantID: gt, Size: inventory.SizeL, Kind: inventory.KindIn, Quantity: 3},
		{VariantID: mx, Size: inventory.SizeM, Kind: inventory.KindSale, Quantity: 2, SalePrice: new(decimal.RequireFromString("150"))},
	} {
		_, err := ledger.RecordMovement(ctx, clerk, p)
		require.NoError(t, err)
	}

	svc := NewService(ledger)
	svc.now = clock

	return svc
}

func readCSV(t *testing.T, r io.Reader) [][]string {
	t.Helper()

	rows, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)

	return rows
}

func TestService_Report(t *testing.T) {
	svc := newService(t)

	report, err := svc.Report(context.Background(), inventory.BalanceFilter{})
	require.NoError(t, err)

	assert.Equal(t, Totals{Available: 6, Sample: 0, Sold: 2}, report.Totals)
	assert.Equal(t, "inventory_2025-03-14.csv", report.Filename())

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf))

	assert.Equal(t, [][]string{
		{"Team", "Color", "Size", "Available", "Sample", "Sold"},
		{"Guatemala", "Blue", "L", "3", "0", "0"},
		{"Mexico", "Green", "M", "3", "0", "2"},
		{"TOTAL", "", "", "6", "0", "2"},
	}, readCSV(t, &buf))
}

func TestService_Export(t *testing.T) {
	svc := newService(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := svc.Export(context.Background(), dir, 10)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(dir, "movements_2025-03-14.csv"), paths[1])

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()

	rows := readCSV(t, f)
	require.Len(t, rows, 4)
	assert.Equal(t, "sale", rows[1][2])
	assert.Equal(t, "150.00", rows[1][7])
	assert.Equal(t, "clerk@camisolas.gt", rows[1][10])
}

func TestService_Archive(t *testing.T) {
	svc := newService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.Archive(context.Background(), &buf, 10))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{"inventory_2025-03-14.csv", "movements_2025-03-14.csv"}, names)
}

type failingLedger struct{}

func (failingLedger) Balances(context.Context, inventory.BalanceFilter) ([]*inventory.Balance, error) {
	return nil, errors.New("db down")
}

func (failingLedger) RecentMovements(context.Context, int) ([]*inventory.Movement, error) {
	return nil, nil
}

func TestService_ReportError(t *testing.T) {
	_, err := NewService(failingLedger{}).Report(context.Background(), inventory.BalanceFilter{})
	assert.EqualError(t, err, "listing balances: db down")
}
