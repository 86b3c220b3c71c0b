package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walweb/camisolas/internal/inventory"
)

func TestSummaryLines(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 45, 0, 0, time.UTC)
	m := func(kind inventory.Kind, team string) *inventory.Movement {
		return &inventory.Movement{Kind: kind, Team: team, Size: inventory.SizeM, Quantity: 2, CreatedAt: created}
	}

	t.Run("Placeholders", func(t *testing.T) {
		bals := []*inventory.Balance{
			{Team: "Guatemala", Available: 4, Sold: 3},
			{Team: "Mexico", Available: 6, Sold: 1},
			{Team: "Mexico", Available: 1, Sold: 5},
		}

		got := inventory.SummaryLines("10:00", "clerk", nil, bals)

		assert.Equal(t, []string{
			"[10:00] CAMISOLAS INVENTORY ::: STATUS: OPERATIONAL ::: USER: CLERK",
			"SALES: WAITING FOR THE FIRST GOAL OF THE DAY",
			"SAMPLES: ALL STOCK IS IN THE WAREHOUSE",
			"DATA: 11 UNITS IN STOCK ::: TOP SELLER: Mexico",
		}, got)
	})

	t.Run("AtMostFivePerKind", func(t *testing.T) {
		var movs []*inventory.Movement
		for range 7 {
			movs = append(movs, m(inventory.KindSale, "Honduras"))
		}

		movs = append(movs, m(inventory.KindToSample, "Panama"), m(inventory.KindIn, "El Salvador"))

		got := inventory.SummaryLines("10:00", "owner", movs, nil)

		require.Len(t, got, 1+5+1+1)
		assert.Equal(t, "SALE [09:45]: Honduras (M) x2", got[1])
		assert.Equal(t, "ON DISPLAY: Panama (M) x2", got[6])
		assert.Equal(t, "NEW ARRIVAL: El Salvador (M) x2", got[7])
	})

	t.Run("NoSalesYet", func(t *testing.T) {
		got := inventory.SummaryLines("10:00", "owner", nil, []*inventory.Balance{{Team: "Panama", Available: 2}})
		assert.Equal(t, "DATA: 2 UNITS IN STOCK ::: TOP SELLER: none yet", got[3])
	})
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)
	stock(t, svc, variant, inventory.SizeM, 3)

	_, err := svc.RecordMovement(ctx, staff, inventory.RecordParams{
		VariantID: variant, Size: inventory.SizeM, Kind: inventory.KindSale, Quantity: 1,
	})
	require.NoError(t, err)

	lines, err := svc.Summary(ctx, staff, 0)
	require.NoError(t, err)

	assert.Equal(t, "[15:04] CAMISOLAS INVENTORY ::: STATUS: OPERATIONAL ::: USER: CLERK", lines[0])
	assert.Equal(t, "SALE [15:04]: Guatemala (M) x1", lines[1])
	assert.Equal(t, "NEW ARRIVAL: Guatemala (M) x3", lines[len(lines)-1])
}

func TestBuildDashboard(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	d := inventory.BuildDashboard([]*inventory.Balance{
		{VariantID: a, Team: "Mexico", Size: inventory.SizeM, Available: 3, Sample: 1, Sold: 2},
		{VariantID: a, Team: "Mexico", Size: inventory.SizeL, Available: 4},
		{VariantID: b, Team: "Guatemala", Size: inventory.SizeM, Available: 1, Sold: 9},
	})

	require.Len(t, d.Teams, 2)
	assert.Equal(t, "Guatemala", d.Teams[0].Team)
	assert.Equal(t, 7, d.Teams[1].Available)
	assert.Equal(t, map[inventory.Size]int{inventory.SizeM: 3, inventory.SizeL: 4}, d.Teams[1].BySize)
	assert.Equal(t, 8, d.Available)
	assert.Equal(t, 1, d.Sample)
	assert.Equal(t, 11, d.Sold)
}
