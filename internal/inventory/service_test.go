package inventory_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/inventory/memory"
)

var (
	staff  = auth.Actor{ID: "clerk@camisolas.gt", Role: auth.RoleStaff}
	admin  = auth.Actor{ID: "owner@camisolas.gt", Role: auth.RoleAdmin}
	viewer = auth.Actor{ID: "guest@camisolas.gt", Role: auth.RoleViewer}

	fixedNow = time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC)
)

func newLedger(t *testing.T, opts ...inventory.Option) (*inventory.Service, *memory.Store, uuid.UUID) {
	t.Helper()

	store := memory.New()
	variant := uuid.New()
	store.AddVariant(variant, "Guatemala", "Blue")

	opts = append([]inventory.Option{inventory.WithClock(func() time.Time { return fixedNow })}, opts...)

	return inventory.NewService(store, opts...), store, variant
}

func stock(t *testing.T, svc *inventory.Service, variant uuid.UUID, size inventory.Size, qty int) {
	t.Helper()

	_, err := svc.RecordMovement(context.Background(), staff, inventory.RecordParams{
		VariantID: variant, Size: size, Kind: inventory.KindIn, Quantity: qty,
	})
	require.NoError(t, err)
}

func balanceOf(t *testing.T, svc *inventory.Service, variant uuid.UUID, size inventory.Size) inventory.Balance {
	t.Helper()

	bals, err := svc.Balances(context.Background(), inventory.BalanceFilter{Size: &size})
	require.NoError(t, err)

	for _, b := range bals {
		if b.VariantID == variant {
			return *b
		}
	}

	return inventory.Balance{}
}

func TestService_RecordMovement_Validation(t *testing.T) {
	variant := uuid.New()

	type testCase struct {
		name    string
		actor   auth.Actor
		params  inventory.RecordParams
		wantErr error
	}

	valid := inventory.RecordParams{VariantID: variant, Size: inventory.SizeM, Kind: inventory.KindIn, Quantity: 1}

	with := func(f func(p *inventory.RecordParams)) inventory.RecordParams {
		p := valid
		f(&p)

		return p
	}

	tests := []testCase{
		{name: "Viewer", actor: viewer, params: valid, wantErr: inventory.ErrNotAuthorized},
		{name: "MissingVariant", actor: staff, params: with(func(p *inventory.RecordParams) { p.VariantID = uuid.Nil }), wantErr: inventory.ErrValidation},
		{name: "BadSize", actor: staff, params: with(func(p *inventory.RecordParams) { p.Size = "XXL" }), wantErr: inventory.ErrValidation},
		{name: "BadKind", actor: staff, params: with(func(p *inventory.RecordParams) { p.Kind = "gift" }), wantErr: inventory.ErrValidation},
		{name: "ZeroQuantity", actor: staff, params: with(func(p *inventory.RecordParams) { p.Quantity = 0 }), wantErr: inventory.ErrValidation},
		{name: "QuantityAboveMax", actor: staff, params: with(func(p *inventory.RecordParams) { p.Quantity = math.MaxInt }), wantErr: inventory.ErrValidation},
		{name: "NegativePrice", actor: staff, params: with(func(p *inventory.RecordParams) { p.SalePrice = new(decimal.NewFromInt(-1)) }), wantErr: inventory.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No expectations: validation must fail before touching the store.
			repo := inventory.NewMockRepository(ctrl)

			svc := inventory.NewService(repo)
			got, err := svc.RecordMovement(context.Background(), tt.actor, tt.params)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestService_RecordMovement_Tx(t *testing.T) {
	variant := uuid.New()
	key := inventory.Key{VariantID: variant, Size: inventory.SizeL}

	type testCase struct {
		name      string
		params    inventory.RecordParams
		setupMock func(repo *inventory.MockRepository, tx *inventory.MockTx)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: inventory.RecordParams{VariantID: variant, Size: inventory.SizeL, Kind: inventory.KindSale, Quantity: 2, Note: " walk-in "},
			setupMock: func(repo *inventory.MockRepository, tx *inventory.MockTx) {
				repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().LockBalance(gomock.Any(), key).Return(&inventory.Balance{ID: 7, VariantID: variant, Size: inventory.SizeL, Available: 5}, nil)
				tx.EXPECT().SaveBalance(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b *inventory.Balance) error {
						assert.Equal(t, int64(7), b.ID)
						assert.Equal(t, 3, b.Available)
						assert.Equal(t, 2, b.Sold)
						return nil
					})
				tx.EXPECT().AppendMovement(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, m *inventory.Movement) error {
						assert.Equal(t, "walk-in", m.Note)
						assert.Equal(t, staff.ID, m.Actor)
						m.ID = 42
						return nil
					})
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil).AnyTimes()
			},
		},
		{
			name:   "InsufficientStockWritesNothing",
			params: inventory.RecordParams{VariantID: variant, Size: inventory.SizeL, Kind: inventory.KindSale, Quantity: 5},
			setupMock: func(repo *inventory.MockRepository, tx *inventory.MockTx) {
				repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().LockBalance(gomock.Any(), key).Return(&inventory.Balance{ID: 7, Available: 3}, nil)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: inventory.ErrInsufficientStock,
		},
		{
			name:   "BeginFails",
			params: inventory.RecordParams{VariantID: variant, Size: inventory.SizeL, Kind: inventory.KindIn, Quantity: 1},
			setupMock: func(repo *inventory.MockRepository, _ *inventory.MockTx) {
				repo.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			wantErr: inventory.ErrStorage,
		},
		{
			name:   "AppendFailsRollsBack",
			params: inventory.RecordParams{VariantID: variant, Size: inventory.SizeL, Kind: inventory.KindIn, Quantity: 1},
			setupMock: func(repo *inventory.MockRepository, tx *inventory.MockTx) {
				repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().LockBalance(gomock.Any(), key).Return(&inventory.Balance{ID: 7}, nil)
				tx.EXPECT().SaveBalance(gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().AppendMovement(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: inventory.ErrStorage,
		},
		{
			name:   "UnknownVariant",
			params: inventory.RecordParams{VariantID: variant, Size: inventory.SizeL, Kind: inventory.KindIn, Quantity: 1},
			setupMock: func(repo *inventory.MockRepository, tx *inventory.MockTx) {
				repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().LockBalance(gomock.Any(), key).Return(nil, inventory.ErrNotFound)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: inventory.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := inventory.NewMockRepository(ctrl)
			tx := inventory.NewMockTx(ctrl)
			tt.setupMock(repo, tx)

			svc := inventory.NewService(repo)
			got, err := svc.RecordMovement(context.Background(), staff, tt.params)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(42), got.ID)
		})
	}
}

func TestService_StorageErrorKeepsBackendMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := inventory.NewMockRepository(ctrl)
	repo.EXPECT().ListBalances(gomock.Any(), gomock.Any()).Return(nil, errors.New("relation \"balances\" does not exist"))

	svc := inventory.NewService(repo)
	_, err := svc.Balances(context.Background(), inventory.BalanceFilter{})

	var se *inventory.StorageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), `relation "balances" does not exist`)
	assert.ErrorIs(t, err, inventory.ErrStorage)
}

func TestService_SaleRejectedLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)
	stock(t, svc, variant, inventory.SizeM, 3)

	_, err := svc.RecordMovement(ctx, staff, inventory.RecordParams{
		VariantID: variant, Size: inventory.SizeM, Kind: inventory.KindSale, Quantity: 5,
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 3")

	movs, err := svc.RecentMovements(ctx, 10)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, inventory.KindIn, movs[0].Kind)

	assert.Equal(t, 3, balanceOf(t, svc, variant, inventory.SizeM).Available)
}

func TestService_RecordMovement_LazyBalanceAndJoin(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)

	ret := time.Date(2025, 3, 21, 9, 30, 0, 0, time.UTC)
	stock(t, svc, variant, inventory.SizeS, 4)

	m, err := svc.RecordMovement(ctx, staff, inventory.RecordParams{
		VariantID: variant, Size: inventory.SizeS, Kind: inventory.KindToSample, Quantity: 1, ReturnDate: &ret,
	})
	require.NoError(t, err)

	assert.Equal(t, "Guatemala", m.Team)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), m.Date)
	require.NotNil(t, m.ReturnDate)
	assert.Equal(t, time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC), *m.ReturnDate)

	bal := balanceOf(t, svc, variant, inventory.SizeS)
	assert.Equal(t, inventory.Balance{
		ID: bal.ID, VariantID: variant, Size: inventory.SizeS,
		Available: 3, Sample: 1, UpdatedAt: fixedNow, Team: "Guatemala", Color: "Blue",
	}, bal)
}

func TestService_ReturnDateOnlyForSamples(t *testing.T) {
	svc, _, variant := newLedger(t)
	ret := fixedNow.AddDate(0, 0, 7)

	m, err := svc.RecordMovement(context.Background(), staff, inventory.RecordParams{
		VariantID: variant, Size: inventory.SizeS, Kind: inventory.KindIn, Quantity: 1, ReturnDate: &ret,
	})
	require.NoError(t, err)
	assert.Nil(t, m.ReturnDate)
}

func TestService_OutPolicy(t *testing.T) {
	ctx := context.Background()
	out := func(svc *inventory.Service, variant uuid.UUID) error {
		_, err := svc.RecordMovement(ctx, staff, inventory.RecordParams{
			VariantID: variant, Size: inventory.SizeL, Kind: inventory.KindOut, Quantity: 5,
		})

		return err
	}

	t.Run("ClampByDefault", func(t *testing.T) {
		svc, _, variant := newLedger(t)
		stock(t, svc, variant, inventory.SizeL, 3)

		require.NoError(t, out(svc, variant))
		assert.Equal(t, 0, balanceOf(t, svc, variant, inventory.SizeL).Available)
	})

	t.Run("Reject", func(t *testing.T) {
		svc, _, variant := newLedger(t, inventory.WithOutPolicy(inventory.OutReject))
		stock(t, svc, variant, inventory.SizeL, 3)

		require.ErrorIs(t, out(svc, variant), inventory.ErrInsufficientStock)
		assert.Equal(t, 3, balanceOf(t, svc, variant, inventory.SizeL).Available)
	})
}

func TestService_Reads_AreIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)
	stock(t, svc, variant, inventory.SizeM, 8)

	first, err := svc.Balances(ctx, inventory.BalanceFilter{})
	require.NoError(t, err)

	second, err := svc.Balances(ctx, inventory.BalanceFilter{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_RecentMovements_Limit(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)

	for range 12 {
		stock(t, svc, variant, inventory.SizeM, 1)
	}

	movs, err := svc.RecentMovements(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, movs, inventory.DefaultRecentLimit)
	assert.Greater(t, movs[0].ID, movs[1].ID, "newest first")

	movs, err = svc.RecentMovements(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, movs, 5)
}

func TestService_TransferAndAdjust(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)
	stock(t, svc, variant, inventory.SizeXL, 5)

	id := balanceOf(t, svc, variant, inventory.SizeXL).ID

	t.Run("StaffCannotAdjust", func(t *testing.T) {
		_, err := svc.AdjustDirect(ctx, staff, id, inventory.BucketAvailable, 1)
		assert.ErrorIs(t, err, inventory.ErrNotAuthorized)

		_, err = svc.TransferBucket(ctx, staff, id, inventory.BucketAvailable, inventory.BucketSample, 1)
		assert.ErrorIs(t, err, inventory.ErrNotAuthorized)
	})

	t.Run("Transfer", func(t *testing.T) {
		got, err := svc.TransferBucket(ctx, admin, id, inventory.BucketAvailable, inventory.BucketSample, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Available)
		assert.Equal(t, 2, got.Sample)
	})

	t.Run("TransferTooMuch", func(t *testing.T) {
		_, err := svc.TransferBucket(ctx, admin, id, inventory.BucketSample, inventory.BucketAvailable, 9)
		assert.ErrorIs(t, err, inventory.ErrInsufficientQuantity)
	})

	t.Run("HugeAdjustKeepsStock", func(t *testing.T) {
		_, err := svc.AdjustDirect(ctx, admin, id, inventory.BucketAvailable, math.MaxInt)
		assert.ErrorIs(t, err, inventory.ErrValidation)
		assert.Equal(t, 3, balanceOf(t, svc, variant, inventory.SizeXL).Available)

		_, err = svc.TransferBucket(ctx, admin, id, inventory.BucketAvailable, inventory.BucketSample, math.MaxInt)
		assert.ErrorIs(t, err, inventory.ErrValidation)
	})

	t.Run("AdjustClamps", func(t *testing.T) {
		got, err := svc.AdjustDirect(ctx, admin, id, inventory.BucketAvailable, -999)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Available)
		assert.Equal(t, 0, balanceOf(t, svc, variant, inventory.SizeXL).Available)
	})

	t.Run("UnknownBalance", func(t *testing.T) {
		_, err := svc.AdjustDirect(ctx, admin, 9999, inventory.BucketAvailable, 1)
		assert.ErrorIs(t, err, inventory.ErrNotFound)
	})

	t.Run("NoMovementRecorded", func(t *testing.T) {
		movs, err := svc.RecentMovements(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, movs, 1)
	})
}

func TestService_ResetAllAndClearLog(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)
	stock(t, svc, variant, inventory.SizeM, 5)
	stock(t, svc, variant, inventory.SizeL, 2)

	require.ErrorIs(t, svc.ResetAll(ctx, staff), inventory.ErrNotAuthorized)

	_, err := svc.ClearLog(ctx, staff)
	require.ErrorIs(t, err, inventory.ErrNotAuthorized)

	require.NoError(t, svc.ResetAll(ctx, admin))

	bals, err := svc.Balances(ctx, inventory.BalanceFilter{})
	require.NoError(t, err)
	require.Len(t, bals, 2)

	for _, b := range bals {
		assert.Zero(t, b.Available+b.Sample+b.Sold)
	}

	movs, err := svc.RecentMovements(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, movs)

	stock(t, svc, variant, inventory.SizeM, 1)
	stock(t, svc, variant, inventory.SizeM, 1)

	n, err := svc.ClearLog(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, balanceOf(t, svc, variant, inventory.SizeM).Available, "clearing the log keeps balances")
}

func TestService_NonNegativeUnderRandomMovements(t *testing.T) {
	ctx := context.Background()
	svc, _, variant := newLedger(t)

	kinds := []inventory.Kind{inventory.KindIn, inventory.KindOut, inventory.KindToSample, inventory.KindSale}

	for i := range 200 {
		_, _ = svc.RecordMovement(ctx, staff, inventory.RecordParams{
			VariantID: variant,
			Size:      inventory.Sizes[i%len(inventory.Sizes)],
			Kind:      kinds[(i*7)%len(kinds)],
			Quantity:  1 + (i*13)%9,
		})
	}

	bals, err := svc.Balances(ctx, inventory.BalanceFilter{})
	require.NoError(t, err)

	for _, b := range bals {
		assert.GreaterOrEqual(t, b.Available, 0)
		assert.GreaterOrEqual(t, b.Sample, 0)
		assert.GreaterOrEqual(t, b.Sold, 0)
	}
}

func TestService_FeedReceivesSnapshot(t *testing.T) {
	store := memory.New()
	variant := uuid.New()
	store.AddVariant(variant, "Honduras", "White")

	var svc *inventory.Service

	feed := inventory.NewFeed(func(ctx context.Context) (inventory.Snapshot, error) {
		return svc.Snapshot(ctx)
	})
	svc = inventory.NewService(store, inventory.WithFeed(feed))

	sub := feed.Subscribe()
	defer sub.Close()

	stock(t, svc, variant, inventory.SizeM, 4)

	select {
	case snap := <-sub.C():
		require.Len(t, snap, 1)
		assert.Equal(t, 4, snap[0].Available)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}
