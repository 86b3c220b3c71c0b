package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/importer/stockcsv"
	"github.com/walweb/camisolas/internal/inventory"
)

var clerk = auth.Actor{ID: "clerk@camisolas.gt", Role: auth.RoleStaff}

func newService(ctrl *gomock.Controller) (*importer.Service, *importer.MockVariantFinder, *importer.MockBatchSubmitter) {
	finder := importer.NewMockVariantFinder(ctrl)
	ledger := importer.NewMockBatchSubmitter(ctrl)

	svc := importer.NewService(finder, ledger, map[importer.Format]importer.Parser{
		importer.FormatStockCSV: stockcsv.NewParser(),
	})

	return svc, finder, ledger
}

func TestService_Import(t *testing.T) {
	gt := uuid.New()

	type testCase struct {
		name      string
		actor     auth.Actor
		req       importer.Request
		csv       string
		setupMock func(f *importer.MockVariantFinder, l *importer.MockBatchSubmitter)
		verify    func(t *testing.T, res *importer.Result)
		wantErr   error
	}

	tests := []testCase{
		{
			name:  "ResolvesAndSubmits",
			actor: clerk,
			req:   importer.Request{Format: importer.FormatStockCSV, Kind: inventory.KindIn, Note: "supplier"},
			csv:   "team,color,size,quantity\nguatemala,blue,M,3\nAtlantis,Gold,S,1\nGuatemala,Blue,L,2\n",
			setupMock: func(f *importer.MockVariantFinder, l *importer.MockBatchSubmitter) {
				f.EXPECT().Find(gomock.Any(), "guatemala", "blue").Return(&catalog.Variant{ID: gt}, nil)
				f.EXPECT().Find(gomock.Any(), "Atlantis", "Gold").Return(nil, inventory.ErrNotFound)
				f.EXPECT().Find(gomock.Any(), "Guatemala", "Blue").Return(&catalog.Variant{ID: gt}, nil)
				l.EXPECT().SubmitBatch(gomock.Any(), clerk, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ auth.Actor, p inventory.BatchParams) (*inventory.BatchResult, error) {
						assert.Equal(t, inventory.KindIn, p.Kind)
						assert.Equal(t, "supplier", p.Note)
						require.Len(t, p.Lines, 2)
						assert.Equal(t, gt, p.Lines[0].VariantID)
						assert.Equal(t, inventory.SizeL, p.Lines[1].Size)

						return &inventory.BatchResult{Applied: []*inventory.Movement{{}, {}}}, nil
					})
			},
			verify: func(t *testing.T, res *importer.Result) {
				require.Len(t, res.Skipped, 1)
				assert.Equal(t, 3, res.Skipped[0].Line)
				assert.Equal(t, []int{2, 4}, res.RowLines)
				assert.Len(t, res.Batch.Applied, 2)
			},
		},
		{
			name:    "Viewer",
			actor:   auth.Actor{Role: auth.RoleViewer},
			req:     importer.Request{Format: importer.FormatStockCSV, Kind: inventory.KindIn},
			csv:     "team,color,size,quantity\n",
			wantErr: inventory.ErrNotAuthorized,
		},
		{
			name:    "UnknownFormat",
			actor:   clerk,
			req:     importer.Request{Format: "xlsx", Kind: inventory.KindIn},
			wantErr: inventory.ErrValidation,
		},
		{
			name:    "UnparseableFile",
			actor:   clerk,
			req:     importer.Request{Format: importer.FormatStockCSV, Kind: inventory.KindIn},
			csv:     "hello,world\n",
			wantErr: inventory.ErrValidation,
		},
		{
			name:  "NothingResolvable",
			actor: clerk,
			req:   importer.Request{Format: importer.FormatStockCSV, Kind: inventory.KindIn},
			csv:   "team,color,size,quantity\nAtlantis,Gold,S,1\n",
			setupMock: func(f *importer.MockVariantFinder, _ *importer.MockBatchSubmitter) {
				f.EXPECT().Find(gomock.Any(), "Atlantis", "Gold").Return(nil, inventory.ErrNotFound)
			},
			wantErr: inventory.ErrValidation,
		},
		{
			name:  "LookupFailure",
			actor: clerk,
			req:   importer.Request{Format: importer.FormatStockCSV, Kind: inventory.KindIn},
			csv:   "team,color,size,quantity\nPanama,Red,S,1\n",
			setupMock: func(f *importer.MockVariantFinder, _ *importer.MockBatchSubmitter) {
				f.EXPECT().Find(gomock.Any(), "Panama", "Red").Return(nil, errors.New("db down"))
			},
			wantErr: errors.New("resolving row 2: db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, finder, ledger := newService(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(finder, ledger)
			}

			res, err := svc.Import(context.Background(), tt.actor, tt.req, strings.NewReader(tt.csv))
			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, inventory.ErrNotAuthorized) || errors.Is(tt.wantErr, inventory.ErrValidation) {
					require.ErrorIs(t, err, tt.wantErr)
				} else {
					require.EqualError(t, err, tt.wantErr.Error())
				}

				return
			}

			require.NoError(t, err)
			tt.verify(t, res)
		})
	}
}
