package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/inventory"
)

var admin = auth.Actor{ID: "owner@camisolas.gt", Role: auth.RoleAdmin}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		actor     auth.Actor
		params    catalog.CreateParams
		setupMock func(repo *catalog.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			actor:  admin,
			params: catalog.CreateParams{Team: " Guatemala ", Color: "Blue", ImageURL: "https://img/gt.png"},
			setupMock: func(repo *catalog.MockRepository) {
				repo.EXPECT().CreateVariant(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, v *catalog.Variant) error {
					assert.Equal(t, "Guatemala", v.Team)
					assert.Equal(t, []string{}, v.GalleryURLs)
					v.ID = uuid.New()

					return nil
				})
			},
		},
		{
			name:    "Staff",
			actor:   auth.Actor{ID: "clerk@camisolas.gt", Role: auth.RoleStaff},
			params:  catalog.CreateParams{Team: "Guatemala", Color: "Blue"},
			wantErr: inventory.ErrNotAuthorized,
		},
		{
			name:    "MissingTeam",
			actor:   admin,
			params:  catalog.CreateParams{Color: "Blue"},
			wantErr: inventory.ErrValidation,
		},
		{
			name:    "MissingColor",
			actor:   admin,
			params:  catalog.CreateParams{Team: "Guatemala", Color: "  "},
			wantErr: inventory.ErrValidation,
		},
		{
			name:   "Duplicate",
			actor:  admin,
			params: catalog.CreateParams{Team: "Guatemala", Color: "Blue"},
			setupMock: func(repo *catalog.MockRepository) {
				repo.EXPECT().CreateVariant(gomock.Any(), gomock.Any()).
					Return(&inventory.ValidationError{Field: "team", Message: "variant already exists"})
			},
			wantErr: inventory.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := catalog.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := catalog.NewService(repo).Create(context.Background(), tt.actor, tt.params)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_FindTrimsInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := catalog.NewMockRepository(ctrl)
	want := &catalog.Variant{ID: uuid.New(), Team: "Mexico", Color: "Green"}
	repo.EXPECT().FindVariant(gomock.Any(), "mexico", "green").Return(want, nil)

	got, err := catalog.NewService(repo).Find(context.Background(), " mexico", "green ")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
