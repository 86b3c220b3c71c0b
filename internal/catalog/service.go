package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/inventory"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	ListVariants(ctx context.Context) ([]*Variant, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
	FindVariant(ctx context.Context, team, color string) (*Variant, error)
	CreateVariant(ctx context.Context, v *Variant) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Team        string
	Color       string
	ImageURL    string
	GalleryURLs []string
	VideoURL    string
}

func (s *Service) List(ctx context.Context) ([]*Variant, error) {
	return s.repo.ListVariants(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Variant, error) {
	return s.repo.GetVariant(ctx, id)
}

// Find looks a variant up by team and color, ignoring case.
// It returns inventory.ErrNotFound when nothing matches.
func (s *Service) Find(ctx context.Context, team, color string) (*Variant, error) {
	return s.repo.FindVariant(ctx, strings.TrimSpace(team), strings.TrimSpace(color))
}

// Create adds a variant to the catalog. Only admins seed the catalog.
func (s *Service) Create(ctx context.Context, actor auth.Actor, params CreateParams) (*Variant, error) {
	if !actor.IsAdmin() {
		return nil, inventory.ErrNotAuthorized
	}

	v := &Variant{
		Team:        strings.TrimSpace(params.Team),
		Color:       strings.TrimSpace(params.Color),
		ImageURL:    strings.TrimSpace(params.ImageURL),
		GalleryURLs: params.GalleryURLs,
		VideoURL:    strings.TrimSpace(params.VideoURL),
	}

	if v.Team == "" {
		return nil, &inventory.ValidationError{Field: "team", Message: "is required"}
	}

	if v.Color == "" {
		return nil, &inventory.ValidationError{Field: "color", Message: "is required"}
	}

	if v.GalleryURLs == nil {
		v.GalleryURLs = []string{}
	}

	if err := s.repo.CreateVariant(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}
