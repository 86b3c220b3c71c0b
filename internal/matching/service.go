package matching

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/inventory"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=matching

// Repository stores learned aliases keyed by normalized team and color.
type Repository interface {
	FindAlias(ctx context.Context, team, color string) (uuid.UUID, error)
	SaveAlias(ctx context.Context, a *Alias) error
	ListAliases(ctx context.Context) ([]*Alias, error)
}

// Catalog is the part of the catalog aliases resolve against.
type Catalog interface {
	Find(ctx context.Context, team, color string) (*catalog.Variant, error)
	Get(ctx context.Context, id uuid.UUID) (*catalog.Variant, error)
}

// Alias maps a spelling seen in stock files to a catalog variant.
type Alias struct {
	Team      string
	Color     string
	VariantID uuid.UUID
	CreatedAt time.Time
}

type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Find resolves a team and color to a variant, trying the catalog first and
// then the learned aliases. It returns inventory.ErrNotFound when neither knows it.
func (s *Service) Find(ctx context.Context, team, color string) (*catalog.Variant, error) {
	v, err := s.catalog.Find(ctx, team, color)
	if err == nil || !errors.Is(err, inventory.ErrNotFound) {
		return v, err
	}

	id, err := s.repo.FindAlias(ctx, Normalize(team), Normalize(color))
	if err != nil {
		return nil, err
	}

	if id == uuid.Nil {
		return nil, inventory.ErrNotFound
	}

	return s.catalog.Get(ctx, id)
}

// Learn remembers that team and color, however they are spelled, mean variantID.
func (s *Service) Learn(ctx context.Context, actor auth.Actor, team, color string, variantID uuid.UUID) (*Alias, error) {
	if !actor.CanMutate() {
		return nil, inventory.ErrNotAuthorized
	}

	a := &Alias{Team: Normalize(team), Color: Normalize(color), VariantID: variantID}

	if a.Team == "" {
		return nil, &inventory.ValidationError{Field: "team", Message: "is required"}
	}

	if a.Color == "" {
		return nil, &inventory.ValidationError{Field: "color", Message: "is required"}
	}

	if _, err := s.catalog.Get(ctx, variantID); err != nil {
		return nil, err
	}

	if err := s.repo.SaveAlias(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*Alias, error) {
	return s.repo.ListAliases(ctx)
}

// Normalize folds case, accents and inner whitespace so "  MÉXICO " and "mexico" share a key.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}
