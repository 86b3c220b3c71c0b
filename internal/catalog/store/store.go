package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/inventory"
)

const pgUniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectVariantColumns = `id, team, color, image_url, gallery_urls, video_url, created_at`

func scanVariant(s scanner) (*catalog.Variant, error) {
	var v catalog.Variant

	var imageURL, videoURL sql.NullString

	var gallery []byte

	if err := s.Scan(&v.ID, &v.Team, &v.Color, &imageURL, &gallery, &videoURL, &v.CreatedAt); err != nil {
		return nil, err
	}

	v.ImageURL = imageURL.String
	v.VideoURL = videoURL.String
	v.GalleryURLs = []string{}

	if len(gallery) > 0 {
		if err := json.Unmarshal(gallery, &v.GalleryURLs); err != nil {
			return nil, fmt.Errorf("decoding gallery urls: %w", err)
		}
	}

	return &v, nil
}

func (s *Store) ListVariants(ctx context.Context) ([]*catalog.Variant, error) {
	query := `SELECT ` + selectVariantColumns + ` FROM variants ORDER BY team, color`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}
	defer rows.Close()

	var vs []*catalog.Variant

	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning variant: %w", err)
		}

		vs = append(vs, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating variant rows: %w", err)
	}

	return vs, nil
}

func (s *Store) GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	query := `SELECT ` + selectVariantColumns + ` FROM variants WHERE id = $1`

	v, err := scanVariant(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("variant %s: %w", id, inventory.ErrNotFound)
		}

		return nil, fmt.Errorf("getting variant: %w", err)
	}

	return v, nil
}

// FindVariant matches team and color case-insensitively.
func (s *Store) FindVariant(ctx context.Context, team, color string) (*catalog.Variant, error) {
	query := `SELECT ` + selectVariantColumns + `
		FROM variants
		WHERE team ILIKE $1 AND color ILIKE $2
		ORDER BY created_at
		LIMIT 1`

	v, err := scanVariant(s.db.QueryRowContext(ctx, query, team, color))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("variant %s/%s: %w", team, color, inventory.ErrNotFound)
		}

		return nil, fmt.Errorf("finding variant: %w", err)
	}

	return v, nil
}

func (s *Store) CreateVariant(ctx context.Context, v *catalog.Variant) error {
	gallery, err := json.Marshal(v.GalleryURLs)
	if err != nil {
		return fmt.Errorf("encoding gallery urls: %w", err)
	}

	query := `
		INSERT INTO variants (team, color, image_url, gallery_urls, video_url, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NOW())
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query, v.Team, v.Color, v.ImageURL, gallery, v.VideoURL).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &inventory.ValidationError{Field: "color", Message: fmt.Sprintf("%s already has a %s variant", v.Team, v.Color)}
		}

		return fmt.Errorf("creating variant: %w", err)
	}

	return nil
}
