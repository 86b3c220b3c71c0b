package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/walweb/camisolas/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindAlias returns uuid.Nil when no alias is stored for the key.
func (s *Store) FindAlias(ctx context.Context, team, color string) (uuid.UUID, error) {
	query := `
		SELECT variant_id
		FROM variant_aliases
		WHERE team = $1 AND color = $2
	`

	var id uuid.UUID

	err := s.db.QueryRowContext(ctx, query, team, color).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, nil
		}

		return uuid.Nil, fmt.Errorf("finding alias: %w", err)
	}

	return id, nil
}

// SaveAlias inserts the alias or repoints an existing one.
func (s *Store) SaveAlias(ctx context.Context, a *matching.Alias) error {
	query := `
		INSERT INTO variant_aliases (team, color, variant_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (team, color) DO UPDATE SET variant_id = EXCLUDED.variant_id
		RETURNING created_at
	`

	if err := s.db.QueryRowContext(ctx, query, a.Team, a.Color, a.VariantID).Scan(&a.CreatedAt); err != nil {
		return fmt.Errorf("saving alias: %w", err)
	}

	return nil
}

func (s *Store) ListAliases(ctx context.Context) ([]*matching.Alias, error) {
	query := `
		SELECT team, color, variant_id, created_at
		FROM variant_aliases
		ORDER BY team, color
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing aliases: %w", err)
	}
	defer rows.Close()

	var out []*matching.Alias

	for rows.Next() {
		var a matching.Alias
		if err := rows.Scan(&a.Team, &a.Color, &a.VariantID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}

		out = append(out, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alias rows: %w", err)
	}

	return out, nil
}
