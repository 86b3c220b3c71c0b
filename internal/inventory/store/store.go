package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/inventory"
)

// NotifyChannel is the Postgres channel signalled by every committed mutation.
const NotifyChannel = "inventory_changed"

const pgForeignKeyViolation = "23503"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, variant_id, size, available, sample, sold, updated_at, team, color
const selectBalanceColumns = `
	b.id, b.variant_id, b.size, b.available, b.sample, b.sold, b.updated_at, v.team, v.color
`

const orderBalances = `
	ORDER BY v.team, v.color,
		CASE b.size WHEN 'S' THEN 1 WHEN 'M' THEN 2 WHEN 'L' THEN 3 WHEN 'XL' THEN 4 ELSE 5 END
`

func scanBalance(s scanner) (*inventory.Balance, error) {
	var b inventory.Balance

	var size string

	if err := s.Scan(
		&b.ID, &b.VariantID, &size, &b.Available, &b.Sample, &b.Sold, &b.UpdatedAt, &b.Team, &b.Color,
	); err != nil {
		return nil, err
	}

	b.Size = inventory.Size(size)

	return &b, nil
}

// Expected column order: id, variant_id, size, kind, quantity, date, note, sale_price,
// return_date, actor, batch_id, created_at, team, color
const selectMovementColumns = `
	m.id, m.variant_id, m.size, m.kind, m.quantity, m.date, m.note, m.sale_price,
	m.return_date, m.actor, m.batch_id, m.created_at, v.team, v.color
`

func scanMovement(s scanner) (*inventory.Movement, error) {
	var m inventory.Movement

	var size, kind string

	var price decimal.NullDecimal

	var batchID *uuid.UUID

	var returnDate sql.NullTime

	if err := s.Scan(
		&m.ID, &m.VariantID, &size, &kind, &m.Quantity, &m.Date, &m.Note, &price,
		&returnDate, &m.Actor, &batchID, &m.CreatedAt, &m.Team, &m.Color,
	); err != nil {
		return nil, err
	}

	m.Size = inventory.Size(size)
	m.Kind = inventory.Kind(kind)
	m.BatchID = batchID

	if price.Valid {
		m.SalePrice = &price.Decimal
	}

	if returnDate.Valid {
		m.ReturnDate = &returnDate.Time
	}

	return &m, nil
}

func (s *Store) ListBalances(ctx context.Context, filter inventory.BalanceFilter) ([]*inventory.Balance, error) {
	query := `SELECT ` + selectBalanceColumns + `
		FROM balances b
		JOIN variants v ON v.id = b.variant_id
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Team != nil {
		query += fmt.Sprintf(" AND v.team = $%d", argIdx)

		args = append(args, *filter.Team)
		argIdx++
	}

	if filter.Size != nil {
		query += fmt.Sprintf(" AND b.size = $%d", argIdx)

		args = append(args, string(*filter.Size))
		argIdx++
	}

	query += orderBalances

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing balances: %w", err)
	}
	defer rows.Close()

	var bals []*inventory.Balance

	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning balance: %w", err)
		}

		bals = append(bals, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating balance rows: %w", err)
	}

	return bals, nil
}

func (s *Store) GetBalance(ctx context.Context, id int64) (*inventory.Balance, error) {
	query := `SELECT ` + selectBalanceColumns + `
		FROM balances b
		JOIN variants v ON v.id = b.variant_id
		WHERE b.id = $1`

	b, err := scanBalance(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("balance %d: %w", id, inventory.ErrNotFound)
		}

		return nil, fmt.Errorf("getting balance: %w", err)
	}

	return b, nil
}

func (s *Store) RecentMovements(ctx context.Context, limit int) ([]*inventory.Movement, error) {
	query := `SELECT ` + selectMovementColumns + `
		FROM movements m
		JOIN variants v ON v.id = m.variant_id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	var movs []*inventory.Movement

	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}

		movs = append(movs, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movement rows: %w", err)
	}

	return movs, nil
}

type ledgerTx struct {
	tx    *sql.Tx
	dirty bool
}

func (s *Store) Begin(ctx context.Context) (inventory.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", err)
	}

	return &ledgerTx{tx: dbTx}, nil
}

// Commit signals NotifyChannel inside the transaction when anything was written,
// so listeners only hear about committed changes.
func (lt *ledgerTx) Commit() error {
	if lt.dirty {
		if _, err := lt.tx.Exec("SELECT pg_notify($1, '')", NotifyChannel); err != nil {
			lt.tx.Rollback()
			return fmt.Errorf("notifying %s: %w", NotifyChannel, err)
		}
	}

	return lt.tx.Commit()
}

func (lt *ledgerTx) Rollback() error { return lt.tx.Rollback() }

func (lt *ledgerTx) LockBalance(ctx context.Context, key inventory.Key) (*inventory.Balance, error) {
	insert := `
		INSERT INTO balances (variant_id, size, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (variant_id, size) DO NOTHING
	`
	if _, err := lt.tx.ExecContext(ctx, insert, key.VariantID, string(key.Size)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, fmt.Errorf("variant %s: %w", key.VariantID, inventory.ErrNotFound)
		}

		return nil, fmt.Errorf("creating balance: %w", err)
	}

	query := `SELECT ` + selectBalanceColumns + `
		FROM balances b
		JOIN variants v ON v.id = b.variant_id
		WHERE b.variant_id = $1 AND b.size = $2
		FOR UPDATE OF b`

	b, err := scanBalance(lt.tx.QueryRowContext(ctx, query, key.VariantID, string(key.Size)))
	if err != nil {
		return nil, fmt.Errorf("locking balance: %w", err)
	}

	return b, nil
}

func (lt *ledgerTx) LockBalanceByID(ctx context.Context, id int64) (*inventory.Balance, error) {
	query := `SELECT ` + selectBalanceColumns + `
		FROM balances b
		JOIN variants v ON v.id = b.variant_id
		WHERE b.id = $1
		FOR UPDATE OF b`

	b, err := scanBalance(lt.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("balance %d: %w", id, inventory.ErrNotFound)
		}

		return nil, fmt.Errorf("locking balance: %w", err)
	}

	return b, nil
}

func (lt *ledgerTx) SaveBalance(ctx context.Context, b *inventory.Balance) error {
	query := `
		UPDATE balances
		SET available = $1, sample = $2, sold = $3, updated_at = $4
		WHERE id = $5
	`

	res, err := lt.tx.ExecContext(ctx, query, b.Available, b.Sample, b.Sold, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("updating balance: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("balance %d: %w", b.ID, inventory.ErrNotFound)
	}

	lt.dirty = true

	return nil
}

func (lt *ledgerTx) AppendMovement(ctx context.Context, m *inventory.Movement) error {
	query := `
		INSERT INTO movements (variant_id, size, kind, quantity, date, note, sale_price, return_date, actor, batch_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at
	`

	var price decimal.NullDecimal
	if m.SalePrice != nil {
		price = decimal.NewNullDecimal(*m.SalePrice)
	}

	var returnDate sql.NullTime
	if m.ReturnDate != nil {
		returnDate = sql.NullTime{Time: *m.ReturnDate, Valid: true}
	}

	err := lt.tx.QueryRowContext(ctx, query,
		m.VariantID,
		string(m.Size),
		string(m.Kind),
		m.Quantity,
		m.Date,
		m.Note,
		price,
		returnDate,
		m.Actor,
		m.BatchID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending movement: %w", err)
	}

	lt.dirty = true

	return nil
}

func (lt *ledgerTx) ResetBalances(ctx context.Context) error {
	query := `UPDATE balances SET available = 0, sample = 0, sold = 0, updated_at = $1`

	if _, err := lt.tx.ExecContext(ctx, query, time.Now()); err != nil {
		return fmt.Errorf("resetting balances: %w", err)
	}

	lt.dirty = true

	return nil
}

func (lt *ledgerTx) ClearMovements(ctx context.Context) (int64, error) {
	res, err := lt.tx.ExecContext(ctx, `DELETE FROM movements`)
	if err != nil {
		return 0, fmt.Errorf("clearing movements: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared movements: %w", err)
	}

	return n, nil
}
