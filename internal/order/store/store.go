package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/order"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, counterparty, contact, kind, status, order_date,
// delivery_date, confirmed_at, notes, total, created_at
const selectOrderColumns = `
	o.id, o.counterparty, o.contact, o.kind, o.status, o.order_date,
	o.delivery_date, o.confirmed_at, o.notes, o.total, o.created_at
`

func scanOrder(s scanner) (*order.Order, error) {
	var o order.Order

	var kind, status string

	var delivery, confirmed sql.NullTime

	if err := s.Scan(
		&o.ID, &o.Counterparty, &o.Contact, &kind, &status, &o.OrderDate,
		&delivery, &confirmed, &o.Notes, &o.Total, &o.CreatedAt,
	); err != nil {
		return nil, err
	}

	o.Kind = order.Kind(kind)
	o.Status = order.Status(status)

	if delivery.Valid {
		o.DeliveryDate = &delivery.Time
	}

	if confirmed.Valid {
		o.ConfirmedAt = &confirmed.Time
	}

	return &o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	header := `
		INSERT INTO orders (counterparty, contact, kind, status, order_date, delivery_date, notes, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	var delivery sql.NullTime
	if o.DeliveryDate != nil {
		delivery = sql.NullTime{Time: *o.DeliveryDate, Valid: true}
	}

	err = dbTx.QueryRowContext(ctx, header,
		o.Counterparty,
		o.Contact,
		string(o.Kind),
		string(o.Status),
		o.OrderDate,
		delivery,
		o.Notes,
		o.Total,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	line := `
		INSERT INTO order_lines (order_id, position, kind, variant_id, size, description, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	for i := range o.Lines {
		l := &o.Lines[i]

		var size sql.NullString
		if l.Size != nil {
			size = sql.NullString{String: string(*l.Size), Valid: true}
		}

		err := dbTx.QueryRowContext(ctx, line,
			o.ID, i, string(l.Kind), l.VariantID, size, l.Description, l.Quantity, l.UnitPrice,
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("creating order line %d: %w", i, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	query := `SELECT ` + selectOrderColumns + ` FROM orders o WHERE o.id = $1`

	o, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order #%d: %w", id, inventory.ErrNotFound)
		}

		return nil, fmt.Errorf("getting order: %w", err)
	}

	if err := s.loadLines(ctx, []*order.Order{o}); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	query := `SELECT ` + selectOrderColumns + ` FROM orders o WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND o.status = $%d", argIdx)

		args = append(args, string(*filter.Status))
		argIdx++
	}

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND o.kind = $%d", argIdx)

		args = append(args, string(*filter.Kind))
		argIdx++
	}

	query += " ORDER BY o.created_at DESC, o.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	if err := s.loadLines(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (s *Store) loadLines(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))

	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	query := `
		SELECT order_id, id, kind, variant_id, size, description, quantity, unit_price
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := s.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("listing order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID   int64
			l         order.Line
			kind      string
			variantID *uuid.UUID
			size      sql.NullString
			price     decimal.Decimal
		)

		if err := rows.Scan(&orderID, &l.ID, &kind, &variantID, &size, &l.Description, &l.Quantity, &price); err != nil {
			return fmt.Errorf("scanning order line: %w", err)
		}

		l.Kind = order.LineKind(kind)
		l.VariantID = variantID
		l.UnitPrice = price

		if size.Valid {
			sz := inventory.Size(size.String)
			l.Size = &sz
		}

		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order line rows: %w", err)
	}

	return nil
}

// UpdateStatus only touches pending orders, so a concurrent cancel and
// confirm cannot both succeed.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status order.Status, confirmedAt *time.Time) error {
	query := `
		UPDATE orders
		SET status = $1, confirmed_at = COALESCE($2, confirmed_at)
		WHERE id = $3 AND status IN ('pending', 'pending_receive', 'pending_dispatch')
	`

	var confirmed sql.NullTime
	if confirmedAt != nil {
		confirmed = sql.NullTime{Time: *confirmedAt, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query, string(status), confirmed, id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	if n > 0 {
		return nil
	}

	var current string

	err = s.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("order #%d: %w", id, inventory.ErrNotFound)
	}

	if err != nil {
		return fmt.Errorf("reading order status: %w", err)
	}

	return &inventory.ValidationError{Field: "status", Message: fmt.Sprintf("order #%d is already %s", id, current)}
}
