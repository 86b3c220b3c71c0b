package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/inventory"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=order
type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status, confirmedAt *time.Time) error
}

// Ledger records the stock movements of a confirmed order.
type Ledger interface {
	RecordMovement(ctx context.Context, actor auth.Actor, p inventory.RecordParams) (*inventory.Movement, error)
}

type Service struct {
	repo   Repository
	ledger Ledger
	now    func() time.Time
}

func NewService(repo Repository, ledger Ledger) *Service {
	return &Service{repo: repo, ledger: ledger, now: time.Now}
}

type LineParams struct {
	Kind        LineKind
	VariantID   *uuid.UUID
	Size        *inventory.Size
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateParams struct {
	Counterparty string
	Contact      string
	Kind         Kind
	OrderDate    time.Time
	DeliveryDate *time.Time
	Notes        string
	Lines        []LineParams
}

type ListFilter struct {
	Status *Status
	Kind   *Kind
}

// LineError names the order line whose ledger movement failed.
type LineError struct {
	Index       int
	Description string
	Err         error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("updating stock for %s: %v", e.Description, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, params CreateParams) (*Order, error) {
	if !actor.CanMutate() {
		return nil, inventory.ErrNotAuthorized
	}

	o, err := s.newOrder(params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Service) newOrder(params CreateParams) (*Order, error) {
	name := strings.TrimSpace(params.Counterparty)
	if name == "" {
		return nil, &inventory.ValidationError{Field: "counterparty", Message: "is required"}
	}

	if !params.Kind.Valid() {
		return nil, &inventory.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown order kind %q", params.Kind)}
	}

	if len(params.Lines) == 0 {
		return nil, &inventory.ValidationError{Field: "lines", Message: "order needs at least one line"}
	}

	date := params.OrderDate
	if date.IsZero() {
		date = s.now()
	}

	o := &Order{
		Counterparty: name,
		Contact:      strings.TrimSpace(params.Contact),
		Kind:         params.Kind,
		Status:       params.Kind.InitialStatus(),
		OrderDate:    date,
		DeliveryDate: params.DeliveryDate,
		Notes:        strings.TrimSpace(params.Notes),
		Total:        decimal.Zero,
		Lines:        make([]Line, 0, len(params.Lines)),
	}

	for i, lp := range params.Lines {
		line, err := newLine(i, lp)
		if err != nil {
			return nil, err
		}

		o.Lines = append(o.Lines, line)
		o.Total = o.Total.Add(line.Subtotal())
	}

	return o, nil
}

func newLine(i int, p LineParams) (Line, error) {
	field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }

	if p.Quantity <= 0 {
		return Line{}, &inventory.ValidationError{Field: field("quantity"), Message: "must be greater than zero"}
	}

	if p.Quantity > inventory.MaxQuantity {
		return Line{}, &inventory.ValidationError{Field: field("quantity"), Message: fmt.Sprintf("must not exceed %d", inventory.MaxQuantity)}
	}

	if p.UnitPrice.IsNegative() {
		return Line{}, &inventory.ValidationError{Field: field("unit_price"), Message: "must not be negative"}
	}

	line := Line{
		Kind:        p.Kind,
		Description: strings.TrimSpace(p.Description),
		Quantity:    p.Quantity,
		UnitPrice:   p.UnitPrice,
	}

	switch p.Kind {
	case LineInventory:
		if p.VariantID == nil || *p.VariantID == uuid.Nil {
			return Line{}, &inventory.ValidationError{Field: field("variant_id"), Message: "is required for inventory lines"}
		}

		if p.Size == nil || !p.Size.Valid() {
			return Line{}, &inventory.ValidationError{Field: field("size"), Message: "must be one of S, M, L, XL"}
		}

		line.VariantID = p.VariantID
		line.Size = p.Size
	case LineFreeform:
		if line.Description == "" {
			return Line{}, &inventory.ValidationError{Field: field("description"), Message: "is required for freeform lines"}
		}
	default:
		return Line{}, &inventory.ValidationError{Field: field("kind"), Message: fmt.Sprintf("unknown line kind %q", p.Kind)}
	}

	return line, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// List returns orders newest first, lines included.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	return s.repo.ListOrders(ctx, filter)
}

// UpdateStatus only accepts cancelling a pending order. Terminal confirmed
// states are reached through Confirm so stock is always moved with them.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, id int64, status Status) error {
	if !actor.CanMutate() {
		return inventory.ErrNotAuthorized
	}

	if !status.Valid() {
		return &inventory.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}

	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	if !o.Status.Pending() {
		return &inventory.ValidationError{Field: "status", Message: fmt.Sprintf("order #%d is already %s", id, o.Status)}
	}

	if status != StatusCancelled {
		return &inventory.ValidationError{Field: "status", Message: fmt.Sprintf("cannot move order #%d to %s, confirm it instead", id, status)}
	}

	return s.repo.UpdateStatus(ctx, id, StatusCancelled, nil)
}

func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id int64) error {
	return s.UpdateStatus(ctx, actor, id, StatusCancelled)
}

// Confirm records a ledger movement for every inventory line, in order and under
// one batch id, then moves the order to its terminal status. The first failing
// line aborts the confirmation; lines already recorded stay recorded.
func (s *Service) Confirm(ctx context.Context, actor auth.Actor, id int64, date time.Time) (*Order, error) {
	if !actor.CanMutate() {
		return nil, inventory.ErrNotAuthorized
	}

	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.Pending() {
		return nil, &inventory.ValidationError{Field: "status", Message: fmt.Sprintf("order #%d is already %s", id, o.Status)}
	}

	if date.IsZero() {
		date = s.now()
	}

	batchID := uuid.New()
	kind := o.Kind.MovementKind()
	note := fmt.Sprintf("Order #%d confirmation (%s)", o.ID, o.Kind)
	applied := 0

	for i, line := range o.Lines {
		if line.Kind != LineInventory || line.VariantID == nil || line.Size == nil {
			continue
		}

		p := inventory.RecordParams{
			VariantID: *line.VariantID,
			Size:      *line.Size,
			Kind:      kind,
			Quantity:  line.Quantity,
			Date:      date,
			Note:      note,
			BatchID:   &batchID,
		}

		if kind == inventory.KindSale {
			price := line.UnitPrice
			p.SalePrice = &price
		}

		if _, err := s.ledger.RecordMovement(ctx, actor, p); err != nil {
			slog.Warn("order confirmation aborted",
				"order_id", o.ID,
				"line", i,
				"applied", applied,
				"error", err,
			)

			return nil, &LineError{Index: i, Description: lineLabel(line), Err: err}
		}

		applied++
	}

	status := o.Kind.ConfirmedStatus()
	if err := s.repo.UpdateStatus(ctx, id, status, &date); err != nil {
		return nil, fmt.Errorf("confirming order #%d: %w", id, err)
	}

	o.Status = status
	o.ConfirmedAt = &date

	return o, nil
}

func lineLabel(l Line) string {
	if l.Description != "" {
		return l.Description
	}

	return fmt.Sprintf("%s (%s)", l.VariantID, *l.Size)
}
