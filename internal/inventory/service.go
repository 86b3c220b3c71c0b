package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/auth"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 500
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=inventory
type Repository interface {
	Begin(ctx context.Context) (Tx, error)

	ListBalances(ctx context.Context, filter BalanceFilter) ([]*Balance, error)
	GetBalance(ctx context.Context, id int64) (*Balance, error)
	RecentMovements(ctx context.Context, limit int) ([]*Movement, error)
}

// Tx is a unit of work against the balance store and the movement log.
// Balances returned by the Lock methods stay locked until Commit or Rollback.
type Tx interface {
	LockBalance(ctx context.Context, key Key) (*Balance, error)
	LockBalanceByID(ctx context.Context, id int64) (*Balance, error)
	SaveBalance(ctx context.Context, b *Balance) error
	AppendMovement(ctx context.Context, mov *Movement) error
	ResetBalances(ctx context.Context) error
	ClearMovements(ctx context.Context) (int64, error)
	Commit() error
	Rollback() error
}

type BalanceFilter struct {
	Team *string
	Size *Size
}

type Service struct {
	repo   Repository
	policy OutPolicy
	now    func() time.Time
	feed   *Feed
}

type Option func(*Service)

func WithOutPolicy(p OutPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFeed publishes a fresh snapshot to f after every successful mutation.
func WithFeed(f *Feed) Option {
	return func(s *Service) { s.feed = f }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		policy: OutClamp,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Snapshot loads every balance. It satisfies Loader.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.Balances(ctx, BalanceFilter{})
}

type RecordParams struct {
	VariantID  uuid.UUID
	Size       Size
	Kind       Kind
	Quantity   int
	Date       time.Time
	Note       string
	SalePrice  *decimal.Decimal
	ReturnDate *time.Time
	BatchID    *uuid.UUID
}

// RecordMovement validates p, applies it to the balance and appends the
// movement record in a single transaction.
func (s *Service) RecordMovement(ctx context.Context, actor auth.Actor, p RecordParams) (*Movement, error) {
	if !actor.CanMutate() {
		return nil, ErrNotAuthorized
	}

	m, err := s.newMovement(actor, p)
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, "record movement", func(tx Tx) error {
		return s.apply(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx)

	return m, nil
}

func (s *Service) newMovement(actor auth.Actor, p RecordParams) (*Movement, error) {
	if p.VariantID == uuid.Nil {
		return nil, &ValidationError{Field: "variant_id", Message: "is required"}
	}

	if !p.Size.Valid() {
		return nil, &ValidationError{Field: "size", Message: "unknown size " + string(p.Size)}
	}

	if !p.Kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: "unknown movement kind " + string(p.Kind)}
	}

	if p.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}

	if p.Quantity > MaxQuantity {
		return nil, tooLarge("quantity")
	}

	if p.SalePrice != nil && p.SalePrice.IsNegative() {
		return nil, &ValidationError{Field: "sale_price", Message: "must not be negative"}
	}

	date := p.Date
	if date.IsZero() {
		date = s.now()
	}

	m := &Movement{
		VariantID: p.VariantID,
		Size:      p.Size,
		Kind:      p.Kind,
		Quantity:  p.Quantity,
		Date:      truncateDay(date),
		Note:      strings.TrimSpace(p.Note),
		SalePrice: p.SalePrice,
		Actor:     actor.ID,
		BatchID:   p.BatchID,
	}

	// A return date only means something for units lent out as samples.
	if p.Kind == KindToSample && p.ReturnDate != nil {
		rd := truncateDay(*p.ReturnDate)
		m.ReturnDate = &rd
	}

	return m, nil
}

func (s *Service) apply(ctx context.Context, tx Tx, m *Movement) error {
	bal, err := tx.LockBalance(ctx, Key{VariantID: m.VariantID, Size: m.Size})
	if err != nil {
		return storageErr("locking balance", err)
	}

	next, err := bal.Apply(m.Kind, m.Quantity, s.policy)
	if err != nil {
		return err
	}

	next.UpdatedAt = s.now()

	if err := tx.SaveBalance(ctx, &next); err != nil {
		return storageErr("saving balance", err)
	}

	m.CreatedAt = next.UpdatedAt
	if err := tx.AppendMovement(ctx, m); err != nil {
		return storageErr("appending movement", err)
	}

	m.Team, m.Color = bal.Team, bal.Color

	return nil
}

// TransferBucket moves units between two buckets of one balance. No movement is recorded.
func (s *Service) TransferBucket(ctx context.Context, actor auth.Actor, id int64, from, to Bucket, amount int) (*Balance, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	var out Balance

	err := s.withTx(ctx, "transfer bucket", func(tx Tx) error {
		bal, err := tx.LockBalanceByID(ctx, id)
		if err != nil {
			return storageErr("locking balance", err)
		}

		next, err := bal.Transfer(from, to, amount)
		if err != nil {
			return err
		}

		next.UpdatedAt = s.now()
		if err := tx.SaveBalance(ctx, &next); err != nil {
			return storageErr("saving balance", err)
		}

		out = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx)

	return &out, nil
}

// AdjustDirect adds delta to a bucket and floors it at zero. No movement is recorded.
func (s *Service) AdjustDirect(ctx context.Context, actor auth.Actor, id int64, bucket Bucket, delta int) (*Balance, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	var out Balance

	err := s.withTx(ctx, "adjust balance", func(tx Tx) error {
		bal, err := tx.LockBalanceByID(ctx, id)
		if err != nil {
			return storageErr("locking balance", err)
		}

		next, err := bal.Adjust(bucket, delta)
		if err != nil {
			return err
		}

		next.UpdatedAt = s.now()

		if err := tx.SaveBalance(ctx, &next); err != nil {
			return storageErr("saving balance", err)
		}

		out = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx)

	return &out, nil
}

// ResetAll zeroes every balance and empties the movement log.
func (s *Service) ResetAll(ctx context.Context, actor auth.Actor) error {
	if !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	err := s.withTx(ctx, "reset inventory", func(tx Tx) error {
		if err := tx.ResetBalances(ctx); err != nil {
			return storageErr("resetting balances", err)
		}

		if _, err := tx.ClearMovements(ctx); err != nil {
			return storageErr("clearing movements", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.changed(ctx)

	return nil
}

// ClearLog deletes every movement record and returns how many were removed.
func (s *Service) ClearLog(ctx context.Context, actor auth.Actor) (int64, error) {
	if !actor.IsAdmin() {
		return 0, ErrNotAuthorized
	}

	var n int64

	err := s.withTx(ctx, "clear movement log", func(tx Tx) error {
		var err error

		n, err = tx.ClearMovements(ctx)
		if err != nil {
			return storageErr("clearing movements", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

func (s *Service) Balances(ctx context.Context, filter BalanceFilter) ([]*Balance, error) {
	bals, err := s.repo.ListBalances(ctx, filter)
	if err != nil {
		return nil, storageErr("listing balances", err)
	}

	return bals, nil
}

func (s *Service) Balance(ctx context.Context, id int64) (*Balance, error) {
	bal, err := s.repo.GetBalance(ctx, id)
	if err != nil {
		return nil, storageErr("getting balance", err)
	}

	return bal, nil
}

// RecentMovements returns the latest movements, newest first.
func (s *Service) RecentMovements(ctx context.Context, limit int) ([]*Movement, error) {
	movs, err := s.repo.RecentMovements(ctx, clampLimit(limit))
	if err != nil {
		return nil, storageErr("listing movements", err)
	}

	return movs, nil
}

func (s *Service) withTx(ctx context.Context, op string, fn func(tx Tx) error) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return storageErr(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}

	return nil
}

func (s *Service) changed(ctx context.Context) {
	if s.feed != nil {
		s.feed.Changed(context.WithoutCancel(ctx))
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	}

	return limit
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
