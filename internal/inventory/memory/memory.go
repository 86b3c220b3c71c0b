// Package memory provides an in-memory inventory.Repository used by tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/walweb/camisolas/internal/inventory"
)

type variant struct {
	team  string
	color string
}

// Store keeps balances and movements in maps guarded by one lock.
// A transaction holds the write lock from Begin until Commit or Rollback.
type Store struct {
	mu        sync.RWMutex
	variants  map[uuid.UUID]variant
	balances  map[inventory.Key]*inventory.Balance
	movements []*inventory.Movement
	nextBal   int64
	nextMov   int64
}

func New() *Store {
	return &Store{
		variants: make(map[uuid.UUID]variant),
		balances: make(map[inventory.Key]*inventory.Balance),
	}
}

// AddVariant registers a catalog variant so balances can reference it.
func (s *Store) AddVariant(id uuid.UUID, team, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.variants[id] = variant{team: team, color: color}
}

func (s *Store) Begin(_ context.Context) (inventory.Tx, error) {
	s.mu.Lock()

	return &tx{store: s, snap: s.snapshot()}, nil
}

func (s *Store) ListBalances(_ context.Context, filter inventory.BalanceFilter) ([]*inventory.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*inventory.Balance

	for _, b := range s.balances {
		c := s.joined(b)
		if filter.Team != nil && c.Team != *filter.Team {
			continue
		}

		if filter.Size != nil && c.Size != *filter.Size {
			continue
		}

		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Team != b.Team {
			return a.Team < b.Team
		}

		if a.Color != b.Color {
			return a.Color < b.Color
		}

		return slices.Index(inventory.Sizes, a.Size) < slices.Index(inventory.Sizes, b.Size)
	})

	return out, nil
}

func (s *Store) GetBalance(_ context.Context, id int64) (*inventory.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.byID(id)
	if b == nil {
		return nil, fmt.Errorf("balance %d: %w", id, inventory.ErrNotFound)
	}

	return s.joined(b), nil
}

func (s *Store) RecentMovements(_ context.Context, limit int) ([]*inventory.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*inventory.Movement, 0, min(limit, len(s.movements)))

	for i := len(s.movements) - 1; i >= 0 && len(out) < limit; i-- {
		m := *s.movements[i]
		if v, ok := s.variants[m.VariantID]; ok {
			m.Team, m.Color = v.team, v.color
		}

		out = append(out, &m)
	}

	return out, nil
}

func (s *Store) byID(id int64) *inventory.Balance {
	for _, b := range s.balances {
		if b.ID == id {
			return b
		}
	}

	return nil
}

func (s *Store) joined(b *inventory.Balance) *inventory.Balance {
	c := *b
	if v, ok := s.variants[b.VariantID]; ok {
		c.Team, c.Color = v.team, v.color
	}

	return &c
}

type snapshot struct {
	balances  map[inventory.Key]inventory.Balance
	movements []*inventory.Movement
	nextBal   int64
	nextMov   int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		balances:  make(map[inventory.Key]inventory.Balance, len(s.balances)),
		movements: slices.Clone(s.movements),
		nextBal:   s.nextBal,
		nextMov:   s.nextMov,
	}

	for k, b := range s.balances {
		snap.balances[k] = *b
	}

	return snap
}

func (s *Store) restore(snap snapshot) {
	s.balances = make(map[inventory.Key]*inventory.Balance, len(snap.balances))
	for k, b := range snap.balances {
		s.balances[k] = &b
	}

	s.movements = snap.movements
	s.nextBal = snap.nextBal
	s.nextMov = snap.nextMov
}

type tx struct {
	store *Store
	snap  snapshot
	done  bool
}

func (t *tx) LockBalance(ctx context.Context, key inventory.Key) (*inventory.Balance, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	s := t.store

	if b, ok := s.balances[key]; ok {
		return s.joined(b), nil
	}

	if _, ok := s.variants[key.VariantID]; !ok {
		return nil, fmt.Errorf("variant %s: %w", key.VariantID, inventory.ErrNotFound)
	}

	s.nextBal++
	b := &inventory.Balance{ID: s.nextBal, VariantID: key.VariantID, Size: key.Size}
	s.balances[key] = b

	return s.joined(b), nil
}

func (t *tx) LockBalanceByID(ctx context.Context, id int64) (*inventory.Balance, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	b := t.store.byID(id)
	if b == nil {
		return nil, fmt.Errorf("balance %d: %w", id, inventory.ErrNotFound)
	}

	return t.store.joined(b), nil
}

func (t *tx) SaveBalance(ctx context.Context, b *inventory.Balance) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	cur, ok := t.store.balances[b.Key()]
	if !ok || cur.ID != b.ID {
		return fmt.Errorf("balance %d: %w", b.ID, inventory.ErrNotFound)
	}

	cur.Available, cur.Sample, cur.Sold = b.Available, b.Sample, b.Sold
	cur.UpdatedAt = b.UpdatedAt

	return nil
}

func (t *tx) AppendMovement(ctx context.Context, m *inventory.Movement) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	s := t.store
	s.nextMov++
	m.ID = s.nextMov

	c := *m
	c.Team, c.Color = "", ""
	s.movements = append(s.movements, &c)

	return nil
}

func (t *tx) ResetBalances(ctx context.Context) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	for _, b := range t.store.balances {
		b.Available, b.Sample, b.Sold = 0, 0, 0
	}

	return nil
}

func (t *tx) ClearMovements(ctx context.Context) (int64, error) {
	if err := t.check(ctx); err != nil {
		return 0, err
	}

	n := int64(len(t.store.movements))
	t.store.movements = nil

	return n, nil
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}

	t.done = true
	t.store.mu.Unlock()

	return nil
}

// Rollback restores the state captured at Begin. It is a no-op after Commit.
func (t *tx) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true
	t.store.restore(t.snap)
	t.store.mu.Unlock()

	return nil
}

func (t *tx) check(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}

	return ctx.Err()
}
