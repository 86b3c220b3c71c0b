package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// legacyBatchWindow bounds the created_at gap between rows of a batch written
// before batch ids were stamped.
const legacyBatchWindow = 2 * time.Second

// HistoryEntry is either a single movement or a batch of movements shown together.
type HistoryEntry struct {
	BatchID   *uuid.UUID
	Movements []*Movement
}

func (e HistoryEntry) IsBatch() bool {
	return len(e.Movements) > 1 || e.BatchID != nil
}

// TotalQuantity sums the quantity of every movement in the entry.
func (e HistoryEntry) TotalQuantity() int {
	total := 0
	for _, m := range e.Movements {
		total += m.Quantity
	}

	return total
}

// History returns the recent movements grouped for display.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	movs, err := s.RecentMovements(ctx, limit)
	if err != nil {
		return nil, err
	}

	return GroupHistory(movs), nil
}

// GroupHistory folds adjacent movements (in recency order) into batch entries.
// Movements sharing a batch id are grouped. Movements without one are grouped
// when their note carries the batch prefix and they match the previous row in
// kind, note and date with created_at less than two seconds apart.
func GroupHistory(movs []*Movement) []HistoryEntry {
	var out []HistoryEntry

	var cur []*Movement

	flush := func() {
		if len(cur) == 0 {
			return
		}

		out = append(out, HistoryEntry{BatchID: cur[0].BatchID, Movements: cur})
		cur = nil
	}

	for i, m := range movs {
		if !batched(m) {
			flush()
			out = append(out, HistoryEntry{Movements: []*Movement{m}})

			continue
		}

		if i > 0 && len(cur) > 0 && sameBatch(movs[i-1], m) {
			cur = append(cur, m)
			continue
		}

		flush()

		cur = []*Movement{m}
	}

	flush()

	return out
}

func batched(m *Movement) bool {
	return m.BatchID != nil || strings.HasPrefix(m.Note, BatchNotePrefix)
}

func sameBatch(prev, m *Movement) bool {
	if prev.BatchID != nil || m.BatchID != nil {
		return prev.BatchID != nil && m.BatchID != nil && *prev.BatchID == *m.BatchID
	}

	gap := prev.CreatedAt.Sub(m.CreatedAt)
	if gap < 0 {
		gap = -gap
	}

	return prev.Note == m.Note &&
		prev.Kind == m.Kind &&
		prev.Date.Equal(m.Date) &&
		gap < legacyBatchWindow
}
