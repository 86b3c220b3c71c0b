package inventory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/auth"
)

// BatchNotePrefix marks the note of every movement written by SubmitBatch.
const BatchNotePrefix = "Batch:"

type BatchLine struct {
	VariantID uuid.UUID
	Size      Size
	Quantity  int
	SalePrice *decimal.Decimal
}

type BatchParams struct {
	Kind       Kind
	Note       string
	Date       time.Time
	ReturnDate *time.Time
	Lines      []BatchLine
}

type LineFailure struct {
	Index int
	Line  BatchLine
	Err   error
}

type BatchResult struct {
	BatchID  uuid.UUID
	Applied  []*Movement
	Failures []LineFailure
}

func (r *BatchResult) Failed() int {
	return len(r.Failures)
}

// LastError is the message of the last failed line, or empty when every line applied.
func (r *BatchResult) LastError() string {
	if len(r.Failures) == 0 {
		return ""
	}

	return r.Failures[len(r.Failures)-1].Err.Error()
}

// Err returns the last line error, or nil.
func (r *BatchResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}

	return r.Failures[len(r.Failures)-1].Err
}

// SubmitBatch applies every line in order, each in its own transaction, under one
// shared batch id. A failing line does not stop the remaining lines, and lines
// already applied stay applied.
func (s *Service) SubmitBatch(ctx context.Context, actor auth.Actor, p BatchParams) (*BatchResult, error) {
	if !actor.CanMutate() {
		return nil, ErrNotAuthorized
	}

	if len(p.Lines) == 0 {
		return nil, &ValidationError{Field: "lines", Message: "batch has no lines"}
	}

	if !p.Kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: "unknown movement kind " + string(p.Kind)}
	}

	batchID := uuid.New()
	note := batchNote(p.Note)
	res := &BatchResult{BatchID: batchID}

	for i, line := range p.Lines {
		m, err := s.newMovement(actor, RecordParams{
			VariantID:  line.VariantID,
			Size:       line.Size,
			Kind:       p.Kind,
			Quantity:   line.Quantity,
			Date:       p.Date,
			Note:       note,
			SalePrice:  line.SalePrice,
			ReturnDate: p.ReturnDate,
			BatchID:    &batchID,
		})
		if err == nil {
			err = s.withTx(ctx, "record movement", func(tx Tx) error {
				return s.apply(ctx, tx, m)
			})
		}

		if err != nil {
			res.Failures = append(res.Failures, LineFailure{Index: i, Line: line, Err: err})
			continue
		}

		res.Applied = append(res.Applied, m)
	}

	if len(res.Applied) > 0 {
		s.changed(ctx)
	}

	if res.Failed() > 0 {
		slog.Warn("batch partially applied",
			"batch_id", batchID,
			"applied", len(res.Applied),
			"failed", res.Failed(),
			"last_error", res.LastError(),
		)
	}

	return res, nil
}

func batchNote(note string) string {
	note = strings.TrimSpace(note)
	if strings.HasPrefix(note, BatchNotePrefix) {
		return note
	}

	if note == "" {
		return BatchNotePrefix
	}

	return BatchNotePrefix + " " + note
}
