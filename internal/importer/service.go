package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/inventory"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=importer

// VariantFinder resolves a team and color to a catalog variant.
type VariantFinder interface {
	Find(ctx context.Context, team, color string) (*catalog.Variant, error)
}

// BatchSubmitter applies a batch of stock lines.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, actor auth.Actor, p inventory.BatchParams) (*inventory.BatchResult, error)
}

type Service struct {
	parsers  map[Format]Parser
	variants VariantFinder
	ledger   BatchSubmitter
}

func NewService(variants VariantFinder, ledger BatchSubmitter, parsers map[Format]Parser) *Service {
	return &Service{
		parsers:  parsers,
		variants: variants,
		ledger:   ledger,
	}
}

type Request struct {
	Format     Format
	Kind       inventory.Kind
	Note       string
	Date       time.Time
	ReturnDate *time.Time
}

// RowError is a row that could not be turned into a batch line.
type RowError struct {
	Line int
	Err  error
}

type Result struct {
	Parsed   *Parsed
	Skipped  []RowError
	Batch    *inventory.BatchResult
	RowLines []int // source line of each submitted batch line, by batch index
}

// Import parses r and submits every resolvable row as one stock batch.
// Rows naming an unknown variant are skipped and reported.
func (s *Service) Import(ctx context.Context, actor auth.Actor, req Request, r io.Reader) (*Result, error) {
	if !actor.CanMutate() {
		return nil, inventory.ErrNotAuthorized
	}

	parser, ok := s.parsers[req.Format]
	if !ok {
		return nil, &inventory.ValidationError{Field: "format", Message: fmt.Sprintf("unknown import format %q", req.Format)}
	}

	parsed, err := parser.Parse(r)
	if err != nil {
		return nil, &inventory.ValidationError{Field: "file", Message: err.Error()}
	}

	res := &Result{Parsed: parsed}
	params := inventory.BatchParams{
		Kind:       req.Kind,
		Note:       req.Note,
		Date:       req.Date,
		ReturnDate: req.ReturnDate,
	}

	for _, row := range parsed.Rows {
		id := row.VariantID
		if id == uuid.Nil {
			v, err := s.variants.Find(ctx, row.Team, row.Color)
			if err != nil {
				if !errors.Is(err, inventory.ErrNotFound) {
					return nil, fmt.Errorf("resolving row %d: %w", row.Line, err)
				}

				res.Skipped = append(res.Skipped, RowError{Line: row.Line, Err: err})

				continue
			}

			id = v.ID
		}

		params.Lines = append(params.Lines, inventory.BatchLine{
			VariantID: id,
			Size:      row.Size,
			Quantity:  row.Quantity,
			SalePrice: row.SalePrice,
		})
		res.RowLines = append(res.RowLines, row.Line)
	}

	if len(params.Lines) == 0 {
		return nil, &inventory.ValidationError{Field: "file", Message: "no importable rows"}
	}

	batch, err := s.ledger.SubmitBatch(ctx, actor, params)
	if err != nil {
		return nil, err
	}

	res.Batch = batch

	slog.Info("stock file imported",
		"charset", parsed.Charset,
		"rows", len(parsed.Rows),
		"applied", len(batch.Applied),
		"failed", batch.Failed(),
		"skipped", len(res.Skipped),
	)

	return res, nil
}
