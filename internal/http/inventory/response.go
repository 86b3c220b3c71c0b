package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/inventory"
)

type balanceResponse struct {
	ID        int64          `json:"id"`
	VariantID uuid.UUID      `json:"variant_id"`
	Team      string         `json:"team"`
	Color     string         `json:"color"`
	Size      inventory.Size `json:"size"`
	Available int            `json:"available"`
	Sample    int            `json:"sample"`
	Sold      int            `json:"sold"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func toBalance(b *inventory.Balance) balanceResponse {
	return balanceResponse{
		ID:        b.ID,
		VariantID: b.VariantID,
		Team:      b.Team,
		Color:     b.Color,
		Size:      b.Size,
		Available: b.Available,
		Sample:    b.Sample,
		Sold:      b.Sold,
		UpdatedAt: b.UpdatedAt,
	}
}

func toBalances(bals []*inventory.Balance) []balanceResponse {
	resp := make([]balanceResponse, len(bals))
	for i, b := range bals {
		resp[i] = toBalance(b)
	}

	return resp
}

type movementResponse struct {
	ID         int64            `json:"id"`
	VariantID  uuid.UUID        `json:"variant_id"`
	Team       string           `json:"team"`
	Color      string           `json:"color"`
	Size       inventory.Size   `json:"size"`
	Kind       inventory.Kind   `json:"kind"`
	Quantity   int              `json:"quantity"`
	Date       string           `json:"date"`
	Note       string           `json:"note,omitempty"`
	SalePrice  *decimal.Decimal `json:"sale_price,omitempty"`
	ReturnDate *string          `json:"return_date,omitempty"`
	Actor      string           `json:"actor,omitempty"`
	BatchID    *uuid.UUID       `json:"batch_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toMovement(m *inventory.Movement) movementResponse {
	resp := movementResponse{
		ID:        m.ID,
		VariantID: m.VariantID,
		Team:      m.Team,
		Color:     m.Color,
		Size:      m.Size,
		Kind:      m.Kind,
		Quantity:  m.Quantity,
		Date:      m.Date.Format(time.DateOnly),
		Note:      m.Note,
		SalePrice: m.SalePrice,
		Actor:     m.Actor,
		BatchID:   m.BatchID,
		CreatedAt: m.CreatedAt,
	}

	if m.ReturnDate != nil {
		resp.ReturnDate = new(m.ReturnDate.Format(time.DateOnly))
	}

	return resp
}

func toMovements(movs []*inventory.Movement) []movementResponse {
	resp := make([]movementResponse, len(movs))
	for i, m := range movs {
		resp[i] = toMovement(m)
	}

	return resp
}

type historyResponse struct {
	BatchID   *uuid.UUID         `json:"batch_id,omitempty"`
	Batch     bool               `json:"batch"`
	Quantity  int                `json:"quantity"`
	Movements []movementResponse `json:"movements"`
}

type teamResponse struct {
	Team      string                 `json:"team"`
	Available int                    `json:"available"`
	Sample    int                    `json:"sample"`
	Sold      int                    `json:"sold"`
	BySize    map[inventory.Size]int `json:"by_size"`
}

type dashboardResponse struct {
	Teams     []teamResponse `json:"teams"`
	Available int            `json:"available"`
	Sample    int            `json:"sample"`
	Sold      int            `json:"sold"`
}

func toDashboard(d *inventory.Dashboard) dashboardResponse {
	resp := dashboardResponse{
		Teams:     make([]teamResponse, len(d.Teams)),
		Available: d.Available,
		Sample:    d.Sample,
		Sold:      d.Sold,
	}

	for i, t := range d.Teams {
		resp.Teams[i] = teamResponse(t)
	}

	return resp
}

type failureResponse struct {
	Index int    `json:"index"`
	Line  int    `json:"line,omitempty"`
	Error string `json:"error"`
}

type batchResponse struct {
	BatchID    uuid.UUID          `json:"batch_id"`
	Applied    int                `json:"applied"`
	Failed     int                `json:"failed"`
	LastError  string             `json:"last_error,omitempty"`
	Failures   []failureResponse  `json:"failures,omitempty"`
	Movements  []movementResponse `json:"movements"`
	Skipped    []failureResponse  `json:"skipped,omitempty"`
	Charset    string             `json:"charset,omitempty"`
	ParsedRows int                `json:"parsed_rows,omitempty"`
}

func toBatch(res *inventory.BatchResult) batchResponse {
	resp := batchResponse{
		BatchID:   res.BatchID,
		Applied:   len(res.Applied),
		Failed:    res.Failed(),
		LastError: res.LastError(),
		Movements: toMovements(res.Applied),
	}

	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, failureResponse{Index: f.Index, Error: f.Err.Error()})
	}

	return resp
}
