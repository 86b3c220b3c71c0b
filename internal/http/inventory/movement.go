package inventory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/http/api"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/inventory"
)

const maxUploadSize = 10 << 20

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	movs, err := h.ledger.RecentMovements(r.Context(), api.Limit(r))
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.JSON(w, http.StatusOK, toMovements(movs))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.History(r.Context(), api.Limit(r))
	if err != nil {
		api.Fail(w, err)
		return
	}

	resp := make([]historyResponse, len(entries))
	for i, e := range entries {
		resp[i] = historyResponse{
			BatchID:   e.BatchID,
			Batch:     e.IsBatch(),
			Quantity:  e.TotalQuantity(),
			Movements: toMovements(e.Movements),
		}
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	lines, err := h.ledger.Summary(r.Context(), auth.FromContext(r.Context()), h.summaryWindow)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string][]string{"lines": lines})
}

type recordRequest struct {
	VariantID  uuid.UUID        `json:"variant_id"`
	Size       string           `json:"size"`
	Kind       string           `json:"kind"`
	Quantity   int              `json:"quantity"`
	Date       string           `json:"date"`
	Note       string           `json:"note"`
	SalePrice  *decimal.Decimal `json:"sale_price"`
	ReturnDate string           `json:"return_date"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	date, err := api.ParseDate("date", req.Date)
	if err != nil {
		api.Fail(w, err)
		return
	}

	returnDate, err := api.OptionalDate("return_date", req.ReturnDate)
	if err != nil {
		api.Fail(w, err)
		return
	}

	m, err := h.ledger.RecordMovement(r.Context(), auth.FromContext(r.Context()), inventory.RecordParams{
		VariantID:  req.VariantID,
		Size:       inventory.Size(req.Size),
		Kind:       inventory.Kind(req.Kind),
		Quantity:   req.Quantity,
		Date:       date,
		Note:       req.Note,
		SalePrice:  req.SalePrice,
		ReturnDate: returnDate,
	})
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusCreated, toMovement(m))
}

type batchLineRequest struct {
	VariantID uuid.UUID        `json:"variant_id"`
	Size      string           `json:"size"`
	Quantity  int              `json:"quantity"`
	SalePrice *decimal.Decimal `json:"sale_price"`
}

type batchRequest struct {
	Kind       string             `json:"kind"`
	Note       string             `json:"note"`
	Date       string             `json:"date"`
	ReturnDate string             `json:"return_date"`
	Lines      []batchLineRequest `json:"lines"`
}

// batch answers 200 whenever the batch ran. Success is false when any line failed.
func (h *Handler) batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	date, err := api.ParseDate("date", req.Date)
	if err != nil {
		api.Fail(w, err)
		return
	}

	returnDate, err := api.OptionalDate("return_date", req.ReturnDate)
	if err != nil {
		api.Fail(w, err)
		return
	}

	params := inventory.BatchParams{
		Kind:       inventory.Kind(req.Kind),
		Note:       req.Note,
		Date:       date,
		ReturnDate: returnDate,
		Lines:      make([]inventory.BatchLine, len(req.Lines)),
	}

	for i, l := range req.Lines {
		params.Lines[i] = inventory.BatchLine{
			VariantID: l.VariantID,
			Size:      inventory.Size(l.Size),
			Quantity:  l.Quantity,
			SalePrice: l.SalePrice,
		}
	}

	res, err := h.ledger.SubmitBatch(r.Context(), auth.FromContext(r.Context()), params)
	if err != nil {
		api.Fail(w, err)
		return
	}

	writeBatch(w, toBatch(res), res.LastError())
}

func writeBatch(w http.ResponseWriter, resp batchResponse, lastErr string) {
	api.JSON(w, http.StatusOK, api.Envelope{
		Success: resp.Failed == 0,
		Error:   lastErr,
		Data:    resp,
	})
}

// importStock reads a multipart "file" plus kind, note, date and format form values.
func (h *Handler) importStock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		api.Fail(w, &inventory.ValidationError{Field: "file", Message: "failed to parse form: " + err.Error()})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, &inventory.ValidationError{Field: "file", Message: "file field is required"})
		return
	}
	defer file.Close()

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatStockCSV
	}

	date, err := api.ParseDate("date", r.FormValue("date"))
	if err != nil {
		api.Fail(w, err)
		return
	}

	returnDate, err := api.OptionalDate("return_date", r.FormValue("return_date"))
	if err != nil {
		api.Fail(w, err)
		return
	}

	res, err := h.importer.Import(r.Context(), auth.FromContext(r.Context()), importer.Request{
		Format:     format,
		Kind:       inventory.Kind(r.FormValue("kind")),
		Note:       r.FormValue("note"),
		Date:       date,
		ReturnDate: returnDate,
	}, file)
	if err != nil {
		api.Fail(w, err)
		return
	}

	resp := toBatch(res.Batch)
	resp.Charset = string(res.Parsed.Charset)
	resp.ParsedRows = len(res.Parsed.Rows)

	for i := range resp.Failures {
		resp.Failures[i].Line = res.RowLines[resp.Failures[i].Index]
	}

	for _, s := range res.Skipped {
		resp.Skipped = append(resp.Skipped, failureResponse{Line: s.Line, Error: s.Err.Error()})
	}

	writeBatch(w, resp, res.Batch.LastError())
}

func (h *Handler) clearLog(w http.ResponseWriter, r *http.Request) {
	n, err := h.ledger.ClearLog(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusOK, map[string]int64{"deleted": n})
}

