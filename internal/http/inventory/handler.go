package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/http/api"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/inventory"
)

type Handler struct {
	ledger        *inventory.Service
	feed          *inventory.Feed
	importer      *importer.Service
	summaryWindow int
}

func NewHandler(ledger *inventory.Service, feed *inventory.Feed, importSvc *importer.Service, summaryWindow int) *Handler {
	return &Handler{
		ledger:        ledger,
		feed:          feed,
		importer:      importSvc,
		summaryWindow: summaryWindow,
	}
}

func (h *Handler) BalanceRoutes(r chi.Router) {
	r.Get("/", h.balances)
	r.Get("/stream", h.stream)
	r.Get("/dashboard", h.dashboard)
	r.Post("/{id}/transfer", h.transfer)
	r.Post("/{id}/adjust", h.adjust)
}

func (h *Handler) MovementRoutes(r chi.Router) {
	r.Get("/", h.movements)
	r.Get("/history", h.history)
	r.Get("/summary", h.summary)
	r.Post("/", h.record)
	r.Post("/batch", h.batch)
	r.Post("/import", h.importStock)
	r.Delete("/", h.clearLog)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/reset", h.reset)
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	filter, err := api.BalanceFilter(r)
	if err != nil {
		api.Fail(w, err)
		return
	}

	bals, err := h.ledger.Balances(r.Context(), filter)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.JSON(w, http.StatusOK, toBalances(bals))
}

// stream sends the balance table as server-sent events: once on connect and
// again after every change.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Fail(w, errors.New("streaming unsupported"))
		return
	}

	sub := h.feed.Subscribe()
	defer sub.Close()

	snap, err := h.ledger.Snapshot(r.Context())
	if err != nil {
		api.Fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, snap); err != nil {
		return
	}

	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}

			if err := writeEvent(w, snap); err != nil {
				slog.Warn("balance stream closed", "error", err)
				return
			}

			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap inventory.Snapshot) error {
	data, err := json.Marshal(toBalances(snap))
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: balances\ndata: %s\n\n", data)

	return err
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.ledger.Dashboard(r.Context())
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.JSON(w, http.StatusOK, toDashboard(d))
}

func balanceID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &inventory.ValidationError{Field: "id", Message: "invalid id"}
	}

	return id, nil
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int    `json:"amount"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	id, err := balanceID(r)
	if err != nil {
		api.Fail(w, err)
		return
	}

	var req transferRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	from, err := inventory.ParseBucket(req.From)
	if err != nil {
		api.Fail(w, err)
		return
	}

	to, err := inventory.ParseBucket(req.To)
	if err != nil {
		api.Fail(w, err)
		return
	}

	bal, err := h.ledger.TransferBucket(r.Context(), auth.FromContext(r.Context()), id, from, to, req.Amount)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusOK, toBalance(bal))
}

type adjustRequest struct {
	Bucket string `json:"bucket"`
	Delta  int    `json:"delta"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := balanceID(r)
	if err != nil {
		api.Fail(w, err)
		return
	}

	var req adjustRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	bucket, err := inventory.ParseBucket(req.Bucket)
	if err != nil {
		api.Fail(w, err)
		return
	}

	bal, err := h.ledger.AdjustDirect(r.Context(), auth.FromContext(r.Context()), id, bucket, req.Delta)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusOK, toBalance(bal))
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.ResetAll(r.Context(), auth.FromContext(r.Context())); err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusOK, nil)
}
