package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/walweb/camisolas/internal/export"
	"github.com/walweb/camisolas/internal/http/api"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/inventory.csv", h.report)
	r.Get("/archive.zip", h.archive)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	filter, err := api.BalanceFilter(r)
	if err != nil {
		api.Fail(w, err)
		return
	}

	report, err := h.svc.Report(r.Context(), filter)
	if err != nil {
		api.Fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename()))

	if err := report.WriteCSV(w); err != nil {
		slog.Error("failed to write report", "error", err)
	}
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"export_%s.zip\"", time.Now().Format("20060102")))

	if err := h.svc.Archive(r.Context(), w, api.Limit(r)); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}
