package matching

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/http/api"
	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/resolve", h.resolve)
	r.Post("/", h.learn)
}

type aliasResponse struct {
	Team      string    `json:"team"`
	Color     string    `json:"color"`
	VariantID uuid.UUID `json:"variant_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(a *matching.Alias) aliasResponse {
	return aliasResponse{
		Team:      a.Team,
		Color:     a.Color,
		VariantID: a.VariantID,
		CreatedAt: a.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.svc.List(r.Context())
	if err != nil {
		api.Fail(w, err)
		return
	}

	resp := make([]aliasResponse, len(aliases))
	for i, a := range aliases {
		resp[i] = toResponse(a)
	}

	api.JSON(w, http.StatusOK, resp)
}

type resolveResponse struct {
	Team      string    `json:"team"`
	Color     string    `json:"color"`
	VariantID uuid.UUID `json:"variant_id"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	team, color := r.URL.Query().Get("team"), r.URL.Query().Get("color")
	if team == "" || color == "" {
		api.Fail(w, &inventory.ValidationError{Field: "team", Message: "team and color query parameters are required"})
		return
	}

	v, err := h.svc.Find(r.Context(), team, color)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resolveResponse{Team: v.Team, Color: v.Color, VariantID: v.ID})
}

type learnRequest struct {
	Team      string    `json:"team"`
	Color     string    `json:"color"`
	VariantID uuid.UUID `json:"variant_id"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	a, err := h.svc.Learn(r.Context(), auth.FromContext(r.Context()), req.Team, req.Color, req.VariantID)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusCreated, toResponse(a))
}
