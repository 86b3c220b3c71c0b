package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/http/api"
	"github.com/walweb/camisolas/internal/inventory"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
}

type variantResponse struct {
	ID          uuid.UUID `json:"id"`
	Team        string    `json:"team"`
	Color       string    `json:"color"`
	ImageURL    string    `json:"image_url,omitempty"`
	GalleryURLs []string  `json:"gallery_urls"`
	VideoURL    string    `json:"video_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(v *catalog.Variant) variantResponse {
	gallery := v.GalleryURLs
	if gallery == nil {
		gallery = []string{}
	}

	return variantResponse{
		ID:          v.ID,
		Team:        v.Team,
		Color:       v.Color,
		ImageURL:    v.ImageURL,
		GalleryURLs: gallery,
		VideoURL:    v.VideoURL,
		CreatedAt:   v.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	variants, err := h.svc.List(r.Context())
	if err != nil {
		api.Fail(w, err)
		return
	}

	resp := make([]variantResponse, len(variants))
	for i, v := range variants {
		resp[i] = toResponse(v)
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Fail(w, &inventory.ValidationError{Field: "id", Message: "invalid id"})
		return
	}

	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(v))
}

type createVariantRequest struct {
	Team        string   `json:"team"`
	Color       string   `json:"color"`
	ImageURL    string   `json:"image_url"`
	GalleryURLs []string `json:"gallery_urls"`
	VideoURL    string   `json:"video_url"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createVariantRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	v, err := h.svc.Create(r.Context(), auth.FromContext(r.Context()), catalog.CreateParams{
		Team:        req.Team,
		Color:       req.Color,
		ImageURL:    req.ImageURL,
		GalleryURLs: req.GalleryURLs,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusCreated, toResponse(v))
}
