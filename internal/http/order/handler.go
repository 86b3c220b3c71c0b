package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/http/api"
	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/order"
)

type Handler struct {
	svc *order.Service
}

func NewHandler(svc *order.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/status", h.updateStatus)
	r.Post("/{id}/confirm", h.confirm)
}

type lineRequest struct {
	Kind        order.LineKind  `json:"kind"`
	VariantID   *uuid.UUID      `json:"variant_id"`
	Size        *string         `json:"size"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createOrderRequest struct {
	Counterparty string        `json:"counterparty"`
	Contact      string        `json:"contact"`
	Kind         order.Kind    `json:"kind"`
	OrderDate    string        `json:"order_date"`
	DeliveryDate string        `json:"delivery_date"`
	Notes        string        `json:"notes"`
	Lines        []lineRequest `json:"lines"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	orderDate, err := api.ParseDate("order_date", req.OrderDate)
	if err != nil {
		api.Fail(w, err)
		return
	}

	deliveryDate, err := api.OptionalDate("delivery_date", req.DeliveryDate)
	if err != nil {
		api.Fail(w, err)
		return
	}

	params := order.CreateParams{
		Counterparty: req.Counterparty,
		Contact:      req.Contact,
		Kind:         req.Kind,
		OrderDate:    orderDate,
		DeliveryDate: deliveryDate,
		Notes:        req.Notes,
		Lines:        make([]order.LineParams, len(req.Lines)),
	}

	for i, l := range req.Lines {
		lp := order.LineParams{
			Kind:        l.Kind,
			VariantID:   l.VariantID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}

		if l.Size != nil {
			lp.Size = new(inventory.Size(*l.Size))
		}

		params.Lines[i] = lp
	}

	o, err := h.svc.Create(r.Context(), auth.FromContext(r.Context()), params)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(order.Status(s))
	}

	if s := r.URL.Query().Get("kind"); s != "" {
		filter.Kind = new(order.Kind(s))
	}

	orders, err := h.svc.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toResponse(o)
	}

	api.JSON(w, http.StatusOK, resp)
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &inventory.ValidationError{Field: "id", Message: "invalid id"}
	}

	return id, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		api.Fail(w, err)
		return
	}

	o, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(o))
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		api.Fail(w, err)
		return
	}

	var req updateStatusRequest
	if err := api.Decode(r, &req); err != nil {
		api.Fail(w, err)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), auth.FromContext(r.Context()), id, req.Status); err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusOK, nil)
}

type confirmRequest struct {
	Date string `json:"date"`
}

// confirm accepts an empty body, which confirms with today's date.
func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		api.Fail(w, err)
		return
	}

	var req confirmRequest
	if r.ContentLength != 0 {
		if err := api.Decode(r, &req); err != nil {
			api.Fail(w, err)
			return
		}
	}

	date, err := api.ParseDate("date", req.Date)
	if err != nil {
		api.Fail(w, err)
		return
	}

	o, err := h.svc.Confirm(r.Context(), auth.FromContext(r.Context()), id, date)
	if err != nil {
		api.Fail(w, err)
		return
	}

	api.OK(w, http.StatusOK, toResponse(o))
}

type lineResponse struct {
	ID          int64           `json:"id"`
	Kind        order.LineKind  `json:"kind"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Size        *inventory.Size `json:"size,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type orderResponse struct {
	ID           int64           `json:"id"`
	Counterparty string          `json:"counterparty"`
	Contact      string          `json:"contact,omitempty"`
	Kind         order.Kind      `json:"kind"`
	Status       order.Status    `json:"status"`
	OrderDate    string          `json:"order_date"`
	DeliveryDate *string         `json:"delivery_date,omitempty"`
	ConfirmedAt  *time.Time      `json:"confirmed_at,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Lines        []lineResponse  `json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		Counterparty: o.Counterparty,
		Contact:      o.Contact,
		Kind:         o.Kind,
		Status:       o.Status,
		OrderDate:    o.OrderDate.Format(time.DateOnly),
		ConfirmedAt:  o.ConfirmedAt,
		Notes:        o.Notes,
		Total:        o.Total,
		Lines:        make([]lineResponse, len(o.Lines)),
		CreatedAt:    o.CreatedAt,
	}

	if o.DeliveryDate != nil {
		resp.DeliveryDate = new(o.DeliveryDate.Format(time.DateOnly))
	}

	for i, l := range o.Lines {
		resp.Lines[i] = lineResponse{
			ID:          l.ID,
			Kind:        l.Kind,
			VariantID:   l.VariantID,
			Size:        l.Size,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal(),
		}
	}

	return resp
}
