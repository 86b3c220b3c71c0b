// Package api holds the JSON envelope and error mapping shared by every handler.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/walweb/camisolas/internal/inventory"
)

// Envelope is the body of every mutation response.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

// Fail answers with the status matching the error class.
func Fail(w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}

	JSON(w, status, Envelope{Error: err.Error()})
}

// Status maps ledger errors to HTTP status codes.
func Status(err error) int {
	switch {
	case errors.Is(err, inventory.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, inventory.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientStock), errors.Is(err, inventory.ErrInsufficientQuantity):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Decode reads a JSON body into v. Malformed bodies are validation errors.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &inventory.ValidationError{Field: "body", Message: err.Error()}
	}

	return nil
}

// ParseDate reads a YYYY-MM-DD value. An empty value yields the zero time.
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, &inventory.ValidationError{Field: field, Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}

	return t, nil
}

// OptionalDate is ParseDate for fields where empty means absent.
func OptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := ParseDate(field, s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// Limit reads the limit query parameter. Missing or malformed values yield 0.
func Limit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}

	return n
}

// BalanceFilter reads the team and size query parameters.
func BalanceFilter(r *http.Request) (inventory.BalanceFilter, error) {
	filter := inventory.BalanceFilter{}

	if s := r.URL.Query().Get("team"); s != "" {
		filter.Team = new(s)
	}

	if s := r.URL.Query().Get("size"); s != "" {
		size, err := inventory.ParseSize(s)
		if err != nil {
			return filter, err
		}

		filter.Size = &size
	}

	return filter, nil
}
