package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	router "github.com/walweb/camisolas/internal/http"
	"github.com/walweb/camisolas/internal/export"
	cataloghttp "github.com/walweb/camisolas/internal/http/catalog"
	exporthttp "github.com/walweb/camisolas/internal/http/export"
	inventoryhttp "github.com/walweb/camisolas/internal/http/inventory"
	matchinghttp "github.com/walweb/camisolas/internal/http/matching"
	orderhttp "github.com/walweb/camisolas/internal/http/order"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/inventory/memory"
	"github.com/walweb/camisolas/internal/matching"
	"github.com/walweb/camisolas/internal/order"
)

func newRouter(t *testing.T) (http.Handler, *auth.Tokens, uuid.UUID) {
	t.Helper()

	ctrl := gomock.NewController(t)

	store := memory.New()
	variant := uuid.New()
	store.AddVariant(variant, "Guatemala", "Blue")

	ledger := inventory.NewService(store)
	feed := inventory.NewFeed(ledger.Snapshot)
	catalogSvc := catalog.NewService(catalog.NewMockRepository(ctrl))
	importSvc := importer.NewService(catalogSvc, ledger, nil)
	orderSvc := order.NewService(order.NewMockRepository(ctrl), ledger)

	tokens := auth.NewTokens("test-secret", time.Hour, "camisolas", auth.NewResolver([]string{"owner@camisolas.gt"}, nil))

	h := router.New(
		tokens,
		[]string{"*"},
		cataloghttp.NewHandler(catalogSvc),
		inventoryhttp.NewHandler(ledger, feed, importSvc, 0),
		orderhttp.NewHandler(orderSvc),
		exporthttp.NewHandler(export.NewService(ledger)),
		matchinghttp.NewHandler(matching.NewService(matching.NewMockRepository(ctrl), catalogSvc)),
	)

	return h, tokens, variant
}

func TestRouter_Authentication(t *testing.T) {
	h, tokens, variant := newRouter(t)

	staffToken, err := tokens.Issue("clerk@camisolas.gt")
	require.NoError(t, err)

	adminToken, err := tokens.Issue("owner@camisolas.gt")
	require.NoError(t, err)

	body := `{"variant_id":"` + variant.String() + `","size":"M","kind":"in","quantity":2}`

	type testCase struct {
		name       string
		method     string
		path       string
		header     string
		body       string
		wantStatus int
	}

	tests := []testCase{
		{name: "AnonymousRead", method: http.MethodGet, path: "/api/v1/balances/", wantStatus: http.StatusOK},
		{name: "AnonymousExport", method: http.MethodGet, path: "/api/v1/export/inventory.csv", wantStatus: http.StatusOK},
		{name: "AnonymousWrite", method: http.MethodPost, path: "/api/v1/movements/", body: body, wantStatus: http.StatusForbidden},
		{name: "StaffWrite", method: http.MethodPost, path: "/api/v1/movements/", header: "Bearer " + staffToken, body: body, wantStatus: http.StatusCreated},
		{name: "StaffReset", method: http.MethodPost, path: "/api/v1/admin/reset", header: "Bearer " + staffToken, wantStatus: http.StatusForbidden},
		{name: "AdminReset", method: http.MethodPost, path: "/api/v1/admin/reset", header: "Bearer " + adminToken, wantStatus: http.StatusOK},
		{name: "BadToken", method: http.MethodGet, path: "/api/v1/balances/", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "NotBearer", method: http.MethodGet, path: "/api/v1/balances/", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "Health", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_RejectsNonJSONBodies(t *testing.T) {
	h, _, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", strings.NewReader("counterparty=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
