package inventory_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/catalog"
	handler "github.com/walweb/camisolas/internal/http/inventory"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/importer/stockcsv"
	"github.com/walweb/camisolas/internal/inventory"
	"github.com/walweb/camisolas/internal/inventory/memory"
)

var (
	staff  = auth.Actor{ID: "clerk@camisolas.gt", Role: auth.RoleStaff}
	admin  = auth.Actor{ID: "owner@camisolas.gt", Role: auth.RoleAdmin}
	viewer = auth.Actor{Role: auth.RoleViewer}
)

type fixture struct {
	srv     http.Handler
	ledger  *inventory.Service
	feed    *inventory.Feed
	finder  *importer.MockVariantFinder
	variant uuid.UUID
	actor   auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	f := &fixture{variant: uuid.New(), actor: staff}
	store.AddVariant(f.variant, "Guatemala", "Blue")

	var ledger *inventory.Service
	f.feed = inventory.NewFeed(func(ctx context.Context) (inventory.Snapshot, error) {
		return ledger.Snapshot(ctx)
	})
	ledger = inventory.NewService(store, inventory.WithFeed(f.feed))
	f.ledger = ledger

	f.finder = importer.NewMockVariantFinder(gomock.NewController(t))
	imp := importer.NewService(f.finder, ledger, map[importer.Format]importer.Parser{
		importer.FormatStockCSV: stockcsv.NewParser(),
	})

	h := handler.NewHandler(ledger, f.feed, imp, 0)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithActor(req.Context(), f.actor)))
		})
	})
	r.Route("/balances", h.BalanceRoutes)
	r.Route("/movements", h.MovementRoutes)
	r.Route("/admin", h.AdminRoutes)
	f.srv = r

	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}

	return rec, env
}

func (f *fixture) record(t *testing.T, kind inventory.Kind, size inventory.Size, qty int) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"variant_id": f.variant,
		"size":       size,
		"kind":       kind,
		"quantity":   qty,
		"date":       "2025-03-14",
	})
	require.NoError(t, err)

	return f.do(t, http.MethodPost, "/movements/", string(body))
}

func (f *fixture) balances(t *testing.T) []map[string]any {
	t.Helper()

	rec, _ := f.do(t, http.MethodGet, "/balances/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	return got
}

func TestHandler_RecordMovement(t *testing.T) {
	f := newFixture(t)

	rec, env := f.record(t, inventory.KindIn, inventory.SizeM, 3)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	rec, env = f.record(t, inventory.KindSale, inventory.SizeM, 5)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "insufficient stock: available 3, requested 5", env.Error)

	rec, _ = f.record(t, inventory.KindIn, "XXL", 1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.actor = viewer
	rec, _ = f.record(t, inventory.KindIn, inventory.SizeM, 1)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	bals := f.balances(t)
	require.Len(t, bals, 1)
	assert.InDelta(t, 3, bals[0]["available"], 0)
	assert.Equal(t, "Guatemala", bals[0]["team"])

	rec, _ = f.do(t, http.MethodGet, "/movements/?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var movs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &movs))
	require.Len(t, movs, 1)
	assert.Equal(t, "2025-03-14", movs[0]["date"])
}

func TestHandler_BadDate(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/movements/", `{"variant_id":"`+f.variant.String()+`","size":"M","kind":"in","quantity":1,"date":"14/03/2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "date")
}

func TestHandler_TransferAndAdjust(t *testing.T) {
	f := newFixture(t)
	f.record(t, inventory.KindIn, inventory.SizeM, 5)

	id := int64(f.balances(t)[0]["id"].(float64))
	path := func(action string) string { return "/balances/" + jsonInt(id) + "/" + action }

	rec, _ := f.do(t, http.MethodPost, path("transfer"), `{"from":"available","to":"sample","amount":2}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.actor = admin

	rec, env := f.do(t, http.MethodPost, path("transfer"), `{"from":"available","to":"sample","amount":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = f.do(t, http.MethodPost, path("transfer"), `{"from":"sample","to":"sold","amount":9}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, http.MethodPost, path("adjust"), `{"bucket":"available","delta":-999}`)
	require.Equal(t, http.StatusOK, rec.Code)

	bal := f.balances(t)[0]
	assert.InDelta(t, 0, bal["available"], 0)
	assert.InDelta(t, 2, bal["sample"], 0)

	rec, _ = f.do(t, http.MethodPost, "/balances/999/adjust", `{"bucket":"available","delta":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodPost, path("adjust"), `{"bucket":"shelf","delta":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Batch(t *testing.T) {
	f := newFixture(t)
	f.record(t, inventory.KindIn, inventory.SizeM, 10)

	body := `{"kind":"sale","note":"Stadium stand","lines":[
		{"variant_id":"` + f.variant.String() + `","size":"M","quantity":6},
		{"variant_id":"` + f.variant.String() + `","size":"M","quantity":6}
	]}`

	rec, env := f.do(t, http.MethodPost, "/movements/batch", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "insufficient stock: available 4, requested 6", env.Error)

	var data struct {
		Applied  int `json:"applied"`
		Failed   int `json:"failed"`
		Failures []struct {
			Index int `json:"index"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Applied)
	assert.Equal(t, 1, data.Failed)
	assert.Equal(t, 1, data.Failures[0].Index)

	rec, _ = f.do(t, http.MethodGet, "/movements/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []struct {
		Batch    bool `json:"batch"`
		Quantity int  `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.True(t, history[0].Batch)
	assert.Equal(t, 6, history[0].Quantity)
}

func TestHandler_Import(t *testing.T) {
	f := newFixture(t)

	f.finder.EXPECT().Find(gomock.Any(), "Guatemala", "Blue").Return(&catalog.Variant{ID: f.variant}, nil)
	f.finder.EXPECT().Find(gomock.Any(), "Atlantis", "Gold").Return(nil, inventory.ErrNotFound)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", "in"))
	require.NoError(t, mw.WriteField("note", "supplier"))
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("team;color;size;quantity\nGuatemala;Blue;L;4\nAtlantis;Gold;S;1\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/movements/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Applied int `json:"applied"`
			Skipped []struct {
				Line int `json:"line"`
			} `json:"skipped"`
			Movements []struct {
				Note string `json:"note"`
			} `json:"movements"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Data.Applied)
	require.Len(t, env.Data.Skipped, 1)
	assert.Equal(t, 3, env.Data.Skipped[0].Line)
	assert.Equal(t, "Batch: supplier", env.Data.Movements[0].Note)

	bals := f.balances(t)
	require.Len(t, bals, 1)
	assert.Equal(t, "L", bals[0]["size"])
}

func TestHandler_ImportWithoutFile(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", "in"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/movements/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ResetAndClearLog(t *testing.T) {
	f := newFixture(t)
	f.record(t, inventory.KindIn, inventory.SizeS, 4)

	rec, _ := f.do(t, http.MethodPost, "/admin/reset", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, http.MethodDelete, "/movements/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.actor = admin

	rec, env := f.do(t, http.MethodDelete, "/movements/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, string(env.Data))

	assert.InDelta(t, 4, f.balances(t)[0]["available"], 0)

	rec, env = f.do(t, http.MethodPost, "/admin/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.InDelta(t, 0, f.balances(t)[0]["available"], 0)
}

func TestHandler_SummaryAndDashboard(t *testing.T) {
	f := newFixture(t)
	f.record(t, inventory.KindIn, inventory.SizeS, 4)

	rec, _ := f.do(t, http.MethodGet, "/movements/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.NotEmpty(t, summary.Lines)
	assert.Contains(t, summary.Lines[0], "USER: CLERK")

	rec, _ = f.do(t, http.MethodGet, "/balances/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dash struct {
		Available int `json:"available"`
		Teams     []struct {
			Team   string         `json:"team"`
			BySize map[string]int `json:"by_size"`
		} `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 4, dash.Available)
	require.Len(t, dash.Teams, 1)
	assert.Equal(t, 4, dash.Teams[0].BySize["S"])
}

func TestHandler_Stream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.srv)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/balances/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := bufio.NewScanner(resp.Body)
	next := func() string {
		for events.Scan() {
			if data, ok := strings.CutPrefix(events.Text(), "data: "); ok {
				return data
			}
		}

		t.Fatal("stream ended")

		return ""
	}

	assert.Equal(t, "[]", next())

	f.record(t, inventory.KindIn, inventory.SizeXL, 2)

	var bals []map[string]any
	require.NoError(t, json.Unmarshal([]byte(next()), &bals))
	require.Len(t, bals, 1)
	assert.Equal(t, "XL", bals[0]["size"])
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
