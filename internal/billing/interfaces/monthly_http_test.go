package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billingapp "kitchen-billing/internal/billing/application"
	billing "kitchen-billing/internal/billing/domain"
	"kitchen-billing/internal/billing/infrastructure/memory"
	"kitchen-billing/internal/billing/infrastructure/pricing"
	masterdata "kitchen-billing/internal/masterdata/domain"
	ordering "kitchen-billing/internal/ordering/domain"
)

func newMonthlyHandler(t *testing.T, store *memory.Store, exportDir string) *MonthlyHandler {
	t.Helper()
	prices, err := pricing.NewFixedPriceProvider(billing.DefaultPriceTable())
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	aggregator, err := billingapp.NewAggregator(store.Persons(), store.Orders(), store.Charges(), prices)
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	reporter, err := billingapp.NewReporter(aggregator, "Schulküche", nil, NewPDFRenderer(nil), NewXLSXRenderer(), NewCSVRenderer())
	if err != nil {
		t.Fatalf("reporter: %v", err)
	}
	handler, err := NewMonthlyHandler(reporter, exportDir, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler
}

func seedScenario(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	anna := masterdata.Person{Name: "anna", Category: masterdata.CategoryPensioner}
	bernd := masterdata.Person{Name: "Bernd", Category: masterdata.CategoryChildGroup}
	for _, p := range []*masterdata.Person{&anna, &bernd} {
		if err := store.Persons().Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for day := 1; day <= 20; day++ {
		store.Orders().Append(ordering.MealOrder{Date: time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC), PersonID: anna.ID, Quantity: 1, Delivery: day <= 5})
	}
	store.Orders().Append(ordering.MealOrder{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), PersonID: bernd.ID, Quantity: 10})
	store.Charges().Append(ordering.AdditionalCharge{PersonID: anna.ID, Month: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Description: "Etagenträger", UnitPrice: decimal.RequireFromString("15"), Quantity: 1})
	return store
}

func TestMonthlyHandler_ReturnsRows(t *testing.T) {
	handler := newMonthlyHandler(t, seedScenario(t), "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/monthly?year=2026&month=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp monthlyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Rows) != 2 || resp.Rows[0].Name != "anna" || !resp.Rows[0].Total.Equal(decimal.RequireFromString("122.50")) {
		t.Fatalf("unexpected rows: %+v", resp.Rows)
	}
	if !resp.Totals.Total.Equal(decimal.RequireFromString("151.50")) || len(resp.Sections) != 2 {
		t.Fatalf("unexpected totals: %+v", resp.Totals)
	}
}

func TestMonthlyHandler_InvalidPeriod(t *testing.T) {
	handler := newMonthlyHandler(t, memory.NewStore(), "")
	for _, target := range []string{
		"/api/v1/billing/monthly?year=2026&month=13",
		"/api/v1/billing/monthly?year=abc&month=1",
		"/api/v1/billing/monthly/export.pdf?year=2026&month=0",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestMonthlyHandler_IntegrityConflict(t *testing.T) {
	store := memory.NewStore()
	store.Orders().Append(ordering.MealOrder{Date: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), PersonID: 77, Quantity: 1})
	handler := newMonthlyHandler(t, store, "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/monthly?year=2026&month=1", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestMonthlyHandler_StreamsExports(t *testing.T) {
	handler := newMonthlyHandler(t, seedScenario(t), "")
	cases := map[string]string{
		"pdf":  "application/pdf",
		"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"csv":  "text/csv; charset=utf-8",
	}
	for format, contentType := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/monthly/export."+format+"?year=2026&month=1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", format, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != contentType {
			t.Fatalf("%s: unexpected content type %q", format, got)
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "Sammelabrechnung_2026-01."+format) {
			t.Fatalf("%s: unexpected disposition %q", format, rec.Header().Get("Content-Disposition"))
		}
		if rec.Body.Len() == 0 {
			t.Fatalf("%s: empty body", format)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/monthly/export.docx?year=2026&month=1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown format, got %d", rec.Code)
	}
}

func TestMonthlyHandler_ExportToDisk(t *testing.T) {
	dir := t.TempDir()
	handler := newMonthlyHandler(t, seedScenario(t), dir)

	body := `{"year":2026,"month":1,"format":"csv","file_name":"../jaenner"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/monthly/export", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "jaenner.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.Contains(data, []byte("Pensionisten;anna")) {
		t.Fatalf("unexpected export content:\n%s", data)
	}
}

func TestMonthlyHandler_ExportToMissingDirectory(t *testing.T) {
	handler := newMonthlyHandler(t, seedScenario(t), filepath.Join(t.TempDir(), "missing"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/monthly/export", strings.NewReader(`{"year":2026,"month":1}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("unexpected message %q", rec.Body.String())
	}
}

func TestMonthlyHandler_ExportWithoutDirectory(t *testing.T) {
	handler := newMonthlyHandler(t, seedScenario(t), "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/monthly/export", strings.NewReader(`{"year":2026,"month":1}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
