package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ventas-insights/internal/insights"
	"github.com/angelmondragon/ventas-insights/internal/insights/dataset"
	"github.com/angelmondragon/ventas-insights/pkg/config"
	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
	"github.com/angelmondragon/ventas-insights/pkg/metrics"
	"github.com/angelmondragon/ventas-insights/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, Port: "8080"},
		Server: config.ServerConfig{
			MarginLimitDefault: 10,
			MarginLimitMax:     500,
		},
	}
}

func testTable(t *testing.T) *dataset.Table {
	t.Helper()
	day := func(value string) time.Time {
		parsed, err := time.Parse(dataset.DefaultDateLayout, value)
		if err != nil {
			t.Fatalf("bad test date %q: %v", value, err)
		}
		return parsed
	}
	money := decimal.RequireFromString
	return dataset.NewTable([]dataset.Transaction{
		{SaleDate: day("2024-01-10"), CustomerID: "C1", Product: "Teclado", Category: "Electronica", Country: "ES", Quantity: 2, UnitPrice: money("25.00"), UnitCost: money("10.00")},
		{SaleDate: day("2024-02-05"), CustomerID: "C2", Product: "Silla", Category: "Muebles", Country: "FR", Quantity: 1, UnitPrice: money("80.00"), UnitCost: money("45.00")},
		{SaleDate: day("2024-03-01"), CustomerID: "C1", Product: "Raton", Category: "Electronica", Country: "ES", Quantity: 3, UnitPrice: money("15.00"), UnitCost: money("6.00")},
	})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	registry := prometheus.NewRegistry()
	svc := insights.NewServiceFromTable(testTable(t), nil, metrics.NewQueryMetrics(registry))
	return NewRouter(testConfig(), nil, svc, registry)
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	if w := get(t, router, "/health/live"); w.Code != http.StatusOK {
		t.Fatalf("live probe returned %d", w.Code)
	}
	w := get(t, router, "/health/ready")
	if w.Code != http.StatusOK {
		t.Fatalf("ready probe returned %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Ventas-Env"); got != config.AppEnvDev {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestReadyProbeFailsOnEmptyDataset(t *testing.T) {
	svc := insights.NewServiceFromTable(dataset.NewTable(nil), nil, nil)
	router := NewRouter(testConfig(), nil, svc, nil)

	w := get(t, router, "/health/ready")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty dataset, got %d", w.Code)
	}
}

func TestInsightEndpointsRespond(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{
		"/api/v1/insights/top-category",
		"/api/v1/insights/top-customer",
		"/api/v1/insights/average-customer-revenue",
		"/api/v1/insights/product-margins",
		"/api/v1/insights/seasonality",
		"/api/v1/insights/quarter-sales",
		"/api/v1/insights/multi-category-customers",
		"/api/v1/insights/customer-tiers",
		"/api/v1/insights/product-sales",
		"/api/v1/insights/customer-sales",
		"/api/v1/dataset/summary",
	}
	for _, path := range paths {
		w := get(t, router, path)
		if w.Code != http.StatusOK {
			t.Fatalf("%s returned %d: %s", path, w.Code, w.Body.String())
		}
		var body types.SuccessEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("%s: failed to decode envelope: %v", path, err)
		}
	}
}

func TestTopCategoryPayload(t *testing.T) {
	router := newTestRouter(t)

	w := get(t, router, "/api/v1/insights/top-category")
	var body struct {
		Data struct {
			Category     string `json:"category"`
			QuantitySold int64  `json:"quantity_sold"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if body.Data.Category != "Electronica" || body.Data.QuantitySold != 5 {
		t.Fatalf("unexpected top category %+v", body.Data)
	}
}

func TestProductMarginsRejectsBadLimit(t *testing.T) {
	router := newTestRouter(t)

	w := get(t, router, "/api/v1/insights/product-margins?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric limit, got %d", w.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %s", body.Error.Code)
	}

	if w := get(t, router, "/api/v1/insights/product-margins?limit=100000"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit over the ceiling, got %d", w.Code)
	}
}

func TestReloadWithoutSourceReturnsValidationError(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/dataset/reload", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reload without a source, got %d", w.Code)
	}
}

func TestMetricsEndpointExposesQueryCounters(t *testing.T) {
	router := newTestRouter(t)

	// Drive one query first so the counters exist.
	if w := get(t, router, "/api/v1/insights/top-customer"); w.Code != http.StatusOK {
		t.Fatalf("warmup query returned %d", w.Code)
	}

	w := get(t, router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "insight_query_success") {
		t.Fatalf("metrics output missing query counter:\n%s", body)
	}
}
