package rest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/api/middleware"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/api/rest"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/mocks"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/reconcile"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

const testAPIKey = "test-api-key"

func TestMain(m *testing.M) {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

type testHandlerMocks struct {
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	engine  *mocks.MockEngine
	trigger *mocks.MockRunTrigger
	runs    *mocks.MockRunReader
	router  *gin.Engine
}

func setupTestRouter(t *testing.T) *testHandlerMocks {
	ctrl := gomock.NewController(t)

	tm := &testHandlerMocks{
		ctrl:    ctrl,
		store:   mocks.NewMockStore(ctrl),
		engine:  mocks.NewMockEngine(ctrl),
		trigger: mocks.NewMockRunTrigger(ctrl),
		runs:    mocks.NewMockRunReader(ctrl),
	}

	tm.router = gin.New()
	handler := rest.NewHandler(tm.store, tm.engine, tm.trigger, tm.runs)
	rest.SetupRoutes(tm.router, handler, middleware.AuthConfig{APIKeys: []string{testAPIKey}})

	return tm
}

func doRequest(router *gin.Engine, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("X-API-Key", testAPIKey)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	w := doRequest(tm.router, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestIngestObservation(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	previous := decimal.RequireFromString("24.99")
	tm.engine.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, input domain.ObservationInput) (*reconcile.IngestResult, error) {
			assert.Equal(t, uint64(7), input.ProductID)
			assert.Equal(t, domain.RetailerSource(3), input.Source)
			assert.Equal(t, "19.99", input.Price.String())
			assert.Equal(t, "USD", input.Currency)
			return &reconcile.IngestResult{
				PriceChanged:  true,
				PreviousPrice: &previous,
			}, nil
		})

	body := `{"product_id":7,"source_kind":"retailer","source_id":3,"price":"19.99","currency":"USD","available":true}`
	w := doRequest(tm.router, http.MethodPost, "/v1/observations", body, true)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		FirstSeen     bool   `json:"first_seen"`
		PriceChanged  bool   `json:"price_changed"`
		PreviousPrice string `json:"previous_price"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.FirstSeen)
	assert.True(t, resp.PriceChanged)
	assert.Equal(t, "24.99", resp.PreviousPrice)
}

func TestIngestObservation_RequiresAPIKey(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	body := `{"product_id":7,"source_kind":"retailer","source_id":3,"price":"19.99","currency":"USD"}`
	w := doRequest(tm.router, http.MethodPost, "/v1/observations", body, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestObservation_ValidationError(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.engine.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		Return(nil, domain.NewValidationError("currency", `"usd" is not an ISO 4217 code`))

	body := `{"product_id":7,"source_kind":"retailer","source_id":3,"price":"19.99","currency":"usd"}`
	w := doRequest(tm.router, http.MethodPost, "/v1/observations", body, true)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestIngestObservation_UnknownProduct(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.engine.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrProductNotFound)

	body := `{"product_id":999,"source_kind":"retailer","source_id":3,"price":"19.99","currency":"USD"}`
	w := doRequest(tm.router, http.MethodPost, "/v1/observations", body, true)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProduct(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	lowest := decimal.RequireFromString("9.99")
	tm.store.EXPECT().GetProductByID(gomock.Any(), uint64(7)).
		Return(&schema.Product{
			ID:          7,
			Name:        "Acme Anvil",
			Slug:        "acme-anvil",
			LowestPrice: decimal.NewNullDecimal(lowest),
		}, nil)

	w := doRequest(tm.router, http.MethodGet, "/v1/products/7", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"acme-anvil"`)
	assert.Contains(t, w.Body.String(), `"lowest_price":"9.99"`)
	assert.Contains(t, w.Body.String(), `"highest_price":null`)
}

func TestGetProduct_NotFound(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.store.EXPECT().GetProductByID(gomock.Any(), uint64(999)).Return(nil, nil)

	w := doRequest(tm.router, http.MethodGet, "/v1/products/999", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	w := doRequest(tm.router, http.MethodGet, "/v1/products/abc", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPriceHistory(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tm.engine.EXPECT().GetPriceHistory(gomock.Any(), uint64(7), &since, 50).
		Return([]schema.PriceHistoryEntry{
			{
				ProductID:  7,
				SourceKind: domain.SourceKindRetailer,
				SourceID:   3,
				Price:      decimal.RequireFromString("19.99"),
				Currency:   "USD",
				Timestamp:  since.Add(time.Hour),
			},
		}, nil)

	w := doRequest(tm.router, http.MethodGet,
		"/v1/products/7/history?since=2026-01-01T00:00:00Z&limit=50", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"retailer:3"`)
}

func TestGetPriceHistory_InvalidSince(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	w := doRequest(tm.router, http.MethodGet, "/v1/products/7/history?since=yesterday", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductObservations(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.engine.EXPECT().GetObservations(gomock.Any(), uint64(7)).
		Return([]schema.PriceObservation{
			{
				ProductID:  7,
				SourceKind: domain.SourceKindShop,
				SourceID:   2,
				Price:      decimal.RequireFromString("21.50"),
				Currency:   "USD",
				Available:  true,
			},
		}, nil)

	w := doRequest(tm.router, http.MethodGet, "/v1/products/7/observations", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"shop:2"`)
}

func TestReconcileProduct_CurrencyMismatch(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.engine.EXPECT().Reconcile(gomock.Any(), uint64(7)).
		Return(nil, domain.ErrCurrencyMismatch)

	w := doRequest(tm.router, http.MethodPost, "/v1/products/7/reconcile", "", true)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "conflict")
}

func TestTriggerRun(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.trigger.EXPECT().TriggerRun(gomock.Any(), uint64(9)).
		Return("01JK3V5T9GZ2Q4W8XN6M0RSCEH", nil)

	w := doRequest(tm.router, http.MethodPost, "/v1/sources/9/runs", "", true)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"01JK3V5T9GZ2Q4W8XN6M0RSCEH"`)
}

func TestTriggerRun_AlreadyRunning(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.trigger.EXPECT().TriggerRun(gomock.Any(), uint64(9)).
		Return("", domain.ErrAlreadyRunning)

	w := doRequest(tm.router, http.MethodPost, "/v1/sources/9/runs", "", true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTriggerRun_WorkerQueueFull(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.trigger.EXPECT().TriggerRun(gomock.Any(), uint64(9)).
		Return("", domain.ErrSchedulerBusy)

	w := doRequest(tm.router, http.MethodPost, "/v1/sources/9/runs", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unavailable"`)
}

func TestTriggerRun_InactiveSource(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.trigger.EXPECT().TriggerRun(gomock.Any(), uint64(9)).
		Return("", domain.ErrSourceInactive)

	w := doRequest(tm.router, http.MethodPost, "/v1/sources/9/runs", "", true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetRun(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Second)
	tm.runs.EXPECT().GetRun(gomock.Any(), "01JK3V5T9GZ2Q4W8XN6M0RSCEH").
		Return(&schema.ScraperRun{
			ID:              "01JK3V5T9GZ2Q4W8XN6M0RSCEH",
			SourceID:        9,
			StartTime:       start,
			EndTime:         &end,
			Status:          domain.RunStatusSuccess,
			ProductsScraped: 12,
			NewPricesFound:  2,
			UpdatedPrices:   3,
		}, nil)

	w := doRequest(tm.router, http.MethodGet, "/v1/runs/01JK3V5T9GZ2Q4W8XN6M0RSCEH", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
	assert.Contains(t, w.Body.String(), `"products_scraped":12`)
}

func TestGetRun_NotFound(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.runs.EXPECT().GetRun(gomock.Any(), "missing").
		Return(nil, domain.ErrRunNotFound)

	w := doRequest(tm.router, http.MethodGet, "/v1/runs/missing", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSources(t *testing.T) {
	tm := setupTestRouter(t)
	defer tm.ctrl.Finish()

	tm.store.EXPECT().ListActiveScraperSources(gomock.Any()).
		Return([]schema.ScraperSource{
			{ID: 9, RetailerID: 4, Name: "Acme", Slug: "acme", Type: domain.ScraperTypeHTML, IsActive: true},
		}, nil)

	w := doRequest(tm.router, http.MethodGet, "/v1/sources", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"acme"`)
}
