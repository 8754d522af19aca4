package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/api/rest/dto"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/reconcile"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// Engine is the handler's view of the reconciliation engine
//
//go:generate mockgen -source=handler.go -destination=../../mocks/rest.go -package=mocks -mock_names=Engine=MockEngine,RunTrigger=MockRunTrigger,RunReader=MockRunReader
type Engine interface {
	Ingest(ctx context.Context, input domain.ObservationInput) (*reconcile.IngestResult, error)
	Reconcile(ctx context.Context, productID uint64) (*domain.ProductStats, error)
	GetObservations(ctx context.Context, productID uint64) ([]schema.PriceObservation, error)
	GetPriceHistory(ctx context.Context, productID uint64, since *time.Time, limit int) ([]schema.PriceHistoryEntry, error)
}

// RunTrigger dispatches manual scrape runs
type RunTrigger interface {
	TriggerRun(ctx context.Context, sourceID uint64) (string, error)
}

// RunReader resolves scraper runs by id
type RunReader interface {
	GetRun(ctx context.Context, id string) (*schema.ScraperRun, error)
}

// Handler defines the interface for REST API handlers
type Handler interface {
	// IngestObservation records one source's price for a product
	// POST /v1/observations
	IngestObservation(c *gin.Context)

	// GetProduct retrieves a product with its cached stats
	// GET /v1/products/:id
	GetProduct(c *gin.Context)

	// GetProductObservations lists a product's current per-source prices
	// GET /v1/products/:id/observations
	GetProductObservations(c *gin.Context)

	// GetPriceHistory lists a product's recorded price changes, newest first
	// GET /v1/products/:id/history?since=<RFC3339>&limit=<limit>
	GetPriceHistory(c *gin.Context)

	// ReconcileProduct recomputes a product's stats from its observations
	// POST /v1/products/:id/reconcile
	ReconcileProduct(c *gin.Context)

	// ListSources lists all active scraper sources
	// GET /v1/sources
	ListSources(c *gin.Context)

	// TriggerRun dispatches a manual run for a source
	// POST /v1/sources/:id/runs
	TriggerRun(c *gin.Context)

	// GetRun retrieves a scraper run by id
	// GET /v1/runs/:id
	GetRun(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store   store.Store
	engine  Engine
	trigger RunTrigger
	runs    RunReader
}

// NewHandler creates a new REST API handler
func NewHandler(st store.Store, engine Engine, trigger RunTrigger, runs RunReader) Handler {
	return &handler{
		store:   st,
		engine:  engine,
		trigger: trigger,
		runs:    runs,
	}
}

// parseIDParam parses the :id path parameter as an unsigned integer
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid id", c.Param("id"))
		return 0, false
	}
	return id, true
}

// IngestObservation records one source's price for a product
func (h *handler) IngestObservation(c *gin.Context) {
	var req dto.IngestObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	result, err := h.engine.Ingest(c.Request.Context(), req.ToInput())
	if err != nil {
		respondDomainError(c, err, "Failed to ingest observation")
		return
	}

	c.JSON(http.StatusOK, dto.NewIngestObservationResponse(result))
}

// GetProduct retrieves a product with its cached stats
func (h *handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.store.GetProductByID(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to get product")
		return
	}
	if product == nil {
		respondNotFound(c, "Product not found")
		return
	}

	c.JSON(http.StatusOK, dto.NewProductResponse(product))
}

// GetProductObservations lists a product's current per-source prices
func (h *handler) GetProductObservations(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	observations, err := h.engine.GetObservations(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "Failed to get observations")
		return
	}

	items := make([]dto.ObservationResponse, 0, len(observations))
	for i := range observations {
		items = append(items, dto.NewObservationResponse(&observations[i]))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetPriceHistory lists a product's recorded price changes, newest first
func (h *handler) GetPriceHistory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, "Invalid since timestamp, expected RFC3339", raw)
			return
		}
		since = &parsed
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			respondBadRequest(c, fmt.Sprintf("Invalid limit, expected 1..%d", maxHistoryLimit), raw)
			return
		}
		limit = parsed
	}

	entries, err := h.engine.GetPriceHistory(c.Request.Context(), id, since, limit)
	if err != nil {
		respondDomainError(c, err, "Failed to get price history")
		return
	}

	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewHistoryEntryResponse(&entries[i]))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ReconcileProduct recomputes a product's stats from its observations
func (h *handler) ReconcileProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	stats, err := h.engine.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "Failed to reconcile product")
		return
	}

	c.JSON(http.StatusOK, dto.NewStatsResponse(stats))
}

// ListSources lists all active scraper sources
func (h *handler) ListSources(c *gin.Context) {
	sources, err := h.store.ListActiveScraperSources(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to list sources")
		return
	}

	items := make([]dto.SourceResponse, 0, len(sources))
	for i := range sources {
		items = append(items, dto.NewSourceResponse(&sources[i]))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// TriggerRun dispatches a manual run for a source
func (h *handler) TriggerRun(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	// The dispatched run must outlive this request
	runID, err := h.trigger.TriggerRun(context.WithoutCancel(c.Request.Context()), id)
	if err != nil {
		respondDomainError(c, err, "Failed to trigger run")
		return
	}

	c.JSON(http.StatusAccepted, dto.TriggerRunResponse{RunID: runID})
}

// GetRun retrieves a scraper run by id
func (h *handler) GetRun(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		respondBadRequest(c, "Run id is required")
		return
	}

	run, err := h.runs.GetRun(c.Request.Context(), runID)
	if err != nil {
		respondDomainError(c, err, "Failed to get run")
		return
	}

	c.JSON(http.StatusOK, dto.NewRunResponse(run))
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "price-comparison-api",
	})
}
