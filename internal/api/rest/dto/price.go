package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/reconcile"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// IngestObservationRequest is the body of POST /v1/observations
type IngestObservationRequest struct {
	ProductID    uint64          `json:"product_id"`
	SourceKind   string          `json:"source_kind"`
	SourceID     uint64          `json:"source_id"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	FreeShipping bool            `json:"free_shipping"`
	Available    bool            `json:"available"`
	StockStatus  string          `json:"stock_status"`
	ProductURL   string          `json:"product_url"`
	ObservedAt   *time.Time      `json:"observed_at,omitempty"`
}

// ToInput converts the request to an engine observation input
func (r *IngestObservationRequest) ToInput() domain.ObservationInput {
	input := domain.ObservationInput{
		ProductID:    r.ProductID,
		Source:       domain.SourceRef{Kind: domain.SourceKind(r.SourceKind), ID: r.SourceID},
		Price:        r.Price,
		Currency:     r.Currency,
		ShippingCost: r.ShippingCost,
		FreeShipping: r.FreeShipping,
		Available:    r.Available,
		StockStatus:  r.StockStatus,
		ProductURL:   r.ProductURL,
	}
	if r.ObservedAt != nil {
		input.ObservedAt = *r.ObservedAt
	}
	return input
}

// StatsResponse carries a product's derived price stats; null values mean no
// available observation exists
type StatsResponse struct {
	LowestPrice  *decimal.Decimal `json:"lowest_price"`
	HighestPrice *decimal.Decimal `json:"highest_price"`
	AveragePrice *decimal.Decimal `json:"average_price"`
}

// NewStatsResponse maps domain stats to their response form
func NewStatsResponse(stats *domain.ProductStats) *StatsResponse {
	if stats == nil {
		return nil
	}
	return &StatsResponse{
		LowestPrice:  stats.LowestPrice,
		HighestPrice: stats.HighestPrice,
		AveragePrice: stats.AveragePrice,
	}
}

// IngestObservationResponse reports what an ingest did
type IngestObservationResponse struct {
	FirstSeen        bool             `json:"first_seen"`
	PriceChanged     bool             `json:"price_changed"`
	PreviousPrice    *decimal.Decimal `json:"previous_price,omitempty"`
	CurrencyMismatch bool             `json:"currency_mismatch"`
	Stats            *StatsResponse   `json:"stats,omitempty"`
}

// NewIngestObservationResponse maps an engine result to its response form
func NewIngestObservationResponse(result *reconcile.IngestResult) IngestObservationResponse {
	return IngestObservationResponse{
		FirstSeen:        result.FirstSeen,
		PriceChanged:     result.PriceChanged,
		PreviousPrice:    result.PreviousPrice,
		CurrencyMismatch: result.CurrencyMismatch,
		Stats:            NewStatsResponse(result.Stats),
	}
}

// ProductResponse represents a product with its cached stats
type ProductResponse struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Stats       StatsResponse `json:"stats"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewProductResponse maps a product row to its response form
func NewProductResponse(p *schema.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.LowestPrice.Valid {
		resp.Stats.LowestPrice = &p.LowestPrice.Decimal
	}
	if p.HighestPrice.Valid {
		resp.Stats.HighestPrice = &p.HighestPrice.Decimal
	}
	if p.AveragePrice.Valid {
		resp.Stats.AveragePrice = &p.AveragePrice.Decimal
	}
	return resp
}

// ObservationResponse represents one source's current price for a product
type ObservationResponse struct {
	Source        string           `json:"source"`
	Price         decimal.Decimal  `json:"price"`
	Currency      string           `json:"currency"`
	ShippingCost  decimal.Decimal  `json:"shipping_cost"`
	FreeShipping  bool             `json:"free_shipping"`
	Available     bool             `json:"available"`
	StockStatus   string           `json:"stock_status,omitempty"`
	ProductURL    string           `json:"product_url,omitempty"`
	PreviousPrice *decimal.Decimal `json:"previous_price,omitempty"`
	LastChecked   time.Time        `json:"last_checked"`
}

// NewObservationResponse maps an observation row to its response form
func NewObservationResponse(o *schema.PriceObservation) ObservationResponse {
	resp := ObservationResponse{
		Source:       o.Source().String(),
		Price:        o.Price,
		Currency:     o.Currency,
		ShippingCost: o.ShippingCost,
		FreeShipping: o.FreeShipping,
		Available:    o.Available,
		StockStatus:  o.StockStatus,
		ProductURL:   o.ProductURL,
		LastChecked:  o.LastChecked,
	}
	if o.PreviousPrice.Valid {
		resp.PreviousPrice = &o.PreviousPrice.Decimal
	}
	return resp
}

// HistoryEntryResponse represents one recorded price change
type HistoryEntryResponse struct {
	Source    string          `json:"source"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewHistoryEntryResponse maps a history row to its response form
func NewHistoryEntryResponse(e *schema.PriceHistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		Source:    e.Source().String(),
		Price:     e.Price,
		Currency:  e.Currency,
		Timestamp: e.Timestamp,
	}
}

// RunResponse represents one scraper run
type RunResponse struct {
	ID              string           `json:"id"`
	SourceID        uint64           `json:"source_id"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	Status          domain.RunStatus `json:"status"`
	ProductsScraped uint             `json:"products_scraped"`
	NewPricesFound  uint             `json:"new_prices_found"`
	UpdatedPrices   uint             `json:"updated_prices"`
	Errors          string           `json:"errors,omitempty"`
}

// NewRunResponse maps a run row to its response form
func NewRunResponse(r *schema.ScraperRun) RunResponse {
	return RunResponse{
		ID:              r.ID,
		SourceID:        r.SourceID,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Status:          r.Status,
		ProductsScraped: r.ProductsScraped,
		NewPricesFound:  r.NewPricesFound,
		UpdatedPrices:   r.UpdatedPrices,
		Errors:          r.Errors,
	}
}

// TriggerRunResponse is returned when a run is dispatched
type TriggerRunResponse struct {
	RunID string `json:"run_id"`
}

// SourceResponse represents one scraper source
type SourceResponse struct {
	ID            uint64             `json:"id"`
	RetailerID    uint64             `json:"retailer_id"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Type          domain.ScraperType `json:"type"`
	IsActive      bool               `json:"is_active"`
	LastRunStatus string             `json:"last_run_status,omitempty"`
	LastRunTime   *time.Time         `json:"last_run_time,omitempty"`
}

// NewSourceResponse maps a source row to its response form
func NewSourceResponse(s *schema.ScraperSource) SourceResponse {
	return SourceResponse{
		ID:            s.ID,
		RetailerID:    s.RetailerID,
		Name:          s.Name,
		Slug:          s.Slug,
		Type:          s.Type,
		IsActive:      s.IsActive,
		LastRunStatus: s.LastRunStatus,
		LastRunTime:   s.LastRunTime,
	}
}
