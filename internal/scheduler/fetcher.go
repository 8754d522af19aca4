package scheduler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// FetchedItem is one product listing produced by a fetch attempt
type FetchedItem struct {
	ProductID    uint64          `json:"product_id"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	FreeShipping bool            `json:"free_shipping"`
	Available    bool            `json:"available"`
	StockStatus  string          `json:"stock_status"`
	ProductURL   string          `json:"product_url"`
}

// FetchOptions carries the per-attempt network identity drawn from the pool
type FetchOptions struct {
	// UserAgent overrides the User-Agent header when non-empty
	UserAgent string
	// UserAgentID is the pool id of the selected agent, 0 when none
	UserAgentID uint64
	// Proxy routes the attempt when non-nil
	Proxy *schema.ProxyServer
}

// Fetcher executes one fetch attempt against a source and returns the product
// listings it found. Field extraction from retailer pages lives behind this
// boundary; the scheduler only sees structured items.
//
//go:generate mockgen -source=fetcher.go -destination=../mocks/fetcher.go -package=mocks -mock_names=Fetcher=MockFetcher
type Fetcher interface {
	Fetch(ctx context.Context, source *schema.ScraperSource, opts FetchOptions) ([]FetchedItem, error)
}
