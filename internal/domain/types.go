package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind discriminates the two kinds of price source
type SourceKind string

const (
	// SourceKindRetailer identifies a major retailer
	SourceKindRetailer SourceKind = "retailer"
	// SourceKindShop identifies a small/independent retailer profile
	SourceKindShop SourceKind = "shop"
)

// SourceRef identifies where a price observation comes from: exactly one of a
// retailer or a small-retailer shop profile. The tagged form makes the
// both-set/neither-set states unrepresentable.
type SourceRef struct {
	Kind SourceKind
	ID   uint64
}

// RetailerSource builds a reference to a major retailer
func RetailerSource(id uint64) SourceRef {
	return SourceRef{Kind: SourceKindRetailer, ID: id}
}

// ShopSource builds a reference to a small-retailer shop profile
func ShopSource(id uint64) SourceRef {
	return SourceRef{Kind: SourceKindShop, ID: id}
}

// Validate checks the reference carries a known kind and a non-zero id
func (s SourceRef) Validate() error {
	switch s.Kind {
	case SourceKindRetailer, SourceKindShop:
	default:
		return NewValidationError("source", fmt.Sprintf("unknown source kind %q", s.Kind))
	}
	if s.ID == 0 {
		return NewValidationError("source", "missing source id")
	}
	return nil
}

// String renders the reference as kind:id, e.g. "retailer:42"
func (s SourceRef) String() string {
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// RunStatus is the terminal (or default) status of a scraper run
type RunStatus string

const (
	// RunStatusSuccess means every expected item was ingested
	RunStatusSuccess RunStatus = "success"
	// RunStatusPartial means some but not all items were ingested; partial
	// results stay committed
	RunStatusPartial RunStatus = "partial"
	// RunStatusFailed means the attempt produced nothing usable. Runs default
	// to failed until proven otherwise so a crash mid-run is never recorded
	// as a success.
	RunStatusFailed RunStatus = "failed"
)

// ScraperType is the ingestion method configured for a source
type ScraperType string

const (
	// ScraperTypeHTML scrapes server-rendered markup
	ScraperTypeHTML ScraperType = "html"
	// ScraperTypeAPI calls a retailer API
	ScraperTypeAPI ScraperType = "api"
	// ScraperTypeBrowser drives a headless browser
	ScraperTypeBrowser ScraperType = "browser"
)

// ProxyProtocol is the protocol of a proxy server in the identity pool
type ProxyProtocol string

const (
	ProxyProtocolHTTP   ProxyProtocol = "http"
	ProxyProtocolHTTPS  ProxyProtocol = "https"
	ProxyProtocolSOCKS4 ProxyProtocol = "socks4"
	ProxyProtocolSOCKS5 ProxyProtocol = "socks5"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ObservationInput is one retailer's freshly fetched price for one product,
// as handed to the reconciliation engine
type ObservationInput struct {
	ProductID    uint64
	Source       SourceRef
	Price        decimal.Decimal
	Currency     string
	ShippingCost decimal.Decimal
	FreeShipping bool
	Available    bool
	StockStatus  string
	ProductURL   string
	ObservedAt   time.Time
}

// Validate rejects malformed input before it can reach the store
func (o ObservationInput) Validate() error {
	if o.ProductID == 0 {
		return NewValidationError("product_id", "missing product id")
	}
	if err := o.Source.Validate(); err != nil {
		return err
	}
	if o.Price.IsNegative() {
		return NewValidationError("price", "price must not be negative")
	}
	if o.ShippingCost.IsNegative() {
		return NewValidationError("shipping_cost", "shipping cost must not be negative")
	}
	if !currencyPattern.MatchString(o.Currency) {
		return NewValidationError("currency", fmt.Sprintf("%q is not an ISO 4217 code", o.Currency))
	}
	return nil
}

// ProductStats are the derived lowest/highest/average prices of a product.
// They are advisory caches recomputed from currently-available observations;
// nil pointers mean no available observation exists (distinct from zero).
type ProductStats struct {
	LowestPrice  *decimal.Decimal
	HighestPrice *decimal.Decimal
	AveragePrice *decimal.Decimal
}

// Empty reports whether the stats carry no values
func (s ProductStats) Empty() bool {
	return s.LowestPrice == nil && s.HighestPrice == nil && s.AveragePrice == nil
}

// PriceChangeEvent is published whenever a source's price for a product
// changes (including the first observation)
type PriceChangeEvent struct {
	EventID       string           `json:"event_id"`
	ProductID     uint64           `json:"product_id"`
	ProductSlug   string           `json:"product_slug"`
	Source        string           `json:"source"`
	PreviousPrice *decimal.Decimal `json:"previous_price,omitempty"`
	NewPrice      decimal.Decimal  `json:"new_price"`
	Currency      string           `json:"currency"`
	Timestamp     time.Time        `json:"timestamp"`
}
