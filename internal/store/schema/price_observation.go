package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
)

// PriceObservation represents the price_observations table - one source's
// currently-known price for one product. The composite unique index enforces
// at most one row per (product, source); upserts replace, never duplicate.
type PriceObservation struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ProductID references the observed product
	ProductID uint64 `gorm:"column:product_id;not null;uniqueIndex:idx_observations_product_source,priority:1"`
	// SourceKind discriminates retailer vs shop sources
	SourceKind domain.SourceKind `gorm:"column:source_kind;not null;type:text;uniqueIndex:idx_observations_product_source,priority:2"`
	// SourceID is the retailer or shop profile id, per SourceKind
	SourceID uint64 `gorm:"column:source_id;not null;uniqueIndex:idx_observations_product_source,priority:3"`
	// Price is the listed price, excluding shipping
	Price decimal.Decimal `gorm:"column:price;not null;type:numeric(10,2)"`
	// Currency is the ISO 4217 code the price is quoted in
	Currency string `gorm:"column:currency;not null;type:text;default:'USD'"`
	// ShippingCost is the quoted shipping cost (0 when free)
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;not null;type:numeric(8,2);default:0"`
	// FreeShipping indicates the source ships this product for free
	FreeShipping bool `gorm:"column:free_shipping;not null;default:false"`
	// Available indicates the product is currently purchasable at this source;
	// unavailable observations are kept but excluded from stat recomputes
	Available bool `gorm:"column:available;not null;default:true"`
	// StockStatus is the source's free-text stock wording, e.g. "In Stock", "5 Left"
	StockStatus string `gorm:"column:stock_status;type:text"`
	// ProductURL is the product page at the source
	ProductURL string `gorm:"column:product_url;type:text"`
	// PreviousPrice is the price before the most recent change (NULL until the
	// first change)
	PreviousPrice decimal.NullDecimal `gorm:"column:previous_price;type:numeric(10,2)"`
	// LastChecked is when this observation was last verified by a fetch
	LastChecked time.Time `gorm:"column:last_checked;not null;default:now()"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the PriceObservation model
func (PriceObservation) TableName() string {
	return "price_observations"
}

// Source rebuilds the tagged source reference for this observation
func (o *PriceObservation) Source() domain.SourceRef {
	return domain.SourceRef{Kind: o.SourceKind, ID: o.SourceID}
}
