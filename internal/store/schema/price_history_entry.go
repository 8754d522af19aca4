package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
)

// PriceHistoryEntry represents the price_history table - an append-only record
// written exactly once per observed price change. Rows are never mutated;
// the only deletion path is the retention sweep.
type PriceHistoryEntry struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ProductID references the product whose price changed
	ProductID uint64 `gorm:"column:product_id;not null;index:idx_history_product_ts,priority:1"`
	// SourceKind discriminates retailer vs shop sources
	SourceKind domain.SourceKind `gorm:"column:source_kind;not null;type:text"`
	// SourceID is the retailer or shop profile id, per SourceKind
	SourceID uint64 `gorm:"column:source_id;not null"`
	// Price is the newly observed price
	Price decimal.Decimal `gorm:"column:price;not null;type:numeric(10,2)"`
	// Currency is the ISO 4217 code the price is quoted in
	Currency string `gorm:"column:currency;not null;type:text;default:'USD'"`
	// Timestamp is when the change was observed
	Timestamp time.Time `gorm:"column:timestamp;not null;default:now();index:idx_history_product_ts,priority:2,sort:desc;type:timestamptz"`
}

// TableName specifies the table name for the PriceHistoryEntry model
func (PriceHistoryEntry) TableName() string {
	return "price_history"
}

// Source rebuilds the tagged source reference for this entry
func (e *PriceHistoryEntry) Source() domain.SourceRef {
	return domain.SourceRef{Kind: e.SourceKind, ID: e.SourceID}
}
