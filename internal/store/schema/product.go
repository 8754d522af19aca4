package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents the products table - the entity whose prices are compared.
// The three derived price columns are advisory caches maintained by the
// reconciliation engine; NULL means "no available observation", never zero.
type Product struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Name is the human-readable product name
	Name string `gorm:"column:name;not null;type:text"`
	// Slug is the unique URL-safe identifier
	Slug string `gorm:"column:slug;not null;uniqueIndex;type:text"`
	// Description is free-text product copy
	Description string `gorm:"column:description;type:text"`
	// LowestPrice is the lowest currently-available listed price
	LowestPrice decimal.NullDecimal `gorm:"column:lowest_price;type:numeric(10,2)"`
	// HighestPrice is the highest currently-available listed price
	HighestPrice decimal.NullDecimal `gorm:"column:highest_price;type:numeric(10,2)"`
	// AveragePrice is the arithmetic mean of currently-available listed prices,
	// rounded half-up to 2 decimal places
	AveragePrice decimal.NullDecimal `gorm:"column:average_price;type:numeric(10,2)"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Observations []PriceObservation  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	History      []PriceHistoryEntry `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
