package schema

import "time"

// Retailer represents the retailers table - major retailers whose prices are tracked
type Retailer struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Name    string `gorm:"column:name;not null;type:text"`
	Slug    string `gorm:"column:slug;not null;uniqueIndex;type:text"`
	Website string `gorm:"column:website;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Retailer model
func (Retailer) TableName() string {
	return "retailers"
}

// ShopProfile represents the shop_profiles table - small/independent retailers
// that list their own prices instead of being scraped at scale
type ShopProfile struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	BusinessName string `gorm:"column:business_name;not null;type:text"`
	Slug         string `gorm:"column:slug;not null;uniqueIndex;type:text"`
	Website      string `gorm:"column:website;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the ShopProfile model
func (ShopProfile) TableName() string {
	return "shop_profiles"
}
