package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
)

// ScraperSource represents the scraper_sources table - operator-managed
// configuration for one retailer's ingestion method. The engine treats rows
// as read-only at run time except for LastRunStatus/LastRunTime.
type ScraperSource struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// RetailerID references the retailer this source scrapes
	RetailerID uint64 `gorm:"column:retailer_id;not null;uniqueIndex"`
	// Name is the operator-facing source name
	Name string `gorm:"column:name;not null;type:text"`
	// Slug is the unique URL-safe identifier
	Slug string `gorm:"column:slug;not null;uniqueIndex;type:text"`
	// Type selects the ingestion method (html, api, browser)
	Type domain.ScraperType `gorm:"column:type;not null;type:text"`

	// BaseURL is the root of the retailer's site
	BaseURL string `gorm:"column:base_url;type:text"`
	// ProductURLPattern is the product page template ({product_id} placeholder)
	ProductURLPattern string `gorm:"column:product_url_pattern;type:text"`
	// SearchURLPattern is the search results template ({query} placeholder)
	SearchURLPattern string `gorm:"column:search_url_pattern;type:text"`
	// Selectors holds field-extraction rules as JSON, opaque to the engine
	Selectors datatypes.JSON `gorm:"column:selectors;type:jsonb"`

	// APIEndpoint and friends configure sources of type "api"
	APIEndpoint string         `gorm:"column:api_endpoint;type:text"`
	APIKey      string         `gorm:"column:api_key;type:text"`
	APIParams   datatypes.JSON `gorm:"column:api_params;type:jsonb"`

	// RequestDelay is the minimum delay between requests, in seconds. It doubles
	// as the base of the retry backoff curve.
	RequestDelay float64 `gorm:"column:request_delay;not null;default:1.0"`
	// RequestTimeout bounds a single fetch attempt, in seconds, independent of
	// RequestDelay
	RequestTimeout float64 `gorm:"column:request_timeout;not null;default:30.0"`
	// MaxRetries caps fetch retries before a run finalizes as failed
	MaxRetries uint `gorm:"column:max_retries;not null;default:3"`

	// RotateUserAgents draws user agents from the identity pool per attempt
	RotateUserAgents bool `gorm:"column:rotate_user_agents;not null;default:false"`
	// UseProxy draws proxies from the identity pool per attempt
	UseProxy bool `gorm:"column:use_proxy;not null;default:false"`

	// IsActive gates scheduling; inactive sources never run
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// LastRunStatus is the status of the most recent finalized run
	LastRunStatus string `gorm:"column:last_run_status;type:text"`
	// LastRunTime is when the most recent run started
	LastRunTime *time.Time `gorm:"column:last_run_time"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Runs []ScraperRun `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the ScraperSource model
func (ScraperSource) TableName() string {
	return "scraper_sources"
}

// Delay returns RequestDelay as a duration
func (s *ScraperSource) Delay() time.Duration {
	return time.Duration(s.RequestDelay * float64(time.Second))
}

// Timeout returns RequestTimeout as a duration
func (s *ScraperSource) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout * float64(time.Second))
}
