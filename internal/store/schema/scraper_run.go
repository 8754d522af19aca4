package schema

import (
	"time"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
)

// ScraperRun represents the scraper_runs table - one execution attempt against
// one scraper source. A row is created at attempt start with status=failed and
// finalized exactly once at attempt end; finalized rows are never mutated.
type ScraperRun struct {
	// ID is a ULID assigned at run start (time-sortable)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// SourceID references the scraper source this run executed against
	SourceID uint64 `gorm:"column:source_id;not null;index:idx_runs_source_start,priority:1"`
	// StartTime is when the attempt was opened
	StartTime time.Time `gorm:"column:start_time;not null;default:now();index:idx_runs_source_start,priority:2,sort:desc;type:timestamptz"`
	// EndTime is set exactly once at finalization; NULL marks a run in flight
	EndTime *time.Time `gorm:"column:end_time;type:timestamptz"`
	// Status defaults to failed so a crash mid-run never reads as a success
	Status domain.RunStatus `gorm:"column:status;not null;type:text;default:'failed'"`

	// ProductsScraped counts items the fetch produced
	ProductsScraped uint `gorm:"column:products_scraped;not null;default:0"`
	// NewPricesFound counts first observations for a (product, source) pair
	NewPricesFound uint `gorm:"column:new_prices_found;not null;default:0"`
	// UpdatedPrices counts observations whose price changed
	UpdatedPrices uint `gorm:"column:updated_prices;not null;default:0"`
	// Errors aggregates free-text error lines from the attempt
	Errors string `gorm:"column:errors;type:text"`
}

// TableName specifies the table name for the ScraperRun model
func (ScraperRun) TableName() string {
	return "scraper_runs"
}

// Finalized reports whether the run has been closed
func (r *ScraperRun) Finalized() bool {
	return r.EndTime != nil
}
