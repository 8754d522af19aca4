package messaging

import (
	"context"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
)

// Publisher defines the interface for publishing price-change events to the
// message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishPriceChange publishes a price-change event
	PublishPriceChange(ctx context.Context, event *domain.PriceChangeEvent) error
	// Close closes the connection
	Close()
}
