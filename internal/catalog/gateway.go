package catalog

import (
	"context"
	"fmt"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// Gateway is the reconciliation engine's view of the product catalog. It
// resolves products and price sources and surfaces not-found conditions as
// domain errors.
//
//go:generate mockgen -source=gateway.go -destination=../mocks/catalog.go -package=mocks -mock_names=Gateway=MockCatalogGateway
type Gateway interface {
	// GetProduct returns a product or domain.ErrProductNotFound
	GetProduct(ctx context.Context, id uint64) (*schema.Product, error)
	// ResolveSource verifies the referenced retailer or shop profile exists,
	// returning domain.ErrSourceNotFound when it does not
	ResolveSource(ctx context.Context, ref domain.SourceRef) error
}

type storeGateway struct {
	store store.Store
}

// NewGateway builds a catalog gateway backed by the store
func NewGateway(s store.Store) Gateway {
	return &storeGateway{store: s}
}

func (g *storeGateway) GetProduct(ctx context.Context, id uint64) (*schema.Product, error) {
	product, err := g.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (g *storeGateway) ResolveSource(ctx context.Context, ref domain.SourceRef) error {
	switch ref.Kind {
	case domain.SourceKindRetailer:
		retailer, err := g.store.GetRetailerByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		if retailer == nil {
			return domain.ErrSourceNotFound
		}
		return nil
	case domain.SourceKindShop:
		profile, err := g.store.GetShopProfileByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		if profile == nil {
			return domain.ErrSourceNotFound
		}
		return nil
	default:
		return domain.NewValidationError("source", fmt.Sprintf("unknown source kind %q", ref.Kind))
	}
}
