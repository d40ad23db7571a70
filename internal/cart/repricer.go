package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/metrics"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
)

// Repricer recomputes every line of a cart against current product pricing.
type Repricer struct {
	calculator *pricing.Calculator
	metrics    *metrics.PricingMetrics
}

func NewRepricer(calculator *pricing.Calculator, pricingMetrics *metrics.PricingMetrics) (*Repricer, error) {
	if calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	return &Repricer{calculator: calculator, metrics: pricingMetrics}, nil
}

// Reprice updates each line's breakdown and the cart total in place. Lines
// whose product is missing or inactive are zeroed and flagged unavailable.
// It returns the products it loaded, keyed by ID.
func (r *Repricer) Reprice(ctx context.Context, products ProductFinder, cart *models.Cart) (map[uuid.UUID]*models.Product, error) {
	ids := lo.Uniq(lo.Map(cart.Items, func(item models.CartItem, _ int) uuid.UUID {
		return item.ProductID
	}))
	catalog, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	repriced, skipped := 0, 0
	for i := range cart.Items {
		item := &cart.Items[i]
		product, ok := catalog[item.ProductID]
		if !ok || !product.IsActive {
			item.MarkUnavailable()
			skipped++
			continue
		}
		breakdown, err := r.calculator.Calculate(product.PricingConfig(), item.Quantity, item.Customization.DesignSelections)
		if err != nil {
			r.metrics.IncFailure(metrics.SourceCart)
			return nil, err
		}
		item.ApplyBreakdown(breakdown)
		repriced++
	}

	cart.TotalCents = lo.SumBy(cart.Items, func(item models.CartItem) int64 {
		return item.LineTotalCents
	})
	r.metrics.ObserveCartSave(repriced, skipped)
	return catalog, nil
}
