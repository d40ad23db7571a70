package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/metrics"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

type stubFinder struct {
	products map[uuid.UUID]*models.Product
	err      error
	calls    int
}

func (s *stubFinder) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := map[uuid.UUID]*models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestRepricerTotalsAndSkips(t *testing.T) {
	active := &models.Product{ID: uuid.New(), BasePriceCents: 200, IsActive: true,
		DesignAreaPrices: []models.ProductDesignAreaPrice{
			{AreaName: "back", Position: enums.DesignPositionBack, PriceCents: 25, IsActive: true},
		},
	}
	inactive := &models.Product{ID: uuid.New(), BasePriceCents: 999, IsActive: false}
	finder := &stubFinder{products: map[uuid.UUID]*models.Product{active.ID: active, inactive.ID: inactive}}

	cart := &models.Cart{Items: []models.CartItem{
		{ProductID: active.ID, Quantity: 3},
		{ProductID: active.ID, Quantity: 1, Customization: types.Customization{
			DesignSelections: []pricing.DesignSelection{{AreaName: "back", Position: enums.DesignPositionBack}},
		}},
		{ProductID: inactive.ID, Quantity: 2, UnitTotalPriceCents: 999, LineTotalCents: 1998},
		{ProductID: uuid.New(), Quantity: 1, LineTotalCents: 10},
	}}

	repricer, err := NewRepricer(pricing.DefaultCalculator(), metrics.NewPricingMetrics(nil))
	require.NoError(t, err)
	catalog, err := repricer.Reprice(context.Background(), finder, cart)
	require.NoError(t, err)

	assert.Len(t, catalog, 2)
	assert.Equal(t, int64(600), cart.Items[0].LineTotalCents)
	assert.Equal(t, int64(225), cart.Items[1].LineTotalCents)
	assert.True(t, cart.Items[2].Unavailable)
	assert.Equal(t, int64(0), cart.Items[2].LineTotalCents)
	assert.True(t, cart.Items[3].Unavailable)
	assert.Equal(t, int64(825), cart.TotalCents)
}

func TestRepricerClearsUnavailableFlagWhenProductReturns(t *testing.T) {
	p := &models.Product{ID: uuid.New(), BasePriceCents: 100, IsActive: true}
	finder := &stubFinder{products: map[uuid.UUID]*models.Product{p.ID: p}}
	cart := &models.Cart{Items: []models.CartItem{{ProductID: p.ID, Quantity: 2, Unavailable: true}}}

	repricer, err := NewRepricer(pricing.DefaultCalculator(), nil)
	require.NoError(t, err)
	_, err = repricer.Reprice(context.Background(), finder, cart)
	require.NoError(t, err)

	assert.False(t, cart.Items[0].Unavailable)
	assert.Equal(t, int64(200), cart.TotalCents)
}

func TestRepricerPropagatesLoadErrors(t *testing.T) {
	finder := &stubFinder{err: errors.New("db down")}
	repricer, err := NewRepricer(pricing.DefaultCalculator(), nil)
	require.NoError(t, err)

	_, err = repricer.Reprice(context.Background(), finder, &models.Cart{Items: []models.CartItem{{ProductID: uuid.New(), Quantity: 1}}})
	require.Error(t, err)
	assert.Equal(t, 1, finder.calls)
}

func TestNewRepricerRequiresCalculator(t *testing.T) {
	_, err := NewRepricer(nil, nil)
	assert.Error(t, err)
}
