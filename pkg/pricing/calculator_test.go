package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchforge/merchforge-backend/pkg/enums"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
)

func money(v int64) *Money { return &v }

func intPtr(v int) *int { return &v }

func percentTier(min int, max *int, value string) TierRule {
	return TierRule{
		MinQuantity:   min,
		MaxQuantity:   max,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString(value),
		Active:        true,
	}
}

func fixedTier(min int, max *int, value int64) TierRule {
	return TierRule{
		MinQuantity:   min,
		MaxQuantity:   max,
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(value),
		Active:        true,
	}
}

func TestCalculate_OfferTierAndDesignScenario(t *testing.T) {
	cfg := PricingConfig{
		BasePrice:  500,
		OfferPrice: money(450),
		Tiers:      []TierRule{percentTier(10, nil, "20")},
		DesignPrices: []DesignAreaPrice{
			{AreaName: "chest", Position: enums.DesignPositionFront, Price: 50, Active: true},
		},
	}
	selections := []DesignSelection{{AreaName: "chest", Position: enums.DesignPositionFront}}

	got, err := Calculate(cfg, 10, selections)
	require.NoError(t, err)
	assert.Equal(t, PriceBreakdown{
		UnitBasePrice:  360,
		UnitDesignCost: 50,
		UnitTotalPrice: 410,
		Quantity:       10,
		LineTotal:      4100,
	}, got)
}

func TestCalculate_BasePriceOnlyScenario(t *testing.T) {
	got, err := Calculate(PricingConfig{BasePrice: 200}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, Money(200), got.UnitBasePrice)
	assert.Equal(t, Money(0), got.UnitDesignCost)
	assert.Equal(t, Money(200), got.UnitTotalPrice)
	assert.Equal(t, Money(600), got.LineTotal)
}

func TestCalculate_TierDiscounts(t *testing.T) {
	tests := []struct {
		name     string
		tier     TierRule
		quantity int
		want     Money
	}{
		{name: "percentage in range", tier: percentTier(1, nil, "10"), quantity: 5, want: 90},
		{name: "fixed in range", tier: fixedTier(1, nil, 15), quantity: 5, want: 85},
		{name: "below min", tier: percentTier(10, nil, "10"), quantity: 9, want: 100},
		{name: "above max", tier: percentTier(1, intPtr(4), "10"), quantity: 5, want: 100},
		{name: "at max", tier: percentTier(1, intPtr(5), "10"), quantity: 5, want: 90},
		{name: "inactive", tier: TierRule{MinQuantity: 1, DiscountType: enums.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(15)}, quantity: 5, want: 100},
		{name: "unknown type leaves price", tier: TierRule{MinQuantity: 1, DiscountType: "bogo", DiscountValue: decimal.NewFromInt(15), Active: true}, quantity: 5, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := PricingConfig{BasePrice: 100, Tiers: []TierRule{tt.tier}}
			got, err := Calculate(cfg, tt.quantity, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.UnitBasePrice)
			assert.Equal(t, got.UnitTotalPrice*Money(tt.quantity), got.LineTotal)
		})
	}
}

func TestCalculate_PercentageRoundsHalfUp(t *testing.T) {
	// 999 * 0.875 = 874.125 and 333 * 0.5 = 166.5
	cfg := PricingConfig{BasePrice: 999, Tiers: []TierRule{percentTier(1, nil, "12.5")}}
	got, err := Calculate(cfg, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, Money(874), got.UnitBasePrice)

	cfg = PricingConfig{BasePrice: 333, Tiers: []TierRule{percentTier(1, nil, "50")}}
	got, err = Calculate(cfg, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, Money(167), got.UnitBasePrice)
}

func TestCalculate_NoTiersUsesStartPrice(t *testing.T) {
	got, err := Calculate(PricingConfig{BasePrice: 300, OfferPrice: money(250)}, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, Money(250), got.UnitBasePrice)

	got, err = Calculate(PricingConfig{BasePrice: 300, Tiers: []TierRule{percentTier(50, nil, "10")}}, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, Money(300), got.UnitBasePrice)
}

func TestCalculate_InvalidQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		_, err := Calculate(PricingConfig{BasePrice: 100}, qty, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidQuantity))
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))
	}
}

func TestCalculate_NegativePricePolicy(t *testing.T) {
	cfg := PricingConfig{BasePrice: 100, Tiers: []TierRule{fixedTier(1, nil, 150)}}

	clamped, err := NewCalculator(Policy{ClampNegative: true}).Calculate(cfg, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, Money(0), clamped.UnitBasePrice)
	assert.Equal(t, Money(0), clamped.LineTotal)

	legacy, err := NewCalculator(Policy{ClampNegative: false}).Calculate(cfg, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, Money(-50), legacy.UnitBasePrice)
	assert.Equal(t, Money(-100), legacy.LineTotal)

	assert.True(t, DefaultCalculator().Policy().ClampNegative)
}

func TestCalculate_Deterministic(t *testing.T) {
	cfg := PricingConfig{
		BasePrice: 1299,
		Tiers:     []TierRule{percentTier(5, nil, "7.5"), fixedTier(20, nil, 100)},
		DesignPrices: []DesignAreaPrice{
			{AreaName: "sleeve", Position: enums.DesignPositionLeft, Price: 75, Active: true},
		},
	}
	selections := []DesignSelection{{AreaName: "sleeve", Position: enums.DesignPositionLeft}}

	first, err := Calculate(cfg, 12, selections)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Calculate(cfg, 12, selections)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCalculate_LineTotalIsExactProduct(t *testing.T) {
	cfg := PricingConfig{
		BasePrice: 1999,
		Tiers: []TierRule{
			percentTier(1, intPtr(9), "3.3"),
			percentTier(10, intPtr(99), "12.75"),
			fixedTier(100, nil, 333),
		},
		DesignPrices: []DesignAreaPrice{
			{AreaName: "chest", Position: enums.DesignPositionFront, Price: 49, Active: true},
			{AreaName: "back", Position: enums.DesignPositionBack, Price: 99, Active: true},
		},
	}
	selections := []DesignSelection{
		{AreaName: "chest", Position: enums.DesignPositionFront},
		{AreaName: "back", Position: enums.DesignPositionBack},
	}
	for qty := 1; qty <= 250; qty++ {
		got, err := Calculate(cfg, qty, selections)
		require.NoError(t, err)
		require.Equal(t, got.UnitBasePrice+got.UnitDesignCost, got.UnitTotalPrice)
		require.Equal(t, got.UnitTotalPrice*Money(qty), got.LineTotal, "quantity %d", qty)
		require.Equal(t, qty, got.Quantity)
	}
}
