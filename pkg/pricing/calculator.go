package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/merchforge/merchforge-backend/pkg/enums"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
)

// ErrInvalidQuantity is returned for quantities below one.
var ErrInvalidQuantity = pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1")

var hundred = decimal.NewFromInt(100)

// Policy holds the tunable pricing rules.
type Policy struct {
	// ClampNegative floors a tier-adjusted unit price at zero. When false a
	// fixed discount larger than the start price yields a negative unit price.
	ClampNegative bool
}

func DefaultPolicy() Policy {
	return Policy{ClampNegative: true}
}

// Calculator computes price breakdowns. The zero value does not clamp; use
// NewCalculator or DefaultCalculator.
type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

var defaultCalculator = NewCalculator(DefaultPolicy())

func DefaultCalculator() *Calculator {
	return defaultCalculator
}

// Calculate prices quantity units of a product customized with selections
// using the default policy.
func Calculate(cfg PricingConfig, quantity int, selections []DesignSelection) (PriceBreakdown, error) {
	return defaultCalculator.Calculate(cfg, quantity, selections)
}

func (c *Calculator) Policy() Policy {
	return c.policy
}

func (c *Calculator) Calculate(cfg PricingConfig, quantity int, selections []DesignSelection) (PriceBreakdown, error) {
	if quantity < 1 {
		return PriceBreakdown{}, ErrInvalidQuantity
	}

	unitBase := c.UnitBasePrice(cfg, quantity)
	designCost := ResolveDesignCost(cfg.DesignPrices, selections)
	unitTotal := unitBase + designCost

	return PriceBreakdown{
		UnitBasePrice:  unitBase,
		UnitDesignCost: designCost,
		UnitTotalPrice: unitTotal,
		Quantity:       quantity,
		LineTotal:      unitTotal * Money(quantity),
	}, nil
}

// UnitBasePrice applies the tier matching quantity, if any, to the start price.
func (c *Calculator) UnitBasePrice(cfg PricingConfig, quantity int) Money {
	start := cfg.StartPrice()
	tier, ok := ResolveTier(cfg.Tiers, quantity)
	if !ok {
		return start
	}

	adjusted := applyTier(start, *tier)
	if adjusted < 0 && c.policy.ClampNegative {
		return 0
	}
	return adjusted
}

func applyTier(start Money, tier TierRule) Money {
	switch tier.DiscountType {
	case enums.DiscountTypePercentage:
		factor := hundred.Sub(tier.DiscountValue)
		return decimal.NewFromInt(start).Mul(factor).Div(hundred).Round(0).IntPart()
	case enums.DiscountTypeFixed:
		return start - tier.DiscountValue.Round(0).IntPart()
	default:
		return start
	}
}
