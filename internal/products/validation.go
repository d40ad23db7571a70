package product

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/merchforge/merchforge-backend/pkg/enums"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
)

var maxPercent = decimal.NewFromInt(100)

// PricingInput is the pricing portion of a product create/update payload.
type PricingInput struct {
	BasePriceCents  int64
	OfferPriceCents *int64
	Tiers           []TierInput
	DesignAreas     []DesignAreaInput
}

type TierInput struct {
	MinQuantity   int
	MaxQuantity   *int
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	IsActive      bool
}

type DesignAreaInput struct {
	AreaName   string
	Position   enums.DesignPosition
	PriceCents int64
	IsActive   bool
}

// FieldViolation describes one rejected field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidatePricing checks the shape of a pricing configuration before it is
// stored. Every violation is reported, not only the first.
func ValidatePricing(input PricingInput) error {
	var violations []FieldViolation
	add := func(field, format string, args ...any) {
		violations = append(violations, FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if input.BasePriceCents < 0 {
		add("base_price", "must be non-negative")
	}
	if input.OfferPriceCents != nil && *input.OfferPriceCents < 0 {
		add("offer_price", "must be non-negative")
	}

	for i, tier := range input.Tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if tier.MinQuantity < 1 {
			add(field+".min_quantity", "must be at least 1")
		}
		if tier.MaxQuantity != nil && *tier.MaxQuantity < tier.MinQuantity {
			add(field+".max_quantity", "must be greater than or equal to min_quantity")
		}
		if tier.DiscountValue.IsNegative() {
			add(field+".discount_value", "must be non-negative")
		}
		switch tier.DiscountType {
		case enums.DiscountTypePercentage:
			if tier.DiscountValue.GreaterThan(maxPercent) {
				add(field+".discount_value", "percentage cannot exceed 100")
			}
		case enums.DiscountTypeFixed:
			if !tier.DiscountValue.Equal(tier.DiscountValue.Truncate(0)) {
				add(field+".discount_value", "fixed discount must be a whole number of minor units")
			}
		default:
			add(field+".discount_type", "must be one of percentage, fixed")
		}
	}

	seen := make(map[string]int, len(input.DesignAreas))
	for i, area := range input.DesignAreas {
		field := fmt.Sprintf("design_areas[%d]", i)
		name := strings.TrimSpace(area.AreaName)
		if name == "" {
			add(field+".area_name", "is required")
		}
		if !area.Position.IsValid() {
			add(field+".position", "must be one of front, back, left, right, top, bottom")
		}
		if area.PriceCents < 0 {
			add(field+".price", "must be non-negative")
		}
		key := name + "|" + string(area.Position)
		if prev, ok := seen[key]; ok {
			add(field, "duplicates design_areas[%d] (%s, %s)", prev, name, area.Position)
			continue
		}
		seen[key] = i
	}

	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid pricing configuration").WithDetails(violations)
}

func validateOrderQuantityBounds(minQty int, maxQty *int) error {
	if minQty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_order_quantity must be at least 1")
	}
	if maxQty != nil && *maxQty < minQty {
		return pkgerrors.New(pkgerrors.CodeValidation, "max_order_quantity must be greater than or equal to min_order_quantity")
	}
	return nil
}
