package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/merchforge/merchforge-backend/pkg/enums"
)

// Money is an amount in minor currency units (paise, cents).
type Money = int64

// PricingConfig is the pricing surface of one product version.
type PricingConfig struct {
	BasePrice    Money             `json:"base_price"`
	OfferPrice   *Money            `json:"offer_price,omitempty"`
	Tiers        []TierRule        `json:"tiers"`
	DesignPrices []DesignAreaPrice `json:"design_prices"`
}

// StartPrice is the unit price before any tier adjustment.
func (c PricingConfig) StartPrice() Money {
	if c.OfferPrice != nil {
		return *c.OfferPrice
	}
	return c.BasePrice
}

// TierRule discounts the unit price for quantities in [MinQuantity, MaxQuantity].
// A nil MaxQuantity leaves the range open ended. DiscountValue is a percent for
// percentage tiers and an amount in minor units for fixed tiers.
type TierRule struct {
	MinQuantity   int                `json:"min_quantity"`
	MaxQuantity   *int               `json:"max_quantity,omitempty"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	Active        bool               `json:"active"`
}

// Matches reports whether the tier applies to quantity.
func (t TierRule) Matches(quantity int) bool {
	if !t.Active || quantity < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || quantity <= *t.MaxQuantity
}

// DesignAreaPrice is the per-unit surcharge for customizing one area.
type DesignAreaPrice struct {
	AreaName string               `json:"area_name"`
	Position enums.DesignPosition `json:"position"`
	Price    Money                `json:"price"`
	Active   bool                 `json:"active"`
}

// DesignSelection is a customer's choice to customize an area. Only AreaName
// and Position take part in pricing.
type DesignSelection struct {
	AreaName     string               `json:"area_name"`
	Position     enums.DesignPosition `json:"position"`
	CustomText   *string              `json:"custom_text,omitempty"`
	CustomImages []Image              `json:"custom_images,omitempty"`
}

// Image references an uploaded artwork file.
type Image struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	Key      string `json:"key,omitempty"`
}

type designKey struct {
	area     string
	position enums.DesignPosition
}

// PriceBreakdown is the decomposition of one line's cost.
type PriceBreakdown struct {
	UnitBasePrice  Money `json:"unit_base_price"`
	UnitDesignCost Money `json:"unit_design_cost"`
	UnitTotalPrice Money `json:"unit_total_price"`
	Quantity       int   `json:"quantity"`
	LineTotal      Money `json:"line_total"`
}
