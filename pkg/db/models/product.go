package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
)

// Product is a customizable catalog item and owns its pricing configuration.
type Product struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID       *uuid.UUID               `gorm:"column:category_id;type:uuid"`
	SKU              string                   `gorm:"column:sku;not null;uniqueIndex"`
	Name             string                   `gorm:"column:name;not null"`
	Slug             string                   `gorm:"column:slug;not null;uniqueIndex"`
	Description      *string                  `gorm:"column:description"`
	BasePriceCents   int64                    `gorm:"column:base_price_cents;not null"`
	OfferPriceCents  *int64                   `gorm:"column:offer_price_cents"`
	Stock            int                      `gorm:"column:stock;not null;default:0"`
	MinOrderQuantity int                      `gorm:"column:min_order_quantity;not null;default:1"`
	MaxOrderQuantity *int                     `gorm:"column:max_order_quantity"`
	IsActive         bool                     `gorm:"column:is_active;not null"`
	IsFeatured       bool                     `gorm:"column:is_featured;not null;default:false"`
	TierPrices       []ProductTierPrice       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	DesignAreaPrices []ProductDesignAreaPrice `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductTierPrice is one quantity tier. SortOrder preserves the order the
// tiers were submitted in, which decides ties between equal minimums.
type ProductTierPrice struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	SortOrder     int                `gorm:"column:sort_order;not null;default:0"`
	MinQuantity   int                `gorm:"column:min_quantity;not null"`
	MaxQuantity   *int               `gorm:"column:max_quantity"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,4);not null"`
	IsActive      bool               `gorm:"column:is_active;not null"`
}

// ProductDesignAreaPrice is the surcharge for customizing one area of a product.
type ProductDesignAreaPrice struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	SortOrder  int                  `gorm:"column:sort_order;not null;default:0"`
	AreaName   string               `gorm:"column:area_name;not null"`
	Position   enums.DesignPosition `gorm:"column:position;type:text;not null"`
	PriceCents int64                `gorm:"column:price_cents;not null"`
	IsActive   bool                 `gorm:"column:is_active;not null"`
}

// PricingConfig converts the stored rows into the calculator's input.
// Rows must already be ordered by SortOrder.
func (p Product) PricingConfig() pricing.PricingConfig {
	cfg := pricing.PricingConfig{
		BasePrice:    p.BasePriceCents,
		Tiers:        make([]pricing.TierRule, 0, len(p.TierPrices)),
		DesignPrices: make([]pricing.DesignAreaPrice, 0, len(p.DesignAreaPrices)),
	}
	if p.OfferPriceCents != nil {
		offer := *p.OfferPriceCents
		cfg.OfferPrice = &offer
	}
	for _, tier := range p.TierPrices {
		cfg.Tiers = append(cfg.Tiers, pricing.TierRule{
			MinQuantity:   tier.MinQuantity,
			MaxQuantity:   tier.MaxQuantity,
			DiscountType:  tier.DiscountType,
			DiscountValue: tier.DiscountValue,
			Active:        tier.IsActive,
		})
	}
	for _, area := range p.DesignAreaPrices {
		cfg.DesignPrices = append(cfg.DesignPrices, pricing.DesignAreaPrice{
			AreaName: area.AreaName,
			Position: area.Position,
			Price:    area.PriceCents,
			Active:   area.IsActive,
		})
	}
	return cfg
}
