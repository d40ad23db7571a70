package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
)

// ProductDTO is the API representation of a product and its pricing.
type ProductDTO struct {
	ID                  uuid.UUID       `json:"id"`
	CategoryID          *uuid.UUID      `json:"category_id,omitempty"`
	SKU                 string          `json:"sku"`
	Name                string          `json:"name"`
	Slug                string          `json:"slug"`
	Description         *string         `json:"description,omitempty"`
	BasePriceCents      int64           `json:"base_price_cents"`
	OfferPriceCents     *int64          `json:"offer_price_cents,omitempty"`
	EffectivePriceCents int64           `json:"effective_price_cents"`
	Tiers               []TierDTO       `json:"tiers"`
	DesignAreas         []DesignAreaDTO `json:"design_areas"`
	Stock               int             `json:"stock"`
	MinOrderQuantity    int             `json:"min_order_quantity"`
	MaxOrderQuantity    *int            `json:"max_order_quantity,omitempty"`
	IsActive            bool            `json:"is_active"`
	IsFeatured          bool            `json:"is_featured"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type TierDTO struct {
	MinQuantity   int                `json:"min_quantity"`
	MaxQuantity   *int               `json:"max_quantity,omitempty"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	IsActive      bool               `json:"is_active"`
}

type DesignAreaDTO struct {
	AreaName   string               `json:"area_name"`
	Position   enums.DesignPosition `json:"position"`
	PriceCents int64                `json:"price_cents"`
	IsActive   bool                 `json:"is_active"`
}

// QuoteResult is the response of a price calculation.
type QuoteResult struct {
	ProductID   uuid.UUID              `json:"product_id"`
	Breakdown   pricing.PriceBreakdown `json:"breakdown"`
	AppliedTier *TierDTO               `json:"applied_tier,omitempty"`
}

// NewProductDTO maps a product row with preloaded pricing to its DTO.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:                  p.ID,
		CategoryID:          p.CategoryID,
		SKU:                 p.SKU,
		Name:                p.Name,
		Slug:                p.Slug,
		Description:         p.Description,
		BasePriceCents:      p.BasePriceCents,
		OfferPriceCents:     p.OfferPriceCents,
		EffectivePriceCents: p.PricingConfig().StartPrice(),
		Tiers:               make([]TierDTO, 0, len(p.TierPrices)),
		DesignAreas:         make([]DesignAreaDTO, 0, len(p.DesignAreaPrices)),
		Stock:               p.Stock,
		MinOrderQuantity:    p.MinOrderQuantity,
		MaxOrderQuantity:    p.MaxOrderQuantity,
		IsActive:            p.IsActive,
		IsFeatured:          p.IsFeatured,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	for _, tier := range p.TierPrices {
		dto.Tiers = append(dto.Tiers, TierDTO{
			MinQuantity:   tier.MinQuantity,
			MaxQuantity:   tier.MaxQuantity,
			DiscountType:  tier.DiscountType,
			DiscountValue: tier.DiscountValue,
			IsActive:      tier.IsActive,
		})
	}
	for _, area := range p.DesignAreaPrices {
		dto.DesignAreas = append(dto.DesignAreas, DesignAreaDTO{
			AreaName:   area.AreaName,
			Position:   area.Position,
			PriceCents: area.PriceCents,
			IsActive:   area.IsActive,
		})
	}
	return dto
}

func tierDTOFromRule(rule pricing.TierRule) *TierDTO {
	return &TierDTO{
		MinQuantity:   rule.MinQuantity,
		MaxQuantity:   rule.MaxQuantity,
		DiscountType:  rule.DiscountType,
		DiscountValue: rule.DiscountValue,
		IsActive:      rule.Active,
	}
}
