package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// Cart is the single open cart of a user. TotalCents is recomputed on every save.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	TotalCents int64      `gorm:"column:total_cents;not null;default:0"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem stores the customer's customization and the breakdown from the
// most recent reprice.
type CartItem struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CartID              uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID           uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Quantity            int                 `gorm:"column:quantity;not null"`
	Customization       types.Customization `gorm:"column:customization;type:jsonb;serializer:json"`
	UnitBasePriceCents  int64               `gorm:"column:unit_base_price_cents;not null;default:0"`
	UnitDesignCostCents int64               `gorm:"column:unit_design_cost_cents;not null;default:0"`
	UnitTotalPriceCents int64               `gorm:"column:unit_total_price_cents;not null;default:0"`
	LineTotalCents      int64               `gorm:"column:line_total_cents;not null;default:0"`
	Unavailable         bool                `gorm:"column:unavailable;not null;default:false"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Breakdown returns the persisted price breakdown.
func (i CartItem) Breakdown() pricing.PriceBreakdown {
	return pricing.PriceBreakdown{
		UnitBasePrice:  i.UnitBasePriceCents,
		UnitDesignCost: i.UnitDesignCostCents,
		UnitTotalPrice: i.UnitTotalPriceCents,
		Quantity:       i.Quantity,
		LineTotal:      i.LineTotalCents,
	}
}

// ApplyBreakdown stores a freshly computed breakdown on the line.
func (i *CartItem) ApplyBreakdown(b pricing.PriceBreakdown) {
	i.UnitBasePriceCents = b.UnitBasePrice
	i.UnitDesignCostCents = b.UnitDesignCost
	i.UnitTotalPriceCents = b.UnitTotalPrice
	i.LineTotalCents = b.LineTotal
	i.Unavailable = false
}

// MarkUnavailable zeroes the line so it contributes nothing to the cart total.
func (i *CartItem) MarkUnavailable() {
	i.UnitBasePriceCents = 0
	i.UnitDesignCostCents = 0
	i.UnitTotalPriceCents = 0
	i.LineTotalCents = 0
	i.Unavailable = true
}
