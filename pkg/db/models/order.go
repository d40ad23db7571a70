package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// Order is an immutable pricing snapshot of a cart plus fulfilment state.
type Order struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber         string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID              uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status              enums.OrderStatus   `gorm:"column:status;type:text;not null"`
	PaymentStatus       enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PaymentMethod       enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	BillingAddress      types.Address       `gorm:"column:billing_address;type:jsonb;serializer:json;not null"`
	ShippingAddress     types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	ScheduledDeliveryAt *time.Time          `gorm:"column:scheduled_delivery_at"`
	Notes               *string             `gorm:"column:notes"`
	SubtotalCents       int64               `gorm:"column:subtotal_cents;not null"`
	TaxCents            int64               `gorm:"column:tax_cents;not null"`
	ShippingCents       int64               `gorm:"column:shipping_cents;not null"`
	TotalCents          int64               `gorm:"column:total_cents;not null"`
	LineItems           []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt         *time.Time          `gorm:"column:delivered_at"`
	CancelledAt         *time.Time          `gorm:"column:cancelled_at"`
	CancelReason        *string             `gorm:"column:cancel_reason"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem freezes the breakdown computed at order creation. It is never
// recomputed.
type OrderLineItem struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID             uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID           uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ProductName         string              `gorm:"column:product_name;not null"`
	ProductSKU          string              `gorm:"column:product_sku;not null"`
	Quantity            int                 `gorm:"column:quantity;not null"`
	Customization       types.Customization `gorm:"column:customization;type:jsonb;serializer:json"`
	UnitBasePriceCents  int64               `gorm:"column:unit_base_price_cents;not null"`
	UnitDesignCostCents int64               `gorm:"column:unit_design_cost_cents;not null"`
	UnitTotalPriceCents int64               `gorm:"column:unit_total_price_cents;not null"`
	LineTotalCents      int64               `gorm:"column:line_total_cents;not null"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// Breakdown returns the frozen price breakdown.
func (l OrderLineItem) Breakdown() pricing.PriceBreakdown {
	return pricing.PriceBreakdown{
		UnitBasePrice:  l.UnitBasePriceCents,
		UnitDesignCost: l.UnitDesignCostCents,
		UnitTotalPrice: l.UnitTotalPriceCents,
		Quantity:       l.Quantity,
		LineTotal:      l.LineTotalCents,
	}
}
