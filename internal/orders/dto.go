package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// OrderFilters describe the inputs supported by the order lists. UserID is
// forced to the caller for customer listings.
type OrderFilters struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID                  uuid.UUID           `json:"id"`
	OrderNumber         string              `json:"order_number"`
	UserID              uuid.UUID           `json:"user_id"`
	Status              enums.OrderStatus   `json:"status"`
	PaymentStatus       enums.PaymentStatus `json:"payment_status"`
	PaymentMethod       enums.PaymentMethod `json:"payment_method"`
	BillingAddress      types.Address       `json:"billing_address"`
	ShippingAddress     types.Address       `json:"shipping_address"`
	ScheduledDeliveryAt *time.Time          `json:"scheduled_delivery_at,omitempty"`
	Notes               *string             `json:"notes,omitempty"`
	SubtotalCents       int64               `json:"subtotal_cents"`
	TaxCents            int64               `json:"tax_cents"`
	ShippingCents       int64               `json:"shipping_cents"`
	TotalCents          int64               `json:"total_cents"`
	TotalItems          int                 `json:"total_items"`
	LineItems           []LineItemDTO       `json:"line_items"`
	DeliveredAt         *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt         *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason        *string             `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// LineItemDTO exposes the frozen breakdown of one ordered line.
type LineItemDTO struct {
	ID            uuid.UUID              `json:"id"`
	ProductID     uuid.UUID              `json:"product_id"`
	ProductName   string                 `json:"product_name"`
	ProductSKU    string                 `json:"product_sku"`
	Customization types.Customization    `json:"customization"`
	Breakdown     pricing.PriceBreakdown `json:"breakdown"`
}

func NewOrderDTO(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		UserID:              o.UserID,
		Status:              o.Status,
		PaymentStatus:       o.PaymentStatus,
		PaymentMethod:       o.PaymentMethod,
		BillingAddress:      o.BillingAddress,
		ShippingAddress:     o.ShippingAddress,
		ScheduledDeliveryAt: o.ScheduledDeliveryAt,
		Notes:               o.Notes,
		SubtotalCents:       o.SubtotalCents,
		TaxCents:            o.TaxCents,
		ShippingCents:       o.ShippingCents,
		TotalCents:          o.TotalCents,
		LineItems:           make([]LineItemDTO, 0, len(o.LineItems)),
		DeliveredAt:         o.DeliveredAt,
		CancelledAt:         o.CancelledAt,
		CancelReason:        o.CancelReason,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for _, line := range o.LineItems {
		dto.LineItems = append(dto.LineItems, LineItemDTO{
			ID:            line.ID,
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			ProductSKU:    line.ProductSKU,
			Customization: line.Customization,
			Breakdown:     line.Breakdown(),
		})
		dto.TotalItems += line.Quantity
	}
	return dto
}
