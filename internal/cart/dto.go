package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// CartDTO is the API representation of a cart.
type CartDTO struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Items      []CartItemDTO `json:"items"`
	ItemCount  int           `json:"item_count"`
	TotalCents int64         `json:"total_cents"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CartItemDTO pairs a line with the product summary it was priced against.
type CartItemDTO struct {
	ID            uuid.UUID              `json:"id"`
	ProductID     uuid.UUID              `json:"product_id"`
	ProductName   string                 `json:"product_name,omitempty"`
	ProductSKU    string                 `json:"product_sku,omitempty"`
	Quantity      int                    `json:"quantity"`
	Customization types.Customization    `json:"customization"`
	Breakdown     pricing.PriceBreakdown `json:"breakdown"`
	Unavailable   bool                   `json:"unavailable"`
}

// NewCartDTO maps the cart; catalog may be nil when product summaries are not needed.
func NewCartDTO(cart *models.Cart, catalog map[uuid.UUID]*models.Product) *CartDTO {
	dto := &CartDTO{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Items:      make([]CartItemDTO, 0, len(cart.Items)),
		TotalCents: cart.TotalCents,
		UpdatedAt:  cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := CartItemDTO{
			ID:            item.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Customization: item.Customization,
			Breakdown:     item.Breakdown(),
			Unavailable:   item.Unavailable,
		}
		if product, ok := catalog[item.ProductID]; ok {
			line.ProductName = product.Name
			line.ProductSKU = product.SKU
		}
		dto.Items = append(dto.Items, line)
		dto.ItemCount += item.Quantity
	}
	return dto
}

func emptyCart(userID uuid.UUID) *CartDTO {
	return &CartDTO{UserID: userID, Items: []CartItemDTO{}}
}
