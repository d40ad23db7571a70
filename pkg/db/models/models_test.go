package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

func setupModelsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&Product{}, &ProductTierPrice{}, &ProductDesignAreaPrice{},
		&Cart{}, &CartItem{}, &Order{}, &OrderLineItem{},
	))
	return db
}

func TestProductPricingConfigPreservesRows(t *testing.T) {
	offer := int64(450)
	product := Product{
		BasePriceCents:  500,
		OfferPriceCents: &offer,
		TierPrices: []ProductTierPrice{
			{MinQuantity: 10, DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(20), IsActive: true},
		},
		DesignAreaPrices: []ProductDesignAreaPrice{
			{AreaName: "chest", Position: enums.DesignPositionFront, PriceCents: 50, IsActive: true},
		},
	}

	cfg := product.PricingConfig()
	require.NotNil(t, cfg.OfferPrice)
	assert.Equal(t, int64(450), *cfg.OfferPrice)
	*cfg.OfferPrice = 1
	assert.Equal(t, int64(450), *product.OfferPriceCents)
	require.Len(t, cfg.Tiers, 1)
	assert.True(t, cfg.Tiers[0].Active)
	require.Len(t, cfg.DesignPrices, 1)
	assert.Equal(t, int64(50), cfg.DesignPrices[0].Price)
}

func TestBreakdownRoundTripsThroughCartAndOrder(t *testing.T) {
	db := setupModelsDB(t)

	offer := int64(450)
	product := Product{
		SKU: "TEE-1", Name: "Tee", Slug: "tee", BasePriceCents: 500, OfferPriceCents: &offer, MinOrderQuantity: 1, IsActive: true,
		TierPrices: []ProductTierPrice{
			{MinQuantity: 10, DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.RequireFromString("20"), IsActive: true},
		},
		DesignAreaPrices: []ProductDesignAreaPrice{
			{AreaName: "chest", Position: enums.DesignPositionFront, PriceCents: 50, IsActive: true},
		},
	}
	require.NoError(t, db.Create(&product).Error)

	var loaded Product
	require.NoError(t, db.Preload("TierPrices").Preload("DesignAreaPrices").First(&loaded, "id = ?", product.ID).Error)
	assert.True(t, loaded.TierPrices[0].DiscountValue.Equal(decimal.NewFromInt(20)))

	selections := []pricing.DesignSelection{{AreaName: "chest", Position: enums.DesignPositionFront}}
	breakdown, err := pricing.Calculate(loaded.PricingConfig(), 10, selections)
	require.NoError(t, err)
	assert.Equal(t, pricing.PriceBreakdown{UnitBasePrice: 360, UnitDesignCost: 50, UnitTotalPrice: 410, Quantity: 10, LineTotal: 4100}, breakdown)

	cart := Cart{UserID: uuid.New()}
	require.NoError(t, db.Create(&cart).Error)
	item := CartItem{
		CartID:        cart.ID,
		ProductID:     product.ID,
		Quantity:      10,
		Customization: types.Customization{DesignSelections: selections},
	}
	item.ApplyBreakdown(breakdown)
	require.NoError(t, db.Create(&item).Error)

	var reloadedItem CartItem
	require.NoError(t, db.First(&reloadedItem, "id = ?", item.ID).Error)
	assert.Equal(t, breakdown, reloadedItem.Breakdown())
	require.Len(t, reloadedItem.Customization.DesignSelections, 1)
	assert.Equal(t, "chest", reloadedItem.Customization.DesignSelections[0].AreaName)

	order := Order{
		OrderNumber:   "ORD1",
		UserID:        cart.UserID,
		Status:        enums.OrderStatusPlaced,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		LineItems: []OrderLineItem{{
			ProductID:           product.ID,
			ProductName:         product.Name,
			ProductSKU:          product.SKU,
			Quantity:            reloadedItem.Quantity,
			Customization:       reloadedItem.Customization,
			UnitBasePriceCents:  reloadedItem.UnitBasePriceCents,
			UnitDesignCostCents: reloadedItem.UnitDesignCostCents,
			UnitTotalPriceCents: reloadedItem.UnitTotalPriceCents,
			LineTotalCents:      reloadedItem.LineTotalCents,
		}},
		SubtotalCents: reloadedItem.LineTotalCents,
		TotalCents:    reloadedItem.LineTotalCents,
	}
	require.NoError(t, db.Create(&order).Error)

	var reloadedOrder Order
	require.NoError(t, db.Preload("LineItems").First(&reloadedOrder, "id = ?", order.ID).Error)
	require.Len(t, reloadedOrder.LineItems, 1)
	assert.Equal(t, breakdown, reloadedOrder.LineItems[0].Breakdown())
	assert.Equal(t, int64(4100), reloadedOrder.SubtotalCents)
}

func TestCartItemMarkUnavailableZeroesBreakdown(t *testing.T) {
	item := CartItem{Quantity: 3}
	item.ApplyBreakdown(pricing.PriceBreakdown{UnitBasePrice: 10, UnitTotalPrice: 10, Quantity: 3, LineTotal: 30})
	item.MarkUnavailable()
	assert.True(t, item.Unavailable)
	assert.Equal(t, pricing.PriceBreakdown{Quantity: 3}, item.Breakdown())
}

func TestAddressSnapshot(t *testing.T) {
	addr := Address{FullName: "Asha", Line1: "1 Main", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"}
	snap := addr.Snapshot()
	assert.Equal(t, "Asha", snap.FullName)
	assert.Empty(t, snap.MissingFields())
}
