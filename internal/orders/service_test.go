package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/internal/address"
	"github.com/merchforge/merchforge-backend/internal/cart"
	"github.com/merchforge/merchforge-backend/internal/notifications"
	product "github.com/merchforge/merchforge-backend/internal/products"
	"github.com/merchforge/merchforge-backend/pkg/config"
	"github.com/merchforge/merchforge-backend/pkg/db"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/metrics"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

type harness struct {
	conn   *gorm.DB
	orders Service
	carts  cart.Service
}

var testPricing = config.PricingConfig{
	ClampNegative:              true,
	TaxBasisPoints:             1800,
	ShippingFlatCents:          5000,
	FreeShippingThresholdCents: 50000,
}

func setupHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{}, &models.ProductTierPrice{}, &models.ProductDesignAreaPrice{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderLineItem{},
		&models.Notification{}, &models.Address{},
	))

	client := db.NewFromConn(conn)
	calc := pricing.DefaultCalculator()
	pm := metrics.NewPricingMetrics(nil)
	products := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)

	repricer, err := cart.NewRepricer(calc, pm)
	require.NoError(t, err)
	carts, err := cart.NewService(cartRepo, client, products, repricer)
	require.NoError(t, err)

	notifier, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(Deps{
		Repo:          NewRepository(conn),
		Tx:            client,
		Carts:         cartRepo,
		Products:      products,
		Addresses:     address.NewRepository(conn),
		Calculator:    calc,
		Notifications: notifier,
		Pricing:       testPricing,
		Metrics:       pm,
	})
	require.NoError(t, err)
	return &harness{conn: conn, orders: svc, carts: carts}
}

func seedProduct(t *testing.T, conn *gorm.DB, sku string, stock int) *models.Product {
	t.Helper()
	offer := int64(450)
	p := &models.Product{
		SKU:              sku,
		Name:             "Tee " + sku,
		Slug:             "tee-" + sku,
		BasePriceCents:   500,
		OfferPriceCents:  &offer,
		Stock:            stock,
		MinOrderQuantity: 1,
		IsActive:         true,
		TierPrices: []models.ProductTierPrice{
			{MinQuantity: 10, DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(20), IsActive: true},
		},
		DesignAreaPrices: []models.ProductDesignAreaPrice{
			{AreaName: "chest", Position: enums.DesignPositionFront, PriceCents: 50, IsActive: true},
		},
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func chestPrint() *types.Customization {
	return &types.Customization{
		DesignSelections: []pricing.DesignSelection{{AreaName: "chest", Position: enums.DesignPositionFront}},
	}
}

func billing() types.Address {
	return types.Address{
		FullName:   "Asha Rao",
		Phone:      "9999999999",
		Line1:      "1 Main Road",
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
	}
}

func placeInput() CreateOrderInput {
	return CreateOrderInput{BillingAddress: billing(), PaymentMethod: enums.PaymentMethodCashOnDelivery}
}

func reloadStock(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestCreateSnapshotsCartBreakdown(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	tee := seedProduct(t, h.conn, "SNAP", 50)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 10, Customization: chestPrint()})
	require.NoError(t, err)

	order, err := h.orders.Create(ctx, userID, placeInput())
	require.NoError(t, err)

	require.Len(t, order.LineItems, 1)
	assert.Equal(t, pricing.PriceBreakdown{
		UnitBasePrice: 360, UnitDesignCost: 50, UnitTotalPrice: 410, Quantity: 10, LineTotal: 4100,
	}, order.LineItems[0].Breakdown)
	assert.Equal(t, "Tee SNAP", order.LineItems[0].ProductName)
	assert.Equal(t, int64(4100), order.SubtotalCents)
	assert.Equal(t, int64(738), order.TaxCents)
	assert.Equal(t, int64(5000), order.ShippingCents)
	assert.Equal(t, int64(9838), order.TotalCents)
	assert.Equal(t, enums.OrderStatusPlaced, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Regexp(t, `^ORD\d+[0-9A-Z]{5}$`, order.OrderNumber)
	assert.Equal(t, billing().Normalized(), order.ShippingAddress)

	assert.Equal(t, 40, reloadStock(t, h.conn, tee.ID))

	emptied, err := h.carts.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)
	assert.Zero(t, emptied.TotalCents)

	var notes []models.Notification
	require.NoError(t, h.conn.Where("user_id = ?", userID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationTypeOrderPlaced, notes[0].Type)
}

func TestSnapshotIsNotRecomputedAfterPriceChange(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	tee := seedProduct(t, h.conn, "FROZEN", 50)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 3})
	require.NoError(t, err)
	order, err := h.orders.Create(ctx, userID, placeInput())
	require.NoError(t, err)

	require.NoError(t, h.conn.Model(&models.Product{}).Where("id = ?", tee.ID).
		Updates(map[string]any{"base_price_cents": 900, "offer_price_cents": nil}).Error)

	reloaded, err := h.orders.Get(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(450), reloaded.LineItems[0].Breakdown.UnitBasePrice)
	assert.Equal(t, int64(1350), reloaded.LineItems[0].Breakdown.LineTotal)
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	live := seedProduct(t, h.conn, "LIVE", 50)
	gone := seedProduct(t, h.conn, "GONE", 50)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: live.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: gone.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, h.conn.Model(&models.Product{}).Where("id = ?", gone.ID).Update("is_active", false).Error)

	_, err = h.orders.Create(ctx, userID, placeInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductUnavailable))

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 50, reloadStock(t, h.conn, live.ID))

	current, err := h.carts.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, current.Items, 2)
}

func TestCreateRejectsInsufficientStock(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	tee := seedProduct(t, h.conn, "LOW", 5)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 5})
	require.NoError(t, err)
	require.NoError(t, h.conn.Model(&models.Product{}).Where("id = ?", tee.ID).Update("stock", 2).Error)

	_, err = h.orders.Create(ctx, userID, placeInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, 2, reloadStock(t, h.conn, tee.ID))
}

func TestCreateValidation(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := h.orders.Create(ctx, userID, placeInput())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "empty cart")

	in := placeInput()
	in.PaymentMethod = "barter"
	_, err = h.orders.Create(ctx, userID, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "payment method")

	in = placeInput()
	in.BillingAddress.City = ""
	_, err = h.orders.Create(ctx, userID, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "billing address")

	in = placeInput()
	past := time.Now().Add(-time.Hour)
	in.ScheduledDeliveryAt = &past
	_, err = h.orders.Create(ctx, userID, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "scheduled delivery")

	in = placeInput()
	missing := uuid.New()
	in.ShippingAddressID = &missing
	tee := seedProduct(t, h.conn, "ADDR", 5)
	_, err = h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = h.orders.Create(ctx, userID, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "shipping address")
}

func TestCreateUsesSavedShippingAddress(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	tee := seedProduct(t, h.conn, "SHIP", 5)

	saved := &models.Address{UserID: userID, Label: "work", FullName: "Asha Rao", Phone: "1", Line1: "2 Park St", City: "Mumbai", State: "MH", PostalCode: "400001", Country: "IN"}
	require.NoError(t, h.conn.Create(saved).Error)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 1})
	require.NoError(t, err)
	in := placeInput()
	in.ShippingAddressID = &saved.ID

	order, err := h.orders.Create(ctx, userID, in)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", order.ShippingAddress.City)
	assert.Equal(t, "Pune", order.BillingAddress.City)
}

func TestCancelRestoresStock(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	tee := seedProduct(t, h.conn, "CXL", 20)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 4})
	require.NoError(t, err)
	order, err := h.orders.Create(ctx, userID, placeInput())
	require.NoError(t, err)
	require.Equal(t, 16, reloadStock(t, h.conn, tee.ID))

	reason := " changed my mind "
	cancelled, err := h.orders.Cancel(ctx, userID, order.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "changed my mind", *cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 20, reloadStock(t, h.conn, tee.ID))

	_, err = h.orders.Cancel(ctx, userID, order.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.orders.Cancel(ctx, uuid.New(), order.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateStatusTransitions(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	tee := seedProduct(t, h.conn, "FLOW", 20)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 1})
	require.NoError(t, err)
	order, err := h.orders.Create(ctx, userID, placeInput())
	require.NoError(t, err)

	paid := enums.PaymentStatusPaid
	updated, err := h.orders.UpdateStatus(ctx, order.ID, UpdateStatusInput{Status: enums.OrderStatusShipped, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)

	_, err = h.orders.UpdateStatus(ctx, order.ID, UpdateStatusInput{Status: enums.OrderStatusConfirmed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "backwards")

	_, err = h.orders.UpdateStatus(ctx, order.ID, UpdateStatusInput{Status: enums.OrderStatusCancelled})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "cancel after ship")

	delivered, err := h.orders.UpdateStatus(ctx, order.ID, UpdateStatusInput{Status: enums.OrderStatusDelivered})
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = h.orders.UpdateStatus(ctx, order.ID, UpdateStatusInput{Status: "lost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, h.conn.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, enums.NotificationTypeOrderStatus).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestAdminCancelRefundsPaidOrder(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	tee := seedProduct(t, h.conn, "REFUND", 10)

	_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 2})
	require.NoError(t, err)
	order, err := h.orders.Create(ctx, userID, placeInput())
	require.NoError(t, err)

	paid := enums.PaymentStatusPaid
	_, err = h.orders.UpdateStatus(ctx, order.ID, UpdateStatusInput{Status: enums.OrderStatusProcessing, PaymentStatus: &paid})
	require.NoError(t, err)

	cancelled, err := h.orders.UpdateStatus(ctx, order.ID, UpdateStatusInput{Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.PaymentStatusRefunded, cancelled.PaymentStatus)
	assert.Equal(t, 10, reloadStock(t, h.conn, tee.ID))
}

func TestListScopesAndFilters(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	tee := seedProduct(t, h.conn, "LIST", 100)

	place := func(userID uuid.UUID) *OrderDTO {
		_, err := h.carts.AddItem(ctx, userID, cart.AddItemInput{ProductID: tee.ID, Quantity: 1})
		require.NoError(t, err)
		order, err := h.orders.Create(ctx, userID, placeInput())
		require.NoError(t, err)
		return order
	}
	first := place(alice)
	place(alice)
	place(alice)
	place(bob)

	_, err := h.orders.Cancel(ctx, alice, first.ID, nil)
	require.NoError(t, err)

	page, err := h.orders.List(ctx, alice, OrderFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := h.orders.List(ctx, alice, OrderFilters{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	cancelled := enums.OrderStatusCancelled
	filtered, err := h.orders.List(ctx, alice, OrderFilters{Status: &cancelled}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, first.ID, filtered.Items[0].ID)

	all, err := h.orders.AdminList(ctx, OrderFilters{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)

	_, err = h.orders.List(ctx, alice, OrderFilters{}, pagination.Params{Cursor: "!!"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int64
		cfg      config.PricingConfig
		want     Totals
	}{
		{"flat shipping", 4100, testPricing, Totals{4100, 738, 5000, 9838}},
		{"free shipping at threshold", 50000, testPricing, Totals{50000, 9000, 0, 59000}},
		{"threshold disabled", 90000, config.PricingConfig{TaxBasisPoints: 0, ShippingFlatCents: 300}, Totals{90000, 0, 300, 90300}},
		{"tax rounds half up", 25, config.PricingConfig{TaxBasisPoints: 1800}, Totals{25, 5, 0, 30}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeTotals(tc.subtotal, tc.cfg))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(enums.OrderStatusPlaced, enums.OrderStatusConfirmed))
	assert.True(t, canTransition(enums.OrderStatusPlaced, enums.OrderStatusDelivered))
	assert.True(t, canTransition(enums.OrderStatusShipped, enums.OrderStatusShipped))
	assert.False(t, canTransition(enums.OrderStatusShipped, enums.OrderStatusProcessing))
	assert.False(t, canTransition(enums.OrderStatusDelivered, enums.OrderStatusShipped))
	assert.False(t, canTransition(enums.OrderStatusCancelled, enums.OrderStatusPlaced))
}

func TestNewOrderNumber(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a, err := NewOrderNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, `^ORD1700000000123[0-9A-Z]{5}$`, a)
}
