package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/internal/cart"
	"github.com/merchforge/merchforge-backend/internal/notifications"
	product "github.com/merchforge/merchforge-backend/internal/products"
	"github.com/merchforge/merchforge-backend/pkg/config"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/metrics"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// Service defines order placement and lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, filters OrderFilters, params pagination.Params) (*pagination.Page[OrderDTO], error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, reason *string) (*OrderDTO, error)
	AdminList(ctx context.Context, filters OrderFilters, params pagination.Params) (*pagination.Page[OrderDTO], error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
}

// CreateOrderInput carries checkout details. ShippingAddressID selects a saved
// address and wins over ShippingAddress; with neither, billing is reused.
type CreateOrderInput struct {
	BillingAddress      types.Address
	ShippingAddress     *types.Address
	ShippingAddressID   *uuid.UUID
	PaymentMethod       enums.PaymentMethod
	ScheduledDeliveryAt *time.Time
	Notes               *string
}

// UpdateStatusInput is the admin transition request.
type UpdateStatusInput struct {
	Status        enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Reason        *string
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Repo          Repository
	Tx            txRunner
	Carts         cart.CartRepository
	Products      *product.Repository
	Addresses     addressLoader
	Calculator    *pricing.Calculator
	Notifications notifier
	Pricing       config.PricingConfig
	Metrics       *metrics.PricingMetrics
}

type service struct {
	repo          Repository
	tx            txRunner
	carts         cart.CartRepository
	products      *product.Repository
	addresses     addressLoader
	calculator    *pricing.Calculator
	notifications notifier
	pricing       config.PricingConfig
	metrics       *metrics.PricingMetrics
	now           func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address loader required")
	}
	if deps.Calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if deps.Notifications == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:          deps.Repo,
		tx:            deps.Tx,
		carts:         deps.Carts,
		products:      deps.Products,
		addresses:     deps.Addresses,
		calculator:    deps.Calculator,
		notifications: deps.Notifications,
		pricing:       deps.Pricing,
		metrics:       deps.Metrics,
		now:           time.Now,
	}, nil
}

// Create snapshots the user's cart into an order. Every line is repriced one
// last time; a missing or inactive product rejects the whole order. Stock is
// decremented and the cart cleared in the same transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	billing := input.BillingAddress.Normalized()
	if missing := billing.MissingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if input.ScheduledDeliveryAt != nil && input.ScheduledDeliveryAt.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled delivery must be in the future")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shipping, err := s.resolveShipping(ctx, userID, billing, input)
		if err != nil {
			return err
		}

		carts := s.carts.WithTx(tx)
		userCart, err := carts.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		products := s.products.WithTx(tx)
		catalog, err := products.LockByIDs(ctx, cartProductIDs(userCart.Items))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
		}

		lines, err := s.snapshotLines(userCart.Items, catalog)
		if err != nil {
			return err
		}
		if err := checkStock(userCart.Items, catalog); err != nil {
			s.metrics.IncOrderRejected("insufficient_stock")
			return err
		}

		number, err := NewOrderNumber(s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}

		var subtotal int64
		for _, line := range lines {
			subtotal += line.LineTotalCents
		}
		totals := ComputeTotals(subtotal, s.pricing)

		order := &models.Order{
			OrderNumber:         number,
			UserID:              userID,
			Status:              enums.OrderStatusPlaced,
			PaymentStatus:       enums.PaymentStatusPending,
			PaymentMethod:       input.PaymentMethod,
			BillingAddress:      billing,
			ShippingAddress:     shipping,
			ScheduledDeliveryAt: input.ScheduledDeliveryAt,
			Notes:               trimmedOrNil(input.Notes),
			SubtotalCents:       totals.SubtotalCents,
			TaxCents:            totals.TaxCents,
			ShippingCents:       totals.ShippingCents,
			TotalCents:          totals.TotalCents,
			LineItems:           lines,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		demand := demandByProduct(userCart.Items)
		for _, productID := range sortedIDs(demand) {
			ok, err := products.DecrementStock(ctx, productID, demand[productID])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				s.metrics.IncOrderRejected("insufficient_stock")
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]any{"product_id": productID})
			}
		}

		if err := carts.DeleteItems(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		userCart.Items = nil
		userCart.TotalCents = 0
		if err := carts.SaveCart(ctx, userCart); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
		}

		if err := s.notifications.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  userID,
			Type:    enums.NotificationTypeOrderPlaced,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order %s has been placed.", order.OrderNumber),
			OrderID: &order.ID,
		}); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.metrics.IncOrderSnapshot()
	return NewOrderDTO(created), nil
}

func (s *service) resolveShipping(ctx context.Context, userID uuid.UUID, billing types.Address, input CreateOrderInput) (types.Address, error) {
	if input.ShippingAddressID != nil {
		saved, err := s.addresses.FindForUser(ctx, userID, *input.ShippingAddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.Address{}, pkgerrors.New(pkgerrors.CodeNotFound, "shipping address not found")
			}
			return types.Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping address")
		}
		return saved.Snapshot(), nil
	}
	if input.ShippingAddress == nil {
		return billing, nil
	}
	shipping := input.ShippingAddress.Normalized()
	if missing := shipping.MissingFields(); len(missing) > 0 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return shipping, nil
}

// snapshotLines prices every cart line against the locked products and
// freezes the result into order line items.
func (s *service) snapshotLines(items []models.CartItem, catalog map[uuid.UUID]*models.Product) ([]models.OrderLineItem, error) {
	lines := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		prod, ok := catalog[item.ProductID]
		if !ok || !prod.IsActive {
			s.metrics.IncOrderRejected("product_unavailable")
			return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "a product in the cart is no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		breakdown, err := s.calculator.Calculate(prod.PricingConfig(), item.Quantity, item.Customization.DesignSelections)
		if err != nil {
			s.metrics.IncFailure(metrics.SourceOrder)
			return nil, err
		}
		s.metrics.IncCalculation(metrics.SourceOrder)
		lines = append(lines, models.OrderLineItem{
			ProductID:           prod.ID,
			ProductName:         prod.Name,
			ProductSKU:          prod.SKU,
			Quantity:            breakdown.Quantity,
			Customization:       item.Customization,
			UnitBasePriceCents:  breakdown.UnitBasePrice,
			UnitDesignCostCents: breakdown.UnitDesignCost,
			UnitTotalPriceCents: breakdown.UnitTotalPrice,
			LineTotalCents:      breakdown.LineTotal,
		})
	}
	return lines, nil
}

func checkStock(items []models.CartItem, catalog map[uuid.UUID]*models.Product) error {
	for productID, qty := range demandByProduct(items) {
		prod := catalog[productID]
		if prod.Stock < qty {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": productID,
					"available":  prod.Stock,
					"requested":  qty,
				})
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filters OrderFilters, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	filters.UserID = &userID
	return s.list(ctx, filters, params)
}

func (s *service) AdminList(ctx context.Context, filters OrderFilters, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	return s.list(ctx, filters, params)
}

func (s *service) list(ctx context.Context, filters OrderFilters, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateTo.Before(*filters.DateFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date_to must not be before date_from")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := pagination.Map(page, func(o models.Order) OrderDTO {
		return *NewOrderDTO(&o)
	})
	return &out, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return NewOrderDTO(order), nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return NewOrderDTO(order), nil
}

// Cancel lets a customer cancel an order that has not started processing.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason *string) (*OrderDTO, error) {
	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUser(ctx, orderID, userID)
		if err != nil {
			return mapLoadError(err)
		}
		if !order.Status.Cancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}
		if err := s.cancel(ctx, tx, order, reason); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return NewOrderDTO(out), nil
}

// UpdateStatus moves an order forward through fulfilment. Cancellation is
// allowed until the order ships.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}

		if input.Status == enums.OrderStatusCancelled {
			if !adminCancellable(order.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
					WithDetails(map[string]any{"status": order.Status})
			}
			if err := s.cancel(ctx, tx, order, input.Reason); err != nil {
				return err
			}
			out = order
			return nil
		}

		if !canTransition(order.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": input.Status})
		}

		updates := map[string]any{}
		if input.Status != order.Status {
			updates["status"] = input.Status
			order.Status = input.Status
			if input.Status == enums.OrderStatusDelivered {
				now := s.now().UTC()
				updates["delivered_at"] = now
				order.DeliveredAt = &now
			}
		}
		if input.PaymentStatus != nil && *input.PaymentStatus != order.PaymentStatus {
			updates["payment_status"] = *input.PaymentStatus
			order.PaymentStatus = *input.PaymentStatus
		}
		if len(updates) == 0 {
			out = order
			return nil
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if _, changed := updates["status"]; changed {
			if err := s.notifications.Notify(ctx, tx, notifications.NotifyInput{
				UserID:  order.UserID,
				Type:    enums.NotificationTypeOrderStatus,
				Title:   "Order updated",
				Message: fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, order.Status),
				OrderID: &order.ID,
			}); err != nil {
				return err
			}
		}
		out = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return NewOrderDTO(out), nil
}

// cancel marks the order cancelled, returns its stock and notifies the owner.
func (s *service) cancel(ctx context.Context, tx *gorm.DB, order *models.Order, reason *string) error {
	now := s.now().UTC()
	updates := map[string]any{
		"status":       enums.OrderStatusCancelled,
		"cancelled_at": now,
	}
	reason = trimmedOrNil(reason)
	if reason != nil {
		updates["cancel_reason"] = *reason
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		updates["payment_status"] = enums.PaymentStatusRefunded
		order.PaymentStatus = enums.PaymentStatusRefunded
	}
	if err := s.repo.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	demand := map[uuid.UUID]int{}
	for _, line := range order.LineItems {
		demand[line.ProductID] += line.Quantity
	}
	products := s.products.WithTx(tx)
	for _, productID := range sortedIDs(demand) {
		if err := products.IncrementStock(ctx, productID, demand[productID]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelReason = reason

	return s.notifications.Notify(ctx, tx, notifications.NotifyInput{
		UserID:  order.UserID,
		Type:    enums.NotificationTypeOrderCancelled,
		Title:   "Order cancelled",
		Message: fmt.Sprintf("Your order %s has been cancelled.", order.OrderNumber),
		OrderID: &order.ID,
	})
}

var statusRank = map[enums.OrderStatus]int{
	enums.OrderStatusPlaced:     0,
	enums.OrderStatusConfirmed:  1,
	enums.OrderStatusProcessing: 2,
	enums.OrderStatusShipped:    3,
	enums.OrderStatusDelivered:  4,
}

// canTransition allows staying put or moving forward. Cancelled and
// delivered orders are terminal.
func canTransition(from, to enums.OrderStatus) bool {
	if from == enums.OrderStatusCancelled || from == enums.OrderStatusDelivered {
		return from == to
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

func adminCancellable(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPlaced, enums.OrderStatusConfirmed, enums.OrderStatusProcessing:
		return true
	default:
		return false
	}
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func cartProductIDs(items []models.CartItem) []uuid.UUID {
	return sortedIDs(demandByProduct(items))
}

func demandByProduct(items []models.CartItem) map[uuid.UUID]int {
	demand := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		demand[item.ProductID] += item.Quantity
	}
	return demand
}

// sortedIDs gives stock writes a stable order so concurrent orders lock rows
// in the same sequence.
func sortedIDs(m map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
