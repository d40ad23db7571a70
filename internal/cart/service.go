package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/merchforge/merchforge-backend/internal/products"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// Service exposes cart mutations. Every mutation reprices the whole cart
// before it is saved.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	ListCarts(ctx context.Context, params pagination.Params) (*pagination.Page[CartDTO], error)
}

// AddItemInput adds quantity units of a product. A nil Customization keeps
// the customization of an existing line for the same product.
type AddItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	Customization *types.Customization
}

// UpdateItemInput changes the quantity and/or customization of a line.
type UpdateItemInput struct {
	Quantity      *int
	Customization *types.Customization
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products *product.Repository
	repricer *Repricer
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products *product.Repository, repricer *Repricer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if repricer == nil {
		return nil, fmt.Errorf("repricer required")
	}
	return &service{repo: repo, tx: tx, products: products, repricer: repricer}, nil
}

// GetCart returns the stored cart, or an empty one when the user has none.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	catalog, err := s.products.FindByIDs(ctx, productIDs(cart.Items))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	return NewCartDTO(cart, catalog), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pricing.ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, true, func(ctx context.Context, repo CartRepository, products *product.Repository, cart *models.Cart) error {
		prod, err := loadSellable(ctx, products, input.ProductID)
		if err != nil {
			return err
		}

		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ProductID != input.ProductID {
				continue
			}
			merged := item.Quantity + input.Quantity
			if err := checkQuantity(prod, merged); err != nil {
				return err
			}
			item.Quantity = merged
			if input.Customization != nil {
				item.Customization = *input.Customization
			}
			return nil
		}

		if err := checkQuantity(prod, input.Quantity); err != nil {
			return err
		}
		item := models.CartItem{
			CartID:    cart.ID,
			ProductID: prod.ID,
			Quantity:  input.Quantity,
		}
		if input.Customization != nil {
			item.Customization = *input.Customization
		}
		if err := repo.CreateItem(ctx, &item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
		}
		cart.Items = append(cart.Items, item)
		return nil
	})
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity == nil && input.Customization == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity or customization is required")
	}
	if input.Quantity != nil && *input.Quantity < 1 {
		return nil, pricing.ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, false, func(ctx context.Context, _ CartRepository, products *product.Repository, cart *models.Cart) error {
		item := findItem(cart, itemID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if input.Quantity != nil {
			prod, err := loadSellable(ctx, products, item.ProductID)
			if err != nil {
				return err
			}
			if err := checkQuantity(prod, *input.Quantity); err != nil {
				return err
			}
			item.Quantity = *input.Quantity
		}
		if input.Customization != nil {
			item.Customization = *input.Customization
		}
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	return s.mutate(ctx, userID, false, func(ctx context.Context, repo CartRepository, _ *product.Repository, cart *models.Cart) error {
		deleted, err := repo.DeleteItem(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		cart.Items = kept
		return nil
	})
}

// Clear empties the cart. Clearing a user without a cart is a no-op.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	dto, err := s.mutate(ctx, userID, false, func(ctx context.Context, repo CartRepository, _ *product.Repository, cart *models.Cart) error {
		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		cart.Items = nil
		return nil
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return emptyCart(userID), nil
	}
	return dto, err
}

func (s *service) ListCarts(ctx context.Context, params pagination.Params) (*pagination.Page[CartDTO], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list carts")
	}
	out := pagination.Map(page, func(c models.Cart) CartDTO {
		return *NewCartDTO(&c, nil)
	})
	return &out, nil
}

type mutation func(ctx context.Context, repo CartRepository, products *product.Repository, cart *models.Cart) error

// mutate loads (or creates) the cart inside a transaction, applies fn, then
// reprices and saves every line.
func (s *service) mutate(ctx context.Context, userID uuid.UUID, create bool, fn mutation) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txProducts := s.products.WithTx(tx)

		cart, err := txRepo.FindByUserID(ctx, userID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound) && create:
			cart = &models.Cart{UserID: userID}
			if err := txRepo.Create(ctx, cart); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		if err := fn(ctx, txRepo, txProducts, cart); err != nil {
			return err
		}

		catalog, err := s.repricer.Reprice(ctx, txProducts, cart)
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reprice cart")
		}
		if err := txRepo.SaveItems(ctx, cart.Items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart items")
		}
		if err := txRepo.SaveCart(ctx, cart); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
		}
		out = NewCartDTO(cart, catalog)
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return out, nil
}

func loadSellable(ctx context.Context, products *product.Repository, productID uuid.UUID) (*models.Product, error) {
	prod, err := products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !prod.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"product_id": productID})
	}
	return prod, nil
}

// checkQuantity enforces the product's order bounds and current stock.
func checkQuantity(prod *models.Product, quantity int) error {
	if quantity < prod.MinOrderQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity is below the minimum order quantity").
			WithDetails(map[string]any{"min_order_quantity": prod.MinOrderQuantity})
	}
	if prod.MaxOrderQuantity != nil && quantity > *prod.MaxOrderQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the maximum order quantity").
			WithDetails(map[string]any{"max_order_quantity": *prod.MaxOrderQuantity})
	}
	if quantity > prod.Stock {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for product")
	}
	return nil
}

func findItem(cart *models.Cart, itemID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

func productIDs(items []models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
