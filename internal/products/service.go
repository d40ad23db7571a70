package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/pkg/db"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/metrics"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// Service exposes catalog management and price quoting.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*pagination.Page[ProductDTO], error)
	Quote(ctx context.Context, productID uuid.UUID, input QuoteInput) (*QuoteResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU              string
	Name             string
	Slug             string
	Description      *string
	CategoryID       *uuid.UUID
	Stock            int
	MinOrderQuantity int
	MaxOrderQuantity *int
	IsActive         bool
	IsFeatured       bool
	Pricing          PricingInput
}

// UpdateProductInput holds optional mutation values for a product. Tiers and
// DesignAreas replace the stored lists wholesale when non-nil.
type UpdateProductInput struct {
	SKU              *string
	Name             *string
	Slug             *string
	Description      *string
	CategoryID       types.Optional[uuid.UUID]
	Stock            *int
	MinOrderQuantity *int
	MaxOrderQuantity types.Optional[int]
	IsActive         *bool
	IsFeatured       *bool
	BasePriceCents   *int64
	OfferPriceCents  types.Optional[int64]
	Tiers            *[]TierInput
	DesignAreas      *[]DesignAreaInput
}

// QuoteInput is a price calculation request.
type QuoteInput struct {
	Quantity   int
	Selections []pricing.DesignSelection
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type service struct {
	repo       *Repository
	dbClient   *db.Client
	categories categoryLoader
	calculator *pricing.Calculator
	metrics    *metrics.PricingMetrics
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, categories categoryLoader, calculator *pricing.Calculator, pricingMetrics *metrics.PricingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	return &service{
		repo:       repo,
		dbClient:   dbClient,
		categories: categories,
		calculator: calculator,
		metrics:    pricingMetrics,
	}, nil
}

// CreateProduct creates the product with its tier and design area pricing.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.SKU) == "" || strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	if input.MinOrderQuantity == 0 {
		input.MinOrderQuantity = 1
	}
	if err := validateOrderQuantityBounds(input.MinOrderQuantity, input.MaxOrderQuantity); err != nil {
		return nil, err
	}
	if err := ValidatePricing(input.Pricing); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(input.Name)
	}

	product := &models.Product{
		CategoryID:       input.CategoryID,
		SKU:              strings.TrimSpace(input.SKU),
		Name:             strings.TrimSpace(input.Name),
		Slug:             slug,
		Description:      input.Description,
		BasePriceCents:   input.Pricing.BasePriceCents,
		OfferPriceCents:  input.Pricing.OfferPriceCents,
		Stock:            input.Stock,
		MinOrderQuantity: input.MinOrderQuantity,
		MaxOrderQuantity: input.MaxOrderQuantity,
		IsActive:         input.IsActive,
		IsFeatured:       input.IsFeatured,
		TierPrices:       tierRows(uuid.Nil, input.Pricing.Tiers),
		DesignAreaPrices: designAreaRows(uuid.Nil, input.Pricing.DesignAreas),
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			return mapWriteError(err, "db: insert product")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	return s.loadDTO(ctx, product.ID)
}

// UpdateProduct applies a partial update and revalidates the merged pricing.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	merged := mergePricing(product, input)
	if err := ValidatePricing(merged); err != nil {
		return nil, err
	}

	applyUpdateToProduct(product, input)
	if product.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	if err := validateOrderQuantityBounds(product.MinOrderQuantity, product.MaxOrderQuantity); err != nil {
		return nil, err
	}
	if input.CategoryID.Set {
		if err := s.ensureCategory(ctx, input.CategoryID.Value); err != nil {
			return nil, err
		}
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return mapWriteError(err, "db: update product")
		}
		if input.Tiers != nil {
			if err := txRepo.ReplaceTierPrices(ctx, product.ID, tierRows(product.ID, *input.Tiers)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace tier prices")
			}
		}
		if input.DesignAreas != nil {
			if err := txRepo.ReplaceDesignAreaPrices(ctx, product.ID, designAreaRows(product.ID, *input.DesignAreas)); err != nil {
				return mapWriteError(err, "db: replace design area prices")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	return s.loadDTO(ctx, product.ID)
}

// DeleteProduct removes a product and relies on FK cascades for related rows.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	deleted, err := s.repo.DeleteProduct(ctx, productID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is referenced by orders; deactivate it instead")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*pagination.Page[ProductDTO], error) {
	page, err := s.repo.ListProducts(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list products")
	}
	out := pagination.Map(page, func(p models.Product) ProductDTO {
		return *NewProductDTO(&p)
	})
	return &out, nil
}

// Quote prices quantity units of an active product with the given design selections.
func (s *service) Quote(ctx context.Context, productID uuid.UUID, input QuoteInput) (*QuoteResult, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		s.metrics.IncFailure(metrics.SourceQuote)
		return nil, err
	}
	if !product.IsActive {
		s.metrics.IncFailure(metrics.SourceQuote)
		return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"product_id": productID})
	}

	cfg := product.PricingConfig()
	breakdown, err := s.calculator.Calculate(cfg, input.Quantity, input.Selections)
	if err != nil {
		s.metrics.IncFailure(metrics.SourceQuote)
		return nil, err
	}
	s.metrics.IncCalculation(metrics.SourceQuote)

	result := &QuoteResult{ProductID: product.ID, Breakdown: breakdown}
	if tier, ok := pricing.ResolveTier(cfg.Tiers, input.Quantity); ok {
		result.AppliedTier = tierDTOFromRule(*tier)
	}
	return result, nil
}

func (s *service) load(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) loadDTO(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ensureCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found").
				WithDetails(map[string]any{"category_id": categoryID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func mapWriteError(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product sku, slug or design area already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func mergePricing(product *models.Product, input UpdateProductInput) PricingInput {
	merged := PricingInput{
		BasePriceCents:  product.BasePriceCents,
		OfferPriceCents: product.OfferPriceCents,
	}
	if input.BasePriceCents != nil {
		merged.BasePriceCents = *input.BasePriceCents
	}
	if input.OfferPriceCents.Set {
		merged.OfferPriceCents = input.OfferPriceCents.Value
	}
	if input.Tiers != nil {
		merged.Tiers = *input.Tiers
	}
	if input.DesignAreas != nil {
		merged.DesignAreas = *input.DesignAreas
	} else {
		for _, area := range product.DesignAreaPrices {
			merged.DesignAreas = append(merged.DesignAreas, DesignAreaInput{
				AreaName:   area.AreaName,
				Position:   area.Position,
				PriceCents: area.PriceCents,
				IsActive:   area.IsActive,
			})
		}
	}
	return merged
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		product.Slug = strings.TrimSpace(*input.Slug)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.CategoryID.Set {
		product.CategoryID = input.CategoryID.Value
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.MinOrderQuantity != nil {
		product.MinOrderQuantity = *input.MinOrderQuantity
	}
	if input.MaxOrderQuantity.Set {
		product.MaxOrderQuantity = input.MaxOrderQuantity.Value
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.BasePriceCents != nil {
		product.BasePriceCents = *input.BasePriceCents
	}
	if input.OfferPriceCents.Set {
		product.OfferPriceCents = input.OfferPriceCents.Value
	}
}

func tierRows(productID uuid.UUID, tiers []TierInput) []models.ProductTierPrice {
	rows := make([]models.ProductTierPrice, 0, len(tiers))
	for i, tier := range tiers {
		rows = append(rows, models.ProductTierPrice{
			ProductID:     productID,
			SortOrder:     i,
			MinQuantity:   tier.MinQuantity,
			MaxQuantity:   tier.MaxQuantity,
			DiscountType:  tier.DiscountType,
			DiscountValue: tier.DiscountValue,
			IsActive:      tier.IsActive,
		})
	}
	return rows
}

func designAreaRows(productID uuid.UUID, areas []DesignAreaInput) []models.ProductDesignAreaPrice {
	rows := make([]models.ProductDesignAreaPrice, 0, len(areas))
	for i, area := range areas {
		rows = append(rows, models.ProductDesignAreaPrice{
			ProductID:  productID,
			SortOrder:  i,
			AreaName:   strings.TrimSpace(area.AreaName),
			Position:   area.Position,
			PriceCents: area.PriceCents,
			IsActive:   area.IsActive,
		})
	}
	return rows
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value and joins its alphanumeric runs with dashes.
func Slugify(value string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(value), "-"), "-")
}
