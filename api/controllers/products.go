package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchforge/merchforge-backend/api/middleware"
	"github.com/merchforge/merchforge-backend/api/responses"
	"github.com/merchforge/merchforge-backend/api/validators"
	productsvc "github.com/merchforge/merchforge-backend/internal/products"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/logger"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

const maxSearchLength = 120

// ListProducts serves the public catalog. Admin callers also see inactive products.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		minPrice, err := validators.ParseQueryInt64(r, "price_min_cents")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		maxPrice, err := validators.ParseQueryInt64(r, "price_max_cents")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price_min_cents must not exceed price_max_cents"))
			return
		}

		page, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			Filters: productsvc.ProductListFilters{
				CategoryID:    categoryID,
				Featured:      featured,
				PriceMinCents: minPrice,
				PriceMaxCents: maxPrice,
				Query:         validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength),
			},
			Pagination:      params,
			IncludeInactive: middleware.IsAdmin(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = withProductLog(r, logg, productID)
		product, err := svc.GetProduct(r.Context(), productID, middleware.IsAdmin(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CalculateProductPrice quotes a product for a quantity and design selection.
// An omitted quantity is treated as a single unit.
func CalculateProductPrice(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = withProductLog(r, logg, productID)

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		result, err := svc.Quote(r.Context(), productID, productsvc.QuoteInput{
			Quantity:   quantity,
			Selections: payload.Selections,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type quoteRequest struct {
	Quantity   *int                      `json:"quantity,omitempty"`
	Selections []pricing.DesignSelection `json:"selections,omitempty" validate:"omitempty,dive"`
}

type tierRequest struct {
	MinQuantity   int                `json:"min_quantity" validate:"required,min=1"`
	MaxQuantity   *int               `json:"max_quantity,omitempty" validate:"omitempty,min=1"`
	DiscountType  enums.DiscountType `json:"discount_type" validate:"required,discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	IsActive      *bool              `json:"is_active,omitempty"`
}

type designAreaRequest struct {
	AreaName   string               `json:"area_name" validate:"required,max=100"`
	Position   enums.DesignPosition `json:"position" validate:"required,design_position"`
	PriceCents int64                `json:"price_cents" validate:"min=0"`
	IsActive   *bool                `json:"is_active,omitempty"`
}

type createProductRequest struct {
	SKU              string              `json:"sku" validate:"required,max=64"`
	Name             string              `json:"name" validate:"required,max=200"`
	Slug             string              `json:"slug" validate:"required,max=200"`
	Description      *string             `json:"description,omitempty"`
	CategoryID       *uuid.UUID          `json:"category_id,omitempty"`
	Stock            int                 `json:"stock" validate:"min=0"`
	MinOrderQuantity *int                `json:"min_order_quantity,omitempty" validate:"omitempty,min=1"`
	MaxOrderQuantity *int                `json:"max_order_quantity,omitempty" validate:"omitempty,min=1"`
	IsActive         *bool               `json:"is_active,omitempty"`
	IsFeatured       bool                `json:"is_featured"`
	BasePriceCents   int64               `json:"base_price_cents" validate:"min=0"`
	OfferPriceCents  *int64              `json:"offer_price_cents,omitempty" validate:"omitempty,min=0"`
	Tiers            []tierRequest       `json:"tiers,omitempty" validate:"omitempty,dive"`
	DesignAreas      []designAreaRequest `json:"design_areas,omitempty" validate:"omitempty,dive"`
}

func (r createProductRequest) toInput() productsvc.CreateProductInput {
	minQty := 1
	if r.MinOrderQuantity != nil {
		minQty = *r.MinOrderQuantity
	}
	return productsvc.CreateProductInput{
		SKU:              r.SKU,
		Name:             validators.SanitizeString(r.Name, 200),
		Slug:             r.Slug,
		Description:      r.Description,
		CategoryID:       r.CategoryID,
		Stock:            r.Stock,
		MinOrderQuantity: minQty,
		MaxOrderQuantity: r.MaxOrderQuantity,
		IsActive:         boolOr(r.IsActive, true),
		IsFeatured:       r.IsFeatured,
		Pricing: productsvc.PricingInput{
			BasePriceCents:  r.BasePriceCents,
			OfferPriceCents: r.OfferPriceCents,
			Tiers:           toTierInputs(r.Tiers),
			DesignAreas:     toDesignAreaInputs(r.DesignAreas),
		},
	}
}

type updateProductRequest struct {
	SKU              *string                   `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	Name             *string                   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug             *string                   `json:"slug,omitempty" validate:"omitempty,min=1,max=200"`
	Description      *string                   `json:"description,omitempty"`
	CategoryID       types.Optional[uuid.UUID] `json:"category_id"`
	Stock            *int                      `json:"stock,omitempty" validate:"omitempty,min=0"`
	MinOrderQuantity *int                      `json:"min_order_quantity,omitempty" validate:"omitempty,min=1"`
	MaxOrderQuantity types.Optional[int]       `json:"max_order_quantity"`
	IsActive         *bool                     `json:"is_active,omitempty"`
	IsFeatured       *bool                     `json:"is_featured,omitempty"`
	BasePriceCents   *int64                    `json:"base_price_cents,omitempty" validate:"omitempty,min=0"`
	OfferPriceCents  types.Optional[int64]     `json:"offer_price_cents"`
	Tiers            *[]tierRequest            `json:"tiers,omitempty"`
	DesignAreas      *[]designAreaRequest      `json:"design_areas,omitempty"`
}

func (r updateProductRequest) toInput() productsvc.UpdateProductInput {
	input := productsvc.UpdateProductInput{
		SKU:              r.SKU,
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		CategoryID:       r.CategoryID,
		Stock:            r.Stock,
		MinOrderQuantity: r.MinOrderQuantity,
		MaxOrderQuantity: r.MaxOrderQuantity,
		IsActive:         r.IsActive,
		IsFeatured:       r.IsFeatured,
		BasePriceCents:   r.BasePriceCents,
		OfferPriceCents:  r.OfferPriceCents,
	}
	if r.Tiers != nil {
		tiers := toTierInputs(*r.Tiers)
		input.Tiers = &tiers
	}
	if r.DesignAreas != nil {
		areas := toDesignAreaInputs(*r.DesignAreas)
		input.DesignAreas = &areas
	}
	return input
}

func toTierInputs(reqs []tierRequest) []productsvc.TierInput {
	out := make([]productsvc.TierInput, 0, len(reqs))
	for _, t := range reqs {
		out = append(out, productsvc.TierInput{
			MinQuantity:   t.MinQuantity,
			MaxQuantity:   t.MaxQuantity,
			DiscountType:  t.DiscountType,
			DiscountValue: t.DiscountValue,
			IsActive:      boolOr(t.IsActive, true),
		})
	}
	return out
}

func toDesignAreaInputs(reqs []designAreaRequest) []productsvc.DesignAreaInput {
	out := make([]productsvc.DesignAreaInput, 0, len(reqs))
	for _, a := range reqs {
		out = append(out, productsvc.DesignAreaInput{
			AreaName:   a.AreaName,
			Position:   a.Position,
			PriceCents: a.PriceCents,
			IsActive:   boolOr(a.IsActive, true),
		})
	}
	return out
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
