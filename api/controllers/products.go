package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bazaarly/storefront-backend/api/responses"
	"github.com/bazaarly/storefront-backend/api/validators"
	productsvc "github.com/bazaarly/storefront-backend/internal/products"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/logger"
)

// ListProducts serves the public catalog listing.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, err := validators.ParseQueryBool(r, "featured", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params, productsvc.ListFilters{FeaturedOnly: featured})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetProduct serves a single catalog product.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := pathUUID(r, "productID", "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name        string           `json:"name" validate:"required,min=2,max=200"`
	Description *string          `json:"description"`
	Price       decimal.Decimal  `json:"price" validate:"required"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	ImageURL    *string          `json:"image_url"`
	Gallery     []string         `json:"gallery"`
	Quality     *string          `json:"quality"`
	Size        *string          `json:"size"`
	Stock       int              `json:"stock" validate:"min=0"`
	IsFeatured  bool             `json:"is_featured"`
}

// CreateProduct handles admin catalog additions.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), productsvc.CreateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			SalePrice:   payload.SalePrice,
			ImageURL:    payload.ImageURL,
			Gallery:     payload.Gallery,
			Quality:     payload.Quality,
			Size:        payload.Size,
			Stock:       payload.Stock,
			IsFeatured:  payload.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	ImageURL    *string          `json:"image_url"`
	Gallery     []string         `json:"gallery"`
	Quality     *string          `json:"quality"`
	Size        *string          `json:"size"`
	Stock       *int             `json:"stock"`
	IsFeatured  *bool            `json:"is_featured"`
}

// UpdateProduct handles partial admin edits.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := pathUUID(r, "productID", "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, productsvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			SalePrice:   payload.SalePrice,
			ImageURL:    payload.ImageURL,
			Gallery:     payload.Gallery,
			Quality:     payload.Quality,
			Size:        payload.Size,
			Stock:       payload.Stock,
			IsFeatured:  payload.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a catalog product.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := pathUUID(r, "productID", "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
