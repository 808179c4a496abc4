package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateInput carries the fields for a new product.
type CreateInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	ImageURL    *string
	Gallery     []string
	Quality     *string
	Size        *string
	Stock       int
	IsFeatured  bool
}

// UpdateInput carries partial updates; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	SalePrice   *decimal.Decimal
	ImageURL    *string
	Gallery     []string
	Quality     *string
	Size        *string
	Stock       *int
	IsFeatured  *bool
}

// ListResult wraps a page of products.
type ListResult struct {
	Products []models.Product `json:"products"`
	Page     pagination.Page  `json:"page"`
}

// Service defines catalog operations.
type Service interface {
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService wires product dependencies.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	products, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return &ListResult{
		Products: products,
		Page:     pagination.NewPage(params, total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.Sign() < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		SalePrice:   input.SalePrice,
		ImageURL:    input.ImageURL,
		Gallery:     pq.StringArray(input.Gallery),
		Quality:     input.Quality,
		Size:        input.Size,
		Stock:       input.Stock,
		IsFeatured:  input.IsFeatured,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.Sign() < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.SalePrice != nil {
		updates["sale_price"] = *input.SalePrice
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.Gallery != nil {
		updates["gallery"] = pq.StringArray(input.Gallery)
	}
	if input.Quality != nil {
		updates["quality"] = *input.Quality
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	affected, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
