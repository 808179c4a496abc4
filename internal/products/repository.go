package products

import (
	"context"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence operations for products.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListFilters narrows product listings.
type ListFilters struct {
	FeaturedOnly bool
}

// List returns a page of products plus the total row count.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Product, int64, error) {
	page := pagination.Normalize(params)
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(params.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindByID loads one product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Exists reports whether a product row exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update applies the provided column updates.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Delete removes a product row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return result.RowsAffected, result.Error
}
