package banners

import (
	"context"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence operations for sale banners.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a banners repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns banners currently shown to shoppers.
func (r *Repository) ListActive(ctx context.Context) ([]models.SaleBanner, error) {
	var banners []models.SaleBanner
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&banners).Error
	return banners, err
}

// ListAll returns every banner for admin management.
func (r *Repository) ListAll(ctx context.Context) ([]models.SaleBanner, error) {
	var banners []models.SaleBanner
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&banners).Error
	return banners, err
}

// Create inserts a new banner.
func (r *Repository) Create(ctx context.Context, banner *models.SaleBanner) (*models.SaleBanner, error) {
	if err := r.db.WithContext(ctx).Create(banner).Error; err != nil {
		return nil, err
	}
	return banner, nil
}

// Update applies the provided column updates.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SaleBanner{}).
		Where("id = ?", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Delete removes a banner.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SaleBanner{})
	return result.RowsAffected, result.Error
}
