package reviews

import (
	"context"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for reviews, including the
// denormalized rating columns kept on products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReviewList, error)
	ListAll(ctx context.Context, params pagination.Params) (*ReviewList, error)
	Update(ctx context.Context, reviewID uuid.UUID, updates map[string]any) (int64, error)
	Delete(ctx context.Context, reviewID uuid.UUID) (int64, error)
	ExistsForOrder(ctx context.Context, userID, productID, orderID uuid.UUID) (bool, error)
	ProductStats(ctx context.Context, productID uuid.UUID) (int64, float64, error)
	UpdateProductStats(ctx context.Context, productID uuid.UUID, rating float64, count int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	return r.list(ctx, params, func(query *gorm.DB) *gorm.DB {
		return query.Where("product_id = ?", productID)
	})
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	return r.list(ctx, params, func(query *gorm.DB) *gorm.DB {
		return query.Where("user_id = ?", userID)
	})
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params) (*ReviewList, error) {
	return r.list(ctx, params, nil)
}

func (r *repository) list(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) (*ReviewList, error) {
	page := pagination.Normalize(params)
	query := r.db.WithContext(ctx).Model(&models.Review{})
	if scope != nil {
		query = scope(query)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var reviews []models.Review
	err := query.
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(params.Offset()).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}

	return &ReviewList{
		Reviews: reviews,
		Page:    pagination.NewPage(params, total),
	}, nil
}

func (r *repository) Update(ctx context.Context, reviewID uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", reviewID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) Delete(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", reviewID).
		Delete(&models.Review{})
	return result.RowsAffected, result.Error
}

func (r *repository) ExistsForOrder(ctx context.Context, userID, productID, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ? AND order_id = ?", userID, productID, orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ProductStats(ctx context.Context, productID uuid.UUID) (int64, float64, error) {
	var stats struct {
		Total   int64
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COUNT(*) AS total, COALESCE(AVG(rating), 0) AS average").
		Where("product_id = ?", productID).
		Scan(&stats).Error
	if err != nil {
		return 0, 0, err
	}
	return stats.Total, stats.Average, nil
}

func (r *repository) UpdateProductStats(ctx context.Context, productID uuid.UUID, rating float64, count int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"rating": rating, "reviews": count}).Error
}
