package orders

import (
	"context"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByGatewayRef(ctx context.Context, gatewayRef string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("gateway_order_ref = ?", gatewayRef).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	return r.list(ctx, params, filters, func(query *gorm.DB) *gorm.DB {
		return query.Where("user_id = ?", userID)
	})
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error) {
	return r.list(ctx, params, filters, nil)
}

func (r *repository) list(ctx context.Context, params pagination.Params, filters Filters, scope func(*gorm.DB) *gorm.DB) (*OrderList, error) {
	page := pagination.Normalize(params)
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if scope != nil {
		query = scope(query)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(params.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return &OrderList{
		Orders: orders,
		Page:   pagination.NewPage(params, total),
	}, nil
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
