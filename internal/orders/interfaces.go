package orders

import (
	"context"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByGatewayRef(ctx context.Context, gatewayRef string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
