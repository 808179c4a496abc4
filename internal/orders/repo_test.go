package orders

import (
	"context"
	"testing"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/enums"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryFindByGatewayRef(t *testing.T) {
	t.Parallel()

	db := newOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ref := "order_gw_123"
	order := &models.Order{
		UserID:          uuid.New(),
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     decimal.NewFromInt(300),
		GatewayOrderRef: &ref,
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Quantity: 2, PriceAtPurchase: decimal.NewFromInt(150)},
		},
	}
	_, err := repo.Create(ctx, order)
	require.NoError(t, err)

	found, err := repo.FindByGatewayRef(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)

	_, err = repo.FindByGatewayRef(ctx, "order_missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByUserFiltersStatus(t *testing.T) {
	t.Parallel()

	db := newOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()

	for _, seed := range []struct {
		user   uuid.UUID
		status enums.OrderStatus
	}{
		{userID, enums.OrderStatusPending},
		{userID, enums.OrderStatusConfirmed},
		{userID, enums.OrderStatusConfirmed},
		{otherID, enums.OrderStatusConfirmed},
	} {
		_, err := repo.Create(ctx, &models.Order{
			UserID:        seed.user,
			Status:        seed.status,
			PaymentStatus: enums.PaymentStatusPending,
			TotalAmount:   decimal.NewFromInt(100),
		})
		require.NoError(t, err)
	}

	confirmed := enums.OrderStatusConfirmed
	list, err := repo.ListByUser(ctx, userID, pagination.Params{}, Filters{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	require.EqualValues(t, 2, list.Page.TotalItems)
	for _, order := range list.Orders {
		require.Equal(t, userID, order.UserID)
		require.Equal(t, enums.OrderStatusConfirmed, order.Status)
	}

	all, err := repo.ListAll(ctx, pagination.Params{Limit: 2}, Filters{})
	require.NoError(t, err)
	require.Len(t, all.Orders, 2)
	require.EqualValues(t, 4, all.Page.TotalItems)
	require.Equal(t, 2, all.Page.TotalPages)
}
