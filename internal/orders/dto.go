package orders

import (
	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/enums"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filters narrows order listings.
type Filters struct {
	Status *enums.OrderStatus
}

// OrderList wraps a page of orders with its metadata.
type OrderList struct {
	Orders []models.Order  `json:"orders"`
	Page   pagination.Page `json:"page"`
}

// PlaceOrderItem is one line of a new order. Price is the caller-supplied
// snapshot persisted as price_at_purchase; it is not re-validated against
// the current product price.
type PlaceOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// PlaceOrderInput captures everything needed to place an order from a cart.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	Items           []PlaceOrderItem
	TotalAmount     decimal.Decimal
	ShippingAddress *string
}

// UpdateStatusInput carries an admin status change request. Status is the
// raw client value so legacy aliases can be normalized in one place.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Status         string
	TrackingNumber *string
}

// GetInput scopes a single-order read to the requesting user.
type GetInput struct {
	OrderID     uuid.UUID
	RequesterID uuid.UUID
	IsAdmin     bool
}
