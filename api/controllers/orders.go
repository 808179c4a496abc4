package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarly/storefront-backend/api/middleware"
	"github.com/bazaarly/storefront-backend/api/responses"
	"github.com/bazaarly/storefront-backend/api/validators"
	ordersvc "github.com/bazaarly/storefront-backend/internal/orders"
	"github.com/bazaarly/storefront-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/logger"
)

type placeOrderRequest struct {
	Items           []orderItemPayload `json:"items" validate:"required,min=1,dive"`
	TotalAmount     decimal.Decimal    `json:"total_amount" validate:"required"`
	ShippingAddress *string            `json:"shipping_address"`
}

type orderItemPayload struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price" validate:"required"`
}

// PlaceOrder creates an order, reserving stock atomically.
func PlaceOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]ordersvc.PlaceOrderItem, len(payload.Items))
		for i, item := range payload.Items {
			items[i] = ordersvc.PlaceOrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
		}

		order, err := svc.PlaceOrder(r.Context(), ordersvc.PlaceOrderInput{
			UserID:          userID,
			Items:           items,
			TotalAmount:     payload.TotalAmount,
			ShippingAddress: payload.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListMyOrders returns the caller's order history.
func ListMyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := orderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// GetOrder returns a single order, restricted to its owner unless the caller
// is an admin.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), ordersvc.GetInput{
			OrderID:     orderID,
			RequesterID: userID,
			IsAdmin:     middleware.IsAdminFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func orderFilters(r *http.Request) (ordersvc.Filters, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return ordersvc.Filters{}, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return ordersvc.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	return ordersvc.Filters{Status: &status}, nil
}
