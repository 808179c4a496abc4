package controllers

import (
	"net/http"

	"github.com/bazaarly/storefront-backend/api/responses"
	"github.com/bazaarly/storefront-backend/api/validators"
	ordersvc "github.com/bazaarly/storefront-backend/internal/orders"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/logger"
)

// AdminListOrders serves the back-office order queue with an optional status
// filter.
func AdminListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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

		list, err := svc.ListAll(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type updateOrderStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number"`
}

// AdminUpdateOrderStatus applies a lifecycle transition to an order.
func AdminUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), ordersvc.UpdateStatusInput{
			OrderID:        orderID,
			Status:         payload.Status,
			TrackingNumber: payload.TrackingNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
