package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bazaarly/storefront-backend/api/responses"
	"github.com/bazaarly/storefront-backend/api/validators"
	ordersvc "github.com/bazaarly/storefront-backend/internal/orders"
	paymentsvc "github.com/bazaarly/storefront-backend/internal/payments"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/logger"
)

type createGatewayOrderRequest struct {
	Amount          decimal.Decimal    `json:"amount" validate:"required"`
	Currency        string             `json:"currency"`
	Items           []orderItemPayload `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *string            `json:"shipping_address"`
}

// CreateGatewayOrder opens a checkout session with the payment gateway and
// records the matching pending order.
func CreateGatewayOrder(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createGatewayOrderRequest
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

		session, err := svc.CreateGatewayOrder(r.Context(), paymentsvc.CreateGatewayOrderInput{
			UserID:          userID,
			Amount:          payload.Amount,
			Currency:        payload.Currency,
			Items:           items,
			ShippingAddress: payload.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

type verifyPaymentRequest struct {
	GatewayOrderRef string `json:"razorpay_order_id" validate:"required"`
	PaymentRef      string `json:"razorpay_payment_id" validate:"required"`
	Signature       string `json:"razorpay_signature" validate:"required"`
}

// VerifyPayment validates the gateway callback and applies the payment to
// the local order.
func VerifyPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.VerifyAndApply(r.Context(), paymentsvc.VerifyInput{
			GatewayOrderRef: payload.GatewayOrderRef,
			PaymentRef:      payload.PaymentRef,
			Signature:       payload.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
