package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bazaarly/storefront-backend/internal/inventory"
	"github.com/bazaarly/storefront-backend/internal/orders"
	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/razorpay"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Gateway is the payment-provider surface the reconciler depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*razorpay.Order, error)
	VerifySignature(orderRef, paymentRef, signature string) bool
	KeyID() string
}

// StockDeducter commits reserved-at-verification stock inside the caller's transaction.
type StockDeducter interface {
	Deduct(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

// CartClearer empties a user's cart inside the caller's transaction.
type CartClearer interface {
	ClearForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

// Notifier records user-facing payment messages, best effort.
type Notifier interface {
	Push(ctx context.Context, userID uuid.UUID, message string)
}

type ledgerEngine struct{}

func (ledgerEngine) Deduct(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error {
	return inventory.Deduct(ctx, tx, lines)
}

// CreateGatewayOrderInput describes a checkout the client wants to pay for.
type CreateGatewayOrderInput struct {
	UserID          uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Items           []orders.PlaceOrderItem
	ShippingAddress *string
}

// CheckoutSession is everything the client needs to open the gateway widget.
type CheckoutSession struct {
	GatewayOrderRef string          `json:"gateway_order_ref"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	KeyID           string          `json:"key_id"`
	Order           *models.Order   `json:"order"`
}

// VerifyInput carries the gateway callback fields.
type VerifyInput struct {
	GatewayOrderRef string
	PaymentRef      string
	Signature       string
}

// Service reconciles gateway payments against local order state.
type Service interface {
	CreateGatewayOrder(ctx context.Context, input CreateGatewayOrderInput) (*CheckoutSession, error)
	VerifyAndApply(ctx context.Context, input VerifyInput) (*models.Order, error)
}

type service struct {
	gateway    Gateway
	ordersRepo orders.Repository
	tx         txRunner
	ledger     StockDeducter
	carts      CartClearer
	notifier   Notifier
}

// NewService builds the payment reconciler.
func NewService(
	gateway Gateway,
	ordersRepo orders.Repository,
	tx txRunner,
	ledger StockDeducter,
	carts CartClearer,
	notifier Notifier,
) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		ledger = ledgerEngine{}
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		gateway:    gateway,
		ordersRepo: ordersRepo,
		tx:         tx,
		ledger:     ledger,
		carts:      carts,
		notifier:   notifier,
	}, nil
}

// CreateGatewayOrder registers an order with the gateway, then persists the
// local pending order. The gateway call happens first so a gateway failure
// leaves no local state; items are deliberately not reserved on this path,
// stock is deducted at verification time instead.
func (s *service) CreateGatewayOrder(ctx context.Context, input CreateGatewayOrderInput) (*CheckoutSession, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order item")
		}
		items = append(items, models.OrderItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Price,
		})
	}

	currency := input.Currency
	if currency == "" {
		currency = "INR"
	}

	receipt := "rcpt_" + uuid.NewString()
	gatewayOrder, err := s.gateway.CreateOrder(ctx, input.Amount, currency, receipt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, "payment gateway unavailable")
	}

	ref := gatewayOrder.ID
	order := &models.Order{
		UserID:          input.UserID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     input.Amount,
		GatewayOrderRef: &ref,
		ShippingAddress: input.ShippingAddress,
		Items:           items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.ordersRepo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist gateway order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{
		GatewayOrderRef: ref,
		Amount:          input.Amount,
		Currency:        currency,
		KeyID:           s.gateway.KeyID(),
		Order:           order,
	}, nil
}

// VerifyAndApply validates the gateway callback signature and, exactly once,
// marks the order paid, deducts stock, and clears the user's cart. Repeat
// calls for an already-applied order are a no-op returning the current order.
func (s *service) VerifyAndApply(ctx context.Context, input VerifyInput) (*models.Order, error) {
	ref := strings.TrimSpace(input.GatewayOrderRef)
	paymentRef := strings.TrimSpace(input.PaymentRef)
	signature := strings.TrimSpace(input.Signature)
	if ref == "" || paymentRef == "" || signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ref, payment ref, and signature are required")
	}

	// signature first, before any state is touched
	if !s.gateway.VerifySignature(ref, paymentRef, signature) {
		return nil, pkgerrors.New(pkgerrors.CodeSignatureMismatch, "payment signature mismatch")
	}

	var applied *models.Order
	alreadyApplied := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		order, err := repo.FindByGatewayRef(ctx, ref)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for gateway reference")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// A captured payment never returns to pending, so payment status alone
		// decides replay. Checking the order status too would let a webhook
		// retry arriving after an admin advanced the paid order deduct stock
		// again and drag the status back to confirmed.
		if order.PaymentStatus == enums.PaymentStatusCompleted {
			applied = order
			alreadyApplied = true
			return nil
		}

		updates := map[string]any{
			"payment_status": enums.PaymentStatusCompleted,
			"status":         enums.OrderStatusConfirmed,
			"payment_ref":    paymentRef,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}

		lines := make([]inventory.Line, 0, len(order.Items))
		for _, item := range order.Items {
			if item.Quantity <= 0 {
				continue
			}
			lines = append(lines, inventory.Line{ProductID: item.ProductID, Qty: item.Quantity})
		}
		if len(lines) > 0 {
			if err := s.ledger.Deduct(ctx, tx, lines); err != nil {
				return err
			}
		}

		if err := s.carts.ClearForUser(ctx, tx, order.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		order.PaymentStatus = enums.PaymentStatusCompleted
		order.Status = enums.OrderStatusConfirmed
		order.PaymentRef = &paymentRef
		applied = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyApplied {
		s.notifier.Push(ctx, applied.UserID, fmt.Sprintf("Payment received, your order %s is confirmed.", applied.ID))
	}
	return applied, nil
}
