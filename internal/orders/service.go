package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bazaarly/storefront-backend/internal/inventory"
	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockLedger reserves and releases product stock inside the caller's transaction.
type StockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
	Release(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

// Notifier records user-facing status messages. Implementations must not
// return errors; failed writes are logged and swallowed.
type Notifier interface {
	Push(ctx context.Context, userID uuid.UUID, message string)
}

type ledgerEngine struct{}

func (ledgerEngine) Reserve(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error {
	return inventory.Reserve(ctx, tx, lines)
}

func (ledgerEngine) Release(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error {
	return inventory.Release(ctx, tx, lines)
}

// Service defines order lifecycle operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Get(ctx context.Context, input GetInput) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	ledger   StockLedger
	notifier Notifier
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, ledger StockLedger, notifier Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		ledger = ledgerEngine{}
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		ledger:   ledger,
		notifier: notifier,
	}, nil
}

// PlaceOrder reserves stock and persists the order in one transaction. A
// reservation failure aborts the whole order, leaving no partial state.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.TotalAmount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	lines := make([]inventory.Line, 0, len(input.Items))
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity for product %s", item.ProductID))
		}
		if item.Price.Sign() < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid price for product %s", item.ProductID))
		}
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Qty: item.Quantity})
		items = append(items, models.OrderItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Price,
		})
	}

	order := &models.Order{
		UserID:          input.UserID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     input.TotalAmount,
		ShippingAddress: input.ShippingAddress,
		Items:           items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.Reserve(ctx, tx, lines); err != nil {
			return err
		}
		created, err := s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Push(ctx, order.UserID, fmt.Sprintf("Your order %s has been placed.", order.ID))
	return order, nil
}

// UpdateStatus applies an admin lifecycle transition. Rejecting a
// non-terminal order releases its reserved stock in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}

	var updated *models.Order
	var notifyMessage string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status == target {
			updated = order
			return nil
		}
		if !canTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
		}

		updates := map[string]any{"status": target}
		tracking := ""
		if target == enums.OrderStatusInTransit {
			if input.TrackingNumber != nil {
				tracking = strings.TrimSpace(*input.TrackingNumber)
			}
			if tracking == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "tracking number required for in_transit")
			}
			updates["tracking_number"] = tracking
			order.TrackingNumber = &tracking
		}

		if target == enums.OrderStatusRejected {
			lines := releaseLines(order.Items)
			if len(lines) > 0 {
				if err := s.ledger.Release(ctx, tx, lines); err != nil {
					return err
				}
			}
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		order.Status = target
		updated = order
		notifyMessage = statusMessage(order.ID, target, tracking)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyMessage != "" {
		s.notifier.Push(ctx, updated.UserID, notifyMessage)
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, input GetInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !input.IsAdmin && order.UserID != input.RequesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func releaseLines(items []models.OrderItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Qty: item.Quantity})
	}
	return lines
}

func statusMessage(orderID uuid.UUID, status enums.OrderStatus, tracking string) string {
	switch status {
	case enums.OrderStatusConfirmed:
		return fmt.Sprintf("Your order %s has been confirmed.", orderID)
	case enums.OrderStatusInTransit:
		return fmt.Sprintf("Your order %s is in transit. Tracking number: %s.", orderID, tracking)
	case enums.OrderStatusCompleted:
		return fmt.Sprintf("Your order %s has been completed.", orderID)
	case enums.OrderStatusRejected:
		return fmt.Sprintf("Your order %s has been rejected.", orderID)
	default:
		return ""
	}
}
