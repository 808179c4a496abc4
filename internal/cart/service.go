package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service defines cart manipulation operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productChecker
}

// NewService wires cart dependencies.
func NewService(repo *Repository, products productChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product checker required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if err := validateLine(userID, productID, quantity); err != nil {
		return nil, err
	}

	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
	if err := s.repo.UpsertItem(ctx, &item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.reload(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if err := validateLine(userID, productID, quantity); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	affected, err := s.repo.SetItemQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.reload(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	affected, err := s.repo.RemoveItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.reload(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.ClearForUser(ctx, nil, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}

func validateLine(userID, productID uuid.UUID, quantity int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
