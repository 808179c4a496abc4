package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"

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

// orderLoader resolves the order a review claims to come from.
type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Service defines review operations. Reviews are only accepted for products
// bought on the requester's own completed orders, and each write recomputes
// the product's denormalized rating columns.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Review, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReviewList, error)
	ListAll(ctx context.Context, params pagination.Params) (*ReviewList, error)
	Update(ctx context.Context, input UpdateInput) (*models.Review, error)
	Delete(ctx context.Context, input DeleteInput) error
}

type service struct {
	repo   Repository
	orders orderLoader
	tx     txRunner
}

// NewService wires review dependencies.
func NewService(repo Repository, orders orderLoader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, orders: orders, tx: tx}, nil
}

// Create accepts a review after checking the order belongs to the requester,
// is completed, and actually contains the product. A second review for the
// same (user, product, order) is a conflict.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Review, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// Not leaking whether the order exists for someone else.
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only completed orders can be reviewed")
	}
	if !orderContainsProduct(order, input.ProductID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not part of this order")
	}

	exists, err := s.repo.ExistsForOrder(ctx, input.UserID, input.ProductID, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed for this order")
	}

	review := &models.Review{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		OrderID:   input.OrderID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, review)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist review")
		}
		review = created
		return refreshProductStats(ctx, repo, input.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	list, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*ReviewList, error) {
	list, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}

// Update applies owner-only partial edits and recomputes product stats when
// the rating changed.
func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Review, error) {
	if input.ReviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	review, err := s.loadReview(ctx, input.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != input.RequesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}

	updates := map[string]any{}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		updates["rating"] = *input.Rating
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		updates["comment"] = *input.Comment
		review.Comment = input.Comment
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.Update(ctx, review.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		if _, ok := updates["rating"]; !ok {
			return nil
		}
		return refreshProductStats(ctx, repo, review.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review for its owner or an admin and recomputes product
// stats.
func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if input.ReviewID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	if input.RequesterID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	review, err := s.loadReview(ctx, input.ReviewID)
	if err != nil {
		return err
	}
	if !input.IsAdmin && review.UserID != input.RequesterID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.Delete(ctx, review.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return refreshProductStats(ctx, repo, review.ProductID)
	})
}

func (s *service) loadReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func orderContainsProduct(order *models.Order, productID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// refreshProductStats rewrites the product's average rating, rounded to one
// decimal, and its review count.
func refreshProductStats(ctx context.Context, repo Repository, productID uuid.UUID) error {
	count, avg, err := repo.ProductStats(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute product rating")
	}
	rounded := math.Round(avg*10) / 10
	if err := repo.UpdateProductStats(ctx, productID, rounded, count); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product rating")
	}
	return nil
}
