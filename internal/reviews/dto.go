package reviews

import (
	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

// CreateInput carries a new review for a product purchased on a completed
// order.
type CreateInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	OrderID   uuid.UUID
	Rating    int
	Comment   *string
}

// UpdateInput carries partial edits to an existing review. Only the owner
// may edit.
type UpdateInput struct {
	ReviewID    uuid.UUID
	RequesterID uuid.UUID
	Rating      *int
	Comment     *string
}

// DeleteInput scopes a delete to the owner, or to an admin.
type DeleteInput struct {
	ReviewID    uuid.UUID
	RequesterID uuid.UUID
	IsAdmin     bool
}

// ReviewList wraps a page of reviews with its metadata.
type ReviewList struct {
	Reviews []models.Review `json:"reviews"`
	Page    pagination.Page `json:"page"`
}
