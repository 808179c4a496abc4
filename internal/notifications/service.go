package notifications

import (
	"context"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/logger"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Service defines notification operations. Push is best effort: a failed
// write is logged and swallowed so it can never undo the state change that
// triggered it.
type Service interface {
	Push(ctx context.Context, userID uuid.UUID, message string)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Page       pagination.Params
	UnreadOnly bool
}

// ListResult wraps returned notifications and page metadata.
type ListResult struct {
	Items []models.Notification `json:"items"`
	Page  pagination.Page       `json:"page"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Push(ctx context.Context, userID uuid.UUID, message string) {
	if userID == uuid.Nil || message == "" {
		return
	}
	notification := models.Notification{
		UserID:  userID,
		Message: message,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID.String()})
		s.logg.Error(ctx, "notification write failed", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	rows, total, err := s.repo.List(ctx, listNotificationsParams{
		UserID:     params.UserID,
		Page:       params.Page,
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	return &ListResult{
		Items: rows,
		Page:  pagination.NewPage(params.Page, total),
	}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
