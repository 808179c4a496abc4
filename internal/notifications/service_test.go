package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/logger"
)

type stubRepository struct {
	createErr error
	created   []models.Notification

	markResult notificationMarkResult
	markErr    error
}

func (s *stubRepository) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepository) Create(ctx context.Context, notification *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, *notification)
	return nil
}

func (s *stubRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (s *stubRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (notificationMarkResult, error) {
	return s.markResult, s.markErr
}

func (s *stubRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPushRecordsNotification(t *testing.T) {
	repo := &stubRepository{}
	svc := newTestService(t, repo)

	userID := uuid.New()
	svc.Push(context.Background(), userID, "Your order has been placed.")

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	if repo.created[0].UserID != userID {
		t.Fatalf("unexpected user %s", repo.created[0].UserID)
	}
	if repo.created[0].Message != "Your order has been placed." {
		t.Fatalf("unexpected message %q", repo.created[0].Message)
	}
}

func TestPushSwallowsRepositoryError(t *testing.T) {
	repo := &stubRepository{createErr: errors.New("db down")}
	svc := newTestService(t, repo)

	// must not panic or surface the failure to the caller
	svc.Push(context.Background(), uuid.New(), "hello")
}

func TestPushSkipsEmptyInput(t *testing.T) {
	repo := &stubRepository{}
	svc := newTestService(t, repo)

	svc.Push(context.Background(), uuid.Nil, "message")
	svc.Push(context.Background(), uuid.New(), "")

	if len(repo.created) != 0 {
		t.Fatalf("expected no writes, got %d", len(repo.created))
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &stubRepository{markResult: notificationMarkResult{Found: false}}
	svc := newTestService(t, repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
}

func TestMarkReadAlreadyRead(t *testing.T) {
	repo := &stubRepository{markResult: notificationMarkResult{Found: true, Updated: false}}
	svc := newTestService(t, repo)

	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("marking an already-read notification should succeed: %v", err)
	}
}
