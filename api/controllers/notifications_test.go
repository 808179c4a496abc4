package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bazaarly/storefront-backend/api/middleware"
	"github.com/bazaarly/storefront-backend/internal/notifications"
	"github.com/bazaarly/storefront-backend/pkg/logger"
)

type testNotificationsService struct {
	pushFn        func(ctx context.Context, userID uuid.UUID, message string)
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) Push(ctx context.Context, userID uuid.UUID, message string) {
	if s.pushFn != nil {
		s.pushFn(ctx, userID, message)
	}
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, userID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, uid, nid uuid.UUID) error {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = asUser(req, userID)
	req = addRouteParam(req, "notificationID", notificationID.String())

	resp := httptest.NewRecorder()
	handler := MarkNotificationRead(svc, testLogger())
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "read" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestMarkNotificationReadMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/read", nil)
	req = addRouteParam(req, "notificationID", uuid.NewString())
	resp := httptest.NewRecorder()
	handler := MarkNotificationRead(&testNotificationsService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/invalid/read", nil)
	req = asUser(req, uuid.New())
	req = addRouteParam(req, "notificationID", "invalid")
	resp := httptest.NewRecorder()
	handler := MarkNotificationRead(&testNotificationsService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsReadSuccess(t *testing.T) {
	userID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, uid uuid.UUID) (int64, error) {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return 5, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	req = asUser(req, userID)
	resp := httptest.NewRecorder()
	handler := MarkAllNotificationsRead(svc, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 5 {
		t.Fatalf("expected updated=5 got %v", envelope.Data["updated"])
	}
}

func TestListNotificationsPassesParams(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			if params.UserID != userID {
				t.Fatalf("unexpected user %s", params.UserID)
			}
			if params.Page.Page != 2 || params.Page.Limit != 10 {
				t.Fatalf("unexpected page params %+v", params.Page)
			}
			if !params.UnreadOnly {
				t.Fatal("expected unread filter")
			}
			return &notifications.ListResult{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?page=2&limit=10&unread=true", nil)
	req = asUser(req, userID)
	resp := httptest.NewRecorder()
	handler := ListNotifications(svc, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}
