package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	ordersvc "github.com/bazaarly/storefront-backend/internal/orders"
	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
)

type testOrdersService struct {
	placeFn       func(ctx context.Context, input ordersvc.PlaceOrderInput) (*models.Order, error)
	updateFn      func(ctx context.Context, input ordersvc.UpdateStatusInput) (*models.Order, error)
	getFn         func(ctx context.Context, input ordersvc.GetInput) (*models.Order, error)
	listForUserFn func(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ordersvc.Filters) (*ordersvc.OrderList, error)
	listAllFn     func(ctx context.Context, params pagination.Params, filters ordersvc.Filters) (*ordersvc.OrderList, error)
}

func (s *testOrdersService) PlaceOrder(ctx context.Context, input ordersvc.PlaceOrderInput) (*models.Order, error) {
	if s.placeFn != nil {
		return s.placeFn(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) UpdateStatus(ctx context.Context, input ordersvc.UpdateStatusInput) (*models.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) Get(ctx context.Context, input ordersvc.GetInput) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ordersvc.Filters) (*ordersvc.OrderList, error) {
	if s.listForUserFn != nil {
		return s.listForUserFn(ctx, userID, params, filters)
	}
	return &ordersvc.OrderList{}, nil
}

func (s *testOrdersService) ListAll(ctx context.Context, params pagination.Params, filters ordersvc.Filters) (*ordersvc.OrderList, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx, params, filters)
	}
	return &ordersvc.OrderList{}, nil
}

func TestAdminUpdateOrderStatusPassesInput(t *testing.T) {
	orderID := uuid.New()
	called := false
	svc := &testOrdersService{
		updateFn: func(ctx context.Context, input ordersvc.UpdateStatusInput) (*models.Order, error) {
			called = true
			if input.OrderID != orderID {
				t.Fatalf("unexpected order %s", input.OrderID)
			}
			if input.Status != "in_transit" {
				t.Fatalf("unexpected status %q", input.Status)
			}
			if input.TrackingNumber == nil || *input.TrackingNumber != "TRACK-9" {
				t.Fatalf("tracking number not forwarded")
			}
			return &models.Order{ID: orderID}, nil
		},
	}

	body := `{"status":"in_transit","tracking_number":"TRACK-9"}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/orders/"+orderID.String()+"/status", strings.NewReader(body))
	req = addRouteParam(req, "orderID", orderID.String())

	resp := httptest.NewRecorder()
	handler := AdminUpdateOrderStatus(svc, testLogger())
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestAdminUpdateOrderStatusInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/orders/bogus/status", strings.NewReader(`{"status":"confirmed"}`))
	req = addRouteParam(req, "orderID", "bogus")
	resp := httptest.NewRecorder()
	handler := AdminUpdateOrderStatus(&testOrdersService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatusMissingStatus(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{}`))
	req = addRouteParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	handler := AdminUpdateOrderStatus(&testOrdersService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminListOrdersRejectsBadStatusFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=bogus", nil)
	resp := httptest.NewRecorder()
	handler := AdminListOrders(&testOrdersService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
