package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bazaarly/storefront-backend/pkg/config"
	"github.com/bazaarly/storefront-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestCreateOrderSendsSubunitAmount(t *testing.T) {
	var got orderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ordersPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_test_secret" {
			t.Errorf("basic auth not forwarded")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(Order{
			ID:       "order_test123",
			Amount:   got.Amount,
			Currency: got.Currency,
			Receipt:  got.Receipt,
			Status:   "created",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	order, err := client.CreateOrder(context.Background(), decimal.RequireFromString("499.99"), "INR", "rcpt_1")
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if got.Amount != 49999 {
		t.Fatalf("expected amount 49999 paisa, got %d", got.Amount)
	}
	if got.Currency != "INR" || got.Receipt != "rcpt_1" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if order.ID != "order_test123" {
		t.Fatalf("unexpected order id %q", order.ID)
	}
}

func TestCreateOrderMapsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateOrder(context.Background(), decimal.NewFromInt(1), "INR", "rcpt_2")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t, "https://api.razorpay.com")
	if _, err := client.CreateOrder(context.Background(), decimal.Zero, "INR", "rcpt_3"); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "rzp_test_secret"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("order_abc|pay_def"))
	valid := hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature(secret, "order_abc", "pay_def", valid) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature(secret, "order_abc", "pay_def", valid[:len(valid)-1]+"0") {
		t.Fatal("expected tampered signature to fail")
	}
	if VerifySignature(secret, "order_abc", "pay_other", valid) {
		t.Fatal("expected signature over different payment ref to fail")
	}
	if VerifySignature(secret, "", "pay_def", valid) {
		t.Fatal("expected empty order ref to fail")
	}
}

func TestToSubunitsRounds(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100", 10000},
		{"0.01", 1},
		{"10.555", 1056},
		{"10.554", 1055},
	}
	for _, tc := range cases {
		if got := ToSubunits(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("ToSubunits(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
