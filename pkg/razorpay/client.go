package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bazaarly/storefront-backend/pkg/config"
	"github.com/bazaarly/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const ordersPath = "/v1/orders"

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// Order is the subset of the gateway order resource we consume.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Client wraps the Razorpay Orders API with centralized auth, timeouts, and
// error mapping. Amounts on the wire are integers in the currency's smallest
// unit (paisa for INR).
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	logger     *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		logger:     logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key identifier clients need for checkout.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// CreateOrder registers a gateway order for the given amount and receipt.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*Order, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}

	payload := orderRequest{
		Amount:   ToSubunits(amount),
		Currency: currency,
		Receipt:  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay order request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read razorpay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay order failed (%d): %s", resp.StatusCode, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay order failed with status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode razorpay order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay order response missing id")
	}
	return &order, nil
}

// VerifySignature checks the checkout callback signature. The expected value
// is HMAC-SHA256 over "<order_ref>|<payment_ref>" keyed with the secret,
// hex-encoded. Comparison is constant time.
func (c *Client) VerifySignature(orderRef, paymentRef, signature string) bool {
	return VerifySignature(c.keySecret, orderRef, paymentRef, signature)
}

// VerifySignature is the keyed form used by tests and webhook handlers.
func VerifySignature(secret, orderRef, paymentRef, signature string) bool {
	if orderRef == "" || paymentRef == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ToSubunits converts a decimal currency amount into the integer smallest
// unit the gateway expects, rounding to the nearest subunit.
func ToSubunits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
