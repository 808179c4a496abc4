package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/bazaarly/storefront-backend/internal/orders"
	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/razorpay"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "rzp_test_secret"

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type stubGateway struct {
	createOrder func(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*razorpay.Order, error)
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*razorpay.Order, error) {
	if g.createOrder != nil {
		return g.createOrder(ctx, amount, currency, receipt)
	}
	return &razorpay.Order{
		ID:       "order_" + uuid.NewString()[:8],
		Amount:   razorpay.ToSubunits(amount),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *stubGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return razorpay.VerifySignature(testSecret, orderRef, paymentRef, signature)
}

func (g *stubGateway) KeyID() string {
	return "rzp_test_key"
}

type cartTableClearer struct{}

func (cartTableClearer) ClearForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return tx.WithContext(ctx).
		Where("cart_id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Push(_ context.Context, _ uuid.UUID, message string) {
	n.messages = append(n.messages, message)
}

func signPayment(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.Cart{}, &models.CartItem{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newPaymentsService(t *testing.T, db *gorm.DB, gateway Gateway, notifier Notifier) Service {
	t.Helper()
	if gateway == nil {
		gateway = &stubGateway{}
	}
	if notifier == nil {
		notifier = &recordingNotifier{}
	}
	svc, err := NewService(gateway, orders.NewRepository(db), sqliteTxRunner{db: db}, nil, cartTableClearer{}, notifier)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedPaymentOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, productID uuid.UUID, qty int, ref string) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     decimal.NewFromInt(500),
		GatewayOrderRef: &ref,
		Items: []models.OrderItem{
			{ProductID: productID, Quantity: qty, PriceAtPurchase: decimal.NewFromInt(250)},
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedPaymentProduct(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:    uuid.New(),
		Name:  "gadget",
		Price: decimal.NewFromInt(250),
		Stock: stock,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Stock
}

func TestVerifyAndApplyHappyPath(t *testing.T) {
	t.Parallel()

	db := newPaymentsTestDB(t)
	notifier := &recordingNotifier{}
	svc := newPaymentsService(t, db, nil, notifier)
	ctx := context.Background()

	userID := uuid.New()
	productID := seedPaymentProduct(t, db, 10)
	seedPaymentOrder(t, db, userID, productID, 2, "order_happy")

	cart := models.Cart{UserID: userID, Items: []models.CartItem{{ProductID: productID, Quantity: 2}}}
	if err := db.Create(&cart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	applied, err := svc.VerifyAndApply(ctx, VerifyInput{
		GatewayOrderRef: "order_happy",
		PaymentRef:      "pay_1",
		Signature:       signPayment("order_happy", "pay_1"),
	})
	if err != nil {
		t.Fatalf("VerifyAndApply: %v", err)
	}

	if applied.Status != enums.OrderStatusConfirmed || applied.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("unexpected order state: %s/%s", applied.Status, applied.PaymentStatus)
	}
	if applied.PaymentRef == nil || *applied.PaymentRef != "pay_1" {
		t.Fatalf("expected payment ref recorded, got %+v", applied.PaymentRef)
	}
	if got := stockOf(t, db, productID); got != 8 {
		t.Fatalf("expected stock 8 after deduct, got %d", got)
	}

	var cartItems int64
	if err := db.Model(&models.CartItem{}).Count(&cartItems).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if cartItems != 0 {
		t.Fatalf("expected cart cleared, %d items remain", cartItems)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.messages))
	}
}

func TestVerifyAndApplyTamperedSignature(t *testing.T) {
	t.Parallel()

	db := newPaymentsTestDB(t)
	svc := newPaymentsService(t, db, nil, nil)
	ctx := context.Background()

	userID := uuid.New()
	productID := seedPaymentProduct(t, db, 10)
	seedPaymentOrder(t, db, userID, productID, 2, "order_tamper")

	_, err := svc.VerifyAndApply(ctx, VerifyInput{
		GatewayOrderRef: "order_tamper",
		PaymentRef:      "pay_2",
		Signature:       signPayment("order_tamper", "pay_other"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeSignatureMismatch {
		t.Fatalf("expected signature mismatch, got %v", err)
	}

	// nothing mutated
	if got := stockOf(t, db, productID); got != 10 {
		t.Fatalf("expected stock untouched, got %d", got)
	}
	var order models.Order
	if err := db.First(&order, "gateway_order_ref = ?", "order_tamper").Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected order untouched, got %s/%s", order.Status, order.PaymentStatus)
	}
}

func TestVerifyAndApplyIdempotent(t *testing.T) {
	t.Parallel()

	db := newPaymentsTestDB(t)
	notifier := &recordingNotifier{}
	svc := newPaymentsService(t, db, nil, notifier)
	ctx := context.Background()

	userID := uuid.New()
	productID := seedPaymentProduct(t, db, 10)
	seedPaymentOrder(t, db, userID, productID, 3, "order_idem")

	input := VerifyInput{
		GatewayOrderRef: "order_idem",
		PaymentRef:      "pay_3",
		Signature:       signPayment("order_idem", "pay_3"),
	}

	if _, err := svc.VerifyAndApply(ctx, input); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if got := stockOf(t, db, productID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}

	second, err := svc.VerifyAndApply(ctx, input)
	if err != nil {
		t.Fatalf("second apply should be a no-op: %v", err)
	}
	if second.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", second.Status)
	}
	if got := stockOf(t, db, productID); got != 7 {
		t.Fatalf("stock deducted twice: got %d", got)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected a single notification, got %d", len(notifier.messages))
	}
}

func TestVerifyAndApplyReplayAfterStatusAdvance(t *testing.T) {
	t.Parallel()

	db := newPaymentsTestDB(t)
	notifier := &recordingNotifier{}
	svc := newPaymentsService(t, db, nil, notifier)
	ctx := context.Background()

	userID := uuid.New()
	productID := seedPaymentProduct(t, db, 10)
	seeded := seedPaymentOrder(t, db, userID, productID, 3, "order_replay")

	input := VerifyInput{
		GatewayOrderRef: "order_replay",
		PaymentRef:      "pay_5",
		Signature:       signPayment("order_replay", "pay_5"),
	}

	if _, err := svc.VerifyAndApply(ctx, input); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if got := stockOf(t, db, productID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}

	// the paid order legally moves on before the gateway retries the callback
	err := db.Model(&models.Order{}).Where("id = ?", seeded.ID).
		Updates(map[string]any{"status": enums.OrderStatusInTransit, "tracking_number": "TRK-77"}).Error
	if err != nil {
		t.Fatalf("advance order: %v", err)
	}

	replayed, err := svc.VerifyAndApply(ctx, input)
	if err != nil {
		t.Fatalf("replay should be a no-op: %v", err)
	}
	if replayed.Status != enums.OrderStatusInTransit {
		t.Fatalf("replay regressed status to %s", replayed.Status)
	}
	if got := stockOf(t, db, productID); got != 7 {
		t.Fatalf("stock deducted twice on replay: got %d, want 7", got)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected a single notification, got %d", len(notifier.messages))
	}
}

func TestVerifyAndApplyUnknownRef(t *testing.T) {
	t.Parallel()

	db := newPaymentsTestDB(t)
	svc := newPaymentsService(t, db, nil, nil)

	_, err := svc.VerifyAndApply(context.Background(), VerifyInput{
		GatewayOrderRef: "order_ghost",
		PaymentRef:      "pay_4",
		Signature:       signPayment("order_ghost", "pay_4"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateGatewayOrderPersistsPendingOrder(t *testing.T) {
	t.Parallel()

	db := newPaymentsTestDB(t)
	svc := newPaymentsService(t, db, nil, nil)
	ctx := context.Background()

	productID := seedPaymentProduct(t, db, 4)
	session, err := svc.CreateGatewayOrder(ctx, CreateGatewayOrderInput{
		UserID:   uuid.New(),
		Amount:   decimal.NewFromInt(500),
		Currency: "INR",
		Items: []orders.PlaceOrderItem{
			{ProductID: productID, Quantity: 2, Price: decimal.NewFromInt(250)},
		},
	})
	if err != nil {
		t.Fatalf("CreateGatewayOrder: %v", err)
	}
	if session.GatewayOrderRef == "" || session.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", session.Order.Status)
	}

	// stock is not reserved on this path
	if got := stockOf(t, db, productID); got != 4 {
		t.Fatalf("expected stock untouched, got %d", got)
	}
}

func TestCreateGatewayOrderGatewayDownLeavesNoState(t *testing.T) {
	t.Parallel()

	db := newPaymentsTestDB(t)
	gateway := &stubGateway{
		createOrder: func(context.Context, decimal.Decimal, string, string) (*razorpay.Order, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := newPaymentsService(t, db, gateway, nil)

	_, err := svc.CreateGatewayOrder(context.Background(), CreateGatewayOrderInput{
		UserID: uuid.New(),
		Amount: decimal.NewFromInt(100),
		Items: []orders.PlaceOrderItem{
			{ProductID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(100)},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no local orders, got %d", count)
	}
}
