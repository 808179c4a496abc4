package reviews

import (
	"context"
	"testing"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/bazaarly/storefront-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func newReviewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.Review{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newReviewsService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), orderFinder{db: db}, sqliteTxRunner{db: db})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

type orderFinder struct {
	db *gorm.DB
}

func (f orderFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := f.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func seedReviewProduct(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:    uuid.New(),
		Name:  "widget",
		Price: decimal.NewFromInt(250),
		Stock: 5,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func seedReviewOrder(t *testing.T, db *gorm.DB, userID, productID uuid.UUID, status enums.OrderStatus) uuid.UUID {
	t.Helper()
	order := models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        status,
		PaymentStatus: enums.PaymentStatusCompleted,
		TotalAmount:   decimal.NewFromInt(250),
		Items: []models.OrderItem{
			{ProductID: productID, Quantity: 1, PriceAtPurchase: decimal.NewFromInt(250)},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order.ID
}

func loadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product
}

func TestCreateReviewUpdatesProductStats(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	productID := seedReviewProduct(t, db)
	firstUser := uuid.New()
	firstOrder := seedReviewOrder(t, db, firstUser, productID, enums.OrderStatusCompleted)

	review, err := svc.Create(ctx, CreateInput{
		UserID:    firstUser,
		ProductID: productID,
		OrderID:   firstOrder,
		Rating:    4,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if review.ID == uuid.Nil || review.Rating != 4 {
		t.Fatalf("unexpected review: %+v", review)
	}

	product := loadProduct(t, db, productID)
	if product.Rating != 4 || product.Reviews != 1 {
		t.Fatalf("expected rating 4 with 1 review, got %v/%d", product.Rating, product.Reviews)
	}

	secondUser := uuid.New()
	secondOrder := seedReviewOrder(t, db, secondUser, productID, enums.OrderStatusCompleted)
	if _, err := svc.Create(ctx, CreateInput{
		UserID:    secondUser,
		ProductID: productID,
		OrderID:   secondOrder,
		Rating:    5,
	}); err != nil {
		t.Fatalf("second Create: %v", err)
	}

	product = loadProduct(t, db, productID)
	if product.Rating != 4.5 || product.Reviews != 2 {
		t.Fatalf("expected rating 4.5 with 2 reviews, got %v/%d", product.Rating, product.Reviews)
	}
}

func TestCreateReviewRequiresCompletedOrder(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	productID := seedReviewProduct(t, db)
	userID := uuid.New()
	orderID := seedReviewOrder(t, db, userID, productID, enums.OrderStatusInTransit)

	_, err := svc.Create(ctx, CreateInput{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    5,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for open order, got %v", err)
	}
}

func TestCreateReviewForeignOrderNotFound(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	productID := seedReviewProduct(t, db)
	orderID := seedReviewOrder(t, db, uuid.New(), productID, enums.OrderStatusCompleted)

	_, err := svc.Create(ctx, CreateInput{
		UserID:    uuid.New(),
		ProductID: productID,
		OrderID:   orderID,
		Rating:    5,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}
}

func TestCreateReviewProductNotInOrder(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	boughtProduct := seedReviewProduct(t, db)
	otherProduct := seedReviewProduct(t, db)
	userID := uuid.New()
	orderID := seedReviewOrder(t, db, userID, boughtProduct, enums.OrderStatusCompleted)

	_, err := svc.Create(ctx, CreateInput{
		UserID:    userID,
		ProductID: otherProduct,
		OrderID:   orderID,
		Rating:    5,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for product outside order, got %v", err)
	}
}

func TestCreateReviewDuplicateConflict(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	productID := seedReviewProduct(t, db)
	userID := uuid.New()
	orderID := seedReviewOrder(t, db, userID, productID, enums.OrderStatusCompleted)

	input := CreateInput{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    3,
	}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := svc.Create(ctx, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate review, got %v", err)
	}
}

func TestCreateReviewRatingOutOfRange(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		OrderID:   uuid.New(),
		Rating:    6,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for rating 6, got %v", err)
	}
}

func TestUpdateReviewOwnerOnly(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	productID := seedReviewProduct(t, db)
	userID := uuid.New()
	orderID := seedReviewOrder(t, db, userID, productID, enums.OrderStatusCompleted)

	review, err := svc.Create(ctx, CreateInput{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rating := 5
	_, err = svc.Update(ctx, UpdateInput{
		ReviewID:    review.ID,
		RequesterID: uuid.New(),
		Rating:      &rating,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger edit, got %v", err)
	}

	updated, err := svc.Update(ctx, UpdateInput{
		ReviewID:    review.ID,
		RequesterID: userID,
		Rating:      &rating,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Rating != 5 {
		t.Fatalf("expected rating 5, got %d", updated.Rating)
	}

	product := loadProduct(t, db, productID)
	if product.Rating != 5 || product.Reviews != 1 {
		t.Fatalf("expected recomputed rating 5 with 1 review, got %v/%d", product.Rating, product.Reviews)
	}
}

func TestDeleteReviewRecomputesStats(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	productID := seedReviewProduct(t, db)
	userID := uuid.New()
	orderID := seedReviewOrder(t, db, userID, productID, enums.OrderStatusCompleted)

	review, err := svc.Create(ctx, CreateInput{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    4,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Delete(ctx, DeleteInput{ReviewID: review.ID, RequesterID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger delete, got %v", err)
	}

	if err := svc.Delete(ctx, DeleteInput{ReviewID: review.ID, RequesterID: uuid.New(), IsAdmin: true}); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	product := loadProduct(t, db, productID)
	if product.Rating != 0 || product.Reviews != 0 {
		t.Fatalf("expected cleared stats, got %v/%d", product.Rating, product.Reviews)
	}

	err = svc.Delete(ctx, DeleteInput{ReviewID: review.ID, RequesterID: userID})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListForProductNewestFirst(t *testing.T) {
	t.Parallel()

	db := newReviewsTestDB(t)
	svc := newReviewsService(t, db)
	ctx := context.Background()

	productID := seedReviewProduct(t, db)
	for rating := 1; rating <= 3; rating++ {
		userID := uuid.New()
		orderID := seedReviewOrder(t, db, userID, productID, enums.OrderStatusCompleted)
		if _, err := svc.Create(ctx, CreateInput{
			UserID:    userID,
			ProductID: productID,
			OrderID:   orderID,
			Rating:    rating,
		}); err != nil {
			t.Fatalf("Create rating %d: %v", rating, err)
		}
	}

	list, err := svc.ListForProduct(ctx, productID, pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListForProduct: %v", err)
	}
	if len(list.Reviews) != 2 {
		t.Fatalf("expected 2 reviews on first page, got %d", len(list.Reviews))
	}
	if list.Page.TotalItems != 3 || list.Page.TotalPages != 2 {
		t.Fatalf("expected 3 items over 2 pages, got %+v", list.Page)
	}
}
