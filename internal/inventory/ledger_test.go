package inventory

import (
	"context"
	"testing"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestReserveAllOrNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5)
	productB := seedProduct(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Line{
			{ProductID: productA, Qty: 3},
			{ProductID: productB, Qty: 2},
		})
	})
	if err == nil {
		t.Fatal("expected reserve to fail on second line")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	// rollback must restore the first line too
	if got := loadStock(t, db, productA); got != 5 {
		t.Fatalf("expected product a stock 5 after rollback, got %d", got)
	}
	if got := loadStock(t, db, productB); got != 1 {
		t.Fatalf("expected product b stock 1 after rollback, got %d", got)
	}
}

func TestReserveDecrementsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 10)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Line{{ProductID: product, Qty: 4}})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got := loadStock(t, db, product); got != 6 {
		t.Fatalf("expected stock 6, got %d", got)
	}
}

func TestReserveExactStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Line{{ProductID: product, Qty: 3}})
	})
	if err != nil {
		t.Fatalf("reserve at exact stock should succeed: %v", err)
	}
	if got := loadStock(t, db, product); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestReserveUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Line{{ProductID: uuid.New(), Qty: 1}})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Line{{ProductID: product, Qty: 0}})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReleaseRestoresStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, []Line{{ProductID: product, Qty: 3}})
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := loadStock(t, db, product); got != 5 {
		t.Fatalf("expected stock 5, got %d", got)
	}
}

func TestReleaseUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, []Line{{ProductID: uuid.New(), Qty: 1}})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:    uuid.New(),
		Name:  "test product",
		Price: decimal.NewFromInt(100),
		Stock: stock,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func loadStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Stock
}
