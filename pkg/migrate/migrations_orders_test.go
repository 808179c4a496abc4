package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CONSTRAINT orders_gateway_order_ref_unique UNIQUE (gateway_order_ref)",
		"CHECK (status IN ('pending', 'confirmed', 'in_transit', 'completed', 'rejected'))",
		"CHECK (payment_status IN ('pending', 'completed'))",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS order_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_products.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no products migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "CHECK (stock >= 0)") {
		t.Error("products migration missing non-negative stock check")
	}
}

func TestMigrationDirValid(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("migrations dir is empty")
	}
}
