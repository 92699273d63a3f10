package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 25

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(50) PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			price DECIMAL(12, 2) NOT NULL CHECK (price >= 0),
			brand VARCHAR(100) NOT NULL DEFAULT '',
			description VARCHAR(1000) NOT NULL DEFAULT '',
			model VARCHAR(20) NOT NULL DEFAULT '',
			frame_shape VARCHAR(100) NOT NULL DEFAULT '',
			frame_material VARCHAR(100) NOT NULL DEFAULT '',
			frame_color VARCHAR(100) NOT NULL DEFAULT '',
			lenses VARCHAR(100) NOT NULL DEFAULT '',
			protection VARCHAR(100) NOT NULL DEFAULT '',
			dimensions VARCHAR(100) NOT NULL DEFAULT '',
			images JSONB NOT NULL DEFAULT '{}',
			type VARCHAR(20) NOT NULL DEFAULT 'sunglasses',
			discount_price DECIMAL(12, 2),
			discount_active BOOLEAN NOT NULL DEFAULT FALSE,
			discount_start TIMESTAMPTZ,
			discount_end TIMESTAMPTZ,
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS product_variants (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			product_id VARCHAR(50) NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			images JSONB NOT NULL DEFAULT '[]',
			stock INTEGER NOT NULL CHECK (stock >= 0),
			position INTEGER NOT NULL DEFAULT 0,
			UNIQUE (product_id, name)
		);

		CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(20) PRIMARY KEY,
			phone_number VARCHAR(20) NOT NULL,
			customer_name VARCHAR(200) NOT NULL,
			wilaya VARCHAR(100) NOT NULL,
			address VARCHAR(500) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			total DECIMAL(12, 2) NOT NULL CHECK (total >= 0),
			delivery_updates JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			order_id VARCHAR(20) NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id VARCHAR(50) NOT NULL REFERENCES products(id),
			product_name VARCHAR(200) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price DECIMAL(12, 2) NOT NULL,
			color VARCHAR(100) NOT NULL DEFAULT '',
			image VARCHAR(500) NOT NULL DEFAULT '',
			selected_color VARCHAR(100) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS promo_codes (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			code VARCHAR(50) NOT NULL UNIQUE,
			discount_type VARCHAR(20) NOT NULL,
			discount_value DECIMAL(12, 2) NOT NULL,
			min_order_amount DECIMAL(12, 2) NOT NULL DEFAULT 0,
			max_discount DECIMAL(12, 2),
			usage_limit INTEGER,
			used_count INTEGER NOT NULL DEFAULT 0,
			valid_from TIMESTAMPTZ NOT NULL,
			valid_until TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_product_variants_product_id ON product_variants(product_id);
		CREATE INDEX IF NOT EXISTS idx_orders_phone_number ON orders(phone_number);
		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedProducts inserts test catalogue data with per-color stock.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id       string
		title    string
		price    float64
		brand    string
		model    string
		variants map[string]int
	}{
		{"P001", "Aviator Classic", 4500, "Ray-Ban", "Men", map[string]int{"black": 10, "gold": 5}},
		{"P002", "Wayfarer", 3999.99, "Ray-Ban", "Women", map[string]int{"black": 2}},
		{"P003", "Holbrook", 5200, "Oakley", "Men", map[string]int{"matte": 8}},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, title, price, brand, model) VALUES ($1, $2, $3, $4, $5)",
			p.id, p.title, p.price, p.brand, p.model,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
		pos := 0
		for name, stock := range p.variants {
			_, err := pool.Exec(ctx,
				"INSERT INTO product_variants (product_id, name, stock, position) VALUES ($1, $2, $3, $4)",
				p.id, name, stock, pos,
			)
			if err != nil {
				t.Fatalf("failed to seed variant %s/%s: %v", p.id, name, err)
			}
			pos++
		}
	}
}

// SeedPromo inserts a promo code and returns its id.
func SeedPromo(t *testing.T, pool *pgxpool.Pool, code, discountType string, value, minAmount float64, maxDiscount *float64, usageLimit *int) int64 {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO promo_codes (code, discount_type, discount_value, min_order_amount, max_discount, usage_limit, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		code, discountType, value, minAmount, maxDiscount, usageLimit,
		now.Add(-time.Hour), now.Add(24*time.Hour),
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed promo %s: %v", code, err)
	}
	return id
}

// VariantStock reads the current stock for a product variant.
func VariantStock(t *testing.T, pool *pgxpool.Pool, productID, color string) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(),
		"SELECT stock FROM product_variants WHERE product_id = $1 AND name = $2",
		productID, color,
	).Scan(&stock)
	if err != nil {
		t.Fatalf("failed to read stock for %s/%s: %v", productID, color, err)
	}
	return stock
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "product_variants", "products", "promo_codes"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
