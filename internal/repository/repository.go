package repository

import (
	"context"

	"hexashop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repositories need. pgxmock's pool
// interface satisfies it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier is satisfied by both DB and pgx.Tx, so reads can run inside or
// outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves the full catalogue.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product with its color variants, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDTx is GetByID running inside the provided transaction, so the
	// order transaction prices against the same snapshot it reserves from.
	GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error)

	// GetByCategory retrieves products for a catalogue model (Men/Women/Kids).
	GetByCategory(ctx context.Context, category string) ([]model.Product, error)

	// GetByBrand retrieves products whose brand matches (case-insensitive substring).
	GetByBrand(ctx context.Context, brand string) ([]model.Product, error)

	// Search matches the query against title, brand and description.
	Search(ctx context.Context, query string) ([]model.Product, error)

	// GetFeatured retrieves featured products, newest first.
	GetFeatured(ctx context.Context) ([]model.Product, error)

	// Create inserts a product and its variants atomically.
	Create(ctx context.Context, p *model.Product) error

	// Update rewrites a product and its variants atomically.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a product and its variants. Returns false when absent.
	Delete(ctx context.Context, id string) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByPhone retrieves all orders for a phone number, newest first.
	GetByPhone(ctx context.Context, phone string) ([]model.Order, error)
}

// PromoRepository defines the interface for promo code data access operations.
type PromoRepository interface {
	// GetByCode retrieves a promo code (uppercased lookup), nil when absent.
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)

	// GetByCodeTx is GetByCode running inside the provided transaction.
	GetByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*model.PromoCode, error)

	// IncrementUsage advances used_count by one within the transaction,
	// guarded by the usage limit. Returns false when the limit was already
	// reached, in which case no row was touched.
	IncrementUsage(ctx context.Context, tx pgx.Tx, id int64) (bool, error)

	// Upsert inserts or updates a promo definition by code. Used by the
	// bulk seed loaders.
	Upsert(ctx context.Context, p *model.PromoCode) error
}
