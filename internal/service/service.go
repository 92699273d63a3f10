package service

import (
	"context"
	"time"

	"hexashop/internal/model"
)

// ProductService defines operations for catalogue queries and product
// management.
type ProductService interface {
	// GetAll retrieves the full catalogue (cached).
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product (uncached).
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByCategory retrieves products for a category: men, women or kids (cached).
	GetByCategory(ctx context.Context, category string) ([]model.Product, error)

	// GetByBrand retrieves products by brand (cached).
	GetByBrand(ctx context.Context, brand string) ([]model.Product, error)

	// Search matches products against a free-text query (cached).
	Search(ctx context.Context, query string) ([]model.Product, error)

	// GetFeatured retrieves the featured products, newest first (cached).
	GetFeatured(ctx context.Context) ([]model.Product, error)

	// Create validates and inserts a product, then invalidates product caches.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// Update validates and rewrites a product, then invalidates product caches.
	Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error)

	// Delete removes a product, then invalidates product caches.
	Delete(ctx context.Context, id string) error
}

// OrderService defines operations for placing and querying orders.
type OrderService interface {
	// CreateOrder runs the order placement transaction: stock reservation,
	// optional promo application, atomic persistence with bounded retry on
	// storage contention, and cache invalidation on commit.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByPhone retrieves all orders for a phone number, newest first.
	GetByPhone(ctx context.Context, phone string) ([]model.Order, error)
}

// OrderCache is the slice of the cache bus the order service needs: a
// read-through view for the buyer's order history plus invalidation after
// a commit.
type OrderCache interface {
	BuildKey(category string, segments ...string) string
	Get(ctx context.Context, key string, v any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
	TTLFor(category string) time.Duration
	Invalidate(ctx context.Context, pattern string) int
	InvalidateProductCache(ctx context.Context) int
}
