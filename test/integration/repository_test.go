package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hexashop/internal/model"
	"hexashop/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	repo := repository.NewProductRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	product := &model.Product{
		ID:          "P100",
		Title:       "Clubmaster",
		Price:       4200,
		Brand:       "Ray-Ban",
		Description: "Browline frame",
		Model:       model.ModelMen,
		Type:        model.TypeSunglasses,
		Images:      json.RawMessage(`{}`),
		IsFeatured:  true,
		AvailableColors: []model.ColorVariant{
			{Name: "black", Stock: 4},
			{Name: "tortoise", Stock: 6},
		},
	}
	require.NoError(t, repo.Create(ctx, product))

	got, err := repo.GetByID(ctx, "P100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Clubmaster", got.Title)
	require.Len(t, got.AvailableColors, 2)
	assert.Equal(t, 4, got.ColorStock("black"))
	assert.Equal(t, 6, got.ColorStock("tortoise"))

	featured, err := repo.GetFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "P100", featured[0].ID)

	// Update replaces the variant set and drops the feature flag.
	product.Title = "Clubmaster Metal"
	product.IsFeatured = false
	product.AvailableColors = []model.ColorVariant{{Name: "gold", Stock: 3}}
	require.NoError(t, repo.Update(ctx, product))

	got, err = repo.GetByID(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "Clubmaster Metal", got.Title)
	require.Len(t, got.AvailableColors, 1)
	assert.Equal(t, 3, got.ColorStock("gold"))

	deleted, err := repo.Delete(ctx, "P100")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = repo.GetByID(ctx, "P100")
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = repo.Delete(ctx, "P100")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestProductRepository_CatalogueQueries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	repo := repository.NewProductRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	byBrand, err := repo.GetByBrand(ctx, "Ray-Ban")
	require.NoError(t, err)
	assert.Len(t, byBrand, 2)

	byCategory, err := repo.GetByCategory(ctx, model.ModelMen)
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	found, err := repo.Search(ctx, "aviator")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "P001", found[0].ID)
}

func TestPromoRepository_UpsertAndGuardedIncrement(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	repo := repository.NewPromoRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	limit := 1
	promo := &model.PromoCode{
		Code:          "WELCOME500",
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: 500,
		UsageLimit:    &limit,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}
	require.NoError(t, repo.Upsert(ctx, promo))

	got, err := repo.GetByCode(ctx, "welcome500")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 500.0, got.DiscountValue)

	// Re-upserting the same code updates in place.
	promo.DiscountValue = 750
	require.NoError(t, repo.Upsert(ctx, promo))
	got, err = repo.GetByCode(ctx, "WELCOME500")
	require.NoError(t, err)
	assert.Equal(t, 750.0, got.DiscountValue)

	tx, err := db.Pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	ok, err := repo.IncrementUsage(ctx, tx, got.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// The limit of 1 is now spent.
	ok, err = repo.IncrementUsage(ctx, tx, got.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tx.Commit(ctx))

	var usedCount int
	err = db.Pool.QueryRow(ctx, "SELECT used_count FROM promo_codes WHERE id = $1", got.ID).Scan(&usedCount)
	require.NoError(t, err)
	assert.Equal(t, 1, usedCount)
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	repo := repository.NewOrderRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	order := &model.Order{
		ID:           "ORD-ABC1234567",
		PhoneNumber:  "0661112233",
		CustomerName: "Lina K",
		Wilaya:       "Oran",
		Address:      "5 Boulevard de la Soummam",
		Total:        8000,
		Status:       model.OrderStatusPending,
		CreatedAt:    time.Now(),
	}
	items := []model.OrderItem{
		{OrderID: order.ID, ProductID: "P001", ProductName: "Aviator Classic", Price: 4000, Quantity: 2, SelectedColor: "black"},
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	require.NoError(t, tx.Commit(ctx))

	orders, err := repo.GetByPhone(ctx, "0661112233")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-ABC1234567", orders[0].ID)
	assert.Equal(t, 8000.0, orders[0].Total)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Aviator Classic", orders[0].Items[0].ProductName)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)

	none, err := repo.GetByPhone(ctx, "0779999999")
	require.NoError(t, err)
	assert.Empty(t, none)
}
