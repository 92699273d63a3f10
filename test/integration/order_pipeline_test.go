package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"hexashop/internal/cache"
	"hexashop/internal/config"
	"hexashop/internal/inventory"
	"hexashop/internal/model"
	"hexashop/internal/promo"
	"hexashop/internal/repository"
	"hexashop/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderStack(t *testing.T, db *TestDB) service.OrderService {
	t.Helper()

	logger := zerolog.Nop()
	productRepo := repository.NewProductRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	promoRepo := repository.NewPromoRepository(db.Pool, logger)
	ledger := inventory.NewLedger(logger)
	validator := promo.NewValidator(promoRepo, logger)
	bus := cache.New(nil, config.CacheConfig{Prefix: "hexashop"}, nil, logger)

	cfg := config.OrdersConfig{
		MaxConcurrent:  20,
		MaxAttempts:    3,
		RetryDelay:     50 * time.Millisecond,
		AttemptTimeout: 5 * time.Second,
	}
	return service.NewOrderService(orderRepo, productRepo, promoRepo, ledger, validator, bus, cfg, logger)
}

func orderRequest(productID, color string, qty int) *model.OrderRequest {
	return &model.OrderRequest{
		PhoneNumber:  "0551234567",
		CustomerName: "Amine B",
		Wilaya:       "Alger",
		Address:      "12 Rue Didouche Mourad",
		Items: []model.OrderItemRequest{
			{ProductID: productID, Quantity: qty, SelectedColor: color},
		},
	}
}

func TestOrderPipeline_PlaceOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	svc := newOrderStack(t, db)

	order, err := svc.CreateOrder(context.Background(), orderRequest("P001", "black", 2))

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 9000.0, order.Total)
	assert.Equal(t, 8, VariantStock(t, db.Pool, "P001", "black"))

	// Order is queryable by phone with its item snapshots.
	orders, err := svc.GetByPhone(context.Background(), "0551234567")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Aviator Classic", orders[0].Items[0].ProductName)
}

func TestOrderPipeline_FailedOrderReleasesStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	svc := newOrderStack(t, db)

	// Two line items; the second exceeds stock, so the first must roll back.
	req := orderRequest("P001", "black", 2)
	req.Items = append(req.Items, model.OrderItemRequest{ProductID: "P002", Quantity: 5, SelectedColor: "black"})

	_, err := svc.CreateOrder(context.Background(), req)

	require.Error(t, err)
	var de *model.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, model.ErrCodeInsufficientStock, de.Code)

	assert.Equal(t, 10, VariantStock(t, db.Pool, "P001", "black"))
	assert.Equal(t, 2, VariantStock(t, db.Pool, "P002", "black"))
}

func TestOrderPipeline_TwoBuyersLastTwoUnits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	svc := newOrderStack(t, db)

	// P002 black has 2 units; two buyers race for both of them.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(context.Background(), orderRequest("P002", "black", 2))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		lost++
		var de *model.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.ErrCodeInsufficientStock, de.Code)
		assert.Contains(t, de.Message, "Wayfarer")
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Equal(t, 0, VariantStock(t, db.Pool, "P002", "black"))
}

func TestOrderPipeline_ConcurrentOrdersNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	svc := newOrderStack(t, db)

	// 10 units of P001 black; 15 orders of 1 unit each race for them.
	const competitors = 15

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, competitors)
	outOfStock := make(chan struct{}, competitors)

	for i := 0; i < competitors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(context.Background(), orderRequest("P001", "black", 1))
			if err == nil {
				succeeded <- struct{}{}
				return
			}
			var de *model.DomainError
			if assert.ErrorAs(t, err, &de) {
				assert.Equal(t, model.ErrCodeInsufficientStock, de.Code)
			}
			outOfStock <- struct{}{}
		}()
	}
	wg.Wait()
	close(succeeded)
	close(outOfStock)

	assert.Equal(t, 10, len(succeeded))
	assert.Equal(t, 5, len(outOfStock))
	assert.Equal(t, 0, VariantStock(t, db.Pool, "P001", "black"))
}

func TestOrderPipeline_PromoUsageNeverExceedsLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	svc := newOrderStack(t, db)

	limit := 3
	promoID := SeedPromo(t, db.Pool, "FLASH25", model.DiscountTypeFixed, 500, 0, nil, &limit)

	// 8 concurrent redemptions against a limit of 3. Every order succeeds
	// (promo failure is never fatal); at most 3 carry the discount.
	const competitors = 8

	var wg sync.WaitGroup
	discounted := make(chan float64, competitors)
	for i := 0; i < competitors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := orderRequest("P003", "matte", 1)
			req.PromoCode = "FLASH25"
			order, err := svc.CreateOrder(context.Background(), req)
			if assert.NoError(t, err) {
				discounted <- order.Total
			}
		}()
	}
	wg.Wait()
	close(discounted)

	withDiscount := 0
	for total := range discounted {
		if total == 4700.0 {
			withDiscount++
		} else {
			assert.Equal(t, 5200.0, total)
		}
	}
	assert.Equal(t, limit, withDiscount)

	var usedCount int
	err := db.Pool.QueryRow(context.Background(),
		"SELECT used_count FROM promo_codes WHERE id = $1", promoID).Scan(&usedCount)
	require.NoError(t, err)
	assert.Equal(t, limit, usedCount)
}

func TestOrderPipeline_PercentageCapAndMinimum(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	SeedProducts(t, db.Pool)
	svc := newOrderStack(t, db)

	maxDiscount := 500.0
	SeedPromo(t, db.Pool, "SAVE10", model.DiscountTypePercentage, 10, 1000, &maxDiscount, nil)

	// 2x5200 = 10400; 10% is 1040, capped at 500.
	req := orderRequest("P003", "matte", 2)
	req.PromoCode = "SAVE10"

	order, err := svc.CreateOrder(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 9900.0, order.Total)
}
