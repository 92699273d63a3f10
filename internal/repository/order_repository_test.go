package repository

import (
	"context"
	"testing"
	"time"

	"hexashop/internal/model"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderRepo(t *testing.T) (OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewOrderRepository(mock, zerolog.Nop()), mock
}

func sampleOrder() *model.Order {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Order{
		ID:           "ORD-AAAAAAAAAA",
		PhoneNumber:  "0551234567",
		CustomerName: "Amine B",
		Wilaya:       "Alger",
		Address:      "12 Rue Didouche Mourad",
		Status:       model.OrderStatusPending,
		Total:        8999.99,
		DeliveryUpdates: []model.DeliveryUpdate{
			{Date: now, Status: "ordered", Message: "Order received"},
		},
		CreatedAt: now,
	}
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.PhoneNumber, o.CustomerName, o.Wilaya, o.Address,
			o.Status, o.Total, pgxmock.AnyArg(), o.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)

	err = repo.CreateOrder(context.Background(), tx, o)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateOrderItems_Batch(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	items := []model.OrderItem{
		{OrderID: "ORD-AAAAAAAAAA", ProductID: "P001", ProductName: "Aviator Classic", Quantity: 2, Price: 4500, SelectedColor: "black"},
		{OrderID: "ORD-AAAAAAAAAA", ProductID: "P002", ProductName: "Wayfarer", Quantity: 1, Price: 3999.99, SelectedColor: "gold"},
	}

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec("INSERT INTO order_items").
		WithArgs(items[0].OrderID, items[0].ProductID, items[0].ProductName, items[0].Quantity,
			items[0].Price, items[0].Color, items[0].Image, items[0].SelectedColor).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec("INSERT INTO order_items").
		WithArgs(items[1].OrderID, items[1].ProductID, items[1].ProductName, items[1].Quantity,
			items[1].Price, items[1].Color, items[1].Image, items[1].SelectedColor).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)

	err = repo.CreateOrderItems(context.Background(), tx, items)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateOrderItems_Empty(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)

	err = repo.CreateOrderItems(context.Background(), tx, nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByPhone(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()
	orderRows := pgxmock.NewRows([]string{
		"id", "phone_number", "customer_name", "wilaya", "address", "status", "total", "delivery_updates", "created_at",
	}).AddRow(
		o.ID, o.PhoneNumber, o.CustomerName, o.Wilaya, o.Address, o.Status, o.Total,
		[]byte(`[{"date":"2026-06-01T12:00:00Z","status":"ordered","message":"Order received"}]`), o.CreatedAt,
	)
	itemRows := pgxmock.NewRows([]string{
		"id", "order_id", "product_id", "product_name", "quantity", "price", "color", "image", "selected_color",
	}).AddRow(
		int64(1), o.ID, "P001", "Aviator Classic", 2, 4500.0, "", "", "black",
	)

	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs("0551234567").
		WillReturnRows(orderRows)
	mock.ExpectQuery("SELECT (.+) FROM order_items").
		WithArgs([]string{o.ID}).
		WillReturnRows(itemRows)

	orders, err := repo.GetByPhone(context.Background(), "0551234567")

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Aviator Classic", orders[0].Items[0].ProductName)
	require.Len(t, orders[0].DeliveryUpdates, 1)
	assert.Equal(t, "ordered", orders[0].DeliveryUpdates[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByPhone_NoOrders(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs("0599999999").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "phone_number", "customer_name", "wilaya", "address", "status", "total", "delivery_updates", "created_at",
		}))

	orders, err := repo.GetByPhone(context.Background(), "0599999999")

	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}
