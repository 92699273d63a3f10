package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"hexashop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	db     DB
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db DB, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, phone_number, customer_name, wilaya, address, status, total, delivery_updates, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	updates, err := json.Marshal(order.DeliveryUpdates)
	if err != nil {
		return fmt.Errorf("failed to encode delivery updates: %w", err)
	}

	_, err = tx.Exec(ctx, query,
		order.ID, order.PhoneNumber, order.CustomerName, order.Wilaya, order.Address,
		order.Status, order.Total, updates, order.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, price, color, image, selected_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.OrderID, item.ProductID, item.ProductName, item.Quantity,
			item.Price, item.Color, item.Image, item.SelectedColor,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByPhone retrieves all orders for a phone number, newest first, with
// their items attached.
func (r *orderRepository) GetByPhone(ctx context.Context, phone string) ([]model.Order, error) {
	query := `
		SELECT id, phone_number, customer_name, wilaya, address, status, total, delivery_updates, created_at
		FROM orders
		WHERE phone_number = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, phone)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders by phone")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	var ids []string
	for rows.Next() {
		var o model.Order
		var updates []byte
		err := rows.Scan(
			&o.ID, &o.PhoneNumber, &o.CustomerName, &o.Wilaya, &o.Address,
			&o.Status, &o.Total, &updates, &o.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if len(updates) > 0 {
			if err := json.Unmarshal(updates, &o.DeliveryUpdates); err != nil {
				return nil, fmt.Errorf("failed to decode delivery updates: %w", err)
			}
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

// loadItems fetches order items for the given order ids, keyed by order id.
func (r *orderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, price, color, image, selected_color
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.Price, &item.Color, &item.Image, &item.SelectedColor,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}
