// Package inventory owns per-variant stock. Durable counts live in the
// product_variants table; a reservation is a single conditional decrement
// inside the caller's transaction, so the database row is the only
// serialization point between concurrent orders for the same variant.
package inventory

import (
	"context"
	"fmt"
	"time"

	"hexashop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Ledger defines stock and pricing operations used by the order transaction.
type Ledger interface {
	// StockOf returns the current stock for a color variant, 0 if absent.
	StockOf(p *model.Product, color string) int

	// CurrentPrice returns the price in effect at the given instant.
	CurrentPrice(p *model.Product, now time.Time) float64

	// Reserve atomically decrements the variant's stock by qty if and only
	// if stock >= qty, inside the provided transaction. On insufficient
	// stock it fails without side effects.
	Reserve(ctx context.Context, tx pgx.Tx, productID, color string, qty int) error
}

// ledger implements Ledger against PostgreSQL.
type ledger struct {
	logger zerolog.Logger
}

// NewLedger creates a new inventory ledger.
func NewLedger(logger zerolog.Logger) Ledger {
	return &ledger{
		logger: logger.With().Str("component", "inventory-ledger").Logger(),
	}
}

// StockOf returns the current stock for a color variant.
func (l *ledger) StockOf(p *model.Product, color string) int {
	return p.ColorStock(color)
}

// CurrentPrice returns the discount price while the discount window is
// active, the base price otherwise.
func (l *ledger) CurrentPrice(p *model.Product, now time.Time) float64 {
	return p.CurrentPrice(now)
}

// Reserve decrements the variant's stock with one conditional statement.
// Never read-then-write: the WHERE clause carries the availability check, so
// two concurrent reservations cannot both pass against a stale count. The
// decrement stays invisible to other transactions until the caller commits;
// rollback releases it.
func (l *ledger) Reserve(ctx context.Context, tx pgx.Tx, productID, color string, qty int) error {
	if qty <= 0 {
		return model.NewValidationError("Quantity must be greater than zero")
	}

	query := `
		UPDATE product_variants
		SET stock = stock - $3
		WHERE product_id = $1 AND name = $2 AND stock >= $3
	`

	ct, err := tx.Exec(ctx, query, productID, color, qty)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("product_id", productID).
			Str("color", color).
			Int("quantity", qty).
			Msg("failed to reserve stock")
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		l.logger.Debug().
			Str("product_id", productID).
			Str("color", color).
			Int("quantity", qty).
			Msg("reservation rejected, insufficient stock")
		return model.NewInsufficientStock(productID, color)
	}

	return nil
}
