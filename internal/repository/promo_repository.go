package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hexashop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const promoColumns = `id, code, discount_type, discount_value, min_order_amount, max_discount,
		usage_limit, used_count, valid_from, valid_until, is_active, created_at`

// promoRepository implements the PromoRepository interface using PostgreSQL.
type promoRepository struct {
	db     DB
	logger zerolog.Logger
}

// NewPromoRepository creates a new PostgreSQL-backed promo code repository.
func NewPromoRepository(db DB, logger zerolog.Logger) PromoRepository {
	return &promoRepository{
		db:     db,
		logger: logger.With().Str("repository", "promo").Logger(),
	}
}

// GetByCode retrieves a promo code, nil when absent. Codes are stored and
// looked up uppercased.
func (r *promoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	return r.getByCode(ctx, r.db, code)
}

// GetByCodeTx retrieves a promo code inside the provided transaction.
func (r *promoRepository) GetByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*model.PromoCode, error) {
	return r.getByCode(ctx, tx, code)
}

func (r *promoRepository) getByCode(ctx context.Context, q querier, code string) (*model.PromoCode, error) {
	query := fmt.Sprintf(`SELECT %s FROM promo_codes WHERE code = $1`, promoColumns)

	var p model.PromoCode
	err := q.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.MinOrderAmount,
		&p.MaxDiscount, &p.UsageLimit, &p.UsedCount,
		&p.ValidFrom, &p.ValidUntil, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query promo code")
		return nil, fmt.Errorf("failed to query promo code: %w", err)
	}

	return &p, nil
}

// IncrementUsage advances used_count by one, guarded by the usage limit so a
// concurrent redemption racing past the validity check cannot overshoot it.
func (r *promoRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	query := `
		UPDATE promo_codes
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	ct, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("promo_id", id).Msg("failed to increment promo usage")
		return false, fmt.Errorf("failed to increment promo usage: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// Upsert inserts or updates a promo definition by code.
func (r *promoRepository) Upsert(ctx context.Context, p *model.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, discount_type, discount_value, min_order_amount, max_discount,
			usage_limit, used_count, valid_from, valid_until, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			min_order_amount = EXCLUDED.min_order_amount,
			max_discount = EXCLUDED.max_discount,
			usage_limit = EXCLUDED.usage_limit,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			is_active = EXCLUDED.is_active
	`

	_, err := r.db.Exec(ctx, query,
		strings.ToUpper(strings.TrimSpace(p.Code)), p.DiscountType, p.DiscountValue,
		p.MinOrderAmount, p.MaxDiscount, p.UsageLimit, p.UsedCount,
		p.ValidFrom, p.ValidUntil, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("code", p.Code).Msg("failed to upsert promo code")
		return fmt.Errorf("failed to upsert promo code: %w", err)
	}

	return nil
}
