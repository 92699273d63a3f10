package promo

import (
	"context"
	"time"

	"hexashop/internal/model"
	"hexashop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Result is a successful validation: the matched code and the discount it
// yields for the checked amount.
type Result struct {
	Promo    *model.PromoCode
	Discount float64
}

// Validator evaluates promo codes against the durable store.
type Validator interface {
	// Validate looks the code up inside the transaction and runs the
	// validity checks against the pre-discount order amount. The returned
	// error is always a PROMO_INVALID domain error describing the first
	// failed check.
	Validate(ctx context.Context, tx pgx.Tx, code string, orderAmount float64, now time.Time) (*Result, error)

	// Preview is Validate outside any transaction, for the read-only
	// cart preview endpoint. It never increments used_count.
	Preview(ctx context.Context, code string, orderAmount float64, now time.Time) (*Result, error)
}

// validator implements Validator backed by a PromoRepository.
type validator struct {
	repo   repository.PromoRepository
	logger zerolog.Logger
}

// NewValidator creates a new promo validator.
func NewValidator(repo repository.PromoRepository, logger zerolog.Logger) Validator {
	return &validator{
		repo:   repo,
		logger: logger.With().Str("component", "promo-validator").Logger(),
	}
}

// Validate looks the code up inside the transaction and evaluates it.
func (v *validator) Validate(ctx context.Context, tx pgx.Tx, code string, orderAmount float64, now time.Time) (*Result, error) {
	p, err := v.repo.GetByCodeTx(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	return v.evaluate(p, code, orderAmount, now)
}

// Preview evaluates the code outside a transaction.
func (v *validator) Preview(ctx context.Context, code string, orderAmount float64, now time.Time) (*Result, error) {
	p, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return v.evaluate(p, code, orderAmount, now)
}

func (v *validator) evaluate(p *model.PromoCode, code string, orderAmount float64, now time.Time) (*Result, error) {
	if err := Check(p, orderAmount, now); err != nil {
		v.logger.Debug().
			Str("code", code).
			Float64("order_amount", orderAmount).
			Str("reason", err.Error()).
			Msg("promo code rejected")
		return nil, err
	}

	discount := Discount(p, orderAmount)
	v.logger.Debug().
		Str("code", p.Code).
		Float64("order_amount", orderAmount).
		Float64("discount", discount).
		Msg("promo code validated")

	return &Result{Promo: p, Discount: discount}, nil
}
