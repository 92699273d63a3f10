package promo

import (
	"context"
	"testing"
	"time"

	"hexashop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPromoRepo serves a single promo code from memory.
type stubPromoRepo struct {
	promo *model.PromoCode
}

func (s *stubPromoRepo) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	if s.promo != nil && s.promo.Code == code {
		return s.promo, nil
	}
	return nil, nil
}

func (s *stubPromoRepo) GetByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*model.PromoCode, error) {
	return s.GetByCode(ctx, code)
}

func (s *stubPromoRepo) IncrementUsage(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	return true, nil
}

func (s *stubPromoRepo) Upsert(ctx context.Context, p *model.PromoCode) error {
	return nil
}

func TestValidator_Preview(t *testing.T) {
	v := NewValidator(&stubPromoRepo{promo: activePromo()}, zerolog.Nop())

	res, err := v.Preview(context.Background(), "SAVE10", 10000, time.Now().UTC())

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "SAVE10", res.Promo.Code)
	assert.Equal(t, 500.0, res.Discount)
}

func TestValidator_Preview_UnknownCode(t *testing.T) {
	v := NewValidator(&stubPromoRepo{}, zerolog.Nop())

	res, err := v.Preview(context.Background(), "NOPE", 10000, time.Now().UTC())

	require.Error(t, err)
	assert.Nil(t, res)
	var de *model.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, model.ErrCodePromoInvalid, de.Code)
}
