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

func setupPromoRepo(t *testing.T) (PromoRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewPromoRepository(mock, zerolog.Nop()), mock
}

func promoRowColumns() []string {
	return []string{
		"id", "code", "discount_type", "discount_value", "min_order_amount",
		"max_discount", "usage_limit", "used_count", "valid_from", "valid_until",
		"is_active", "created_at",
	}
}

func samplePromo() *model.PromoCode {
	maxDiscount := 500.0
	limit := 100
	return &model.PromoCode{
		ID:             1,
		Code:           "SAVE10",
		DiscountType:   model.DiscountTypePercentage,
		DiscountValue:  10,
		MinOrderAmount: 1000,
		MaxDiscount:    &maxDiscount,
		UsageLimit:     &limit,
		UsedCount:      42,
		ValidFrom:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func promoRow(p *model.PromoCode) *pgxmock.Rows {
	return pgxmock.NewRows(promoRowColumns()).AddRow(
		p.ID, p.Code, p.DiscountType, p.DiscountValue, p.MinOrderAmount,
		p.MaxDiscount, p.UsageLimit, p.UsedCount, p.ValidFrom, p.ValidUntil,
		p.IsActive, p.CreatedAt,
	)
}

func TestPromoRepository_GetByCode_Uppercases(t *testing.T) {
	repo, mock := setupPromoRepo(t)
	defer mock.Close()

	p := samplePromo()
	mock.ExpectQuery("SELECT (.+) FROM promo_codes WHERE code = \\$1").
		WithArgs("SAVE10").
		WillReturnRows(promoRow(p))

	got, err := repo.GetByCode(context.Background(), "  save10 ")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SAVE10", got.Code)
	assert.Equal(t, 42, got.UsedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoRepository_GetByCode_Absent(t *testing.T) {
	repo, mock := setupPromoRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM promo_codes WHERE code = \\$1").
		WithArgs("NOPE").
		WillReturnRows(pgxmock.NewRows(promoRowColumns()))

	got, err := repo.GetByCode(context.Background(), "nope")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoRepository_IncrementUsage(t *testing.T) {
	repo, mock := setupPromoRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE promo_codes").
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	applied, err := repo.IncrementUsage(context.Background(), tx, 1)

	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoRepository_IncrementUsage_LimitReached(t *testing.T) {
	repo, mock := setupPromoRepo(t)
	defer mock.Close()

	// The WHERE guard matched no row: limit already consumed.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE promo_codes").
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	applied, err := repo.IncrementUsage(context.Background(), tx, 1)

	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoRepository_Upsert(t *testing.T) {
	repo, mock := setupPromoRepo(t)
	defer mock.Close()

	p := samplePromo()
	p.Code = "save10"

	mock.ExpectExec("INSERT INTO promo_codes").
		WithArgs(
			"SAVE10", p.DiscountType, p.DiscountValue, p.MinOrderAmount,
			p.MaxDiscount, p.UsageLimit, p.UsedCount, p.ValidFrom, p.ValidUntil,
			p.IsActive, p.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), p)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
