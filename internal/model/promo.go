package model

import "time"

// Promo discount kinds.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// PromoCode is a discount rule. UsedCount is only ever advanced by the order
// transaction, atomically with the order the code was redeemed for.
type PromoCode struct {
	ID             int64     `json:"id" db:"id"`
	Code           string    `json:"code" db:"code"`
	DiscountType   string    `json:"discount_type" db:"discount_type"`
	DiscountValue  float64   `json:"discount_value" db:"discount_value"`
	MinOrderAmount float64   `json:"min_order_amount" db:"min_order_amount"`
	MaxDiscount    *float64  `json:"max_discount" db:"max_discount"`
	UsageLimit     *int      `json:"usage_limit" db:"usage_limit"`
	UsedCount      int       `json:"used_count" db:"used_count"`
	ValidFrom      time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil     time.Time `json:"valid_until" db:"valid_until"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
