// Package promo evaluates promo codes against their validity rules and
// computes discounts. Redemption itself (the used_count increment) belongs
// to the order transaction so it commits atomically with the order.
package promo

import (
	"fmt"
	"time"

	"hexashop/internal/model"
)

// Check evaluates the validity rules in order, short-circuiting on the first
// failure: exists, active, inside window, under usage limit, minimum order
// amount. A nil return means the code may be applied to orderAmount at now.
func Check(p *model.PromoCode, orderAmount float64, now time.Time) error {
	if p == nil {
		return model.ErrPromoNotFound
	}

	if !p.IsActive {
		return model.NewPromoInvalid("Promo code is not active")
	}

	if now.Before(p.ValidFrom) {
		return model.NewPromoInvalid("Promo code is not yet active")
	}

	if now.After(p.ValidUntil) {
		return model.NewPromoInvalid("Promo code has expired")
	}

	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return model.NewPromoInvalid("Promo code usage limit reached")
	}

	if orderAmount < p.MinOrderAmount {
		return model.NewPromoInvalid(fmt.Sprintf("Minimum order amount of %.2f DZD required", p.MinOrderAmount))
	}

	return nil
}

// Discount computes the discount amount for the given order amount, rounded
// to currency precision. Percentage discounts are capped at MaxDiscount when
// set; fixed discounts never exceed the order amount.
func Discount(p *model.PromoCode, orderAmount float64) float64 {
	switch p.DiscountType {
	case model.DiscountTypePercentage:
		discount := orderAmount * p.DiscountValue / 100
		if p.MaxDiscount != nil && discount > *p.MaxDiscount {
			discount = *p.MaxDiscount
		}
		return model.Round2(discount)
	default: // fixed amount
		discount := p.DiscountValue
		if discount > orderAmount {
			discount = orderAmount
		}
		return model.Round2(discount)
	}
}
