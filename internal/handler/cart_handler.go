package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hexashop/internal/model"
	"hexashop/internal/promo"

	"github.com/rs/zerolog"
)

// CartHandler handles cart-side requests that run before an order exists.
type CartHandler struct {
	validator promo.Validator
	logger    zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(validator promo.Validator, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		validator: validator,
		logger:    logger.With().Str("handler", "cart").Logger(),
	}
}

// PromoPreviewRequest is the payload for a promo dry run against a cart total.
type PromoPreviewRequest struct {
	Code        string  `json:"code"`
	OrderAmount float64 `json:"orderAmount"`
}

// PromoPreviewResponse reports whether the code would apply and at what
// discount. A rejected code is a 200 with valid=false: the storefront shows
// the message inline rather than treating it as a request failure.
type PromoPreviewResponse struct {
	Valid          bool    `json:"valid"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
	FinalAmount    float64 `json:"final_amount,omitempty"`
	DiscountType   string  `json:"discount_type,omitempty"`
	DiscountValue  float64 `json:"discount_value,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// ValidatePromo handles POST /api/cart/validate-promo requests. This is a
// read-only preview: usage counters only move when an order redeems the code.
func (h *CartHandler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	var req PromoPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "promo code is required", h.logger)
		return
	}
	if req.OrderAmount < 0 {
		writeError(w, http.StatusBadRequest, "order amount cannot be negative", h.logger)
		return
	}

	result, err := h.validator.Preview(r.Context(), req.Code, req.OrderAmount, time.Now().UTC())
	if err != nil {
		var de *model.DomainError
		if errors.As(err, &de) && de.Code == model.ErrCodePromoInvalid {
			writeJSON(w, http.StatusOK, PromoPreviewResponse{Valid: false, Message: de.Message})
			return
		}
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, PromoPreviewResponse{
		Valid:          true,
		DiscountAmount: result.Discount,
		FinalAmount:    model.Round2(req.OrderAmount - result.Discount),
		DiscountType:   result.Promo.DiscountType,
		DiscountValue:  result.Promo.DiscountValue,
	})
}
