package model

import (
	"encoding/json"
	"time"
)

// Product models, values for the "model" column.
const (
	ModelMen   = "Men"
	ModelWomen = "Women"
	ModelKids  = "Kids"
)

// Product types.
const (
	TypeSunglasses = "sunglasses"
	TypeEyeglasses = "eyeglasses"
)

// ColorVariant is a per-color stock unit of a product. It is the unit of
// reservation: an order item always targets exactly one variant.
type ColorVariant struct {
	Name   string   `json:"name"`
	Images []string `json:"images"`
	Stock  int      `json:"stock"`
}

// Product represents a catalogue item with per-color stock.
type Product struct {
	ID              string          `json:"id" db:"id"`
	Title           string          `json:"title" db:"title"`
	Price           float64         `json:"price" db:"price"`
	Brand           string          `json:"brand" db:"brand"`
	Description     string          `json:"description" db:"description"`
	Model           string          `json:"model" db:"model"`
	FrameShape      string          `json:"frame_shape" db:"frame_shape"`
	FrameMaterial   string          `json:"frame_material" db:"frame_material"`
	FrameColor      string          `json:"frame_color" db:"frame_color"`
	Lenses          string          `json:"lenses" db:"lenses"`
	Protection      string          `json:"protection" db:"protection"`
	Dimensions      string          `json:"dimensions" db:"dimensions"`
	Images          json.RawMessage `json:"images" db:"images"`
	Type            string          `json:"type" db:"type"`
	DiscountPrice   *float64        `json:"discount_price" db:"discount_price"`
	DiscountActive  bool            `json:"discount_active" db:"discount_active"`
	DiscountStart   *time.Time      `json:"discount_start" db:"discount_start"`
	DiscountEnd     *time.Time      `json:"discount_end" db:"discount_end"`
	AvailableColors []ColorVariant  `json:"available_colors"`
	IsFeatured      bool            `json:"is_featured" db:"is_featured"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// HasActiveDiscount reports whether the discount price applies at the given
// instant. When a validity window is set, now must fall inside it; otherwise
// the active flag alone decides.
func (p *Product) HasActiveDiscount(now time.Time) bool {
	if !p.DiscountActive || p.DiscountPrice == nil {
		return false
	}
	if p.DiscountStart != nil && p.DiscountEnd != nil {
		return !now.Before(*p.DiscountStart) && !now.After(*p.DiscountEnd)
	}
	return p.DiscountActive
}

// CurrentPrice returns the price in effect at the given instant: the discount
// price when the discount is active, the base price otherwise.
func (p *Product) CurrentPrice(now time.Time) float64 {
	if p.HasActiveDiscount(now) {
		return *p.DiscountPrice
	}
	return p.Price
}

// ColorStock returns the stock for the named color variant, 0 if the variant
// is absent.
func (p *Product) ColorStock(name string) int {
	for _, c := range p.AvailableColors {
		if c.Name == name {
			return c.Stock
		}
	}
	return 0
}

// TotalQuantity is the sum of all variant stocks.
func (p *Product) TotalQuantity() int {
	total := 0
	for _, c := range p.AvailableColors {
		total += c.Stock
	}
	return total
}

// MarshalJSON adds the derived has_active_discount and total_quantity fields
// the storefront expects alongside the stored columns.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	images := p.Images
	if len(images) == 0 {
		images = json.RawMessage(`{}`)
	}
	colors := p.AvailableColors
	if colors == nil {
		colors = []ColorVariant{}
	}
	return json.Marshal(struct {
		alias
		Images            json.RawMessage `json:"images"`
		AvailableColors   []ColorVariant  `json:"available_colors"`
		HasActiveDiscount bool            `json:"has_active_discount"`
		TotalQuantity     int             `json:"total_quantity"`
	}{
		alias:             alias(p),
		Images:            images,
		AvailableColors:   colors,
		HasActiveDiscount: p.HasActiveDiscount(time.Now().UTC()),
		TotalQuantity:     p.TotalQuantity(),
	})
}

// ProductRequest represents the payload for creating or updating a product.
type ProductRequest struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Price           *float64        `json:"price"`
	Brand           string          `json:"brand"`
	Description     string          `json:"description"`
	Model           string          `json:"model"`
	FrameShape      string          `json:"frame_shape"`
	FrameMaterial   string          `json:"frame_material"`
	FrameColor      string          `json:"frame_color"`
	Lenses          string          `json:"lenses"`
	Protection      string          `json:"protection"`
	Dimensions      string          `json:"dimensions"`
	Images          json.RawMessage `json:"images"`
	Type            string          `json:"type"`
	DiscountPrice   *float64        `json:"discount_price"`
	DiscountActive  *bool           `json:"discount_active"`
	DiscountStart   *string         `json:"discount_start"`
	DiscountEnd     *string         `json:"discount_end"`
	AvailableColors []ColorVariant  `json:"available_colors"`
	IsFeatured      *bool           `json:"is_featured"`
}
