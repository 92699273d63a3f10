package model

import "time"

// Order statuses, in their forward-only lifecycle order.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

// DeliveryUpdate is one entry of an order's tracking history.
type DeliveryUpdate struct {
	Date    time.Time `json:"date"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// Order represents a customer purchase record. Orders are written once by
// the order transaction and never mutated afterwards; status changes happen
// through the administrative flow.
type Order struct {
	ID              string           `json:"orderId" db:"id"`
	PhoneNumber     string           `json:"phoneNumber" db:"phone_number"`
	CustomerName    string           `json:"customerName" db:"customer_name"`
	Wilaya          string           `json:"wilaya" db:"wilaya"`
	Address         string           `json:"address" db:"address"`
	Status          string           `json:"status" db:"status"`
	Total           float64          `json:"total" db:"total"`
	Items           []OrderItem      `json:"items"`
	DeliveryUpdates []DeliveryUpdate `json:"deliveryUpdates"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
}

// OrderItem is one line of an order. Name and price are snapshots taken at
// reservation time and stay immutable even if the product later changes.
type OrderItem struct {
	ID            int64   `json:"-" db:"id"`
	OrderID       string  `json:"-" db:"order_id"`
	ProductID     string  `json:"productId" db:"product_id"`
	ProductName   string  `json:"name" db:"product_name"`
	Quantity      int     `json:"quantity" db:"quantity"`
	Price         float64 `json:"price" db:"price"`
	Color         string  `json:"color" db:"color"`
	Image         string  `json:"image" db:"image"`
	SelectedColor string  `json:"selected_color" db:"selected_color"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	PhoneNumber  string             `json:"phoneNumber"`
	CustomerName string             `json:"customerName"`
	Wilaya       string             `json:"wilaya"`
	Address      string             `json:"address"`
	Items        []OrderItemRequest `json:"items"`
	PromoCode    string             `json:"promoCode,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	SelectedColor string `json:"selected_color"`
	Color         string `json:"color"`
	Image         string `json:"image"`
}

// OrderResponse represents the response payload for a created order.
type OrderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	Order   *Order `json:"order"`
}
