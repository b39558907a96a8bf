package models

import "time"

// Order is a paid cart. Total is the amount the payment gateway confirmed,
// Charge is the gateway's charge id. Orders are never updated.
type Order struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Total     int64        `json:"total"`
	Charge    string       `json:"charge"`
	Items     []*OrderItem `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
}

// OrderItem copies the catalog fields at purchase time so later edits to
// the item do not change the order.
type OrderItem struct {
	ID          string `json:"id"`
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	LargeImage  string `json:"largeImage"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// NewOrderItem denormalizes a joined cart line into an order line.
func NewOrderItem(userID string, ci *CartItem) *OrderItem {
	oi := &OrderItem{UserID: userID, Quantity: ci.Quantity}
	if ci.Item != nil {
		oi.Title = ci.Item.Title
		oi.Description = ci.Item.Description
		oi.Image = ci.Item.Image
		oi.LargeImage = ci.Item.LargeImage
		oi.Price = ci.Item.Price
	}
	return oi
}
