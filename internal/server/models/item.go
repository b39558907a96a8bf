package models

import "math"

// MaxAmount bounds prices and order totals: the API serializes amounts as
// 32-bit GraphQL Ints.
const MaxAmount = math.MaxInt32

// Item is a catalog row. Price is in minor currency units.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	LargeImage  string `json:"largeImage"`
	Price       int64  `json:"price"`
	UserID      string `json:"userId"`
}
