package models

import (
	"time"
)

// Cart is the JSON snapshot stored under cart:<session> in Redis with a 24h
// TTL. It is read and written whole; concurrent writers to the same session
// are last-write-wins.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	// MergedFrom records the guest session last merged into this cart on
	// login. Session-scoped state, never a process-wide flag.
	MergedFrom string    `json:"merged_from,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CartItem carries a point-in-time snapshot of the product's name and price
// taken when the line was added. Later catalog changes do not alter it.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// RecalculateSubtotal sums line price*quantity into Subtotal.
func (c *Cart) RecalculateSubtotal() {
	var subtotal float64
	for _, item := range c.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	c.Subtotal = subtotal
}
