package models

import (
	"time"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

type Order struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CustomerID string `gorm:"type:varchar(36);index" json:"customer_id,omitempty"`
	// PaymentSessionID references the external payment provider's checkout
	// session. It is the idempotency key for webhook redeliveries.
	PaymentSessionID string      `gorm:"type:varchar(100);index" json:"payment_session_id,omitempty"`
	PaymentIntentID  string      `gorm:"type:varchar(100)" json:"payment_intent_id,omitempty"`
	ShippingAddress  string      `gorm:"type:varchar(255)" json:"shipping_address,omitempty"`
	TotalAmount      float64     `gorm:"type:decimal(10,2)" json:"total_amount"`
	Status           string      `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Items            []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem copies name and price from the cart line at checkout time. The
// price is a snapshot, never a live reference to the product row.
type OrderItem struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID     string  `gorm:"type:varchar(36);index;not null" json:"-"`
	ProductID   string  `gorm:"type:varchar(36);not null" json:"product_id"`
	ProductName string  `gorm:"type:varchar(100)" json:"product_name"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	Price       float64 `gorm:"type:decimal(10,2)" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
