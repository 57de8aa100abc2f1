package models

import (
	"time"
)

type Category struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	CategoryID  string    `gorm:"type:varchar(36);index" json:"category_id"`
	// Rating is the arithmetic mean of all rating values for this product,
	// recomputed on every rating submission.
	Rating    float64   `gorm:"type:decimal(3,2);default:0" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Rating is unique per (product, customer); a second submission by the same
// customer overwrites the first.
type Rating struct {
	ProductID  string    `gorm:"primaryKey;type:varchar(36)" json:"product_id"`
	CustomerID string    `gorm:"primaryKey;type:varchar(36)" json:"customer_id"`
	Value      int       `gorm:"not null" json:"value"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Rating) TableName() string {
	return "ratings"
}
