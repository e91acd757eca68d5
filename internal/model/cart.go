package model

import "time"

// CartItem is one line of a customer's cart. There is at most one line per
// (user, product) pair; adding the same product again merges into it.
type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_cart_user_product;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `json:"-" gorm:"foreignKey:ProductID"`
}

// TableName keeps the table name used by the storefront database.
func (CartItem) TableName() string {
	return "cart"
}
