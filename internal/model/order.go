package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is read-only here; checkout lives outside this service.
type Order struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"not null;index"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Status        string          `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus string          `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items []OrderItem `json:"-" gorm:"foreignKey:OrderID"`
}

// OrderItem feeds the derived total_orders / total_sold product figures.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
}

type Wishlist struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name used by the storefront database.
func (Wishlist) TableName() string {
	return "wishlist"
}

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Message   string    `json:"message" gorm:"type:text"`
	Type      string    `json:"type" gorm:"type:varchar(50)"`
	IsRead    bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProductID  uint      `json:"product_id" gorm:"not null;index"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	Title      string    `json:"title" gorm:"size:255"`
	Comment    string    `json:"comment" gorm:"type:text"`
	IsVerified bool      `json:"is_verified" gorm:"not null;default:false"`
	IsApproved bool      `json:"is_approved" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
}
