package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a part listed by exactly one seller.
// Products are soft-deleted so order history keeps resolving.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	Featured    bool            `json:"featured" gorm:"not null;default:false;index"`
	IsActive    bool            `json:"is_active" gorm:"not null;default:true;index"`
	IsDeleted   bool            `json:"is_deleted" gorm:"not null;default:false;index"`
	CategoryID  uint            `json:"category_id" gorm:"not null;index"`
	BrandID     uint            `json:"brand_id" gorm:"not null;index"`
	SellerID    uint            `json:"seller_id" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Category Category       `json:"-" gorm:"foreignKey:CategoryID"`
	Brand    Brand          `json:"-" gorm:"foreignKey:BrandID"`
	Seller   User           `json:"-" gorm:"foreignKey:SellerID"`
	Images   []ProductImage `json:"-" gorm:"foreignKey:ProductID"`
}

// ProductImage references an image object, either a local upload path
// (/uploads/<key>) or an externally hosted URL.
type ProductImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	ImageURL  string    `json:"image_url" gorm:"size:1024;not null"`
	IsPrimary bool      `json:"is_primary" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}
