package model

import "time"

// Category groups products. Categories are soft-deleted, never removed.
type Category struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"size:255;not null;index"`
	Description string     `json:"description" gorm:"type:text"`
	IsFeatured  bool       `json:"is_featured" gorm:"not null;default:false"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	IsDeleted   bool       `json:"-" gorm:"not null;default:false;index"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// Brand is a flat reference table of part manufacturers.
type Brand struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	IsFeatured  bool      `json:"is_featured" gorm:"not null;default:false"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
