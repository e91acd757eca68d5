package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"carfix/internal/model"
)

// OrderRow is an order with its customer's name.
type OrderRow struct {
	ID            uint            `json:"id" gorm:"column:id"`
	Customer      string          `json:"customer" gorm:"column:customer"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"column:total_amount"`
	Status        string          `json:"status" gorm:"column:status"`
	PaymentStatus string          `json:"payment_status" gorm:"column:payment_status"`
}

type WishlistRow struct {
	ID      uint            `json:"id" gorm:"column:id"`
	Product string          `json:"product" gorm:"column:product"`
	Price   decimal.Decimal `json:"price" gorm:"column:price"`
}

type ReviewRow struct {
	ID         uint   `json:"id" gorm:"column:id"`
	Product    string `json:"product" gorm:"column:product"`
	Reviewer   string `json:"reviewer" gorm:"column:reviewer"`
	Rating     int    `json:"rating" gorm:"column:rating"`
	Title      string `json:"title" gorm:"column:title"`
	Comment    string `json:"comment" gorm:"column:comment"`
	IsVerified bool   `json:"is_verified" gorm:"column:is_verified"`
	IsApproved bool   `json:"is_approved" gorm:"column:is_approved"`
}

// ActivityRepository reads order history and the other per-user tables that
// are written outside this service.
type ActivityRepository interface {
	// ListOrders returns the user's orders, or every order when userID is 0.
	ListOrders(ctx context.Context, userID uint) ([]OrderRow, error)
	ListWishlist(ctx context.Context, userID uint) ([]WishlistRow, error)
	ListNotifications(ctx context.Context, userID uint) ([]model.Notification, error)
	ListReviews(ctx context.Context) ([]ReviewRow, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) ListOrders(ctx context.Context, userID uint) ([]OrderRow, error) {
	q := r.db.WithContext(ctx).Table("orders o").
		Select("o.id, u.name AS customer, o.total_amount, o.status, o.payment_status").
		Joins("JOIN users u ON u.id = o.user_id")
	if userID != 0 {
		q = q.Where("o.user_id = ?", userID)
	}

	var rows []OrderRow
	if err := q.Order("o.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepository) ListWishlist(ctx context.Context, userID uint) ([]WishlistRow, error) {
	var rows []WishlistRow
	err := r.db.WithContext(ctx).Table("wishlist w").
		Select("w.id, p.name AS product, p.price").
		Joins("JOIN products p ON p.id = w.product_id").
		Where("w.user_id = ?", userID).
		Order("w.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepository) ListNotifications(ctx context.Context, userID uint) ([]model.Notification, error) {
	var rows []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepository) ListReviews(ctx context.Context) ([]ReviewRow, error) {
	var rows []ReviewRow
	err := r.db.WithContext(ctx).Table("reviews r").
		Select("r.id, p.name AS product, u.name AS reviewer, r.rating, r.title, r.comment, r.is_verified, r.is_approved").
		Joins("JOIN products p ON p.id = r.product_id").
		Joins("JOIN users u ON u.id = r.user_id").
		Order("r.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
