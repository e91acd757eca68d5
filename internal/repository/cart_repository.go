package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"carfix/internal/model"
)

// CartLine is a cart row joined with live product data.
type CartLine struct {
	ID          uint            `json:"id" gorm:"column:id"`
	ProductID   uint            `json:"product_id" gorm:"column:product_id"`
	ProductName string          `json:"product_name" gorm:"column:product_name"`
	Price       decimal.Decimal `json:"price" gorm:"column:price"`
	Quantity    int             `json:"quantity" gorm:"column:quantity"`
	Stock       int             `json:"stock" gorm:"column:stock"`
	ImageURL    *string         `json:"image_url" gorm:"column:image_url"`
}

// CartRepository persists cart lines. The *IfStock writes are single
// conditional statements: the stock comparison and the write happen
// atomically, so concurrent requests cannot push a line past stock.
type CartRepository interface {
	FindLine(ctx context.Context, userID, productID uint) (*model.CartItem, error)
	FindOwned(ctx context.Context, userID, itemID uint) (*model.CartItem, error)
	// InsertIfStock reports false when the product is unavailable or has
	// fewer than qty units. A concurrent insert of the same line surfaces
	// as gorm.ErrDuplicatedKey.
	InsertIfStock(ctx context.Context, userID, productID uint, qty int) (bool, error)
	IncrementIfStock(ctx context.Context, itemID uint, qty int) (bool, error)
	SetQuantityIfStock(ctx context.Context, userID, itemID uint, qty int) (bool, error)
	Delete(ctx context.Context, userID, itemID uint) (int64, error)
	Count(ctx context.Context, userID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]CartLine, error)
}

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindLine(ctx context.Context, userID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindOwned(ctx context.Context, userID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) InsertIfStock(ctx context.Context, userID, productID uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO cart (user_id, product_id, quantity, created_at, updated_at)
		SELECT ?, p.id, ?, NOW(), NOW()
		FROM products p
		WHERE p.id = ? AND p.stock >= ? AND p.is_active = TRUE AND p.is_deleted = FALSE`,
		userID, qty, productID, qty)
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepository) IncrementIfStock(ctx context.Context, itemID uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cart c
		JOIN products p ON p.id = c.product_id
		SET c.quantity = c.quantity + ?, c.updated_at = NOW()
		WHERE c.id = ? AND p.is_active = TRUE AND p.is_deleted = FALSE AND c.quantity + ? <= p.stock`,
		qty, itemID, qty)
	return res.RowsAffected > 0, res.Error
}

// SetQuantityIfStock reports false when the line is not the user's, the
// quantity exceeds stock, or the quantity is unchanged.
func (r *cartRepository) SetQuantityIfStock(ctx context.Context, userID, itemID uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cart c
		JOIN products p ON p.id = c.product_id
		SET c.quantity = ?, c.updated_at = NOW()
		WHERE c.id = ? AND c.user_id = ? AND ? <= p.stock`,
		qty, itemID, userID, qty)
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepository) Delete(ctx context.Context, userID, itemID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *cartRepository) Count(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CartItem{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *cartRepository) ListByUser(ctx context.Context, userID uint) ([]CartLine, error) {
	var lines []CartLine
	err := r.db.WithContext(ctx).Table("cart c").
		Select(`c.id, p.id AS product_id, p.name AS product_name, p.price, c.quantity, p.stock,
			(SELECT pi.image_url FROM product_images pi WHERE pi.product_id = p.id
			 ORDER BY pi.is_primary DESC, pi.id ASC LIMIT 1) AS image_url`).
		Joins("JOIN products p ON p.id = c.product_id").
		Where("c.user_id = ?", userID).
		Order("c.id").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
