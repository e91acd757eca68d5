package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carfix/internal/model"
)

// CatalogFilter narrows the public listing. Active, non-deleted products are
// always implied.
type CatalogFilter struct {
	FeaturedOnly bool
	CategoryID   uint
	BrandID      uint
	SellerID     uint
}

// CatalogRow is a product denormalized with its category, brand and seller names.
type CatalogRow struct {
	ID          uint            `gorm:"column:id"`
	Name        string          `gorm:"column:name"`
	Description string          `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price"`
	Stock       int             `gorm:"column:stock"`
	Featured    bool            `gorm:"column:featured"`
	IsActive    bool            `gorm:"column:is_active"`
	CategoryID  uint            `gorm:"column:category_id"`
	BrandID     uint            `gorm:"column:brand_id"`
	SellerID    uint            `gorm:"column:seller_id"`
	Category    string          `gorm:"column:category"`
	Brand       string          `gorm:"column:brand"`
	Seller      string          `gorm:"column:seller"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

// SellerProductRow adds derived order figures and the primary image to a
// seller's own product.
type SellerProductRow struct {
	CatalogRow
	TotalOrders int64   `gorm:"column:total_orders"`
	TotalSold   int64   `gorm:"column:total_sold"`
	ImageURL    *string `gorm:"column:image_url"`
}

// ProductRepository persists products and their images.
type ProductRepository interface {
	ListCatalog(ctx context.Context, filter CatalogFilter) ([]CatalogRow, error)
	ListBySeller(ctx context.Context, sellerID uint) ([]SellerProductRow, error)
	FindSellerProduct(ctx context.Context, sellerID, productID uint) (*SellerProductRow, error)
	// FindByID returns the product regardless of its deleted flag.
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	// FindByIDForUpdate locks the product row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Product, error)
	FindAvailable(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id uint) error

	ListImages(ctx context.Context, productIDs []uint) ([]model.ProductImage, error)
	AddImages(ctx context.Context, images []model.ProductImage) error
	FindImages(ctx context.Context, productID uint, ids []uint) ([]model.ProductImage, error)
	DeleteImages(ctx context.Context, productID uint, ids []uint) error
	CountImages(ctx context.Context, productID uint) (int64, error)
	// EnsurePrimary marks the lowest-id image primary when images exist but
	// none is primary.
	EnsurePrimary(ctx context.Context, productID uint) error

	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

const catalogColumns = "p.id, p.name, p.description, p.price, p.stock, p.featured, p.is_active, " +
	"p.category_id, p.brand_id, p.seller_id, p.created_at, p.updated_at, " +
	"c.name AS category, b.name AS brand"

const sellerFigures = ", " +
	"(SELECT COUNT(*) FROM orders o JOIN order_items oi ON o.id = oi.order_id WHERE oi.product_id = p.id) AS total_orders, " +
	"(SELECT COALESCE(SUM(oi.quantity), 0) FROM orders o JOIN order_items oi ON o.id = oi.order_id WHERE oi.product_id = p.id) AS total_sold, " +
	"(SELECT pi.image_url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.is_primary DESC, pi.id ASC LIMIT 1) AS image_url"

func (r *productRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("products p").
		Joins("LEFT JOIN categories c ON c.id = p.category_id").
		Joins("LEFT JOIN brands b ON b.id = p.brand_id")
}

// ListCatalog returns active, non-deleted products, featured first.
func (r *productRepository) ListCatalog(ctx context.Context, filter CatalogFilter) ([]CatalogRow, error) {
	q := r.joined(ctx).
		Select(catalogColumns+", u.name AS seller").
		Joins("LEFT JOIN users u ON u.id = p.seller_id").
		Where("p.is_active = ? AND p.is_deleted = ?", true, false)
	if filter.FeaturedOnly {
		q = q.Where("p.featured = ?", true)
	}
	if filter.CategoryID != 0 {
		q = q.Where("p.category_id = ?", filter.CategoryID)
	}
	if filter.BrandID != 0 {
		q = q.Where("p.brand_id = ?", filter.BrandID)
	}
	if filter.SellerID != 0 {
		q = q.Where("p.seller_id = ?", filter.SellerID)
	}

	var rows []CatalogRow
	if err := q.Order("p.featured DESC, p.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySeller returns the seller's non-deleted products, newest first.
func (r *productRepository) ListBySeller(ctx context.Context, sellerID uint) ([]SellerProductRow, error) {
	var rows []SellerProductRow
	err := r.joined(ctx).
		Select(catalogColumns+sellerFigures).
		Where("p.seller_id = ? AND p.is_deleted = ?", sellerID, false).
		Order("p.created_at DESC, p.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepository) FindSellerProduct(ctx context.Context, sellerID, productID uint) (*SellerProductRow, error) {
	var rows []SellerProductRow
	err := r.joined(ctx).
		Select(catalogColumns+sellerFigures).
		Where("p.id = ? AND p.seller_id = ? AND p.is_deleted = ?", productID, sellerID, false).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindAvailable(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ? AND is_deleted = ?", id, true, false).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now()}).Error
}

// ListImages returns images of the given products, primary first within each product.
func (r *productRepository) ListImages(ctx context.Context, productIDs []uint) ([]model.ProductImage, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var images []model.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id, is_primary DESC, id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *productRepository) AddImages(ctx context.Context, images []model.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

// FindImages returns the subset of ids that belong to the product.
func (r *productRepository) FindImages(ctx context.Context, productID uint, ids []uint) ([]model.ProductImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var images []model.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND id IN ?", productID, ids).
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *productRepository) DeleteImages(ctx context.Context, productID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("product_id = ? AND id IN ?", productID, ids).
		Delete(&model.ProductImage{}).Error
}

func (r *productRepository) CountImages(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ProductImage{}).
		Where("product_id = ?", productID).
		Count(&n).Error
	return n, err
}

func (r *productRepository) EnsurePrimary(ctx context.Context, productID uint) error {
	var primaries int64
	if err := r.db.WithContext(ctx).Model(&model.ProductImage{}).
		Where("product_id = ? AND is_primary = ?", productID, true).
		Count(&primaries).Error; err != nil {
		return err
	}
	if primaries > 0 {
		return nil
	}

	var first model.ProductImage
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&first).Update("is_primary", true).Error
}

// WithTransaction executes a function within a database transaction.
func (r *productRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &productRepository{db: tx})
	})
}
