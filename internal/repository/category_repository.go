package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"carfix/internal/model"
)

// CategoryRepository persists the category taxonomy. Every read ignores
// soft-deleted rows.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindActiveByID(ctx context.Context, id uint) (*model.Category, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	CountProducts(ctx context.Context, id uint) (int64, error)
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	List(ctx context.Context) ([]model.Category, error)
	Exists(ctx context.Context, id uint) (bool, error)
	FirstOrCreateByName(ctx context.Context, category *model.Category) (bool, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Category{}).Where("is_deleted = ?", false)
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) FindActiveByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.live(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.live(ctx).Where("id = ?", id).Updates(fields).Error
}

// CountProducts counts non-deleted products referencing the category.
func (r *categoryRepository) CountProducts(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ? AND is_deleted = ?", id, false).
		Count(&n).Error
	return n, err
}

func (r *categoryRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.live(ctx).Where("id = ?", id).Updates(map[string]interface{}{
		"is_deleted": true,
		"deleted_at": at,
	}).Error
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.live(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.live(ctx).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// FirstOrCreateByName reports whether a row was created.
func (r *categoryRepository) FirstOrCreateByName(ctx context.Context, category *model.Category) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("name = ? AND is_deleted = ?", category.Name, false).
		Limit(1).Find(category)
	if res.Error != nil || res.RowsAffected > 0 {
		return false, res.Error
	}
	return true, r.db.WithContext(ctx).Create(category).Error
}
