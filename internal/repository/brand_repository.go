package repository

import (
	"context"

	"gorm.io/gorm"

	"carfix/internal/model"
)

// BrandRepository reads the brand reference table.
type BrandRepository interface {
	List(ctx context.Context) ([]model.Brand, error)
	Exists(ctx context.Context, id uint) (bool, error)
	FirstOrCreateByName(ctx context.Context, brand *model.Brand) (bool, error)
}

type brandRepository struct {
	db *gorm.DB
}

// NewBrandRepository creates a new brand repository.
func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) List(ctx context.Context) ([]model.Brand, error) {
	var brands []model.Brand
	if err := r.db.WithContext(ctx).Order("id").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *brandRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Brand{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *brandRepository) FirstOrCreateByName(ctx context.Context, brand *model.Brand) (bool, error) {
	res := r.db.WithContext(ctx).Where("name = ?", brand.Name).Limit(1).Find(brand)
	if res.Error != nil || res.RowsAffected > 0 {
		return false, res.Error
	}
	return true, r.db.WithContext(ctx).Create(brand).Error
}
