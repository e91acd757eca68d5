package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"carfix/internal/cache"
	apperrors "carfix/internal/errors"
	"carfix/internal/model"
	"carfix/internal/repository"
)

const (
	categoriesCacheKey = "categories:list"
	categoriesCacheTTL = 10 * time.Minute
)

// CategoryInput carries category fields. Nil fields are left unchanged on update.
type CategoryInput struct {
	Name        *string
	Description *string
	IsFeatured  *bool
	IsActive    *bool
}

// CategoryService manages the category taxonomy.
type CategoryService interface {
	Create(ctx context.Context, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id uint, in CategoryInput) (*model.Category, error)
	// Delete soft-deletes the category. It fails with ErrCategoryInUse while
	// any non-deleted product references it.
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]model.Category, error)
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache *cache.Client
	now   func() time.Time
}

// NewCategoryService creates the category manager.
func NewCategoryService(repo repository.CategoryRepository, cache *cache.Client) CategoryService {
	return &categoryService{repo: repo, cache: cache, now: time.Now}
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Category name is required")
	}

	category := &model.Category{
		Name:     strings.TrimSpace(*in.Name),
		IsActive: true,
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if in.IsFeatured != nil {
		category.IsFeatured = *in.IsFeatured
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	// is_active carries a column default, so an explicit false needs an update.
	if in.IsActive != nil && !*in.IsActive {
		if err := s.repo.Update(ctx, category.ID, map[string]interface{}{"is_active": false}); err != nil {
			return nil, fmt.Errorf("deactivate category: %w", err)
		}
		category.IsActive = false
	}

	_ = s.cache.Delete(ctx, categoriesCacheKey)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, in CategoryInput) (*model.Category, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "Category name is required")
		}
		fields["name"] = name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.IsFeatured != nil {
		fields["is_featured"] = *in.IsFeatured
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update category: %w", err)
		}
		_ = s.cache.Delete(ctx, categoriesCacheKey)
	}
	return s.find(ctx, id)
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("count category products: %w", err)
	}
	if n > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	_ = s.cache.Delete(ctx, categoriesCacheKey)
	return nil
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.cache.GetJSON(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}

	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.cache.SetJSON(ctx, categoriesCacheKey, categories, categoriesCacheTTL)
	return categories, nil
}

func (s *categoryService) find(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "Category not found")
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}
