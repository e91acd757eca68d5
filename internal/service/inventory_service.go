package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "carfix/internal/errors"
	"carfix/internal/model"
	"carfix/internal/repository"
	"carfix/internal/storage"
)

// ProductInput carries product fields from a create or update form. Nil
// fields are left unchanged on update.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *uint
	BrandID     *uint
	Featured    *bool
	IsActive    *bool
}

// InventoryService performs a seller's writes on their own products.
type InventoryService interface {
	Create(ctx context.Context, sellerID uint, in ProductInput, uploads []storage.Upload, baseURL string) (*SellerProductView, error)
	Update(ctx context.Context, sellerID, productID uint, in ProductInput, uploads []storage.Upload, deleteImageIDs []uint, baseURL string) (*SellerProductView, error)
	Delete(ctx context.Context, sellerID, productID uint) error
}

type inventoryService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	uploader   *storage.Uploader
	catalog    CatalogService
	logger     *slog.Logger
}

// NewInventoryService creates the seller inventory manager.
func NewInventoryService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	uploader *storage.Uploader,
	catalog CatalogService,
	logger *slog.Logger,
) InventoryService {
	return &inventoryService{
		products:   products,
		categories: categories,
		brands:     brands,
		uploader:   uploader,
		catalog:    catalog,
		logger:     logger,
	}
}

// Create stores the uploads, then writes the product and its images in one
// transaction. The first upload becomes the primary image. On any failure
// the stored uploads are removed again.
func (s *inventoryService) Create(ctx context.Context, sellerID uint, in ProductInput, uploads []storage.Upload, baseURL string) (*SellerProductView, error) {
	if in.Name == nil || in.Price == nil || in.CategoryID == nil || in.BrandID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Name, price, category and brand are required")
	}
	if err := s.validate(ctx, in, uploads); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:       strings.TrimSpace(*in.Name),
		Price:      *in.Price,
		CategoryID: *in.CategoryID,
		BrandID:    *in.BrandID,
		SellerID:   sellerID,
		IsActive:   true,
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.Featured != nil {
		product.Featured = *in.Featured
	}

	urls, err := s.uploader.Store(ctx, uploads)
	if err != nil {
		return nil, fmt.Errorf("store images: %w", err)
	}

	err = s.products.WithTransaction(ctx, func(ctx context.Context, repo repository.ProductRepository) error {
		if err := repo.Create(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		// is_active carries a column default, so gorm skips an explicit false on insert.
		if in.IsActive != nil && !*in.IsActive {
			if err := repo.UpdateFields(ctx, product.ID, map[string]interface{}{"is_active": false}); err != nil {
				return fmt.Errorf("deactivate product: %w", err)
			}
		}
		if err := repo.AddImages(ctx, imageRows(product.ID, urls, true)); err != nil {
			return fmt.Errorf("add images: %w", err)
		}
		return nil
	})
	if err != nil {
		s.uploader.Discard(ctx, urls)
		s.logger.ErrorContext(ctx, "create product failed",
			slog.Uint64("seller_id", uint64(sellerID)),
			slog.Any("error", err))
		return nil, err
	}

	return s.catalog.GetSellerProduct(ctx, sellerID, product.ID, baseURL)
}

// Update applies field changes, removes the listed images, then appends new
// ones. The first new image becomes primary only when no image survives the
// deletion; otherwise an existing image stays or becomes primary.
func (s *inventoryService) Update(ctx context.Context, sellerID, productID uint, in ProductInput, uploads []storage.Upload, deleteImageIDs []uint, baseURL string) (*SellerProductView, error) {
	if _, err := s.owned(ctx, s.products, sellerID, productID, false); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in, uploads); err != nil {
		return nil, err
	}

	urls, err := s.uploader.Store(ctx, uploads)
	if err != nil {
		return nil, fmt.Errorf("store images: %w", err)
	}

	var removed []model.ProductImage
	err = s.products.WithTransaction(ctx, func(ctx context.Context, repo repository.ProductRepository) error {
		if _, err := s.owned(ctx, repo, sellerID, productID, true); err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, productID, updateFields(in)); err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		images, err := repo.FindImages(ctx, productID, deleteImageIDs)
		if err != nil {
			return fmt.Errorf("find images: %w", err)
		}
		removed = images
		if err := repo.DeleteImages(ctx, productID, imageIDs(images)); err != nil {
			return fmt.Errorf("delete images: %w", err)
		}

		remaining, err := repo.CountImages(ctx, productID)
		if err != nil {
			return fmt.Errorf("count images: %w", err)
		}
		if err := repo.AddImages(ctx, imageRows(productID, urls, remaining == 0)); err != nil {
			return fmt.Errorf("add images: %w", err)
		}
		return repo.EnsurePrimary(ctx, productID)
	})
	if err != nil {
		s.uploader.Discard(ctx, urls)
		if !isDomainError(err) {
			s.logger.ErrorContext(ctx, "update product failed",
				slog.Uint64("product_id", uint64(productID)),
				slog.Any("error", err))
		}
		return nil, err
	}

	removedURLs := make([]string, len(removed))
	for i, img := range removed {
		removedURLs[i] = img.ImageURL
	}
	s.uploader.Discard(ctx, removedURLs)

	return s.catalog.GetSellerProduct(ctx, sellerID, productID, baseURL)
}

// Delete soft-deletes the product; the row and its order history remain.
func (s *inventoryService) Delete(ctx context.Context, sellerID, productID uint) error {
	if _, err := s.owned(ctx, s.products, sellerID, productID, false); err != nil {
		return err
	}
	if err := s.products.SoftDelete(ctx, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// owned loads a live product and checks that sellerID owns it.
func (s *inventoryService) owned(ctx context.Context, repo repository.ProductRepository, sellerID, productID uint, lock bool) (*model.Product, error) {
	find := repo.FindByID
	if lock {
		find = repo.FindByIDForUpdate
	}
	product, err := find(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && product.IsDeleted) {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product.SellerID != sellerID {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "You can only modify your own products")
	}
	return product, nil
}

func (s *inventoryService) validate(ctx context.Context, in ProductInput, uploads []storage.Upload) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "Product name is required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Price must not be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, "Stock must not be negative")
	}
	if err := s.uploader.CheckCount(len(uploads)); err != nil {
		return err
	}
	if in.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *in.CategoryID)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return apperrors.WithMessage(apperrors.ErrValidation, "Invalid category")
		}
	}
	if in.BrandID != nil {
		ok, err := s.brands.Exists(ctx, *in.BrandID)
		if err != nil {
			return fmt.Errorf("check brand: %w", err)
		}
		if !ok {
			return apperrors.WithMessage(apperrors.ErrValidation, "Invalid brand")
		}
	}
	return nil
}

func updateFields(in ProductInput) map[string]interface{} {
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Stock != nil {
		fields["stock"] = *in.Stock
	}
	if in.CategoryID != nil {
		fields["category_id"] = *in.CategoryID
	}
	if in.BrandID != nil {
		fields["brand_id"] = *in.BrandID
	}
	if in.Featured != nil {
		fields["featured"] = *in.Featured
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	return fields
}

func imageRows(productID uint, urls []string, firstPrimary bool) []model.ProductImage {
	rows := make([]model.ProductImage, len(urls))
	for i, url := range urls {
		rows[i] = model.ProductImage{
			ProductID: productID,
			ImageURL:  url,
			IsPrimary: firstPrimary && i == 0,
		}
	}
	return rows
}

func imageIDs(images []model.ProductImage) []uint {
	ids := make([]uint, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	return ids
}

func isDomainError(err error) bool {
	return apperrors.MapErrorToHTTP(err).StatusCode < 500
}
