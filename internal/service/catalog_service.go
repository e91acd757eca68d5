package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"carfix/internal/cache"
	apperrors "carfix/internal/errors"
	"carfix/internal/model"
	"carfix/internal/repository"
	"carfix/internal/storage"
)

const (
	brandsCacheKey = "brands:list"
	brandsCacheTTL = 10 * time.Minute
)

// ImageView is a product image as clients render it: inline bytes for local
// uploads, a URL for externally hosted images. ImageData is null when the
// image could not be read.
type ImageView struct {
	ID        uint    `json:"id"`
	ImageData *string `json:"imageData"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	IsPrimary bool    `json:"is_primary"`
}

// ProductView is a catalog entry.
type ProductView struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"featured"`
	CategoryID  uint            `json:"category_id"`
	BrandID     uint            `json:"brand_id"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Seller      string          `json:"seller"`
	Images      []ImageView     `json:"images"`
}

// SellerProductView is a product in the seller dashboard. Category and brand
// ids are strings so they bind directly to form selects.
type SellerProductView struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"featured"`
	IsActive    bool            `json:"is_active"`
	CategoryID  string          `json:"category_id"`
	BrandID     string          `json:"brand_id"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	TotalOrders int64           `json:"total_orders"`
	TotalSold   int64           `json:"total_sold"`
	ImageData   *string         `json:"imageData"`
	Images      []ImageView     `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CatalogService assembles product listings.
type CatalogService interface {
	ListProducts(ctx context.Context, filter repository.CatalogFilter, baseURL string) ([]ProductView, error)
	// GetProduct resolves a product by id even after it was soft-deleted.
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	ListSellerProducts(ctx context.Context, sellerID uint, baseURL string) ([]SellerProductView, error)
	GetSellerProduct(ctx context.Context, sellerID, productID uint, baseURL string) (*SellerProductView, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
}

type catalogService struct {
	products repository.ProductRepository
	brands   repository.BrandRepository
	resolver *storage.Resolver
	cache    *cache.Client
}

// NewCatalogService creates the catalog reader.
func NewCatalogService(
	products repository.ProductRepository,
	brands repository.BrandRepository,
	resolver *storage.Resolver,
	cache *cache.Client,
) CatalogService {
	return &catalogService{
		products: products,
		brands:   brands,
		resolver: resolver,
		cache:    cache,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, filter repository.CatalogFilter, baseURL string) ([]ProductView, error) {
	rows, err := s.products.ListCatalog(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	images, err := s.products.ListImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	byProduct := make(map[uint][]model.ProductImage, len(rows))
	for _, img := range images {
		byProduct[img.ProductID] = append(byProduct[img.ProductID], img)
	}

	views := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		views = append(views, ProductView{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Price:       row.Price,
			Stock:       row.Stock,
			Featured:    row.Featured,
			CategoryID:  row.CategoryID,
			BrandID:     row.BrandID,
			Category:    row.Category,
			Brand:       row.Brand,
			Seller:      row.Seller,
			Images:      s.imageViews(ctx, byProduct[row.ID], baseURL),
		})
	}
	return views, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "Product not found")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListSellerProducts(ctx context.Context, sellerID uint, baseURL string) ([]SellerProductView, error) {
	rows, err := s.products.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}

	views := make([]SellerProductView, 0, len(rows))
	for _, row := range rows {
		v := sellerView(row)
		if row.ImageURL != nil {
			v.ImageData = s.resolver.Resolve(ctx, *row.ImageURL, baseURL)
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *catalogService) GetSellerProduct(ctx context.Context, sellerID, productID uint, baseURL string) (*SellerProductView, error) {
	row, err := s.products.FindSellerProduct(ctx, sellerID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "Product not found")
		}
		return nil, fmt.Errorf("find seller product: %w", err)
	}

	images, err := s.products.ListImages(ctx, []uint{productID})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	v := sellerView(*row)
	v.Images = s.imageViews(ctx, images, baseURL)
	if len(v.Images) > 0 {
		v.ImageData = v.Images[0].ImageData
	}
	return &v, nil
}

func (s *catalogService) ListBrands(ctx context.Context) ([]model.Brand, error) {
	var cached []model.Brand
	if s.cache.GetJSON(ctx, brandsCacheKey, &cached) {
		return cached, nil
	}

	brands, err := s.brands.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	s.cache.SetJSON(ctx, brandsCacheKey, brands, brandsCacheTTL)
	return brands, nil
}

func (s *catalogService) imageViews(ctx context.Context, images []model.ProductImage, baseURL string) []ImageView {
	views := make([]ImageView, 0, len(images))
	for _, img := range images {
		v := ImageView{ID: img.ID, IsPrimary: img.IsPrimary}
		if res, ok := s.resolver.Lookup(ctx, img.ImageURL, baseURL); ok {
			if res.Data != nil {
				data := res.String()
				v.ImageData = &data
			} else {
				v.ImageURL = res.URL
			}
		}
		views = append(views, v)
	}
	return views
}

func sellerView(row repository.SellerProductRow) SellerProductView {
	return SellerProductView{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		Stock:       row.Stock,
		Featured:    row.Featured,
		IsActive:    row.IsActive,
		CategoryID:  strconv.FormatUint(uint64(row.CategoryID), 10),
		BrandID:     strconv.FormatUint(uint64(row.BrandID), 10),
		Category:    row.Category,
		Brand:       row.Brand,
		TotalOrders: row.TotalOrders,
		TotalSold:   row.TotalSold,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
