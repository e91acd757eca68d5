package service

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
	"gorm.io/gorm"

	apperrors "carfix/internal/errors"
	"carfix/internal/model"
	"carfix/internal/repository"
	"carfix/internal/storage"
)

func newCatalogFixture(t *testing.T) (CatalogService, *MockProductRepository, *MockBrandRepository, *storage.ImageStore) {
	t.Helper()
	store := storage.NewImageStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = store.Close() })
	products := new(MockProductRepository)
	brands := new(MockBrandRepository)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCatalogService(products, brands, storage.NewResolver(store, logger), nil), products, brands, store
}

func TestCatalogService_ListProducts(t *testing.T) {
	svc, products, _, store := newCatalogFixture(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "images-1-1.gif", []byte("GIF89a"), "image/gif"))

	products.On("ListCatalog", mock.Anything, repository.CatalogFilter{}).Return([]repository.CatalogRow{
		{ID: 2, Name: "Rotor", Featured: true, Price: decimal.NewFromInt(80), Category: "Brakes", Brand: "Bosch", Seller: "Sam"},
		{ID: 1, Name: "Pad", Price: decimal.NewFromInt(20)},
	}, nil)
	products.On("ListImages", mock.Anything, []uint{2, 1}).Return([]model.ProductImage{
		{ID: 10, ProductID: 2, ImageURL: "/uploads/images-1-1.gif", IsPrimary: true},
		{ID: 11, ProductID: 2, ImageURL: "/uploads/missing.png"},
		{ID: 12, ProductID: 1, ImageURL: "/media/pad.jpg", IsPrimary: true},
	}, nil)

	views, err := svc.ListProducts(ctx, repository.CatalogFilter{}, "https://shop.example")
	require.NoError(t, err)
	require.Len(t, views, 2)

	rotor := views[0]
	assert.Equal(t, "Brakes", rotor.Category)
	assert.Equal(t, "Bosch", rotor.Brand)
	assert.Equal(t, "Sam", rotor.Seller)
	require.Len(t, rotor.Images, 2)
	require.NotNil(t, rotor.Images[0].ImageData)
	assert.Equal(t, "data:image/gif;base64,"+base64.StdEncoding.EncodeToString([]byte("GIF89a")), *rotor.Images[0].ImageData)
	assert.Nil(t, rotor.Images[1].ImageData, "unreadable image degrades to null")
	assert.Empty(t, rotor.Images[1].ImageURL)

	pad := views[1]
	require.Len(t, pad.Images, 1)
	assert.Equal(t, "https://shop.example/media/pad.jpg", pad.Images[0].ImageURL)
}

func TestCatalogService_SellerProducts(t *testing.T) {
	svc, products, _, _ := newCatalogFixture(t)
	ctx := context.Background()
	remote := "https://cdn.example.com/a.png"

	products.On("ListBySeller", mock.Anything, uint(10)).Return([]repository.SellerProductRow{
		{CatalogRow: repository.CatalogRow{ID: 1, CategoryID: 3, BrandID: 4}, TotalOrders: 2, TotalSold: 5, ImageURL: &remote},
		{CatalogRow: repository.CatalogRow{ID: 2}},
	}, nil)
	products.On("FindSellerProduct", mock.Anything, uint(10), uint(99)).Return(nil, gorm.ErrRecordNotFound)

	views, err := svc.ListSellerProducts(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "3", views[0].CategoryID)
	assert.Equal(t, "4", views[0].BrandID)
	assert.Equal(t, int64(5), views[0].TotalSold)
	require.NotNil(t, views[0].ImageData)
	assert.Equal(t, remote, *views[0].ImageData)
	assert.Nil(t, views[1].ImageData)

	_, err = svc.GetSellerProduct(ctx, 10, 99, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogService_GetProductIncludesDeleted(t *testing.T) {
	svc, products, _, _ := newCatalogFixture(t)
	products.On("FindByID", mock.Anything, uint(5)).Return(&model.Product{ID: 5, IsDeleted: true}, nil)
	products.On("FindByID", mock.Anything, uint(6)).Return(nil, gorm.ErrRecordNotFound)

	p, err := svc.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, p.IsDeleted)

	_, err = svc.GetProduct(context.Background(), 6)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogService_ListBrands(t *testing.T) {
	svc, _, brands, _ := newCatalogFixture(t)
	brands.On("List", mock.Anything).Return([]model.Brand{{ID: 1, Name: "Bosch"}}, nil)

	got, err := svc.ListBrands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bosch", got[0].Name)
}
