//go:build integration
// +build integration

package repository_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/gorm"

	"carfix/internal/db"
	"carfix/internal/model"
	"carfix/internal/repository"
)

// setupTestDB starts a MySQL container and returns a migrated connection.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := mysql.Run(ctx,
		"mysql:8.0",
		mysql.WithDatabase("carfix"),
		mysql.WithUsername("carfix"),
		mysql.WithPassword("carfix"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start mysql container")

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "charset=utf8mb4")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gormDB, err := db.NewMySQL(dsn, logger, false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB, false, logger))
	t.Cleanup(func() { _ = db.Close(gormDB) })
	return gormDB
}

type fixture struct {
	seller   model.User
	customer model.User
	category model.Category
	brand    model.Brand
}

func seed(t *testing.T, gormDB *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		seller:   model.User{Name: "Sam Seller", Email: "s@example.com", PasswordHash: "x", Role: model.RoleSeller, IsActive: true},
		customer: model.User{Name: "Cat Customer", Email: "c@example.com", PasswordHash: "x", Role: model.RoleCustomer, IsActive: true},
		category: model.Category{Name: "Brakes", IsActive: true},
		brand:    model.Brand{Name: "Bosch", IsActive: true},
	}
	require.NoError(t, gormDB.Create(&f.seller).Error)
	require.NoError(t, gormDB.Create(&f.customer).Error)
	require.NoError(t, gormDB.Create(&f.category).Error)
	require.NoError(t, gormDB.Create(&f.brand).Error)
	return f
}

func newProduct(f fixture, name string, stock int, featured bool) *model.Product {
	return &model.Product{
		Name:       name,
		Price:      decimal.RequireFromString("19.99"),
		Stock:      stock,
		Featured:   featured,
		IsActive:   true,
		CategoryID: f.category.ID,
		BrandID:    f.brand.ID,
		SellerID:   f.seller.ID,
	}
}

func TestProductRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	gormDB := setupTestDB(t)
	f := seed(t, gormDB)
	ctx := context.Background()
	products := repository.NewProductRepository(gormDB)

	plain := newProduct(f, "Pad", 4, false)
	featured := newProduct(f, "Rotor", 2, true)
	gone := newProduct(f, "Caliper", 1, false)
	for _, p := range []*model.Product{plain, featured, gone} {
		require.NoError(t, products.Create(ctx, p))
	}
	require.NoError(t, products.SoftDelete(ctx, gone.ID))

	t.Run("catalog ordering and visibility", func(t *testing.T) {
		rows, err := products.ListCatalog(ctx, repository.CatalogFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, featured.ID, rows[0].ID)
		assert.Equal(t, plain.ID, rows[1].ID)
		assert.Equal(t, "Brakes", rows[0].Category)
		assert.Equal(t, "Bosch", rows[0].Brand)
		assert.Equal(t, "Sam Seller", rows[0].Seller)
	})

	t.Run("soft-deleted product stays resolvable by id", func(t *testing.T) {
		p, err := products.FindByID(ctx, gone.ID)
		require.NoError(t, err)
		assert.True(t, p.IsDeleted)

		_, err = products.FindSellerProduct(ctx, f.seller.ID, gone.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("seller figures", func(t *testing.T) {
		order := model.Order{UserID: f.customer.ID, TotalAmount: decimal.NewFromInt(60)}
		require.NoError(t, gormDB.Create(&order).Error)
		require.NoError(t, gormDB.Create(&model.OrderItem{OrderID: order.ID, ProductID: plain.ID, Quantity: 3, Price: plain.Price}).Error)

		row, err := products.FindSellerProduct(ctx, f.seller.ID, plain.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), row.TotalOrders)
		assert.Equal(t, int64(3), row.TotalSold)
		assert.Nil(t, row.ImageURL)

		_, err = products.FindSellerProduct(ctx, f.customer.ID, plain.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("primary image promotion", func(t *testing.T) {
		require.NoError(t, products.AddImages(ctx, []model.ProductImage{
			{ProductID: plain.ID, ImageURL: "/uploads/a.png", IsPrimary: true},
			{ProductID: plain.ID, ImageURL: "/uploads/b.png"},
			{ProductID: plain.ID, ImageURL: "/uploads/c.png"},
		}))
		images, err := products.ListImages(ctx, []uint{plain.ID})
		require.NoError(t, err)
		require.Len(t, images, 3)
		require.True(t, images[0].IsPrimary)

		require.NoError(t, products.DeleteImages(ctx, plain.ID, []uint{images[0].ID}))
		require.NoError(t, products.EnsurePrimary(ctx, plain.ID))

		images, err = products.ListImages(ctx, []uint{plain.ID})
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.True(t, images[0].IsPrimary)
		assert.Equal(t, "/uploads/b.png", images[0].ImageURL)
		assert.False(t, images[1].IsPrimary)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		p := newProduct(f, "Ghost", 1, false)
		err := products.WithTransaction(ctx, func(ctx context.Context, repo repository.ProductRepository) error {
			require.NoError(t, repo.Create(ctx, p))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		_, err = products.FindByID(ctx, p.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestCartRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	gormDB := setupTestDB(t)
	f := seed(t, gormDB)
	ctx := context.Background()
	products := repository.NewProductRepository(gormDB)
	cart := repository.NewCartRepository(gormDB)

	p := newProduct(f, "Filter", 3, false)
	require.NoError(t, products.Create(ctx, p))

	ok, err := cart.InsertIfStock(ctx, f.customer.ID, p.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = cart.InsertIfStock(ctx, f.customer.ID, p.ID, 1)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	line, err := cart.FindLine(ctx, f.customer.ID, p.ID)
	require.NoError(t, err)

	ok, err = cart.IncrementIfStock(ctx, line.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "2+2 exceeds stock 3")

	ok, err = cart.SetQuantityIfStock(ctx, f.customer.ID, line.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cart.SetQuantityIfStock(ctx, f.seller.ID, line.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "line belongs to another user")

	line, err = cart.FindOwned(ctx, f.customer.ID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	t.Run("concurrent increments never exceed stock", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = cart.IncrementIfStock(ctx, line.ID, 1)
			}()
		}
		wg.Wait()

		got, err := cart.FindOwned(ctx, f.customer.ID, line.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Quantity)
	})

	lines, err := cart.ListByUser(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Filter", lines[0].ProductName)
	assert.Equal(t, 3, lines[0].Stock)

	n, err := cart.Count(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	removed, err := cart.Delete(ctx, f.seller.ID, line.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
	removed, err = cart.Delete(ctx, f.customer.ID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestCategoryRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	gormDB := setupTestDB(t)
	f := seed(t, gormDB)
	ctx := context.Background()
	categories := repository.NewCategoryRepository(gormDB)
	products := repository.NewProductRepository(gormDB)

	require.NoError(t, products.Create(ctx, newProduct(f, "Pad", 1, false)))
	n, err := categories.CountProducts(ctx, f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	empty := model.Category{Name: "Audio", IsActive: true}
	require.NoError(t, categories.Create(ctx, &empty))
	require.NoError(t, categories.SoftDelete(ctx, empty.ID, time.Now()))

	_, err = categories.FindActiveByID(ctx, empty.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Brakes", list[0].Name)

	var raw model.Category
	require.NoError(t, gormDB.First(&raw, empty.ID).Error)
	assert.True(t, raw.IsDeleted)
	assert.NotNil(t, raw.DeletedAt)
}

func TestSeedUpserts_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	gormDB := setupTestDB(t)
	f := seed(t, gormDB)
	ctx := context.Background()

	users := repository.NewUserRepository(gormDB)
	admin := &model.User{Name: "Admin", Email: "s@example.com", PasswordHash: "new", Role: model.RoleAdmin, IsVerified: true, IsActive: true}
	created, err := users.UpsertByEmail(ctx, admin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.seller.ID, admin.ID)

	got, err := users.FindByID(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.True(t, got.IsVerified)

	brands := repository.NewBrandRepository(gormDB)
	created, err = brands.FirstOrCreateByName(ctx, &model.Brand{Name: "Bosch"})
	require.NoError(t, err)
	assert.False(t, created)
	created, err = brands.FirstOrCreateByName(ctx, &model.Brand{Name: "NGK", IsActive: true})
	require.NoError(t, err)
	assert.True(t, created)

	categories := repository.NewCategoryRepository(gormDB)
	existing := model.Category{Name: "Brakes"}
	created, err = categories.FirstOrCreateByName(ctx, &existing)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.category.ID, existing.ID)
}
