package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"carfix/internal/auth"
	"carfix/internal/model"
	"carfix/internal/repository"
	"carfix/internal/service"
	"carfix/internal/storage"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

// signIn puts claims on the context the way the auth gate does.
func signIn(c echo.Context, userID uint, role model.Role) {
	c.Set("user", &jwt.Token{Claims: &auth.Claims{UserID: userID, Role: role}, Valid: true})
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) List(ctx context.Context, userID uint) ([]repository.CartLine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.CartLine), args.Error(1)
}

func (m *MockCartService) Add(ctx context.Context, userID, productID uint, qty int) ([]repository.CartLine, error) {
	args := m.Called(ctx, userID, productID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.CartLine), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID, itemID uint, qty int) (*model.CartItem, error) {
	args := m.Called(ctx, userID, itemID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, userID, itemID uint) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

func (m *MockCartService) Count(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Create(ctx context.Context, sellerID uint, in service.ProductInput, uploads []storage.Upload, baseURL string) (*service.SellerProductView, error) {
	args := m.Called(ctx, sellerID, in, uploads, baseURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SellerProductView), args.Error(1)
}

func (m *MockInventoryService) Update(ctx context.Context, sellerID, productID uint, in service.ProductInput, uploads []storage.Upload, deleteImageIDs []uint, baseURL string) (*service.SellerProductView, error) {
	args := m.Called(ctx, sellerID, productID, in, uploads, deleteImageIDs, baseURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SellerProductView), args.Error(1)
}

func (m *MockInventoryService) Delete(ctx context.Context, sellerID, productID uint) error {
	args := m.Called(ctx, sellerID, productID)
	return args.Error(0)
}
