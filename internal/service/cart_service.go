package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"carfix/internal/cache"
	apperrors "carfix/internal/errors"
	"carfix/internal/model"
	"carfix/internal/repository"
)

const cartCountTTL = 30 * time.Second

// CartService reconciles cart lines against live product stock. A line's
// quantity never exceeds its product's stock at the time of the write.
type CartService interface {
	List(ctx context.Context, userID uint) ([]repository.CartLine, error)
	// Add merges into the existing line for the product, or creates it, and
	// returns the whole cart.
	Add(ctx context.Context, userID, productID uint, qty int) ([]repository.CartLine, error)
	UpdateQuantity(ctx context.Context, userID, itemID uint, qty int) (*model.CartItem, error)
	Remove(ctx context.Context, userID, itemID uint) error
	Count(ctx context.Context, userID uint) (int64, error)
}

type cartService struct {
	cart     repository.CartRepository
	products repository.ProductRepository
	cache    *cache.Client
}

// NewCartService creates the cart reconciler.
func NewCartService(cart repository.CartRepository, products repository.ProductRepository, cache *cache.Client) CartService {
	return &cartService{cart: cart, products: products, cache: cache}
}

func (s *cartService) countKey(userID uint) string {
	return fmt.Sprintf("cart:count:%d", userID)
}

func (s *cartService) List(ctx context.Context, userID uint) ([]repository.CartLine, error) {
	lines, err := s.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if lines == nil {
		lines = []repository.CartLine{}
	}
	return lines, nil
}

func (s *cartService) Add(ctx context.Context, userID, productID uint, qty int) ([]repository.CartLine, error) {
	if qty < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid quantity")
	}

	product, err := s.products.FindAvailable(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "Product not found or unavailable")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	line, err := s.cart.FindLine(ctx, userID, productID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.insert(ctx, userID, product, qty); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("find cart line: %w", err)
	default:
		if err := s.increment(ctx, line, product, qty); err != nil {
			return nil, err
		}
	}

	_ = s.cache.Delete(ctx, s.countKey(userID))
	return s.List(ctx, userID)
}

func (s *cartService) insert(ctx context.Context, userID uint, product *model.Product, qty int) error {
	if product.Stock < qty {
		return apperrors.ErrInsufficientStock
	}

	ok, err := s.cart.InsertIfStock(ctx, userID, product.ID, qty)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent request created the line first; merge into it.
		line, err := s.cart.FindLine(ctx, userID, product.ID)
		if err != nil {
			return fmt.Errorf("find cart line: %w", err)
		}
		return s.increment(ctx, line, product, qty)
	}
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	if !ok {
		return apperrors.ErrInsufficientStock
	}
	return nil
}

func (s *cartService) increment(ctx context.Context, line *model.CartItem, product *model.Product, qty int) error {
	if line.Quantity+qty > product.Stock {
		return apperrors.ErrInsufficientStock
	}

	ok, err := s.cart.IncrementIfStock(ctx, line.ID, qty)
	if err != nil {
		return fmt.Errorf("increment cart line: %w", err)
	}
	if !ok {
		return apperrors.ErrInsufficientStock
	}
	return nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uint, qty int) (*model.CartItem, error) {
	if qty < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid quantity")
	}

	line, err := s.cart.FindOwned(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "Cart item not found")
		}
		return nil, fmt.Errorf("find cart line: %w", err)
	}

	product, err := s.products.FindAvailable(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "Product not found or unavailable")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	if qty > product.Stock {
		return nil, stockLimit(product.Stock)
	}

	ok, err := s.cart.SetQuantityIfStock(ctx, userID, itemID, qty)
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}
	if !ok && qty != line.Quantity {
		// Stock dropped between the read and the write.
		if current, err := s.products.FindByID(ctx, line.ProductID); err == nil {
			return nil, stockLimit(current.Stock)
		}
		return nil, apperrors.ErrInsufficientStock
	}

	line.Quantity = qty
	return line, nil
}

func stockLimit(stock int) error {
	return apperrors.WithMessage(apperrors.ErrInsufficientStock,
		fmt.Sprintf("Only %d items available in stock", stock))
}

func (s *cartService) Remove(ctx context.Context, userID, itemID uint) error {
	n, err := s.cart.Delete(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if n == 0 {
		return apperrors.WithMessage(apperrors.ErrNotFound, "Cart item not found")
	}
	_ = s.cache.Delete(ctx, s.countKey(userID))
	return nil
}

// Count is served from redis for up to cartCountTTL; writes through this
// service invalidate it.
func (s *cartService) Count(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if s.cache.GetJSON(ctx, s.countKey(userID), &n) {
		return n, nil
	}

	n, err := s.cart.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count cart: %w", err)
	}
	s.cache.SetJSON(ctx, s.countKey(userID), n, cartCountTTL)
	return n, nil
}
