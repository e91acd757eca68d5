package service

import (
	"context"
	"fmt"

	"carfix/internal/model"
	"carfix/internal/repository"
)

// ActivityService serves the read-only per-user tables.
type ActivityService interface {
	// ListOrders returns every order for admins and the caller's own otherwise.
	ListOrders(ctx context.Context, userID uint, role model.Role) ([]repository.OrderRow, error)
	ListWishlist(ctx context.Context, userID uint) ([]repository.WishlistRow, error)
	ListNotifications(ctx context.Context, userID uint) ([]model.Notification, error)
	ListReviews(ctx context.Context) ([]repository.ReviewRow, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

// NewActivityService creates the activity reader.
func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) ListOrders(ctx context.Context, userID uint, role model.Role) ([]repository.OrderRow, error) {
	scope := userID
	if role == model.RoleAdmin {
		scope = 0
	}
	rows, err := s.repo.ListOrders(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return rows, nil
}

func (s *activityService) ListWishlist(ctx context.Context, userID uint) ([]repository.WishlistRow, error) {
	rows, err := s.repo.ListWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return rows, nil
}

func (s *activityService) ListNotifications(ctx context.Context, userID uint) ([]model.Notification, error) {
	rows, err := s.repo.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return rows, nil
}

func (s *activityService) ListReviews(ctx context.Context) ([]repository.ReviewRow, error) {
	rows, err := s.repo.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return rows, nil
}
