package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"carfix/internal/service"
)

// ActivityHandler serves the read-only order, wishlist, notification and
// review tables.
type ActivityHandler struct {
	activity service.ActivityService
}

// NewActivityHandler creates an activity handler.
func NewActivityHandler(activity service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// ListOrders godoc
// @Summary List orders
// @Description Admins see every order, everyone else their own.
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.OrderRow
// @Router /orders [get]
func (h *ActivityHandler) ListOrders(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	rows, err := h.activity.ListOrders(c.Request().Context(), claims.UserID, claims.Role)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// ListWishlist godoc
// @Summary List the caller's wishlist
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.WishlistRow
// @Router /wishlist [get]
func (h *ActivityHandler) ListWishlist(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	rows, err := h.activity.ListWishlist(c.Request().Context(), claims.UserID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// ListNotifications godoc
// @Summary List the caller's notifications, newest first
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Notification
// @Router /notifications [get]
func (h *ActivityHandler) ListNotifications(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	rows, err := h.activity.ListNotifications(c.Request().Context(), claims.UserID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// ListReviews godoc
// @Summary List reviews
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.ReviewRow
// @Router /reviews [get]
func (h *ActivityHandler) ListReviews(c echo.Context) error {
	rows, err := h.activity.ListReviews(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, rows)
}
