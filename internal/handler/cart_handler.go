package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"carfix/internal/service"
)

// CartHandler serves the customer's cart.
type CartHandler struct {
	cart service.CartService
}

// NewCartHandler creates a cart handler.
func NewCartHandler(cart service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// AddToCartRequest adds quantity of a product to the cart.
type AddToCartRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"`
}

// UpdateCartRequest overwrites a line's quantity.
type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

// CountResponse is the cart badge count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// List godoc
// @Summary List cart lines
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.CartLine
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /cart [get]
func (h *CartHandler) List(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	lines, err := h.cart.List(c.Request().Context(), claims.UserID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, lines)
}

// Add godoc
// @Summary Add a product to the cart
// @Description Merges into the existing line for the product. Returns the whole cart.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddToCartRequest true "Product and quantity"
// @Success 200 {array} repository.CartLine
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cart [post]
func (h *CartHandler) Add(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	var req AddToCartRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	lines, err := h.cart.Add(c.Request().Context(), claims.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, lines)
}

// Update godoc
// @Summary Set a cart line's quantity
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Cart item ID"
// @Param request body UpdateCartRequest true "New quantity"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cart/{id} [put]
func (h *CartHandler) Update(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateCartRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if _, err := h.cart.UpdateQuantity(c.Request().Context(), claims.UserID, id, req.Quantity); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Cart item updated"})
}

// Remove godoc
// @Summary Remove a cart line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path int true "Cart item ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cart/{id} [delete]
func (h *CartHandler) Remove(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.cart.Remove(c.Request().Context(), claims.UserID, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Item removed from cart"})
}

// Count godoc
// @Summary Count cart lines
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CountResponse
// @Router /cart/count [get]
func (h *CartHandler) Count(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	n, err := h.cart.Count(c.Request().Context(), claims.UserID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, CountResponse{Count: n})
}
