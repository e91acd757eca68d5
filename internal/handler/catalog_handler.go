package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"carfix/internal/repository"
	"carfix/internal/service"
)

// CatalogHandler serves the public catalog and the seller dashboard reads.
type CatalogHandler struct {
	catalog service.CatalogService
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts godoc
// @Summary List products
// @Description Active, non-deleted products, featured first. Local images are inlined as data URIs.
// @Tags catalog
// @Produce json
// @Param featured query bool false "Only featured products"
// @Param category_id query int false "Category filter"
// @Param brand_id query int false "Brand filter"
// @Success 200 {array} service.ProductView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [get]
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	var filter repository.CatalogFilter
	if err := echo.QueryParamsBinder(c).
		Bool("featured", &filter.FeaturedOnly).
		Uint("category_id", &filter.CategoryID).
		Uint("brand_id", &filter.BrandID).
		BindError(); err != nil {
		return badRequest("invalid query parameters")
	}

	products, err := h.catalog.ListProducts(c.Request().Context(), filter, baseURL(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct godoc
// @Summary Get product by id
// @Description Resolves soft-deleted products too; check is_deleted.
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListBrands godoc
// @Summary List brands
// @Tags catalog
// @Produce json
// @Success 200 {array} model.Brand
// @Router /brands [get]
func (h *CatalogHandler) ListBrands(c echo.Context) error {
	brands, err := h.catalog.ListBrands(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, brands)
}

// ListSellerProducts godoc
// @Summary List the caller's products
// @Tags seller
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.SellerProductView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /seller/products [get]
func (h *CatalogHandler) ListSellerProducts(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	products, err := h.catalog.ListSellerProducts(c.Request().Context(), claims.UserID, baseURL(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetSellerProduct godoc
// @Summary Get one of the caller's products
// @Tags seller
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} service.SellerProductView
// @Failure 404 {object} errors.ErrorResponse
// @Router /seller/products/{id} [get]
func (h *CatalogHandler) GetSellerProduct(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.catalog.GetSellerProduct(c.Request().Context(), claims.UserID, id, baseURL(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, product)
}
