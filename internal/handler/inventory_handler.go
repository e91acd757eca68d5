package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"carfix/internal/service"
	"carfix/internal/storage"
)

// InventoryHandler serves a seller's product writes. Bodies are multipart
// forms so images can travel with the fields.
type InventoryHandler struct {
	inventory service.InventoryService
	uploader  *storage.Uploader
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(inventory service.InventoryService, uploader *storage.Uploader) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, uploader: uploader}
}

// Create godoc
// @Summary Create a product
// @Description The first image becomes the primary image.
// @Tags seller
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Name"
// @Param description formData string false "Description"
// @Param price formData number true "Price"
// @Param stock formData int false "Stock"
// @Param category_id formData int true "Category"
// @Param brand_id formData int true "Brand"
// @Param featured formData bool false "Featured"
// @Param is_active formData bool false "Listed"
// @Param images formData file false "Up to 5 jpeg, png or gif images of at most 5MB"
// @Success 201 {object} service.SellerProductView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [post]
func (h *InventoryHandler) Create(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	params, err := c.FormParams()
	if err != nil {
		return badRequest("invalid form body")
	}
	in, err := productInput(params)
	if err != nil {
		return err
	}
	uploads, err := h.uploads(c)
	if err != nil {
		return err
	}

	product, err := h.inventory.Create(c.Request().Context(), claims.UserID, in, uploads, baseURL(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, product)
}

// Update godoc
// @Summary Update a product
// @Description Applies field changes, deletes the images listed in delete_images, then appends new images.
// @Tags seller
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param name formData string false "Name"
// @Param description formData string false "Description"
// @Param price formData number false "Price"
// @Param stock formData int false "Stock"
// @Param category_id formData int false "Category"
// @Param brand_id formData int false "Brand"
// @Param featured formData bool false "Featured"
// @Param is_active formData bool false "Listed"
// @Param delete_images formData string false "JSON array of image ids"
// @Param images formData file false "New images"
// @Success 200 {object} service.SellerProductView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /seller/products/{id} [put]
func (h *InventoryHandler) Update(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	params, err := c.FormParams()
	if err != nil {
		return badRequest("invalid form body")
	}
	in, err := productInput(params)
	if err != nil {
		return err
	}
	deleteIDs, err := parseIDList(params.Get("delete_images"))
	if err != nil {
		return err
	}
	uploads, err := h.uploads(c)
	if err != nil {
		return err
	}

	product, err := h.inventory.Update(c.Request().Context(), claims.UserID, id, in, uploads, deleteIDs, baseURL(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, product)
}

// Delete godoc
// @Summary Delete a product
// @Description Soft delete; order history keeps referencing the row.
// @Tags seller
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /seller/products/{id} [delete]
func (h *InventoryHandler) Delete(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.inventory.Delete(c.Request().Context(), claims.UserID, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
}

// uploads validates every file of the images field. Requests that are not
// multipart carry no files.
func (h *InventoryHandler) uploads(c echo.Context) ([]storage.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, badRequest("invalid multipart body")
	}
	files := form.File[storage.FieldName]
	if err := h.uploader.CheckCount(len(files)); err != nil {
		return nil, fail(err)
	}

	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, badRequest("unreadable file " + fh.Filename)
		}
		up, err := h.uploader.Prepare(fh.Filename, f)
		f.Close()
		if err != nil {
			return nil, fail(err)
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func productInput(params url.Values) (service.ProductInput, error) {
	var in service.ProductInput
	if params.Has("name") {
		v := params.Get("name")
		in.Name = &v
	}
	if params.Has("description") {
		v := params.Get("description")
		in.Description = &v
	}
	if v := params.Get("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return in, badRequest("invalid price")
		}
		in.Price = &price
	}
	if v := params.Get("stock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return in, badRequest("invalid stock")
		}
		in.Stock = &stock
	}
	var err error
	if in.CategoryID, err = formID(params, "category_id"); err != nil {
		return in, err
	}
	if in.BrandID, err = formID(params, "brand_id"); err != nil {
		return in, err
	}
	if params.Has("featured") {
		v := formBool(params.Get("featured"))
		in.Featured = &v
	}
	if params.Has("is_active") {
		v := formBool(params.Get("is_active"))
		in.IsActive = &v
	}
	return in, nil
}

func formID(params url.Values, name string) (*uint, error) {
	v := params.Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, badRequest("invalid " + name)
	}
	u := uint(id)
	return &u, nil
}

// formBool accepts the checkbox encodings browsers and the dashboard send.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// parseIDList decodes a JSON array of ids. Ids may be numbers or numeric
// strings.
func parseIDList(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var values []json.Number
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, badRequest("delete_images must be a JSON array of ids")
	}
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return nil, badRequest("delete_images must be a JSON array of ids")
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
