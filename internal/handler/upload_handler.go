package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"carfix/internal/errors"
	"carfix/internal/storage"
)

// UploadHandler streams stored product images.
type UploadHandler struct {
	store *storage.ImageStore
}

// NewUploadHandler creates an upload handler.
func NewUploadHandler(store *storage.ImageStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Serve godoc
// @Summary Fetch an uploaded image
// @Tags uploads
// @Produce image/png,image/jpeg,image/gif
// @Param key path string true "Object key"
// @Success 200 {file} binary
// @Failure 404 {object} errors.ErrorResponse
// @Router /uploads/{key} [get]
func (h *UploadHandler) Serve(c echo.Context) error {
	key, ok := storage.KeyFromURL(storage.URLPrefix + c.Param("*"))
	if !ok {
		return notFoundImage()
	}

	r, err := h.store.NewReader(c.Request().Context(), key)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotFound) {
			return notFoundImage()
		}
		return fail(err)
	}
	defer r.Close()

	c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, storage.MIMEFromExt(key), r)
}

func notFoundImage() error {
	return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
		Error: "Image not found",
		Code:  "NOT_FOUND",
	})
}
