package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "statues/internal/errors"
	"statues/internal/storage"
)

// AssetHandler serves uploaded images from the configured image store.
type AssetHandler struct {
	images storage.ImageStore
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(images storage.ImageStore) *AssetHandler {
	return &AssetHandler{images: images}
}

// GetAsset godoc
// @Summary Download an uploaded statue image
// @Tags assets
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param filename path string true "Stored filename"
// @Success 200 {file} binary
// @Failure 404 {object} errors.ErrorResponse
// @Router /assets/{filename} [get]
func (h *AssetHandler) GetAsset(c echo.Context) error {
	filename := c.Param("filename")
	if !storage.IsSafeFilename(filename) {
		return notFoundAsset()
	}

	body, info, err := h.images.Open(c.Request().Context(), filename)
	if errors.Is(err, storage.ErrImageNotFound) {
		return notFoundAsset()
	}
	if err != nil {
		return respondError(c, err)
	}
	defer body.Close()

	res := c.Response()
	if info.Size > 0 {
		res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	}
	res.Header().Set("Cache-Control", "public, max-age=86400")
	res.Header().Set(echo.HeaderContentType, info.ContentType)
	res.WriteHeader(http.StatusOK)
	_, err = io.Copy(res, body)
	return err
}

func notFoundAsset() error {
	return echo.NewHTTPError(http.StatusNotFound, apperrors.ErrorResponse{
		Error: "image not found",
		Code:  "NOT_FOUND",
	})
}
