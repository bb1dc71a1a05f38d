package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"statues/internal/middleware"
	"statues/internal/service"
)

// FavoriteHandler handles the per-user favorites endpoints.
type FavoriteHandler struct {
	favoriteService service.FavoriteService
}

// NewFavoriteHandler creates a new favorite handler.
func NewFavoriteHandler(favoriteService service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// AddFavoriteRequest names the statue to bookmark.
type AddFavoriteRequest struct {
	StatueID StatueRef `json:"statue_id" form:"statue_id" validate:"required" swaggertype:"integer"`
}

// StatueRef is a statue id sent either as a JSON number or as a numeric string,
// as browser clients pass route params through unchanged.
type StatueRef uint

func (r *StatueRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return fmt.Errorf("statue_id must be a positive integer: %w", err)
	}
	*r = StatueRef(id)
	return nil
}

// AddFavorite godoc
// @Summary Add a statue to the caller's favorites
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body AddFavoriteRequest true "Statue to add"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /favorites [post]
func (h *FavoriteHandler) AddFavorite(c echo.Context) error {
	var req AddFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("statue_id is required")
	}

	if err := h.favoriteService.Add(c.Request().Context(), middleware.SessionFrom(c), uint(req.StatueID)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Added to favorites successfully"})
}

// RemoveFavorite godoc
// @Summary Remove a statue from the caller's favorites
// @Tags favorites
// @Produce json
// @Param statue_id path int true "Statue ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /favorites/{statue_id} [delete]
func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	statueID, err := parseID(c, "statue_id")
	if err != nil {
		return err
	}
	if err := h.favoriteService.Remove(c.Request().Context(), middleware.SessionFrom(c), statueID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Removed from favorites successfully"})
}

// ListFavorites godoc
// @Summary List the caller's favorite statues
// @Tags favorites
// @Produce json
// @Success 200 {array} model.Statue
// @Failure 401 {object} errors.ErrorResponse
// @Router /favorites [get]
func (h *FavoriteHandler) ListFavorites(c echo.Context) error {
	statues, err := h.favoriteService.List(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, statues)
}
