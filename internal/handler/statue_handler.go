package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"statues/internal/middleware"
	"statues/internal/service"
)

// StatueHandler handles the statue catalog endpoints.
type StatueHandler struct {
	statueService service.StatueService
}

// NewStatueHandler creates a new statue handler.
func NewStatueHandler(statueService service.StatueService) *StatueHandler {
	return &StatueHandler{statueService: statueService}
}

// StatueRequest is the JSON form of a create or update request. Multipart
// requests use the same field names and may add an image file.
type StatueRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Image       string `json:"image" form:"image"`
}

// CreateStatueResponse is returned after a statue is created.
type CreateStatueResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

// ListStatues godoc
// @Summary List statues
// @Tags statues
// @Produce json
// @Success 200 {array} model.Statue
// @Failure 500 {object} errors.ErrorResponse
// @Router /statues [get]
func (h *StatueHandler) ListStatues(c echo.Context) error {
	statues, err := h.statueService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, statues)
}

// GetStatue godoc
// @Summary Get statue by id
// @Tags statues
// @Produce json
// @Param id path int true "Statue ID"
// @Success 200 {object} model.Statue
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /statues/{id} [get]
func (h *StatueHandler) GetStatue(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	statue, err := h.statueService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, statue)
}

// CreateStatue godoc
// @Summary Create a statue (admin only)
// @Tags statues
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Name"
// @Param description formData string true "Description"
// @Param image formData file false "Image file"
// @Success 201 {object} CreateStatueResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /statues [post]
func (h *StatueHandler) CreateStatue(c echo.Context) error {
	input, upload, err := readStatueRequest(c)
	if err != nil {
		return err
	}
	defer upload.close()

	statue, err := h.statueService.Create(c.Request().Context(), middleware.SessionFrom(c), input, upload.toService())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, CreateStatueResponse{Message: "Statue added successfully", ID: statue.ID})
}

// UpdateStatue godoc
// @Summary Update a statue (admin only); blank fields are left unchanged
// @Tags statues
// @Accept json,multipart/form-data
// @Produce json
// @Param id path int true "Statue ID"
// @Param request body StatueRequest false "Fields to change"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /statues/{id} [put]
func (h *StatueHandler) UpdateStatue(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	input, upload, err := readStatueRequest(c)
	if err != nil {
		return err
	}
	defer upload.close()

	if _, err := h.statueService.Update(c.Request().Context(), middleware.SessionFrom(c), id, input, upload.toService()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Statue updated successfully"})
}

// DeleteStatue godoc
// @Summary Delete a statue (admin only)
// @Tags statues
// @Produce json
// @Param id path int true "Statue ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /statues/{id} [delete]
func (h *StatueHandler) DeleteStatue(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.statueService.Delete(c.Request().Context(), middleware.SessionFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Statue deleted successfully"})
}

// formUpload is an opened multipart file; the zero value means no file.
type formUpload struct {
	header *multipart.FileHeader
	file   multipart.File
}

func (u *formUpload) toService() *service.Upload {
	if u == nil || u.file == nil {
		return nil
	}
	return &service.Upload{
		Filename:    u.header.Filename,
		Size:        u.header.Size,
		ContentType: u.header.Header.Get(echo.HeaderContentType),
		Reader:      u.file,
	}
}

func (u *formUpload) close() {
	if u != nil && u.file != nil {
		_ = u.file.Close()
	}
}

// readStatueRequest accepts a JSON body or a multipart/urlencoded form with
// an optional "image" file part.
func readStatueRequest(c echo.Context) (service.StatueInput, *formUpload, error) {
	var req StatueRequest
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		if err := c.Bind(&req); err != nil {
			return service.StatueInput{}, nil, badRequest("invalid request body")
		}
		return toStatueInput(req), nil, nil
	}

	req.Name = c.FormValue("name")
	req.Description = c.FormValue("description")
	req.Image = c.FormValue("image")

	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return toStatueInput(req), nil, nil
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return toStatueInput(req), nil, nil
	}
	if err != nil {
		return service.StatueInput{}, nil, badRequest("invalid image upload")
	}
	file, err := header.Open()
	if err != nil {
		return service.StatueInput{}, nil, badRequest("invalid image upload")
	}
	return toStatueInput(req), &formUpload{header: header, file: file}, nil
}

func toStatueInput(req StatueRequest) service.StatueInput {
	return service.StatueInput{Name: req.Name, Description: req.Description, Image: req.Image}
}
