package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"statues/internal/errors"
)

// MessageResponse is the body of successful mutations.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError converts a service error into the JSON error body. Server-side
// failures are logged with their cause and reported generically.
func respondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"error":  err.Error(),
		}).Error("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  "INVALID_INPUT",
	})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(id), nil
}
