package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"statues/internal/middleware"
	"statues/internal/service"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UserInfo is the public view of a logged-in user.
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

// StatusResponse reports whether the caller holds a live session.
type StatusResponse struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	User            *UserInfo `json:"user,omitempty"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Username and password"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("username and password are required")
	}

	if _, err := h.authService.Register(c.Request().Context(), req.Username, req.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// Login godoc
// @Summary Log in and receive a session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Username and password"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("username and password are required")
	}

	token, session, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.SetCookie(h.sessionCookie(token, int(h.cookie.TTL.Seconds())))
	return c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    UserInfo{ID: session.UserID, Username: session.Username, Role: session.Role},
	})
}

// Logout godoc
// @Summary Log out and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(h.cookie.Name); err == nil {
		token = cookie.Value
	}

	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return respondError(c, err)
	}

	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Status godoc
// @Summary Report the caller's session
// @Tags auth
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /auth-status [get]
func (h *AuthHandler) Status(c echo.Context) error {
	session := middleware.SessionFrom(c)
	if session == nil {
		return c.JSON(http.StatusOK, StatusResponse{IsAuthenticated: false})
	}
	return c.JSON(http.StatusOK, StatusResponse{
		IsAuthenticated: true,
		User:            &UserInfo{ID: session.UserID, Username: session.Username, Role: session.Role},
	})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
