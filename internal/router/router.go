package router

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"statues/internal/auth"
	"statues/internal/config"
	"statues/internal/handler"
	appmw "statues/internal/middleware"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	sessions *auth.SessionManager,
	authHandler *handler.AuthHandler,
	statueHandler *handler.StatueHandler,
	favoriteHandler *handler.FavoriteHandler,
	assetHandler *handler.AssetHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	// Leave room for multipart framing around the largest accepted image.
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (cfg.MaxUploadBytes+1<<20)/1024)))
	e.Use(middleware.ContextTimeout(cfg.RequestTimeout))
	e.Use(appmw.SessionCookie(cfg.SessionCookie, sessions.Signer()))
	e.Use(appmw.Session(sessions))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Backend is running")
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.GET("/assets/:filename", assetHandler.GetAsset)

	// Public routes
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)
	e.GET("/auth-status", authHandler.Status)

	e.GET("/statues", statueHandler.ListStatues)
	e.GET("/statues/:id", statueHandler.GetStatue)

	// Admin routes
	e.POST("/statues", statueHandler.CreateStatue, appmw.RequireAdmin)
	e.PUT("/statues/:id", statueHandler.UpdateStatue, appmw.RequireAdmin)
	e.DELETE("/statues/:id", statueHandler.DeleteStatue, appmw.RequireAdmin)

	// Routes for any logged-in user
	favorites := e.Group("/favorites", appmw.RequireAuth)
	favorites.GET("", favoriteHandler.ListFavorites)
	favorites.POST("", favoriteHandler.AddFavorite)
	favorites.DELETE("/:statue_id", favoriteHandler.RemoveFavorite)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
