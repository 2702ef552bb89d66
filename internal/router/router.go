package router

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"sweetshop/internal/auth"
	"sweetshop/internal/config"
	"sweetshop/internal/handler"
	"sweetshop/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth   *handler.AuthHandler
	Sweets *handler.SweetHandler
	Health *handler.HealthHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, gate *auth.Gate, h Handlers) {
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: strings.Split(cfg.CORSOrigin, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.Validator = NewValidator()

	e.GET("/health", h.Health.Check)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("/health", h.Health.Check)

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	// Secured routes (require a valid session token)
	secured := api.Group("", middleware.Authenticate(gate))
	admin := middleware.RequireAdmin(gate)

	secured.GET("/me", h.Auth.Me)

	secured.GET("/sweets", h.Sweets.List)
	secured.GET("/sweets/search", h.Sweets.Search)
	secured.GET("/sweets/:id", h.Sweets.Get)
	secured.POST("/sweets", h.Sweets.Create, admin)
	secured.PUT("/sweets/:id", h.Sweets.Update)
	secured.DELETE("/sweets/:id", h.Sweets.Delete, admin)

	// Inventory routes
	secured.POST("/sweets/:id/purchase", h.Sweets.Purchase)
	secured.POST("/sweets/:id/restock", h.Sweets.Restock, admin)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
