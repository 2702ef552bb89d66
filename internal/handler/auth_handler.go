package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sweetshop/internal/errors"
	"sweetshop/internal/middleware"
	"sweetshop/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return invalidInput(err)
	}

	// Self-service accounts are never administrators; see cmd/admin.
	result, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, false)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return invalidInput(err)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Me godoc
// @Summary Current session identity
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AccountView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return respondError(c, errors.ErrUnauthenticated)
	}

	account, err := h.authService.Current(c.Request().Context(), identity.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}
