package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"sweetshop/internal/errors"
	"sweetshop/internal/model"
	"sweetshop/internal/service"
)

// SweetHandler handles catalog and stock endpoints.
type SweetHandler struct {
	inventory service.InventoryService
}

// NewSweetHandler creates a new sweet handler.
func NewSweetHandler(inventory service.InventoryService) *SweetHandler {
	return &SweetHandler{inventory: inventory}
}

// CreateSweetRequest represents a new catalog entry.
type CreateSweetRequest struct {
	Name        string           `json:"name" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required" swaggertype:"number"`
	Quantity    *int             `json:"quantity" validate:"required,min=0"`
	Description string           `json:"description"`
	ImageURL    string           `json:"imageUrl" validate:"omitempty,url"`
}

// PurchaseRequest represents a purchase. Quantity defaults to 1.
type PurchaseRequest struct {
	Quantity *int `json:"quantity" validate:"omitempty,min=1"`
}

// RestockRequest represents a restock.
type RestockRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=1"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// List godoc
// @Summary List all sweets
// @Tags sweets
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Product
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sweets [get]
func (h *SweetHandler) List(c echo.Context) error {
	products, err := h.inventory.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Search godoc
// @Summary Search sweets
// @Tags sweets
// @Produce json
// @Security BearerAuth
// @Param name query string false "Case-insensitive substring of the name"
// @Param category query string false "Exact category"
// @Param minPrice query number false "Inclusive lower price bound"
// @Param maxPrice query number false "Inclusive upper price bound"
// @Success 200 {array} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sweets/search [get]
func (h *SweetHandler) Search(c echo.Context) error {
	query := service.SearchQuery{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
	}

	problems := map[string]string{}
	query.MinPrice = parsePrice(c.QueryParam("minPrice"), "minPrice", problems)
	query.MaxPrice = parsePrice(c.QueryParam("maxPrice"), "maxPrice", problems)
	if len(problems) > 0 {
		return respondError(c, errors.NewValidationError(problems))
	}

	products, err := h.inventory.Search(c.Request().Context(), query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Get godoc
// @Summary Get a sweet
// @Tags sweets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sweet ID"
// @Success 200 {object} model.Product
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /sweets/{id} [get]
func (h *SweetHandler) Get(c echo.Context) error {
	id, ok := sweetID(c)
	if !ok {
		return respondError(c, errors.ErrSweetNotFound)
	}

	product, err := h.inventory.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Create godoc
// @Summary Create a sweet
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSweetRequest true "Sweet"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sweets [post]
func (h *SweetHandler) Create(c echo.Context) error {
	var req CreateSweetRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return invalidInput(err)
	}

	product, err := h.inventory.Create(c.Request().Context(), service.CreateSweetInput{
		Name:        req.Name,
		Category:    req.Category,
		Price:       *req.Price,
		Quantity:    *req.Quantity,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// Update godoc
// @Summary Update a sweet
// @Description Only the fields present in the body are changed.
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sweet ID"
// @Param request body model.ProductUpdate true "Fields to change"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sweets/{id} [put]
func (h *SweetHandler) Update(c echo.Context) error {
	id, ok := sweetID(c)
	if !ok {
		return respondError(c, errors.ErrSweetNotFound)
	}

	var req model.ProductUpdate
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	product, err := h.inventory.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Delete godoc
// @Summary Delete a sweet
// @Tags sweets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sweet ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sweets/{id} [delete]
func (h *SweetHandler) Delete(c echo.Context) error {
	id, ok := sweetID(c)
	if !ok {
		return respondError(c, errors.ErrSweetNotFound)
	}

	existed, err := h.inventory.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if !existed {
		return respondError(c, errors.ErrSweetNotFound)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Sweet deleted successfully"})
}

// Purchase godoc
// @Summary Purchase a sweet
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sweet ID"
// @Param request body PurchaseRequest false "Units to buy, default 1"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sweets/{id}/purchase [post]
func (h *SweetHandler) Purchase(c echo.Context) error {
	id, ok := sweetID(c)
	if !ok {
		return respondError(c, errors.ErrSweetNotFound)
	}

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return invalidInput(err)
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.inventory.Purchase(c.Request().Context(), id, quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Restock godoc
// @Summary Restock a sweet
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sweet ID"
// @Param request body RestockRequest true "Units to add"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sweets/{id}/restock [post]
func (h *SweetHandler) Restock(c echo.Context) error {
	id, ok := sweetID(c)
	if !ok {
		return respondError(c, errors.ErrSweetNotFound)
	}

	var req RestockRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return invalidInput(err)
	}

	product, err := h.inventory.Restock(c.Request().Context(), id, *req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// sweetID parses the :id path parameter. A malformed id cannot name an
// existing sweet, so callers report it as not found.
func sweetID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parsePrice(raw, field string, problems map[string]string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		problems[field] = field + " must be a number"
		return nil
	}
	return &d
}
