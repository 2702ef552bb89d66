package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/model"
	"sweetshop/internal/repository"
)

// CreateSweetInput holds the fields of a new catalog entry.
type CreateSweetInput struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Quantity    int
	Description string
	ImageURL    string
}

// SearchQuery filters the catalog. Empty fields are ignored.
type SearchQuery struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// InventoryService manages the catalog and its stock.
type InventoryService interface {
	Create(ctx context.Context, in CreateSweetInput) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, q SearchQuery) ([]model.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, update model.ProductUpdate) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Purchase(ctx context.Context, id uuid.UUID, quantity int) (*model.Product, error)
	Restock(ctx context.Context, id uuid.UUID, quantity int) (*model.Product, error)
}

type inventoryService struct {
	repo repository.ProductRepository
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(repo repository.ProductRepository) InventoryService {
	return &inventoryService{repo: repo}
}

// Create validates and stores a new product.
func (s *inventoryService) Create(ctx context.Context, in CreateSweetInput) (*model.Product, error) {
	problems := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		problems["name"] = "name is required"
	}
	if strings.TrimSpace(in.Category) == "" {
		problems["category"] = "category is required"
	}
	if in.Price.IsNegative() {
		problems["price"] = "price must be a non-negative number"
	}
	if in.Quantity < 0 {
		problems["quantity"] = "quantity must be a non-negative integer"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError(problems)
	}

	product := &model.Product{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	log.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Int("quantity", product.Quantity).Msg("product created")
	return product, nil
}

// List returns the whole catalog, newest first.
func (s *inventoryService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Search returns the products matching every supplied filter, newest first.
func (s *inventoryService) Search(ctx context.Context, q SearchQuery) ([]model.Product, error) {
	problems := map[string]string{}
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		problems["minPrice"] = "minPrice must be a non-negative number"
	}
	if q.MaxPrice != nil && q.MaxPrice.IsNegative() {
		problems["maxPrice"] = "maxPrice must be a non-negative number"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError(problems)
	}

	products, err := s.repo.List(ctx, repository.ProductFilter{
		Name:     strings.TrimSpace(q.Name),
		Category: strings.TrimSpace(q.Category),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

// GetByID returns one product.
func (s *inventoryService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "get product")
	}
	return product, nil
}

// Update merges the set fields of update into the product.
func (s *inventoryService) Update(ctx context.Context, id uuid.UUID, update model.ProductUpdate) (*model.Product, error) {
	if problems := update.Problems(); len(problems) > 0 {
		return nil, apperrors.NewValidationError(problems)
	}

	var updated *model.Product
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.ProductRepository) error {
		current, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "get product")
		}
		if update.Empty() {
			updated = current
			return nil
		}

		if err := txRepo.Update(ctx, id, update.Columns()); err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		updated, err = txRepo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes a product and reports whether it existed.
func (s *inventoryService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	if existed {
		log.Info().Str("product_id", id.String()).Msg("product deleted")
	}
	return existed, nil
}

// Purchase takes quantity units out of stock. The check and the decrement are
// one conditional UPDATE, so concurrent purchases can never oversell; on
// failure the quantity is unchanged.
func (s *inventoryService) Purchase(ctx context.Context, id uuid.UUID, quantity int) (*model.Product, error) {
	if quantity < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	var product *model.Product
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.ProductRepository) error {
		ok, err := txRepo.DecrementQuantity(ctx, id, quantity)
		if err != nil {
			return fmt.Errorf("decrement quantity: %w", err)
		}

		current, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "get product")
		}
		if !ok {
			log.Debug().Str("product_id", id.String()).Int("requested", quantity).Int("available", current.Quantity).Msg("purchase refused")
			return apperrors.ErrInsufficientStock
		}
		product = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Restock adds quantity units to stock.
func (s *inventoryService) Restock(ctx context.Context, id uuid.UUID, quantity int) (*model.Product, error) {
	if quantity < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	var product *model.Product
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.ProductRepository) error {
		ok, err := txRepo.IncrementQuantity(ctx, id, quantity)
		if err != nil {
			return fmt.Errorf("increment quantity: %w", err)
		}
		if !ok {
			return apperrors.ErrSweetNotFound
		}

		product, err = txRepo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("product_id", id.String()).Int("added", quantity).Int("quantity", product.Quantity).Msg("product restocked")
	return product, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrSweetNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
