package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sweetshop/internal/model"
)

// ProductFilter narrows a catalog listing. Zero values mean "no filter"; set
// filters compose with AND.
type ProductFilter struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	// DecrementQuantity subtracts qty only if at least qty units are in stock,
	// as a single conditional UPDATE. It reports whether a row matched; false
	// means the product is missing or short.
	DecrementQuantity(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// IncrementQuantity adds qty and reports whether the product exists.
	IncrementQuantity(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID finds a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByName finds a product by exact name.
func (r *productRepository) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns the products matching filter, most recent first.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+escapeLike(strings.ToLower(filter.Name))+"%")
	}
	if filter.Category != "" {
		q = q.Where("category COLLATE utf8mb4_bin = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}

	products := make([]model.Product, 0)
	if err := q.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Update writes the given columns. updated_at is maintained by gorm.
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(columns).Error
}

// Delete hard-deletes a product and reports whether it existed.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteAll empties the catalog.
func (r *productRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Product{})
	return res.RowsAffected, res.Error
}

// DecrementQuantity atomically takes qty units out of stock.
func (r *productRepository) DecrementQuantity(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementQuantity atomically puts qty units into stock.
func (r *productRepository) IncrementQuantity(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// WithTransaction executes a function within a database transaction.
func (r *productRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &productRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
