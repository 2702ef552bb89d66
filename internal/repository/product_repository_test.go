package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var productColumns = []string{"id", "name", "category", "price", "quantity", "description", "image_url", "created_at", "updated_at"}

func TestProductRepository_DecrementQuantity(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		expected bool
	}{
		{name: "enough stock", affected: 1, expected: true},
		{name: "short or missing", affected: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewProductRepository(db)
			id := uuid.New()

			mock.ExpectExec(regexp.QuoteMeta("UPDATE `products` SET `quantity`=quantity - ?,`updated_at`=? WHERE id = ? AND quantity >= ?")).
				WithArgs(3, sqlmock.AnyArg(), id.String(), 3).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.DecrementQuantity(context.Background(), id, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProductRepository_IncrementQuantity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `products` SET `quantity`=quantity + ?,`updated_at`=? WHERE id = ?")).
		WithArgs(5, sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.IncrementQuantity(context.Background(), id, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `products` WHERE id = ?")).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	existed, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now()
	minPrice := decimal.NewFromInt(100)

	rows := sqlmock.NewRows(productColumns).
		AddRow(uuid.New().String(), "Gulab Jamun", "Indian Sweet", "120.00", 50, "", "", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE LOWER(name) LIKE ? AND category COLLATE utf8mb4_bin = ? AND price >= ? ORDER BY created_at DESC")).
		WithArgs(`%jamun\_%`, "Indian Sweet", "100").
		WillReturnRows(rows)

	products, err := repo.List(context.Background(), ProductFilter{
		Name:     "JAMUN_",
		Category: "Indian Sweet",
		MinPrice: &minPrice,
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Gulab Jamun", products[0].Name)
	assert.Equal(t, 50, products[0].Quantity)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(120)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListWithoutFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(productColumns))

	products, err := repo.List(context.Background(), ProductFilter{})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_x\\`, escapeLike(`50% off_x\`))
}
