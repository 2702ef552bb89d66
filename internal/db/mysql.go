package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sweetshop/internal/model"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	Debug        bool
}

// NewMySQL returns a connected GORM DB instance. Driver errors are translated
// so that unique violations surface as gorm.ErrDuplicatedKey.
func NewMySQL(dsn string, opts Options) (*gorm.DB, error) {
	level := logger.Silent
	if opts.Debug {
		level = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connection pool: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates the schema. With reset set, existing tables are
// dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	tables := []interface{}{
		&model.Product{},
		&model.Account{},
	}

	if reset {
		log.Warn().Msg("RESET_DB set, dropping all tables")
		for _, table := range tables {
			if err := db.Migrator().DropTable(table); err != nil {
				log.Warn().Err(err).Msg("drop table failed (may not exist)")
			}
		}
	}

	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
