package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
	"gorm.io/gorm"

	"sweetshop/internal/config"
	"sweetshop/internal/db"
	"sweetshop/internal/repository"
	"sweetshop/internal/service"
)

//go:embed catalog.json
var defaultCatalog []byte

// SeedSweetData represents one entry of the sample catalog.
type SeedSweetData struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
}

func main() {
	reset := flag.Bool("reset", false, "delete the whole catalog before seeding")
	file := flag.StringP("file", "f", "", "JSON catalog to load instead of the built-in sample")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("starting seed script")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() { _ = db.Close(gormDB) }()

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB, false); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	raw := defaultCatalog
	if *file != "" {
		raw, err = os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("failed to read catalog")
		}
	}

	sweets, err := parseCatalog(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse catalog")
	}
	log.Info().Int("count", len(sweets)).Msg("catalog loaded")

	ctx := context.Background()
	productRepo := repository.NewProductRepository(gormDB)

	if *reset {
		removed, err := productRepo.DeleteAll(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to clear catalog")
		}
		log.Warn().Int64("removed", removed).Msg("catalog cleared")
	}

	created, skipped, err := seedSweets(ctx, productRepo, service.NewInventoryService(productRepo), sweets)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed sweets")
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("total", created+skipped).
		Msg("seed completed successfully")
}

// parseCatalog decodes a JSON array of sweets.
func parseCatalog(raw []byte) ([]SeedSweetData, error) {
	var sweets []SeedSweetData
	if err := json.Unmarshal(raw, &sweets); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return sweets, nil
}

// seedSweets creates every sweet whose name is not in the catalog yet, so
// running it twice leaves the catalog unchanged.
func seedSweets(ctx context.Context, repo repository.ProductRepository, inventory service.InventoryService, sweets []SeedSweetData) (created int, skipped int, err error) {
	for _, item := range sweets {
		_, err := repo.FindByName(ctx, item.Name)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, skipped, fmt.Errorf("error checking sweet %q: %w", item.Name, err)
		}

		product, err := inventory.Create(ctx, service.CreateSweetInput{
			Name:        item.Name,
			Category:    item.Category,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Description: item.Description,
			ImageURL:    item.ImageURL,
		})
		if err != nil {
			return created, skipped, fmt.Errorf("error creating sweet %q: %w", item.Name, err)
		}
		log.Debug().Str("name", product.Name).Str("price", product.Price.StringFixed(2)).Int("quantity", product.Quantity).Msg("sweet created")
		created++
	}

	return created, skipped, nil
}
