package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sweetshop/docs" // swagger docs
	"sweetshop/internal/auth"
	"sweetshop/internal/cache"
	"sweetshop/internal/config"
	"sweetshop/internal/db"
	"sweetshop/internal/handler"
	"sweetshop/internal/repository"
	"sweetshop/internal/router"
	"sweetshop/internal/service"
)

// @title Sweet Shop API
// @version 1.0
// @description Sweet shop catalog, inventory and storefront API with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev is pretty, prod is JSON
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	// Prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		Debug:        !cfg.Production(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}

	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.Fatal().Err(err).Msg("database migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL())
	attempts := auth.NewAttemptStore(cacheClient, cfg.LoginMaxAttempts, cfg.LoginLockout())
	gate := auth.NewGate(jwtService)

	// Initialize services
	authService := service.NewAuthService(accountRepo, jwtService, attempts, cfg.BcryptCost)
	inventoryService := service.NewInventoryService(productRepo)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, gate, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Sweets: handler.NewSweetHandler(inventoryService),
		Health: handler.NewHealthHandler(
			func(ctx context.Context) error { return db.Ping(ctx, gormDB) },
			cacheClient.Ping,
		),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}
	log.Info().Str("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html").Msg("swagger documentation available")

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info().Str("addr", addr).Msg("sweet shop API listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdown(e, gormDB, cacheClient)
	log.Info().Msg("server exited")
}

func shutdown(e *echo.Echo, gormDB *gorm.DB, cacheClient *cache.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := db.Close(gormDB); err != nil {
		log.Error().Err(err).Msg("close database")
	}
	if err := cacheClient.Close(); err != nil {
		log.Error().Err(err).Msg("close cache")
	}
}
