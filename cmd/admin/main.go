package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"sweetshop/internal/auth"
	"sweetshop/internal/config"
	"sweetshop/internal/db"
	"sweetshop/internal/repository"
	"sweetshop/internal/service"
)

func main() {
	email := flag.StringP("email", "e", "admin@sweetshop.com", "administrator email")
	password := flag.StringP("password", "p", "", "password used when the account has to be created")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB, false); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// The lockout store is never consulted here, so no cache is needed.
	authService := service.NewAuthService(
		repository.NewAccountRepository(gormDB),
		auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL()),
		auth.NewAttemptStore(nil, 0, 0),
		cfg.BcryptCost,
	)

	created, err := authService.EnsureAdmin(context.Background(), *email, *password)
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("failed to ensure admin")
	}

	if created {
		log.Info().Str("email", service.NormalizeEmail(*email)).Msg("admin account created")
		return
	}
	log.Info().Str("email", service.NormalizeEmail(*email)).Msg("account is an administrator")
}
