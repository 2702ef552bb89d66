package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env        string `mapstructure:"APP_ENV"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	MySQLDSN       string `mapstructure:"MYSQL_DSN"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ResetDB        bool   `mapstructure:"RESET_DB"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisDB   int    `mapstructure:"REDIS_DB"`
	RedisPass string `mapstructure:"REDIS_PASSWORD"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`
	BcryptCost  int    `mapstructure:"BCRYPT_COST"`

	LoginMaxAttempts    int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginLockoutMinutes int `mapstructure:"LOGIN_LOCKOUT_MINUTES"`

	CORSOrigin  string `mapstructure:"CORS_ORIGIN"`
	SwaggerHost string `mapstructure:"SWAGGER_HOST"`
}

var defaults = map[string]interface{}{
	"APP_ENV":               "development",
	"SERVER_PORT":           "8080",
	"MYSQL_DSN":             "user:password@tcp(localhost:3306)/sweetshop?charset=utf8mb4&parseTime=True&loc=UTC",
	"DB_MAX_OPEN_CONNS":     25,
	"DB_MAX_IDLE_CONNS":     5,
	"RESET_DB":              false,
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_DB":              0,
	"REDIS_PASSWORD":        "",
	"JWT_SECRET":            "change-me",
	"JWT_TTL_HOURS":         24,
	"BCRYPT_COST":           10,
	"LOGIN_MAX_ATTEMPTS":    10,
	"LOGIN_LOCKOUT_MINUTES": 15,
	"CORS_ORIGIN":           "*",
	"SWAGGER_HOST":          "",
}

// Load builds Config from the environment and an optional .env file in the
// working directory. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Production reports whether the service runs with production settings.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// TokenTTL is the validity window of issued session tokens.
func (c *Config) TokenTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// LoginLockout is the window during which failed logins are counted.
func (c *Config) LoginLockout() time.Duration {
	if c.LoginLockoutMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.LoginLockoutMinutes) * time.Minute
}
