package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration required by the API process.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	History HistoryConfig
}

type AppConfig struct {
	Env  string `env:"APP_ENV"`
	Port int    `env:"APP_PORT" env-default:"8080"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`

	// SSLMode accepts: disable, require, verify-ca, verify-full.
	SSLMode string `env:"DB_SSLMODE"`

	// MigrateOnStart applies embedded goose migrations before serving.
	MigrateOnStart bool `env:"DB_MIGRATE_ON_START" env-default:"false"`
}

type RedisConfig struct {
	Host string `env:"REDIS_HOST"`
	Port int    `env:"REDIS_PORT" env-default:"6379"`

	// UserCacheTTL bounds how stale a cached display name may be.
	UserCacheTTL time.Duration `env:"REDIS_USER_CACHE_TTL" env-default:"10m"`
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER"`
	JWTAudience     string        `env:"JWT_AUDIENCE"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TTL"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TTL"`
}

// HistoryConfig controls the unified history read path.
type HistoryConfig struct {
	// ReadMode is "view" (query unified_history_view) or "fanout" (query each table and merge).
	ReadMode        string `env:"HISTORY_READ_MODE" env-default:"view"`
	DefaultPageSize int    `env:"HISTORY_DEFAULT_PAGE_SIZE" env-default:"10"`
	MaxPageSize     int    `env:"HISTORY_MAX_PAGE_SIZE" env-default:"100"`
}

const (
	ReadModeView   = "view"
	ReadModeFanout = "fanout"
)

func Load() (Config, error) {
	var c Config
	if err := cleanenv.ReadEnv(&c); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem at once and fills env-dependent defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Redis.UserCacheTTL <= 0 {
		c.Redis.UserCacheTTL = 10 * time.Minute
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.History.ReadMode == "" {
		c.History.ReadMode = ReadModeView
	}
	if c.History.ReadMode != ReadModeView && c.History.ReadMode != ReadModeFanout {
		errs = append(errs, fmt.Errorf("HISTORY_READ_MODE must be one of view, fanout, got %q", c.History.ReadMode))
	}
	if c.History.DefaultPageSize <= 0 {
		c.History.DefaultPageSize = 10
	}
	if c.History.MaxPageSize <= 0 {
		c.History.MaxPageSize = 100
	}
	if c.History.DefaultPageSize > c.History.MaxPageSize {
		errs = append(errs, fmt.Errorf("HISTORY_DEFAULT_PAGE_SIZE (%d) exceeds HISTORY_MAX_PAGE_SIZE (%d)", c.History.DefaultPageSize, c.History.MaxPageSize))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
