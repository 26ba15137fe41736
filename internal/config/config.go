package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret"

// Registry backends understood by AUTH_REGISTRY_BACKEND.
const (
	RegistryBackendPostgres = "postgres"
	RegistryBackendRedis    = "redis"
)

var (
	defaultPublicPrefixes = []string{"/api/auth", "/auth", "/uploads", "/css", "/js", "/images", "/health", "/metrics"}
	defaultPublicPaths    = []string{"/error"}
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Storage  StorageConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// Timezone is the IANA zone used for wall-clock input such as task deadlines.
	Timezone string
	Location *time.Location
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TimeoutMS int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	RegistryBackend       string
	StoreTimeoutMS        int
	PublicPrefixes        []string
	PublicPaths           []string
}

// StorageConfig controls where uploaded task images live.
type StorageConfig struct {
	UploadDir      string
	MaxUploadBytes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "task-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			Timezone:              getEnv("APP_TIMEZONE", "UTC"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			TimeoutMS: getEnvAsInt("REDIS_TIMEOUT_MS", 500),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", devJWTSecret),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			RegistryBackend:       strings.ToLower(getEnv("AUTH_REGISTRY_BACKEND", RegistryBackendPostgres)),
			StoreTimeoutMS:        getEnvAsInt("AUTH_STORE_TIMEOUT_MS", 2000),
			PublicPrefixes:        getEnvAsList("AUTH_PUBLIC_PREFIXES", defaultPublicPrefixes),
			PublicPaths:           getEnvAsList("AUTH_PUBLIC_PATHS", defaultPublicPaths),
		},
		Storage: StorageConfig{
			UploadDir:      getEnv("STORAGE_UPLOAD_DIR", "uploads"),
			MaxUploadBytes: getEnvAsInt("STORAGE_MAX_UPLOAD_BYTES", 5<<20),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	c.App.Location = loc

	switch c.Auth.RegistryBackend {
	case RegistryBackendPostgres, RegistryBackendRedis:
	default:
		return fmt.Errorf("invalid AUTH_REGISTRY_BACKEND %q", c.Auth.RegistryBackend)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must not be empty")
	}
	if c.App.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout bounds dial, read and write operations against Redis.
func (r RedisConfig) Timeout() time.Duration {
	if r.TimeoutMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// TokenTTL returns the lifetime of issued access tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// StoreTimeout bounds registry and identity lookups made by the auth gate.
func (a AuthConfig) StoreTimeout() time.Duration {
	if a.StoreTimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(a.StoreTimeoutMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
