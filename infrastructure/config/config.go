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

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	IdentityCacheNone  = "none"
	IdentityCacheLRU   = "lru"
	IdentityCacheRedis = "redis"
)

type Config struct {
	StoreDriver    string
	DatabaseURL    string
	MigrationsDir  string
	JWTSecret      string
	JWTAlgorithm   string
	AccessTokenTTL time.Duration
	BcryptCost     int
	ServerPort     string
	ServerHost     string
	Environment    string
	LogLevel       string
	LogFormat      string

	LogCorrelationIDHeader string

	// Identity cache used when resolving token subjects
	RedisURL          string
	IdentityCache     string
	IdentityCacheTTL  time.Duration
	IdentityCacheSize int

	// CORS configuration
	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	MetricsEnabled bool

	// Bootstrap for cmd/create_admin and cmd/seed
	BootstrapAdminUsername string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminService  string
	SeedServices           []string
}

var (
	ErrMissingDatabaseURL   = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret     = errors.New("JWT_SECRET is required")
	ErrInvalidTokenTTL      = errors.New("invalid token TTL format")
	ErrInvalidJWTAlgorithm  = errors.New("invalid JWT algorithm")
	ErrInvalidStoreDriver   = errors.New("STORE_DRIVER must be postgres or memory")
	ErrInvalidIdentityCache = errors.New("IDENTITY_CACHE must be none, lru or redis")
	ErrInvalidBcryptCost    = errors.New("BCRYPT_COST must be between 4 and 31")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:   getEnvOrDefault("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MigrationsDir: getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTAlgorithm:  getEnvOrDefault("JWT_ALG", "HS256"),
		BcryptCost:    getEnvOrDefaultInt("BCRYPT_COST", 10),
		ServerPort:    getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:    getEnvOrDefault("SERVER_HOST", "localhost"),
		Environment:   getEnvOrDefault("ENV", "development"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "json"),

		LogCorrelationIDHeader: getEnvOrDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID"),

		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		IdentityCache:     strings.ToLower(getEnvOrDefault("IDENTITY_CACHE", IdentityCacheNone)),
		IdentityCacheTTL:  getEnvOrDefaultDuration("IDENTITY_CACHE_TTL", 30*time.Second),
		IdentityCacheSize: getEnvOrDefaultInt("IDENTITY_CACHE_SIZE", 1024),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:   parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),

		MetricsEnabled: getEnvOrDefaultBool("METRICS_ENABLED", true),

		BootstrapAdminUsername: getEnvOrDefault("BOOTSTRAP_ADMIN_USERNAME", "admin"),
		BootstrapAdminEmail:    getEnvOrDefault("BOOTSTRAP_ADMIN_EMAIL", "admin@example.com"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapAdminService:  getEnvOrDefault("BOOTSTRAP_ADMIN_SERVICE", "authz-service"),
		SeedServices:           parseList(getEnvOrDefault("SEED_SERVICES", "")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Parse token TTL (minutes, like the public setting name says)
	accessTokenTTL, err := parseMinutes(getEnvOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", "60"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.AccessTokenTTL = accessTokenTTL

	return cfg, nil
}

// Validate checks the fields Load reads from the environment.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStoreDriver, c.StoreDriver)
	}

	if c.JWTAlgorithm != "HS256" {
		return ErrInvalidJWTAlgorithm
	}
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return ErrInvalidBcryptCost
	}

	switch c.IdentityCache {
	case IdentityCacheNone, IdentityCacheLRU, IdentityCacheRedis:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidIdentityCache, c.IdentityCache)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// interpret as seconds if numeric, else parse like Go duration
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func parseMinutes(value string) (time.Duration, error) {
	minutes, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if minutes <= 0 {
		return 0, ErrInvalidTokenTTL
	}
	return time.Duration(minutes) * time.Minute, nil
}

func parseList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
