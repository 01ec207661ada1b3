package marketplace

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/marketplace/discovery"
)

const (
	defaultQueryTimeout   = 5 * time.Second
	defaultTokenTTL       = time.Hour
	defaultTokenIssuer    = "middleman"
	defaultTokenAudience  = "middleman-api"
	defaultBcryptCost     = 12
	defaultRatingCacheTTL = 10 * time.Minute
	defaultCachePrefix    = "middleman"
)

// Config holds runtime configuration for the marketplace module.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	QueryTimeout    time.Duration
	TokenTTL        time.Duration
	TokenIssuer     string
	TokenAudience   string
	BcryptCost      int
	RatingCacheTTL  time.Duration
	CachePrefix     string
	AutoMigrate     bool
}

// LoadConfig reads marketplace configuration from environment variables and applies defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		DefaultPageSize: discovery.DefaultPageSize,
		MaxPageSize:     discovery.MaxPageSize,
		QueryTimeout:    defaultQueryTimeout,
		TokenTTL:        defaultTokenTTL,
		TokenIssuer:     defaultTokenIssuer,
		TokenAudience:   defaultTokenAudience,
		BcryptCost:      defaultBcryptCost,
		RatingCacheTTL:  defaultRatingCacheTTL,
		CachePrefix:     defaultCachePrefix,
		AutoMigrate:     true,
	}

	if v, err := readIntEnv("MARKETPLACE_DEFAULT_PAGE_SIZE"); err != nil {
		return Config{}, fmt.Errorf("parse MARKETPLACE_DEFAULT_PAGE_SIZE: %w", err)
	} else if v != nil {
		cfg.DefaultPageSize = *v
	}

	if v, err := readIntEnv("MARKETPLACE_MAX_PAGE_SIZE"); err != nil {
		return Config{}, fmt.Errorf("parse MARKETPLACE_MAX_PAGE_SIZE: %w", err)
	} else if v != nil {
		cfg.MaxPageSize = *v
	}

	if v, err := readIntEnv("MARKETPLACE_QUERY_TIMEOUT_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse MARKETPLACE_QUERY_TIMEOUT_SECONDS: %w", err)
	} else if v != nil {
		cfg.QueryTimeout = time.Duration(*v) * time.Second
	}

	if v, err := readIntEnv("MARKETPLACE_TOKEN_TTL_MINUTES"); err != nil {
		return Config{}, fmt.Errorf("parse MARKETPLACE_TOKEN_TTL_MINUTES: %w", err)
	} else if v != nil {
		cfg.TokenTTL = time.Duration(*v) * time.Minute
	}

	if v := strings.TrimSpace(os.Getenv("MARKETPLACE_TOKEN_ISSUER")); v != "" {
		cfg.TokenIssuer = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETPLACE_TOKEN_AUDIENCE")); v != "" {
		cfg.TokenAudience = v
	}

	if v, err := readIntEnv("MARKETPLACE_BCRYPT_COST"); err != nil {
		return Config{}, fmt.Errorf("parse MARKETPLACE_BCRYPT_COST: %w", err)
	} else if v != nil {
		cfg.BcryptCost = *v
	}

	if v, err := readIntEnv("MARKETPLACE_RATING_CACHE_TTL_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse MARKETPLACE_RATING_CACHE_TTL_SECONDS: %w", err)
	} else if v != nil {
		cfg.RatingCacheTTL = time.Duration(*v) * time.Second
	}

	if v := strings.TrimSpace(os.Getenv("MARKETPLACE_CACHE_PREFIX")); v != "" {
		cfg.CachePrefix = v
	}

	if v := strings.TrimSpace(os.Getenv("MARKETPLACE_AUTO_MIGRATE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse MARKETPLACE_AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = b
	}

	if cfg.DefaultPageSize <= 0 {
		return Config{}, fmt.Errorf("MARKETPLACE_DEFAULT_PAGE_SIZE must be positive")
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		return Config{}, fmt.Errorf("MARKETPLACE_MAX_PAGE_SIZE must be >= MARKETPLACE_DEFAULT_PAGE_SIZE")
	}
	if cfg.QueryTimeout <= 0 {
		return Config{}, fmt.Errorf("MARKETPLACE_QUERY_TIMEOUT_SECONDS must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("MARKETPLACE_TOKEN_TTL_MINUTES must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("MARKETPLACE_BCRYPT_COST must be between 4 and 31")
	}
	if cfg.RatingCacheTTL <= 0 {
		return Config{}, fmt.Errorf("MARKETPLACE_RATING_CACHE_TTL_SECONDS must be positive")
	}

	return cfg, nil
}

// TokenManager builds the credential issuer for this configuration.
func (c Config) TokenManager(secret string) (*auth.TokenManager, error) {
	return auth.NewTokenManager(secret, c.TokenIssuer, c.TokenAudience, c.TokenTTL)
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
