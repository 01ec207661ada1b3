package marketplace

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/marketplace/metrics"
	"github.com/thewillhuang/middleman/internal/marketplace/repo"
)

// Logger is the minimal logging interface required by the marketplace module.
type Logger interface {
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// Deps aggregates runtime dependencies for the marketplace module.
type Deps struct {
	DB      *sql.DB
	Dialect repo.Dialect
	Redis   *redis.Client
	Logger  Logger
	Config  Config
	Tokens  *auth.TokenManager
	Metrics *metrics.Manager
}

// Validate ensures that the deps struct contains the essentials before bootstrapping services.
// Redis and Metrics are optional.
func (d *Deps) Validate() error {
	if d == nil {
		return fmt.Errorf("marketplace deps are nil")
	}
	if d.DB == nil {
		return fmt.Errorf("marketplace deps DB is required")
	}
	if d.Logger == nil {
		return fmt.Errorf("marketplace deps Logger is required")
	}
	if d.Tokens == nil {
		return fmt.Errorf("marketplace deps Tokens is required")
	}
	if d.Dialect == "" {
		return fmt.Errorf("marketplace deps Dialect is required")
	}
	return nil
}
