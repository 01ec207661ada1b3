package marketplace

import (
	"context"
	"fmt"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	markethttp "github.com/thewillhuang/middleman/internal/marketplace/http"
	"github.com/thewillhuang/middleman/internal/marketplace/lifecycle"
	"github.com/thewillhuang/middleman/internal/marketplace/ratings"
	"github.com/thewillhuang/middleman/internal/marketplace/repo"
)

// RegisterMarketplaceRoutes wires the HTTP handlers into the provided mux.
// chain must resolve the caller, see IdentifyCaller.
func RegisterMarketplaceRoutes(ctx context.Context, mux *pat.PatternServeMux, chain alice.Chain, deps *Deps) (*lifecycle.Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	db := repo.New(deps.DB, deps.Dialect, deps.Config.QueryTimeout)
	if deps.Config.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	reviewsRepo := repo.NewReviewsRepo(db)
	stores := lifecycle.Stores{
		Persons:  repo.NewPersonsRepo(db),
		Tasks:    repo.NewTasksRepo(db),
		Reviews:  reviewsRepo,
		Comments: repo.NewCommentsRepo(db),
	}

	var cache ratings.Cache
	if deps.Redis != nil {
		cache = ratings.NewRedisCache(deps.Redis, deps.Config.CachePrefix, deps.Config.RatingCacheTTL)
	}
	ratingService := ratings.NewService(reviewsRepo, cache, deps.Logger)

	var recorder lifecycle.Recorder
	var observer markethttp.RequestObserver
	if deps.Metrics != nil {
		recorder = deps.Metrics
		observer = deps.Metrics
	}

	engine := lifecycle.NewEngine(lifecycle.Config{
		DefaultPageSize: deps.Config.DefaultPageSize,
		MaxPageSize:     deps.Config.MaxPageSize,
		BcryptCost:      deps.Config.BcryptCost,
	}, deps.Logger, stores, ratingService, deps.Tokens, recorder)

	server := markethttp.NewServer(deps.Logger, engine, observer)
	server.Register(mux, chain.Append(IdentifyCaller(deps.Tokens)))
	return engine, nil
}
