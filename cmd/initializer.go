package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/redis/go-redis/v9"

	"github.com/thewillhuang/middleman/internal/config"
	"github.com/thewillhuang/middleman/internal/marketplace/metrics"
	"github.com/thewillhuang/middleman/internal/marketplace/repo"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	cfg      config.Config
	metrics  *metrics.Manager
}

// appLogger adapts the application loggers to the Infof/Errorf contract used by internal packages.
type appLogger struct {
	info *log.Logger
	err  *log.Logger
}

func (l appLogger) Infof(format string, args ...interface{}) {
	l.info.Output(2, fmt.Sprintf(format, args...))
}

func (l appLogger) Errorf(format string, args ...interface{}) {
	l.err.Output(2, fmt.Sprintf(format, args...))
}

func (app *application) logger() appLogger {
	return appLogger{info: app.infoLog, err: app.errorLog}
}

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.errorLog.Output(2, fmt.Sprintf("%s\n%s", err.Error(), debug.Stack()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":{"code":"INTERNAL","message":"internal server error"}}`))
}

func openDB(ctx context.Context, driver, dsn string) (*sql.DB, repo.Dialect, error) {
	dialect, err := repo.ParseDialect(driver)
	if err != nil {
		return nil, "", err
	}
	db, err := repo.Open(ctx, dialect, dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, "", err
	}
	log.Printf("Successfully connected to %s database", dialect)
	return db, dialect, nil
}

// openRedis returns nil when no address is configured; ratings are then read
// straight from the review ledger.
func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
