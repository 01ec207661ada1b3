package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/thewillhuang/middleman/internal/config"
	"github.com/thewillhuang/middleman/internal/marketplace"
	"github.com/thewillhuang/middleman/internal/marketplace/metrics"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "cmd.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, dialect, err := openDB(ctx, "sqlite", dsn)
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var cfg config.Config
	cfg.Env = config.EnvTest
	app := &application{
		errorLog: log.New(io.Discard, "", 0),
		infoLog:  log.New(io.Discard, "", 0),
		cfg:      cfg,
		metrics:  metrics.NewManager(""),
	}
	marketCfg := marketplace.Config{
		DefaultPageSize: 50,
		MaxPageSize:     200,
		QueryTimeout:    5 * time.Second,
		TokenTTL:        time.Hour,
		TokenIssuer:     "middleman",
		TokenAudience:   "middleman-api",
		BcryptCost:      4,
		AutoMigrate:     true,
	}
	tokens, err := marketCfg.TokenManager("cmd-secret")
	if err != nil {
		t.Fatalf("TokenManager: %v", err)
	}
	handler, err := app.routes(ctx, &marketplace.Deps{
		DB:      db,
		Dialect: dialect,
		Logger:  app.logger(),
		Config:  marketCfg,
		Tokens:  tokens,
		Metrics: app.metrics,
	})
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	return handler
}

func TestPing(t *testing.T) {
	h := newTestApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("unexpected ping response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Frame-Options") != "deny" {
		t.Fatalf("secure headers missing")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestApp(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestRecoverPanic(t *testing.T) {
	app := &application{errorLog: log.New(io.Discard, "", 0), infoLog: log.New(io.Discard, "", 0)}
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || rec.Header().Get("Connection") != "close" {
		t.Fatalf("unexpected panic response %d", rec.Code)
	}
}
