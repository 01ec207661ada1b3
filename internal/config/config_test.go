package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"ENV", "DATABASE_DRIVER", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "JWT_SECRET", "PORT"} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigFileAndOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
env: test
server:
  address: 127.0.0.1
  port: 9000
database:
  driver: postgres
  url: postgres://localhost/middleman
auth:
  jwt_secret: from-file
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "9100")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Env != EnvTest || cfg.Database.Driver != "postgres" || cfg.Auth.JWTSecret != "from-file" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ListenAddr() != "127.0.0.1:9100" {
		t.Fatalf("unexpected listen addr %s", cfg.ListenAddr())
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("redis override not applied")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"bad env", map[string]string{"JWT_SECRET": "s", "ENV": "staging"}},
		{"bad port", map[string]string{"JWT_SECRET": "s", "PORT": "http"}},
		{"short production secret", map[string]string{"JWT_SECRET": "short", "ENV": "production"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(""); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "dev-secret")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Production() || cfg.Server.Port != 8080 || cfg.Database.Driver != "sqlite" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
