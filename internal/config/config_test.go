package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  rest_port: 9090
mongo:
  uri: mongodb://db.internal:27017
  database: thedune_test
cache:
  enabled: true
  redis_addr: redis.internal:6379
  ttl_seconds: 60
auth:
  jwt_secret: file-secret
  password:
    min_length: 8
    require_digit: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Server.GetRESTPort(); got != 9090 {
		t.Errorf("rest port = %d, want 9090", got)
	}
	if got := cfg.Mongo.GetURI(); got != "mongodb://db.internal:27017" {
		t.Errorf("mongo uri = %q", got)
	}
	if got := cfg.Mongo.GetDatabase(); got != "thedune_test" {
		t.Errorf("mongo database = %q", got)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled")
	}
	if got := cfg.Cache.GetRedisAddr(); got != "redis.internal:6379" {
		t.Errorf("redis addr = %q", got)
	}
	if got := cfg.Auth.GetJWTSecret(); got != "file-secret" {
		t.Errorf("jwt secret = %q", got)
	}
	if cfg.Auth.Password.MinLength != 8 || !cfg.Auth.Password.RequireDigit {
		t.Errorf("password policy = %+v", cfg.Auth.Password)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadEmptyPathReturnsEmptyConfig(t *testing.T) {
	t.Setenv("DUNE_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.RESTPort != 0 || cfg.Auth.JWTSecret != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoadPathFromEnv(t *testing.T) {
	path := writeConfigFile(t, "auth:\n  jwt_secret: env-path-secret\n")
	t.Setenv("DUNE_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Auth.GetJWTSecret(); got != "env-path-secret" {
		t.Errorf("jwt secret = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("DUNE_REST_PORT", "7070")
	t.Setenv("MONGODB_URI", "mongodb://env:27017")
	t.Setenv("MONGODB_DATABASE", "envdb")
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg := &Config{}
	if got := cfg.Server.GetRESTPort(); got != 7070 {
		t.Errorf("rest port = %d, want 7070", got)
	}
	if got := cfg.Mongo.GetURI(); got != "mongodb://env:27017" {
		t.Errorf("mongo uri = %q", got)
	}
	if got := cfg.Mongo.GetDatabase(); got != "envdb" {
		t.Errorf("mongo database = %q", got)
	}
	if got := cfg.Cache.GetRedisAddr(); got != "env-redis:6379" {
		t.Errorf("redis addr = %q", got)
	}
	if got := cfg.Auth.GetJWTSecret(); got != "env-secret" {
		t.Errorf("jwt secret = %q", got)
	}

	// Config values win over env.
	cfg.Server.RESTPort = 6060
	if got := cfg.Server.GetRESTPort(); got != 6060 {
		t.Errorf("rest port = %d, want 6060", got)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("DUNE_REST_PORT", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := &Config{}
	if got := cfg.Server.GetRESTPort(); got != 8088 {
		t.Errorf("rest port = %d, want 8088", got)
	}
	if got := cfg.Mongo.GetURI(); got != "mongodb://localhost:27017" {
		t.Errorf("mongo uri = %q", got)
	}
	if got := cfg.Mongo.GetDatabase(); got != "thedune" {
		t.Errorf("mongo database = %q", got)
	}
	if got := cfg.Cache.GetRedisAddr(); got != "localhost:6379" {
		t.Errorf("redis addr = %q", got)
	}
}

func TestValidateMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := &Config{}
	if err := cfg.Validate(); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("Validate = %v, want ErrNoSecret", err)
	}
}
