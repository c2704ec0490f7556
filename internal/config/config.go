package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrNoSecret is returned by Validate when no JWT signing secret is
// configured. Starting the server without one is a fatal misconfiguration.
var ErrNoSecret = errors.New("jwt secret is not configured")

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

type AuthConfig struct {
	JWTSecret string         `yaml:"jwt_secret"`
	Password  PasswordConfig `yaml:"password"`
}

// PasswordConfig is the password strength policy. Zero value means only
// non-empty passwords are required.
type PasswordConfig struct {
	MinLength      int  `yaml:"min_length"`
	RequireUpper   bool `yaml:"require_upper"`
	RequireLower   bool `yaml:"require_lower"`
	RequireDigit   bool `yaml:"require_digit"`
	RequireSpecial bool `yaml:"require_special"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// GetRESTPort returns the REST API port with priority: config -> env -> default.
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "DUNE_REST_PORT", 8088)
}

// GetURI returns the MongoDB connection string with env fallback.
func (m *MongoConfig) GetURI() string {
	return getStringWithEnvFallback(m.URI, "MONGODB_URI", "mongodb://localhost:27017")
}

// GetDatabase returns the MongoDB database name with env fallback.
func (m *MongoConfig) GetDatabase() string {
	return getStringWithEnvFallback(m.Database, "MONGODB_DATABASE", "thedune")
}

// GetRedisAddr returns the Redis address with env fallback.
func (c *CacheConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(c.RedisAddr, "REDIS_ADDR", "localhost:6379")
}

// GetJWTSecret returns the token signing secret with env fallback. There is
// no default: an empty result means the secret is missing.
func (a *AuthConfig) GetJWTSecret() string {
	return getStringWithEnvFallback(a.JWTSecret, "JWT_SECRET", "")
}

// Validate checks startup-fatal configuration errors.
func (c *Config) Validate() error {
	if c.Auth.GetJWTSecret() == "" {
		return ErrNoSecret
	}
	return nil
}

// getPortWithEnvFallback returns a port with priority: config -> env -> default.
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// getStringWithEnvFallback returns a string with priority: config -> env -> default.
func getStringWithEnvFallback(configVal string, envVar string, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load reads the YAML configuration file. If path == "", it tries the
// DUNE_CONFIG env variable; if that is empty too, it returns an empty config
// so every field falls through to its env/default value.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("DUNE_CONFIG")
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
