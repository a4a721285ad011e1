// Package config loads launchkitd's configuration from a YAML file layered
// under environment variables, following the teacher's pkg/config loader
// shape (joeshaw/envdecode + joho/godotenv + gopkg.in/yaml.v3).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP/WebSocket server transport.
type ServerConfig struct {
	Host string `json:"host" yaml:"host" env:"SERVER_HOST"`
	Port int    `json:"port" yaml:"port" env:"SERVER_PORT"`
}

// WebsocketConfig controls server-side WebSocket upgrade and framing.
type WebsocketConfig struct {
	ReadBufferBytes  int `json:"read_buffer_bytes" yaml:"read_buffer_bytes" env:"WS_READ_BUFFER_BYTES"`
	WriteBufferBytes int `json:"write_buffer_bytes" yaml:"write_buffer_bytes" env:"WS_WRITE_BUFFER_BYTES"`
	PingSeconds      int `json:"ping_seconds" yaml:"ping_seconds" env:"WS_PING_SECONDS"`
}

// ReconnectConfig controls the client rider's reconnection loop.
type ReconnectConfig struct {
	Enabled         bool    `json:"enabled" yaml:"enabled" env:"RECONNECT_ENABLED"`
	InitialBackoffS float64 `json:"initial_backoff_seconds" yaml:"initial_backoff_seconds" env:"RECONNECT_INITIAL_BACKOFF_S"`
	MaxBackoffS     float64 `json:"max_backoff_seconds" yaml:"max_backoff_seconds" env:"RECONNECT_MAX_BACKOFF_S"`
	Multiplier      float64 `json:"multiplier" yaml:"multiplier" env:"RECONNECT_MULTIPLIER"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" yaml:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `json:"file_prefix" yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// DatabaseConfig controls the lib/pq + sqlx + golang-migrate persistence
// demonstration Service.
type DatabaseConfig struct {
	Driver         string `json:"driver" yaml:"driver" env:"DATABASE_DRIVER"`
	DSN            string `json:"dsn" yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns   int    `json:"max_open_conns" yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns   int    `json:"max_idle_conns" yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	MigrateOnStart bool   `json:"migrate_on_start" yaml:"migrate_on_start" env:"DATABASE_MIGRATE_ON_START"`
	MigrationsPath string `json:"migrations_path" yaml:"migrations_path" env:"DATABASE_MIGRATIONS_PATH"`
}

// CacheConfig controls the go-redis demonstration Service.
type CacheConfig struct {
	Addr     string `json:"addr" yaml:"addr" env:"CACHE_ADDR"`
	Password string `json:"password" yaml:"password" env:"CACHE_PASSWORD"`
	DB       int    `json:"db" yaml:"db" env:"CACHE_DB"`
}

// HeartbeatConfig controls the robfig/cron demonstration Launchable.
type HeartbeatConfig struct {
	Schedule string `json:"schedule" yaml:"schedule" env:"HEARTBEAT_SCHEDULE"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Websocket WebsocketConfig `json:"websocket" yaml:"websocket"`
	Reconnect ReconnectConfig `json:"reconnect" yaml:"reconnect"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Heartbeat HeartbeatConfig `json:"heartbeat" yaml:"heartbeat"`
}

// New returns a configuration populated with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Websocket: WebsocketConfig{
			ReadBufferBytes:  4096,
			WriteBufferBytes: 4096,
			PingSeconds:      30,
		},
		Reconnect: ReconnectConfig{
			Enabled:         true,
			InitialBackoffS: 0.5,
			MaxBackoffS:     30,
			Multiplier:      2,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePrefix: "launchkitd",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			MigrateOnStart:  true,
			MigrationsPath:  "migrations",
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
		},
		Heartbeat: HeartbeatConfig{
			Schedule: "@every 30s",
		},
	}
}

// Load loads configuration from file (if present) and environment variables.
// CONFIG_FILE selects the file; configs/config.yaml is tried otherwise.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors out when no tagged field has a matching
		// environment variable; treat that as "no overrides" so local runs
		// work without exporting anything.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	applyDatabaseURLOverride(cfg)
	return cfg, nil
}

// LoadFile reads configuration from a YAML file, applying defaults first.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	applyDatabaseURLOverride(cfg)
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyDatabaseURLOverride lets DATABASE_URL override a file-based DSN, the
// common convention for container/PaaS deployments.
func applyDatabaseURLOverride(cfg *Config) {
	if cfg == nil {
		return
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		cfg.Database.DSN = dsn
	}
}
