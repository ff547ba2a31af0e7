package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	pstrings "regdesk/pkg/platform/strings"
)

// Backend names a registry storage implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	Server   Server
	Registry Registry
	Redis    RedisConfig
	Events   Events
	Client   Client
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"REGDESK_ADDR" envDefault:":5000"`
	Environment     string        `env:"REGDESK_ENV" envDefault:"development"`
	LogLevel        string        `env:"REGDESK_LOG_LEVEL" envDefault:"info"`
	RequestTimeout  time.Duration `env:"REGDESK_REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"REGDESK_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Registry selects and configures the storage backend.
type Registry struct {
	Backend     Backend `env:"REGISTRY_BACKEND" envDefault:"file"`
	FilePath    string  `env:"REGISTRY_FILE_PATH" envDefault:"users.json"`
	SQLitePath  string  `env:"REGISTRY_SQLITE_PATH" envDefault:"regdesk.db"`
	DatabaseURL string  `env:"DATABASE_URL"`
	AutoMigrate bool    `env:"REGISTRY_AUTO_MIGRATE" envDefault:"true"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"regdesk:"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Events configures where registration events go. No brokers means the
// events are only logged.
type Events struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"registrations"`
	Buffer  int      `env:"EVENTS_BUFFER" envDefault:"256"`
}

// Client configures the command-line API client.
type Client struct {
	ServerURL    string        `env:"REGDESK_SERVER_URL" envDefault:"http://localhost:5000"`
	CheckTimeout time.Duration `env:"REGDESK_CHECK_TIMEOUT" envDefault:"3s"`
	Timeout      time.Duration `env:"REGDESK_CLIENT_TIMEOUT" envDefault:"10s"`
}

// FromEnv parses the environment into a Config and validates it.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Registry.Backend = Backend(strings.ToLower(string(cfg.Registry.Backend)))
	cfg.Server.AllowedOrigins = pstrings.CleanList(cfg.Server.AllowedOrigins)
	cfg.Events.Brokers = pstrings.CleanList(cfg.Events.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements env tags can't express.
func (c Config) Validate() error {
	switch c.Registry.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Registry.FilePath == "" {
			return fmt.Errorf("REGISTRY_FILE_PATH is required for the file backend")
		}
	case BackendSQLite:
		if c.Registry.SQLitePath == "" {
			return fmt.Errorf("REGISTRY_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Registry.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown REGISTRY_BACKEND %q", c.Registry.Backend)
	}
	if c.Events.Buffer <= 0 {
		return fmt.Errorf("EVENTS_BUFFER must be positive, got %d", c.Events.Buffer)
	}
	if c.Client.CheckTimeout <= 0 {
		return fmt.Errorf("REGDESK_CHECK_TIMEOUT must be positive")
	}
	return nil
}

// IsDevelopment reports whether human-friendly defaults (text logs) apply.
func (s Server) IsDevelopment() bool {
	return s.Environment == "" || s.Environment == "development" || s.Environment == "dev"
}
