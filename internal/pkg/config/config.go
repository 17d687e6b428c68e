package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API      APIConfig
	Session  SessionConfig
	Activity ActivityConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

// APIConfig points at the People API the console fronts.
type APIConfig struct {
	URL     string        `env:"API_URL,         default=http://localhost:3000"`
	Segment string        `env:"API_URL_SEGMENT, default=/api/v1"`
	Timeout time.Duration `env:"API_TIMEOUT,     default=15s"`
}

type SessionConfig struct {
	CookieName      string        `env:"SESSION_COOKIE,           default=console_sid"`
	CookieSecure    bool          `env:"COOKIE_SECURE,            default=false"`
	MaxTTL          time.Duration `env:"SESSION_MAX_TTL,          default=24h"`
	RefreshInterval time.Duration `env:"PROFILE_REFRESH_INTERVAL, default=5m"`
}

type ActivityConfig struct {
	Workers int `env:"ACTIVITY_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=people_console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// BaseURL joins API_URL and API_URL_SEGMENT with exactly one slash.
func (a APIConfig) BaseURL() string {
	base := strings.TrimRight(a.URL, "/")
	seg := strings.Trim(a.Segment, "/")
	if seg == "" {
		return base
	}
	return base + "/" + seg
}

// IsDevelopment reports whether the console runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
