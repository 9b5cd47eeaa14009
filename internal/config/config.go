package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=json text"`

	Database DatabaseConfig `mapstructure:",squash"`
	Auth     AuthConfig     `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Dispatch DispatchConfig `mapstructure:",squash"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

type DatabaseConfig struct {
	// "postgres" or "memory"; memory keeps everything in process and is
	// seeded from SeedPath on startup.
	Store        string        `mapstructure:"STORE" validate:"oneof=postgres memory"`
	URL          string        `mapstructure:"DATABASE_URL" validate:"required_if=Store postgres"`
	MaxOpenConns int           `mapstructure:"DB_MAX_OPEN_CONNS" validate:"min=1"`
	MaxIdleConns int           `mapstructure:"DB_MAX_IDLE_CONNS" validate:"min=1"`
	ConnLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	SeedPath     string        `mapstructure:"SEED_PATH"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL" validate:"gt=0"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	Addr     string `mapstructure:"REDIS_ADDR" validate:"required_if=Enabled true"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB" validate:"min=0"`
	Channel  string `mapstructure:"REDIS_CHANNEL" validate:"required_if=Enabled true"`
}

type DispatchConfig struct {
	FillThreshold   float64 `mapstructure:"DISPATCH_FILL_THRESHOLD" validate:"gt=0,lte=1"`
	FallbackEnabled bool    `mapstructure:"DISPATCH_FALLBACK_ENABLED"`
	UnlockOnCancel  bool    `mapstructure:"DISPATCH_UNLOCK_ON_CANCEL"`
}

var defaults = map[string]any{
	"HTTP_ADDR":                 ":8080",
	"SHUTDOWN_TIMEOUT":          "15s",
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "json",
	"STORE":                     "postgres",
	"DATABASE_URL":              "",
	"DB_MAX_OPEN_CONNS":         10,
	"DB_MAX_IDLE_CONNS":         10,
	"DB_CONN_MAX_LIFETIME":      "30m",
	"SEED_PATH":                 "data/seeds/dispatch.json",
	"JWT_SECRET":                "",
	"JWT_TTL":                   "12h",
	"REDIS_ENABLED":             false,
	"REDIS_ADDR":                "localhost:6379",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"REDIS_CHANNEL":             "dispatch.route-events",
	"METRICS_ENABLED":           true,
	"DISPATCH_FILL_THRESHOLD":   0.7,
	"DISPATCH_FALLBACK_ENABLED": true,
	"DISPATCH_UNLOCK_ON_CANCEL": true,
}

// Load reads configuration with priority: environment, then .env, then defaults.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}
