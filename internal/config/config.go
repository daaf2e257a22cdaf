package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverJSON     = "json"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrUnknownStorageDriver        = errors.New("unknown storage driver")
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env      string   `mapstructure:"env"`      // current application environment (local, dev, production etc)
	HTTP     HTTP     `mapstructure:"http"`     // HTTP API section
	Storage  Storage  `mapstructure:"storage"`  // quiz store selection
	DB       DB       `mapstructure:"database"` // database configuration section
	Quiz     Quiz     `mapstructure:"quiz"`     // quiz runner behaviour
	Session  Session  `mapstructure:"session"`  // session registry housekeeping
	Telegram Telegram `mapstructure:"telegram"` // optional Telegram delivery
}

type HTTP struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Storage struct {
	Driver      string `mapstructure:"driver"`       // "postgres" or "json"
	FixturePath string `mapstructure:"fixture_path"` // JSON file with quizzes, used by the json driver
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

type Quiz struct {
	RevealDelay time.Duration `mapstructure:"reveal_delay"` // pause between an answer and the next question
}

type Session struct {
	TTL           time.Duration `mapstructure:"ttl"`            // idle time before a session is evicted
	SweepSchedule string        `mapstructure:"sweep_schedule"` // cron spec for the eviction job
	MaxSessions   int           `mapstructure:"max_sessions"`   // live session limit, 0 disables it
}

type Telegram struct {
	Token string `mapstructure:"-"`     // bot token loaded from environment; empty disables the bot
	Debug bool   `mapstructure:"debug"` // verbose Bot API logging
}

// Enabled reports whether the Telegram delivery should be started.
func (t Telegram) Enabled() bool {
	return t.Token != ""
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "120s")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.fixture_path", "assets/data/quizzes.json")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("quiz.reveal_delay", "4s")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.sweep_schedule", "@every 1m")
	v.SetDefault("session.max_sessions", 10000)
	v.SetDefault("telegram.debug", false)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.Telegram.Token = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")

	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.DB.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL: %w", ErrMissingEnvironmentVariables)
		}
	case DriverJSON:
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Storage.Driver, ErrUnknownStorageDriver)
	}

	if cfg.Session.MaxSessions < 0 {
		return nil, fmt.Errorf("session.max_sessions must not be negative, got %d", cfg.Session.MaxSessions)
	}

	if cfg.Quiz.RevealDelay < 0 {
		return nil, fmt.Errorf("quiz.reveal_delay must not be negative, got %s", cfg.Quiz.RevealDelay)
	}

	return &cfg, nil
}
