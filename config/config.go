package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultTTL           = 24 * time.Hour
	DefaultPurgeInterval = 30 * time.Second
	DefaultClickLimit    = 5
	DefaultCodeLength    = 8
	DefaultDatabasePath  = "shortener.db"
	DefaultIdentityFile  = ".shortener-uuid"

	MinCodeLength = 4
	MaxCodeLength = 32
	MaxClickLimit = 1_000_000
)

type Config struct {
	// Link lifecycle
	App AppConfig `mapstructure:"app"`

	// Storage
	Database DatabaseConfig `mapstructure:"database"`

	// Redis (purge lock)
	Redis RedisConfig `mapstructure:"redis"`

	// NATS (link events)
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// HTTP resolve surface
	HTTP HTTPConfig `mapstructure:"http"`

	Log LogConfig `mapstructure:"log"`
}

type AppConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	DefaultLimit  int           `mapstructure:"default_limit"`
	CodeLength    int           `mapstructure:"code_length"`
	OpenBrowser   bool          `mapstructure:"open_browser"`
	IdentityFile  string        `mapstructure:"identity_file"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, libsql or postgres.
	Driver   string         `mapstructure:"driver"`
	Path     string         `mapstructure:"path"`
	URL      string         `mapstructure:"url"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// Load reads .env, config.yaml and the environment, in increasing priority.
func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	return load(v)
}

// LoadFile reads a single YAML file plus environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.ttl", DefaultTTL)
	v.SetDefault("app.purge_interval", DefaultPurgeInterval)
	v.SetDefault("app.default_limit", DefaultClickLimit)
	v.SetDefault("app.code_length", DefaultCodeLength)
	v.SetDefault("app.open_browser", true)
	v.SetDefault("app.identity_file", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("prometheus.port", 9090)
	v.SetDefault("http.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
}

func bindEnvVars(v *viper.Viper) {
	// Lifecycle
	v.BindEnv("app.ttl", "SHORTENER_TTL")
	v.BindEnv("app.purge_interval", "SHORTENER_PURGE_INTERVAL")
	v.BindEnv("app.default_limit", "SHORTENER_DEFAULT_LIMIT")
	v.BindEnv("app.code_length", "SHORTENER_CODE_LENGTH")
	v.BindEnv("app.open_browser", "SHORTENER_OPEN_BROWSER")
	v.BindEnv("app.identity_file", "SHORTENER_IDENTITY_FILE")

	// Storage
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.postgres.host", "PG_HOST")
	v.BindEnv("database.postgres.user", "PG_USER")
	v.BindEnv("database.postgres.password", "PG_PASSWORD")
	v.BindEnv("database.postgres.database", "PG_DB")
	v.BindEnv("database.postgres.port", "PG_PORT")
	v.BindEnv("database.postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.enabled", "NATS_ENABLED")
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")

	v.BindEnv("http.port", "PORT")
	v.BindEnv("log.level", "LOG_LEVEL")
}

// Normalize replaces missing or out-of-range values with their defaults.
func (c *Config) Normalize() {
	if c.App.TTL <= 0 {
		c.App.TTL = DefaultTTL
	}
	if c.App.PurgeInterval <= 0 {
		c.App.PurgeInterval = DefaultPurgeInterval
	}
	if c.App.DefaultLimit < 1 || c.App.DefaultLimit > MaxClickLimit {
		c.App.DefaultLimit = DefaultClickLimit
	}
	if c.App.CodeLength < MinCodeLength || c.App.CodeLength > MaxCodeLength {
		c.App.CodeLength = DefaultCodeLength
	}
	if c.App.IdentityFile == "" {
		c.App.IdentityFile = defaultIdentityPath()
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
}

func defaultIdentityPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultIdentityFile
	}
	return filepath.Join(home, DefaultIdentityFile)
}
