// Package config loads bestmatch configuration from a YAML file with
// BM_* environment-variable overrides. Every section has defaults suitable
// for a local run against a corpus file with no external services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Search   SearchConfig   `yaml:"search"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	KeyStore KeyStoreConfig `yaml:"keyStore"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit   int      `yaml:"rateLimit"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// SearchConfig selects the default field, engine and weighting pair, and
// bounds every query.
type SearchConfig struct {
	Field        string        `yaml:"field"`
	Strategy     string        `yaml:"strategy"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxResults   int           `yaml:"maxResults"`
	Independent  string        `yaml:"independent"`
	Dependent    string        `yaml:"dependent"`
	LogTFBase    float64       `yaml:"logTFBase"`
	BM25K1       float64       `yaml:"bm25K1"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CorpusConfig points at a JSON-lines corpus loaded into memory at startup.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// KeyStoreConfig configures the optional SQL table mapping document ids to
// external keys.
type KeyStoreConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Driver          string        `yaml:"driver"`
	Path            string        `yaml:"path"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns the data source name for the configured driver: a file path
// for sqlite and a lib/pq keyword string for postgres.
func (k KeyStoreConfig) DSN() string {
	if k.Driver == "sqlite" {
		return k.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		k.Host, k.Port, k.User, k.Password, k.Database, k.SSLMode,
	)
}

// RedisConfig holds Redis connection and posting-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds the broker list and the search-event topic.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	SearchEvents string   `yaml:"searchEvents"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Search: SearchConfig{
			Field:        "body",
			Strategy:     "daat",
			DefaultLimit: 10,
			MaxResults:   100,
			Independent:  "idf",
			Dependent:    "rawtf",
			LogTFBase:    10,
			BM25K1:       1.2,
			Timeout:      2 * time.Second,
		},
		KeyStore: KeyStoreConfig{
			Driver:          "sqlite",
			Path:            "bestmatch.db",
			Host:            "localhost",
			Port:            5432,
			Database:        "bestmatch",
			User:            "bestmatch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			SearchEvents: "search-events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings no query could run with.
func (c *Config) Validate() error {
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("search.defaultLimit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search.maxResults (%d) is below search.defaultLimit (%d)",
			c.Search.MaxResults, c.Search.DefaultLimit)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rateLimit must not be negative, got %d", c.Server.RateLimit)
	}
	if c.Search.Field == "" {
		return fmt.Errorf("search.field must be set")
	}
	switch c.KeyStore.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("keyStore.driver must be sqlite or postgres, got %q", c.KeyStore.Driver)
	}
	return nil
}

// applyEnvOverrides reads BM_* environment variables and overrides the
// corresponding config fields. Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	setInt("BM_SERVER_PORT", &cfg.Server.Port)
	setInt("BM_SERVER_RATE_LIMIT", &cfg.Server.RateLimit)
	if v := os.Getenv("BM_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	setString("BM_SEARCH_FIELD", &cfg.Search.Field)
	setString("BM_SEARCH_STRATEGY", &cfg.Search.Strategy)
	setInt("BM_SEARCH_DEFAULT_LIMIT", &cfg.Search.DefaultLimit)
	setInt("BM_SEARCH_MAX_RESULTS", &cfg.Search.MaxResults)
	setString("BM_SEARCH_INDEPENDENT", &cfg.Search.Independent)
	setString("BM_SEARCH_DEPENDENT", &cfg.Search.Dependent)
	if v := os.Getenv("BM_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Timeout = d
		}
	}
	setString("BM_CORPUS_PATH", &cfg.Corpus.Path)
	setBool("BM_KEYSTORE_ENABLED", &cfg.KeyStore.Enabled)
	setString("BM_KEYSTORE_DRIVER", &cfg.KeyStore.Driver)
	setString("BM_KEYSTORE_PATH", &cfg.KeyStore.Path)
	setString("BM_KEYSTORE_HOST", &cfg.KeyStore.Host)
	setInt("BM_KEYSTORE_PORT", &cfg.KeyStore.Port)
	setString("BM_KEYSTORE_DATABASE", &cfg.KeyStore.Database)
	setString("BM_KEYSTORE_USER", &cfg.KeyStore.User)
	setString("BM_KEYSTORE_PASSWORD", &cfg.KeyStore.Password)
	setString("BM_KEYSTORE_SSLMODE", &cfg.KeyStore.SSLMode)
	setBool("BM_REDIS_ENABLED", &cfg.Redis.Enabled)
	setString("BM_REDIS_ADDR", &cfg.Redis.Addr)
	setString("BM_REDIS_PASSWORD", &cfg.Redis.Password)
	setBool("BM_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v := os.Getenv("BM_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString("BM_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("BM_LOGGING_FORMAT", &cfg.Logging.Format)
	setBool("BM_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setInt("BM_METRICS_PORT", &cfg.Metrics.Port)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
