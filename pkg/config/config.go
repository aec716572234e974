package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process-level configuration read from the environment.
// Strategy parameters live in the strategy YAML (internal/strategyconfig), not here.
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Strategy YAML path
	StrategyConfig string

	// Market data source: postgres | csv
	DataSource string
	DataDir    string

	// Order routing: paper | alpaca
	Broker string
	Alpaca AlpacaConfig

	Database DatabaseConfig
	Redis    RedisConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// AlpacaConfig holds the brokerage REST credentials.
type AlpacaConfig struct {
	KeyID          string
	SecretKey      string
	TradingURL     string
	DataURL        string
	RequestsPerMin int
}

// Paper reports whether the trading endpoint is the paper environment.
func (a AlpacaConfig) Paper() bool {
	return a.TradingURL == defaultAlpacaTradingURL
}

const (
	defaultAlpacaTradingURL = "https://paper-api.alpaca.markets"
	defaultStrategyConfig   = "config/strategy.yaml"
)

// StrategyPath returns STRATEGY_CONFIG without validating the rest of the environment
func StrategyPath() string {
	loadEnvFile()
	return getEnv("STRATEGY_CONFIG", defaultStrategyConfig)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		StrategyConfig: getEnv("STRATEGY_CONFIG", defaultStrategyConfig),
		DataSource:     getEnv("DATA_SOURCE", "postgres"),
		DataDir:        getEnv("DATA_DIR", "data"),
		Broker:         getEnv("BROKER", "paper"),

		Alpaca: AlpacaConfig{
			KeyID:          getEnv("ALPACA_KEY_ID", ""),
			SecretKey:      getEnv("ALPACA_SECRET_KEY", ""),
			TradingURL:     getEnv("ALPACA_TRADING_URL", defaultAlpacaTradingURL),
			DataURL:        getEnv("ALPACA_DATA_URL", "https://data.alpaca.markets"),
			RequestsPerMin: getEnvAsInt("ALPACA_REQUESTS_PER_MIN", 200),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "6h"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the selected backends have what they need
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.DataSource {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	case "csv":
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when DATA_SOURCE=csv")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: postgres, csv")
	}

	switch c.Broker {
	case "paper":
	case "alpaca":
		if c.Alpaca.KeyID == "" || c.Alpaca.SecretKey == "" {
			return fmt.Errorf("ALPACA_KEY_ID and ALPACA_SECRET_KEY are required when BROKER=alpaca")
		}
	default:
		return fmt.Errorf("BROKER must be one of: paper, alpaca")
	}

	return nil
}

// loadEnvFile tries to load .env from the working directory, then next to the executable
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
