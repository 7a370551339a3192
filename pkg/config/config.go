package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Environment variables are read only in this package.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: empty URL disables Postgres persistence)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Kafka
	Kafka KafkaConfig

	// External APIs
	Credentials Credentials

	Storage      StorageConfig
	Scheduling   SchedulingConfig
	Notification NotificationConfig
	Pipeline     PipelineConfig
	Advice       AdviceConfig

	// SentimentSources is the decoded PIT_VIPER_SENTIMENT_SOURCES object.
	SentimentSources map[string]map[string]string

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

// Enabled reports whether a database URL was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// KafkaConfig holds the advice packet publisher configuration.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether at least one broker was configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Credentials holds optional API keys. A missing key makes the
// corresponding provider fall back to offline data.
type Credentials struct {
	Coinbase  string
	FRED      string
	NewsAPI   string
	Anthropic string
	Gemini    string
}

// StorageConfig holds locations for persisted artifacts.
type StorageConfig struct {
	DataDir string

	// Retention is the age after which artifact files are pruned; 0 keeps them.
	Retention time.Duration
}

// SchedulingConfig holds the nightly job window.
type SchedulingConfig struct {
	Timezone    string
	WindowStart time.Duration // offset from local midnight
	WindowEnd   time.Duration
	Spec        string // cron spec with seconds field
}

// NotificationConfig holds delivery targets for the advice packet.
type NotificationConfig struct {
	SlackWebhook string
}

// PipelineConfig holds batch run settings.
type PipelineConfig struct {
	StrategyFile    string
	HoldingsCSV     string
	CollectParallel bool
	FetchTimeout    time.Duration
	CacheTTL        time.Duration
}

// AdviceConfig selects the generative text provider.
type AdviceConfig struct {
	Provider    string // claude, gemini
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "pitviper.advice"),
		},

		Credentials: Credentials{
			Coinbase:  getEnv("COINBASE_API_KEY", ""),
			FRED:      getEnv("FRED_API_KEY", ""),
			NewsAPI:   getEnv("NEWSAPI_API_KEY", ""),
			Anthropic: getEnv("ANTHROPIC_API_KEY", ""),
			Gemini:    getEnv("GEMINI_API_KEY", ""),
		},

		Storage: StorageConfig{
			DataDir:   getEnv("PIT_VIPER_DATA_DIR", "data"),
			Retention: getEnvAsDuration("ARTIFACT_RETENTION", "720h"),
		},

		Scheduling: SchedulingConfig{
			Timezone:    getEnv("PIT_VIPER_TZ", "America/Los_Angeles"),
			WindowStart: 0,
			WindowEnd:   6 * time.Hour,
			Spec:        getEnv("SCHEDULE_SPEC", "0 30 1 * * *"),
		},

		Notification: NotificationConfig{
			SlackWebhook: getEnv("PIT_VIPER_SLACK_WEBHOOK", ""),
		},

		Pipeline: PipelineConfig{
			StrategyFile:    getEnv("STRATEGY_CONFIG", ""),
			HoldingsCSV:     getEnv("PIT_VIPER_HOLDINGS_CSV", ""),
			CollectParallel: getEnvAsBool("COLLECT_PARALLEL", false),
			FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", "10s"),
			CacheTTL:        getEnvAsDuration("SOURCE_CACHE_TTL", "10m"),
		},

		Advice: AdviceConfig{
			Provider:    getEnv("ADVICE_PROVIDER", "claude"),
			Model:       getEnv("ADVICE_MODEL", ""),
			MaxTokens:   getEnvAsInt("ADVICE_MAX_TOKENS", 800),
			Temperature: getEnvAsFloat("ADVICE_TEMPERATURE", 0.3),
			Timeout:     getEnvAsDuration("ADVICE_TIMEOUT", "60s"),
		},

		SentimentSources: getEnvAsJSONMap("PIT_VIPER_SENTIMENT_SOURCES"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Advice.Provider != "claude" && c.Advice.Provider != "gemini" {
		return fmt.Errorf("ADVICE_PROVIDER must be one of: claude, gemini")
	}

	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return fmt.Errorf("PIT_VIPER_TZ is not a valid timezone: %w", err)
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("PIT_VIPER_DATA_DIR must not be empty")
	}

	return nil
}

// Location returns the scheduling timezone. validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduling.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvAsJSONMap decodes a JSON object; missing or invalid JSON yields an empty map.
func getEnvAsJSONMap(key string) map[string]map[string]string {
	out := map[string]map[string]string{}
	raw := os.Getenv(key)
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]map[string]string{}
	}
	return out
}
