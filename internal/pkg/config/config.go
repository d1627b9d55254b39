package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries every runtime knob. Code defaults go in first, the yaml
// file overrides them and the environment overrides both, so deployments
// reconfigure the pipeline without touching files.
type Config struct {
	ScrapeIntervalSeconds    int      `yaml:"scrape_interval_seconds" env:"SCRAPE_INTERVAL_SECONDS"`
	RequestTimeoutSeconds    int      `yaml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	MaxConcurrentRequests    int      `yaml:"max_concurrent_requests" env:"MAX_CONCURRENT_REQUESTS"`
	MatchSimilarityThreshold int      `yaml:"match_similarity_threshold" env:"MATCH_SIMILARITY_THRESHOLD"`
	MinProfitPercentage      float64  `yaml:"min_profit_percentage" env:"MIN_PROFIT_PERCENTAGE"`
	OddsStalenessMinutes     int      `yaml:"odds_staleness_minutes" env:"ODDS_STALENESS_MINUTES"`
	ProvidersEnabled         []string `yaml:"providers_enabled" env:"PROVIDERS_ENABLED" envSeparator:","`
	DBURL                    string   `yaml:"db_url" env:"DB_URL"`

	HealthAddr               string `yaml:"health_addr" env:"HEALTH_ADDR"`
	APIAddr                  string `yaml:"api_addr" env:"API_ADDR"`
	ReadHeaderTimeoutSeconds int    `yaml:"read_header_timeout_seconds" env:"READ_HEADER_TIMEOUT_SECONDS"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile  string `yaml:"log_file" env:"LOG_FILE"`

	HistoryRetentionDays int `yaml:"history_retention_days" env:"HISTORY_RETENTION_DAYS"`
	MatchRetentionDays   int `yaml:"match_retention_days" env:"MATCH_RETENTION_DAYS"`
	ArbRetentionDays     int `yaml:"arb_retention_days" env:"ARB_RETENTION_DAYS"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" env:"SWEEP_INTERVAL_MINUTES"`

	Telegram TelegramConfig `yaml:"telegram"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`

	Providers map[string]ProviderConfig `yaml:"providers"`
}

// TelegramConfig enables the telegram sink when both fields are set.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// RedisConfig enables the redis stream sink when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	Stream   string `yaml:"stream" env:"REDIS_STREAM"`
	MaxLen   int64  `yaml:"max_len" env:"REDIS_STREAM_MAXLEN"`
}

// KafkaConfig enables the kafka sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
}

// ProviderConfig is the static per-provider block from the yaml file.
// Adapters fall back to their built-in base URLs when unset.
type ProviderConfig struct {
	BaseURL      string  `yaml:"base_url"`
	Enabled      *bool   `yaml:"enabled"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	UserAgent    string  `yaml:"user_agent"`
}

// defaults is the local-dev baseline. envDefault tags cannot express this
// layering: env.Parse would reapply them over values the yaml file set.
func defaults() *Config {
	return &Config{
		ScrapeIntervalSeconds:    2,
		RequestTimeoutSeconds:    30,
		MaxConcurrentRequests:    10,
		MatchSimilarityThreshold: 85,
		MinProfitPercentage:      1.0,
		OddsStalenessMinutes:     15,
		HealthAddr:               ":8090",
		APIAddr:                  ":8081",
		ReadHeaderTimeoutSeconds: 5,
		LogLevel:                 "info",
		HistoryRetentionDays:     7,
		MatchRetentionDays:       30,
		ArbRetentionDays:         90,
		SweepIntervalMinutes:     10,
		Redis: RedisConfig{
			Stream: "betsnipe.events",
			MaxLen: 10000,
		},
		Kafka: KafkaConfig{
			Topic: "betsnipe.arbitrage",
		},
	}
}

// Load layers the optional yaml file over the defaults, then the environment
// over both. A .env file in the working directory is loaded first when
// present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.ScrapeIntervalSeconds <= 0 {
		return fmt.Errorf("scrape_interval_seconds must be positive, got %d", c.ScrapeIntervalSeconds)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("max_concurrent_requests must be positive, got %d", c.MaxConcurrentRequests)
	}
	if c.MatchSimilarityThreshold < 0 || c.MatchSimilarityThreshold > 100 {
		return fmt.Errorf("match_similarity_threshold must be in 0..100, got %d", c.MatchSimilarityThreshold)
	}
	return nil
}

// ScrapeInterval is the cadence between cycles.
func (c *Config) ScrapeInterval() time.Duration {
	return time.Duration(c.ScrapeIntervalSeconds) * time.Second
}

// RequestTimeout is the per-HTTP-request cap.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CycleDeadline bounds one whole scrape cycle.
func (c *Config) CycleDeadline() time.Duration {
	return 2 * c.ScrapeInterval()
}

// OddsStaleness is how old a price may get before detection stops trusting
// it. Slow providers refresh well behind the cycle interval, so this runs in
// minutes, not cycles.
func (c *Config) OddsStaleness() time.Duration {
	return time.Duration(c.OddsStalenessMinutes) * time.Minute
}

// ReadHeaderTimeout guards the health and API listeners against slowloris
// openings.
func (c *Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeoutSeconds) * time.Second
}

// SweepInterval is the retention sweeper cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// ProviderEnabled reports whether a provider participates in cycles: listed
// in providers_enabled (or the list is empty, meaning all), and not switched
// off in its static block.
func (c *Config) ProviderEnabled(name string) bool {
	if pc, ok := c.Providers[name]; ok && pc.Enabled != nil && !*pc.Enabled {
		return false
	}
	if len(c.ProvidersEnabled) == 0 {
		return true
	}
	for _, n := range c.ProvidersEnabled {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return true
		}
	}
	return false
}

// Provider returns the static block for a provider, zero value when absent.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}
