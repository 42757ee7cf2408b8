package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Sources    []SourceConfig   `mapstructure:"sources"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"` // SQLite file path
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// ClassifierConfig holds relevance classification settings
type ClassifierConfig struct {
	// PromoDescription is embedded in the classification prompt, e.g.
	// "uma promoção de transferência de milhas do banco Itaú para a Latam"
	PromoDescription string `mapstructure:"promo_description"`
}

// FetcherConfig holds outbound HTTP settings for scraping
type FetcherConfig struct {
	Timeout   string `mapstructure:"timeout"`
	UserAgent string `mapstructure:"user_agent"`
}

// TimeoutDuration parses the configured timeout, defaulting to 15s
func (f FetcherConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// SourceConfig describes one monitored site and how to scrape it
type SourceConfig struct {
	Name      string          `mapstructure:"name"`
	Type      string          `mapstructure:"type"`     // html or rss
	ListURL   string          `mapstructure:"list_url"` // listing page (html)
	FeedURL   string          `mapstructure:"feed_url"` // feed URL (rss)
	MaxAge    string          `mapstructure:"max_age"`  // rss item age cutoff
	Selectors SelectorsConfig `mapstructure:"selectors"`
}

// SelectorsConfig holds the fixed CSS selectors for a scraped site
type SelectorsConfig struct {
	ListContainer    string `mapstructure:"list_container"`
	Title            string `mapstructure:"title"`
	ContentContainer string `mapstructure:"content_container"`
}

// MaxAgeDuration parses the RSS age cutoff, defaulting to 7 days
func (s SourceConfig) MaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(s.MaxAge)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// AnalysisConfig holds analysis phase settings
type AnalysisConfig struct {
	Limit int `mapstructure:"limit"` // max posts per source per run, 0 = unlimited
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	WatchCron  string `mapstructure:"watch_cron"`
	HealthAddr string `mapstructure:"health_addr"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	AnthropicRequestsPerMinute int `mapstructure:"anthropic_requests_per_minute"`
	ScraperRequestsPerSecond   int `mapstructure:"scraper_requests_per_second"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".milewatcher"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("MILEWATCHER")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "MILEWATCHER_ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "MILEWATCHER_ANTHROPIC_MODEL")
	v.BindEnv("database.dsn", "MILEWATCHER_DATABASE_DSN")
	v.BindEnv("classifier.promo_description", "MILEWATCHER_CLASSIFIER_PROMO_DESCRIPTION")
	v.BindEnv("logging.level", "MILEWATCHER_LOGGING_LEVEL")
	v.BindEnv("logging.output", "MILEWATCHER_LOGGING_OUTPUT")
	v.BindEnv("scheduler.watch_cron", "MILEWATCHER_SCHEDULER_WATCH_CRON")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.dsn", "./data/milewatcher.db")

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.0)

	// Classifier defaults
	v.SetDefault("classifier.promo_description",
		"uma promoção de transferência de milhas do banco Itaú para a Latam")

	// Fetcher defaults
	v.SetDefault("fetcher.timeout", "15s")
	v.SetDefault("fetcher.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	// Default monitored source
	v.SetDefault("sources", []map[string]interface{}{
		{
			"name":     "Passageiro de Primeira",
			"type":     "html",
			"list_url": "https://passageirodeprimeira.com/categorias/promocoes/",
			"selectors": map[string]interface{}{
				"list_container":    `div[data-term="promocoes"]`,
				"title":             "h1.article--title",
				"content_container": "article.single-content",
			},
		},
	})

	// Analysis defaults
	v.SetDefault("analysis.limit", 0)

	// Scheduler defaults
	v.SetDefault("scheduler.watch_cron", "0 */6 * * *") // Every 6 hours
	v.SetDefault("scheduler.health_addr", ":8080")

	// Rate limit defaults
	v.SetDefault("rate_limit.anthropic_requests_per_minute", 10)
	v.SetDefault("rate_limit.scraper_requests_per_second", 1)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration for phases that call the Claude API
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required (set MILEWATCHER_ANTHROPIC_API_KEY)")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	return nil
}
