package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	FetchMode      string        `mapstructure:"FETCH_MODE"`
	FetchTimeout   time.Duration `mapstructure:"FETCH_TIMEOUT"`
	FetchChromeTLS bool          `mapstructure:"FETCH_CHROME_TLS"`
	FetchProxies   []string      `mapstructure:"FETCH_PROXIES"`

	ScanBatchSize       int           `mapstructure:"SCAN_BATCH_SIZE"`
	ScanInterBatchDelay time.Duration `mapstructure:"SCAN_INTER_BATCH_DELAY"`
	ScanMaxURLs         int           `mapstructure:"SCAN_MAX_URLS"`
	ScanDemoMode        bool          `mapstructure:"SCAN_DEMO_MODE"`
	ScanDemoDelay       time.Duration `mapstructure:"SCAN_DEMO_DELAY"`
	ScanRetention       time.Duration `mapstructure:"SCAN_RETENTION"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	NATSURL     string `mapstructure:"NATS_URL"`
	NATSSubject string `mapstructure:"NATS_SUBJECT"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FETCH_MODE", FetchModeHTTP)
	v.SetDefault("FETCH_TIMEOUT", 10*time.Second)
	v.SetDefault("FETCH_CHROME_TLS", false)
	v.SetDefault("FETCH_PROXIES", []string{})

	v.SetDefault("SCAN_BATCH_SIZE", 5)
	v.SetDefault("SCAN_INTER_BATCH_DELAY", time.Second)
	v.SetDefault("SCAN_MAX_URLS", 100)
	v.SetDefault("SCAN_DEMO_MODE", false)
	v.SetDefault("SCAN_DEMO_DELAY", 1500*time.Millisecond)
	v.SetDefault("SCAN_RETENTION", time.Hour)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("POSTGRES_URL", "")

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT", "altaudit.progress")

	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

// Load reads configuration from environment variables and an optional
// dotenv file. When path is empty ./.env is used if it exists; an explicit
// path must be readable.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && path != "" {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.FetchProxies = cleanList(cfg.FetchProxies)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the scan pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.ScanBatchSize < 1 {
		errs = append(errs, fmt.Errorf("SCAN_BATCH_SIZE must be positive, got %d", c.ScanBatchSize))
	}
	if c.ScanMaxURLs < 1 {
		errs = append(errs, fmt.Errorf("SCAN_MAX_URLS must be positive, got %d", c.ScanMaxURLs))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.ScanInterBatchDelay < 0 || c.ScanDemoDelay < 0 {
		errs = append(errs, errors.New("scan delays must not be negative"))
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		errs = append(errs, fmt.Errorf("unknown FETCH_MODE %q", c.FetchMode))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	return errors.Join(errs...)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
