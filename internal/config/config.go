// Package config loads and validates adforge configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Scraper    ScraperConfig    `mapstructure:"scraper"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Fal        FalConfig        `mapstructure:"fal"`
	Apify      ApifyConfig      `mapstructure:"apify"`
	BrightData BrightDataConfig `mapstructure:"brightdata"`
	Assets     AssetsConfig     `mapstructure:"assets"`
	GCS        GCSConfig        `mapstructure:"gcs"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// StorageConfig selects the product store backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// MongoConfig locates the product collection.
type MongoConfig struct {
	URI                   string `mapstructure:"uri"`
	Database              string `mapstructure:"database"`
	Collection            string `mapstructure:"collection"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

// PostgresConfig controls access to the relational product table.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// CacheConfig configures the scrape-result cache.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// RedisConfig holds the Redis connection URL.
type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// ScraperConfig tunes the HTML scraping tier.
type ScraperConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRedirects   int    `mapstructure:"max_redirects"`
	KeepRaw        bool   `mapstructure:"keep_raw"`
}

// HeadlessConfig configures chromedp promotion for script-rendered pages.
type HeadlessConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MaxParallel     int  `mapstructure:"max_parallel"`
	NavTimeoutSec   int  `mapstructure:"nav_timeout_seconds"`
	PromotionThresh int  `mapstructure:"promotion_threshold"`
}

// GeminiConfig configures the text model client.
type GeminiConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	TextModel   string `mapstructure:"text_model"`
	AdModel     string `mapstructure:"ad_model"`
	SpecModel   string `mapstructure:"spec_model"`
	VisionModel string `mapstructure:"vision_model"`
	HealthModel string `mapstructure:"health_model"`
}

// FalConfig configures the image and video generation client.
type FalConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	ImageModel     string `mapstructure:"image_model"`
	VideoModel     string `mapstructure:"video_model"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ApifyConfig configures the API scraping tier.
type ApifyConfig struct {
	Token          string `mapstructure:"token"`
	BaseURL        string `mapstructure:"base_url"`
	Actor          string `mapstructure:"actor"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// BrightDataConfig configures the SERP news client.
type BrightDataConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Zone     string `mapstructure:"zone"`
	Endpoint string `mapstructure:"endpoint"`
}

// AssetsConfig selects the creative asset archive.
type AssetsConfig struct {
	Backend  string `mapstructure:"backend"`
	LocalDir string `mapstructure:"local_dir"`
}

// GCSConfig names the bucket used by the gcs asset backend.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for event publishing.
type PubSubConfig struct {
	ProjectID      string `mapstructure:"project_id"`
	AnalyticsTopic string `mapstructure:"analytics_topic"`
	JobTopic       string `mapstructure:"job_topic"`
}

// JobsConfig governs the async creative pipeline.
type JobsConfig struct {
	Workers        int `mapstructure:"workers"`
	QueueDepth     int `mapstructure:"queue_depth"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// RateLimitConfig throttles outbound vendor calls per host.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// RetryConfig configures vendor retry backoff.
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelayMs int `mapstructure:"base_delay_ms"`
	MaxDelayMs  int `mapstructure:"max_delay_ms"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var envAliases = map[string][]string{
	"gemini.api_key":     {"GEMINI_API_KEY", "VITE_GEMINI_API_KEY"},
	"fal.api_key":        {"FAL_KEY", "FAL_API_KEY"},
	"apify.token":        {"APIFY_TOKEN", "APFIY_TOKEN"},
	"brightdata.api_key": {"BRIGHT_DATA_API_KEY"},
	"brightdata.zone":    {"BRIGHT_DATA_SERP_ZONE"},
	"mongo.uri":          {"MONGODB_URI"},
	"redis.url":          {"REDIS_URL"},
}

// Load builds a Config from .env, disk and environment.
func Load(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("ADFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindAliases(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadDotEnv populates the process environment from file without overriding
// variables that are already set.
func loadDotEnv(file string) error {
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

func bindAliases(v *viper.Viper) error {
	for key, names := range envAliases {
		prefixed := "ADFORGE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, prefixed}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 300)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("mongo.database", "adforge")
	v.SetDefault("mongo.collection", "products")
	v.SetDefault("mongo.connect_timeout_seconds", 10)
	v.SetDefault("postgres.table", "products")
	v.SetDefault("postgres.max_conns", 4)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("redis.prefix", "adforge:")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.timeout_seconds", 10)
	v.SetDefault("scraper.max_redirects", 5)
	v.SetDefault("scraper.keep_raw", true)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("gemini.text_model", "gemini-1.5-flash")
	v.SetDefault("gemini.ad_model", "gemini-1.5-pro")
	v.SetDefault("gemini.spec_model", "gemini-2.5-flash")
	v.SetDefault("gemini.vision_model", "gemini-1.5-pro")
	v.SetDefault("gemini.health_model", "gemini-2.5-flash")
	v.SetDefault("fal.base_url", "https://queue.fal.run")
	v.SetDefault("fal.image_model", "fal-ai/nano-banana/edit")
	v.SetDefault("fal.video_model", "fal-ai/veo3/fast/image-to-video")
	v.SetDefault("fal.poll_interval_ms", 1000)
	v.SetDefault("fal.timeout_seconds", 240)
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.actor", "misceres~amazon-product-scraper")
	v.SetDefault("apify.timeout_seconds", 120)
	v.SetDefault("brightdata.zone", "serp_api1")
	v.SetDefault("brightdata.endpoint", "https://api.brightdata.com/request")
	v.SetDefault("assets.backend", "none")
	v.SetDefault("assets.local_dir", "data/assets")
	v.SetDefault("gcs.prefix", "adforge")
	v.SetDefault("pubsub.analytics_topic", "adforge-analytics")
	v.SetDefault("pubsub.job_topic", "adforge-jobs")
	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.queue_depth", 64)
	v.SetDefault("jobs.timeout_seconds", 900)
	v.SetDefault("ratelimit.rps", 2.0)
	v.SetDefault("ratelimit.burst", 4)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 250)
	v.SetDefault("retry.max_delay_ms", 5000)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.Backend {
	case "memory":
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongo storage backend")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	switch c.Assets.Backend {
	case "none", "memory":
	case "local":
		if c.Assets.LocalDir == "" {
			return fmt.Errorf("assets.local_dir is required for the local assets backend")
		}
	case "gcs":
		if c.GCS.Bucket == "" {
			return fmt.Errorf("gcs.bucket is required for the gcs assets backend")
		}
	default:
		return fmt.Errorf("assets.backend %q is not supported", c.Assets.Backend)
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Jobs.Workers <= 0 || c.Jobs.QueueDepth <= 0 {
		return fmt.Errorf("jobs.workers and jobs.queue_depth must be > 0")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit.rps and ratelimit.burst must be > 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0")
	}
	return nil
}

// RequestTimeout is the per-request budget enforced by the HTTP server.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// CacheTTL is how long scrape results stay cached.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// JobTimeout bounds a single async creative job.
func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.Jobs.TimeoutSeconds) * time.Second
}
