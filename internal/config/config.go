package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Vision       VisionConfig       `yaml:"vision" mapstructure:"vision"`
	Marketplace  MarketplaceConfig  `yaml:"marketplace" mapstructure:"marketplace"`
	CertRegistry CertRegistryConfig `yaml:"cert_registry" mapstructure:"cert_registry"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Pricing      PricingConfig      `yaml:"pricing" mapstructure:"pricing"`
	Decision     DecisionConfig     `yaml:"decision" mapstructure:"decision"`
	Retry        RetryConfig        `yaml:"retry" mapstructure:"retry"`
	Batch        BatchConfig        `yaml:"batch" mapstructure:"batch"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// VisionConfig holds Anthropic vision extraction settings.
type VisionConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	Model         string `yaml:"model" mapstructure:"model"`
	MaxImageBytes int64  `yaml:"max_image_bytes" mapstructure:"max_image_bytes"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MarketplaceConfig holds the comp search API settings.
type MarketplaceConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec   float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCoolSecs  int     `yaml:"breaker_cool_secs" mapstructure:"breaker_cool_secs"`
}

// CertRegistryConfig holds the grading-cert lookup settings. The registry
// enforces a hard daily request quota, so the client fails fast once the
// local budget is spent.
type CertRegistryConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	DailyQuota  int    `yaml:"daily_quota" mapstructure:"daily_quota"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CacheConfig configures price snapshot caching.
type CacheConfig struct {
	TTLHours int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`
}

// PricingConfig holds the price truth builder tunables.
type PricingConfig struct {
	CardCeiling            float64 `yaml:"card_ceiling" mapstructure:"card_ceiling"`
	WatchCeiling           float64 `yaml:"watch_ceiling" mapstructure:"watch_ceiling"`
	SanityMultiple         float64 `yaml:"sanity_multiple" mapstructure:"sanity_multiple"`
	ConservativeMultiplier float64 `yaml:"conservative_multiplier" mapstructure:"conservative_multiplier"`
	HighMinSamples         int     `yaml:"high_min_samples" mapstructure:"high_min_samples"`
	HighMaxCV              float64 `yaml:"high_max_cv" mapstructure:"high_max_cv"`
	HighMaxSpread          float64 `yaml:"high_max_spread" mapstructure:"high_max_spread"`
}

// DecisionConfig holds the decision engine tunables.
type DecisionConfig struct {
	CardFeeRate       float64 `yaml:"card_fee_rate" mapstructure:"card_fee_rate"`
	WatchFeeRate      float64 `yaml:"watch_fee_rate" mapstructure:"watch_fee_rate"`
	MarginThreshold   float64 `yaml:"margin_threshold" mapstructure:"margin_threshold"`
	TargetProfitFloor float64 `yaml:"target_profit_floor" mapstructure:"target_profit_floor"`
	SafetyReduction   float64 `yaml:"safety_reduction" mapstructure:"safety_reduction"`
	Overhead          float64 `yaml:"overhead" mapstructure:"overhead"`
}

// RetryConfig configures retry for the outbound API clients.
type RetryConfig struct {
	Attempts       int     `yaml:"attempts" mapstructure:"attempts"`
	BaseDelayMs    int     `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// BatchConfig configures batch appraisal.
type BatchConfig struct {
	MaxConcurrentScans int `yaml:"max_concurrent_scans" mapstructure:"max_concurrent_scans"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("APPRAISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "appraise.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_scans", 4)
	v.SetDefault("cache.ttl_hours", 6)
	v.SetDefault("vision.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("vision.max_image_bytes", 5*1024*1024)
	v.SetDefault("vision.timeout_secs", 60)
	v.SetDefault("marketplace.base_url", "https://api.flipcomps.io/v1")
	v.SetDefault("marketplace.requests_per_sec", 2.0)
	v.SetDefault("marketplace.burst", 4)
	v.SetDefault("marketplace.timeout_secs", 30)
	v.SetDefault("marketplace.breaker_threshold", 5)
	v.SetDefault("marketplace.breaker_cool_secs", 30)
	v.SetDefault("cert_registry.base_url", "https://api.gradecert.io/v1")
	v.SetDefault("cert_registry.daily_quota", 100)
	v.SetDefault("cert_registry.timeout_secs", 15)
	v.SetDefault("pricing.card_ceiling", 5000)
	v.SetDefault("pricing.watch_ceiling", 25000)
	v.SetDefault("pricing.sanity_multiple", 3.0)
	v.SetDefault("pricing.conservative_multiplier", 0.85)
	v.SetDefault("pricing.high_min_samples", 5)
	v.SetDefault("pricing.high_max_cv", 0.30)
	v.SetDefault("pricing.high_max_spread", 2.2)
	v.SetDefault("decision.card_fee_rate", 0.13)
	v.SetDefault("decision.watch_fee_rate", 0.13)
	v.SetDefault("decision.margin_threshold", 0.25)
	v.SetDefault("decision.target_profit_floor", 10.0)
	v.SetDefault("decision.safety_reduction", 0.8)
	v.SetDefault("decision.overhead", 0.0)
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("retry.max_delay_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
