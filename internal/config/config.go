package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the engine configuration loaded from files and environment
// variables. Interval-style options are declared in seconds (or ms where
// noted) and converted to durations after unmarshalling.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SourcesFile    string `mapstructure:"sources_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	StoragePath           string        `mapstructure:"storage_path"`
	StorageTTLSeconds     int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL            time.Duration `mapstructure:"-"`
	StorageCleanup        time.Duration `mapstructure:"-"`

	FetchTimeoutSeconds int           `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout        time.Duration `mapstructure:"-"`
	MaxConnections      int           `mapstructure:"max_connections"`
	MaxRetries          int           `mapstructure:"max_retries"`
	PolitenessDelayMs   int           `mapstructure:"politeness_delay_ms"`
	PolitenessDelay     time.Duration `mapstructure:"-"`

	MinQualityScore    float64 `mapstructure:"min_quality_score"`
	MinUniquenessScore float64 `mapstructure:"min_uniqueness_score"`

	ConcurrencyLimit     int           `mapstructure:"concurrency_limit"`
	PollSeconds          int64         `mapstructure:"poll_interval_seconds"`
	PollInterval         time.Duration `mapstructure:"-"`
	MinIntervalSeconds   int64         `mapstructure:"min_interval_seconds"`
	MaxIntervalSeconds   int64         `mapstructure:"max_interval_seconds"`
	MinInterval          time.Duration `mapstructure:"-"`
	MaxInterval          time.Duration `mapstructure:"-"`
	FailurePenalty       float64       `mapstructure:"failure_penalty_multiplier"`
	SuccessBonus         float64       `mapstructure:"success_bonus_multiplier"`
	LowActivityThreshold int           `mapstructure:"low_activity_threshold"`
	HighActivityThresh   int           `mapstructure:"high_activity_threshold"`
	SnapshotSeconds      int64         `mapstructure:"snapshot_interval_seconds"`
	SnapshotInterval     time.Duration `mapstructure:"-"`
	HighPriorityDomains  []string      `mapstructure:"high_priority_domains"`

	RewriteEndpoint       string        `mapstructure:"rewrite_endpoint"`
	RewriteModel          string        `mapstructure:"rewrite_model"`
	RewriteAPIKey         string        `mapstructure:"rewrite_api_key"`
	RewriteTimeoutSeconds int           `mapstructure:"rewrite_timeout_seconds"`
	RewriteTimeout        time.Duration `mapstructure:"-"`
	RewriteBaseDelayMs    int           `mapstructure:"rewrite_base_delay_ms"`
	RewriteBaseDelay      time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "vestnik-content-engine")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")

	v.SetDefault("storage_path", "./data/articles.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetDefault("fetch_timeout_seconds", 30)
	v.SetDefault("max_connections", 10)
	v.SetDefault("max_retries", 3)
	v.SetDefault("politeness_delay_ms", 2000)

	v.SetDefault("min_quality_score", 60.0)
	v.SetDefault("min_uniqueness_score", 70.0)

	v.SetDefault("concurrency_limit", 3)
	v.SetDefault("poll_interval_seconds", int64(30))
	v.SetDefault("min_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("max_interval_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("failure_penalty_multiplier", 1.5)
	v.SetDefault("success_bonus_multiplier", 0.8)
	v.SetDefault("low_activity_threshold", 2)
	v.SetDefault("high_activity_threshold", 10)
	v.SetDefault("snapshot_interval_seconds", int64(600))
	v.SetDefault("high_priority_domains", []string{"vesti.ru", "ria.ru", "tass.ru", "rt.com"})

	v.SetDefault("rewrite_endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("rewrite_model", "gpt-4o-mini")
	v.SetDefault("rewrite_api_key", "")
	v.SetDefault("rewrite_timeout_seconds", 60)
	v.SetDefault("rewrite_base_delay_ms", 1000)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	if cfg.ConcurrencyLimit <= 0 {
		return fmt.Errorf("invalid concurrency_limit (must be positive)")
	}
	if cfg.PollSeconds <= 0 {
		return fmt.Errorf("invalid poll_interval_seconds (must be positive seconds)")
	}
	if cfg.MinIntervalSeconds <= 0 || cfg.MaxIntervalSeconds < cfg.MinIntervalSeconds {
		return fmt.Errorf("invalid scheduler interval bounds")
	}
	if cfg.FailurePenalty < 1.0 {
		return fmt.Errorf("invalid failure_penalty_multiplier (must be >= 1.0)")
	}
	if cfg.SuccessBonus <= 0 || cfg.SuccessBonus > 1.0 {
		return fmt.Errorf("invalid success_bonus_multiplier (must be in (0, 1])")
	}

	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanup = time.Duration(cfg.StorageCleanupSeconds) * time.Second
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	cfg.PolitenessDelay = time.Duration(cfg.PolitenessDelayMs) * time.Millisecond
	cfg.PollInterval = time.Duration(cfg.PollSeconds) * time.Second
	cfg.MinInterval = time.Duration(cfg.MinIntervalSeconds) * time.Second
	cfg.MaxInterval = time.Duration(cfg.MaxIntervalSeconds) * time.Second
	cfg.SnapshotInterval = time.Duration(cfg.SnapshotSeconds) * time.Second
	cfg.RewriteTimeout = time.Duration(cfg.RewriteTimeoutSeconds) * time.Second
	cfg.RewriteBaseDelay = time.Duration(cfg.RewriteBaseDelayMs) * time.Millisecond

	return nil
}
